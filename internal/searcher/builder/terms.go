package builder

import (
	"github.com/bestmax/bestmax/internal/analysis"
)

// Term is a reference to one atomic index term in one field.
type Term struct {
	Field string
	Text  string
}

// CollectTerms runs the field's analyzer over one text span and returns the
// resulting index terms, deduplicated in first-seen order. The analyzer may
// legitimately produce zero tokens (stop words, too-short input); the empty
// result is not an error and callers skip it.
func CollectTerms(text string, analyzer *analysis.Analyzer, field string) []Term {
	tokens := analyzer.Analyze(text)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]Term, 0, len(tokens))
	for _, token := range tokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, Term{Field: field, Text: token})
	}
	return terms
}
