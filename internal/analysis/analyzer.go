// Package analysis provides per-field text analysis for the search service.
// An Analyzer lower-cases input, splits on non-alphanumeric boundaries,
// removes stop-words, and applies a simple suffix-based stemmer; every stage
// except splitting can be switched off per field.
package analysis

import (
	"strings"
	"unicode"

	"github.com/bestmax/bestmax/pkg/config"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Analyzer turns a text span into a sequence of normalised tokens. It is
// pure and deterministic for fixed input and may legitimately produce zero
// tokens (e.g. stop-word-only input).
type Analyzer struct {
	lowercase bool
	minLength int
	stopWords bool
	stemming  bool
}

// New builds an Analyzer from its configuration.
func New(cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{
		lowercase: cfg.Lowercase,
		minLength: cfg.MinTokenLength,
		stopWords: cfg.StopWords,
		stemming:  cfg.Stemming,
	}
}

// Analyze tokenizes text and returns the normalised token stream. The
// result may be empty and may contain duplicates; callers needing a set
// must deduplicate themselves.
func (a *Analyzer) Analyze(text string) []string {
	if a.lowercase {
		text = strings.ToLower(text)
	}
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < a.minLength {
			continue
		}
		if a.stopWords {
			if _, isStop := stopWords[word]; isStop {
				continue
			}
		}
		if a.stemming {
			word = stem(word)
			if word == "" {
				continue
			}
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// stem applies a simple suffix-stripping stemmer to the given word.
func stem(word string) string {
	suffixes := []struct {
		suffix      string
		replacement string
		minLen      int
	}{
		{"ational", "ate", 2},
		{"tional", "tion", 2},
		{"encies", "ence", 2},
		{"ances", "ance", 2},
		{"ments", "ment", 2},
		{"izing", "ize", 2},
		{"ating", "ate", 2},
		{"iness", "y", 2},
		{"ously", "ous", 2},
		{"ively", "ive", 2},
		{"eness", "ene", 2},
		{"tion", "t", 3},
		{"sion", "s", 3},
		{"ying", "y", 2},
		{"ling", "l", 3},
		{"ies", "y", 2},
		{"ing", "", 3},
		{"ers", "er", 2},
		{"est", "", 3},
		{"ful", "", 3},
		{"ous", "", 3},
		{"ess", "", 3},
		{"ble", "", 3},
		{"ed", "", 3},
		{"er", "", 3},
		{"ly", "", 3},
		{"es", "", 3},
		{"ss", "ss", 2},
		{"s", "", 3},
	}
	for _, rule := range suffixes {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}
