// Package parser turns a raw query string into the ParsedQuery consumed by
// the query builder: the ordered main terms, their synonym and subtopic
// expansions, the target fields with boosts, and the dismax parameters.
package parser

import (
	"strings"

	"github.com/bestmax/bestmax/pkg/config"
)

// QueryTerm is one logical unit of the user's query: a primary text span
// plus optional synonym and subtopic expansions. Text is never empty.
type QueryTerm struct {
	Text      string
	Synonyms  []string
	Subtopics []string
}

// ParsedQuery is the read-only input of query construction. It is created
// once per request and must not be mutated afterwards.
type ParsedQuery struct {
	Terms           []QueryTerm
	FieldsAndBoosts map[string]float64
	// TieBreaker is the dismax tie-breaker multiplier in [0,1].
	TieBreaker    float64
	SynonymBoost  float64
	SubtopicBoost float64
	// InspectTerms enables field-term cache filtering during build.
	InspectTerms bool
	Raw          string
}

// Parse splits the raw query into terms and attaches the configured synonym
// and subtopic expansions. Expansion lookup is case-insensitive; duplicate
// expansions equal to the primary text are dropped.
func Parse(raw string, cfg config.SearchConfig) *ParsedQuery {
	pq := &ParsedQuery{
		Terms:           make([]QueryTerm, 0),
		FieldsAndBoosts: copyBoosts(cfg.Fields),
		TieBreaker:      cfg.TieBreaker,
		SynonymBoost:    cfg.SynonymBoost,
		SubtopicBoost:   cfg.SubtopicBoost,
		InspectTerms:    cfg.InspectTerms,
		Raw:             raw,
	}
	for _, word := range strings.Fields(raw) {
		key := strings.ToLower(word)
		pq.Terms = append(pq.Terms, QueryTerm{
			Text:      word,
			Synonyms:  expansions(cfg.Synonyms, key),
			Subtopics: expansions(cfg.Subtopics, key),
		})
	}
	return pq
}

func expansions(table map[string][]string, key string) []string {
	values := table[key]
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.EqualFold(v, key) {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func copyBoosts(fields map[string]float64) map[string]float64 {
	boosts := make(map[string]float64, len(fields))
	for name, boost := range fields {
		boosts[name] = boost
	}
	return boosts
}
