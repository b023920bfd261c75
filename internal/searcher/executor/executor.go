// Package executor evaluates composite queries against the in-memory index
// and returns ranked results. Scoring follows the query model exactly:
// dismax blends max and sum via the tie-breaker, boolean conjunctions count
// clauses independently, and boost functions only move scores, never
// matching.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bestmax/bestmax/internal/indexer/index"
	"github.com/bestmax/bestmax/internal/query"
	"github.com/bestmax/bestmax/internal/searcher/ranker"
)

// SearchResult is the ranked outcome of one query execution.
type SearchResult struct {
	Query       string             `json:"query"`
	TotalHits   int                `json:"total_hits"`
	Results     []ranker.ScoredDoc `json:"results"`
	ClauseCount int                `json:"clause_count"`
}

// Executor evaluates queries against one index.
type Executor struct {
	idx    *index.MemoryIndex
	logger *slog.Logger
}

// New creates an Executor over the given index.
func New(idx *index.MemoryIndex) *Executor {
	return &Executor{
		idx:    idx,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute evaluates q and returns the top limit results. raw is the
// original query string, echoed in the result for the caller.
func (e *Executor) Execute(ctx context.Context, q query.Query, raw string, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scores, err := e.scores(q)
	if err != nil {
		return nil, err
	}
	result := &SearchResult{
		Query:     raw,
		TotalHits: len(scores),
		Results:   ranker.Top(scores, limit),
	}
	e.logger.Debug("query executed",
		"query", raw,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
	)
	return result, nil
}

// scores returns the docID-to-score map of all documents matching q.
func (e *Executor) scores(q query.Query) (map[string]float64, error) {
	switch qt := q.(type) {
	case query.MatchAllQuery:
		scores := make(map[string]float64)
		for _, docID := range e.idx.DocIDs() {
			scores[docID] = 1.0
		}
		return scores, nil

	case query.TermQuery:
		return e.termScores(qt), nil

	case query.DisjunctionQuery:
		scores := make(map[string]float64)
		for _, sub := range qt.Queries {
			subScores, err := e.scores(sub)
			if err != nil {
				return nil, err
			}
			for docID, s := range subScores {
				scores[docID] += s
			}
		}
		return scores, nil

	case query.DisMaxQuery:
		return e.dismaxScores(qt)

	case query.BooleanQuery:
		return e.booleanScores(qt)

	case query.FunctionQuery:
		value, err := e.valuer(qt.Source)
		if err != nil {
			return nil, err
		}
		scores := make(map[string]float64)
		for _, docID := range e.idx.DocIDs() {
			scores[docID] = value(docID)
		}
		return scores, nil

	case query.BoostedQuery:
		inner, err := e.scores(qt.Query)
		if err != nil {
			return nil, err
		}
		value, err := e.valuer(qt.Boost)
		if err != nil {
			return nil, err
		}
		for docID := range inner {
			inner[docID] *= value(docID)
		}
		return inner, nil

	default:
		return nil, fmt.Errorf("unsupported query type %T", q)
	}
}

// termScores scores one term-query unit: BM25 for the (field, term) pair
// times the unit's weight.
func (e *Executor) termScores(q query.TermQuery) map[string]float64 {
	postings := e.idx.Postings(q.Field, q.Term)
	scores := make(map[string]float64, len(postings))
	if len(postings) == 0 {
		return scores
	}
	stats := e.idx.Stats(q.Field)
	docFreq := int64(len(postings))
	for _, p := range postings {
		score := ranker.TermScore(
			float64(p.Frequency),
			float64(e.idx.FieldLength(q.Field, p.DocID)),
			stats.AvgLength,
			stats.TotalDocs,
			docFreq,
		)
		scores[p.DocID] = score * q.Boost
	}
	return scores
}

// dismaxScores blends the disjunct scores: max plus tie-breaker times the
// rest. A dismax with zero disjuncts matches nothing.
func (e *Executor) dismaxScores(q query.DisMaxQuery) (map[string]float64, error) {
	maxScores := make(map[string]float64)
	sumScores := make(map[string]float64)
	for _, disjunct := range q.Disjuncts {
		subScores, err := e.scores(disjunct)
		if err != nil {
			return nil, err
		}
		for docID, s := range subScores {
			if cur, ok := maxScores[docID]; !ok || s > cur {
				maxScores[docID] = s
			}
			sumScores[docID] += s
		}
	}
	scores := make(map[string]float64, len(maxScores))
	for docID, max := range maxScores {
		scores[docID] = max + q.TieBreaker*(sumScores[docID]-max)
	}
	return scores, nil
}

// booleanScores intersects the Must clauses and layers Should clauses as
// score-only contributions. With no Must clauses, candidates are the union
// of Should matches.
func (e *Executor) booleanScores(q query.BooleanQuery) (map[string]float64, error) {
	var mustScores []map[string]float64
	var shouldScores []map[string]float64
	for _, clause := range q.Clauses {
		subScores, err := e.scores(clause.Query)
		if err != nil {
			return nil, err
		}
		if clause.Occur == query.OccurMust {
			mustScores = append(mustScores, subScores)
		} else {
			shouldScores = append(shouldScores, subScores)
		}
	}

	scores := make(map[string]float64)
	if len(mustScores) > 0 {
		// Seed from the first clause, then require membership in the
		// rest. Coord is disabled: each clause contributes its full
		// score regardless of overlap.
		for docID, s := range mustScores[0] {
			scores[docID] = s
		}
		for _, clause := range mustScores[1:] {
			for docID := range scores {
				s, ok := clause[docID]
				if !ok {
					delete(scores, docID)
					continue
				}
				scores[docID] += s
			}
		}
	} else {
		for _, clause := range shouldScores {
			for docID, s := range clause {
				scores[docID] += s
			}
		}
		return scores, nil
	}

	for _, clause := range shouldScores {
		for docID, s := range clause {
			if _, ok := scores[docID]; ok {
				scores[docID] += s
			}
		}
	}
	return scores, nil
}

// valuer resolves a value source into a per-document evaluation function.
func (e *Executor) valuer(src query.ValueSource) (func(docID string) float64, error) {
	switch s := src.(type) {
	case query.ConstValueSource:
		v := float64(s)
		return func(string) float64 { return v }, nil
	case query.FieldValueSource:
		return func(docID string) float64 {
			v, _ := e.idx.DocValue(docID, s.Field)
			return v
		}, nil
	case query.QueryValueSource:
		subScores, err := e.scores(s.Query)
		if err != nil {
			return nil, err
		}
		return func(docID string) float64 {
			if v, ok := subScores[docID]; ok {
				return v
			}
			return s.Default
		}, nil
	case query.ProductValueSource:
		factors := make([]func(string) float64, len(s.Sources))
		for i, sub := range s.Sources {
			fn, err := e.valuer(sub)
			if err != nil {
				return nil, err
			}
			factors[i] = fn
		}
		return func(docID string) float64 {
			product := 1.0
			for _, fn := range factors {
				product *= fn(docID)
			}
			return product
		}, nil
	default:
		return nil, fmt.Errorf("unsupported value source %T", src)
	}
}
