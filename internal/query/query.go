// Package query defines the composite query model produced by the query
// builder and consumed by the execution engine. Queries are plain values:
// building one performs no I/O and no matching.
package query

import (
	"fmt"
	"sort"
	"strings"
)

// Query is a node in the composite query tree.
type Query interface {
	// String returns a compact, deterministic representation used for
	// logging and cache keys.
	String() string
}

// MatchAllQuery matches every document with a neutral score.
type MatchAllQuery struct{}

func (MatchAllQuery) String() string { return "*:*" }

// TermQuery is the atomic unit: one index term in one field at one weight.
// A Boost of 1.0 is neutral.
type TermQuery struct {
	Field string
	Term  string
	Boost float64
}

func (q TermQuery) String() string {
	if q.Boost != 1.0 {
		return fmt.Sprintf("%s:%s^%g", q.Field, q.Term, q.Boost)
	}
	return fmt.Sprintf("%s:%s", q.Field, q.Term)
}

// DisjunctionQuery is an additive OR group: a document matches if any child
// matches, and the scores of all matching children are summed.
type DisjunctionQuery struct {
	Queries []Query
}

func (q DisjunctionQuery) String() string {
	parts := make([]string, len(q.Queries))
	for i, sub := range q.Queries {
		parts[i] = sub.String()
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// DisMaxQuery scores a document as the maximum of its disjunct scores plus
// TieBreaker times the sum of the remaining disjunct scores. TieBreaker 0
// is pure max, 1 is pure sum. Zero disjuncts is legal and matches nothing.
type DisMaxQuery struct {
	TieBreaker float64
	Disjuncts  []Query
}

func (q DisMaxQuery) String() string {
	parts := make([]string, len(q.Disjuncts))
	for i, sub := range q.Disjuncts {
		parts[i] = sub.String()
	}
	return fmt.Sprintf("dismax[tie=%g](%s)", q.TieBreaker, strings.Join(parts, " | "))
}

// Occur states how a boolean clause participates in matching.
type Occur int

const (
	// OccurMust clauses are required for a document to match.
	OccurMust Occur = iota
	// OccurShould clauses only contribute score.
	OccurShould
)

// BooleanClause pairs a sub-query with its occurrence mode.
type BooleanClause struct {
	Occur Occur
	Query Query
}

// BooleanQuery conjoins Must clauses and adds Should clauses as optional
// score contributions. DisableCoord switches off any overlap-based score
// adjustment so each clause is counted independently.
type BooleanQuery struct {
	Clauses      []BooleanClause
	DisableCoord bool
}

// AddMust appends a required clause.
func (q *BooleanQuery) AddMust(sub Query) {
	q.Clauses = append(q.Clauses, BooleanClause{Occur: OccurMust, Query: sub})
}

// AddShould appends an optional, score-only clause.
func (q *BooleanQuery) AddShould(sub Query) {
	q.Clauses = append(q.Clauses, BooleanClause{Occur: OccurShould, Query: sub})
}

func (q BooleanQuery) String() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		prefix := "+"
		if c.Occur == OccurShould {
			prefix = ""
		}
		parts[i] = prefix + c.Query.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// FunctionQuery matches every document and scores it with the value of its
// source. Used as an optional clause it adds the function value on top of
// the document's score without affecting matching.
type FunctionQuery struct {
	Source ValueSource
}

func (q FunctionQuery) String() string {
	return "func(" + q.Source.Description() + ")"
}

// BoostedQuery multiplies the score of the wrapped query by the per-document
// value of Boost. Matching is unchanged.
type BoostedQuery struct {
	Query Query
	Boost ValueSource
}

func (q BoostedQuery) String() string {
	return fmt.Sprintf("boost(%s, %s)", q.Query.String(), q.Boost.Description())
}

// SortQueries orders a query slice by string form. Useful where a set of
// queries must be emitted deterministically.
func SortQueries(queries []Query) {
	sort.Slice(queries, func(i, j int) bool {
		return queries[i].String() < queries[j].String()
	})
}
