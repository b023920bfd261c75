// Package builder assembles the ranked, boosted composite query for a
// parsed search request. Every main term must match in at least one field;
// synonym and subtopic expansions contribute score without being mandatory;
// the best-scoring field per term wins via a tie-broken dismax; boost
// queries and functions layer on top.
package builder

import (
	"sort"

	"github.com/bestmax/bestmax/internal/query"
	"github.com/bestmax/bestmax/internal/schema"
	"github.com/bestmax/bestmax/internal/searcher/fieldterm"
	"github.com/bestmax/bestmax/internal/searcher/parser"
	"github.com/bestmax/bestmax/pkg/errors"
)

// primaryBoost is the role weight of the user's own term text.
const primaryBoost = 1.0

// Options carries the optional collaborators of one build: the field-term
// cache and the externally parsed boost inputs. The zero value disables all
// of them.
type Options struct {
	// FieldTermCache filters per-field term variants when the parsed
	// query has InspectTerms set. Nil disables filtering.
	FieldTermCache fieldterm.Cache
	// BoostQueries are appended as optional clauses of the top-level
	// conjunction. They affect scores, never matching.
	BoostQueries []query.Query
	// BoostFunctions are additive score functions, appended like
	// BoostQueries.
	BoostFunctions []query.Query
	// MultiplicativeBoosts scale the score of the whole query. Several
	// sources are combined into one product before wrapping.
	MultiplicativeBoosts []query.ValueSource
}

// Result is the outcome of one build.
type Result struct {
	Query query.Query
	// ClauseCount is the number of term-query units emitted. Diagnostic
	// only; it never drives control flow.
	ClauseCount int
	// TermsFiltered is the number of term-query units dropped by
	// field-term cache filtering.
	TermsFiltered int
}

// Builder holds the validated, immutable inputs of query construction. A
// Builder is cheap, single-use-friendly, and must not be shared across
// goroutines during a Build call; distinct builders are fully independent.
type Builder struct {
	parsed *parser.ParsedQuery
	sch    *schema.Schema
	opts   Options
	// fields is the sorted field list, fixed at construction so repeated
	// builds emit structurally identical queries.
	fields []string
}

// New validates the inputs and returns a Builder. Violated preconditions
// (nil query, nil schema, empty term text, unknown field, tie-breaker out
// of range) fail immediately and are never silently defaulted.
func New(parsed *parser.ParsedQuery, sch *schema.Schema, opts Options) (*Builder, error) {
	if parsed == nil {
		return nil, errors.Preconditionf("parsed query must not be nil")
	}
	if sch == nil {
		return nil, errors.Preconditionf("schema must not be nil")
	}
	if parsed.TieBreaker < 0 || parsed.TieBreaker > 1 {
		return nil, errors.Preconditionf("tie-breaker must be in [0,1], got %v", parsed.TieBreaker)
	}
	for i, term := range parsed.Terms {
		if term.Text == "" {
			return nil, errors.Preconditionf("query term %d has empty text", i)
		}
		for _, syn := range term.Synonyms {
			if syn == "" {
				return nil, errors.Preconditionf("query term %d has an empty synonym", i)
			}
		}
		for _, sub := range term.Subtopics {
			if sub == "" {
				return nil, errors.Preconditionf("query term %d has an empty subtopic", i)
			}
		}
	}
	fields := make([]string, 0, len(parsed.FieldsAndBoosts))
	for field := range parsed.FieldsAndBoosts {
		if _, ok := sch.Field(field); !ok {
			return nil, errors.Newf(errors.ErrUnknownField, 400, "field %q is not in the schema", field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return &Builder{parsed: parsed, sch: sch, opts: opts, fields: fields}, nil
}

// Build assembles the composite query. It is pure: repeated calls with the
// same Builder return structurally equal results, and the emitted-unit
// count is part of the Result rather than builder state.
func (b *Builder) Build() (*Result, error) {
	res := &Result{}
	inner := b.buildWrappingQuery(res)

	main := inner
	if n := len(b.opts.MultiplicativeBoosts); n > 0 {
		boost := b.opts.MultiplicativeBoosts[0]
		if n > 1 {
			sources := make([]query.ValueSource, n)
			copy(sources, b.opts.MultiplicativeBoosts)
			boost = query.ProductValueSource{Sources: sources}
		}
		main = query.BoostedQuery{Query: inner, Boost: boost}
	}

	res.Query = main
	return res, nil
}

// buildWrappingQuery builds the unboosted top level: a match-all for an
// empty query, otherwise the conjunction of one dismax per query term plus
// the optional boost clauses.
func (b *Builder) buildWrappingQuery(res *Result) query.Query {
	if len(b.parsed.Terms) == 0 {
		return query.MatchAllQuery{}
	}

	bq := query.BooleanQuery{DisableCoord: true}
	for _, term := range b.parsed.Terms {
		bq.AddMust(b.buildDismaxQuery(term, res))
	}
	for _, boost := range b.opts.BoostQueries {
		bq.AddShould(boost)
	}
	for _, fn := range b.opts.BoostFunctions {
		bq.AddShould(fn)
	}
	return bq
}

// buildDismaxQuery builds the best-field-wins disjunction for one query
// term and its expansions. Fields whose analyzer yields nothing (or whose
// terms are all filtered away) contribute no disjunct; an empty disjunction
// is legal.
func (b *Builder) buildDismaxQuery(term parser.QueryTerm, res *Result) query.Query {
	dm := query.DisMaxQuery{TieBreaker: b.parsed.TieBreaker}

	for _, field := range b.fields {
		f, _ := b.sch.Field(field)

		b.addDisjunct(&dm, field, term.Text, primaryBoost, f, res)
		for _, synonym := range term.Synonyms {
			b.addDisjunct(&dm, field, synonym, b.parsed.SynonymBoost, f, res)
		}
		for _, subtopic := range term.Subtopics {
			b.addDisjunct(&dm, field, subtopic, b.parsed.SubtopicBoost, f, res)
		}
	}
	return dm
}

// addDisjunct collects the term-query units for one (field, text, role)
// triple and appends them as a single additive group. Tokens of one text
// span are summed inside the group, not raised to separate clauses.
func (b *Builder) addDisjunct(dm *query.DisMaxQuery, field, text string, extraBoost float64, f schema.Field, res *Result) {
	units := b.buildTermQueries(field, CollectTerms(text, f.Analyzer, field), extraBoost, res)
	switch len(units) {
	case 0:
	case 1:
		dm.Disjuncts = append(dm.Disjuncts, units[0])
	default:
		dm.Disjuncts = append(dm.Disjuncts, query.DisjunctionQuery{Queries: units})
	}
}

// buildTermQueries builds the unit set for one field. When term inspection
// is active and the field's cache entry opts into filtering, terms outside
// the cached set are dropped; a missing entry or an entry with ShouldCache
// false never filters.
func (b *Builder) buildTermQueries(field string, terms []Term, extraBoost float64, res *Result) []query.Query {
	inspect := b.parsed.InspectTerms && b.opts.FieldTermCache != nil
	fieldBoost := b.parsed.FieldsAndBoosts[field]

	units := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		if inspect {
			if entry, ok := b.opts.FieldTermCache.Lookup(field); ok && entry.ShouldCache && !entry.Contains(term.Text) {
				res.TermsFiltered++
				continue
			}
		}
		units = append(units, b.buildTermQuery(term, fieldBoost*extraBoost, res))
	}
	return units
}

// buildTermQuery wraps one atomic term into a scorable unit. The weight is
// applied only if positive; a zero or missing boost leaves the unit at
// neutral weight instead of zeroing its contribution.
func (b *Builder) buildTermQuery(term Term, weight float64, res *Result) query.TermQuery {
	res.ClauseCount++
	tq := query.TermQuery{Field: term.Field, Term: term.Text, Boost: 1.0}
	if weight > 0 {
		tq.Boost = weight
	}
	return tq
}
