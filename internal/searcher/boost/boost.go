// Package boost parses request boost parameters into query clauses and
// value functions: bq (boost queries), bf (additive boost functions), and
// boost (multiplicative boost functions).
package boost

import (
	"strconv"
	"strings"

	"github.com/bestmax/bestmax/internal/query"
	"github.com/bestmax/bestmax/pkg/errors"
)

// Params holds the raw boost parameters of one request.
type Params struct {
	// BoostQueries are "field:term" or "field:term^2.5" expressions.
	BoostQueries []string
	// BoostFunctions and MultiplicativeBoosts are function expressions:
	// const(x), field(name), or query(field:term[^boost]).
	BoostFunctions       []string
	MultiplicativeBoosts []string
}

// Compiled is the parsed form consumed by the query builder.
type Compiled struct {
	BoostQueries         []query.Query
	BoostFunctions       []query.Query
	MultiplicativeBoosts []query.ValueSource
}

// Compile parses all boost parameters. Any malformed expression fails the
// whole request; boosts are caller input, not something to guess at.
func Compile(p Params) (*Compiled, error) {
	c := &Compiled{}
	for _, expr := range p.BoostQueries {
		q, err := parseTermExpr(expr)
		if err != nil {
			return nil, err
		}
		c.BoostQueries = append(c.BoostQueries, q)
	}
	for _, expr := range p.BoostFunctions {
		src, err := ParseFunction(expr)
		if err != nil {
			return nil, err
		}
		c.BoostFunctions = append(c.BoostFunctions, query.FunctionQuery{Source: src})
	}
	for _, expr := range p.MultiplicativeBoosts {
		src, err := ParseFunction(expr)
		if err != nil {
			return nil, err
		}
		c.MultiplicativeBoosts = append(c.MultiplicativeBoosts, src)
	}
	return c, nil
}

// ParseFunction parses one value-function expression.
func ParseFunction(expr string) (query.ValueSource, error) {
	expr = strings.TrimSpace(expr)
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return nil, errors.Newf(errors.ErrInvalidInput, 400, "malformed boost function %q", expr)
	}
	name := expr[:open]
	arg := expr[open+1 : len(expr)-1]

	switch name {
	case "const":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrInvalidInput, 400, "malformed const boost %q", expr)
		}
		return query.ConstValueSource(v), nil
	case "field":
		if arg == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, 400, "field boost needs a field name")
		}
		return query.FieldValueSource{Field: arg}, nil
	case "query":
		q, err := parseTermExpr(arg)
		if err != nil {
			return nil, err
		}
		return query.QueryValueSource{Query: q, Default: 0}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, 400, "unknown boost function %q", name)
	}
}

// parseTermExpr parses "field:term" with an optional "^boost" suffix.
func parseTermExpr(expr string) (query.Query, error) {
	expr = strings.TrimSpace(expr)
	boostVal := 1.0
	if caret := strings.LastIndexByte(expr, '^'); caret >= 0 {
		v, err := strconv.ParseFloat(expr[caret+1:], 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrInvalidInput, 400, "malformed boost in %q", expr)
		}
		boostVal = v
		expr = expr[:caret]
	}
	field, term, ok := strings.Cut(expr, ":")
	if !ok || field == "" || term == "" {
		return nil, errors.Newf(errors.ErrInvalidInput, 400, "malformed boost query %q, want field:term", expr)
	}
	return query.TermQuery{Field: field, Term: term, Boost: boostVal}, nil
}

// WrapFunc post-processes a compiled value source, e.g. to add caching.
// The identity wrap leaves it untouched.
type WrapFunc func(query.ValueSource) query.ValueSource

// CompileProduct collapses several value sources into one. A single source
// is returned as-is rather than wrapped in a one-element product; the wrap
// strategy is applied to the final source either way. A nil wrap means
// identity.
func CompileProduct(sources []query.ValueSource, wrap WrapFunc) query.ValueSource {
	if len(sources) == 0 {
		return nil
	}
	var combined query.ValueSource
	if len(sources) == 1 {
		combined = sources[0]
	} else {
		combined = query.ProductValueSource{Sources: sources}
	}
	if wrap != nil {
		combined = wrap(combined)
	}
	return combined
}
