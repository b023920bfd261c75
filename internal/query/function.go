package query

import (
	"fmt"
	"strings"
)

// ValueSource yields one float value per document. Sources are declarative:
// evaluation happens in the execution engine, which resolves field values
// and nested query scores.
type ValueSource interface {
	Description() string
}

// ConstValueSource yields the same value for every document.
type ConstValueSource float64

func (v ConstValueSource) Description() string { return fmt.Sprintf("const(%g)", float64(v)) }

// FieldValueSource yields the numeric doc value stored under Field, or 0 if
// the document has none.
type FieldValueSource struct {
	Field string
}

func (v FieldValueSource) Description() string { return fmt.Sprintf("field(%s)", v.Field) }

// QueryValueSource yields the score of Query for the document, or Default
// if the document does not match.
type QueryValueSource struct {
	Query   Query
	Default float64
}

func (v QueryValueSource) Description() string {
	return fmt.Sprintf("query(%s,def=%g)", v.Query.String(), v.Default)
}

// ProductValueSource yields the elementwise product of its factors.
type ProductValueSource struct {
	Sources []ValueSource
}

func (v ProductValueSource) Description() string {
	parts := make([]string, len(v.Sources))
	for i, s := range v.Sources {
		parts[i] = s.Description()
	}
	return "product(" + strings.Join(parts, ",") + ")"
}
