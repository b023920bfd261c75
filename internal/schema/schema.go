// Package schema resolves searchable fields to their analyzers and boosts.
// The schema is built once from configuration and is read-only afterwards,
// so it is safe to share across concurrent query builds.
package schema

import (
	"sort"

	"github.com/bestmax/bestmax/internal/analysis"
	"github.com/bestmax/bestmax/pkg/config"
)

// Field is one searchable field with its query analyzer and boost.
type Field struct {
	Name     string
	Boost    float64
	Analyzer *analysis.Analyzer
}

// Schema maps field names to their analyzers and boosts.
type Schema struct {
	fields map[string]Field
}

// FromConfig builds a Schema from the search and analysis configuration.
func FromConfig(search config.SearchConfig, an config.AnalysisConfig) *Schema {
	fields := make(map[string]Field, len(search.Fields))
	for name, boost := range search.Fields {
		fields[name] = Field{
			Name:     name,
			Boost:    boost,
			Analyzer: analysis.New(an.ForField(name)),
		}
	}
	return &Schema{fields: fields}
}

// Field returns the field definition and whether it exists.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Analyzer returns the query analyzer for the given field, or nil if the
// field is not part of the schema.
func (s *Schema) Analyzer(name string) *analysis.Analyzer {
	if f, ok := s.fields[name]; ok {
		return f.Analyzer
	}
	return nil
}

// FieldNames returns all schema field names in sorted order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldsAndBoosts returns a copy of the field-to-boost mapping.
func (s *Schema) FieldsAndBoosts() map[string]float64 {
	boosts := make(map[string]float64, len(s.fields))
	for name, f := range s.fields {
		boosts[name] = f.Boost
	}
	return boosts
}
