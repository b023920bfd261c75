package query

import "testing"

func TestStringForms(t *testing.T) {
	bq := BooleanQuery{DisableCoord: true}
	bq.AddMust(DisMaxQuery{
		TieBreaker: 0.1,
		Disjuncts: []Query{
			TermQuery{Field: "description", Term: "red", Boost: 1.0},
			TermQuery{Field: "title", Term: "red", Boost: 2},
		},
	})
	bq.AddShould(TermQuery{Field: "title", Term: "sale", Boost: 1.5})

	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"match all", MatchAllQuery{}, "*:*"},
		{"term neutral boost", TermQuery{Field: "title", Term: "red", Boost: 1.0}, "title:red"},
		{"term boosted", TermQuery{Field: "title", Term: "red", Boost: 2.5}, "title:red^2.5"},
		{
			"disjunction",
			DisjunctionQuery{Queries: []Query{
				TermQuery{Field: "title", Term: "blue", Boost: 1.0},
				TermQuery{Field: "title", Term: "jeans", Boost: 1.0},
			}},
			"(title:blue OR title:jeans)",
		},
		{
			"boolean with must and should",
			bq,
			"(+dismax[tie=0.1](description:red | title:red^2) title:sale^1.5)",
		},
		{
			"function",
			FunctionQuery{Source: FieldValueSource{Field: "popularity"}},
			"func(field(popularity))",
		},
		{
			"boosted",
			BoostedQuery{Query: MatchAllQuery{}, Boost: ConstValueSource(2)},
			"boost(*:*, const(2))",
		},
		{
			"product source",
			FunctionQuery{Source: ProductValueSource{Sources: []ValueSource{
				ConstValueSource(2),
				QueryValueSource{Query: TermQuery{Field: "title", Term: "sale", Boost: 1.0}, Default: 0.5},
			}}},
			"func(product(const(2),query(title:sale,def=0.5)))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSortQueries(t *testing.T) {
	queries := []Query{
		TermQuery{Field: "title", Term: "zebra", Boost: 1.0},
		TermQuery{Field: "description", Term: "apple", Boost: 1.0},
		MatchAllQuery{},
	}
	SortQueries(queries)
	want := []string{"*:*", "description:apple", "title:zebra"}
	for i, w := range want {
		if queries[i].String() != w {
			t.Errorf("sorted[%d] = %s, want %s", i, queries[i], w)
		}
	}
}
