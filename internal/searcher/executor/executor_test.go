package executor

import (
	"context"
	"math"
	"testing"

	"github.com/bestmax/bestmax/internal/indexer/index"
	"github.com/bestmax/bestmax/internal/query"
	"github.com/bestmax/bestmax/internal/schema"
	"github.com/bestmax/bestmax/pkg/config"
)

func testIndex(t *testing.T) *index.MemoryIndex {
	t.Helper()
	sch := schema.FromConfig(
		config.SearchConfig{Fields: map[string]float64{"title": 2.0, "description": 1.0}},
		config.AnalysisConfig{Default: config.AnalyzerConfig{Lowercase: true, MinTokenLength: 2}},
	)
	idx := index.NewMemoryIndex(sch)
	docs := []struct {
		id     string
		fields map[string]string
		values map[string]float64
	}{
		{"doc1", map[string]string{"title": "red shoes", "description": "comfortable red running shoes"}, map[string]float64{"popularity": 3}},
		{"doc2", map[string]string{"title": "blue shoes", "description": "waterproof hiking shoes"}, map[string]float64{"popularity": 5}},
		{"doc3", map[string]string{"title": "green jacket", "description": "warm winter jacket"}, nil},
	}
	for _, d := range docs {
		if err := idx.AddDocument(d.id, d.fields, d.values); err != nil {
			t.Fatalf("AddDocument(%s): %v", d.id, err)
		}
	}
	return idx
}

func scoresOf(t *testing.T, idx *index.MemoryIndex, q query.Query) map[string]float64 {
	t.Helper()
	res, err := New(idx).Execute(context.Background(), q, q.String(), 0)
	if err != nil {
		t.Fatalf("Execute(%s): %v", q, err)
	}
	scores := make(map[string]float64, len(res.Results))
	for _, doc := range res.Results {
		scores[doc.DocID] = doc.Score
	}
	return scores
}

func TestExecuteMatchAll(t *testing.T) {
	idx := testIndex(t)
	scores := scoresOf(t, idx, query.MatchAllQuery{})
	if len(scores) != 3 {
		t.Fatalf("hits = %d, want 3", len(scores))
	}
	for docID, s := range scores {
		if s != 1.0 {
			t.Errorf("score[%s] = %g, want neutral 1.0", docID, s)
		}
	}
}

func TestExecuteTermQuery(t *testing.T) {
	idx := testIndex(t)

	scores := scoresOf(t, idx, query.TermQuery{Field: "title", Term: "shoes", Boost: 1.0})
	if len(scores) != 2 {
		t.Fatalf("hits = %v, want doc1 and doc2", scores)
	}
	if _, ok := scores["doc3"]; ok {
		t.Error("doc3 matched a term it does not contain")
	}

	boosted := scoresOf(t, idx, query.TermQuery{Field: "title", Term: "shoes", Boost: 3.0})
	for docID := range scores {
		if math.Abs(boosted[docID]-scores[docID]*3) > 0.001 {
			t.Errorf("boosted score[%s] = %g, want ~3x of %g", docID, boosted[docID], scores[docID])
		}
	}
}

func TestExecuteDismaxTieBreaker(t *testing.T) {
	idx := testIndex(t)
	disjuncts := []query.Query{
		query.FunctionQuery{Source: query.ConstValueSource(2)},
		query.FunctionQuery{Source: query.ConstValueSource(1)},
	}

	tests := []struct {
		tie  float64
		want float64
	}{
		{0.0, 2.0},
		{0.5, 2.5},
		{1.0, 3.0},
	}
	for _, tt := range tests {
		scores := scoresOf(t, idx, query.DisMaxQuery{TieBreaker: tt.tie, Disjuncts: disjuncts})
		for docID, s := range scores {
			if s != tt.want {
				t.Errorf("tie=%g: score[%s] = %g, want %g", tt.tie, docID, s, tt.want)
			}
		}
	}
}

func TestExecuteDismaxNoDisjunctsMatchesNothing(t *testing.T) {
	idx := testIndex(t)
	scores := scoresOf(t, idx, query.DisMaxQuery{TieBreaker: 0.1})
	if len(scores) != 0 {
		t.Errorf("hits = %v, want none", scores)
	}
}

func TestExecuteDisjunctionSumsScores(t *testing.T) {
	idx := testIndex(t)
	scores := scoresOf(t, idx, query.DisjunctionQuery{Queries: []query.Query{
		query.FunctionQuery{Source: query.ConstValueSource(2)},
		query.FunctionQuery{Source: query.ConstValueSource(3)},
	}})
	for docID, s := range scores {
		if s != 5.0 {
			t.Errorf("score[%s] = %g, want summed 5.0", docID, s)
		}
	}
}

func TestExecuteBooleanMustIntersects(t *testing.T) {
	idx := testIndex(t)
	bq := query.BooleanQuery{DisableCoord: true}
	bq.AddMust(query.TermQuery{Field: "description", Term: "shoes", Boost: 1.0})
	bq.AddMust(query.TermQuery{Field: "description", Term: "hiking", Boost: 1.0})

	scores := scoresOf(t, idx, bq)
	if len(scores) != 1 {
		t.Fatalf("hits = %v, want only doc2", scores)
	}
	if _, ok := scores["doc2"]; !ok {
		t.Errorf("hits = %v, want doc2", scores)
	}
}

func TestExecuteBooleanShouldOnlyAddsScore(t *testing.T) {
	idx := testIndex(t)
	bq := query.BooleanQuery{DisableCoord: true}
	bq.AddMust(query.TermQuery{Field: "title", Term: "shoes", Boost: 1.0})
	bq.AddShould(query.FunctionQuery{Source: query.ConstValueSource(10)})

	scores := scoresOf(t, idx, bq)
	if len(scores) != 2 {
		t.Fatalf("hits = %v, want doc1 and doc2: a should clause must not expand matching", scores)
	}

	base := scoresOf(t, idx, query.TermQuery{Field: "title", Term: "shoes", Boost: 1.0})
	for docID := range scores {
		if diff := scores[docID] - base[docID]; math.Abs(diff-10) > 0.001 {
			t.Errorf("score[%s] gained %g from should clause, want 10", docID, diff)
		}
	}
}

func TestExecuteBooleanShouldOnlyUnion(t *testing.T) {
	idx := testIndex(t)
	bq := query.BooleanQuery{DisableCoord: true}
	bq.AddShould(query.TermQuery{Field: "title", Term: "shoes", Boost: 1.0})
	bq.AddShould(query.TermQuery{Field: "title", Term: "jacket", Boost: 1.0})

	scores := scoresOf(t, idx, bq)
	if len(scores) != 3 {
		t.Errorf("hits = %v, want the union of should matches", scores)
	}
}

func TestExecuteBoostedQuery(t *testing.T) {
	idx := testIndex(t)

	t.Run("const factor", func(t *testing.T) {
		base := scoresOf(t, idx, query.MatchAllQuery{})
		boosted := scoresOf(t, idx, query.BoostedQuery{
			Query: query.MatchAllQuery{},
			Boost: query.ConstValueSource(2.5),
		})
		for docID := range base {
			if boosted[docID] != base[docID]*2.5 {
				t.Errorf("score[%s] = %g, want %g", docID, boosted[docID], base[docID]*2.5)
			}
		}
	})

	t.Run("field value factor", func(t *testing.T) {
		scores := scoresOf(t, idx, query.BoostedQuery{
			Query: query.MatchAllQuery{},
			Boost: query.FieldValueSource{Field: "popularity"},
		})
		want := map[string]float64{"doc1": 3, "doc2": 5, "doc3": 0}
		for docID, w := range want {
			if scores[docID] != w {
				t.Errorf("score[%s] = %g, want %g", docID, scores[docID], w)
			}
		}
	})

	t.Run("product of factors", func(t *testing.T) {
		scores := scoresOf(t, idx, query.BoostedQuery{
			Query: query.MatchAllQuery{},
			Boost: query.ProductValueSource{Sources: []query.ValueSource{
				query.ConstValueSource(2),
				query.FieldValueSource{Field: "popularity"},
			}},
		})
		if scores["doc2"] != 10 {
			t.Errorf("score[doc2] = %g, want 2*5", scores["doc2"])
		}
	})
}

func TestExecuteQueryValueSourceDefault(t *testing.T) {
	idx := testIndex(t)
	scores := scoresOf(t, idx, query.FunctionQuery{
		Source: query.QueryValueSource{
			Query:   query.FunctionQuery{Source: query.FieldValueSource{Field: "popularity"}},
			Default: 0.5,
		},
	})
	if scores["doc2"] != 5 {
		t.Errorf("score[doc2] = %g, want matched value 5", scores["doc2"])
	}
}

func TestExecuteRespectsLimit(t *testing.T) {
	idx := testIndex(t)
	res, err := New(idx).Execute(context.Background(), query.MatchAllQuery{}, "*", 2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.TotalHits != 3 {
		t.Errorf("total hits = %d, want 3", res.TotalHits)
	}
	if len(res.Results) != 2 {
		t.Errorf("returned = %d, want 2", len(res.Results))
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	idx := testIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(idx).Execute(ctx, query.MatchAllQuery{}, "*", 10); err == nil {
		t.Error("expected error for cancelled context")
	}
}
