package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bestmax/bestmax/internal/indexer/index"
	"github.com/bestmax/bestmax/internal/schema"
	"github.com/bestmax/bestmax/internal/searcher/executor"
	"github.com/bestmax/bestmax/internal/searcher/fieldterm"
	"github.com/bestmax/bestmax/pkg/config"
)

func newTestHandler(t *testing.T) (*Handler, *index.MemoryIndex) {
	t.Helper()
	searchCfg := config.SearchConfig{
		Fields:        map[string]float64{"title": 2.0, "description": 1.0},
		TieBreaker:    0.1,
		SynonymBoost:  0.7,
		SubtopicBoost: 0.5,
		DefaultLimit:  10,
		MaxResults:    50,
	}
	analysisCfg := config.AnalysisConfig{
		Default: config.AnalyzerConfig{Lowercase: true, MinTokenLength: 2},
	}
	sch := schema.FromConfig(searchCfg, analysisCfg)
	idx := index.NewMemoryIndex(sch)
	h := New(searchCfg, sch, idx, executor.New(idx), fieldterm.NewMemory(), nil, nil, nil)
	return h, idx
}

func seedDocs(t *testing.T, idx *index.MemoryIndex) {
	t.Helper()
	docs := map[string]map[string]string{
		"doc1": {"title": "red shoes", "description": "comfortable red shoes"},
		"doc2": {"title": "blue shoes", "description": "hiking shoes"},
		"doc3": {"title": "green jacket", "description": "winter jacket"},
	}
	for id, fields := range docs {
		if err := idx.AddDocument(id, fields, map[string]float64{"popularity": 1}); err != nil {
			t.Fatalf("seeding %s: %v", id, err)
		}
	}
}

func doSearch(t *testing.T, h *Handler, target string) (*httptest.ResponseRecorder, *executor.SearchResult) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	if rec.Code != http.StatusOK {
		return rec, nil
	}
	var result executor.SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return rec, &result
}

func TestSearchReturnsRankedResults(t *testing.T) {
	h, idx := newTestHandler(t)
	seedDocs(t, idx)

	rec, result := doSearch(t, h, "/api/v1/search?q=red+shoes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if result.TotalHits != 1 {
		t.Errorf("total hits = %d, want only doc1 (both terms required)", result.TotalHits)
	}
	if len(result.Results) != 1 || result.Results[0].DocID != "doc1" {
		t.Errorf("results = %v, want doc1", result.Results)
	}
	if result.ClauseCount != 4 {
		t.Errorf("clause count = %d, want 4 (2 terms x 2 fields)", result.ClauseCount)
	}
}

func TestSearchEmptyTermsMatchesAll(t *testing.T) {
	h, idx := newTestHandler(t)
	seedDocs(t, idx)

	// Whitespace-only input parses to zero terms but is still a present q.
	rec, result := doSearch(t, h, "/api/v1/search?q=%20%20")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if result.TotalHits != 3 {
		t.Errorf("total hits = %d, want every document", result.TotalHits)
	}
}

func TestSearchWithBoostParameters(t *testing.T) {
	h, idx := newTestHandler(t)
	seedDocs(t, idx)

	_, base := doSearch(t, h, "/api/v1/search?q=shoes")
	_, boosted := doSearch(t, h, "/api/v1/search?q=shoes&bq=title:blue^5&boost=const(2)")
	if base == nil || boosted == nil {
		t.Fatal("searches failed")
	}
	if base.TotalHits != boosted.TotalHits {
		t.Errorf("boosts changed matching: %d vs %d hits", base.TotalHits, boosted.TotalHits)
	}
	if boosted.Results[0].DocID != "doc2" {
		t.Errorf("top result = %s, want doc2 lifted by bq", boosted.Results[0].DocID)
	}
}

func TestSearchValidation(t *testing.T) {
	h, idx := newTestHandler(t)
	seedDocs(t, idx)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing q", "/api/v1/search", http.StatusBadRequest},
		{"bad limit", "/api/v1/search?q=shoes&limit=zero", http.StatusBadRequest},
		{"negative limit", "/api/v1/search?q=shoes&limit=-1", http.StatusBadRequest},
		{"bad inspect flag", "/api/v1/search?q=shoes&inspect=maybe", http.StatusBadRequest},
		{"malformed bq", "/api/v1/search?q=shoes&bq=titlesale", http.StatusBadRequest},
		{"malformed boost", "/api/v1/search?q=shoes&boost=sqrt(2)", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doSearch(t, h, tt.target)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
		})
	}
}

func TestSearchLimitClamped(t *testing.T) {
	h, idx := newTestHandler(t)
	seedDocs(t, idx)

	rec, result := doSearch(t, h, "/api/v1/search?q=%20&limit=1000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(result.Results) > 50 {
		t.Errorf("returned %d results, limit must clamp to maxResults", len(result.Results))
	}
}

func TestSearchInspectFiltering(t *testing.T) {
	searchCfg := config.SearchConfig{
		Fields:       map[string]float64{"title": 2.0, "description": 1.0},
		TieBreaker:   0.1,
		DefaultLimit: 10,
		MaxResults:   50,
	}
	sch := schema.FromConfig(searchCfg, config.AnalysisConfig{
		Default: config.AnalyzerConfig{Lowercase: true, MinTokenLength: 2},
	})
	idx := index.NewMemoryIndex(sch)
	fieldTerms := fieldterm.NewMemory()
	fieldTerms.Set("title", fieldterm.NewEntry(true, []string{"jacket"}))
	h := New(searchCfg, sch, idx, executor.New(idx), fieldTerms, nil, nil, nil)
	seedDocs(t, idx)

	// With the title variant filtered away, only description matches score.
	rec, result := doSearch(t, h, "/api/v1/search?q=shoes&inspect=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if result.ClauseCount != 1 {
		t.Errorf("clause count = %d, want 1 after filtering", result.ClauseCount)
	}
	if result.TotalHits != 2 {
		t.Errorf("total hits = %d, want doc1 and doc2 via description", result.TotalHits)
	}
}

func TestIndexDocument(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"id":"doc9","fields":{"title":"leather boots"},"values":{"popularity":2}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.IndexDocument(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	t.Run("duplicate conflicts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.IndexDocument(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		h.IndexDocument(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(`{"fields":{"title":"x"}}`))
		rec := httptest.NewRecorder()
		h.IndexDocument(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCacheStatsDisabled(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	h.CacheStats(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disabled") {
		t.Errorf("body = %s, want disabled marker", rec.Body)
	}
}
