// Package handler exposes the search service HTTP API: query execution
// with boost parameters, document indexing, and cache administration.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bestmax/bestmax/internal/indexer/index"
	"github.com/bestmax/bestmax/internal/schema"
	"github.com/bestmax/bestmax/internal/searcher/boost"
	"github.com/bestmax/bestmax/internal/searcher/builder"
	"github.com/bestmax/bestmax/internal/searcher/cache"
	"github.com/bestmax/bestmax/internal/searcher/executor"
	"github.com/bestmax/bestmax/internal/searcher/fieldterm"
	"github.com/bestmax/bestmax/internal/searcher/parser"
	"github.com/bestmax/bestmax/pkg/config"
	pkgerrors "github.com/bestmax/bestmax/pkg/errors"
	"github.com/bestmax/bestmax/pkg/kafka"
	"github.com/bestmax/bestmax/pkg/logger"
	"github.com/bestmax/bestmax/pkg/metrics"
)

// Handler serves the search API.
type Handler struct {
	searchCfg  config.SearchConfig
	sch        *schema.Schema
	idx        *index.MemoryIndex
	executor   *executor.Executor
	fieldTerms fieldterm.Cache
	queryCache *cache.QueryCache
	invalidate *kafka.Producer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New wires the handler. queryCache, fieldTerms, invalidate, and m may be
// nil; the matching features degrade gracefully.
func New(
	searchCfg config.SearchConfig,
	sch *schema.Schema,
	idx *index.MemoryIndex,
	exec *executor.Executor,
	fieldTerms fieldterm.Cache,
	queryCache *cache.QueryCache,
	invalidate *kafka.Producer,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		searchCfg:  searchCfg,
		sch:        sch,
		idx:        idx,
		executor:   exec,
		fieldTerms: fieldTerms,
		queryCache: queryCache,
		invalidate: invalidate,
		metrics:    m,
		logger:     slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search. Parameters: q (required), limit,
// bq/bf/boost (repeatable boost expressions), inspect (overrides the
// configured term inspection flag).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	params := r.URL.Query()
	rawQuery := params.Get("q")
	if rawQuery == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.searchCfg.DefaultLimit
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.searchCfg.MaxResults {
			parsed = h.searchCfg.MaxResults
		}
		limit = parsed
	}

	pq := parser.Parse(rawQuery, h.searchCfg)
	if inspectStr := params.Get("inspect"); inspectStr != "" {
		inspect, err := strconv.ParseBool(inspectStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "inspect must be a boolean")
			return
		}
		pq.InspectTerms = inspect
	}

	compiled, err := boost.Compile(boost.Params{
		BoostQueries:         params["bq"],
		BoostFunctions:       params["bf"],
		MultiplicativeBoosts: params["boost"],
	})
	if err != nil {
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}

	b, err := builder.New(pq, h.sch, builder.Options{
		FieldTermCache:       h.fieldTerms,
		BoostQueries:         compiled.BoostQueries,
		BoostFunctions:       compiled.BoostFunctions,
		MultiplicativeBoosts: compiled.MultiplicativeBoosts,
	})
	if err != nil {
		h.observeBuild("error", nil, 0)
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	buildStart := time.Now()
	built, err := b.Build()
	if err != nil {
		h.observeBuild("error", nil, time.Since(buildStart).Seconds())
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	outcome := "ok"
	if len(pq.Terms) == 0 {
		outcome = "match_all"
	}
	h.observeBuild(outcome, built, time.Since(buildStart).Seconds())

	canonical := built.Query.String()
	compute := func() (*executor.SearchResult, error) {
		return h.executor.Execute(ctx, built.Query, rawQuery, limit)
	}

	var result *executor.SearchResult
	cacheHit := false
	if h.queryCache != nil {
		result, cacheHit, err = h.queryCache.GetOrCompute(ctx, canonical, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("search execution failed", "query", rawQuery, "error", err)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	result.ClauseCount = built.ClauseCount

	if h.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		h.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
	}

	log.Info("search completed",
		"query", rawQuery,
		"clauses", built.ClauseCount,
		"terms_filtered", built.TermsFiltered,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) observeBuild(outcome string, built *builder.Result, seconds float64) {
	if h.metrics == nil {
		return
	}
	h.metrics.QueriesBuiltTotal.WithLabelValues(outcome).Inc()
	if built != nil {
		h.metrics.QueryBuildDuration.Observe(seconds)
		h.metrics.QueryClauseCount.Observe(float64(built.ClauseCount))
		if built.TermsFiltered > 0 {
			h.metrics.TermsFilteredTotal.Add(float64(built.TermsFiltered))
		}
	}
}

// documentRequest is the body of POST /api/v1/documents.
type documentRequest struct {
	ID     string             `json:"id"`
	Fields map[string]string  `json:"fields"`
	Values map[string]float64 `json:"values"`
}

// IndexDocument handles POST /api/v1/documents.
func (h *Handler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" || len(req.Fields) == 0 {
		h.writeError(w, http.StatusBadRequest, "id and fields are required")
		return
	}
	if err := h.idx.AddDocument(req.ID, req.Fields, req.Values); err != nil {
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.DocsIndexedTotal.Inc()
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "indexed", "id": req.ID})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.queryCache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.queryCache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": hitRate,
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate: it flushes the
// query-result cache and publishes the invalidation event so field-term
// snapshots across instances reload.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.queryCache != nil {
		if err := h.queryCache.Invalidate(r.Context()); err != nil {
			h.logger.Error("cache invalidation failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
			return
		}
	}
	if h.invalidate != nil {
		event := kafka.Event{Key: "invalidate", Value: map[string]string{
			"reason":    "manual",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}}
		if err := h.invalidate.Publish(r.Context(), event); err != nil {
			h.logger.Error("publishing invalidation event failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
