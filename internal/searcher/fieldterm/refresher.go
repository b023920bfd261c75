package fieldterm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bestmax/bestmax/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Refresher reloads a Memory snapshot from a Loader. Concurrent refresh
// requests (e.g. a burst of invalidation events) collapse into one load.
type Refresher struct {
	cache   *Memory
	loader  Loader
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRefresher wires a Memory snapshot to its Loader. metrics may be nil.
func NewRefresher(cache *Memory, loader Loader, m *metrics.Metrics) *Refresher {
	return &Refresher{
		cache:   cache,
		loader:  loader,
		logger:  slog.Default().With("component", "fieldterm-refresher"),
		metrics: m,
	}
}

// Refresh loads a fresh snapshot and swaps it in. The old snapshot stays in
// place if loading fails.
func (r *Refresher) Refresh(ctx context.Context) error {
	_, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		entries, err := r.loader.LoadAll(ctx)
		if err != nil {
			if r.metrics != nil {
				r.metrics.FieldTermReloadsTotal.WithLabelValues("error").Inc()
			}
			return nil, fmt.Errorf("loading field terms: %w", err)
		}
		r.cache.ReplaceAll(entries)
		if r.metrics != nil {
			r.metrics.FieldTermReloadsTotal.WithLabelValues("ok").Inc()
		}
		r.logger.Info("field-term cache refreshed", "fields", len(entries))
		return nil, nil
	})
	return err
}

// HandleInvalidate is a Kafka message handler that triggers a refresh for
// any message on the cache-invalidate topic.
func (r *Refresher) HandleInvalidate(ctx context.Context, key []byte, value []byte) error {
	r.logger.Info("cache invalidation received", "key", string(key))
	return r.Refresh(ctx)
}
