// Package consumer feeds the in-memory index from the document-ingest
// Kafka topic.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bestmax/bestmax/internal/indexer/index"
	pkgerrors "github.com/bestmax/bestmax/pkg/errors"
	"github.com/bestmax/bestmax/pkg/kafka"
	"github.com/bestmax/bestmax/pkg/metrics"
)

// DocumentMessage is the ingest event payload.
type DocumentMessage struct {
	ID     string             `json:"id"`
	Fields map[string]string  `json:"fields"`
	Values map[string]float64 `json:"values,omitempty"`
}

// HandleDocument returns a Kafka message handler that indexes incoming
// documents. Duplicate documents are logged and skipped, not retried.
func HandleDocument(idx *index.MemoryIndex, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		msg, err := kafka.DecodeJSON[DocumentMessage](value)
		if err != nil {
			return err
		}
		if msg.ID == "" || len(msg.Fields) == 0 {
			logger.Warn("skipping malformed document event", "key", string(key))
			return nil
		}
		if err := idx.AddDocument(msg.ID, msg.Fields, msg.Values); err != nil {
			if errors.Is(err, pkgerrors.ErrDocumentExists) {
				logger.Debug("document already indexed", "doc_id", msg.ID)
				return nil
			}
			return err
		}
		if m != nil {
			m.DocsIndexedTotal.Inc()
		}
		logger.Debug("document indexed", "doc_id", msg.ID)
		return nil
	}
}
