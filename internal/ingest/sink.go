package ingest

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/metrics"
)

// Sink is the single write path into the index. It records per-source
// metrics and keeps the index size gauges current.
type Sink struct {
	idx     *index.Index
	metrics *metrics.Metrics
}

// NewSink wraps idx. m may be nil.
func NewSink(idx *index.Index, m *metrics.Metrics) *Sink {
	return &Sink{idx: idx, metrics: m}
}

func (s *Sink) Add(ctx context.Context, source string, doc *index.Document) error {
	log := logger.FromContext(ctx).With("component", "ingest-sink", "source", source)
	if err := s.idx.Add(doc); err != nil {
		if s.metrics != nil && apperrors.IsInvalidArgument(err) {
			s.metrics.DocsRejectedTotal.WithLabelValues(source).Inc()
		}
		log.Warn("document rejected", "error", err)
		return err
	}
	if s.metrics != nil {
		s.metrics.DocsIndexedTotal.WithLabelValues(source).Inc()
		s.metrics.IndexDocuments.Set(float64(s.idx.Size()))
		s.metrics.IndexTerms.Set(float64(s.idx.Terms()))
	}
	log.Debug("document indexed", "url", doc.URL, "size", s.idx.Size())
	return nil
}

func (s *Sink) Size() int {
	return s.idx.Size()
}

func (s *Sink) Terms() int {
	return s.idx.Terms()
}
