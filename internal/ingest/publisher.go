package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/kafka"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// Publisher sends documents to the ingest topic keyed by URL.
type Publisher struct {
	producer EventPublisher
	now      func() time.Time
}

func NewPublisher(producer EventPublisher) *Publisher {
	return &Publisher{producer: producer, now: time.Now}
}

// Publish validates every document the same way the index does and sends
// them as one batch. Nothing is sent if any document is invalid.
func (p *Publisher) Publish(ctx context.Context, docs []index.Document) error {
	events := make([]kafka.Event, 0, len(docs))
	publishedAt := p.now().UTC()
	for i, doc := range docs {
		if err := index.Validate(&doc); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		events = append(events, kafka.Event{
			Key: doc.URL,
			Value: DocumentEvent{
				URL:         doc.URL,
				Content:     doc.Content,
				PublishedAt: publishedAt,
			},
		})
	}
	return p.producer.Publish(ctx, events...)
}
