package ingest

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/kafka"
)

// Adder is the write side the consumer feeds.
type Adder interface {
	Add(ctx context.Context, source string, doc *index.Document) error
}

// HandleMessage returns a MessageHandler that adds each DocumentEvent to the
// index. Undecodable or invalid events are logged and acknowledged because
// redelivery cannot fix them.
func HandleMessage(sink Adder) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			logger.Error("dropping undecodable event", "key", string(key), "error", err)
			return nil
		}
		err = sink.Add(ctx, SourceKafka, index.NewDocument(event.URL, event.Content))
		if apperrors.IsInvalidArgument(err) {
			logger.Warn("dropping invalid document event", "key", string(key), "error", err)
			return nil
		}
		return err
	}
}
