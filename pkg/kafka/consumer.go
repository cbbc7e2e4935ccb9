// Package kafka provides producer and consumer clients backed by
// segmentio/kafka-go. Events travel as JSON; the consumer hands raw message
// bytes to a MessageHandler callback.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one message. A nil return commits the offset; an
// error is logged and the message is skipped.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

const defaultFetchBackoff = time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic in a consumer group owned by a single process.
// The group ID carries the instance suffix, so every process reads every
// partition from the first offset and rebuilds its in-memory state after a
// restart.
type Consumer struct {
	reader       messageReader
	groupID      string
	fetchBackoff time.Duration
	logger       *slog.Logger
	handler      MessageHandler
}

func NewConsumer(cfg config.KafkaConfig, topic, instance string, handler MessageHandler) *Consumer {
	groupID := InstanceGroupID(cfg.ConsumerGroup, instance)
	return &Consumer{
		reader:       kafka.NewReader(readerConfig(cfg.Brokers, topic, groupID)),
		groupID:      groupID,
		fetchBackoff: defaultFetchBackoff,
		logger:       slog.Default().With("component", "kafka-consumer", "topic", topic, "group", groupID),
		handler:      handler,
	}
}

// InstanceGroupID scopes the configured group to one process.
func InstanceGroupID(group, instance string) string {
	if instance == "" {
		return group
	}
	return group + "-" + instance
}

func readerConfig(brokers []string, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	}
}

func (c *Consumer) GroupID() string { return c.groupID }

// Start fetches and processes messages until ctx is cancelled, then closes
// the reader. Fetch errors are retried after fetchBackoff.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err, "retry_in", c.fetchBackoff)
			if !sleep(ctx, c.fetchBackoff) {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			continue
		}
		log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			log.Error("failed to process message", "error", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error("failed to commit message", "error", err)
		}
	}
}

// sleep waits for d and reports false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
