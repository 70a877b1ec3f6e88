// Package consumer provides a Kafka consumer-group poller backed by
// franz-go. Handlers returning nil commit the record; a handler error
// stops the consumer after committing only the records it had already
// processed, so the failed record is redelivered when the group resumes.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a consumed Kafka record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes a single message.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer polls one or more topics as part of a consumer group.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New creates a consumer joined to the given group. Returns nil if brokers
// is empty (Kafka not configured).
func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled. Only records the handler accepted are
// committed; a handler error is returned after that commit, leaving the
// failed record (and everything after it) for redelivery on the next
// session.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		handled, handleErr := c.handleBatch(ctx, fetches)
		if len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil {
				c.logger.Error("commit offsets failed", "error", err)
			}
		}
		if handleErr != nil {
			return handleErr
		}
	}
}

// handleBatch feeds the fetched records to the handler in order, stopping
// at the first failure. It returns the records that were handled; only
// those may be committed.
func (c *Consumer) handleBatch(ctx context.Context, fetches kgo.Fetches) ([]*kgo.Record, error) {
	var (
		handled   []*kgo.Record
		handleErr error
	)
	fetches.EachRecord(func(r *kgo.Record) {
		if handleErr != nil {
			return
		}
		msg := &Message{
			Topic:     r.Topic,
			Partition: r.Partition,
			Offset:    r.Offset,
			Key:       r.Key,
			Value:     r.Value,
			Timestamp: r.Timestamp,
		}
		if err := c.handler.Handle(ctx, msg); err != nil {
			c.logger.Error("message handling failed, stopping before commit",
				"topic", r.Topic,
				"partition", r.Partition,
				"offset", r.Offset,
				"error", err,
			)
			handleErr = fmt.Errorf("handle %s[%d]@%d: %w", r.Topic, r.Partition, r.Offset, err)
			return
		}
		handled = append(handled, r)
	})
	return handled, handleErr
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
