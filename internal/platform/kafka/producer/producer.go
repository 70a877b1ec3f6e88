// Package producer provides an asynchronous Kafka producer backed by
// franz-go. Delivery is fire-and-forget: failures are logged, never
// surfaced to callers.
package producer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes records to Kafka without blocking the caller on
// delivery.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
}

// New creates a producer connected to the given brokers. Returns nil if
// brokers is empty (Kafka not configured).
func New(brokers []string, logger *slog.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Producer{client: client, logger: logger}, nil
}

// Produce enqueues a record for delivery. The returned error only covers
// enqueueing; delivery outcomes are reported through the callback, which
// may be nil.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte, onDone func(error)) {
	record := &kgo.Record{
		Topic: topic,
		Key:   key,
		Value: value,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("kafka delivery failed",
				"topic", r.Topic,
				"key", string(r.Key),
				"error", err,
			)
		}
		if onDone != nil {
			onDone(err)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Producer) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		p.client.Close()
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	p.client.Close()
	return nil
}
