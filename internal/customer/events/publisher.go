// Package events publishes customer state changes to the event stream.
//
// Delivery is best-effort: the persisted customer record is the source of
// truth and the stream is a derivative signal. Publication failures are
// logged and counted, never propagated to the business operation that
// triggered them.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"bankflow/internal/customer/metrics"
	"bankflow/internal/customer/models"
	"bankflow/pkg/requestcontext"
)

// Producer is the broker client the publisher hands records to.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, onDone func(error))
}

// Publisher converts customer state changes into outbound notifications.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New constructs a Publisher. A nil producer yields a publisher that drops
// everything, which is the dev-mode behavior when no brokers are
// configured.
func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish emits a notification for the customer's current state. Records
// are keyed by customer ID so one customer's events stay ordered within a
// partition.
func (p *Publisher) Publish(ctx context.Context, eventType string, customer *models.Customer) {
	if p.producer == nil {
		return
	}

	event := models.NewCustomerEvent(eventType, customer, requestcontext.Now(ctx))
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal customer event",
			"event_type", eventType,
			"customer_id", event.CustomerID,
			"error", err,
		)
		p.metrics.IncrementEventPublishFailure()
		return
	}

	p.producer.Produce(ctx, p.topic, []byte(event.CustomerID), payload, func(err error) {
		if err != nil {
			p.logger.Error("customer event delivery failed",
				"event_type", eventType,
				"event_id", event.EventID,
				"customer_id", event.CustomerID,
				"error", err,
			)
			p.metrics.IncrementEventPublishFailure()
			return
		}
		p.metrics.IncrementEventPublished(eventType)
	})
}
