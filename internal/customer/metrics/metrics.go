package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the customer module.
// Tracks customer/document volumes, KYC transitions, and event delivery.
type Metrics struct {
	CustomersCreated  prometheus.Counter
	DocumentsUploaded prometheus.Counter
	KycTransitions    *prometheus.CounterVec

	EventsPublished      *prometheus.CounterVec
	EventPublishFailures prometheus.Counter

	IdentityEventsConsumed *prometheus.CounterVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// New creates a new Metrics instance with all customer module metrics registered.
func New() *Metrics {
	return &Metrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankflow_customers_created_total",
			Help: "Total number of customers created",
		}),
		DocumentsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankflow_documents_uploaded_total",
			Help: "Total number of KYC documents uploaded",
		}),
		KycTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankflow_kyc_transitions_total",
			Help: "Total number of KYC status transitions by resulting status",
		}, []string{"status"}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankflow_customer_events_published_total",
			Help: "Total number of customer events handed to the broker by type",
		}, []string{"event_type"}),
		EventPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankflow_customer_event_publish_failures_total",
			Help: "Total number of customer event deliveries that failed",
		}),
		IdentityEventsConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankflow_identity_events_consumed_total",
			Help: "Total number of identity events consumed by type",
		}, []string{"event_type"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankflow_customer_cache_hits_total",
			Help: "Total number of customer reads served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankflow_customer_cache_misses_total",
			Help: "Total number of customer reads that missed the cache",
		}),
	}
}

// IncrementCustomersCreated records a successful customer creation.
func (m *Metrics) IncrementCustomersCreated() {
	if m != nil {
		m.CustomersCreated.Inc()
	}
}

// IncrementDocumentsUploaded records a successful document upload.
func (m *Metrics) IncrementDocumentsUploaded() {
	if m != nil {
		m.DocumentsUploaded.Inc()
	}
}

// IncrementKycTransition records a KYC status change by resulting status.
func (m *Metrics) IncrementKycTransition(status string) {
	if m != nil {
		m.KycTransitions.WithLabelValues(status).Inc()
	}
}

// IncrementEventPublished records an event handed to the broker.
func (m *Metrics) IncrementEventPublished(eventType string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(eventType).Inc()
	}
}

// IncrementEventPublishFailure records a failed event delivery.
func (m *Metrics) IncrementEventPublishFailure() {
	if m != nil {
		m.EventPublishFailures.Inc()
	}
}

// IncrementIdentityEventConsumed records a consumed identity event.
func (m *Metrics) IncrementIdentityEventConsumed(eventType string) {
	if m != nil {
		m.IdentityEventsConsumed.WithLabelValues(eventType).Inc()
	}
}

// IncrementCacheHit records a cache hit on the customer read path.
func (m *Metrics) IncrementCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// IncrementCacheMiss records a cache miss on the customer read path.
func (m *Metrics) IncrementCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}
