// Package cache provides a read-through Redis cache for customer lookups.
//
// Cached entries never include the encrypted SSN: the ciphertext only lives
// in the relational store, so a compromised cache node leaks profile data
// but no PII ciphertext.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bankflow/internal/customer/metrics"
	"bankflow/internal/customer/models"
	"bankflow/internal/platform/redis"
	id "bankflow/pkg/domain"
)

// CustomerCache caches customer records by ID. A nil *CustomerCache is a
// valid pass-through (dev mode without Redis).
type CustomerCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*CustomerCache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *CustomerCache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *CustomerCache) {
		c.metrics = m
	}
}

// New constructs a CustomerCache. Returns nil when the client is nil so
// callers can wire it unconditionally.
func New(client *redis.Client, ttl time.Duration, opts ...Option) *CustomerCache {
	if client == nil {
		return nil
	}
	c := &CustomerCache{
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(customerID id.CustomerID) string {
	return "customer:" + customerID.String()
}

// Get returns the cached customer, or nil on a miss. Cache errors degrade
// to a miss; the store is always authoritative.
func (c *CustomerCache) Get(ctx context.Context, customerID id.CustomerID) *models.Customer {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, key(customerID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("customer cache read failed", "customer_id", customerID.String(), "error", err)
		}
		c.metrics.IncrementCacheMiss()
		return nil
	}
	var customer models.Customer
	if err := json.Unmarshal(raw, &customer); err != nil {
		c.logger.Warn("customer cache entry corrupt", "customer_id", customerID.String(), "error", err)
		c.metrics.IncrementCacheMiss()
		return nil
	}
	c.metrics.IncrementCacheHit()
	return &customer
}

// Set stores the customer with the ciphertext stripped. SSNRedacted keeps
// the on-file fact alive so cache-served reads report it correctly.
func (c *CustomerCache) Set(ctx context.Context, customer *models.Customer) {
	if c == nil {
		return
	}
	stripped := *customer
	stripped.SSNRedacted = customer.HasSSNOnFile()
	stripped.SSNEncrypted = ""
	raw, err := json.Marshal(&stripped)
	if err != nil {
		c.logger.Warn("marshal customer for cache", "customer_id", customer.ID.String(), "error", err)
		return
	}
	if err := c.client.Set(ctx, key(customer.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("customer cache write failed", "customer_id", customer.ID.String(), "error", err)
	}
}

// Invalidate drops the cached entry after a write to the record.
func (c *CustomerCache) Invalidate(ctx context.Context, customerID id.CustomerID) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key(customerID)).Err(); err != nil {
		c.logger.Warn("customer cache invalidation failed", "customer_id", customerID.String(), "error", err)
	}
}
