package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "customer-events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "identity-events", cfg.Kafka.IdentityTopic)
	assert.Equal(t, "customer-service", cfg.Kafka.ConsumerGroup)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CUSTOMER_SERVICE_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("REDIS_CACHE_TTL", "30s")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "bankflow-kyc-docs")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "bankflow-kyc-docs", cfg.Storage.Bucket)
}

func TestFromEnvBadDurationFallsBack(t *testing.T) {
	t.Setenv("REDIS_CACHE_TTL", "not-a-duration")
	cfg := FromEnv()
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
}
