// Package config builds runtime configuration from environment variables so
// main stays lean. Every value has a development default; production
// deployments override via env.
package config

import (
	"os"
	"time"

	pstrings "bankflow/pkg/platform/strings"
)

// Config captures everything the customer service needs at startup.
type Config struct {
	Addr string

	// DatabaseURL is the postgres DSN. Empty selects the in-memory stores
	// (dev mode).
	DatabaseURL string

	// EncryptionKey is the passphrase the PII codec derives its AES key from.
	EncryptionKey string

	// JWTSigningKey signs and validates bearer tokens on the API.
	JWTSigningKey string

	// AdminTokenHash is the bcrypt hash of the token required to force a
	// KYC status through the administrative override endpoint.
	AdminTokenHash string

	Kafka   KafkaConfig
	Redis   RedisConfig
	Storage StorageConfig
}

// KafkaConfig holds broker addresses and topics. Empty brokers disable
// both the producer and the identity-events consumer.
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	IdentityTopic string
	ConsumerGroup string
}

// RedisConfig configures the optional customer read cache.
type RedisConfig struct {
	URL          string
	CacheTTL     time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StorageConfig selects the document blob backend.
type StorageConfig struct {
	// Type is "local" or "s3".
	Type string
	// BasePath is the local filesystem root for Type=local.
	BasePath string
	// Bucket is the S3 bucket for Type=s3.
	Bucket string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:           getenv("CUSTOMER_SERVICE_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		EncryptionKey:  getenv("ENCRYPTION_KEY", "dev-encryption-key-change-in-production"),
		JWTSigningKey:  getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		Kafka: KafkaConfig{
			Brokers:       pstrings.SplitCSV(os.Getenv("KAFKA_BROKERS")),
			EventsTopic:   getenv("KAFKA_CUSTOMER_EVENTS_TOPIC", "customer-events"),
			IdentityTopic: getenv("KAFKA_IDENTITY_EVENTS_TOPIC", "identity-events"),
			ConsumerGroup: getenv("KAFKA_CONSUMER_GROUP", "customer-service"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			CacheTTL:     getduration("REDIS_CACHE_TTL", 5*time.Minute),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Storage: StorageConfig{
			Type:     getenv("STORAGE_TYPE", "local"),
			BasePath: getenv("STORAGE_LOCAL_BASE_PATH", "/tmp/bankflow/documents"),
			Bucket:   os.Getenv("STORAGE_S3_BUCKET"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
