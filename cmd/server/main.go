package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bankflow/internal/audit"
	"bankflow/internal/customer/cache"
	custconsumer "bankflow/internal/customer/consumer"
	"bankflow/internal/customer/events"
	"bankflow/internal/customer/handler"
	custmetrics "bankflow/internal/customer/metrics"
	custsvc "bankflow/internal/customer/service/customer"
	docsvc "bankflow/internal/customer/service/document"
	custstore "bankflow/internal/customer/store/customer"
	docstore "bankflow/internal/customer/store/document"
	"bankflow/internal/jwttoken"
	"bankflow/internal/pii"
	"bankflow/internal/platform/config"
	"bankflow/internal/platform/httpserver"
	"bankflow/internal/platform/kafka/consumer"
	"bankflow/internal/platform/kafka/producer"
	"bankflow/internal/platform/logger"
	"bankflow/internal/platform/metrics"
	"bankflow/internal/platform/postgres"
	"bankflow/internal/platform/redis"
	"bankflow/internal/storage"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := pii.NewCodec(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	featureMetrics := custmetrics.New()
	httpMetrics := metrics.New()

	var (
		customerStore custsvc.Store
		documentStore docsvc.Store
		auditStore    audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		customerStore = custstore.NewPostgres(db)
		documentStore = docstore.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		customerStore = custstore.NewInMemory()
		documentStore = docstore.NewInMemory()
		auditStore = audit.NewInMemory()
	}
	auditor := audit.NewRecorder(auditStore, audit.WithLogger(log))

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	customerCache := cache.New(redisClient, cfg.Redis.CacheTTL,
		cache.WithLogger(log),
		cache.WithMetrics(featureMetrics),
	)

	kafkaProducer, err := producer.New(cfg.Kafka.Brokers, log)
	if err != nil {
		return err
	}
	var eventsProducer events.Producer
	if kafkaProducer != nil {
		eventsProducer = kafkaProducer
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := kafkaProducer.Close(flushCtx); err != nil {
				log.Error("failed to flush producer", "error", err)
			}
		}()
	} else {
		log.Warn("KAFKA_BROKERS not set, customer events disabled")
	}
	publisher := events.New(eventsProducer, cfg.Kafka.EventsTopic,
		events.WithLogger(log),
		events.WithMetrics(featureMetrics),
	)

	customers := custsvc.New(customerStore, codec, publisher,
		custsvc.WithLogger(log),
		custsvc.WithMetrics(featureMetrics),
		custsvc.WithCache(customerCache),
		custsvc.WithAudit(auditor),
	)

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	documents := docsvc.New(documentStore, customers, blobs,
		docsvc.WithLogger(log),
		docsvc.WithMetrics(featureMetrics),
		docsvc.WithAudit(auditor),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "bankflow", "bankflow-api")

	h := handler.New(customers, documents, auditStore, log, httpMetrics,
		jwttoken.NewJWTServiceAdapter(jwtService), cfg.AdminTokenHash)

	router := chi.NewRouter()
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthHandler(redisClient))

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return auditor.Run(ctx)
	})

	g.Go(func() error {
		log.Info("starting customer service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		identityConsumer, err := consumer.New(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerGroup,
			[]string{cfg.Kafka.IdentityTopic},
			custconsumer.NewIdentityHandler(log, featureMetrics),
			log,
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer identityConsumer.Close()
			return identityConsumer.Run(ctx)
		})
	}

	return g.Wait()
}

func newBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, error) {
	if cfg.Type == "s3" {
		return storage.NewS3Store(ctx, cfg.Bucket)
	}
	return storage.NewLocalStore(cfg.BasePath)
}

func healthHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
