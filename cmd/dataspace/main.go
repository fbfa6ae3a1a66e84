package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/dataspace/pkg/api"
	"github.com/platinummonkey/dataspace/pkg/config"
	"github.com/platinummonkey/dataspace/pkg/middleware"
	"github.com/platinummonkey/dataspace/pkg/observability"
	"github.com/platinummonkey/dataspace/pkg/orgs"
	"github.com/platinummonkey/dataspace/pkg/propagation"
	"github.com/platinummonkey/dataspace/pkg/tenancy"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	opsLogger := newOpsLogger(cfg.Observability.LogLevel)

	ctx := context.Background()

	// Persistence: PostgreSQL when configured, in-memory otherwise.
	var store orgs.Store
	var db *sql.DB
	if cfg.Database.PostgresURL != "" {
		db, err = sql.Open("postgres", cfg.Database.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}

		store = orgs.NewPostgresStore(db)
		logger.Info("Connected to PostgreSQL")
	} else {
		store = orgs.NewMemoryStore()
		logger.Warn("No postgres URL configured, using in-memory store")
	}

	// Redis backs the distributed rate limiter and health checks.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable at startup, rate limiting will fail open")
		} else {
			logger.WithField("addr", cfg.Redis.Addr).Info("Connected to Redis")
		}
	}

	// Metrics
	var registry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	if db != nil && metrics != nil {
		go reportDBStats(db, metrics)
	}
	if metrics != nil {
		go reportEntityCounts(ctx, store, metrics, logger)
	}

	// Tracing
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	// Downstream adapters, in propagation order.
	tokens := tokenSource(cfg.Token)
	var adapters []propagation.Adapter
	if cfg.Adapters.Identity.Enabled {
		client := propagation.NewClient(cfg.Adapters.Identity.BaseURL, cfg.Adapters.Identity.Timeout, tokens)
		adapters = append(adapters, propagation.NewIdentityAdapter(client))
	}
	if cfg.Adapters.Metadata.Enabled {
		client := propagation.NewClient(cfg.Adapters.Metadata.BaseURL, cfg.Adapters.Metadata.Timeout, tokens)
		adapters = append(adapters, propagation.NewMetadataAdapter(client))
	}
	if cfg.Adapters.Storage.Enabled {
		client := propagation.NewClient(cfg.Adapters.Storage.BaseURL, cfg.Adapters.Storage.Timeout, tokens)
		adapters = append(adapters, propagation.NewStorageAdapter(client))
	}

	synchronizer := propagation.NewSynchronizer(store, opsLogger, metrics, adapters...)
	service := tenancy.NewService(store, synchronizer, opsLogger)

	// Auth and rate limiting
	var secret []byte
	if cfg.Auth.Secret != "" {
		secret = []byte(cfg.Auth.Secret)
	}
	authMW := middleware.NewAuthMiddleware(secret, cfg.Auth.Optional)

	var rateLimitMW func(http.Handler) http.Handler
	if redisClient != nil {
		rateLimitMW = middleware.NewDistributedRateLimitMiddleware(redisClient, metrics).Handler
	} else {
		rateLimitMW = middleware.NewRateLimitMiddleware(metrics).Handler
	}

	health := observability.NewHealthChecker(db, redisClient)
	if cfg.Adapters.Identity.Enabled {
		health.AddDownstream("identity", cfg.Adapters.Identity.BaseURL)
	}
	if cfg.Adapters.Metadata.Enabled {
		health.AddDownstream("metadata", cfg.Adapters.Metadata.BaseURL)
	}
	if cfg.Adapters.Storage.Enabled {
		health.AddDownstream("storage", cfg.Adapters.Storage.BaseURL)
	}

	server := api.NewServer(api.ServerConfig{
		Addr:         cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, api.Deps{
		Tenancy:   service,
		Auth:      authMW,
		RateLimit: rateLimitMW,
		Metrics:   metrics,
		Registry:  registry,
		Health:    health,
	})

	go func() {
		logger.WithField("addr", cfg.Server.Addr()).Info("Starting dataspace server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	shutdownOTel := func(shutdownCtx context.Context) error {
		return observability.ShutdownOTel(shutdownCtx, otelProviders, logger)
	}

	if err := observability.GracefulShutdown(logger, server.HTTPServer(), cfg.Server.ShutdownTimeout, shutdownOTel); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}

// tokenSource builds the service-to-service token source: static when
// configured, client credentials otherwise.
func tokenSource(cfg config.TokenConfig) propagation.TokenSource {
	if cfg.StaticToken != "" {
		return propagation.StaticTokenSource(cfg.StaticToken)
	}
	return propagation.NewOAuthTokenSource(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes...)
}

// reportDBStats exports connection pool statistics every 15 seconds.
func reportDBStats(db *sql.DB, metrics *observability.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		stats := db.Stats()
		metrics.DBConnectionsActive.Set(float64(stats.InUse))
		metrics.DBConnectionsIdle.Set(float64(stats.Idle))
		metrics.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
		metrics.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
	}
}

// reportEntityCounts exports organization and space totals every minute.
func reportEntityCounts(ctx context.Context, store orgs.Store, metrics *observability.Metrics, logger *observability.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		organizations, err := store.ListOrganizations(ctx)
		if err != nil {
			logger.WithError(err).Warn("Failed to count organizations")
			continue
		}
		metrics.OrganizationsTotal.Set(float64(len(organizations)))

		var spaces int
		for _, org := range organizations {
			list, err := store.ListSpaces(ctx, org.ID)
			if err != nil {
				continue
			}
			spaces += len(list)
		}
		metrics.SpacesTotal.Set(float64(spaces))
	}
}

// newOpsLogger builds the logrus logger the synchronizer and tenancy service
// log through.
func newOpsLogger(level observability.LogLevel) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	switch level {
	case observability.DebugLevel:
		logger.SetLevel(logrus.DebugLevel)
	case observability.WarnLevel:
		logger.SetLevel(logrus.WarnLevel)
	case observability.ErrorLevel:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
