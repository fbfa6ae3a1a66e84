package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/dataspace/pkg/config"
	"github.com/platinummonkey/dataspace/pkg/observability"
	"github.com/platinummonkey/dataspace/pkg/orgs"
	"github.com/platinummonkey/dataspace/pkg/propagation"
	"github.com/platinummonkey/dataspace/pkg/tenancy"
)

var (
	schedule    = flag.String("schedule", "*/5 * * * *", "Cron schedule for resync sweeps (default: every 5 minutes)")
	concurrency = flag.Int("concurrency", 4, "Maximum entities resynced in parallel")
	metricsPort = flag.String("metrics-port", "9091", "Port for the Prometheus metrics endpoint")
	runOnce     = flag.Bool("run-once", false, "Run one sweep and exit (for testing)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.PostgresURL == "" {
		log.Fatal("DATASPACE_POSTGRES_URL is required: the sweeper re-drives rows another instance persisted")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := sql.Open("postgres", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := orgs.NewPostgresStore(db)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	sweeper := newSweeper(cfg, store, metrics, logger, *concurrency)

	if *runOnce {
		if err := sweeper.sweep(context.Background()); err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		logger.Info("Sweep completed")
		return
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler(registry))
		logger.WithField("port", *metricsPort).Info("Serving metrics")
		if err := http.ListenAndServe(":"+*metricsPort, mux); err != nil {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()

	c := cron.New()
	_, err = c.AddFunc(*schedule, func() {
		defer observability.RecoverPanic(logger, "resync sweep")

		if err := sweeper.sweep(context.Background()); err != nil {
			logger.WithError(err).Error("Sweep finished with errors")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule resync sweep: %v", err)
	}

	c.Start()
	logger.WithField("schedule", *schedule).Info("Dataspace resync sweeper started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down gracefully...")

	stopCtx := c.Stop()
	<-stopCtx.Done()

	logger.Info("Sweeper stopped")
}

// sweeper re-drives propagation for entities stuck in partially_propagated.
// Per-entity adapter ordering stays sequential; the sweep fans out across
// entities up to the concurrency bound.
type sweeper struct {
	store       orgs.Store
	service     *tenancy.Service
	metrics     *observability.Metrics
	logger      *observability.Logger
	concurrency int
}

func newSweeper(cfg *config.Config, store orgs.Store, metrics *observability.Metrics, logger *observability.Logger, concurrency int) *sweeper {
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

	opsLogger := newOpsLogger(cfg.Observability.LogLevel)
	synchronizer := propagation.NewSynchronizer(store, opsLogger, metrics, adapters...)

	return &sweeper{
		store:       store,
		service:     tenancy.NewService(store, synchronizer, opsLogger),
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
	}
}

func (s *sweeper) sweep(ctx context.Context) error {
	if err := s.sweepOrganizations(ctx); err != nil {
		return err
	}
	return s.sweepSpaces(ctx)
}

func (s *sweeper) sweepOrganizations(ctx context.Context) error {
	stale, err := s.store.ListOrganizationsBySyncStatus(ctx, orgs.SyncStatusPartial)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	s.logger.WithField("count", len(stale)).Info("Resyncing organizations")

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, org := range stale {
		org := org
		g.Go(func() error {
			err := s.service.ResyncOrganizationEntity(groupCtx, org)
			s.observe("organization", err)
			if err != nil {
				s.logger.WithError(err).WithField("organization", org.Name).Error("Organization resync failed")
			}
			// Keep sweeping the remaining entities.
			return nil
		})
	}
	return g.Wait()
}

func (s *sweeper) sweepSpaces(ctx context.Context) error {
	stale, err := s.store.ListSpacesBySyncStatus(ctx, orgs.SyncStatusPartial)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	s.logger.WithField("count", len(stale)).Info("Resyncing spaces")

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, space := range stale {
		space := space
		g.Go(func() error {
			err := s.service.ResyncSpaceEntity(groupCtx, space)
			s.observe("space", err)
			if err != nil {
				s.logger.WithError(err).WithField("space", space.Name).Error("Space resync failed")
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *sweeper) observe(entity string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	s.metrics.ResyncSweepsTotal.WithLabelValues(entity, status).Inc()
}

// tokenSource builds the service-to-service token source: static when
// configured, client credentials otherwise.
func tokenSource(cfg config.TokenConfig) propagation.TokenSource {
	if cfg.StaticToken != "" {
		return propagation.StaticTokenSource(cfg.StaticToken)
	}
	return propagation.NewOAuthTokenSource(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes...)
}

// newOpsLogger builds the logrus logger the synchronizer logs through.
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
