// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, and distributed tracing integration.
//
// # Structured Logging
//
// Create logger. Every line carries a service=dataspace attribute:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("addr", addr).Info("Server started")
//
// Attach context before logging:
//
//	logger.WithError(err).WithField("organization", name).Error("Propagation failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(registry)
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/organization/", "200").Inc()
//	metrics.SyncOperationsTotal.WithLabelValues("identity", "create_organization_context", "success").Inc()
//
// Business metrics:
//
//	metrics.OrganizationsTotal.Set(float64(count))
//
// # Health Checks
//
// Configure health checker. Downstream context services are probed for
// reachability during readiness checks:
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	checker.AddDownstream("identity", cfg.Adapters.Identity.BaseURL)
//	status := checker.Check(ctx)
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		ServiceName: "dataspace-api",
//		Endpoint:    "otel-collector:4317",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/middleware: Request logging middleware
package observability
