package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/dataspace/pkg/httputil"
	"github.com/platinummonkey/dataspace/pkg/middleware"
	"github.com/platinummonkey/dataspace/pkg/observability"
	"github.com/platinummonkey/dataspace/pkg/tenancy"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

// Deps carries the collaborators the server wires together. Metrics,
// Registry, Health and RateLimit may be nil; the corresponding endpoint or
// middleware is then skipped.
type Deps struct {
	Tenancy   *tenancy.Service
	Auth      *middleware.AuthMiddleware
	RateLimit func(http.Handler) http.Handler
	Metrics   *observability.Metrics
	Registry  *prometheus.Registry
	Health    *observability.HealthChecker
}

// Server is the dataspace HTTP server.
type Server struct {
	router *mux.Router
	http   *http.Server
}

// NewServer builds the router, applies the middleware chain and registers
// all routes.
func NewServer(cfg ServerConfig, deps Deps) *Server {
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20 // 1 MiB
	}

	router := mux.NewRouter()

	// Health and metrics bypass auth and rate limiting.
	if deps.Health != nil {
		observability.RegisterHealthRoutes(router, deps.Health)
	}
	if deps.Registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(deps.Registry))
	}

	api := router.PathPrefix("/").Subrouter()

	chain := []mux.MiddlewareFunc{
		httputil.RequestIDMiddleware,
		httputil.RecoveryMiddleware,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(cfg.MaxBodyBytes),
	}
	if deps.Metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(deps.Metrics))
	}
	if deps.Auth != nil {
		chain = append(chain, deps.Auth.Handler)
	}
	if deps.RateLimit != nil {
		chain = append(chain, deps.RateLimit)
	}
	api.Use(chain...)

	orgHandlers := NewOrgHandlers(deps.Tenancy)
	orgHandlers.RegisterRoutes(api)

	spaceHandlers := NewSpaceHandlers(deps.Tenancy)
	spaceHandlers.RegisterRoutes(api)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Router returns the underlying router, used by tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// HTTPServer returns the configured http.Server for lifecycle management.
func (s *Server) HTTPServer() *http.Server {
	return s.http
}

// ListenAndServe starts serving requests.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}
