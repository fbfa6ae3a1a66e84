// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	DATASPACE_HOST="0.0.0.0"
//	DATASPACE_PORT="8080"
//	DATASPACE_READ_TIMEOUT="15s"
//	DATASPACE_WRITE_TIMEOUT="15s"
//	DATASPACE_SHUTDOWN_TIMEOUT="30s"
//
// Database and Redis settings:
//
//	DATASPACE_POSTGRES_URL="postgres://localhost/dataspace"  # empty selects the in-memory store
//	DATASPACE_POSTGRES_MAX_OPEN_CONNS="25"
//	DATASPACE_REDIS_ADDR="localhost:6379"  # empty disables the distributed rate limiter
//
// Auth settings:
//
//	DATASPACE_AUTH_SECRET=""     # empty skips signature verification
//	DATASPACE_AUTH_OPTIONAL="false"
//
// Downstream adapter settings (identity, metadata, storage):
//
//	DATASPACE_IDENTITY_URL="http://identity:8080"
//	DATASPACE_IDENTITY_TIMEOUT="10s"
//	DATASPACE_IDENTITY_ENABLED="true"
//	DATASPACE_METADATA_URL="http://metadata:8080"
//	DATASPACE_STORAGE_URL="http://storage:8080"
//
// Token source settings (service-to-service calls):
//
//	DATASPACE_TOKEN_URL="https://auth.internal/oauth/token"
//	DATASPACE_CLIENT_ID="dataspace"
//	DATASPACE_CLIENT_SECRET="..."
//	DATASPACE_TOKEN_SCOPES="context.write,context.delete"
//	DATASPACE_STATIC_TOKEN=""  # bypasses the OAuth flow when set
//
// Observability settings:
//
//	DATASPACE_LOG_LEVEL="info"  # debug, info, warn, error
//	DATASPACE_METRICS_ENABLED="true"
//	DATASPACE_OTEL_ENABLED="true"
//	DATASPACE_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s\n", cfg.Server.Addr())
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/propagation: Uses adapter and token configuration
//   - pkg/observability: Uses observability configuration
package config
