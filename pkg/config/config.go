package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/dataspace/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (rate limiting, health checks)
	Redis RedisConfig

	// Auth configuration
	Auth AuthConfig

	// Downstream context services, in propagation order
	Adapters AdaptersConfig

	// Service-to-service token source
	Token TokenConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the host:port the server binds to.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects the
// in-memory store, used for local development and tests.
type DatabaseConfig struct {
	PostgresURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis settings. An empty Addr disables the distributed
// rate limiter; the in-memory limiter takes over.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds bearer token settings. An empty Secret skips signature
// verification (the authenticating proxy already verified the token).
type AuthConfig struct {
	Secret   string
	Optional bool
}

// AdapterConfig holds the settings of one downstream context service.
type AdapterConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

// AdaptersConfig groups the three downstream adapters. Propagation order is
// fixed: identity, then metadata, then storage.
type AdaptersConfig struct {
	Identity AdapterConfig
	Metadata AdapterConfig
	Storage  AdapterConfig
}

// TokenConfig holds the client-credentials settings for service-to-service
// calls. A non-empty StaticToken bypasses the OAuth flow, used in tests and
// local development.
type TokenConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	StaticToken  string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Auth:          loadAuthConfig(),
		Adapters:      loadAdaptersConfig(),
		Token:         loadTokenConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("DATASPACE_HOST", "0.0.0.0"),
		Port:            getEnv("DATASPACE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("DATASPACE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("DATASPACE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("DATASPACE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("DATASPACE_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadDatabaseConfig loads PostgreSQL configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		PostgresURL:     getEnv("DATASPACE_POSTGRES_URL", ""),
		MaxOpenConns:    getEnvInt("DATASPACE_POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DATASPACE_POSTGRES_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DATASPACE_POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// loadRedisConfig loads Redis configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("DATASPACE_REDIS_ADDR", ""),
		Password: getEnv("DATASPACE_REDIS_PASSWORD", ""),
		DB:       getEnvInt("DATASPACE_REDIS_DB", 0),
	}
}

// loadAuthConfig loads bearer token configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:   getEnv("DATASPACE_AUTH_SECRET", ""),
		Optional: getEnvBool("DATASPACE_AUTH_OPTIONAL", false),
	}
}

func loadAdapterConfig(name, defaultURL string) AdapterConfig {
	prefix := "DATASPACE_" + strings.ToUpper(name)
	return AdapterConfig{
		Enabled: getEnvBool(prefix+"_ENABLED", true),
		BaseURL: getEnv(prefix+"_URL", defaultURL),
		Timeout: getEnvDuration(prefix+"_TIMEOUT", 10*time.Second),
	}
}

// loadAdaptersConfig loads the downstream adapter configuration from
// environment
func loadAdaptersConfig() AdaptersConfig {
	return AdaptersConfig{
		Identity: loadAdapterConfig("identity", "http://identity:8080"),
		Metadata: loadAdapterConfig("metadata", "http://metadata:8080"),
		Storage:  loadAdapterConfig("storage", "http://storage:8080"),
	}
}

// loadTokenConfig loads the token source configuration from environment
func loadTokenConfig() TokenConfig {
	cfg := TokenConfig{
		TokenURL:     getEnv("DATASPACE_TOKEN_URL", ""),
		ClientID:     getEnv("DATASPACE_CLIENT_ID", ""),
		ClientSecret: getEnv("DATASPACE_CLIENT_SECRET", ""),
		StaticToken:  getEnv("DATASPACE_STATIC_TOKEN", ""),
	}
	if scopes := getEnv("DATASPACE_TOKEN_SCOPES", ""); scopes != "" {
		cfg.Scopes = strings.Split(scopes, ",")
	}
	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("DATASPACE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("DATASPACE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("DATASPACE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("DATASPACE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("DATASPACE_OTEL_SERVICE_NAME", "dataspace"),
		OTelServiceVersion: getEnv("DATASPACE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("DATASPACE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	// Enabled adapters need a base URL
	for name, adapter := range map[string]AdapterConfig{
		"identity": c.Adapters.Identity,
		"metadata": c.Adapters.Metadata,
		"storage":  c.Adapters.Storage,
	} {
		if adapter.Enabled && adapter.BaseURL == "" {
			return fmt.Errorf("%s adapter is enabled but has no base URL", name)
		}
	}

	// A token source is required when any adapter is enabled
	anyAdapter := c.Adapters.Identity.Enabled || c.Adapters.Metadata.Enabled || c.Adapters.Storage.Enabled
	if anyAdapter && c.Token.StaticToken == "" {
		if c.Token.TokenURL == "" || c.Token.ClientID == "" || c.Token.ClientSecret == "" {
			return fmt.Errorf("token URL, client ID and client secret are required when downstream adapters are enabled")
		}
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
