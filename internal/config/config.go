// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Telemetry exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// MinJWTSecretLength is the shortest accepted JWT_SECRET.
const MinJWTSecretLength = 16

// Config holds all configuration for the application.
type Config struct {
	HTTPAddr        string
	AppEnv          string
	StorageBackend  string
	DatabaseURL     string
	JWTSecret       string
	LogLevel        string
	LogFormat       string
	LogHashSalt     string
	GeminiAPIKey    string
	OTelExporter    string
	OTelServiceName string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is read first if present; real environment variables
// win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		AppEnv:          envOr("APP_ENV", "production"),
		StorageBackend:  envOr("STORAGE_BACKEND", StoragePostgres),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		LogFormat:       envOr("LOG_FORMAT", "console"),
		LogHashSalt:     os.Getenv("LOG_HASH_SALT"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OTelExporter:    envOr("OTEL_EXPORTER", ExporterNone),
		OTelServiceName: envOr("OTEL_SERVICE_NAME", "expense-splitter"),
	}

	var errs []string
	cfg.RequestTimeout = durationEnv("REQUEST_TIMEOUT", 30*time.Second, &errs)
	cfg.ShutdownTimeout = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second, &errs)

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// SuggestionsEnabled reports whether a Gemini key is configured.
func (c *Config) SuggestionsEnabled() bool {
	return c.GeminiAPIKey != ""
}

// validate returns every problem with the loaded values.
func (c *Config) validate() []string {
	var errs []string

	switch c.StorageBackend {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when STORAGE_BACKEND is postgres")
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_BACKEND must be %s or %s, got %q", StoragePostgres, StorageMemory, c.StorageBackend))
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}

	switch c.AppEnv {
	case "production", "development":
	default:
		errs = append(errs, fmt.Sprintf("APP_ENV must be production or development, got %q", c.AppEnv))
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}

	switch c.OTelExporter {
	case ExporterNone, ExporterStdout, ExporterOTLPHTTP, ExporterOTLPGRPC:
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be one of none, stdout, otlp-http, otlp-grpc, got %q", c.OTelExporter))
	}

	return errs
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration, errs *[]string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s must be a positive duration, got %q", key, raw))
		return fallback
	}
	return d
}
