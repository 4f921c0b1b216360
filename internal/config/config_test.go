package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad(t *testing.T) {
	t.Run("loads all config from env", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HTTP_ADDR", ":9090")
		t.Setenv("GEMINI_API_KEY", "test-gemini-key")
		t.Setenv("OTEL_EXPORTER", "otlp-grpc")
		t.Setenv("REQUEST_TIMEOUT", "5s")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, ":9090", cfg.HTTPAddr)
		require.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		require.Equal(t, "test-gemini-key", cfg.GeminiAPIKey)
		require.True(t, cfg.SuggestionsEnabled())
		require.Equal(t, ExporterOTLPGRPC, cfg.OTelExporter)
		require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	})

	t.Run("applies defaults", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HTTP_ADDR", "")
		t.Setenv("APP_ENV", "")
		t.Setenv("STORAGE_BACKEND", "")
		t.Setenv("OTEL_EXPORTER", "")
		t.Setenv("REQUEST_TIMEOUT", "")
		t.Setenv("SHUTDOWN_TIMEOUT", "")
		t.Setenv("GEMINI_API_KEY", "")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.HTTPAddr)
		require.Equal(t, StoragePostgres, cfg.StorageBackend)
		require.Equal(t, ExporterNone, cfg.OTelExporter)
		require.Equal(t, 30*time.Second, cfg.RequestTimeout)
		require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		require.False(t, cfg.IsDevelopment())
		require.False(t, cfg.SuggestionsEnabled())
	})

	t.Run("memory backend does not need a database", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "memory")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "0123456789abcdef")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, StorageMemory, cfg.StorageBackend)
	})

	t.Run("recognises development", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_ENV", "development")

		cfg, err := Load()
		require.NoError(t, err)
		require.True(t, cfg.IsDevelopment())
	})
}

func TestLoad_Validation(t *testing.T) {
	t.Run("reports every problem at once", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "short")
		t.Setenv("LOG_FORMAT", "xml")
		t.Setenv("REQUEST_TIMEOUT", "soon")

		cfg, err := Load()
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "DATABASE_URL is required")
		require.Contains(t, err.Error(), "JWT_SECRET must be at least 16 characters")
		require.Contains(t, err.Error(), "LOG_FORMAT must be console or json")
		require.Contains(t, err.Error(), "REQUEST_TIMEOUT must be a positive duration")
	})

	t.Run("requires a JWT secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		require.ErrorContains(t, err, "JWT_SECRET is required")
	})

	t.Run("rejects unknown backends and exporters", func(t *testing.T) {
		setRequired(t)
		t.Setenv("STORAGE_BACKEND", "sqlite")
		t.Setenv("OTEL_EXPORTER", "zipkin")
		t.Setenv("APP_ENV", "staging")

		_, err := Load()
		require.ErrorContains(t, err, "STORAGE_BACKEND must be postgres or memory")
		require.ErrorContains(t, err, "OTEL_EXPORTER must be one of")
		require.ErrorContains(t, err, "APP_ENV must be production or development")
	})
}
