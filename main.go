// Package main is the entry point for the expense splitter HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/expense-splitter/internal/auth"
	"gitlab.com/yelinaung/expense-splitter/internal/config"
	"gitlab.com/yelinaung/expense-splitter/internal/database"
	"gitlab.com/yelinaung/expense-splitter/internal/gemini"
	"gitlab.com/yelinaung/expense-splitter/internal/logger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
	"gitlab.com/yelinaung/expense-splitter/internal/repository"
	"gitlab.com/yelinaung/expense-splitter/internal/repository/memory"
	"gitlab.com/yelinaung/expense-splitter/internal/server"
	"gitlab.com/yelinaung/expense-splitter/internal/service"
	"gitlab.com/yelinaung/expense-splitter/internal/telemetry"
	"go.opentelemetry.io/otel"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `usage: expense-splitter [command]

commands:
  serve     run the HTTP API (default)
  migrate   apply database migrations and exit
  token     issue a bearer token: token -user 42 [-username meera] [-name Meera] [-ttl 24h]
  version   print build information`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "version":
		fmt.Printf("expense-splitter %s (commit: %s, built: %s)\n", version, commit, date)
		return
	case "help", "-h", "--help":
		fmt.Println(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	if cfg.LogFormat == "json" {
		logger.SetJSON()
	}
	logger.SetLevel(cfg.LogLevel)
	if err := logger.InitHashSalt(cfg.LogHashSalt); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize log hashing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = serve(ctx, cfg)
	case "migrate":
		err = migrateDatabase(ctx, cfg)
	case "token":
		err = issueToken(cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		stop()
		logger.Log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:    cfg.OTelExporter,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	expenditures, users, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []service.Option{service.WithMetrics(metrics)}
	if cfg.SuggestionsEnabled() {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create gemini client: %w", err)
		}
		opts = append(opts, service.WithSuggester(client))
		logger.Log.Info().Str("model", gemini.ModelName).Msg("Category suggestions enabled")
	}

	svc := service.New(expenditures, users, opts...)
	srv := server.New(svc, auth.NewVerifier(cfg.JWTSecret), server.Options{
		RequestTimeout: cfg.RequestTimeout,
		Development:    cfg.IsDevelopment(),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("storage", cfg.StorageBackend).
			Str("version", version).
			Msg("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// openStores returns the configured backend and a func releasing it.
func openStores(ctx context.Context, cfg *config.Config) (service.ExpenditureStore, service.UserStore, func(), error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Log.Warn().Msg("Using in-memory storage; data is lost on restart")
		store := memory.New()
		return store, store, func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	logger.Log.Info().Msg("Database initialized successfully")

	return repository.NewExpenditureRepository(pool), repository.NewUserRepository(pool), pool.Close, nil
}

func migrateDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.StorageBackend != config.StoragePostgres {
		return fmt.Errorf("migrate requires STORAGE_BACKEND=%s", config.StoragePostgres)
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		return err
	}
	v, dirty, err := database.SchemaVersion(pool)
	if err != nil {
		return err
	}
	logger.Log.Info().Uint("version", v).Bool("dirty", dirty).Msg("Migrations applied")
	return nil
}

func issueToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.Int64("user", 0, "user id (required)")
	username := fs.String("username", "", "username claim")
	name := fs.String("name", "", "display name claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID <= 0 {
		return errors.New("-user must be a positive id")
	}

	token, err := auth.IssueToken(cfg.JWTSecret, models.User{
		ID:       *userID,
		Username: *username,
		Name:     *name,
	}, *ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
