package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promo-console/internal/audit"
	"promo-console/internal/config"
	"promo-console/internal/database"
	"promo-console/internal/form"
	"promo-console/internal/handler"
	"promo-console/internal/lineimport"
	"promo-console/internal/promoapi"
	"promo-console/internal/router"
	"promo-console/internal/session"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting promotion console")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Promotion Service client
	client := promoapi.NewClient(cfg.Promotions.BaseURL, cfg.Promotions.RequestTimeout(), logger)

	// Initialize product line loader with S3 and local fallback
	loader := newLineLoader(ctx, cfg, logger)

	// Initialize audit journal
	recorder, closeAudit, err := newRecorder(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audit journal: %w", err)
	}
	defer closeAudit()

	// Initialize session store and its janitor
	sessions := session.NewStore(func(id string) *form.Controller {
		return form.NewController(id, client, loader, recorder, logger)
	}, cfg.Session.IdleTimeout(), logger)
	go sessions.Run(ctx, time.Minute)

	// Initialize router
	consoleHandler := handler.NewConsoleHandler(sessions, logger)
	mux := router.New(consoleHandler, router.Credentials{
		User:     cfg.Auth.User,
		Password: cfg.Auth.Password,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Promotions.RequestTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("promotion_api", cfg.Promotions.BaseURL).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newLineLoader builds the product line loader: S3 first when enabled,
// then the local import directory.
func newLineLoader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) lineimport.Loader {
	fileLoader := lineimport.NewFileLoader(cfg.Import.Dir, logger)

	if !cfg.S3.Enabled {
		logger.Info().
			Str("dir", cfg.Import.Dir).
			Msg("using local file system for product line files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := lineimport.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}

	return lineimport.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
}

// newRecorder builds the audit journal from the enabled sinks. The returned
// func closes the journal and any database pool it opened.
func newRecorder(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (audit.Recorder, func(), error) {
	var recorders []audit.Recorder
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.Audit.DatabaseEnabled {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		cleanups = append(cleanups, pool.Close)

		pg := audit.NewPostgresRecorder(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		recorders = append(recorders, pg)
	}

	if cfg.Audit.KafkaEnabled {
		recorders = append(recorders, audit.NewKafkaRecorder(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic, logger))
	}

	logger.Info().
		Bool("database", cfg.Audit.DatabaseEnabled).
		Bool("kafka", cfg.Audit.KafkaEnabled).
		Msg("audit journal configured")

	recorder := audit.NewFanout(logger, recorders...)
	return recorder, func() {
		if err := recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close audit journal")
		}
		cleanup()
	}, nil
}
