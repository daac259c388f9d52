package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/masteraset/cardfetch/internal/apperrors"
	"github.com/masteraset/cardfetch/internal/client"
	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/metrics"
	"github.com/masteraset/cardfetch/internal/orchestrator"
	"github.com/masteraset/cardfetch/internal/report"
	"github.com/masteraset/cardfetch/internal/services"
)

func main() {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	if cfg.APIKey == "" {
		// Not a fatal exit: a missing key ends the run like a finished one
		logger.Error().Err(apperrors.NewMissingCredentialError(config.APIKeyEnv)).Msg("Missing API key, nothing to do")
		return
	}

	logger.Info().
		Str("api_base_url", cfg.APIBaseURL).
		Str("output_root", cfg.OutputRoot).
		Strs("set_ids", cfg.SetIDs).
		Str("image_size", cfg.ImageSize).
		Int("workers", cfg.Workers).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Application started with configuration")

	reporterOpts := []report.Option{}
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry, continuing without it")
		} else {
			defer sentry.Flush(2 * time.Second)
			reporterOpts = append(reporterOpts, report.WithErrorCapturer(sentry.CurrentHub()))
		}
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Metrics.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := client.NewClient(cfg)
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close client")
		}
	}()

	run := orchestrator.New(
		cfg,
		catalog,
		services.NewImageDownloader(catalog, cfg.MinFileSize),
		report.NewConsoleReporter(reporterOpts...),
	)

	if _, err := run.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Run interrupted")
			return
		}
		logger.Error().Err(err).Msg("Run failed")
	}
}
