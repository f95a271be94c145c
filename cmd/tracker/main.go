package main

import (
	"context"
	"os"
	"time"

	"tracker/internal/backend"
	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := []services.Option{services.WithCacheTTL(cfg.CacheTTL)}
	if res.Events != nil {
		opts = append(opts, services.WithPublisher(res.Events))
	}
	svc := services.NewTransactionService(res.Repository, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger),
		apphttp.WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout),
		apphttp.WithCORSOrigins(cfg.CORSAllowedOrigins),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting tracker server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events_enabled", res.Events != nil)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = srv.Shutdown(context.Background())
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
