package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/cache"
	"tracker/internal/cli"
	"tracker/internal/config"
	applog "tracker/internal/log"
	"tracker/internal/storage"
	"tracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentEvents)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	code := run(ctx, logger, cfg)
	if code == 0 {
		cli.WaitForShutdown(ctx, done)
	}
	os.Exit(code)
}

// run consumes events until ctx is cancelled and returns the process exit
// code. Every resource it opens is released before it returns.
func run(ctx context.Context, logger *applog.Logger, cfg *config.Config) int {
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume transaction events")
		return 1
	}

	// With the sqlite backend the worker can read the current state of each
	// transaction from the same database file.
	var reader storage.TransactionReader
	if cfg.DataBackend == config.BackendSQLite {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			return 1
		}
		defer repo.Close()
		reader = repo
	}
	w := worker.NewEventWorker(reader)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register("seen_events", w.SeenEvents())
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	client := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	defer client.Close()

	logger.Info("Starting tracker-events",
		applog.FieldOperation, applog.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"enrich_from_db", reader != nil)

	err := client.ConsumeTransactionEvents(ctx, w.HandleEvent)

	stats := w.Stats()
	logger.Info("Event consumer stopped",
		applog.FieldOperation, applog.OpShutdown,
		"created", stats.Created,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"duplicates", stats.Duplicates)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		return 1
	}
	return 0
}
