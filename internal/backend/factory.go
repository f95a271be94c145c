package backend

import (
	"context"
	"errors"
	"fmt"

	"tracker/internal/amqp"
	applog "tracker/internal/log"
	"tracker/internal/storage"
	"tracker/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo storage.Repository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		repo = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	events := f.createEventClient(ctx, config)

	return &BackendResult{
		Repository: repo,
		Events:     events,
		Cleanup: func() error {
			var errs []error
			if events != nil {
				errs = append(errs, events.Close())
			}
			errs = append(errs, repo.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (storage.Repository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createMemoryBackend() storage.Repository {
	f.logger.Warn("Initialized memory backend, data is lost on restart")
	return memory.New()
}

// createEventClient returns nil when AMQP is disabled. A broker that is
// unreachable at startup only produces a warning; the client reconnects on
// the next publish.
func (f *DefaultFactory) createEventClient(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}

	logger := f.logger.WithComponent(applog.ComponentAMQP)
	client := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err := client.Connect(); err != nil {
		logger.WarnContext(ctx, "AMQP broker unreachable, events will be retried on publish",
			"error", err,
			"exchange", config.AMQPExchange)
	} else {
		logger.InfoContext(ctx, "Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
	}
	return client
}
