package backend

import (
	"context"
	"fmt"
	"log/slog"

	"etiket/internal/amqp"
	"etiket/internal/history"
	"etiket/internal/history/memory"
	"etiket/internal/services"
	"etiket/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	store := history.Open(ctx, repo, config.HistoryKey, f.logger)
	publisher, closeAMQP := f.connectAMQP(config)
	svc := services.NewHistoryService(store, publisher, repo.Close, closeAMQP)

	f.logger.Info("Initialized SQLite history backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", repo.SchemaVersion(),
		"entries", store.Len(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		History: svc,
		Store:   store,
		Ready:   repo.Ping,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := history.Open(ctx, memory.New(), config.HistoryKey, f.logger)
	publisher, closeAMQP := f.connectAMQP(config)
	svc := services.NewHistoryService(store, publisher, closeAMQP)

	f.logger.Info("Initialized memory history backend", "amqp_enabled", publisher != nil)

	return &BackendResult{
		History: svc,
		Store:   store,
		Ready:   func(context.Context) error { return nil },
		Cleanup: svc.Close,
	}, nil
}

// connectAMQP is optional: without a URL, or when the broker is unreachable,
// labels are still saved locally and nothing is published.
func (f *DefaultFactory) connectAMQP(config Config) (services.LabelPublisher, func() error) {
	if config.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without label events", "error", err)
		return nil, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, client.Close
}
