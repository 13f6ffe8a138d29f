package backend

import (
	"context"
	"fmt"
	"log/slog"

	"wealthwarriors/internal/cache"
	"wealthwarriors/internal/storage"
	"wealthwarriors/internal/storage/file"
	"wealthwarriors/internal/storage/memory"
	"wealthwarriors/internal/storage/sqlstore"
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
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend()
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLBackend(ctx, config, sqlstore.SQLiteDialect{}, config.SQLiteDBPath)
	case PostgresBackend:
		return f.createSQLBackend(ctx, config, sqlstore.PostgresDialect{}, config.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.NewStore()
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Families: store, States: store, Ledger: store}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store, err := file.NewStore(config.StateFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	f.logger.Info("Initialized file backend", "path", config.StateFilePath)
	return &BackendResult{Families: store, States: store}, nil
}

func (f *DefaultFactory) createSQLBackend(ctx context.Context, config Config, d sqlstore.Dialect, target string) (*BackendResult, error) {
	store, err := sqlstore.Open(ctx, d, target)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", d.Name(), err)
	}

	var families storage.FamilyStore = store
	var manager *cache.Manager
	if config.CacheTTL > 0 {
		cached, err := cache.NewFamilyStore(store, config.CacheTTL)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to initialize family cache: %w", err)
		}
		families = cached
		manager = cache.NewManager()
		manager.Register(cached.Cleaner())
		manager.StartCleanup(config.CacheTTL)
	}

	f.logger.Info("Initialized relational backend",
		"dialect", d.Name(),
		"cache_ttl", config.CacheTTL)

	return &BackendResult{
		Families: families,
		Ledger:   store,
		Ping:     store.Ping,
		Cleanup: func() error {
			if manager != nil {
				manager.Stop()
			}
			return store.Close()
		},
	}, nil
}
