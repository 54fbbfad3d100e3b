package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zapledger/internal/cache"
	"zapledger/internal/docstore"
	"zapledger/internal/ledger/memory"
	"zapledger/internal/notion"
	"zapledger/internal/services"
	gsheet "zapledger/internal/sheets/google"
	"zapledger/internal/storage"
)

const lruGuardSize = 10_000

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	res, err := f.create(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Type.NativeIdempotency() {
		return res, nil
	}
	return f.withGuard(ctx, cfg, res)
}

func (f *DefaultFactory) create(ctx context.Context, cfg Config) (*BackendResult, error) {
	switch cfg.Type {
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &BackendResult{Store: memory.New()}, nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil

	case SheetsBackend:
		cli, err := gsheet.New(ctx, cfg.Sheets)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend", "sheet", cfg.Sheets.SheetName)
		return &BackendResult{Store: cli}, nil

	case NotionBackend:
		store, err := notion.New(cfg.Notion)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Notion client: %w", err)
		}
		f.logger.Info("Initialized Notion backend", "multi_select_payment", cfg.Notion.Properties.PaymentMultiSelect)
		return &BackendResult{Store: store}, nil

	case MongoBackend:
		store, err := docstore.Open(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
		}
		f.logger.Info("Initialized MongoDB backend", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
}

// withGuard wraps res in a DeduplicatingStore.
func (f *DefaultFactory) withGuard(ctx context.Context, cfg Config, res *BackendResult) (*BackendResult, error) {
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	var (
		guard   services.IdempotencyGuard
		cleanup []CleanupFunc
	)
	if cfg.RedisAddr != "" {
		rg := cache.NewRedisGuard(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      ttl,
		})
		if err := rg.Ping(ctx); err != nil {
			// Redis is optional; fall back to the process local guard.
			f.logger.Warn("Redis unavailable, using in-process idempotency guard", "error", err)
			_ = rg.Close()
		} else {
			guard = rg
			cleanup = append(cleanup, rg.Close)
			f.logger.Info("Using Redis idempotency guard", "addr", cfg.RedisAddr)
		}
	}
	if guard == nil {
		lg := cache.NewLRUGuard(lruGuardSize, ttl)
		mgr := cache.NewManager()
		mgr.Register(lg.Cache())
		mgr.StartCleanup(time.Hour)
		guard = lg
		cleanup = append(cleanup, func() error { mgr.Stop(); return nil })
	}

	if res.Cleanup != nil {
		cleanup = append(cleanup, res.Cleanup)
	}
	return &BackendResult{
		Store:   services.NewDeduplicatingStore(res.Store, guard),
		Cleanup: joinCleanup(cleanup),
	}, nil
}

func joinCleanup(fns []CleanupFunc) CleanupFunc {
	if len(fns) == 0 {
		return nil
	}
	return func() error {
		var errs []error
		for _, fn := range fns {
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
