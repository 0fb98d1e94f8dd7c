package store

import (
	"context"

	"git.home.luguber.info/inful/articleforge/internal/config"
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// Open constructs the ArticleStore selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (ArticleStore, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, errors.StoreError("open sqlite article store").WithCause(err).WithContext("path", cfg.Path).Build()
		}
		return s, nil
	case config.StoragePostgres:
		s, err := NewPGStore(ctx, PGConfig{URL: cfg.URL, MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
		if err != nil {
			return nil, errors.StoreError("open postgres article store").WithCause(err).Build()
		}
		return s, nil
	default:
		return nil, errors.ConfigError("unsupported storage driver").WithContext("driver", string(cfg.Driver)).Build()
	}
}
