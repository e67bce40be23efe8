package db

import (
	"context"
	"fmt"

	"coffee-shop/internal/config"
	"coffee-shop/internal/core"
	"coffee-shop/internal/store/postgres"
	"coffee-shop/internal/store/sqlite"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL not set", core.ErrStoreUnavailable)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse DATABASE_URL: %v", core.ErrStoreUnavailable, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create connection pool: %v", core.ErrStoreUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: unable to ping database: %v", core.ErrStoreUnavailable, err)
	}

	return pool, nil
}

// Open connects to the store selected by cfg.
func Open(ctx context.Context, cfg config.Config) (core.Store, error) {
	switch cfg.Backend() {
	case config.Postgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	default:
		return sqlite.Open(ctx, cfg.SQLitePath())
	}
}
