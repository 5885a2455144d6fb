// Package postgres builds instrumented pgx connection pools.
package postgres

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool parses cfg, attaches the otel and logging query tracers and verifies
// connectivity before returning the pool.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns) //nolint:gosec // bounded by Validate
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns) //nolint:gosec // bounded by Validate
	}

	pcfg.ConnConfig.Tracer = newQueryLogger(
		otelpgx.NewTracer(otelpgx.WithTrimSQLInSpanName()),
		cfg.SlowQuery,
		cfg.LogArgs,
	)

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
