// Package wintrades assembles the data-access core from configuration:
// connector, session pool, result cache and engine.
package wintrades

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zakwanzambri/wintradesgo-sub004/cache"
	"github.com/zakwanzambri/wintradesgo-sub004/config"
	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/engine"
	"github.com/zakwanzambri/wintradesgo-sub004/pool"
)

// Open builds an engine for cfg. The pool is prefilled to MinSize, so Open
// fails when the database cannot be reached.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*engine.Engine, error) {
	conn, err := connector.New(cfg.Database, connector.OpenOptions{
		Logger:     log,
		LogQueries: cfg.Log.Queries,
	})
	if err != nil {
		return nil, err
	}

	p, err := pool.New(ctx, conn, pool.Options{
		MinSize:     cfg.Database.Pool.MinSize,
		MaxSize:     cfg.Database.Pool.MaxSize,
		MaxWait:     cfg.Database.Pool.MaxWait,
		MaxLifetime: cfg.Database.Pool.MaxLifetime,
		MaxIdleTime: cfg.Database.Pool.MaxIdleTime,
		Settings:    conn.SessionSettings(),
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("open pool for %s: %w", cfg.Database.RedactedDSN(), err)
	}

	c, err := cache.New(cache.Options{
		Capacity:   cfg.Cache.Capacity,
		DefaultTTL: cfg.Cache.DefaultTTL,
	})
	if err != nil {
		_ = p.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("dsn", cfg.Database.RedactedDSN()).
		Int("pool_max", cfg.Database.Pool.MaxSize).
		Int("cache_capacity", cfg.Cache.Capacity).
		Msg("data access core ready")

	return engine.New(p, c, conn.Dialect(), engine.Options{
		DefaultTTL:         cfg.Cache.DefaultTTL,
		BatchSize:          cfg.Engine.BatchSize,
		TopN:               cfg.Engine.TopN,
		IDColumn:           cfg.Engine.IDColumn,
		UpdatedAtColumn:    cfg.Engine.UpdatedAtColumn,
		Invalidate:         cfg.Engine.Invalidate,
		SlowQueryThreshold: cfg.Log.SlowQueryThreshold,
		Retry:              cfg.Database.Retry,
		SweepInterval:      cfg.Cache.SweepInterval,
		Logger:             log,
	}), nil
}
