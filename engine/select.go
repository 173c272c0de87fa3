package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/zakwanzambri/wintradesgo-sub004/cache"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/pool"
)

// SelectCached runs a read. With a non-empty cacheKey, a live cache entry is
// returned without touching the database, and a fresh result is stored under
// cacheKey for ttl (ttl <= 0 uses the default TTL).
func (e *Engine) SelectCached(ctx context.Context, query string, args []any, cacheKey string, ttl time.Duration) ([]database.Row, error) {
	if cacheKey != "" {
		if rows, ok := e.cached(cacheKey); ok {
			e.stats.RecordCacheHit(query)
			return rows, nil
		}
	}

	var rows []database.Row
	err := e.withConn(ctx, func(conn *pool.Conn) error {
		start := time.Now()
		result, err := conn.Session().Query(ctx, query, args...)
		if err == nil {
			rows, err = database.CollectRows(result)
		}
		if err != nil {
			e.stats.RecordError(query)
			return err
		}
		e.observe(query, time.Since(start))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	if cacheKey != "" {
		e.store(cacheKey, rows, ttl)
	}
	return rows, nil
}

func (e *Engine) cached(key string) ([]database.Row, bool) {
	data, ok := e.cache.Get(key)
	if !ok {
		return nil, false
	}
	rows, err := cache.DecodeRows(data)
	if err != nil {
		e.log.Warn().Err(err).Str("cache_key", key).Msg("dropping undecodable cache entry")
		e.cache.Delete(key)
		return nil, false
	}
	return rows, true
}

func (e *Engine) store(key string, rows []database.Row, ttl time.Duration) {
	data, err := cache.EncodeRows(rows)
	if err != nil {
		e.log.Warn().Err(err).Str("cache_key", key).Msg("result not cached")
		return
	}
	if ttl <= 0 {
		ttl = e.opts.DefaultTTL
	}
	e.cache.Set(key, data, ttl)
}

// observe records a successful execution and flags slow ones.
func (e *Engine) observe(query string, took time.Duration) {
	e.stats.RecordExecution(query, took)
	if e.opts.SlowQueryThreshold > 0 && took >= e.opts.SlowQueryThreshold {
		e.log.Warn().Str("query", query).Dur("took", took).Msg("slow query")
	}
}
