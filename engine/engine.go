// Package engine is the data-access facade: cached reads, chunked batch
// inserts and row-locked updates over a bounded session pool.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/gertd/go-pluralize"
	"github.com/rs/zerolog"

	"github.com/zakwanzambri/wintradesgo-sub004/cache"
	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
	"github.com/zakwanzambri/wintradesgo-sub004/pool"
	"github.com/zakwanzambri/wintradesgo-sub004/querystats"
)

const (
	DefaultBatchSize = 1000
	DefaultTopN      = 10
)

// Options configure an Engine. Zero values fall back to defaults.
type Options struct {
	// DefaultTTL applies to SelectCached calls with ttl <= 0. When zero the
	// cache's own default is used.
	DefaultTTL time.Duration
	BatchSize  int
	TopN       int
	IDColumn   string
	// UpdatedAtColumn, when set, is stamped by UpdateLocked unless the
	// caller sets it explicitly.
	UpdatedAtColumn string
	// Invalidate lists extra cache key patterns per table for UpdateLocked.
	Invalidate         map[string][]string
	SlowQueryThreshold time.Duration
	// Retry governs re-acquisition when opening a session fails.
	Retry connector.RetryConfig
	// SweepInterval drives a janitor that purges expired cache entries.
	SweepInterval time.Duration
	Logger        zerolog.Logger
	Now           func() time.Time
}

// Engine is safe for concurrent use.
type Engine struct {
	pool    *pool.Pool
	cache   *cache.ResultCache
	stats   *querystats.Recorder
	dialect dialect.Dialect
	plural  *pluralize.Client
	opts    Options
	log     zerolog.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func New(p *pool.Pool, c *cache.ResultCache, d dialect.Dialect, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.IDColumn == "" {
		opts.IDColumn = "id"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		pool:    p,
		cache:   c,
		stats:   querystats.New(),
		dialect: d,
		plural:  pluralize.NewClient(),
		opts:    opts,
		log:     opts.Logger.With().Str("component", "engine").Logger(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go e.janitor(opts.SweepInterval)
	} else {
		close(e.done)
	}
	return e
}

func (e *Engine) janitor(every time.Duration) {
	defer close(e.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if n := e.cache.PurgeExpired(); n > 0 {
				e.log.Debug().Int("purged", n).Msg("expired cache entries purged")
			}
		}
	}
}

// Ping checks that a session can be acquired and answers.
func (e *Engine) Ping(ctx context.Context) error {
	return e.withConn(ctx, func(c *pool.Conn) error {
		return c.Session().Ping(ctx)
	})
}

// Close stops the cache janitor and closes the pool.
func (e *Engine) Close(ctx context.Context) error {
	e.closeOnce.Do(func() { close(e.stop) })
	<-e.done
	return e.pool.Close(ctx)
}
