package engine

import (
	"github.com/zakwanzambri/wintradesgo-sub004/cache"
	"github.com/zakwanzambri/wintradesgo-sub004/pool"
	"github.com/zakwanzambri/wintradesgo-sub004/querystats"
)

// PerformanceStats is a JSON-serializable health snapshot.
type PerformanceStats struct {
	Pool    pool.Status       `json:"pool"`
	Cache   cache.Stats       `json:"cache"`
	Queries []querystats.Stat `json:"queries"`
}

// PerformanceStats reports pool and cache state plus the TopN most used
// query templates.
func (e *Engine) PerformanceStats() PerformanceStats {
	return PerformanceStats{
		Pool:    e.pool.Status(),
		Cache:   e.cache.Stats(),
		Queries: e.stats.Top(e.opts.TopN),
	}
}

func (e *Engine) PoolStatus() pool.Status {
	return e.pool.Status()
}

func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}
