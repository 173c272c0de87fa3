// Package metrics exposes engine performance stats as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zakwanzambri/wintradesgo-sub004/engine"
)

// StatsSource is satisfied by *engine.Engine.
type StatsSource interface {
	PerformanceStats() engine.PerformanceStats
}

// Collector snapshots PerformanceStats on every scrape.
type Collector struct {
	source StatsSource

	poolCheckedOut *prometheus.Desc
	poolIdle       *prometheus.Desc
	poolMaxSize    *prometheus.Desc
	poolWaiting    *prometheus.Desc
	poolCreated    *prometheus.Desc
	poolDiscarded  *prometheus.Desc
	poolWaits      *prometheus.Desc
	poolWaitSecs   *prometheus.Desc

	cacheHits      *prometheus.Desc
	cacheMisses    *prometheus.Desc
	cacheEvictions *prometheus.Desc
	cacheItems     *prometheus.Desc
	cacheHitRatio  *prometheus.Desc

	queryExecutions *prometheus.Desc
	queryCacheHits  *prometheus.Desc
	queryErrors     *prometheus.Desc
	queryAvgSecs    *prometheus.Desc
	queryMaxSecs    *prometheus.Desc
}

func NewCollector(namespace string, source StatsSource) *Collector {
	desc := func(subsystem, name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
	}
	queryLabels := []string{"fingerprint"}

	return &Collector{
		source: source,

		poolCheckedOut: desc("pool", "checked_out", "Connections currently held by callers or being opened."),
		poolIdle:       desc("pool", "idle", "Idle connections."),
		poolMaxSize:    desc("pool", "max_size", "Maximum number of connections."),
		poolWaiting:    desc("pool", "waiting", "Callers waiting for a connection."),
		poolCreated:    desc("pool", "created_total", "Connections opened."),
		poolDiscarded:  desc("pool", "discarded_total", "Connections closed by the pool."),
		poolWaits:      desc("pool", "waits_total", "Acquisitions that had to wait."),
		poolWaitSecs:   desc("pool", "wait_seconds_total", "Time spent waiting for connections."),

		cacheHits:      desc("cache", "hits_total", "Result cache hits."),
		cacheMisses:    desc("cache", "misses_total", "Result cache misses."),
		cacheEvictions: desc("cache", "evictions_total", "Entries evicted by the capacity ceiling."),
		cacheItems:     desc("cache", "items", "Entries currently stored."),
		cacheHitRatio:  desc("cache", "hit_ratio", "Hits over lookups."),

		queryExecutions: desc("query", "executions_total", "Live executions of the most used query templates.", queryLabels...),
		queryCacheHits:  desc("query", "cache_hits_total", "Cache hits of the most used query templates.", queryLabels...),
		queryErrors:     desc("query", "errors_total", "Failed executions of the most used query templates.", queryLabels...),
		queryAvgSecs:    desc("query", "avg_seconds", "Mean execution latency.", queryLabels...),
		queryMaxSecs:    desc("query", "max_seconds", "Slowest execution.", queryLabels...),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.poolCheckedOut, c.poolIdle, c.poolMaxSize, c.poolWaiting,
		c.poolCreated, c.poolDiscarded, c.poolWaits, c.poolWaitSecs,
		c.cacheHits, c.cacheMisses, c.cacheEvictions, c.cacheItems, c.cacheHitRatio,
		c.queryExecutions, c.queryCacheHits, c.queryErrors, c.queryAvgSecs, c.queryMaxSecs,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.PerformanceStats()
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}

	gauge(c.poolCheckedOut, float64(s.Pool.CheckedOut))
	gauge(c.poolIdle, float64(s.Pool.Idle))
	gauge(c.poolMaxSize, float64(s.Pool.MaxSize))
	gauge(c.poolWaiting, float64(s.Pool.Waiting))
	counter(c.poolCreated, float64(s.Pool.Created))
	counter(c.poolDiscarded, float64(s.Pool.Discarded))
	counter(c.poolWaits, float64(s.Pool.WaitCount))
	counter(c.poolWaitSecs, s.Pool.WaitDuration.Seconds())

	counter(c.cacheHits, float64(s.Cache.Hits))
	counter(c.cacheMisses, float64(s.Cache.Misses))
	counter(c.cacheEvictions, float64(s.Cache.Evictions))
	gauge(c.cacheItems, float64(s.Cache.ItemCount))
	gauge(c.cacheHitRatio, s.Cache.HitRate)

	for _, q := range s.Queries {
		fp := strconv.FormatUint(q.Fingerprint, 16)
		counter(c.queryExecutions, float64(q.Executions), fp)
		counter(c.queryCacheHits, float64(q.CacheHits), fp)
		counter(c.queryErrors, float64(q.Errors), fp)
		gauge(c.queryAvgSecs, q.AvgTime.Seconds(), fp)
		gauge(c.queryMaxSecs, q.MaxTime.Seconds(), fp)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
