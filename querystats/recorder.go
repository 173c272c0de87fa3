// Package querystats tracks per-query-template execution statistics.
package querystats

import (
	"slices"
	"sync"
	"time"

	"github.com/zakwanzambri/wintradesgo-sub004/utils"
)

// Stat aggregates every recorded run of one query template.
type Stat struct {
	Fingerprint uint64        `json:"fingerprint"`
	Query       string        `json:"query"`
	Executions  int64         `json:"executions"`
	CacheHits   int64         `json:"cache_hits"`
	Errors      int64         `json:"errors"`
	TotalTime   time.Duration `json:"total_time"`
	AvgTime     time.Duration `json:"avg_time"`
	MaxTime     time.Duration `json:"max_time"`
}

type entry struct {
	stat Stat
	seq  uint64
}

// Recorder is safe for concurrent use. Entries live until Reset.
type Recorder struct {
	mu    sync.RWMutex
	stats map[uint64]*entry
	next  uint64
}

func New() *Recorder {
	return &Recorder{
		stats: make(map[uint64]*entry, 64),
	}
}

// RecordExecution counts a successful live execution taking d.
func (r *Recorder) RecordExecution(query string, d time.Duration) {
	r.update(query, func(s *Stat) {
		s.Executions++
		s.TotalTime += d
		s.AvgTime = s.TotalTime / time.Duration(s.Executions)
		if d > s.MaxTime {
			s.MaxTime = d
		}
	})
}

// RecordCacheHit counts a read served from cache. No latency is charged.
func (r *Recorder) RecordCacheHit(query string) {
	r.update(query, func(s *Stat) {
		s.CacheHits++
	})
}

// RecordError counts a failed execution.
func (r *Recorder) RecordError(query string) {
	r.update(query, func(s *Stat) {
		s.Errors++
	})
}

func (r *Recorder) update(query string, fn func(*Stat)) {
	fp := utils.FingerprintQuery(query)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.stats[fp]
	if !ok {
		e = &entry{
			stat: Stat{Fingerprint: fp, Query: utils.NormalizeQuery(query)},
			seq:  r.next,
		}
		r.next++
		r.stats[fp] = e
	}
	fn(&e.stat)
}

// Get returns the stat for the template of query.
func (r *Recorder) Get(query string) (Stat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.stats[utils.FingerprintQuery(query)]
	if !ok {
		return Stat{}, false
	}
	return e.stat, true
}

// Top returns at most n stats ordered by executions plus cache hits, ties
// broken by first-seen order. n <= 0 returns all of them.
func (r *Recorder) Top(n int) []Stat {
	r.mu.RLock()
	entries := make([]entry, 0, len(r.stats))
	for _, e := range r.stats {
		entries = append(entries, *e)
	}
	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		ua := a.stat.Executions + a.stat.CacheHits
		ub := b.stat.Executions + b.stat.CacheHits
		switch {
		case ua > ub:
			return -1
		case ua < ub:
			return 1
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	out := make([]Stat, len(entries))
	for i := range entries {
		out[i] = entries[i].stat
	}
	return out
}

// Len returns the number of distinct templates seen.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stats)
}

// Reset forgets every stat.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.stats = make(map[uint64]*entry, 64)
	r.next = 0
	r.mu.Unlock()
}
