// Package pool implements a bounded, lazily growing pool of storage sessions.
package pool

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/errs"
)

// DefaultMaxWait bounds Acquire when Options.MaxWait is zero.
const DefaultMaxWait = 5 * time.Second

// Options configure a Pool.
type Options struct {
	MinSize int
	MaxSize int
	// MaxWait bounds how long Acquire waits for a conn to be released.
	MaxWait time.Duration
	// MaxLifetime and MaxIdleTime retire old conns; zero disables them.
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	// Settings are executed once on every new session.
	Settings []string
	Logger   zerolog.Logger
}

// Status is a point-in-time snapshot of the pool.
type Status struct {
	CheckedOut   int           `json:"checked_out"`
	Idle         int           `json:"idle"`
	MinSize      int           `json:"min_size"`
	MaxSize      int           `json:"max_size"`
	Waiting      int           `json:"waiting"`
	Created      int64         `json:"created"`
	Discarded    int64         `json:"discarded"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// Pool hands out at most MaxSize sessions. Callers that find it saturated
// queue in FIFO order and receive released conns directly.
type Pool struct {
	opener database.Opener
	opts   Options
	log    zerolog.Logger
	now    func() time.Time

	mu         sync.Mutex
	idle       []*Conn
	checkedOut int
	// A waiter receives a conn, or nil when capacity was freed or the pool closed.
	waiters []chan *Conn
	closed  bool

	created   atomic.Int64
	discarded atomic.Int64
	waitCount atomic.Int64
	waitNanos atomic.Int64
}

// New builds a pool and opens MinSize sessions up front. If any of them
// fails, the sessions opened so far are closed and the error is returned.
func New(ctx context.Context, opener database.Opener, opts Options) (*Pool, error) {
	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("pool max size must be positive, got %d", opts.MaxSize)
	}
	if opts.MinSize < 0 || opts.MinSize > opts.MaxSize {
		return nil, fmt.Errorf("pool min size %d out of range [0, %d]", opts.MinSize, opts.MaxSize)
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}

	p := &Pool{
		opener: opener,
		opts:   opts,
		log:    opts.Logger.With().Str("component", "pool").Logger(),
		now:    time.Now,
	}

	for i := 0; i < opts.MinSize; i++ {
		c, err := p.create(ctx)
		if err != nil {
			_ = p.Close(context.WithoutCancel(ctx))
			return nil, err
		}
		c.checkedOut = false
		p.idle = append(p.idle, c)
	}

	p.log.Debug().Int("min_size", opts.MinSize).Int("max_size", opts.MaxSize).Msg("pool ready")
	return p, nil
}

// Acquire returns an idle conn, opens a new one while under MaxSize, or waits
// for a release. It fails with errs.ErrPoolExhausted after MaxWait, with the
// context error on cancellation and with errs.ErrPoolClosed after Close.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		timer   *time.Timer
		started time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
			p.waitNanos.Add(int64(p.now().Sub(started)))
		}
	}()

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, errs.ErrPoolClosed
		}

		c, stale := p.popIdleLocked()
		if c != nil {
			c.checkedOut = true
			p.checkedOut++
			p.mu.Unlock()
			p.discard(ctx, stale)
			return c, nil
		}

		if p.checkedOut+len(p.idle) < p.opts.MaxSize {
			// Reserve the slot before dialling.
			p.checkedOut++
			p.mu.Unlock()
			p.discard(ctx, stale)

			c, err := p.create(ctx)
			if err != nil {
				p.mu.Lock()
				p.checkedOut--
				p.wakeOneLocked()
				p.mu.Unlock()
				return nil, err
			}
			return c, nil
		}

		ch := make(chan *Conn, 1)
		p.waiters = append(p.waiters, ch)
		p.mu.Unlock()
		p.discard(ctx, stale)

		if timer == nil {
			started = p.now()
			timer = time.NewTimer(p.opts.MaxWait)
			p.waitCount.Add(1)
		}

		select {
		case c := <-ch:
			if c != nil {
				return c, nil
			}
			// Capacity was freed or the pool closed; re-evaluate.
		case <-ctx.Done():
			p.abandon(ch)
			return nil, ctx.Err()
		case <-timer.C:
			p.abandon(ch)
			return nil, errs.ErrPoolExhausted
		}
	}
}

// Release returns a conn to the pool. Dead, expired or post-close conns are
// closed instead. Releasing nil, a foreign conn or an already released conn
// is a logged no-op.
func (p *Pool) Release(c *Conn) {
	if c == nil || c.pool != p {
		p.log.Warn().Msg("release of nil or foreign connection ignored")
		return
	}

	p.mu.Lock()
	if !c.checkedOut {
		p.mu.Unlock()
		p.log.Warn().Str("conn_id", c.ID).Msg("double release ignored")
		return
	}
	c.checkedOut = false

	now := p.now()
	if !p.closed && !p.expired(c, now) {
		c.lastUsed = now
		if ch := p.popWaiterLocked(); ch != nil {
			// Ownership moves to the waiter; checkedOut is unchanged.
			c.checkedOut = true
			ch <- c
			p.mu.Unlock()
			return
		}
		if len(p.idle) < p.opts.MaxSize {
			p.checkedOut--
			p.idle = append(p.idle, c)
			p.mu.Unlock()
			return
		}
	}

	p.checkedOut--
	p.wakeOneLocked()
	p.mu.Unlock()

	p.discard(context.Background(), []*Conn{c})
}

// Status returns a snapshot of the pool counters.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		CheckedOut:   p.checkedOut,
		Idle:         len(p.idle),
		MinSize:      p.opts.MinSize,
		MaxSize:      p.opts.MaxSize,
		Waiting:      len(p.waiters),
		Created:      p.created.Load(),
		Discarded:    p.discarded.Load(),
		WaitCount:    p.waitCount.Load(),
		WaitDuration: time.Duration(p.waitNanos.Load()),
	}
}

// Created returns how many sessions the pool has opened.
func (p *Pool) Created() int64 {
	return p.created.Load()
}

// Close closes idle sessions and fails every waiter with errs.ErrPoolClosed.
// Conns still checked out are closed when released.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	for _, ch := range p.waiters {
		ch <- nil
	}
	p.waiters = nil
	p.mu.Unlock()

	var closeErr error
	for _, c := range idle {
		p.discarded.Add(1)
		if err := c.close(ctx); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	p.log.Debug().Int("closed_idle", len(idle)).Msg("pool closed")
	return closeErr
}

func (p *Pool) create(ctx context.Context) (*Conn, error) {
	session, err := p.opener.Open(ctx)
	if err != nil {
		return nil, &errs.ConnectionCreateError{Err: err}
	}

	for _, stmt := range p.opts.Settings {
		if _, err := session.Exec(ctx, stmt); err != nil {
			_ = session.Close(context.WithoutCancel(ctx))
			return nil, &errs.ConnectionCreateError{Err: fmt.Errorf("apply session setting %q: %w", stmt, err)}
		}
	}

	c := newConn(p, session, slices.Clone(p.opts.Settings), p.now())
	c.checkedOut = true
	p.created.Add(1)
	p.log.Debug().Str("conn_id", c.ID).Msg("connection opened")
	return c, nil
}

// popIdleLocked pops the most recently used live conn. Expired conns found
// on the way are removed and returned for closing outside the lock.
func (p *Pool) popIdleLocked() (*Conn, []*Conn) {
	var stale []*Conn
	now := p.now()
	for len(p.idle) > 0 {
		last := len(p.idle) - 1
		c := p.idle[last]
		p.idle[last] = nil
		p.idle = p.idle[:last]
		if p.expired(c, now) || (p.opts.MaxIdleTime > 0 && now.Sub(c.lastUsed) >= p.opts.MaxIdleTime) {
			stale = append(stale, c)
			continue
		}
		return c, stale
	}
	return nil, stale
}

func (p *Pool) expired(c *Conn, now time.Time) bool {
	if !c.Alive() {
		return true
	}
	return p.opts.MaxLifetime > 0 && now.Sub(c.CreatedAt) >= p.opts.MaxLifetime
}

func (p *Pool) popWaiterLocked() chan *Conn {
	if len(p.waiters) == 0 {
		return nil
	}
	ch := p.waiters[0]
	p.waiters[0] = nil
	p.waiters = p.waiters[1:]
	return ch
}

// wakeOneLocked tells the oldest waiter that a slot is free.
func (p *Pool) wakeOneLocked() {
	if ch := p.popWaiterLocked(); ch != nil {
		ch <- nil
	}
}

// abandon removes a waiter that gave up. If a release already reached it,
// the handed conn goes back to the pool and a wake-up is passed on.
func (p *Pool) abandon(ch chan *Conn) {
	p.mu.Lock()
	if i := slices.Index(p.waiters, ch); i >= 0 {
		p.waiters = slices.Delete(p.waiters, i, i+1)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if c := <-ch; c != nil {
		p.Release(c)
		return
	}
	p.mu.Lock()
	p.wakeOneLocked()
	p.mu.Unlock()
}

func (p *Pool) discard(ctx context.Context, conns []*Conn) {
	for _, c := range conns {
		p.discarded.Add(1)
		if err := c.close(context.WithoutCancel(ctx)); err != nil {
			p.log.Debug().Err(err).Str("conn_id", c.ID).Msg("close discarded connection")
		}
	}
}
