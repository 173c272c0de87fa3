package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
)

// Conn is a pooled storage session. It belongs either to the pool or to
// exactly one caller between Acquire and Release.
type Conn struct {
	ID        string
	CreatedAt time.Time
	// Settings are the session statements applied when the conn was opened.
	Settings []string

	session database.Session
	pool    *Pool

	// guarded by pool.mu
	lastUsed   time.Time
	checkedOut bool

	broken atomic.Bool
}

func newConn(p *Pool, session database.Session, settings []string, now time.Time) *Conn {
	return &Conn{
		ID:        ulid.Make().String(),
		CreatedAt: now,
		Settings:  settings,
		session:   session,
		pool:      p,
		lastUsed:  now,
	}
}

// Session returns the underlying storage session.
func (c *Conn) Session() database.Session {
	return c.session
}

// Alive reports whether the conn can be handed out again.
func (c *Conn) Alive() bool {
	return !c.broken.Load() && !c.session.IsClosed()
}

// MarkBroken makes the pool discard the conn on release.
func (c *Conn) MarkBroken() {
	c.broken.Store(true)
}

func (c *Conn) close(ctx context.Context) error {
	return c.session.Close(ctx)
}
