package connector

import (
	"context"
	"fmt"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
)

// Connector opens sessions for one configured database. It implements
// database.Opener and is what the pool dials through.
type Connector struct {
	provider Provider
	config   Config
	opts     OpenOptions
}

// Open opens one session, bounded by Config.ConnectTimeout.
func (c *Connector) Open(ctx context.Context) (database.Session, error) {
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	s, err := c.provider.Open(ctx, c.config, c.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: open session on %s:%d: %w", c.config.Driver, c.config.Host, c.config.Port, err)
	}
	return s, nil
}

func (c *Connector) Dialect() dialect.Dialect {
	return c.provider.Dialect()
}

// SessionSettings returns the statements every new session must run.
func (c *Connector) SessionSettings() []string {
	return c.provider.Dialect().SessionSettings(dialect.Settings{
		IsolationLevel:   c.config.Session.IsolationLevel,
		StatementTimeout: c.config.Session.StatementTimeout,
	})
}

var _ database.Opener = (*Connector)(nil)
