// Package pq registers the "pq" provider: database/sql sessions over lib/pq.
package pq

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
)

type Provider struct{}

func init() {
	connector.Register("pq", &Provider{})
}

func (p *Provider) Open(ctx context.Context, cfg connector.Config, _ connector.OpenOptions) (database.Session, error) {
	c, err := pq.NewConnector(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn %s: %w", cfg.RedactedDSN(), err)
	}
	return database.OpenSqlSession(ctx, c)
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}
