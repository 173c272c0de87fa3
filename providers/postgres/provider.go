// Package postgres registers the pgx-backed providers: "pgx" (native
// protocol, *pgx.Conn) and "pgx-stdlib" (database/sql via pgx/stdlib).
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
	"github.com/zakwanzambri/wintradesgo-sub004/logger"
)

type Provider struct{}

type StdlibProvider struct{}

func init() {
	connector.Register("pgx", &Provider{})
	connector.Register("postgres", &Provider{})
	connector.Register("pgx-stdlib", &StdlibProvider{})
}

// ConnConfig parses the DSN of cfg and attaches the query tracer when
// statement logging is on.
func ConnConfig(cfg connector.Config, opts connector.OpenOptions) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn %s: %w", cfg.RedactedDSN(), err)
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}
	if opts.LogQueries {
		connCfg.Tracer = logger.NewPgxTracer(opts.Logger)
	}
	return connCfg, nil
}

func (p *Provider) Open(ctx context.Context, cfg connector.Config, opts connector.OpenOptions) (database.Session, error) {
	connCfg, err := ConnConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, err
	}
	return database.NewPgxSession(conn), nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}

func (p *StdlibProvider) Open(ctx context.Context, cfg connector.Config, opts connector.OpenOptions) (database.Session, error) {
	connCfg, err := ConnConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	return database.OpenSqlSession(ctx, stdlib.GetConnector(*connCfg))
}

func (p *StdlibProvider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}
