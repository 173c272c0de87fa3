package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxSession implements Session for a single *pgx.Conn.
type PgxSession struct {
	conn *pgx.Conn
}

// NewPgxSession wraps an open pgx connection.
func NewPgxSession(conn *pgx.Conn) *PgxSession {
	return &PgxSession{conn: conn}
}

// Query executes a query that returns rows.
func (p *PgxSession) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

// Exec executes a statement without returning rows.
func (p *PgxSession) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	cmdTag, err := p.conn.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxResult{cmdTag: cmdTag}, nil
}

// Begin starts a transaction on this session.
func (p *PgxSession) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PgxTx{tx: tx}, nil
}

// Ping verifies the session is alive.
func (p *PgxSession) Ping(ctx context.Context) error {
	return p.conn.Ping(ctx)
}

// IsClosed reports whether the underlying connection is closed.
func (p *PgxSession) IsClosed() bool {
	return p.conn.IsClosed()
}

// Close closes the underlying connection.
func (p *PgxSession) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

// PgxTx implements Tx for pgx.Tx.
type PgxTx struct {
	tx pgx.Tx
}

func (t *PgxTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

func (t *PgxTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	cmdTag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxResult{cmdTag: cmdTag}, nil
}

func (t *PgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *PgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// PgxRows implements Rows for pgx.Rows.
type PgxRows struct {
	rows              pgx.Rows
	fieldDescriptions []pgconn.FieldDescription
}

// Next prepares the next result row for reading.
func (p *PgxRows) Next() bool { return p.rows.Next() }

// Values returns the decoded values of the current row.
func (p *PgxRows) Values() ([]any, error) { return p.rows.Values() }

// Err returns any error hit during iteration.
func (p *PgxRows) Err() error { return p.rows.Err() }

// Close closes the rows iterator.
func (p *PgxRows) Close() error { p.rows.Close(); return nil }

// Columns returns the column names.
func (p *PgxRows) Columns() ([]string, error) {
	if p.fieldDescriptions == nil {
		p.fieldDescriptions = p.rows.FieldDescriptions()
	}
	columns := make([]string, len(p.fieldDescriptions))
	for i, fd := range p.fieldDescriptions {
		columns[i] = fd.Name
	}
	return columns, nil
}

// PgxResult implements Result for pgx command tags.
type PgxResult struct {
	cmdTag pgconn.CommandTag
}

// RowsAffected returns the number of rows affected by the command.
func (r *PgxResult) RowsAffected() (int64, error) {
	return r.cmdTag.RowsAffected(), nil
}

var (
	_ Session = (*PgxSession)(nil)
	_ Tx      = (*PgxTx)(nil)
)
