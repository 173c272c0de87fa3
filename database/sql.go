package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// SqlSession implements Session on top of database/sql. Each session owns a
// dedicated *sql.DB capped at one connection and pins that connection, so the
// outer pool stays the only place sessions are bounded and reused.
type SqlSession struct {
	db     *sql.DB
	conn   *sql.Conn
	broken atomic.Bool
}

// OpenSqlSession opens a single-connection session from a driver connector.
func OpenSqlSession(ctx context.Context, connector driver.Connector) (*SqlSession, error) {
	return newSqlSession(ctx, sql.OpenDB(connector))
}

func newSqlSession(ctx context.Context, db *sql.DB) (*SqlSession, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SqlSession{db: db, conn: conn}, nil
}

// Query executes a query that returns rows.
func (s *SqlSession) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.track(err)
	}
	return &SqlRows{rows: rows}, nil
}

// Exec executes a statement without returning rows.
func (s *SqlSession) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, s.track(err)
	}
	return res, nil // database/sql.Result implements Result
}

// Begin starts a transaction on the pinned connection.
func (s *SqlSession) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.track(err)
	}
	return &SqlTx{tx: tx, session: s}, nil
}

// Ping verifies the connection is alive.
func (s *SqlSession) Ping(ctx context.Context) error {
	return s.track(s.conn.PingContext(ctx))
}

// IsClosed reports whether the session was closed or the driver flagged the
// connection as bad.
func (s *SqlSession) IsClosed() bool {
	return s.broken.Load()
}

// Close releases the pinned connection and the owning *sql.DB.
func (s *SqlSession) Close(context.Context) error {
	s.broken.Store(true)
	return errors.Join(s.conn.Close(), s.db.Close())
}

func (s *SqlSession) track(err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		s.broken.Store(true)
	}
	return err
}

// SqlTx implements Tx for *sql.Tx.
type SqlTx struct {
	tx      *sql.Tx
	session *SqlSession
}

func (t *SqlTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, t.session.track(err)
	}
	return &SqlRows{rows: rows}, nil
}

func (t *SqlTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, t.session.track(err)
	}
	return res, nil
}

func (t *SqlTx) Commit(context.Context) error   { return t.session.track(t.tx.Commit()) }
func (t *SqlTx) Rollback(context.Context) error { return t.session.track(t.tx.Rollback()) }

// SqlRows implements Rows for *sql.Rows.
type SqlRows struct {
	rows    *sql.Rows
	cols    []string
	dbTypes []string
}

// Next prepares the next result row for reading.
func (s *SqlRows) Next() bool { return s.rows.Next() }

// Err returns any error hit during iteration.
func (s *SqlRows) Err() error { return s.rows.Err() }

// Close closes the rows iterator.
func (s *SqlRows) Close() error { return s.rows.Close() }

// Columns returns the column names.
func (s *SqlRows) Columns() ([]string, error) {
	if s.cols != nil {
		return s.cols, nil
	}
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, err
	}
	s.cols = cols
	return cols, nil
}

// Values scans the current row. Text-encoded values are decoded by column
// type so rows match what the pgx session returns.
func (s *SqlRows) Values() ([]any, error) {
	cols, err := s.Columns()
	if err != nil {
		return nil, err
	}
	if s.dbTypes == nil {
		if s.dbTypes, err = s.databaseTypes(len(cols)); err != nil {
			return nil, err
		}
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		vals[i] = decodeText(s.dbTypes[i], v)
	}
	return vals, nil
}

func (s *SqlRows) databaseTypes(n int) ([]string, error) {
	types, err := s.rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if i < len(types) {
			out[i] = strings.ToUpper(types[i].DatabaseTypeName())
		}
	}
	return out, nil
}

// decodeText converts the []byte a driver returns for a text-format column.
// Binary columns and columns of unknown type keep their bytes.
func decodeText(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch dbType {
	case "", "BYTEA", "BLOB", "BINARY", "VARBINARY":
		return b
	case "NUMERIC", "DECIMAL":
		if d, err := decimal.NewFromString(string(b)); err == nil {
			return d
		}
		// NaN and infinities have no decimal form.
		return string(b)
	default:
		return string(b)
	}
}

var (
	_ Session = (*SqlSession)(nil)
	_ Tx      = (*SqlTx)(nil)
)
