// Package dbtest provides a scriptable in-memory storage engine for tests.
//
// It does not interpret SQL. Tests script answers through OnQuery/OnExec and
// then inspect what was executed, committed and rolled back:
//
//	eng := dbtest.New()
//	eng.OnQuery = func(q string, args []any) (*dbtest.ResultSet, error) {
//		return &dbtest.ResultSet{Columns: []string{"id"}, Rows: [][]any{{int64(1)}}}, nil
//	}
//	p, _ := pool.New(ctx, eng, pool.Options{MaxSize: 2})
package dbtest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("dbtest: transaction already finished")

// ErrSessionClosed is returned by a closed or killed session.
var ErrSessionClosed = errors.New("dbtest: session closed")

// ResultSet is a scripted query answer.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Statement is one executed statement.
type Statement struct {
	Session int
	SQL     string
	Args    []any
	InTx    bool
}

// Engine is an in-memory stand-in for a storage engine.
// Hooks must be set before the engine is shared between goroutines.
type Engine struct {
	// OnOpen is called with the 1-based open attempt; a non-nil error fails it.
	OnOpen func(attempt int) error
	// OnQuery answers Query. A nil hook or nil ResultSet yields no rows.
	OnQuery func(query string, args []any) (*ResultSet, error)
	// OnExec answers Exec. A nil hook reports zero rows affected.
	OnExec func(query string, args []any) (int64, error)
	// OnCommit can fail a commit; the transaction then counts as rolled back.
	OnCommit func(session int) error

	mu        sync.Mutex
	attempts  int
	opened    int
	closed    int
	executed  []Statement
	committed []Statement
	commits   int
	rollbacks int
	sessions  []*Session
}

// New returns an engine with no scripted answers.
func New() *Engine {
	return &Engine{}
}

// Open implements database.Opener.
func (e *Engine) Open(ctx context.Context) (database.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.attempts++
	attempt := e.attempts
	e.mu.Unlock()

	if e.OnOpen != nil {
		if err := e.OnOpen(attempt); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened++
	s := &Session{id: e.opened, engine: e}
	e.sessions = append(e.sessions, s)
	return s, nil
}

// Opened returns the number of sessions successfully opened.
func (e *Engine) Opened() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened
}

// Closed returns the number of sessions closed.
func (e *Engine) Closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Executed returns every statement run, in order.
func (e *Engine) Executed() []Statement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Statement(nil), e.executed...)
}

// Committed returns statements that became durable: autocommit statements and
// statements of committed transactions.
func (e *Engine) Committed() []Statement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Statement(nil), e.committed...)
}

// Commits returns the number of committed transactions.
func (e *Engine) Commits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commits
}

// Rollbacks returns the number of rolled back transactions.
func (e *Engine) Rollbacks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rollbacks
}

// Session returns the n-th opened session (1-based), or nil.
func (e *Engine) Session(n int) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 || n > len(e.sessions) {
		return nil
	}
	return e.sessions[n-1]
}

func (e *Engine) record(st Statement, durable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, st)
	if durable {
		e.committed = append(e.committed, st)
	}
}

func (e *Engine) query(st Statement) (database.Rows, error) {
	if e.OnQuery == nil {
		return &sliceRows{}, nil
	}
	rs, err := e.OnQuery(st.SQL, st.Args)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return &sliceRows{}, nil
	}
	return &sliceRows{cols: rs.Columns, rows: rs.Rows}, nil
}

func (e *Engine) exec(st Statement) (database.Result, error) {
	if e.OnExec == nil {
		return result(0), nil
	}
	n, err := e.OnExec(st.SQL, st.Args)
	if err != nil {
		return nil, err
	}
	return result(n), nil
}

// Session is one scripted session.
type Session struct {
	id       int
	engine   *Engine
	closed   atomic.Bool
	released atomic.Bool
}

// ID returns the 1-based session number.
func (s *Session) ID() int { return s.id }

// Kill marks the session broken, as if the server dropped it.
func (s *Session) Kill() { s.closed.Store(true) }

func (s *Session) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	st := Statement{Session: s.id, SQL: query, Args: slices.Clone(args)}
	s.engine.record(st, true)
	return s.engine.query(st)
}

func (s *Session) Exec(_ context.Context, query string, args ...any) (database.Result, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	st := Statement{Session: s.id, SQL: query, Args: slices.Clone(args)}
	res, err := s.engine.exec(st)
	s.engine.record(st, err == nil)
	return res, err
}

func (s *Session) Begin(context.Context) (database.Tx, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return &Tx{session: s}, nil
}

func (s *Session) Ping(context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) IsClosed() bool { return s.closed.Load() }

func (s *Session) Close(context.Context) error {
	s.closed.Store(true)
	if s.released.Swap(true) {
		return nil
	}
	s.engine.mu.Lock()
	s.engine.closed++
	s.engine.mu.Unlock()
	return nil
}

// Tx buffers statements until commit.
type Tx struct {
	session *Session
	pending []Statement
	done    bool
}

func (t *Tx) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	if t.done {
		return nil, ErrTxDone
	}
	if t.session.closed.Load() {
		return nil, ErrSessionClosed
	}
	st := Statement{Session: t.session.id, SQL: query, Args: slices.Clone(args), InTx: true}
	t.session.engine.record(st, false)
	t.pending = append(t.pending, st)
	return t.session.engine.query(st)
}

func (t *Tx) Exec(_ context.Context, query string, args ...any) (database.Result, error) {
	if t.done {
		return nil, ErrTxDone
	}
	if t.session.closed.Load() {
		return nil, ErrSessionClosed
	}
	st := Statement{Session: t.session.id, SQL: query, Args: slices.Clone(args), InTx: true}
	res, err := t.session.engine.exec(st)
	t.session.engine.record(st, false)
	if err == nil {
		t.pending = append(t.pending, st)
	}
	return res, err
}

func (t *Tx) Commit(context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	e := t.session.engine
	if e.OnCommit != nil {
		if err := e.OnCommit(t.session.id); err != nil {
			e.mu.Lock()
			e.rollbacks++
			e.mu.Unlock()
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commits++
	e.committed = append(e.committed, t.pending...)
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	e := t.session.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollbacks++
	return nil
}

type result int64

func (r result) RowsAffected() (int64, error) { return int64(r), nil }

type sliceRows struct {
	cols []string
	rows [][]any
	pos  int
}

func (r *sliceRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Values() ([]any, error) {
	if r.pos == 0 || r.pos > len(r.rows) {
		return nil, errors.New("dbtest: Values called without Next")
	}
	return r.rows[r.pos-1], nil
}

func (r *sliceRows) Columns() ([]string, error) { return r.cols, nil }
func (r *sliceRows) Err() error                 { return nil }
func (r *sliceRows) Close() error               { return nil }

var (
	_ database.Opener  = (*Engine)(nil)
	_ database.Session = (*Session)(nil)
	_ database.Tx      = (*Tx)(nil)
)
