package engine

import (
	"context"
	"errors"

	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/errs"
	"github.com/zakwanzambri/wintradesgo-sub004/pool"
)

// acquire takes a conn from the pool, retrying when a new session could
// not be opened.
func (e *Engine) acquire(ctx context.Context) (*pool.Conn, error) {
	var conn *pool.Conn
	err := connector.RetryIf(ctx, e.opts.Retry, errs.IsRetryable, func(ctx context.Context) error {
		var err error
		conn, err = e.pool.Acquire(ctx)
		if err != nil && errs.IsRetryable(err) {
			e.log.Warn().Err(err).Msg("acquire connection")
		}
		return err
	})
	return conn, err
}

// withConn runs fn with a pooled conn and releases it on every exit path.
// A panicking fn leaves the session in an unknown state, so it is discarded.
func (e *Engine) withConn(ctx context.Context, fn func(*pool.Conn) error) error {
	conn, err := e.acquire(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			conn.MarkBroken()
			e.pool.Release(conn)
			panic(r)
		}
		e.pool.Release(conn)
	}()

	return fn(conn)
}

// inTx runs fn inside a transaction on conn. The transaction is committed
// when fn succeeds and rolled back otherwise; a failed rollback is joined
// to the returned error and the conn is discarded.
func (e *Engine) inTx(ctx context.Context, conn *pool.Conn, fn func(database.Tx) error) (err error) {
	tx, err := conn.Session().Begin(ctx)
	if err != nil {
		return &errs.TransactionError{Op: errs.TxBegin, Err: err}
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			conn.MarkBroken()
			err = errors.Join(err, &errs.TransactionError{Op: errs.TxRollback, Err: rbErr})
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	finished = true
	if err = tx.Commit(ctx); err != nil {
		return &errs.TransactionError{Op: errs.TxCommit, Err: err}
	}
	return nil
}
