package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakwanzambri/wintradesgo-sub004/cache"
	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/database/dbtest"
	"github.com/zakwanzambri/wintradesgo-sub004/errs"
)

const portfolioQuery = "SELECT id, symbol FROM portfolios WHERE user_id = $1"

func portfolioDB() *dbtest.Engine {
	db := dbtest.New()
	db.OnQuery = func(q string, args []any) (*dbtest.ResultSet, error) {
		return &dbtest.ResultSet{
			Columns: []string{"id", "symbol"},
			Rows:    [][]any{{int32(1), "BTCUSDT"}, {int32(2), "ETHUSDT"}},
		}, nil
	}
	return db
}

func countSQL(db *dbtest.Engine, prefix string) int {
	n := 0
	for _, st := range db.Executed() {
		if strings.HasPrefix(st.SQL, prefix) {
			n++
		}
	}
	return n
}

func TestSelectCached_MissThenHit(t *testing.T) {
	f := newFixture(t, portfolioDB(), Options{})
	ctx := context.Background()
	want := []database.Row{
		{"id": int64(1), "symbol": "BTCUSDT"},
		{"id": int64(2), "symbol": "ETHUSDT"},
	}

	rows, err := f.engine.SelectCached(ctx, portfolioQuery, []any{int64(42)}, "portfolio_42", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, want, rows)

	rows, err = f.engine.SelectCached(ctx, portfolioQuery, []any{int64(42)}, "portfolio_42", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, want, rows)

	assert.Equal(t, 1, countSQL(f.db, "SELECT"))
	assert.Equal(t, []any{int64(42)}, f.db.Executed()[0].Args)

	cs := f.engine.CacheStats()
	assert.Equal(t, int64(1), cs.Hits)
	assert.Equal(t, int64(1), cs.Misses)

	qs := f.engine.PerformanceStats().Queries
	require.Len(t, qs, 1)
	assert.Equal(t, int64(1), qs[0].Executions)
	assert.Equal(t, int64(1), qs[0].CacheHits)
	assert.Equal(t, 0, f.engine.PoolStatus().CheckedOut)
}

func TestSelectCached_NoKeyNeverCaches(t *testing.T) {
	f := newFixture(t, portfolioDB(), Options{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.engine.SelectCached(ctx, portfolioQuery, []any{int64(1)}, "", 0)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, countSQL(f.db, "SELECT"))
	assert.Zero(t, f.cache.Len())
}

func TestSelectCached_EntryExpires(t *testing.T) {
	f := newFixture(t, portfolioDB(), Options{})
	ctx := context.Background()

	_, err := f.engine.SelectCached(ctx, portfolioQuery, nil, "portfolio_all", 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond)
	_, err = f.engine.SelectCached(ctx, portfolioQuery, nil, "portfolio_all", 50*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 2, countSQL(f.db, "SELECT"))
}

func TestSelectCached_DefaultTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	f := newFixtureWithCache(t, portfolioDB(), cache.Options{Capacity: 10, Now: clock.Now}, Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	_, err := f.engine.SelectCached(ctx, portfolioQuery, nil, "portfolio_all", 0)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	assert.True(t, f.cache.Has("portfolio_all"))
	clock.Advance(time.Second)
	assert.False(t, f.cache.Has("portfolio_all"))
}

func TestSelectCached_QueryError(t *testing.T) {
	db := dbtest.New()
	boom := errors.New("relation \"portfolios\" does not exist")
	db.OnQuery = func(string, []any) (*dbtest.ResultSet, error) { return nil, boom }
	f := newFixture(t, db, Options{})

	_, err := f.engine.SelectCached(context.Background(), portfolioQuery, nil, "portfolio_all", 0)

	assert.ErrorIs(t, err, boom)
	assert.False(t, f.cache.Has("portfolio_all"))
	assert.Equal(t, 0, f.engine.PoolStatus().CheckedOut)

	qs := f.engine.PerformanceStats().Queries
	require.Len(t, qs, 1)
	assert.Equal(t, int64(1), qs[0].Errors)
	assert.Zero(t, qs[0].Executions)
}

func TestSelectCached_CorruptEntryIsRefetched(t *testing.T) {
	f := newFixture(t, portfolioDB(), Options{})
	f.cache.Set("portfolio_all", []byte("not gob"), time.Minute)

	rows, err := f.engine.SelectCached(context.Background(), portfolioQuery, nil, "portfolio_all", time.Minute)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, countSQL(f.db, "SELECT"))

	_, err = f.engine.SelectCached(context.Background(), portfolioQuery, nil, "portfolio_all", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, countSQL(f.db, "SELECT"), "re-cached entry is served")
}

func TestSelectCached_RetriesConnectionCreate(t *testing.T) {
	db := portfolioDB()
	db.OnOpen = func(attempt int) error {
		if attempt == 1 {
			return errors.New("connection refused")
		}
		return nil
	}
	f := newFixture(t, db, Options{Retry: connector.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}})

	rows, err := f.engine.SelectCached(context.Background(), portfolioQuery, nil, "", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSelectCached_NoRetryByDefault(t *testing.T) {
	db := portfolioDB()
	db.OnOpen = func(int) error { return errors.New("connection refused") }
	f := newFixture(t, db, Options{})

	_, err := f.engine.SelectCached(context.Background(), portfolioQuery, nil, "", 0)

	var createErr *errs.ConnectionCreateError
	assert.ErrorAs(t, err, &createErr)
}
