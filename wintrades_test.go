package wintrades

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zakwanzambri/wintradesgo-sub004/config"
	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/database/dbtest"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memProvider struct {
	db *dbtest.Engine
}

func (p memProvider) Open(ctx context.Context, _ connector.Config, _ connector.OpenOptions) (database.Session, error) {
	return p.db.Open(ctx)
}

func (memProvider) Dialect() dialect.Dialect { return dialect.NewPostgresDialect() }

func testConfig(driver string) *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = driver
	cfg.Database.Pool.MinSize = 1
	cfg.Database.Pool.MaxSize = 2
	return &cfg
}

func TestOpen_WiresComponents(t *testing.T) {
	db := dbtest.New()
	db.OnQuery = func(string, []any) (*dbtest.ResultSet, error) {
		return &dbtest.ResultSet{Columns: []string{"symbol"}, Rows: [][]any{{"BTCUSDT"}}}, nil
	}
	connector.Register("mem-open", memProvider{db: db})

	ctx := context.Background()
	e, err := Open(ctx, testConfig("mem-open"), zerolog.Nop())
	require.NoError(t, err)

	// prefill ran the session settings on the only session
	assert.Equal(t, 1, db.Opened())
	var settings int
	for _, st := range db.Executed() {
		if strings.HasPrefix(st.SQL, "SET ") {
			settings++
		}
	}
	assert.Equal(t, 2, settings)

	for range 3 {
		rows, err := e.SelectCached(ctx, "SELECT symbol FROM symbols", nil, "symbols_all", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, []database.Row{{"symbol": "BTCUSDT"}}, rows)
	}

	stats := e.PerformanceStats()
	assert.Equal(t, int64(2), stats.Cache.Hits)
	assert.Equal(t, 2, stats.Pool.MaxSize)
	require.Len(t, stats.Queries, 1)
	assert.Equal(t, int64(1), stats.Queries[0].Executions)

	require.NoError(t, e.Close(ctx))
	assert.Equal(t, 1, db.Closed())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), testConfig("mem-missing"), zerolog.Nop())
	assert.ErrorContains(t, err, "not registered")
}

func TestOpen_PrefillFailure(t *testing.T) {
	db := dbtest.New()
	db.OnOpen = func(int) error { return assert.AnError }
	connector.Register("mem-down", memProvider{db: db})

	cfg := testConfig("mem-down")
	cfg.Database.Username = "trader"
	cfg.Database.Password = "s3cret"

	_, err := Open(context.Background(), cfg, zerolog.Nop())
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "xxxxx")
	assert.NotContains(t, err.Error(), "s3cret")
}
