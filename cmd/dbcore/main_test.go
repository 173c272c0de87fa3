package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakwanzambri/wintradesgo-sub004/connector"
	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/database/dbtest"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
	"github.com/zakwanzambri/wintradesgo-sub004/engine"
)

type memProvider struct {
	db *dbtest.Engine
}

func (p memProvider) Open(ctx context.Context, _ connector.Config, _ connector.OpenOptions) (database.Session, error) {
	return p.db.Open(ctx)
}

func (memProvider) Dialect() dialect.Dialect { return dialect.NewPostgresDialect() }

func useMemDriver(t *testing.T, name string) *dbtest.Engine {
	t.Helper()
	db := dbtest.New()
	db.OnQuery = func(string, []any) (*dbtest.ResultSet, error) {
		return &dbtest.ResultSet{Columns: []string{"ok"}, Rows: [][]any{{int64(1)}}}, nil
	}
	connector.Register(name, memProvider{db: db})
	t.Setenv("WINTRADES_DATABASE__DRIVER", name)
	t.Setenv("WINTRADES_LOG__LEVEL", "error")
	return db
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ping", "stats", "bench", "metrics"} {
		assert.True(t, names[want], want)
	}
}

func TestPing(t *testing.T) {
	useMemDriver(t, "mem-cli-ping")

	out, err := execute(t, "ping")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ok postgres://"), out)
}

func TestStats(t *testing.T) {
	db := useMemDriver(t, "mem-cli-stats")

	out, err := execute(t, "stats", "--query", "SELECT 1 AS ok", "--repeat", "3")
	require.NoError(t, err)

	var stats engine.PerformanceStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, int64(2), stats.Cache.Hits)
	assert.Equal(t, int64(1), stats.Cache.Misses)
	require.Len(t, stats.Queries, 1)
	assert.Equal(t, "SELECT 1 AS ok", stats.Queries[0].Query)
	assert.Equal(t, db.Opened(), db.Closed())
}

func TestBench(t *testing.T) {
	useMemDriver(t, "mem-cli-bench")

	out, err := execute(t, "bench", "--workers", "4", "--requests", "200", "--keys", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "requests=200 failures=0")
}

func TestBadConfig(t *testing.T) {
	t.Setenv("WINTRADES_LOG__LEVEL", "loud")

	_, err := execute(t, "ping")
	assert.ErrorContains(t, err, "validation")
}
