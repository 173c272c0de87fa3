package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name   string
		dbType string
		in     any
		want   any
	}{
		{"numeric", "NUMERIC", []byte("1500.25"), decimal.RequireFromString("1500.25")},
		{"numeric NaN", "NUMERIC", []byte("NaN"), "NaN"},
		{"decimal", "DECIMAL", []byte("-3"), decimal.NewFromInt(-3)},
		{"text", "TEXT", []byte("BTCUSDT"), "BTCUSDT"},
		{"uuid", "UUID", []byte("0b5c6c39-3d4e-4b7a-9d1f-2a51a0c1e7f4"), "0b5c6c39-3d4e-4b7a-9d1f-2a51a0c1e7f4"},
		{"bytea", "BYTEA", []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		{"unknown type", "", []byte("raw"), []byte("raw")},
		{"already decoded", "INT8", int64(4), int64(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeText(tt.dbType, tt.in))
		})
	}
}

func TestSqlSession_RowsMatchPgxShape(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	rows := sqlmock.NewRowsWithColumnDefinition(
		mock.NewColumn("symbol").OfType("TEXT", ""),
		mock.NewColumn("balance").OfType("NUMERIC", []byte{}),
		mock.NewColumn("qty").OfType("INT8", int64(0)),
	).AddRow([]byte("BTCUSDT"), []byte("1500.25"), int64(3))
	mock.ExpectQuery("SELECT symbol, balance, qty FROM portfolios WHERE user_id = $1").
		WithArgs(int64(42)).
		WillReturnRows(rows)
	mock.ExpectClose()

	ctx := context.Background()
	s, err := newSqlSession(ctx, mockDB)
	require.NoError(t, err)

	result, err := s.Query(ctx, "SELECT symbol, balance, qty FROM portfolios WHERE user_id = $1", int64(42))
	require.NoError(t, err)
	got, err := CollectRows(result)
	require.NoError(t, err)

	assert.Equal(t, []Row{{
		"symbol":  "BTCUSDT",
		"balance": decimal.RequireFromString("1500.25"),
		"qty":     int64(3),
	}}, got)

	require.NoError(t, s.Close(ctx))
	assert.True(t, s.IsClosed())
	assert.NoError(t, mock.ExpectationsWereMet())
}
