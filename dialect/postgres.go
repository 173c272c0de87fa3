package dialect

import (
	"strconv"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (p Postgres) Name() string { return "postgres" }

func (p Postgres) QuoteIdentifier(name string) string {
	return quoteQualified(name, `"`)
}

func (p Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// MaxParams is the wire protocol's int16 parameter count ceiling.
func (p Postgres) MaxParams() int { return 65535 }

func (p Postgres) LockClause() string { return "FOR UPDATE" }

func (p Postgres) SessionSettings(s Settings) []string {
	var stmts []string
	if level, ok := IsolationLevel(s.IsolationLevel); ok {
		stmts = append(stmts, "SET SESSION CHARACTERISTICS AS TRANSACTION ISOLATION LEVEL "+level)
	}
	if s.StatementTimeout > 0 {
		stmts = append(stmts, "SET statement_timeout = "+strconv.FormatInt(s.StatementTimeout.Milliseconds(), 10))
	}
	return stmts
}
