package dialect

import (
	"strings"
	"time"
)

// Dialect renders the engine-specific fragments the data-access core emits.
type Dialect interface {
	Name() string
	// QuoteIdentifier quotes a possibly schema-qualified identifier.
	QuoteIdentifier(name string) string
	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string
	// MaxParams is the most bind parameters a single statement may carry.
	MaxParams() int
	// LockClause is appended to a SELECT to take an exclusive row lock.
	LockClause() string
	// SessionSettings returns the statements that configure a new session.
	SessionSettings(s Settings) []string
}

// Settings are applied once to every new session.
type Settings struct {
	IsolationLevel   string
	StatementTimeout time.Duration
}

// isolationLevels maps accepted spellings to their SQL form.
var isolationLevels = map[string]string{
	"READ UNCOMMITTED": "READ UNCOMMITTED",
	"READ COMMITTED":   "READ COMMITTED",
	"REPEATABLE READ":  "REPEATABLE READ",
	"SERIALIZABLE":     "SERIALIZABLE",
}

// IsolationLevel normalizes "read_committed", "Read Committed" etc.
// It returns false for unknown levels.
func IsolationLevel(level string) (string, bool) {
	norm := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(level, "_", " ")), " "))
	sqlLevel, ok := isolationLevels[norm]
	return sqlLevel, ok
}

func quoteQualified(name string, quote string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote + strings.ReplaceAll(p, quote, quote+quote) + quote
	}
	return strings.Join(parts, ".")
}
