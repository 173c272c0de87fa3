package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zakwanzambri/wintradesgo-sub004/database"
	"github.com/zakwanzambri/wintradesgo-sub004/dialect"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func quoteList(d dialect.Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// insertLabel names a batch insert for statistics independently of how many
// rows the chunk carries.
func insertLabel(d dialect.Dialect, table string, cols []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ...", d.QuoteIdentifier(table), quoteList(d, cols))
}

// buildInsert renders one multi-row INSERT for rows and appends its
// arguments, row by row in column order, to args.
func buildInsert(d dialect.Dialect, table string, cols []string, rows []database.Row, args []any) (string, []any) {
	var sb strings.Builder
	sb.Grow(32 + len(rows)*len(cols)*6)

	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.QuoteIdentifier(table))
	sb.WriteString(" (")
	sb.WriteString(quoteList(d, cols))
	sb.WriteString(") VALUES ")

	n := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, col := range cols {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(n))
			n++
			args = append(args, row[col])
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}

// buildLockSelect renders SELECT <id> FROM <table> WHERE <id> = $1 FOR UPDATE.
func buildLockSelect(d dialect.Dialect, table, idCol string) string {
	id := d.QuoteIdentifier(idCol)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s %s",
		id, d.QuoteIdentifier(table), id, d.Placeholder(1), d.LockClause())
}

// buildUpdate renders UPDATE <table> SET ... WHERE <id> = $n with cols in
// the given order and the id as the last argument.
func buildUpdate(d dialect.Dialect, table, idCol string, cols []string, changes map[string]any, id any) (string, []any) {
	args := make([]any, 0, len(cols)+1)
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = d.QuoteIdentifier(col) + " = " + d.Placeholder(i+1)
		args = append(args, changes[col])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QuoteIdentifier(table), strings.Join(sets, ", "), d.QuoteIdentifier(idCol), d.Placeholder(len(cols)+1))
	return query, args
}
