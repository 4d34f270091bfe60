// Package sqlutil has small helpers shared by code talking to the SQLite
// parse cache.
package sqlutil

import (
	"database/sql"
	"strings"
)

// InClauseArgs builds the placeholder list and argument slice for a SQL IN
// clause over items.
//
// If items is empty, it returns "NULL" and no args, so `IN (NULL)` matches
// no rows.
func InClauseArgs(items []string) (placeholders string, args []any) {
	if len(items) == 0 {
		return "NULL", nil
	}
	ph := make([]string, len(items))
	args = make([]any, len(items))
	for i, item := range items {
		ph[i] = "?"
		args[i] = item
	}
	return strings.Join(ph, ", "), args
}

// ScanRows drains rows through scan and closes them, returning the collected
// values or the first scan or iteration error.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
