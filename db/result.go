package db

import (
	"context"
	"database/sql"

	"github.com/maxpert/mylite/catalog"
)

// Result is the outcome of one Query call. Columns and Rows are set for
// statements that return rows.
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
	LastInsertID int64
}

// Maps returns the rows keyed by column name. A later column wins over an
// earlier one with the same name.
func (r *Result) Maps() []map[string]any {
	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			m[col] = row[i]
		}
		out = append(out, m)
	}
	return out
}

// ExecutedQuery is one SQLite statement as it was sent to the database.
type ExecutedQuery struct {
	SQL    string
	Params []any
}

// queryLog keeps the statements of the most recent call.
type queryLog struct {
	limit   int
	entries []ExecutedQuery
}

func (l *queryLog) reset() {
	l.entries = nil
}

func (l *queryLog) add(query string, args []any) {
	l.entries = append(l.entries, ExecutedQuery{SQL: query, Params: args})
	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
}

func (l *queryLog) snapshot() []ExecutedQuery {
	out := make([]ExecutedQuery, len(l.entries))
	copy(out, l.entries)
	return out
}

// loggedExecutor records every statement before running it on the
// connection.
type loggedExecutor struct {
	conn *sql.Conn
	log  *queryLog
}

var _ catalog.Executor = (*loggedExecutor)(nil)

func (e *loggedExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	e.log.add(query, args)
	return e.conn.ExecContext(ctx, query, args...)
}

func (e *loggedExecutor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	e.log.add(query, args)
	return e.conn.QueryContext(ctx, query, args...)
}
