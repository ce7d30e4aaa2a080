package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

var testClock = func() time.Time {
	return time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)
}

// openTestConn opens a private in-memory database with the catalog tables.
func openTestConn(t *testing.T) *sql.Conn {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, EnsureSchema(context.Background(), conn))
	return conn
}

func newTestBuilder() *Builder {
	return NewBuilder("wordpress", NewTypeCache()).WithClock(testClock)
}

func execAll(t *testing.T, conn *sql.Conn, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		_, err := conn.ExecContext(context.Background(), s)
		require.NoError(t, err, s)
	}
}

var catalogTables = []string{
	TablesTable,
	ColumnsTable,
	StatisticsTable,
	TableConstraintsTable,
	KeyColumnUsageTable,
	ReferentialConstraintsTable,
	CheckConstraintsTable,
	TypeCacheTable,
}

// dumpCatalog returns every catalog row rendered as text, sorted per table.
func dumpCatalog(t *testing.T, conn *sql.Conn) map[string][]string {
	t.Helper()
	out := map[string][]string{}
	for _, table := range catalogTables {
		rows, err := conn.QueryContext(context.Background(), "SELECT * FROM "+table)
		require.NoError(t, err)
		cols, err := rows.Columns()
		require.NoError(t, err)
		var lines []string
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			require.NoError(t, rows.Scan(ptrs...))
			parts := make([]string, len(cols))
			for i, v := range vals {
				if b, ok := v.([]byte); ok {
					v = string(b)
				}
				parts[i] = fmt.Sprintf("%s=%v", cols[i], v)
			}
			lines = append(lines, strings.Join(parts, " "))
		}
		require.NoError(t, rows.Err())
		rows.Close()
		sort.Strings(lines)
		out[table] = lines
	}
	return out
}

// clearCatalog deletes the catalog rows but keeps the type cache.
func clearCatalog(t *testing.T, conn *sql.Conn) {
	t.Helper()
	for _, table := range catalogTables {
		if table == TypeCacheTable {
			continue
		}
		execAll(t, conn, "DELETE FROM "+table)
	}
}
