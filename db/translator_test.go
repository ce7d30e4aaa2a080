package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/cfg"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/parser"
	"github.com/maxpert/mylite/protocol/query/transform"
)

func testConfig(t *testing.T) *cfg.Configuration {
	conf := cfg.Default()
	conf.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	return conf
}

func openTranslator(t *testing.T, conf *cfg.Configuration) *Translator {
	t.Helper()
	if conf == nil {
		conf = testConfig(t)
	}
	tr, err := Open(context.Background(), conf)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func mustQuery(t *testing.T, tr *Translator, query string, params ...any) *Result {
	t.Helper()
	res, err := tr.Query(context.Background(), query, params...)
	require.NoError(t, err, query)
	return res
}

// value returns the first column of the first row with text as string.
func value(t *testing.T, tr *Translator, query string, params ...any) any {
	t.Helper()
	res := mustQuery(t, tr, query, params...)
	require.NotEmpty(t, res.Rows, query)
	if b, ok := res.Rows[0][0].([]byte); ok {
		return string(b)
	}
	return res.Rows[0][0]
}

// nativeCount counts rows directly on the translator's connection.
func nativeCount(t *testing.T, tr *Translator, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, tr.conn.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func executedSQL(tr *Translator) []string {
	var out []string
	for _, q := range tr.LastQueries() {
		out = append(out, q.SQL)
	}
	return out
}

func containsSQL(stmts []string, fragment string) bool {
	for _, s := range stmts {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

func mysqlCode(t *testing.T, err error) uint16 {
	t.Helper()
	var mysqlErr *protocol.MySQLError
	require.True(t, errors.As(err, &mysqlErr), "expected MySQL error, got %v", err)
	return mysqlErr.Code
}

func TestCreateTableAutoIncrement(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT)")

	assert.True(t, containsSQL(executedSQL(tr), "CREATE TABLE `t` (`id` INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT)"),
		"%v", executedSQL(tr))

	assert.Equal(t, int64(1), nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.TablesTable+" WHERE table_name = 't'"))
	assert.Equal(t, int64(1), nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.ColumnsTable+
		" WHERE table_name = 't' AND column_key = 'PRI' AND extra = 'auto_increment'"))
	assert.Equal(t, int64(0), nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.StatisticsTable+" WHERE table_name = 't'"))
}

func TestInsertValuesForms(t *testing.T) {
	tests := []struct {
		name     string
		mode     cfg.Mode
		fragment string
	}{
		{"named columns", cfg.ModeOn, "WHERE true"},
		{"placeholder row", cfg.ModeOff, "WHERE FALSE UNION ALL VALUES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := testConfig(t)
			conf.SQLite.ValuesColumnNames = tt.mode
			tr := openTranslator(t, conf)

			mustQuery(t, tr, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, c INT)")
			res := mustQuery(t, tr, "INSERT INTO t (c) VALUES (1), (2)")
			assert.Equal(t, int64(2), res.RowsAffected)
			assert.Equal(t, int64(2), res.LastInsertID)

			stmts := executedSQL(tr)
			require.Len(t, stmts, 1)
			assert.Contains(t, stmts[0], "column1")
			assert.Contains(t, stmts[0], tt.fragment)
			assert.Equal(t, int64(2), value(t, tr, "SELECT COUNT(*) FROM t"))
		})
	}
}

func TestScriptStatementsCommitIndividually(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE a (id INT PRIMARY KEY)")

	_, err := tr.Query(context.Background(), "INSERT INTO a (id) VALUES (1); INSERT INTO a (id) VALUES (1); INSERT INTO a (id) VALUES (2)")
	require.Error(t, err)
	assert.Equal(t, protocol.ErrCodeDupEntry, mysqlCode(t, err))
	assert.Equal(t, int64(1), nativeCount(t, tr, "SELECT COUNT(*) FROM a"))
	assert.Equal(t, 0, tr.Depth())
}

func TestMultiTableUpdate(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE t1 (id INT, c INT)")
	mustQuery(t, tr, "CREATE TABLE t2 (c INT)")
	mustQuery(t, tr, "INSERT INTO t1 (id, c) VALUES (10, 1), (20, 2), (30, 3)")
	mustQuery(t, tr, "INSERT INTO t2 (c) VALUES (1), (3)")

	res := mustQuery(t, tr, "UPDATE t1, t2 SET t1.id = 1 WHERE t1.c = t2.c")
	assert.Equal(t, int64(2), res.RowsAffected)
	stmts := executedSQL(tr)
	require.Len(t, stmts, 1)
	assert.True(t, strings.HasPrefix(stmts[0], "UPDATE"))
	assert.Contains(t, stmts[0], "FROM")

	rows := mustQuery(t, tr, "SELECT id FROM t1 ORDER BY c").Rows
	assert.Equal(t, [][]any{{int64(1)}, {int64(20)}, {int64(1)}}, rows)
	assert.Equal(t, int64(2), value(t, tr, "SELECT COUNT(*) FROM t2"))
}

func TestMultiTableDelete(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE a (id INT, c INT)")
	mustQuery(t, tr, "CREATE TABLE b (c INT)")
	mustQuery(t, tr, "INSERT INTO a (id, c) VALUES (1, 1), (2, 1), (3, 2)")
	mustQuery(t, tr, "INSERT INTO b (c) VALUES (1), (2)")

	res := mustQuery(t, tr, "DELETE a, b FROM a JOIN b ON a.c = b.c WHERE a.c = 1")
	assert.Equal(t, int64(3), res.RowsAffected)
	assert.True(t, containsSQL(executedSQL(tr), "CREATE TEMP TABLE"))

	assert.Equal(t, int64(1), value(t, tr, "SELECT COUNT(*) FROM a"))
	assert.Equal(t, int64(1), value(t, tr, "SELECT COUNT(*) FROM b"))
}

func TestAlterTable(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE t (id INT PRIMARY KEY, v INT)")
	mustQuery(t, tr, "INSERT INTO t (id, v) VALUES (1, 5), (2, 5)")

	mustQuery(t, tr, "ALTER TABLE t ADD COLUMN w INT NOT NULL DEFAULT 7")
	assert.Equal(t, int64(7), value(t, tr, "SELECT w FROM t WHERE id = 2"))
	assert.Equal(t, int64(3), nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.ColumnsTable+" WHERE table_name = 't'"))
	assert.Equal(t, 0, tr.Depth())
}

func TestAlterTableIsAtomic(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE t (id INT PRIMARY KEY, v INT)")
	mustQuery(t, tr, "INSERT INTO t (id, v) VALUES (1, 5), (2, 5)")
	before := nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.ColumnsTable+" WHERE table_name = 't'")

	_, err := tr.Query(context.Background(), "ALTER TABLE t ADD COLUMN w INT, ADD UNIQUE KEY uv (v)")
	require.Error(t, err)
	assert.Equal(t, protocol.ErrCodeDupEntry, mysqlCode(t, err))

	_, err = tr.Query(context.Background(), "SELECT w FROM t")
	require.Error(t, err)
	assert.Equal(t, before, nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.ColumnsTable+" WHERE table_name = 't'"))
	assert.Equal(t, int64(0), nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.StatisticsTable+" WHERE table_name = 't'"))
	assert.Equal(t, int64(2), value(t, tr, "SELECT COUNT(*) FROM t"))
	assert.Equal(t, 0, tr.Depth())
}

func TestTransactionNesting(t *testing.T) {
	ctx := context.Background()
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE t (id INT)")

	require.NoError(t, tr.Begin(ctx))
	mustQuery(t, tr, "INSERT INTO t (id) VALUES (1)")
	require.NoError(t, tr.Begin(ctx))
	assert.Equal(t, []string{"SAVEPOINT LEVEL1"}, executedSQL(tr))
	assert.Equal(t, 2, tr.Depth())
	mustQuery(t, tr, "INSERT INTO t (id) VALUES (2)")

	require.NoError(t, tr.Rollback(ctx))
	assert.Equal(t, []string{"ROLLBACK TO SAVEPOINT LEVEL1", "RELEASE SAVEPOINT LEVEL1"}, executedSQL(tr))
	require.NoError(t, tr.Commit(ctx))
	assert.Equal(t, []string{"COMMIT"}, executedSQL(tr))

	assert.Equal(t, [][]any{{int64(1)}}, mustQuery(t, tr, "SELECT id FROM t").Rows)
}

func TestTransactionStateErrors(t *testing.T) {
	ctx := context.Background()
	tr := openTranslator(t, nil)

	err := tr.Commit(ctx)
	assert.ErrorIs(t, err, ErrNoneActive)
	var stateErr *TransactionStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, NoneActive, stateErr.State)
	assert.Equal(t, "There is no active transaction", err.Error())

	assert.ErrorIs(t, tr.Rollback(ctx), ErrNoneActive)
	assert.Equal(t, 0, tr.Depth())
}

func TestSQLTransactionStatements(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE t (id INT)")

	mustQuery(t, tr, "START TRANSACTION")
	mustQuery(t, tr, "INSERT INTO t (id) VALUES (1)")
	mustQuery(t, tr, "ROLLBACK")
	assert.Equal(t, int64(0), value(t, tr, "SELECT COUNT(*) FROM t"))

	mustQuery(t, tr, "BEGIN")
	mustQuery(t, tr, "INSERT INTO t (id) VALUES (1)")
	mustQuery(t, tr, "SAVEPOINT sp")
	mustQuery(t, tr, "INSERT INTO t (id) VALUES (2)")
	mustQuery(t, tr, "ROLLBACK TO SAVEPOINT sp")
	mustQuery(t, tr, "COMMIT")
	assert.Equal(t, int64(1), value(t, tr, "SELECT COUNT(*) FROM t"))

	// MySQL accepts COMMIT with no transaction open
	mustQuery(t, tr, "COMMIT")

	_, err := tr.Query(context.Background(), "RELEASE SAVEPOINT missing")
	require.Error(t, err)
	assert.Equal(t, protocol.ErrCodeSavepointNotExist, mysqlCode(t, err))
}

func TestFoundRows(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE t (id INT)")
	mustQuery(t, tr, "INSERT INTO t (id) VALUES (1), (2), (3), (4), (5)")

	res := mustQuery(t, tr, "SELECT SQL_CALC_FOUND_ROWS id FROM t ORDER BY id LIMIT 2")
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, int64(5), value(t, tr, "SELECT FOUND_ROWS()"))
	// the previous SELECT returned one row
	assert.Equal(t, int64(1), value(t, tr, "SELECT FOUND_ROWS()"))
}

func TestSessionVariables(t *testing.T) {
	tr := openTranslator(t, nil)

	assert.Equal(t, transform.ServerVersion, value(t, tr, "SELECT @@version"))

	mustQuery(t, tr, "SET @x = 5")
	assert.Equal(t, int64(6), value(t, tr, "SELECT @x + 1"))

	mustQuery(t, tr, "SET SESSION sql_mode = 'ANSI'")
	assert.Equal(t, "ANSI", value(t, tr, "SELECT @@sql_mode"))

	_, err := tr.Query(context.Background(), "SET no_such_variable = 1")
	require.Error(t, err)
	assert.Equal(t, protocol.ErrCodeUnknownSystemVar, mysqlCode(t, err))
}

func TestForeignKeyChecks(t *testing.T) {
	tr := openTranslator(t, nil)
	assert.Equal(t, int64(1), nativeCount(t, tr, "PRAGMA foreign_keys"))

	mustQuery(t, tr, "SET FOREIGN_KEY_CHECKS = 0")
	assert.Equal(t, int64(0), nativeCount(t, tr, "PRAGMA foreign_keys"))

	mustQuery(t, tr, "SET FOREIGN_KEY_CHECKS = 1")
	assert.Equal(t, int64(1), nativeCount(t, tr, "PRAGMA foreign_keys"))
}

func TestUseDatabase(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "USE wordpress")

	_, err := tr.Query(context.Background(), "USE other")
	require.Error(t, err)
	assert.Equal(t, protocol.ErrCodeBadDB, mysqlCode(t, err))
}

func TestQueryErrors(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE u (id INT PRIMARY KEY)")
	mustQuery(t, tr, "INSERT INTO u (id) VALUES (1)")

	_, err := tr.Query(context.Background(), "INSERT INTO u (id) VALUES (1)")
	require.Error(t, err)
	assert.Equal(t, protocol.ErrCodeDupEntry, mysqlCode(t, err))

	_, err = tr.Query(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.Equal(t, protocol.ErrCodeNoSuchTable, mysqlCode(t, err))

	_, err = tr.Query(context.Background(), "SELEC 1")
	var syntaxErr *parser.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "got %v", err)
}

func TestMultipleStatements(t *testing.T) {
	tr := openTranslator(t, nil)
	res := mustQuery(t, tr, "CREATE TABLE a (id INT); INSERT INTO a (id) VALUES (1), (2); SELECT COUNT(*) FROM a")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(2), res.Rows[0][0])
}

func TestNamedParameters(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE p (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(20))")
	mustQuery(t, tr, "INSERT INTO p (name) VALUES (?), (?)", "x", "y")

	res := mustQuery(t, tr, "SELECT id FROM p WHERE name = :name", sql.Named("name", "y"))
	assert.Equal(t, [][]any{{int64(2)}}, res.Rows)
	assert.Equal(t, []map[string]any{{"id": int64(2)}}, res.Maps())
}

func TestLastQueries(t *testing.T) {
	conf := testConfig(t)
	conf.Translator.LastQueriesLimit = 2
	tr := openTranslator(t, conf)
	mustQuery(t, tr, "CREATE TABLE a (id INT, c INT)")
	mustQuery(t, tr, "CREATE TABLE b (c INT)")

	mustQuery(t, tr, "SELECT id FROM a WHERE c = ?", 3)
	last := tr.LastQueries()
	require.Len(t, last, 1)
	assert.Equal(t, []any{3}, last[0].Params)

	// a multi-target delete runs more statements than the limit keeps
	mustQuery(t, tr, "DELETE a, b FROM a JOIN b ON a.c = b.c")
	last = tr.LastQueries()
	require.Len(t, last, 2)
	assert.Equal(t, "COMMIT", last[1].SQL)
}

func TestShowCreateTableRoundTrip(t *testing.T) {
	tr := openTranslator(t, nil)
	mustQuery(t, tr, "CREATE TABLE books (id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT, "+
		"title VARCHAR(200) NOT NULL DEFAULT '', body LONGTEXT, PRIMARY KEY (id), KEY title_idx (title(50)))")

	res := mustQuery(t, tr, "SHOW CREATE TABLE books")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"Table", "Create Table"}, res.Columns)
	ddl, ok := res.Rows[0][1].(string)
	require.True(t, ok)

	mustQuery(t, tr, "DROP TABLE books")
	mustQuery(t, tr, ddl)
	again := mustQuery(t, tr, "SHOW CREATE TABLE books")
	require.Len(t, again.Rows, 1)
	assert.Equal(t, "books", again.Rows[0][0])
	assert.Equal(t, ddl, again.Rows[0][1])
}

func TestReconstruct(t *testing.T) {
	ctx := context.Background()
	tr := openTranslator(t, nil)
	_, err := tr.conn.ExecContext(ctx, "CREATE TABLE native_only (a INTEGER PRIMARY KEY AUTOINCREMENT, b TEXT)")
	require.NoError(t, err)

	n, err := tr.CatalogTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, tr.Reconstruct(ctx))
	n, err = tr.CatalogTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, tr.Depth())
	assert.Equal(t, int64(1), nativeCount(t, tr, "SELECT COUNT(*) FROM "+catalog.ColumnsTable+
		" WHERE table_name = 'native_only' AND extra = 'auto_increment'"))
}

func TestReconstructOnOpen(t *testing.T) {
	ctx := context.Background()
	conf := testConfig(t)
	tr := openTranslator(t, conf)
	_, err := tr.conn.ExecContext(ctx, "CREATE TABLE native_only (a INTEGER, b TEXT)")
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	reopened := openTranslator(t, conf)
	n, err := reopened.CatalogTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFeatures(t *testing.T) {
	conf := testConfig(t)
	conf.SQLite.StrictTables = cfg.ModeOn
	conf.SQLite.ValuesColumnNames = cfg.ModeOff
	tr := openTranslator(t, conf)

	assert.Equal(t, transform.Features{StrictTables: true}, tr.Features())
	assert.NotEmpty(t, tr.SQLiteVersion())
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version string
		want    []int
		ok      bool
	}{
		{"3.45.1", []int{3, 37, 0}, true},
		{"3.37.0", []int{3, 37, 0}, true},
		{"3.36.9", []int{3, 37, 0}, false},
		{"4.0", []int{3, 37, 0}, true},
		{"3.37", []int{3, 37, 0}, true},
		{"abc", []int{3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.ok, versionAtLeast(tt.version, tt.want...))
		})
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{int64(1), "ON", "on", "1", []byte("TRUE"), 2.5} {
		assert.True(t, truthy(v), "%v", v)
	}
	for _, v := range []any{int64(0), "OFF", "0", nil, ""} {
		assert.False(t, truthy(v), "%v", v)
	}
}
