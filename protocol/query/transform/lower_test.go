package transform

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/parser"
)

// lower parses query, runs the default rules and lowers it in env.
func lower(t *testing.T, query string, env *Env) *Result {
	t.Helper()
	res, err := tryLower(query, env)
	require.NoError(t, err, query)
	return res
}

func tryLower(query string, env *Env) (*Result, error) {
	if env == nil {
		env = &Env{Database: "wordpress"}
	}
	stmt, err := parser.New(grammar.Default()).Parse(query)
	if err != nil {
		return nil, err
	}
	p := &ast.Parsed{Source: query, Statement: stmt}
	applied, err := DefaultRules().Normalize(context.Background(), p, env)
	if err != nil {
		return nil, err
	}
	res, err := Lower(context.Background(), p, env)
	if err != nil {
		return nil, err
	}
	res.Applied = applied
	return res, nil
}

func statementSQL(res *Result) []string {
	out := make([]string, len(res.Statements))
	for i, st := range res.Statements {
		out[i] = st.SQL
	}
	return out
}

// schemaEnv returns an env whose schema provider knows the given tables.
func schemaEnv(t *testing.T, ddl ...string) *Env {
	t.Helper()
	tables := map[string]*catalog.Table{}
	p := parser.New(grammar.Default())
	for _, d := range ddl {
		stmt, err := p.Parse(d)
		require.NoError(t, err, d)
		ct, ok := stmt.(*ast.CreateTable)
		require.True(t, ok, d)
		tbl, err := catalog.FromCreateTable(ct, d)
		require.NoError(t, err, d)
		tables[strings.ToLower(tbl.Name)] = tbl
	}
	return &Env{
		Database: "wordpress",
		Schema: func(_ context.Context, name string) (*catalog.Table, error) {
			return tables[strings.ToLower(name)], nil
		},
	}
}

func TestLowerSelectLiterals(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"hex literal", "SELECT 0x1F", "SELECT x'1f' AS `0x1F`"},
		{"hex string literal keeps its text", "SELECT x'0aff'", "SELECT x'0aff'"},
		{"upper hex string literal", "SELECT X'0AFF'", "SELECT x'0aff' AS `X'0AFF'`"},
		{"bit literal", "SELECT b'101'", "SELECT x'05' AS `b'101'`"},
		{"aliased literal keeps alias", "SELECT 0x1F AS v", "SELECT x'1f' AS `v`"},
		{"concat", "SELECT CONCAT(a, b, c) FROM t", "SELECT (`a` || `b` || `c`) AS `CONCAT(a, b, c)` FROM `t`"},
		{"system variable", "SELECT @@SESSION.sql_mode", "SELECT '" + DefaultSQLMode + "' AS `@@SESSION.sql_mode`"},
		{"plain column", "SELECT a FROM t WHERE b = 1", "SELECT `a` FROM `t` WHERE `b` = 1"},
		{"null safe equality", "SELECT a FROM t WHERE b <=> NULL", "SELECT `a` FROM `t` WHERE `b` IS NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := lower(t, tt.sql, nil)
			require.Len(t, res.Statements, 1)
			assert.Equal(t, tt.want, res.Statements[0].SQL)
			assert.Equal(t, KindQuery, res.Statements[0].Kind)
		})
	}
}

func TestLowerUnknownSystemVariable(t *testing.T) {
	_, err := tryLower("SELECT @@no_such_variable", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown system variable")
}

func TestLowerIndexHints(t *testing.T) {
	res := lower(t, "SELECT * FROM t USE INDEX (i1) FORCE INDEX FOR ORDER BY (i2) WHERE a = 1 ORDER BY b", nil)
	assert.Equal(t, "SELECT * FROM `t` WHERE `a` = 1 ORDER BY `b`", res.Statements[0].SQL)
	assert.Contains(t, res.Applied, "IndexHints")

	res = lower(t, "SELECT * FROM t IGNORE INDEX FOR JOIN (i1) JOIN u USE KEY (i3) ON u.id = t.id", nil)
	assert.Equal(t, "SELECT * FROM `t` JOIN `u` ON `u`.`id` = `t`.`id`", res.Statements[0].SQL)
}

func TestDisambiguateOrderBy(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		contains string
	}{
		{
			"qualifies the single matching item",
			"SELECT t1.name FROM t1 JOIN t2 ON t2.id = t1.id ORDER BY name",
			"ORDER BY `t1`.`name`",
		},
		{
			"aliased item is left alone",
			"SELECT t1.name AS name FROM t1 JOIN t2 ON t2.id = t1.id ORDER BY name",
			"ORDER BY `name`",
		},
		{
			"ambiguous across items is left alone",
			"SELECT t1.name, t2.name FROM t1 JOIN t2 ON t2.id = t1.id ORDER BY name",
			"ORDER BY `name`",
		},
		{
			"expression terms are left alone",
			"SELECT t1.name FROM t1 JOIN t2 ON t2.id = t1.id ORDER BY name + 1",
			"ORDER BY `name` + 1",
		},
		{
			"single table needs nothing",
			"SELECT t1.name FROM t1 ORDER BY name",
			"ORDER BY `name`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := lower(t, tt.sql, nil)
			assert.Contains(t, res.Statements[0].SQL, tt.contains)
		})
	}
}

func TestDisambiguateSetOperations(t *testing.T) {
	query := "SELECT t1.name FROM t1 JOIN t2 ON t2.id = t1.id GROUP BY name " +
		"UNION SELECT t1.name FROM t1 JOIN t3 ON t3.id = t1.id GROUP BY name ORDER BY name"
	res := lower(t, query, nil)
	out := res.Statements[0].SQL
	assert.Equal(t, 2, strings.Count(out, "GROUP BY `t1`.`name`"), out)
	assert.True(t, strings.HasSuffix(out, "ORDER BY `name`"), out)
}

func TestDisambiguateSubqueries(t *testing.T) {
	query := "SELECT * FROM (SELECT t1.name FROM t1 JOIN t2 ON t2.id = t1.id ORDER BY name) AS d"
	res := lower(t, query, nil)
	assert.Contains(t, res.Statements[0].SQL, "ORDER BY `t1`.`name`")

	query = "WITH c AS (SELECT t1.name FROM t1 JOIN t2 ON t2.id = t1.id GROUP BY name) SELECT name FROM c ORDER BY name"
	res = lower(t, query, nil)
	out := res.Statements[0].SQL
	assert.Contains(t, out, "GROUP BY `t1`.`name`")
	assert.True(t, strings.HasSuffix(out, "ORDER BY `name`"), out)
}

func TestDisambiguateHaving(t *testing.T) {
	res := lower(t, "SELECT t1.name FROM t1 JOIN t2 ON t2.id = t1.id HAVING name = 1", nil)
	assert.Contains(t, res.Statements[0].SQL, "HAVING `t1`.`name` = 1")

	// function arguments are not qualified, matching MySQL
	res = lower(t, "SELECT t1.name FROM t1 JOIN t2 ON t2.id = t1.id HAVING COUNT(name) > 1", nil)
	assert.Contains(t, res.Statements[0].SQL, "HAVING COUNT(`name`) > 1")
}

func TestLowerInsertValues(t *testing.T) {
	env := &Env{Database: "wordpress", Features: Features{ValuesColumnNames: true}}
	res := lower(t, "INSERT INTO t (c) VALUES (1), (2)", env)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "INSERT INTO `t` (`c`) SELECT `column1` FROM (VALUES (1), (2)) WHERE true", res.Statements[0].SQL)
	assert.True(t, res.Statements[0].Counted)

	env.Features.ValuesColumnNames = false
	res = lower(t, "INSERT INTO t (c) VALUES (1), (2)", env)
	assert.Equal(t,
		"INSERT INTO `t` (`c`) SELECT `column1` FROM (SELECT NULL AS `column1` WHERE FALSE UNION ALL VALUES (1), (2)) WHERE true",
		res.Statements[0].SQL)
}

func TestLowerInsertCasts(t *testing.T) {
	env := schemaEnv(t, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(20), n INT)")
	env.Features.ValuesColumnNames = true

	res := lower(t, "INSERT INTO t (name, n) VALUES (1, 'x')", env)
	out := res.Statements[0].SQL
	assert.Contains(t, out, "CAST(`column1` AS TEXT)")
	assert.Contains(t, out, "CAST(`column2` AS INTEGER)")

	res = lower(t, "INSERT INTO t (name, n) VALUES ('a', 2)", env)
	assert.NotContains(t, res.Statements[0].SQL, "CAST(")

	res = lower(t, "INSERT INTO t (id, n) VALUES (0, 2)", env)
	assert.Contains(t, res.Statements[0].SQL, "NULLIF(`column1`, 0)")
}

func TestLowerInsertVariants(t *testing.T) {
	env := schemaEnv(t, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, email VARCHAR(20) UNIQUE, n INT)")
	env.Features.ValuesColumnNames = true

	res := lower(t, "INSERT IGNORE INTO t (n) VALUES (1)", env)
	assert.True(t, strings.HasPrefix(res.Statements[0].SQL, "INSERT OR IGNORE INTO `t`"), res.Statements[0].SQL)

	res = lower(t, "REPLACE INTO t (n) VALUES (1)", env)
	assert.True(t, strings.HasPrefix(res.Statements[0].SQL, "REPLACE INTO `t`"), res.Statements[0].SQL)

	res = lower(t, "INSERT INTO t (email, n) VALUES ('a', 1) ON DUPLICATE KEY UPDATE n = VALUES(n) + 1", env)
	out := res.Statements[0].SQL
	assert.Contains(t, out, "ON CONFLICT (`id`) DO UPDATE SET `n` = excluded.`n` + 1")
	assert.Contains(t, out, "ON CONFLICT (`email`) DO UPDATE SET `n` = excluded.`n` + 1")

	res = lower(t, "INSERT INTO t SET n = 3", env)
	assert.Contains(t, res.Statements[0].SQL, "INSERT INTO `t` (`n`) SELECT `column1` FROM (VALUES (3)) WHERE true")

	_, err := tryLower("INSERT INTO t (n, email) VALUES (1)", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Column count doesn't match value count at row 1")
}

func TestLowerInsertUncatalogedTable(t *testing.T) {
	env := schemaEnv(t)
	env.Features.ValuesColumnNames = true

	res := lower(t, "INSERT INTO legacy VALUES (1, 'x'), (2, 'y')", env)
	assert.Equal(t, []string{
		"INSERT INTO `legacy` SELECT `column1`, `column2` FROM (VALUES (1, 'x'), (2, 'y')) WHERE true",
	}, statementSQL(res))

	_, err := tryLower("INSERT INTO legacy VALUES (1, 'x'), (2)", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Column count doesn't match value count at row 2")
}

func TestLowerMultiTableUpdate(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			"comma form",
			"UPDATE t1, t2 SET t1.id = 1 WHERE t1.c = t2.c",
			"UPDATE `t1` SET `id` = 1 FROM `t2` WHERE `t1`.`c` = `t2`.`c`",
		},
		{
			"join form",
			"UPDATE t1 JOIN t2 ON t1.c = t2.c SET t1.id = 1 WHERE t2.x > 0",
			"UPDATE `t1` SET `id` = 1 FROM `t2` WHERE `t1`.`c` = `t2`.`c` AND `t2`.`x` > 0",
		},
		{
			"aliases",
			"UPDATE t1 AS a JOIN t2 AS b ON a.c = b.c SET b.v = a.v",
			"UPDATE `t2` AS `b` SET `v` = `a`.`v` FROM `t1` AS `a` WHERE `a`.`c` = `b`.`c`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := lower(t, tt.sql, nil)
			require.Len(t, res.Statements, 1)
			assert.Equal(t, tt.want, res.Statements[0].SQL)
		})
	}

	_, err := tryLower("UPDATE t1, t2 SET t1.a = 1 ORDER BY t1.a LIMIT 1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect usage of UPDATE and ORDER BY")
}

func TestLowerLimitedUpdateAndDelete(t *testing.T) {
	res := lower(t, "UPDATE t SET a = 1 WHERE b = 2 ORDER BY id LIMIT 3", nil)
	assert.Equal(t, "UPDATE `t` SET `a` = 1 WHERE rowid IN (SELECT rowid FROM `t` WHERE `b` = 2 ORDER BY `id` LIMIT 3)",
		res.Statements[0].SQL)

	res = lower(t, "DELETE FROM t ORDER BY id DESC LIMIT 1", nil)
	assert.Equal(t, "DELETE FROM `t` WHERE rowid IN (SELECT rowid FROM `t` ORDER BY `id` DESC LIMIT 1)",
		res.Statements[0].SQL)

	res = lower(t, "DELETE FROM t WHERE a = 1", nil)
	assert.Equal(t, "DELETE FROM `t` WHERE `a` = 1", res.Statements[0].SQL)
}

func TestLowerMultiTableDelete(t *testing.T) {
	res := lower(t, "DELETE a, b FROM a JOIN b ON b.aid = a.id WHERE a.x = 1", nil)
	stmts := statementSQL(res)
	require.Len(t, stmts, 5)
	assert.Contains(t, stmts[1], "CREATE TEMP TABLE `_wp_sqlite_delete_rowids` AS SELECT `a`.`rowid` AS `r0`, `b`.`rowid` AS `r1`")
	assert.Contains(t, stmts[1], "WHERE `a`.`x` = 1")
	assert.Equal(t, "DELETE FROM `a` WHERE rowid IN (SELECT `r0` FROM temp.`_wp_sqlite_delete_rowids`)", stmts[2])
	assert.Equal(t, "DELETE FROM `b` WHERE rowid IN (SELECT `r1` FROM temp.`_wp_sqlite_delete_rowids`)", stmts[3])

	counted := 0
	for _, st := range res.Statements {
		if st.Counted {
			counted++
		}
	}
	assert.Equal(t, 2, counted)

	res = lower(t, "DELETE a FROM a JOIN b ON b.aid = a.id", nil)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "DELETE FROM `a` WHERE rowid IN (SELECT `a`.`rowid` FROM `a` JOIN `b` ON `b`.`aid` = `a`.`id`)",
		res.Statements[0].SQL)

	_, err := tryLower("DELETE c FROM a JOIN b ON b.aid = a.id", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown table 'c' in MULTI DELETE")
}

func TestLowerCreateTable(t *testing.T) {
	env := &Env{Database: "wordpress"}
	res := lower(t, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT)", env)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "CREATE TABLE `t` (`id` INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT)", res.Statements[0].SQL)
	require.Len(t, res.Changes, 1)
	assert.False(t, res.Cacheable)

	// the order of PRIMARY KEY and AUTO_INCREMENT does not matter, nor does
	// declaring the key separately
	for _, query := range []string{
		"CREATE TABLE t (id INT AUTO_INCREMENT PRIMARY KEY)",
		"CREATE TABLE t (id INT AUTO_INCREMENT, PRIMARY KEY (id))",
	} {
		res = lower(t, query, env)
		assert.Equal(t, "CREATE TABLE `t` (`id` INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT)", res.Statements[0].SQL, query)
	}

	env.Features.StrictTables = true
	res = lower(t, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT)", env)
	assert.Equal(t, "CREATE TABLE `t` (`id` INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT) STRICT", res.Statements[0].SQL)
}

func TestLowerCreateTablePrimaryKeyWithoutAutoIncrement(t *testing.T) {
	res := lower(t, "CREATE TABLE t (id INT PRIMARY KEY, name VARCHAR(10))", nil)
	out := res.Statements[0].SQL
	assert.Contains(t, out, "`id` INT NOT NULL")
	assert.NotContains(t, out, "INTEGER")
	assert.Contains(t, out, "PRIMARY KEY (`id`)")
}

func TestLowerCreateTableKeys(t *testing.T) {
	query := "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, email VARCHAR(100) UNIQUE, " +
		"name VARCHAR(100), KEY name_idx (name(10))) ENGINE=MyISAM DEFAULT CHARSET=latin1"
	res := lower(t, query, nil)
	stmts := statementSQL(res)
	require.Len(t, stmts, 3)
	assert.NotContains(t, stmts[0], "ENGINE")
	assert.NotContains(t, stmts[0], "CHARSET")
	assert.Equal(t, "CREATE UNIQUE INDEX `t__email` ON `t` (`email`)", stmts[1])
	assert.Equal(t, "CREATE INDEX `t__name_idx` ON `t` (`name`)", stmts[2])

	ch, ok := res.Changes[0].(*catalog.CreateTableChange)
	require.True(t, ok)
	assert.Equal(t, "MyISAM", ch.Table.Engine)
}

func TestLowerCreateTableOnUpdateTrigger(t *testing.T) {
	res := lower(t, "CREATE TABLE t (id INT, updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP)", nil)
	stmts := statementSQL(res)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "DEFAULT CURRENT_TIMESTAMP")
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TRIGGER `"+catalog.OnUpdateTriggerName("t", "updated")+"` AFTER UPDATE ON `t`"), stmts[1])
}

func TestTypeMappingTotality(t *testing.T) {
	types := map[string]string{
		"TINYINT": "INTEGER", "SMALLINT": "INTEGER", "MEDIUMINT": "INTEGER", "INT": "INTEGER",
		"INTEGER": "INTEGER", "BIGINT": "INTEGER", "INT UNSIGNED": "INTEGER", "BIT(1)": "INTEGER",
		"BOOL": "INTEGER", "BOOLEAN": "INTEGER", "YEAR": "INTEGER",
		"FLOAT": "REAL", "DOUBLE": "REAL", "DOUBLE PRECISION": "REAL", "REAL": "REAL",
		"DECIMAL(10,2)": "REAL", "NUMERIC": "REAL",
		"CHAR(1)": "TEXT", "VARCHAR(10)": "TEXT", "NCHAR(5)": "TEXT", "NATIONAL VARCHAR(5)": "TEXT",
		"TINYTEXT": "TEXT", "TEXT": "TEXT", "MEDIUMTEXT": "TEXT", "LONGTEXT": "TEXT",
		"ENUM('a','b')": "TEXT", "SET('a','b')": "TEXT",
		"DATE": "TEXT", "TIME": "TEXT", "DATETIME": "TEXT", "TIMESTAMP": "TEXT", "JSON": "TEXT",
		"GEOMETRY": "TEXT", "POINT": "TEXT", "LINESTRING": "TEXT", "POLYGON": "TEXT",
		"MULTIPOINT": "TEXT", "MULTILINESTRING": "TEXT", "MULTIPOLYGON": "TEXT",
		"GEOMCOLLECTION": "TEXT", "GEOMETRYCOLLECTION": "TEXT",
		"BINARY(4)": "BLOB", "VARBINARY(4)": "BLOB", "TINYBLOB": "BLOB", "BLOB": "BLOB",
		"MEDIUMBLOB": "BLOB", "LONGBLOB": "BLOB",
	}
	for typ, affinity := range types {
		t.Run(typ, func(t *testing.T) {
			res, err := tryLower("CREATE TABLE t (c "+typ+")", nil)
			require.NoError(t, err)
			assert.Contains(t, res.Statements[0].SQL, "`c` "+affinity)
		})
	}

	res := lower(t, "CREATE TABLE t (id SERIAL)", nil)
	assert.Equal(t, "CREATE TABLE `t` (`id` INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT)", res.Statements[0].SQL)
}

func TestLowerAlterTableRebuild(t *testing.T) {
	env := schemaEnv(t, "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, a INT, b VARCHAR(10))")
	res := lower(t, "ALTER TABLE t ADD COLUMN c INT NOT NULL DEFAULT 0, DROP COLUMN b", env)
	stmts := statementSQL(res)
	require.NotEmpty(t, stmts)
	assert.True(t, res.ForeignKeysOff)

	joined := strings.Join(stmts, ";\n")
	assert.Contains(t, joined, "CREATE TABLE `_wp_sqlite_tmp_t`")
	assert.Contains(t, joined, "INSERT INTO `_wp_sqlite_tmp_t` (`id`, `a`) SELECT `id`, `a` FROM `t`")
	assert.Contains(t, joined, "DROP TABLE `t`")
	assert.Contains(t, joined, "ALTER TABLE `_wp_sqlite_tmp_t` RENAME TO `t`")
	assert.Equal(t, KindEmptyCheck, res.Statements[len(res.Statements)-1].Kind)
	require.Len(t, res.Changes, 1)
}

func TestLowerUnsupported(t *testing.T) {
	for _, query := range []string{
		"SELECT a FROM t GROUP BY a WITH ROLLUP",
		"SELECT MATCH (a) AGAINST ('x') FROM t",
		"SELECT no_such_function(1)",
	} {
		_, err := tryLower(query, nil)
		var unsupportedErr *UnsupportedConstructError
		assert.ErrorAs(t, err, &unsupportedErr, query)
	}
}

func TestLowerCacheability(t *testing.T) {
	assert.True(t, lower(t, "SELECT a FROM t", nil).Cacheable)
	assert.False(t, lower(t, "SELECT @@version", nil).Cacheable)
	assert.False(t, lower(t, "START TRANSACTION", nil).Cacheable)

	env := schemaEnv(t, "CREATE TABLE t (id INT)")
	assert.False(t, lower(t, "INSERT INTO t (id) VALUES (1)", env).Cacheable)
}

func TestTranspiledStatementBind(t *testing.T) {
	st := TranspiledStatement{Params: []any{ParamRef{Index: 1}, "fixed", ParamRef{Index: -1, Name: "id"}}}
	got, err := st.Bind([]any{"first", "second", sql.Named("id", 7)})
	require.NoError(t, err)
	assert.Equal(t, []any{"second", "fixed", 7}, got)

	_, err = st.Bind([]any{"only"})
	assert.Error(t, err)
}
