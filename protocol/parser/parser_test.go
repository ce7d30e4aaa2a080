package parser

import (
	"errors"
	"testing"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, sql string) ast.Statement {
	t.Helper()
	stmt, err := Parse(sql)
	require.NoError(t, err, sql)
	require.NotNil(t, stmt)
	return stmt
}

func mustSpec(t *testing.T, sql string) *ast.QuerySpec {
	t.Helper()
	sel, ok := mustParse(t, sql).(*ast.Select)
	require.True(t, ok)
	spec, ok := sel.Body.(*ast.QuerySpec)
	require.True(t, ok)
	return spec
}

func selectExpr(t *testing.T, expr string) ast.Expr {
	t.Helper()
	spec := mustSpec(t, "SELECT "+expr)
	require.Len(t, spec.Items, 1)
	return spec.Items[0].Expr
}

func TestParseSelectClauses(t *testing.T) {
	sql := "SELECT t1.name, COUNT(*) AS n FROM wp_posts t1 LEFT JOIN wp_users AS u ON u.ID = t1.post_author " +
		"WHERE t1.ID > ? GROUP BY t1.name HAVING n > 1 ORDER BY n DESC LIMIT 10, 5"
	sel := mustParse(t, sql).(*ast.Select)
	spec := sel.Body.(*ast.QuerySpec)

	require.Len(t, spec.Items, 2)
	col := spec.Items[0].Expr.(*ast.ColumnRef)
	assert.Equal(t, "t1", col.Table)
	assert.Equal(t, "name", col.Name)
	assert.Equal(t, "n", spec.Items[1].Alias)
	count := spec.Items[1].Expr.(*ast.FuncCall)
	assert.Equal(t, "COUNT", count.Name)
	assert.True(t, count.Star)

	require.Len(t, spec.From, 1)
	join := spec.From[0].(*ast.Join)
	assert.Equal(t, ast.JoinLeft, join.Kind)
	assert.Equal(t, "t1", join.Left.(*ast.TableName).Alias)
	assert.Equal(t, "wp_users", join.Right.(*ast.TableName).Name)
	assert.Equal(t, "u", join.Right.(*ast.TableName).Alias)
	assert.NotNil(t, join.On)

	where := spec.Where.(*ast.Binary)
	assert.Equal(t, ">", where.Op)
	assert.Equal(t, 0, where.Right.(*ast.Param).Index)
	assert.Len(t, spec.GroupBy, 1)
	assert.NotNil(t, spec.Having)

	require.Len(t, sel.OrderBy, 1)
	assert.True(t, sel.OrderBy[0].Desc)
	require.NotNil(t, sel.Limit)
	assert.Equal(t, "10", sel.Limit.Offset.(*ast.Literal).Value)
	assert.Equal(t, "5", sel.Limit.Count.(*ast.Literal).Value)
}

func TestParseLimitOffsetForm(t *testing.T) {
	sel := mustParse(t, "SELECT a FROM t LIMIT 5 OFFSET 20").(*ast.Select)
	assert.Equal(t, "5", sel.Limit.Count.(*ast.Literal).Value)
	assert.Equal(t, "20", sel.Limit.Offset.(*ast.Literal).Value)
}

func TestParseSetOperation(t *testing.T) {
	sel := mustParse(t, "SELECT a FROM t UNION ALL SELECT b FROM u EXCEPT SELECT c FROM v ORDER BY a LIMIT 3").(*ast.Select)
	op := sel.Body.(*ast.SetOperation)
	assert.Equal(t, "EXCEPT", op.Op)
	assert.False(t, op.All)
	inner := op.Left.(*ast.SetOperation)
	assert.Equal(t, "UNION", inner.Op)
	assert.True(t, inner.All)
	assert.Len(t, sel.OrderBy, 1)
	assert.NotNil(t, sel.Limit)
}

func TestParseParenthesizedUnion(t *testing.T) {
	sel := mustParse(t, "(SELECT a FROM t ORDER BY a LIMIT 1) UNION (SELECT a FROM u)").(*ast.Select)
	op := sel.Body.(*ast.SetOperation)
	left := op.Left.(*ast.ParenQuery)
	assert.NotNil(t, left.Query.Limit)
	assert.Nil(t, sel.Limit)
}

func TestParseCTE(t *testing.T) {
	sel := mustParse(t, "WITH RECURSIVE c (n) AS (SELECT 1 UNION ALL SELECT n + 1 FROM c WHERE n < 5) SELECT n FROM c").(*ast.Select)
	require.NotNil(t, sel.With)
	assert.True(t, sel.With.Recursive)
	require.Len(t, sel.With.CTEs, 1)
	assert.Equal(t, "c", sel.With.CTEs[0].Name)
	assert.Equal(t, []string{"n"}, sel.With.CTEs[0].Columns)
	assert.IsType(t, &ast.SetOperation{}, sel.With.CTEs[0].Query.Body)
}

func TestParseSubqueries(t *testing.T) {
	spec := mustSpec(t, "SELECT * FROM (SELECT id FROM t) AS d WHERE id IN (SELECT id FROM u) AND EXISTS (SELECT 1) AND x = (SELECT MAX(x) FROM v)")
	assert.IsType(t, &ast.Star{}, spec.Items[0].Expr)
	derived := spec.From[0].(*ast.DerivedTable)
	assert.Equal(t, "d", derived.Alias)

	and := spec.Where.(*ast.Binary)
	assert.Equal(t, "AND", and.Op)
	assert.IsType(t, &ast.Subquery{}, and.Right.(*ast.Binary).Right)
	inner := and.Left.(*ast.Binary)
	assert.NotNil(t, inner.Left.(*ast.In).Query)
	assert.IsType(t, &ast.Exists{}, inner.Right)
}

func TestParseIndexHints(t *testing.T) {
	spec := mustSpec(t, "SELECT * FROM t USE INDEX (a, b) IGNORE INDEX FOR ORDER BY (c), u FORCE KEY (PRIMARY) WHERE 1")
	require.Len(t, spec.From, 2)
	first := spec.From[0].(*ast.TableName)
	require.Len(t, first.Hints, 2)
	assert.Equal(t, "USE", first.Hints[0].Kind)
	assert.Equal(t, []string{"a", "b"}, first.Hints[0].Indexes)
	assert.Equal(t, "ORDER BY", first.Hints[1].Scope)
	second := spec.From[1].(*ast.TableName)
	assert.Equal(t, "u", second.Name)
	assert.Equal(t, []string{"PRIMARY"}, second.Hints[0].Indexes)
	assert.NotNil(t, spec.Where)
}

func TestParseJoinKinds(t *testing.T) {
	tests := []struct {
		sql  string
		kind ast.JoinKind
	}{
		{"SELECT * FROM a JOIN b ON a.id = b.id", ast.JoinInner},
		{"SELECT * FROM a INNER JOIN b USING (id)", ast.JoinInner},
		{"SELECT * FROM a CROSS JOIN b", ast.JoinCross},
		{"SELECT * FROM a LEFT OUTER JOIN b ON 1", ast.JoinLeft},
		{"SELECT * FROM a RIGHT JOIN b ON 1", ast.JoinRight},
		{"SELECT * FROM a STRAIGHT_JOIN b", ast.JoinStraight},
		{"SELECT * FROM a NATURAL JOIN b", ast.JoinNatural},
		{"SELECT * FROM a NATURAL LEFT JOIN b", ast.JoinNaturalLeft},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			spec := mustSpec(t, tt.sql)
			assert.Equal(t, tt.kind, spec.From[0].(*ast.Join).Kind)
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	sum := selectExpr(t, "1 + 2 * 3").(*ast.Binary)
	assert.Equal(t, "+", sum.Op)
	assert.Equal(t, "*", sum.Right.(*ast.Binary).Op)

	spec := mustSpec(t, "SELECT a FROM t WHERE NOT a = 1 OR b BETWEEN 1 AND 2 AND c NOT LIKE 'x%'")
	or := spec.Where.(*ast.Binary)
	assert.Equal(t, "OR", or.Op)
	not := or.Left.(*ast.Unary)
	assert.Equal(t, "NOT", not.Op)
	assert.Equal(t, "=", not.X.(*ast.Binary).Op)
	and := or.Right.(*ast.Binary)
	assert.Equal(t, "AND", and.Op)
	assert.IsType(t, &ast.Between{}, and.Left)
	like := and.Right.(*ast.Like)
	assert.True(t, like.Not)
	assert.Equal(t, "x%", like.Pattern.(*ast.Literal).Value)
}

func TestParseOperatorNormalization(t *testing.T) {
	tests := []struct {
		expr string
		op   string
	}{
		{"a <> b", "!="},
		{"a && b", "AND"},
		{"a MOD b", "%"},
		{"a DIV b", "DIV"},
		{"a <=> b", "<=>"},
		{"a XOR b", "XOR"},
		{"a -> '$.x'", "->"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.op, selectExpr(t, tt.expr).(*ast.Binary).Op)
		})
	}
}

func TestParsePredicates(t *testing.T) {
	is := selectExpr(t, "a IS NOT NULL").(*ast.Is)
	assert.True(t, is.Not)
	assert.Equal(t, "NULL", is.Value)

	in := selectExpr(t, "b NOT IN (1, 2, 3)").(*ast.In)
	assert.True(t, in.Not)
	assert.Len(t, in.List, 3)

	re := selectExpr(t, "c RLIKE '^a'").(*ast.Like)
	assert.Equal(t, "REGEXP", re.Op)

	esc := selectExpr(t, "d LIKE 'a|%' ESCAPE '|'").(*ast.Like)
	assert.Equal(t, "|", esc.Escape.(*ast.Literal).Value)

	q := selectExpr(t, "e > ALL (SELECT x FROM t)").(*ast.Quantified)
	assert.Equal(t, "ALL", q.Quantifier)
	assert.Equal(t, ">", q.Op)

	coll := selectExpr(t, "f COLLATE utf8mb4_bin").(*ast.Collate)
	assert.Equal(t, "utf8mb4_bin", coll.Collation)
}

func TestParseFunctions(t *testing.T) {
	add := selectExpr(t, "DATE_ADD(d, INTERVAL 1 DAY)").(*ast.FuncCall)
	assert.Equal(t, "DATE_ADD", add.Name)
	iv := add.Args[1].(*ast.Interval)
	assert.Equal(t, "DAY", iv.Unit)
	assert.Equal(t, "1", iv.Value.(*ast.Literal).Value)

	trim := selectExpr(t, "TRIM(LEADING 'x' FROM s)").(*ast.FuncCall)
	assert.Equal(t, "LEADING", trim.Keyword)
	require.Len(t, trim.Args, 2)
	assert.Equal(t, "s", trim.Args[0].(*ast.ColumnRef).Name)
	assert.Equal(t, "x", trim.Args[1].(*ast.Literal).Value)

	extract := selectExpr(t, "EXTRACT(YEAR_MONTH FROM d)").(*ast.FuncCall)
	assert.Equal(t, "YEAR_MONTH", extract.Keyword)
	assert.Len(t, extract.Args, 1)

	gc := selectExpr(t, "GROUP_CONCAT(DISTINCT a ORDER BY a DESC SEPARATOR ';')").(*ast.FuncCall)
	assert.True(t, gc.Distinct)
	assert.Len(t, gc.OrderBy, 1)
	assert.Equal(t, ";", gc.Separator.Value)

	cast := selectExpr(t, "CAST(a AS UNSIGNED)").(*ast.Cast)
	assert.Equal(t, "UNSIGNED", cast.Type.Name)

	conv := selectExpr(t, "CONVERT(a USING utf8mb4)").(*ast.Cast)
	assert.True(t, conv.Convert)
	assert.Equal(t, "utf8mb4", conv.Using)

	win := selectExpr(t, "ROW_NUMBER() OVER (PARTITION BY a ORDER BY b ROWS BETWEEN 1 PRECEDING AND CURRENT ROW)").(*ast.FuncCall)
	require.NotNil(t, win.Over)
	assert.Len(t, win.Over.PartitionBy, 1)
	assert.Equal(t, "ROWS BETWEEN 1 PRECEDING AND CURRENT ROW", win.Over.Frame)

	left := selectExpr(t, "LEFT(name, 3)").(*ast.FuncCall)
	assert.Equal(t, "LEFT", left.Name)

	now := selectExpr(t, "CURRENT_TIMESTAMP").(*ast.FuncCall)
	assert.Equal(t, "CURRENT_TIMESTAMP", now.Name)
	assert.Empty(t, now.Args)

	ifCall := selectExpr(t, "IF(a > 1, 'y', 'n')").(*ast.FuncCall)
	assert.Equal(t, "IF", ifCall.Name)
	assert.Len(t, ifCall.Args, 3)

	ivFunc := selectExpr(t, "INTERVAL(5, 1, 10)").(*ast.FuncCall)
	assert.Equal(t, "INTERVAL", ivFunc.Name)
	assert.Len(t, ivFunc.Args, 3)

	cs := selectExpr(t, "CASE WHEN a = 1 THEN 'one' ELSE 'other' END").(*ast.Case)
	assert.Nil(t, cs.Operand)
	assert.Len(t, cs.Whens, 1)
	assert.NotNil(t, cs.Else)
}

func TestParseLiteralsAndVariables(t *testing.T) {
	spec := mustSpec(t, "SELECT @@SESSION.sql_mode, @@version, x'4D', b'101', 0x1F, @uv, :name, 'a' 'b', _utf8mb4'c', NULL, -1")
	require.Len(t, spec.Items, 11)

	sv := spec.Items[0].Expr.(*ast.SystemVar)
	assert.Equal(t, "SESSION", sv.Scope)
	assert.Equal(t, "sql_mode", sv.Name)
	assert.Equal(t, "", spec.Items[1].Expr.(*ast.SystemVar).Scope)

	hex := spec.Items[2].Expr.(*ast.Literal)
	assert.Equal(t, ast.LiteralHex, hex.Kind)
	assert.Equal(t, "4D", hex.Value)
	assert.Equal(t, ast.LiteralBit, spec.Items[3].Expr.(*ast.Literal).Kind)
	assert.Equal(t, "1F", spec.Items[4].Expr.(*ast.Literal).Value)
	assert.Equal(t, "uv", spec.Items[5].Expr.(*ast.UserVar).Name)

	named := spec.Items[6].Expr.(*ast.Param)
	assert.Equal(t, "name", named.Name)
	assert.Equal(t, -1, named.Index)

	assert.Equal(t, "ab", spec.Items[7].Expr.(*ast.Literal).Value)
	intro := spec.Items[8].Expr.(*ast.Literal)
	assert.Equal(t, "_utf8mb4", intro.Introducer)
	assert.Equal(t, "c", intro.Value)
	assert.Equal(t, ast.LiteralNull, spec.Items[9].Expr.(*ast.Literal).Kind)
	assert.Equal(t, "-", spec.Items[10].Expr.(*ast.Unary).Op)
}

func TestParseParamIndexes(t *testing.T) {
	spec := mustSpec(t, "SELECT ?, ? FROM t WHERE a = ?")
	assert.Equal(t, 0, spec.Items[0].Expr.(*ast.Param).Index)
	assert.Equal(t, 1, spec.Items[1].Expr.(*ast.Param).Index)
	assert.Equal(t, 2, spec.Where.(*ast.Binary).Right.(*ast.Param).Index)
}

func TestParseInsert(t *testing.T) {
	ins := mustParse(t, "INSERT IGNORE INTO wp_options (option_name, option_value) VALUES ('a', 1), ('b', ?) "+
		"ON DUPLICATE KEY UPDATE option_value = VALUES(option_value)").(*ast.Insert)
	assert.True(t, ins.Ignore)
	assert.False(t, ins.Replace)
	assert.Equal(t, "wp_options", ins.Table.Name)
	assert.Equal(t, []string{"option_name", "option_value"}, ins.Columns)
	require.Len(t, ins.Rows, 2)
	assert.IsType(t, &ast.Param{}, ins.Rows[1][1])
	require.Len(t, ins.OnDuplicate, 1)
	assert.Equal(t, "option_value", ins.OnDuplicate[0].Value.(*ast.ValuesRef).Column)

	rep := mustParse(t, "REPLACE INTO t SET a = 1, b = DEFAULT").(*ast.Insert)
	assert.True(t, rep.Replace)
	require.Len(t, rep.Set, 2)
	assert.IsType(t, &ast.Default{}, rep.Set[1].Value)

	sel := mustParse(t, "INSERT INTO t (a) SELECT a FROM u WHERE a > 1").(*ast.Insert)
	require.NotNil(t, sel.Select)
	assert.Equal(t, []string{"a"}, sel.Columns)

	empty := mustParse(t, "INSERT INTO t () VALUES ()").(*ast.Insert)
	assert.Empty(t, empty.Columns)
	require.Len(t, empty.Rows, 1)
	assert.Empty(t, empty.Rows[0])
}

func TestParseUpdate(t *testing.T) {
	up := mustParse(t, "UPDATE t1, t2 SET t1.id = 1 WHERE t1.c = t2.c").(*ast.Update)
	assert.Len(t, up.Tables, 2)
	require.Len(t, up.Set, 1)
	assert.Equal(t, "t1", up.Set[0].Column.Table)
	assert.Equal(t, "id", up.Set[0].Column.Name)

	join := mustParse(t, "UPDATE t1 JOIN t2 ON t1.c = t2.c SET t1.a = t2.a").(*ast.Update)
	assert.IsType(t, &ast.Join{}, join.Tables[0])

	lim := mustParse(t, "UPDATE LOW_PRIORITY t SET a = a + 1 ORDER BY id LIMIT 2").(*ast.Update)
	assert.True(t, lim.LowPriority)
	assert.Len(t, lim.OrderBy, 1)
	assert.Equal(t, "2", lim.Limit.Count.(*ast.Literal).Value)
}

func TestParseDelete(t *testing.T) {
	single := mustParse(t, "DELETE FROM t WHERE id = 1 ORDER BY id LIMIT 1").(*ast.Delete)
	assert.Empty(t, single.Targets)
	assert.Len(t, single.From, 1)
	assert.NotNil(t, single.Limit)

	multi := mustParse(t, "DELETE a, b FROM t1 AS a JOIN t2 AS b ON a.id = b.id WHERE a.x = 1").(*ast.Delete)
	assert.Equal(t, []string{"a", "b"}, multi.Targets)
	assert.IsType(t, &ast.Join{}, multi.From[0])

	using := mustParse(t, "DELETE FROM a.*, b USING t1 AS a, t2 AS b WHERE a.id = b.id").(*ast.Delete)
	assert.Equal(t, []string{"a", "b"}, using.Targets)
	assert.Len(t, using.From, 2)

	mods := mustParse(t, "DELETE LOW_PRIORITY QUICK IGNORE FROM t").(*ast.Delete)
	assert.True(t, mods.LowPriority)
	assert.True(t, mods.Quick)
	assert.True(t, mods.Ignore)
}

const wpPosts = "CREATE TABLE IF NOT EXISTS `wp_posts` (\n" +
	"  ID bigint(20) unsigned NOT NULL AUTO_INCREMENT,\n" +
	"  post_title text NOT NULL,\n" +
	"  post_status varchar(20) NOT NULL DEFAULT 'publish',\n" +
	"  post_date datetime NOT NULL DEFAULT '0000-00-00 00:00:00' ON UPDATE CURRENT_TIMESTAMP,\n" +
	"  PRIMARY KEY (ID),\n" +
	"  UNIQUE KEY slug (post_status(10), post_date),\n" +
	"  KEY type_status_date (post_status, post_date, ID),\n" +
	"  FULLTEXT KEY ft (post_title),\n" +
	"  CONSTRAINT fk_author FOREIGN KEY (ID) REFERENCES wp_users (ID) ON DELETE CASCADE\n" +
	") ENGINE=innodb AUTO_INCREMENT=5 DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_520_ci"

func TestParseCreateTable(t *testing.T) {
	ct := mustParse(t, wpPosts).(*ast.CreateTable)
	assert.True(t, ct.IfNotExists)
	assert.Equal(t, "wp_posts", ct.Table.Name)

	require.Len(t, ct.Columns, 4)
	id := ct.Columns[0]
	assert.Equal(t, "ID", id.Name)
	assert.Equal(t, "BIGINT", id.Type.Name)
	assert.Equal(t, []string{"20"}, id.Type.Args)
	assert.True(t, id.Type.Unsigned)
	assert.True(t, id.NotNull)
	assert.True(t, id.AutoIncrement)
	assert.Equal(t, "publish", ct.Columns[2].Default.(*ast.Literal).Value)
	assert.Equal(t, "CURRENT_TIMESTAMP", ct.Columns[3].OnUpdate.(*ast.FuncCall).Name)

	require.Len(t, ct.Indexes, 4)
	assert.Equal(t, ast.IndexPrimary, ct.Indexes[0].Kind)
	assert.Equal(t, ast.IndexUnique, ct.Indexes[1].Kind)
	assert.Equal(t, "slug", ct.Indexes[1].Name)
	assert.Equal(t, 10, ct.Indexes[1].Columns[0].Length)
	assert.Equal(t, ast.IndexPlain, ct.Indexes[2].Kind)
	assert.Len(t, ct.Indexes[2].Columns, 3)
	assert.Equal(t, ast.IndexFulltext, ct.Indexes[3].Kind)

	require.Len(t, ct.ForeignKeys, 1)
	fk := ct.ForeignKeys[0]
	assert.Equal(t, "fk_author", fk.Name)
	assert.Equal(t, "wp_users", fk.RefTable.Name)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	opts := map[string]string{}
	for _, o := range ct.Options {
		opts[o.Name] = o.Value
	}
	assert.Equal(t, map[string]string{
		"ENGINE":         "InnoDB",
		"AUTO_INCREMENT": "5",
		"CHARSET":        "utf8mb4",
		"COLLATE":        "utf8mb4_unicode_520_ci",
	}, opts)
}

func TestParseColumnAttributes(t *testing.T) {
	ct := mustParse(t, "CREATE TABLE t ("+
		"a int PRIMARY KEY AUTO_INCREMENT, "+
		"b varchar(10) CHARACTER SET latin1 COLLATE latin1_bin UNIQUE COMMENT 'bee', "+
		"c enum('x','y') DEFAULT 'x', "+
		"d decimal(10,2) DEFAULT -1.5, "+
		"e serial, "+
		"f int GENERATED ALWAYS AS (a + 1) STORED, "+
		"g int CHECK (g > 0))").(*ast.CreateTable)
	require.Len(t, ct.Columns, 7)
	a := ct.Columns[0]
	assert.True(t, a.PrimaryKey)
	assert.True(t, a.AutoIncrement)

	b := ct.Columns[1]
	assert.Equal(t, "latin1", b.Type.Charset)
	assert.Equal(t, "latin1_bin", b.Type.Collate)
	assert.True(t, b.Unique)
	require.NotNil(t, b.Comment)
	assert.Equal(t, "bee", *b.Comment)

	assert.Equal(t, []string{"x", "y"}, ct.Columns[2].Type.Values)
	assert.Equal(t, []string{"10", "2"}, ct.Columns[3].Type.Args)
	assert.IsType(t, &ast.Unary{}, ct.Columns[3].Default)
	assert.Equal(t, "SERIAL", ct.Columns[4].Type.Name)
	require.NotNil(t, ct.Columns[5].Generated)
	assert.True(t, ct.Columns[5].Generated.Stored)
	assert.Len(t, ct.Columns[6].Checks, 1)
}

func TestParseCreateTableLike(t *testing.T) {
	ct := mustParse(t, "CREATE TABLE t2 LIKE t1").(*ast.CreateTable)
	assert.Equal(t, "t1", ct.Like.Name)

	as := mustParse(t, "CREATE TEMPORARY TABLE t3 AS SELECT * FROM t1").(*ast.CreateTable)
	assert.True(t, as.Temporary)
	assert.NotNil(t, as.AsSelect)
}

func TestParseAlterTable(t *testing.T) {
	at := mustParse(t, "ALTER TABLE t ADD COLUMN c int NOT NULL DEFAULT 0 AFTER b, DROP COLUMN d, "+
		"CHANGE e f varchar(10), MODIFY g text, ADD INDEX idx (c), DROP INDEX old, "+
		"RENAME COLUMN h TO i, ALTER COLUMN j SET DEFAULT 1, ENGINE=InnoDB, "+
		"ADD CONSTRAINT fk FOREIGN KEY (c) REFERENCES u (id), DROP PRIMARY KEY, RENAME TO t2").(*ast.AlterTable)
	assert.Equal(t, "t", at.Table.Name)
	require.Len(t, at.Specs, 12)

	add := at.Specs[0].(*ast.AddColumns)
	assert.Equal(t, "c", add.Columns[0].Name)
	assert.Equal(t, "b", add.After)
	assert.Equal(t, "d", at.Specs[1].(*ast.DropColumn).Name)
	change := at.Specs[2].(*ast.ChangeColumn)
	assert.Equal(t, "e", change.Old)
	assert.Equal(t, "f", change.Column.Name)
	modify := at.Specs[3].(*ast.ChangeColumn)
	assert.True(t, modify.Modify)
	assert.Equal(t, "g", modify.Old)
	assert.Equal(t, "idx", at.Specs[4].(*ast.AddIndex).Index.Name)
	assert.Equal(t, "old", at.Specs[5].(*ast.DropIndex).Name)
	assert.Equal(t, "i", at.Specs[6].(*ast.RenameColumn).New)
	assert.NotNil(t, at.Specs[7].(*ast.AlterColumnDefault).Default)
	assert.Equal(t, "InnoDB", at.Specs[8].(*ast.TableOptions).Options[0].Value)
	assert.Equal(t, "fk", at.Specs[9].(*ast.AddForeignKey).ForeignKey.Name)
	assert.IsType(t, &ast.DropPrimaryKey{}, at.Specs[10])
	assert.Equal(t, "t2", at.Specs[11].(*ast.RenameTo).Table.Name)
}

func TestParseAlterAddColumnList(t *testing.T) {
	at := mustParse(t, "ALTER TABLE t ADD (a int, b text)").(*ast.AlterTable)
	require.Len(t, at.Specs, 1)
	assert.Len(t, at.Specs[0].(*ast.AddColumns).Columns, 2)
}

func TestParseOtherDDL(t *testing.T) {
	ci := mustParse(t, "CREATE UNIQUE INDEX u_email ON wp_users (user_email(50))").(*ast.CreateIndex)
	assert.Equal(t, ast.IndexUnique, ci.Index.Kind)
	assert.Equal(t, "u_email", ci.Index.Name)
	assert.Equal(t, 50, ci.Index.Columns[0].Length)

	di := mustParse(t, "DROP INDEX u_email ON wp_users").(*ast.DropIndexStmt)
	assert.Equal(t, "u_email", di.Name)

	dt := mustParse(t, "DROP TABLE IF EXISTS a, b").(*ast.DropTable)
	assert.True(t, dt.IfExists)
	assert.Len(t, dt.Tables, 2)

	rt := mustParse(t, "RENAME TABLE a TO b, c TO d").(*ast.RenameTable)
	assert.Len(t, rt.Pairs, 2)
	assert.Equal(t, "d", rt.Pairs[1].To.Name)

	tr := mustParse(t, "TRUNCATE TABLE wp_posts").(*ast.Truncate)
	assert.Equal(t, "wp_posts", tr.Table.Name)
}

func TestParseShow(t *testing.T) {
	tests := []struct {
		sql    string
		kind   ast.ShowKind
		full   bool
		global bool
		table  string
		db     string
		like   bool
		where  bool
	}{
		{sql: "SHOW TABLES LIKE 'wp_%'", kind: ast.ShowTables, like: true},
		{sql: "SHOW FULL TABLES FROM wp", kind: ast.ShowTables, full: true, db: "wp"},
		{sql: "SHOW FULL COLUMNS FROM wp_posts", kind: ast.ShowColumns, full: true, table: "wp_posts"},
		{sql: "SHOW FIELDS IN wp_posts FROM wp LIKE 'post%'", kind: ast.ShowColumns, table: "wp_posts", db: "wp", like: true},
		{sql: "SHOW INDEX FROM wp_posts", kind: ast.ShowIndex, table: "wp_posts"},
		{sql: "SHOW KEYS IN wp_posts WHERE Key_name = 'PRIMARY'", kind: ast.ShowIndex, table: "wp_posts", where: true},
		{sql: "SHOW TABLE STATUS LIKE 't'", kind: ast.ShowTableStatus, like: true},
		{sql: "SHOW CREATE TABLE wp.wp_posts", kind: ast.ShowCreateTable, table: "wp_posts", db: "wp"},
		{sql: "SHOW DATABASES", kind: ast.ShowDatabases},
		{sql: "SHOW GLOBAL VARIABLES LIKE 'max%'", kind: ast.ShowVariables, global: true, like: true},
		{sql: "SHOW SESSION VARIABLES", kind: ast.ShowVariables},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			show := mustParse(t, tt.sql).(*ast.Show)
			assert.Equal(t, tt.kind, show.Kind)
			assert.Equal(t, tt.full, show.Full)
			assert.Equal(t, tt.global, show.Global)
			if tt.table != "" {
				require.NotNil(t, show.Table)
				assert.Equal(t, tt.table, show.Table.Name)
			} else {
				assert.Nil(t, show.Table)
			}
			assert.Equal(t, tt.db, show.Database)
			assert.Equal(t, tt.like, show.Like != nil)
			assert.Equal(t, tt.where, show.Where != nil)
		})
	}
}

func TestParseDescribeAndMaintenance(t *testing.T) {
	d := mustParse(t, "DESCRIBE wp_posts").(*ast.Describe)
	assert.Equal(t, "wp_posts", d.Table.Name)
	assert.Empty(t, d.Column)

	dc := mustParse(t, "DESC wp_posts post_title").(*ast.Describe)
	assert.Equal(t, "post_title", dc.Column)

	_, err := Parse("EXPLAIN SELECT 1")
	require.Error(t, err)

	tests := []struct {
		sql    string
		op     string
		tables int
	}{
		{"CHECK TABLE t", "CHECK", 1},
		{"OPTIMIZE TABLE a, b", "OPTIMIZE", 2},
		{"OPTIMIZE NO_WRITE_TO_BINLOG TABLE a", "OPTIMIZE", 1},
		{"REPAIR TABLE a QUICK", "REPAIR", 1},
		{"ANALYZE TABLE a", "ANALYZE", 1},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			tm := mustParse(t, tt.sql).(*ast.TableMaintenance)
			assert.Equal(t, tt.op, tm.Op)
			assert.Len(t, tm.Tables, tt.tables)
		})
	}
}

func TestParseTransactionControl(t *testing.T) {
	tests := []struct {
		sql  string
		kind ast.TxKind
		name string
	}{
		{"START TRANSACTION", ast.TxBegin, ""},
		{"START TRANSACTION READ ONLY", ast.TxBegin, ""},
		{"BEGIN WORK", ast.TxBegin, ""},
		{"COMMIT", ast.TxCommit, ""},
		{"ROLLBACK", ast.TxRollback, ""},
		{"SAVEPOINT sp1", ast.TxSavepoint, "sp1"},
		{"RELEASE SAVEPOINT sp1", ast.TxRelease, "sp1"},
		{"ROLLBACK TO SAVEPOINT sp1", ast.TxRollbackTo, "sp1"},
		{"ROLLBACK WORK TO sp2", ast.TxRollbackTo, "sp2"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			tx := mustParse(t, tt.sql).(*ast.Transaction)
			assert.Equal(t, tt.kind, tx.Kind)
			assert.Equal(t, tt.name, tx.Name)
		})
	}
}

func TestParseSet(t *testing.T) {
	names := mustParse(t, "SET NAMES utf8mb4 COLLATE utf8mb4_unicode_ci").(*ast.Set)
	assert.Equal(t, "utf8mb4", names.Names)
	assert.Equal(t, "utf8mb4_unicode_ci", names.Collate)

	set := mustParse(t, "SET SESSION sql_mode = 'ANSI', @x = 5, @@GLOBAL.time_zone = '+00:00', autocommit = ON").(*ast.Set)
	require.Len(t, set.Assignments, 4)
	assert.Equal(t, "SESSION", set.Assignments[0].Scope)
	assert.Equal(t, "sql_mode", set.Assignments[0].Name)
	assert.True(t, set.Assignments[1].User)
	assert.Equal(t, "x", set.Assignments[1].Name)
	assert.Equal(t, "GLOBAL", set.Assignments[2].Scope)
	assert.Equal(t, "time_zone", set.Assignments[2].Name)
	assert.Equal(t, "ON", set.Assignments[3].Value.(*ast.Literal).Value)

	tx := mustParse(t, "SET TRANSACTION ISOLATION LEVEL READ COMMITTED").(*ast.Set)
	assert.Equal(t, "TRANSACTION ISOLATION LEVEL READ COMMITTED", tx.Transaction)
}

func TestParseUseAndLocks(t *testing.T) {
	use := mustParse(t, "USE wordpress").(*ast.Use)
	assert.Equal(t, "wordpress", use.Database)

	lock := mustParse(t, "LOCK TABLES t1 READ, t2 AS x LOW_PRIORITY WRITE").(*ast.LockTables)
	assert.False(t, lock.Unlock)
	require.Len(t, lock.Tables, 2)
	assert.Equal(t, "x", lock.Tables[1].Alias)

	unlock := mustParse(t, "UNLOCK TABLES").(*ast.LockTables)
	assert.True(t, unlock.Unlock)
}

func TestParseAll(t *testing.T) {
	stmts, err := New(grammar.Default()).ParseAll("CREATE TABLE a (id int); ; INSERT INTO a VALUES (?); SELECT ? FROM a;")
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.IsType(t, &ast.CreateTable{}, stmts[0])
	assert.IsType(t, &ast.Insert{}, stmts[1])
	sel := stmts[2].(*ast.Select).Body.(*ast.QuerySpec)
	assert.Equal(t, 0, sel.Items[0].Expr.(*ast.Param).Index)
}

func TestParseSpans(t *testing.T) {
	src := "SELECT  CONCAT(a, 'x')  AS c FROM t"
	sel := mustParse(t, src).(*ast.Select)
	item := sel.Body.(*ast.QuerySpec).Items[0]
	assert.Equal(t, "CONCAT(a, 'x')", item.Expr.NodeSpan().Text(src))
	assert.Equal(t, "CONCAT(a, 'x')  AS c", item.Span.Text(src))
	assert.Equal(t, src, sel.Span.Text(src))
}

func TestParseDeterministic(t *testing.T) {
	first := mustParse(t, wpPosts)
	second := mustParse(t, wpPosts)
	assert.Equal(t, first, second)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		message string
	}{
		{"missing expression", "SELECT FROM t", `syntax error at line 1, column 8: expected expression, found keyword "FROM"`},
		{"trailing tokens", "SELECT 1 2", `syntax error at line 1, column 10: expected end of statement, found number "2"`},
		{"named window", "SELECT a FROM t WINDOW w AS ()", `syntax error at line 1, column 24: named WINDOW clauses are not supported near identifier "w"`},
		{"limit expression", "UPDATE t SET a = 1 LIMIT b", `syntax error at line 1, column 26: expected number or parameter, found identifier "b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.message, err.Error())
		})
	}

	_, err := Parse("SELEC 1")
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Expected, "SELECT")
	assert.Contains(t, se.Expected, "ALTER")

	_, err = Parse("SELECT 'abc")
	var le *lexer.LexError
	assert.True(t, errors.As(err, &le))
}

func TestParseDataType(t *testing.T) {
	p := New(grammar.Default())

	dt, err := p.ParseDataType("bigint(20) unsigned")
	require.NoError(t, err)
	assert.Equal(t, "BIGINT", dt.Name)
	assert.Equal(t, []string{"20"}, dt.Args)
	assert.True(t, dt.Unsigned)

	dt, err = p.ParseDataType("enum('a','it''s')")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "it's"}, dt.Values)

	_, err = p.ParseDataType("varchar(10) garbage")
	var syn *SyntaxError
	assert.True(t, errors.As(err, &syn))
}

func TestParseExpr(t *testing.T) {
	p := New(grammar.Default())

	e, err := p.ParseExpr("a + 1")
	require.NoError(t, err)
	assert.Equal(t, "+", e.(*ast.Binary).Op)

	_, err = p.ParseExpr("a +")
	assert.Error(t, err)
}
