package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/parser"
)

func alterTable(t *testing.T, old *Table, sql string) (*Alteration, error) {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	at, ok := stmt.(*ast.AlterTable)
	require.True(t, ok, "not an ALTER TABLE: %T", stmt)
	return Alter(old, at, sql)
}

func mustAlter(t *testing.T, old *Table, sql string) *Alteration {
	t.Helper()
	a, err := alterTable(t, old, sql)
	require.NoError(t, err)
	return a
}

const usersDDL = `CREATE TABLE users (
	id int NOT NULL AUTO_INCREMENT,
	login varchar(60) NOT NULL DEFAULT '',
	email varchar(100) NOT NULL DEFAULT '',
	PRIMARY KEY (id),
	KEY login_email (login, email),
	UNIQUE KEY email (email)
)`

func TestAlterAddColumn(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	a := mustAlter(t, old, "ALTER TABLE users ADD COLUMN nick varchar(20) AFTER id, ADD age int FIRST")

	assert.Equal(t, []string{"age", "id", "nick", "login", "email"}, a.New.ColumnNames())
	assert.Equal(t, []string{"id", "login", "email"}, old.ColumnNames())
	assert.True(t, a.Rebuild)
	assert.Equal(t, map[string]string{"id": "id", "login": "login", "email": "email"}, a.Sources)
}

func TestAlterDropColumnShrinksKeys(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	a := mustAlter(t, old, "ALTER TABLE users DROP COLUMN login")

	assert.Equal(t, []string{"id", "email"}, a.New.ColumnNames())
	idx := a.New.Index("login_email")
	require.NotNil(t, idx)
	assert.Equal(t, []string{"email"}, idx.ColumnNames())
	assert.Equal(t, []string{"login", "email"}, old.Index("login_email").ColumnNames())
	_, ok := a.Sources["login"]
	assert.False(t, ok)
}

func TestAlterChangeColumn(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	a := mustAlter(t, old, "ALTER TABLE users CHANGE login user_login varchar(80) NOT NULL")

	assert.Equal(t, []string{"id", "user_login", "email"}, a.New.ColumnNames())
	assert.Equal(t, "login", a.Sources["user_login"])
	assert.Equal(t, "varchar(80)", a.New.Column("user_login").Type.ColumnType())
	assert.Nil(t, a.New.Column("user_login").Default)
	assert.Equal(t, []string{"user_login", "email"}, a.New.Index("login_email").ColumnNames())
}

func TestAlterModifyAndRenameColumn(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	a := mustAlter(t, old, "ALTER TABLE users MODIFY email varchar(191) NOT NULL FIRST, RENAME COLUMN login TO handle")
	assert.Equal(t, []string{"email", "id", "handle"}, a.New.ColumnNames())
	assert.Equal(t, "login", a.Sources["handle"])
	assert.Equal(t, "email", a.Sources["email"])
}

func TestAlterIndexes(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	a := mustAlter(t, old, "ALTER TABLE users ADD INDEX login (login), DROP INDEX email, RENAME INDEX login_email TO le")

	assert.False(t, a.Rebuild)
	require.Len(t, a.AddedIndexes, 2)
	assert.Equal(t, "login", a.AddedIndexes[0].Name)
	assert.Equal(t, "le", a.AddedIndexes[1].Name)
	require.Len(t, a.DroppedIndexes, 2)
	assert.Equal(t, "email", a.DroppedIndexes[0].Name)
	assert.Equal(t, "login_email", a.DroppedIndexes[1].Name)
	assert.Nil(t, a.New.Index("email"))
	assert.NotNil(t, a.New.Index("le"))
}

func TestAlterPrimaryKey(t *testing.T) {
	old := mustCreateTable(t, "CREATE TABLE t (a int NOT NULL, b int NOT NULL, PRIMARY KEY (a))")
	a := mustAlter(t, old, "ALTER TABLE t DROP PRIMARY KEY, ADD PRIMARY KEY (a, b)")
	assert.True(t, a.Rebuild)
	assert.Equal(t, []string{"a", "b"}, a.New.Primary().ColumnNames())
	assert.Equal(t, "PRI", a.New.ColumnKey("b"))
}

func TestAlterDefaults(t *testing.T) {
	old := mustCreateTable(t, "CREATE TABLE t (a decimal(5,2) DEFAULT 1, b int DEFAULT 3)")
	a := mustAlter(t, old, "ALTER TABLE t ALTER a SET DEFAULT 2.5, ALTER COLUMN b DROP DEFAULT")
	assert.Equal(t, "2.50", *a.New.Column("a").Default)
	assert.Nil(t, a.New.Column("b").Default)
}

func TestAlterConstraints(t *testing.T) {
	old := mustCreateTable(t, `CREATE TABLE c (
		id int PRIMARY KEY,
		p int,
		CONSTRAINT fk_p FOREIGN KEY (p) REFERENCES parent (id),
		CHECK (id > 0)
	)`)

	a := mustAlter(t, old, "ALTER TABLE c DROP FOREIGN KEY fk_p, ADD CHECK (p < 10)")
	assert.Empty(t, a.New.ForeignKeys)
	require.Len(t, a.New.Checks, 2)
	assert.Equal(t, "c_chk_2", a.New.Checks[1].Name)
	// the key created for the foreign key stays
	assert.NotNil(t, a.New.Index("fk_p"))

	a = mustAlter(t, old, "ALTER TABLE c DROP CONSTRAINT c_chk_1")
	assert.Empty(t, a.New.Checks)

	_, err := alterTable(t, old, "ALTER TABLE c DROP COLUMN p")
	requireMySQLError(t, err, 1828)

	_, err = alterTable(t, old, "ALTER TABLE c DROP CONSTRAINT nope")
	requireMySQLError(t, err, 3940)
}

func TestAlterRenameAndOptions(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	a := mustAlter(t, old, "ALTER TABLE users RENAME TO members, ENGINE=MyISAM, COMMENT='people'")
	assert.True(t, a.Renamed())
	assert.False(t, a.Rebuild)
	assert.Equal(t, "members", a.New.Name)
	assert.Equal(t, "MyISAM", a.New.Engine)
	assert.Equal(t, "people", a.New.Comment)
}

func TestAlterConvertCharset(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	a := mustAlter(t, old, "ALTER TABLE users CONVERT TO CHARACTER SET latin1")
	assert.Equal(t, "latin1_swedish_ci", a.New.Collation)
	assert.Equal(t, "latin1", a.New.Column("login").Charset)
	assert.Equal(t, "utf8mb4", old.Column("login").Charset)
}

func TestAlterErrors(t *testing.T) {
	old := mustCreateTable(t, usersDDL)
	tests := []struct {
		name string
		sql  string
		code uint16
	}{
		{"drop missing column", "ALTER TABLE users DROP COLUMN nope", protocol.ErrCodeCantDropFieldOrKey},
		{"drop missing index", "ALTER TABLE users DROP INDEX nope", protocol.ErrCodeCantDropFieldOrKey},
		{"duplicate column", "ALTER TABLE users ADD COLUMN LOGIN int", protocol.ErrCodeDupFieldName},
		{"change missing column", "ALTER TABLE users CHANGE nope x int", protocol.ErrCodeBadField},
		{"after missing column", "ALTER TABLE users ADD x int AFTER nope", protocol.ErrCodeBadField},
		{"rename missing index", "ALTER TABLE users RENAME INDEX nope TO x", protocol.ErrCodeNoSuchIndex},
		{"second primary key", "ALTER TABLE users ADD PRIMARY KEY (email)", protocol.ErrCodeMultiplePriKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := alterTable(t, old, tt.sql)
			requireMySQLError(t, err, tt.code)
		})
	}
}
