package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetsDDL = `CREATE TABLE wp_widgets (
	id bigint(20) unsigned NOT NULL AUTO_INCREMENT,
	name varchar(200) NOT NULL DEFAULT '',
	body longtext,
	price decimal(10,2) DEFAULT '0.00',
	created datetime NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	owner_id bigint(20) unsigned,
	PRIMARY KEY (id),
	UNIQUE KEY name (name),
	KEY body (body),
	CONSTRAINT fk_owner FOREIGN KEY (owner_id) REFERENCES wp_users (ID) ON DELETE CASCADE
) DEFAULT CHARSET=utf8mb4`

// the native schema the translator creates for widgetsDDL
var widgetsNative = []string{
	"CREATE TABLE `wp_widgets` (`id` INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, " +
		"`name` TEXT NOT NULL DEFAULT '' COLLATE NOCASE, `body` TEXT COLLATE NOCASE, " +
		"`price` REAL DEFAULT '0.00', `created` TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP, `owner_id` INTEGER, " +
		"CONSTRAINT `fk_owner` FOREIGN KEY (`owner_id`) REFERENCES `wp_users` (`ID`) ON DELETE CASCADE)",
	"CREATE UNIQUE INDEX `wp_widgets__name` ON `wp_widgets` (`name`)",
	"CREATE INDEX `wp_widgets__body` ON `wp_widgets` (`body`)",
	"CREATE INDEX `wp_widgets__fk_owner` ON `wp_widgets` (`owner_id`)",
	"CREATE TRIGGER `_wp_sqlite_wp_widgets_created_on_update` AFTER UPDATE ON `wp_widgets` FOR EACH ROW " +
		"BEGIN UPDATE `wp_widgets` SET `created` = CURRENT_TIMESTAMP WHERE rowid = NEW.rowid; END",
}

func newTestReconstructor(t *testing.T, b *Builder, conf ReconstructorConfig) *Reconstructor {
	t.Helper()
	r, err := NewReconstructor(b, conf)
	require.NoError(t, err)
	return r
}

func TestReconstructMatchesIncremental(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)
	b := newTestBuilder()
	execAll(t, conn, widgetsNative...)
	require.NoError(t, b.CreateTable(ctx, conn, mustCreateTable(t, widgetsDDL)))
	incremental := dumpCatalog(t, conn)

	clearCatalog(t, conn)
	r := newTestReconstructor(t, b, ReconstructorConfig{})
	require.NoError(t, r.EnsureCorrectInformationSchema(ctx, conn))
	assert.Equal(t, incremental, dumpCatalog(t, conn))

	// a second pass finds nothing to do
	require.NoError(t, r.EnsureCorrectInformationSchema(ctx, conn))
	assert.Equal(t, incremental, dumpCatalog(t, conn))
}

func TestReconstructWithoutTypeCache(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)
	execAll(t, conn,
		`CREATE TABLE notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL COLLATE NOCASE,
			body TEXT,
			score REAL DEFAULT 0,
			data BLOB,
			amount NUMERIC,
			label VARCHAR(30) DEFAULT 'it''s'
		)`,
		"CREATE INDEX `notes__title` ON notes (title)",
		"CREATE UNIQUE INDEX legacy_idx ON notes (score DESC)",
		"INSERT INTO notes (title, score) VALUES ('a', 1), ('b', 2)",
	)
	r := newTestReconstructor(t, newTestBuilder(), ReconstructorConfig{})
	require.NoError(t, r.EnsureCorrectInformationSchema(ctx, conn))

	tbl, err := NewReader("wordpress").Load(ctx, conn, "notes")
	require.NoError(t, err)

	types := map[string]string{}
	for _, c := range tbl.Columns {
		types[c.Name] = c.Type.ColumnType()
	}
	assert.Equal(t, map[string]string{
		"id": "int", "title": "text", "body": "text", "score": "double",
		"data": "longblob", "amount": "decimal(10,0)", "label": "varchar(30)",
	}, types)

	assert.True(t, tbl.Column("id").AutoIncrement)
	assert.Equal(t, DefaultCollation, tbl.Column("title").Collation)
	assert.Equal(t, "utf8mb4_bin", tbl.Column("body").Collation)
	assert.Equal(t, "0", *tbl.Column("score").Default)
	assert.Equal(t, "it's", *tbl.Column("label").Default)
	assert.Equal(t, int64(3), tbl.AutoIncrement)

	require.Len(t, tbl.Indexes, 3)
	assert.Equal(t, PrimaryName, tbl.Indexes[0].Name)
	assert.Equal(t, "score", tbl.Indexes[1].Name)
	assert.Equal(t, IndexUnique, tbl.Indexes[1].Kind)
	assert.True(t, tbl.Indexes[1].Columns[0].Desc)
	assert.Equal(t, "title", tbl.Indexes[2].Name)
	assert.Equal(t, DefaultLOBSubPart, tbl.Indexes[2].Columns[0].SubPart)
}

func TestReconstructWordPressDefaults(t *testing.T) {
	native := `CREATE TABLE %s (
		option_id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		option_name TEXT NOT NULL DEFAULT '' COLLATE NOCASE,
		option_value TEXT NOT NULL COLLATE NOCASE,
		autoload TEXT NOT NULL DEFAULT 'yes' COLLATE NOCASE
	)`
	tests := []struct {
		name      string
		table     string
		multisite bool
		want      string
	}{
		{"single site", "wp_options", false, "varchar(191)"},
		{"multisite", "wp_2_options", true, "varchar(191)"},
		{"multisite off", "wp_2_options", false, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			conn := openTestConn(t)
			execAll(t, conn, fmt.Sprintf(native, tt.table))
			r := newTestReconstructor(t, newTestBuilder(), ReconstructorConfig{Multisite: tt.multisite})
			require.NoError(t, r.EnsureCorrectInformationSchema(ctx, conn))

			tbl, err := NewReader("wordpress").Load(ctx, conn, tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tbl.Column("option_name").Type.ColumnType())
			if tt.want == "varchar(191)" {
				assert.Equal(t, "utf8mb4_unicode_520_ci", tbl.Collation)
				assert.Equal(t, "bigint(20) unsigned", tbl.Column("option_id").Type.ColumnType())
				assert.Equal(t, "UNI", tbl.ColumnKey("option_name"))
				assert.NotNil(t, tbl.Index("autoload"))
			}
		})
	}
}

func TestReconstructDefaultWithDifferentColumns(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)
	execAll(t, conn, "CREATE TABLE wp_options (option_id INTEGER PRIMARY KEY, extra TEXT)")
	r := newTestReconstructor(t, newTestBuilder(), ReconstructorConfig{})
	require.NoError(t, r.EnsureCorrectInformationSchema(ctx, conn))

	tbl, err := NewReader("wordpress").Load(ctx, conn, "wp_options")
	require.NoError(t, err)
	assert.Equal(t, []string{"option_id", "extra"}, tbl.ColumnNames())
	assert.Equal(t, DefaultCollation, tbl.Collation)
}

func TestReconstructDropsStaleAndSkipsIgnored(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)
	b := newTestBuilder()
	require.NoError(t, b.CreateTable(ctx, conn, mustCreateTable(t, "CREATE TABLE stale (a int)")))
	execAll(t, conn,
		"CREATE TABLE cache_items (k TEXT)",
		"CREATE TABLE kept (k TEXT)",
	)
	r := newTestReconstructor(t, b, ReconstructorConfig{IgnoreTables: []string{"cache_*"}})
	require.NoError(t, r.EnsureCorrectInformationSchema(ctx, conn))

	names, err := NewReader("wordpress").Tables(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, names)
}

func TestReconstructRegeneratesChangedColumns(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)
	b := newTestBuilder()
	require.NoError(t, b.CreateTable(ctx, conn, mustCreateTable(t, "CREATE TABLE t (a int)")))
	execAll(t, conn, "CREATE TABLE t (a INTEGER, b TEXT)")

	r := newTestReconstructor(t, b, ReconstructorConfig{})
	require.NoError(t, r.EnsureCorrectInformationSchema(ctx, conn))

	tbl, err := NewReader("wordpress").Load(ctx, conn, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
	// the cached type of a survives
	assert.Equal(t, "int", tbl.Column("a").Type.ColumnType())
}

func TestReconstructUnknownType(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)
	execAll(t, conn, "CREATE TABLE odd (x WIBBLE)")
	r := newTestReconstructor(t, newTestBuilder(), ReconstructorConfig{})

	err := r.EnsureCorrectInformationSchema(ctx, conn)
	var recErr *ReconstructError
	require.True(t, errors.As(err, &recErr), "unexpected error: %v", err)
	assert.Equal(t, "odd", recErr.Table)
}

func TestReconstructorBadPattern(t *testing.T) {
	_, err := NewReconstructor(newTestBuilder(), ReconstructorConfig{IgnoreTables: []string{"[a"}})
	assert.Error(t, err)
}

func TestRegenerateChange(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)
	b := newTestBuilder()
	execAll(t, conn, "CREATE TABLE made (id INTEGER PRIMARY KEY, v TEXT COLLATE NOCASE, CHECK (id > 0))")
	require.NoError(t, b.Apply(ctx, conn, &RegenerateTableChange{Name: "made"}))

	tbl, err := NewReader("wordpress").Load(ctx, conn, "made")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, tbl.Primary().ColumnNames())
	require.Len(t, tbl.Checks, 1)
	assert.Equal(t, "made_chk_1", tbl.Checks[0].Name)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		declared string
		want     string
	}{
		{"", "text"},
		{"INTEGER", "int"},
		{"BIGINT", "bigint"},
		{"UNSIGNED BIG INT", "int"},
		{"VARCHAR(10)", "varchar(10)"},
		{"CLOB", "text"},
		{"BLOB", "longblob"},
		{"REAL", "double"},
		{"DOUBLE PRECISION", "double"},
		{"NUMERIC", "decimal(10,0)"},
		{"BOOLEAN", "tinyint(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			typ, err := inferType(tt.declared)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.ColumnType())
		})
	}

	_, err := inferType("WIBBLE")
	assert.Error(t, err)
}

func TestNativeDefault(t *testing.T) {
	tests := []struct {
		text     string
		column   string
		want     *string
		wantExpr bool
	}{
		{"NULL", "int", nil, false},
		{"'it''s'", "text", ptr("it's"), false},
		{"CURRENT_TIMESTAMP", "datetime", ptr("CURRENT_TIMESTAMP"), true},
		{"(1 + 2)", "int", ptr("1 + 2"), true},
		{"X'00FF'", "blob", ptr("X'00FF'"), true},
		{"5", "decimal(6,2)", ptr("5.00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			typ, err := ParseType(tt.column)
			require.NoError(t, err)
			col := &Column{Type: typ}
			nativeDefault(col, tt.text)
			assert.Equal(t, tt.want, col.Default)
			assert.Equal(t, tt.wantExpr, col.DefaultExpr)
		})
	}
}

func TestDoubleQuoted(t *testing.T) {
	assert.Equal(t, `CREATE TABLE "t" ("a""b" TEXT DEFAULT '`+"`x`"+`')`,
		doubleQuoted("CREATE TABLE `t` (`a\"b` TEXT DEFAULT '`x`')"))
	assert.Equal(t, `"we`+"`"+`ird"`, doubleQuoted("`we``ird`"))
}
