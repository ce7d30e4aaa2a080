package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Prefix is reserved for tables, indexes and triggers owned by the
// translator.
const Prefix = "_wp_sqlite_"

// Catalog table names.
const (
	TablesTable                 = Prefix + "mysql_information_schema_tables"
	ColumnsTable                = Prefix + "mysql_information_schema_columns"
	StatisticsTable             = Prefix + "mysql_information_schema_statistics"
	TableConstraintsTable       = Prefix + "mysql_information_schema_table_constraints"
	KeyColumnUsageTable         = Prefix + "mysql_information_schema_key_column_usage"
	ReferentialConstraintsTable = Prefix + "mysql_information_schema_referential_constraints"
	CheckConstraintsTable       = Prefix + "mysql_information_schema_check_constraints"
	TypeCacheTable              = Prefix + "mysql_data_types_cache"
)

// InformationSchemaTables maps the information_schema tables the catalog
// answers to their backing table.
var InformationSchemaTables = map[string]string{
	"tables":                  TablesTable,
	"columns":                 ColumnsTable,
	"statistics":              StatisticsTable,
	"table_constraints":       TableConstraintsTable,
	"key_column_usage":        KeyColumnUsageTable,
	"referential_constraints": ReferentialConstraintsTable,
	"check_constraints":       CheckConstraintsTable,
}

// IsReserved reports a name in the translator's namespace or SQLite's.
func IsReserved(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, Prefix) || strings.HasPrefix(lower, "sqlite_")
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS ` + TablesTable + ` (
		table_catalog TEXT NOT NULL DEFAULT 'def',
		table_schema TEXT NOT NULL,
		table_name TEXT NOT NULL,
		table_type TEXT NOT NULL,
		engine TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 10,
		row_format TEXT NOT NULL,
		table_rows INTEGER NOT NULL DEFAULT 0,
		avg_row_length INTEGER NOT NULL DEFAULT 0,
		data_length INTEGER NOT NULL DEFAULT 0,
		max_data_length INTEGER NOT NULL DEFAULT 0,
		index_length INTEGER NOT NULL DEFAULT 0,
		data_free INTEGER NOT NULL DEFAULT 0,
		auto_increment INTEGER,
		create_time TEXT NOT NULL,
		update_time TEXT,
		check_time TEXT,
		table_collation TEXT NOT NULL,
		checksum INTEGER,
		create_options TEXT NOT NULL DEFAULT '',
		table_comment TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (table_schema, table_name)
	)`,
	`CREATE TABLE IF NOT EXISTS ` + ColumnsTable + ` (
		table_catalog TEXT NOT NULL DEFAULT 'def',
		table_schema TEXT NOT NULL,
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		ordinal_position INTEGER NOT NULL,
		column_default TEXT,
		is_nullable TEXT NOT NULL,
		data_type TEXT NOT NULL,
		character_maximum_length INTEGER,
		character_octet_length INTEGER,
		numeric_precision INTEGER,
		numeric_scale INTEGER,
		datetime_precision INTEGER,
		character_set_name TEXT,
		collation_name TEXT,
		column_type TEXT NOT NULL,
		column_key TEXT NOT NULL DEFAULT '',
		extra TEXT NOT NULL DEFAULT '',
		privileges TEXT NOT NULL DEFAULT 'select,insert,update,references',
		column_comment TEXT NOT NULL DEFAULT '',
		generation_expression TEXT NOT NULL DEFAULT '',
		srs_id INTEGER,
		PRIMARY KEY (table_schema, table_name, column_name)
	)`,
	`CREATE TABLE IF NOT EXISTS ` + StatisticsTable + ` (
		table_catalog TEXT NOT NULL DEFAULT 'def',
		table_schema TEXT NOT NULL,
		table_name TEXT NOT NULL,
		non_unique INTEGER NOT NULL,
		index_schema TEXT NOT NULL,
		index_name TEXT NOT NULL,
		seq_in_index INTEGER NOT NULL,
		column_name TEXT NOT NULL,
		collation TEXT,
		cardinality INTEGER NOT NULL DEFAULT 0,
		sub_part INTEGER,
		packed TEXT,
		nullable TEXT NOT NULL DEFAULT '',
		index_type TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		index_comment TEXT NOT NULL DEFAULT '',
		is_visible TEXT NOT NULL DEFAULT 'YES',
		expression TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ` + TableConstraintsTable + ` (
		constraint_catalog TEXT NOT NULL DEFAULT 'def',
		constraint_schema TEXT NOT NULL,
		constraint_name TEXT NOT NULL,
		table_schema TEXT NOT NULL,
		table_name TEXT NOT NULL,
		constraint_type TEXT NOT NULL,
		enforced TEXT NOT NULL DEFAULT 'YES'
	)`,
	`CREATE TABLE IF NOT EXISTS ` + KeyColumnUsageTable + ` (
		constraint_catalog TEXT NOT NULL DEFAULT 'def',
		constraint_schema TEXT NOT NULL,
		constraint_name TEXT NOT NULL,
		table_catalog TEXT NOT NULL DEFAULT 'def',
		table_schema TEXT NOT NULL,
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		ordinal_position INTEGER NOT NULL,
		position_in_unique_constraint INTEGER,
		referenced_table_schema TEXT,
		referenced_table_name TEXT,
		referenced_column_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ` + ReferentialConstraintsTable + ` (
		constraint_catalog TEXT NOT NULL DEFAULT 'def',
		constraint_schema TEXT NOT NULL,
		constraint_name TEXT NOT NULL,
		unique_constraint_catalog TEXT NOT NULL DEFAULT 'def',
		unique_constraint_schema TEXT NOT NULL,
		unique_constraint_name TEXT,
		match_option TEXT NOT NULL DEFAULT 'NONE',
		update_rule TEXT NOT NULL,
		delete_rule TEXT NOT NULL,
		table_name TEXT NOT NULL,
		referenced_table_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + CheckConstraintsTable + ` (
		constraint_catalog TEXT NOT NULL DEFAULT 'def',
		constraint_schema TEXT NOT NULL,
		constraint_name TEXT NOT NULL,
		check_clause TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + TypeCacheTable + ` (
		` + "`table`" + ` TEXT NOT NULL,
		column_or_index TEXT NOT NULL,
		mysql_type TEXT NOT NULL,
		PRIMARY KEY (` + "`table`" + `, column_or_index)
	)`,
}

// Executor is the part of *sql.DB, *sql.Conn and *sql.Tx the catalog uses.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// EnsureSchema creates the catalog tables that do not exist yet.
func EnsureSchema(ctx context.Context, exec Executor) error {
	for _, ddl := range schemaDDL {
		if _, err := exec.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create catalog table: %w", err)
		}
	}
	return nil
}
