package transform

import (
	"fmt"
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// SHOW statements become SELECTs over the catalog tables. The inner query
// names its columns the way MySQL does; LIKE and WHERE filter the outer one.

var showColumnsFields = []string{
	"column_name AS `Field`",
	"column_type AS `Type`",
	"collation_name AS `Collation`",
	"is_nullable AS `Null`",
	"column_key AS `Key`",
	"column_default AS `Default`",
	"extra AS `Extra`",
	"privileges AS `Privileges`",
	"column_comment AS `Comment`",
}

var showIndexFields = []string{
	"`Table`", "`Non_unique`", "`Key_name`", "`Seq_in_index`", "`Column_name`",
	"`Collation`", "`Cardinality`", "`Sub_part`", "`Packed`", "`Null`",
	"`Index_type`", "`Comment`", "`Index_comment`", "`Visible`", "`Expression`",
}

var showTableStatusFields = []string{
	"table_name AS `Name`",
	"engine AS `Engine`",
	"version AS `Version`",
	"row_format AS `Row_format`",
	"table_rows AS `Rows`",
	"avg_row_length AS `Avg_row_length`",
	"data_length AS `Data_length`",
	"max_data_length AS `Max_data_length`",
	"index_length AS `Index_length`",
	"data_free AS `Data_free`",
	"auto_increment AS `Auto_increment`",
	"create_time AS `Create_time`",
	"update_time AS `Update_time`",
	"check_time AS `Check_time`",
	"table_collation AS `Collation`",
	"checksum AS `Checksum`",
	"create_options AS `Create_options`",
	"table_comment AS `Comment`",
}

func (l *lowerer) show(sh *ast.Show) error {
	switch sh.Kind {
	case ast.ShowTables:
		return l.showTables(sh)
	case ast.ShowColumns:
		return l.showColumns(sh.Table, sh.Full, "", sh)
	case ast.ShowIndex:
		return l.showIndex(sh)
	case ast.ShowTableStatus:
		return l.showTableStatus(sh)
	case ast.ShowCreateTable:
		return l.showCreateTable(sh.Table)
	case ast.ShowDatabases:
		return l.showDatabases(sh)
	case ast.ShowVariables:
		return l.showVariables(sh)
	}
	return unsupported("SHOW %d", sh.Kind)
}

// showDatabase resolves SHOW ... FROM db against the current database.
func (l *lowerer) showDatabase(name string) error {
	if name != "" && !strings.EqualFold(name, l.database()) {
		return protocol.Errorf(protocol.ErrCodeBadDB, protocol.SQLStateSyntax, "Unknown database '%s'", name)
	}
	l.schemaUsed = true
	return nil
}

// filtered wraps the inner query written by inner with the statement's LIKE
// or WHERE, matching LIKE against column.
func (l *lowerer) filtered(sh *ast.Show, column, order string, inner func(s *SQLiteSerializer)) error {
	s := l.serializer()
	s.w.kw("SELECT", "*", "FROM")
	s.w.open()
	inner(s)
	s.w.close()
	if sh != nil {
		switch {
		case sh.Like != nil:
			s.w.kw("WHERE")
			s.w.ident(column)
			s.w.kw("LIKE")
			s.expr(sh.Like, precEquality+1)
			s.w.kw("ESCAPE", `'\'`)
		case sh.Where != nil:
			s.w.kw("WHERE")
			s.expr(sh.Where, precLowest)
		}
	}
	if order != "" {
		s.w.kw("ORDER BY", order)
	}
	return l.emit(s, KindQuery, false)
}

func (l *lowerer) showTables(sh *ast.Show) error {
	if err := l.showDatabase(sh.Database); err != nil {
		return err
	}
	db := l.database()
	if sh.Database != "" {
		db = sh.Database
	}
	column := "Tables_in_" + db
	return l.filtered(sh, column, catalog.QuoteIdent(column), func(s *SQLiteSerializer) {
		s.w.kw("SELECT", "table_name", "AS")
		s.w.ident(column)
		if sh.Full {
			s.w.comma()
			s.w.kw("table_type", "AS", "`Table_type`")
		}
		s.w.kw("FROM")
		s.w.ident(catalog.TablesTable)
		s.w.kw("WHERE", "table_schema", "=")
		s.w.bind(l.database())
	})
}

// showColumns serves SHOW [FULL] COLUMNS and DESCRIBE. like restricts the
// column names when the statement has no LIKE or WHERE of its own.
func (l *lowerer) showColumns(tn *ast.TableName, full bool, like string, sh *ast.Show) error {
	if sh != nil {
		if err := l.showDatabase(sh.Database); err != nil {
			return err
		}
	}
	t, err := l.existing(tn)
	if err != nil {
		return err
	}
	return l.filtered(sh, "Field", "", func(s *SQLiteSerializer) {
		s.w.kw("SELECT")
		n := 0
		for _, f := range showColumnsFields {
			if !full && (strings.HasSuffix(f, "`Collation`") || strings.HasSuffix(f, "`Privileges`") || strings.HasSuffix(f, "`Comment`")) {
				continue
			}
			if n > 0 {
				s.w.comma()
			}
			s.w.tok(f)
			n++
		}
		s.w.kw("FROM")
		s.w.ident(catalog.ColumnsTable)
		s.w.kw("WHERE", "table_schema", "=")
		s.w.bind(l.database())
		s.w.kw("AND", "table_name", "=")
		s.w.bind(t.Name)
		if like != "" {
			s.w.kw("AND", "column_name", "LIKE")
			s.w.bind(like)
			s.w.kw("ESCAPE", `'\'`)
		}
		s.w.kw("ORDER BY", "ordinal_position")
	})
}

func (l *lowerer) describe(d *ast.Describe) error {
	return l.showColumns(d.Table, false, d.Column, nil)
}

// showIndex lists statistics rows plus the single-column primary keys the
// catalog keeps only as a column's PRI key.
func (l *lowerer) showIndex(sh *ast.Show) error {
	if err := l.showDatabase(sh.Database); err != nil {
		return err
	}
	t, err := l.existing(sh.Table)
	if err != nil {
		return err
	}
	cols := strings.Join(showIndexFields, ", ")
	return l.filtered(sh, "Key_name", "", func(s *SQLiteSerializer) {
		s.w.kw("SELECT", cols, "FROM")
		s.w.open()
		s.w.kw("SELECT", "table_name", "AS", "`Table`,", "0", "AS", "`Non_unique`,", "'PRIMARY'", "AS", "`Key_name`,",
			"1", "AS", "`Seq_in_index`,", "column_name", "AS", "`Column_name`,", "'A'", "AS", "`Collation`,",
			"0", "AS", "`Cardinality`,", "NULL", "AS", "`Sub_part`,", "NULL", "AS", "`Packed`,", "''", "AS", "`Null`,",
			"'BTREE'", "AS", "`Index_type`,", "''", "AS", "`Comment`,", "''", "AS", "`Index_comment`,",
			"'YES'", "AS", "`Visible`,", "NULL", "AS", "`Expression`,", "0", "AS", "`_rank`", "FROM")
		s.w.ident(catalog.ColumnsTable)
		s.w.kw("WHERE", "table_schema", "=")
		s.w.bind(l.database())
		s.w.kw("AND", "table_name", "=")
		s.w.bind(t.Name)
		s.w.kw("AND", "column_key", "=", "'PRI'", "AND", "NOT", "EXISTS")
		s.w.open()
		s.w.kw("SELECT", "1", "FROM")
		s.w.ident(catalog.StatisticsTable)
		s.w.kw("WHERE", "table_schema", "=")
		s.w.bind(l.database())
		s.w.kw("AND", "table_name", "=")
		s.w.bind(t.Name)
		s.w.kw("AND", "index_name", "=", "'PRIMARY'")
		s.w.close()
		s.w.kw("UNION", "ALL", "SELECT", "table_name,", "non_unique,", "index_name,", "seq_in_index,", "column_name,",
			"collation,", "cardinality,", "sub_part,", "packed,", "nullable,", "index_type,", "comment,",
			"index_comment,", "is_visible,", "expression,", "MIN(rowid)", "OVER", "(PARTITION", "BY", "index_name)", "FROM")
		s.w.ident(catalog.StatisticsTable)
		s.w.kw("WHERE", "table_schema", "=")
		s.w.bind(l.database())
		s.w.kw("AND", "table_name", "=")
		s.w.bind(t.Name)
		s.w.close()
		s.w.kw("ORDER BY", "`Key_name`", "<>", "'PRIMARY',", "`_rank`,", "`Seq_in_index`")
	})
}

func (l *lowerer) showTableStatus(sh *ast.Show) error {
	if err := l.showDatabase(sh.Database); err != nil {
		return err
	}
	return l.filtered(sh, "Name", "`Name`", func(s *SQLiteSerializer) {
		s.w.kw("SELECT", strings.Join(showTableStatusFields, ", "), "FROM")
		s.w.ident(catalog.TablesTable)
		s.w.kw("WHERE", "table_schema", "=")
		s.w.bind(l.database())
	})
}

// showCreateTable renders the definition in Go and returns it as a bound
// value.
func (l *lowerer) showCreateTable(tn *ast.TableName) error {
	t, err := l.existing(tn)
	if err != nil {
		return err
	}
	l.raw(KindQuery, "SELECT ? AS `Table`, ? AS `Create Table`", t.Name, catalog.ShowCreateTable(t))
	return nil
}

func (l *lowerer) showDatabases(sh *ast.Show) error {
	return l.filtered(sh, "Database", "`Database`", func(s *SQLiteSerializer) {
		s.w.kw("SELECT", "'information_schema'", "AS", "`Database`", "UNION", "ALL", "SELECT")
		s.w.bind(l.database())
	})
}

// showVariables lists the system variables with session values overlaid.
// GLOBAL shows the server defaults.
func (l *lowerer) showVariables(sh *ast.Show) error {
	l.dynamic = true
	lookup := l.serializer()
	return l.filtered(sh, "Variable_name", "`Variable_name`", func(s *SQLiteSerializer) {
		for i, name := range systemVariableNames() {
			if i > 0 {
				s.w.kw("UNION", "ALL")
			}
			v, _ := lookup.lookupSystemVar(name, sh.Global)
			s.w.kw("SELECT")
			s.w.bind(name)
			if i == 0 {
				s.w.kw("AS", "`Variable_name`")
			}
			s.w.comma()
			s.w.bind(variableText(v))
			if i == 0 {
				s.w.kw("AS", "`Value`")
			}
		}
	})
}

// variableText formats a variable the way SHOW VARIABLES prints it.
func variableText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "ON"
		}
		return "OFF"
	}
	return fmt.Sprint(v)
}
