package transform

import (
	"strconv"
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// implicitValue is a column MySQL fills with its type's zero value.
type implicitValue struct {
	column string
	value  any
}

func (l *lowerer) insert(ins *ast.Insert) error {
	t, err := l.table(ins.Table)
	if err != nil {
		return err
	}

	cols := ins.Columns
	rows := ins.Rows
	if len(ins.Set) > 0 {
		cols, rows = nil, [][]ast.Expr{nil}
		for _, a := range ins.Set {
			cols = append(cols, a.Column.Name)
			rows[0] = append(rows[0], a.Value)
		}
	}
	if ins.Select == nil && emptyRows(rows) && len(cols) == 0 {
		return l.insertDefaults(ins, t, len(rows))
	}
	if len(cols) == 0 && t != nil {
		cols = t.ColumnNames()
	}
	// a table the catalog does not know takes VALUES rows positionally
	positional := len(cols) == 0 && ins.Select == nil
	width := len(cols)
	if positional && len(rows) > 0 {
		width = len(rows[0])
	}
	for i, row := range rows {
		if len(row) != width {
			return protocol.Errorf(protocol.ErrCodeWrongValueCount, protocol.SQLStateValueCount,
				"Column count doesn't match value count at row %d", i+1)
		}
	}

	// generated columns only accept DEFAULT and are left out
	kept := make([]int, 0, width)
	for i := 0; i < width; i++ {
		if t != nil {
			if col := t.Column(cols[i]); col != nil && col.Generated != "" {
				continue
			}
		}
		kept = append(kept, i)
	}
	var implicit []implicitValue
	if t != nil && !l.strict() {
		implicit = implicitDefaults(t, cols)
	}

	s := l.serializer()
	s.target = t
	l.insertVerb(s, ins)
	s.w.qualified(ins.Table.Name)
	names := make([]string, 0, len(kept)+len(implicit))
	if !positional {
		for _, i := range kept {
			names = append(names, cols[i])
		}
	}
	for _, iv := range implicit {
		names = append(names, iv.column)
	}
	if len(names) > 0 {
		s.w.identList(names)
	}

	if ins.Select != nil {
		l.selectSource(s, ins, implicit)
	} else {
		l.valuesSource(s, t, cols, kept, rows, implicit)
	}
	if len(ins.OnDuplicate) > 0 {
		l.onConflict(s, t, ins.OnDuplicate)
	}
	return l.emit(s, KindExec, true)
}

func emptyRows(rows [][]ast.Expr) bool {
	for _, r := range rows {
		if len(r) > 0 {
			return false
		}
	}
	return len(rows) > 0
}

func (l *lowerer) insertVerb(s *SQLiteSerializer, ins *ast.Insert) {
	switch {
	case ins.Replace:
		s.w.kw("REPLACE", "INTO")
	case ins.Ignore:
		s.w.kw("INSERT", "OR", "IGNORE", "INTO")
	default:
		s.w.kw("INSERT", "INTO")
	}
}

// insertDefaults lowers INSERT INTO t VALUES (), () to one DEFAULT VALUES
// statement per row.
func (l *lowerer) insertDefaults(ins *ast.Insert, t *catalog.Table, n int) error {
	var implicit []implicitValue
	if t != nil && !l.strict() {
		implicit = implicitDefaults(t, nil)
	}
	for i := 0; i < n; i++ {
		s := l.serializer()
		l.insertVerb(s, ins)
		s.w.qualified(ins.Table.Name)
		if len(implicit) == 0 {
			s.w.kw("DEFAULT", "VALUES")
		} else {
			names := make([]string, len(implicit))
			for j, iv := range implicit {
				names[j] = iv.column
			}
			s.w.identList(names)
			s.w.kw("VALUES")
			s.w.open()
			for j, iv := range implicit {
				if j > 0 {
					s.w.comma()
				}
				s.value(iv.value)
			}
			s.w.close()
		}
		if err := l.emit(s, KindExec, true); err != nil {
			return err
		}
	}
	return nil
}

// implicitDefaults lists the NOT NULL columns missing from cols that have
// no default of their own.
func implicitDefaults(t *catalog.Table, cols []string) []implicitValue {
	var out []implicitValue
	for _, c := range t.Columns {
		if c.Nullable || c.Default != nil || c.AutoIncrement || c.Generated != "" || containsName(cols, c.Name) {
			continue
		}
		out = append(out, implicitValue{column: c.Name, value: c.Type.ImplicitDefault()})
	}
	return out
}

func containsName(list []string, name string) bool {
	for _, s := range list {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// selectSource renders INSERT ... SELECT. The query is wrapped when extra
// values are appended or an upsert clause follows, which SQLite only parses
// after a WHERE.
func (l *lowerer) selectSource(s *SQLiteSerializer, ins *ast.Insert, implicit []implicitValue) {
	if len(implicit) == 0 && len(ins.OnDuplicate) == 0 {
		s.Select(ins.Select)
		return
	}
	s.w.kw("SELECT", "*")
	for _, iv := range implicit {
		s.w.comma()
		s.value(iv.value)
	}
	s.w.kw("FROM")
	s.w.open()
	s.Select(ins.Select)
	s.w.close()
	s.w.kw("WHERE", "true")
}

// valuesSource renders rows as SELECT column1, ... FROM (VALUES ...) WHERE
// true, casting a column when a literal's type differs from the column's
// affinity. Without named VALUES columns the derived table is a WHERE FALSE
// row that names them, followed by UNION ALL VALUES.
func (l *lowerer) valuesSource(s *SQLiteSerializer, t *catalog.Table, cols []string, kept []int, rows [][]ast.Expr, implicit []implicitValue) {
	var rowid *catalog.Column
	if t != nil {
		rowid = t.RowidAlias()
	}
	s.w.kw("SELECT")
	for n, i := range kept {
		if n > 0 {
			s.w.comma()
		}
		name := "column" + strconv.Itoa(i+1)
		var col *catalog.Column
		if t != nil {
			col = t.Column(cols[i])
		}
		nullIfZero := col != nil && col == rowid
		if nullIfZero {
			// MySQL assigns the next id for 0 as well as NULL
			s.w.call("NULLIF")
		}
		if aff := castAffinity(col, rows, i); aff != "" {
			s.w.call("CAST")
			s.w.ident(name)
			s.w.kw("AS", aff)
			s.w.close()
		} else {
			s.w.ident(name)
		}
		if nullIfZero {
			s.w.comma()
			s.w.tok("0")
			s.w.close()
		}
	}
	for n, iv := range implicit {
		if n > 0 || len(kept) > 0 {
			s.w.comma()
		}
		s.value(iv.value)
	}

	s.w.kw("FROM")
	s.w.open()
	if !l.env.Features.ValuesColumnNames {
		s.w.kw("SELECT")
		for i := range rows[0] {
			if i > 0 {
				s.w.comma()
			}
			s.w.kw("NULL", "AS")
			s.w.ident("column" + strconv.Itoa(i+1))
		}
		s.w.kw("WHERE", "FALSE", "UNION", "ALL")
	}
	s.w.kw("VALUES")
	for r, row := range rows {
		if r > 0 {
			s.w.comma()
		}
		s.w.open()
		for i, e := range row {
			if i > 0 {
				s.w.comma()
			}
			if d, ok := e.(*ast.Default); ok && d.Column == "" && i < len(cols) {
				e = &ast.Default{NodeInfo: d.NodeInfo, Column: cols[i]}
			}
			s.expr(e, precLowest)
		}
		s.w.close()
	}
	s.w.close()
	s.w.kw("WHERE", "true")
}

// castAffinity returns the affinity to cast VALUES column i to, or "".
func castAffinity(col *catalog.Column, rows [][]ast.Expr, i int) string {
	if col == nil {
		return ""
	}
	want := col.Type.Affinity()
	for _, row := range rows {
		if got := literalAffinity(row[i]); got != "" && got != want {
			return want
		}
	}
	return ""
}

// literalAffinity is the storage class SQLite gives a literal.
func literalAffinity(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Literal:
		switch v.Kind {
		case ast.LiteralString:
			return catalog.AffinityText
		case ast.LiteralInteger, ast.LiteralTrue, ast.LiteralFalse:
			return catalog.AffinityInteger
		case ast.LiteralDecimal:
			return catalog.AffinityReal
		case ast.LiteralHex, ast.LiteralBit:
			return catalog.AffinityBlob
		}
	case *ast.Unary:
		if v.Op == "-" || v.Op == "+" {
			return literalAffinity(v.X)
		}
	}
	return ""
}

// onConflict renders ON DUPLICATE KEY UPDATE as one upsert clause per
// unique key. Without a known schema a single clause without a target
// covers every key.
func (l *lowerer) onConflict(s *SQLiteSerializer, t *catalog.Table, set []*ast.Assignment) {
	var keys [][]string
	if t != nil {
		keys = t.UniqueKeys()
	}
	if len(keys) == 0 {
		keys = [][]string{nil}
	}
	s.upsert = true
	for _, key := range keys {
		s.w.kw("ON", "CONFLICT")
		if key != nil {
			s.w.identList(key)
		}
		s.w.kw("DO", "UPDATE", "SET")
		s.assignments(set)
	}
	s.upsert = false
}

// assignments renders col = expr lists. SQLite takes bare column names on
// the left.
func (s *SQLiteSerializer) assignments(set []*ast.Assignment) {
	for i, a := range set {
		if i > 0 {
			s.w.comma()
		}
		s.w.ident(a.Column.Name)
		s.w.kw("=")
		if d, ok := a.Value.(*ast.Default); ok && d.Column == "" {
			s.node(&ast.Default{NodeInfo: d.NodeInfo, Column: a.Column.Name})
			continue
		}
		s.expr(a.Value, precLowest)
	}
}
