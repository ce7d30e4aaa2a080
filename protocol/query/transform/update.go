package transform

import (
	"strings"

	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// flatJoin is a FROM clause flattened to its tables and inner join
// conditions.
type flatJoin struct {
	tables []ast.TableExpr
	conds  []ast.Expr
}

func flatten(ts []ast.TableExpr, out *flatJoin) error {
	for _, t := range ts {
		switch v := t.(type) {
		case *ast.Join:
			if v.Kind.Outer() || v.Kind == ast.JoinNatural || len(v.Using) > 0 {
				return unsupported("%s in multi-table UPDATE", v.Kind)
			}
			if err := flatten([]ast.TableExpr{v.Left, v.Right}, out); err != nil {
				return err
			}
			if v.On != nil {
				out.conds = append(out.conds, v.On)
			}
		case *ast.ParenTable:
			if err := flatten(v.Tables, out); err != nil {
				return err
			}
		default:
			out.tables = append(out.tables, t)
		}
	}
	return nil
}

func singleTable(ts []ast.TableExpr) *ast.TableName {
	if len(ts) != 1 {
		return nil
	}
	switch v := ts[0].(type) {
	case *ast.TableName:
		return v
	case *ast.ParenTable:
		return singleTable(v.Tables)
	}
	return nil
}

func (l *lowerer) update(up *ast.Update) error {
	if tn := singleTable(up.Tables); tn != nil {
		return l.updateSingle(up, tn)
	}
	if len(up.OrderBy) > 0 || up.Limit != nil {
		return protocol.Errorf(protocol.ErrCodeWrongUsage, protocol.SQLStateSyntax, "Incorrect usage of UPDATE and ORDER BY")
	}
	var fj flatJoin
	if err := flatten(up.Tables, &fj); err != nil {
		return err
	}
	target, err := l.updateTarget(up.Set, fj.tables)
	if err != nil {
		return err
	}

	s := l.serializer()
	s.w.kw("UPDATE")
	if up.Ignore {
		s.w.kw("OR", "IGNORE")
	}
	s.tableName(target)
	s.w.kw("SET")
	s.assignments(up.Set)
	var others []ast.TableExpr
	for _, t := range fj.tables {
		if t != ast.TableExpr(target) {
			others = append(others, t)
		}
	}
	if len(others) > 0 {
		s.w.kw("FROM")
		s.tables(others)
	}
	conds := fj.conds
	if up.Where != nil {
		conds = append(conds, up.Where)
	}
	s.where(conds)
	return l.emit(s, KindExec, true)
}

// where renders the conjunction of conds.
func (s *SQLiteSerializer) where(conds []ast.Expr) {
	if len(conds) == 0 {
		return
	}
	s.w.kw("WHERE")
	for i, c := range conds {
		if i > 0 {
			s.w.kw("AND")
		}
		min := precLowest
		if len(conds) > 1 {
			min = precAnd + 1
		}
		s.expr(c, min)
	}
}

// updateTarget picks the table the SET list writes to. Every assignment
// must write the same table.
func (l *lowerer) updateTarget(set []*ast.Assignment, tables []ast.TableExpr) (*ast.TableName, error) {
	var target *ast.TableName
	for _, a := range set {
		tn, err := l.assignedTable(a.Column, tables)
		if err != nil {
			return nil, err
		}
		if target != nil && tn != target {
			return nil, unsupported("multi-table UPDATE writing several tables")
		}
		target = tn
	}
	if target == nil {
		return nil, unsupported("UPDATE without a target table")
	}
	return target, nil
}

func (l *lowerer) assignedTable(col *ast.ColumnRef, tables []ast.TableExpr) (*ast.TableName, error) {
	var names []*ast.TableName
	for _, t := range tables {
		if tn, ok := t.(*ast.TableName); ok {
			names = append(names, tn)
		}
	}
	if col.Table != "" {
		for _, tn := range names {
			if strings.EqualFold(tn.Ref(), col.Table) {
				return tn, nil
			}
		}
		return nil, protocol.Errorf(protocol.ErrCodeBadField, protocol.SQLStateNoSuchCol,
			"Unknown column '%s.%s' in 'field list'", col.Table, col.Name)
	}
	var found *ast.TableName
	for _, tn := range names {
		t, err := l.table(tn)
		if err != nil {
			return nil, err
		}
		if t != nil && t.Column(col.Name) != nil {
			if found != nil {
				return nil, protocol.Errorf(protocol.ErrCodeNonUniq, protocol.SQLStateIntegrity,
					"Column '%s' in field list is ambiguous", col.Name)
			}
			found = tn
		}
	}
	if found == nil && len(names) > 0 {
		found = names[0]
	}
	return found, nil
}

func (l *lowerer) updateSingle(up *ast.Update, tn *ast.TableName) error {
	t, err := l.table(tn)
	if err != nil {
		return err
	}
	s := l.serializer()
	s.target = t
	s.w.kw("UPDATE")
	if up.Ignore {
		s.w.kw("OR", "IGNORE")
	}
	s.tableName(tn)
	s.w.kw("SET")
	s.assignments(up.Set)
	s.limitedWhere(tn, up.Where, up.OrderBy, up.Limit)
	return l.emit(s, KindExec, true)
}

// limitedWhere renders WHERE, moving ORDER BY and LIMIT into a rowid
// subquery since SQLite takes neither on UPDATE or DELETE.
func (s *SQLiteSerializer) limitedWhere(tn *ast.TableName, where ast.Expr, order []*ast.OrderItem, limit *ast.Limit) {
	if len(order) == 0 && limit == nil {
		if where != nil {
			s.w.kw("WHERE")
			s.expr(where, precLowest)
		}
		return
	}
	s.w.kw("WHERE", "rowid", "IN")
	s.w.open()
	s.w.kw("SELECT", "rowid", "FROM")
	s.tableName(tn)
	if where != nil {
		s.w.kw("WHERE")
		s.expr(where, precLowest)
	}
	s.orderBy(order)
	s.limit(limit)
	s.w.close()
}
