package transform

import (
	"strconv"
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// deleteRowids holds the rowids a multi-target DELETE collects before it
// deletes from any target.
const deleteRowids = catalog.Prefix + "delete_rowids"

func (l *lowerer) delete(del *ast.Delete) error {
	if len(del.Targets) == 0 {
		tn := singleTable(del.From)
		if tn == nil {
			return unsupported("DELETE without target tables")
		}
		return l.deleteSingle(del, tn)
	}
	if len(del.OrderBy) > 0 || del.Limit != nil {
		return protocol.Errorf(protocol.ErrCodeWrongUsage, protocol.SQLStateSyntax, "Incorrect usage of DELETE and ORDER BY")
	}

	var all []*ast.TableName
	ast.Inspect(&ast.ParenTable{Tables: del.From}, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.TableName:
			all = append(all, v)
		case *ast.DerivedTable, ast.Expr:
			return false
		}
		return true
	})
	targets := make([]*ast.TableName, 0, len(del.Targets))
	for _, name := range del.Targets {
		tn := findTable(all, name)
		if tn == nil {
			return protocol.Errorf(protocol.ErrCodeUnknownTable, protocol.SQLStateNoSuchTable, "Unknown table '%s' in MULTI DELETE", name)
		}
		if _, err := l.table(tn); err != nil {
			return err
		}
		targets = append(targets, tn)
	}

	if len(targets) == 1 {
		s := l.serializer()
		s.w.kw("DELETE", "FROM")
		s.w.ident(targets[0].Name)
		s.w.kw("WHERE", "rowid", "IN")
		s.w.open()
		s.w.kw("SELECT")
		s.w.qualified(targets[0].Ref(), "rowid")
		l.deleteSource(s, del)
		s.w.close()
		return l.emit(s, KindExec, true)
	}

	// rowids are collected first so that deleting from one target cannot
	// change which rows of the next one match
	l.raw(KindExec, "DROP TABLE IF EXISTS temp."+catalog.QuoteIdent(deleteRowids))
	s := l.serializer()
	s.w.kw("CREATE", "TEMP", "TABLE")
	s.w.ident(deleteRowids)
	s.w.kw("AS", "SELECT")
	for i, tn := range targets {
		if i > 0 {
			s.w.comma()
		}
		s.w.qualified(tn.Ref(), "rowid")
		s.w.kw("AS")
		s.w.ident("r" + strconv.Itoa(i))
	}
	l.deleteSource(s, del)
	if err := l.emit(s, KindExec, false); err != nil {
		return err
	}
	for i, tn := range targets {
		l.raw(KindExec, "DELETE FROM "+catalog.QuoteIdent(tn.Name)+" WHERE rowid IN (SELECT "+
			catalog.QuoteIdent("r"+strconv.Itoa(i))+" FROM temp."+catalog.QuoteIdent(deleteRowids)+")")
		l.res.Statements[len(l.res.Statements)-1].Counted = true
	}
	l.raw(KindExec, "DROP TABLE temp."+catalog.QuoteIdent(deleteRowids))
	return nil
}

func (l *lowerer) deleteSource(s *SQLiteSerializer, del *ast.Delete) {
	s.w.kw("FROM")
	s.tables(del.From)
	if del.Where != nil {
		s.w.kw("WHERE")
		s.expr(del.Where, precLowest)
	}
}

// findTable resolves a DELETE target by alias, or by name for unaliased
// tables.
func findTable(all []*ast.TableName, name string) *ast.TableName {
	name = strings.TrimSuffix(name, ".*")
	for _, tn := range all {
		if strings.EqualFold(tn.Ref(), name) {
			return tn
		}
	}
	return nil
}

func (l *lowerer) deleteSingle(del *ast.Delete, tn *ast.TableName) error {
	if _, err := l.table(tn); err != nil {
		return err
	}
	s := l.serializer()
	s.w.kw("DELETE", "FROM")
	s.tableName(tn)
	s.limitedWhere(tn, del.Where, del.OrderBy, del.Limit)
	return l.emit(s, KindExec, true)
}
