package transform

import (
	"strconv"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

func (l *lowerer) createTable(ct *ast.CreateTable) error {
	if catalog.IsReserved(ct.Table.Name) {
		return protocol.Errorf(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Table name '%s' is reserved", ct.Table.Name)
	}
	if !ct.Temporary {
		existing, err := l.table(ct.Table)
		if err != nil {
			return err
		}
		if existing != nil {
			if ct.IfNotExists {
				return nil
			}
			return protocol.Errorf(protocol.ErrCodeTableExists, protocol.SQLStateTableExists, "Table '%s' already exists", ct.Table.Name)
		}
	}

	if ct.AsSelect != nil {
		return l.createTableAs(ct)
	}

	var t *catalog.Table
	if ct.Like != nil {
		src, err := l.existing(ct.Like)
		if err != nil {
			return err
		}
		t = src.Clone()
		t.Name = ct.Table.Name
		t.AutoIncrement = 0
		likeConstraints(t)
	} else {
		var err error
		if t, err = catalog.FromCreateTable(ct, l.p.Source); err != nil {
			return err
		}
	}

	if err := l.nativeTable(t, nativeOptions{temporary: ct.Temporary, ifNotExists: ct.IfNotExists}); err != nil {
		return err
	}
	l.nativeIndexes(t, t.Indexes)
	l.nativeTriggers(t, ct.Temporary)
	l.seedAutoIncrement(t)
	if !ct.Temporary {
		l.res.Changes = append(l.res.Changes, &catalog.CreateTableChange{Table: t})
	}
	return nil
}

// likeConstraints adjusts a table copied with CREATE TABLE ... LIKE:
// foreign keys are not copied and CHECK constraints get names of the new
// table, since constraint names are unique per schema.
func likeConstraints(t *catalog.Table) {
	t.ForeignKeys = nil
	for i, chk := range t.Checks {
		c := *chk
		c.Name = t.Name + "_chk_" + strconv.Itoa(i+1)
		t.Checks[i] = &c
	}
}

// createTableAs lets SQLite derive the columns of CREATE TABLE ... SELECT;
// the catalog then reads them back from the native table.
func (l *lowerer) createTableAs(ct *ast.CreateTable) error {
	if len(ct.Columns) > 0 || len(ct.Indexes) > 0 {
		return unsupported("CREATE TABLE ... SELECT with column definitions")
	}
	s := l.serializer()
	s.w.kw("CREATE")
	if ct.Temporary {
		s.w.kw("TEMP")
	}
	s.w.kw("TABLE")
	if ct.IfNotExists {
		s.w.kw("IF", "NOT", "EXISTS")
	}
	s.w.ident(ct.Table.Name)
	s.w.kw("AS")
	s.Select(ct.AsSelect)
	if err := l.emit(s, KindExec, true); err != nil {
		return err
	}
	if !ct.Temporary {
		l.res.Changes = append(l.res.Changes, &catalog.RegenerateTableChange{Name: ct.Table.Name})
	}
	return nil
}
