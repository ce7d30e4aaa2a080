package transform

import (
	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

func (l *lowerer) alterTable(at *ast.AlterTable) error {
	old, err := l.existing(at.Table)
	if err != nil {
		return err
	}
	a, err := catalog.Alter(old, at, l.p.Source)
	if err != nil {
		return err
	}
	return l.alteration(a)
}

// alteration emits the native statements of an altered model.
func (l *lowerer) alteration(a *catalog.Alteration) error {
	if a.Renamed() {
		if err := l.renameTarget(a.New.Name); err != nil {
			return err
		}
	}
	if a.Rebuild {
		if err := l.rebuild(a); err != nil {
			return err
		}
	} else {
		for _, idx := range a.DroppedIndexes {
			l.raw(KindExec, dropIndexSQL(a.Old.Name, idx.Name))
		}
		if a.Renamed() {
			l.renameNative(a.Old, a.New, a.AddedIndexes)
		}
		l.nativeIndexes(a.New, a.AddedIndexes)
	}
	if a.New.AutoIncrement != a.Old.AutoIncrement {
		l.seedAutoIncrement(a.New)
	}
	l.res.Changes = append(l.res.Changes, &catalog.AlterTableChange{Alteration: a})
	return nil
}

// renameTarget fails when a table cannot be renamed to name.
func (l *lowerer) renameTarget(name string) error {
	if catalog.IsReserved(name) {
		return protocol.Errorf(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Table name '%s' is reserved", name)
	}
	t, err := l.table(&ast.TableName{Name: name})
	if err != nil {
		return err
	}
	if t != nil {
		return protocol.Errorf(protocol.ErrCodeTableExists, protocol.SQLStateTableExists, "Table '%s' already exists", name)
	}
	return nil
}

// renameNative renames the native table of from to to.Name. Index and
// trigger names embed the table name, so they are recreated; keys in skip
// do not exist yet.
func (l *lowerer) renameNative(from, to *catalog.Table, skip []*catalog.Index) {
	var kept []*catalog.Index
	for _, idx := range to.Indexes {
		if idx.Kind == catalog.IndexPrimary || containsIndex(skip, idx) {
			continue
		}
		l.raw(KindExec, dropIndexSQL(from.Name, idx.Name))
		kept = append(kept, idx)
	}
	l.dropTriggers(from)
	l.raw(KindExec, "ALTER TABLE "+catalog.QuoteIdent(from.Name)+" RENAME TO "+catalog.QuoteIdent(to.Name))
	l.nativeIndexes(to, kept)
	l.nativeTriggers(to, false)
}

func containsIndex(list []*catalog.Index, idx *catalog.Index) bool {
	for _, i := range list {
		if i == idx {
			return true
		}
	}
	return false
}

// rebuild recreates the native table of an alteration SQLite cannot express
// with ALTER TABLE: create the new shape under a scratch name, copy the rows,
// drop the old table and rename the copy into place. Foreign keys are
// checked once at the end.
func (l *lowerer) rebuild(a *catalog.Alteration) error {
	tmp := catalog.Prefix + "tmp_" + a.New.Name
	l.res.ForeignKeysOff = true
	l.raw(KindExec, "PRAGMA defer_foreign_keys = ON")
	l.raw(KindExec, "DROP TABLE IF EXISTS "+catalog.QuoteIdent(tmp))
	if err := l.nativeTable(a.New, nativeOptions{name: tmp}); err != nil {
		return err
	}

	var cols []string
	s := l.serializer()
	s.w.kw("INSERT", "INTO")
	s.w.ident(tmp)
	values := newSerializer(l.ctx, l.p, l.env)
	for _, c := range a.New.Columns {
		if c.Generated != "" {
			continue
		}
		src, ok := a.Sources[c.Name]
		if ok {
			if oc := a.Old.Column(src); oc != nil {
				cols = append(cols, c.Name)
				if len(cols) > 1 {
					values.w.comma()
				}
				values.w.ident(oc.Name)
				continue
			}
		}
		if c.Nullable || c.Default != nil || c.AutoIncrement {
			continue
		}
		// new NOT NULL columns take the implicit default MySQL fills in
		cols = append(cols, c.Name)
		if len(cols) > 1 {
			values.w.comma()
		}
		values.value(c.Type.ImplicitDefault())
	}
	if len(cols) > 0 {
		s.w.identList(cols)
		st, err := values.finish(KindExec)
		if err != nil {
			return err
		}
		s.w.kw("SELECT", st.SQL, "FROM")
		s.w.ident(a.Old.Name)
		if err := l.emit(s, KindExec, false); err != nil {
			return err
		}
	}

	l.raw(KindExec, "DROP TABLE "+catalog.QuoteIdent(a.Old.Name))
	l.raw(KindExec, "ALTER TABLE "+catalog.QuoteIdent(tmp)+" RENAME TO "+catalog.QuoteIdent(a.New.Name))
	l.nativeIndexes(a.New, a.New.Indexes)
	l.nativeTriggers(a.New, false)
	l.raw(KindEmptyCheck, "PRAGMA foreign_key_check("+catalog.QuoteIdent(a.New.Name)+")")
	return nil
}
