package catalog

import (
	"strings"

	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// Alteration is the result of applying ALTER TABLE specs to a table model.
type Alteration struct {
	Old *Table
	New *Table
	// Sources maps each column of New to the column of Old its data is
	// copied from. Added columns have no entry.
	Sources map[string]string
	// Rebuild is set when the native table has to be rebuilt. Otherwise the
	// change is carried out with native index statements, a rename, or not at
	// all.
	Rebuild        bool
	DroppedIndexes []*Index
	AddedIndexes   []*Index
	// IndexRenames maps old index names to the names RENAME INDEX gave them.
	IndexRenames map[string]string
}

func (a *Alteration) renameIndex(from, to string) {
	if a.IndexRenames == nil {
		a.IndexRenames = map[string]string{}
	}
	for old, cur := range a.IndexRenames {
		if cur == from {
			a.IndexRenames[old] = to
			return
		}
	}
	a.IndexRenames[from] = to
}

// Renamed reports whether the table name changed.
func (a *Alteration) Renamed() bool {
	return a.Old.Name != a.New.Name
}

// Alter applies the specs of an ALTER TABLE statement to old, which is not
// modified.
func Alter(old *Table, at *ast.AlterTable, src string) (*Alteration, error) {
	a := &Alteration{Old: old, New: old.Clone(), Sources: map[string]string{}}
	for _, c := range old.Columns {
		a.Sources[c.Name] = c.Name
	}
	d := &definer{t: a.New, src: src, checks: len(old.Checks), fks: len(old.ForeignKeys)}

	for _, spec := range at.Specs {
		if err := a.apply(d, spec); err != nil {
			return nil, err
		}
	}
	if err := Normalize(a.New, d.serial...); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Alteration) apply(d *definer, spec ast.AlterSpec) error {
	t := a.New
	switch s := spec.(type) {
	case *ast.AddColumns:
		pos, err := a.position(s.First, s.After)
		if err != nil {
			return err
		}
		for _, def := range s.Columns {
			if err := d.addColumn(def, pos); err != nil {
				return err
			}
			pos++
		}
		a.Rebuild = true

	case *ast.DropColumn:
		i := t.ColumnIndex(s.Name)
		if i < 0 {
			return cantDrop(s.Name)
		}
		name := t.Columns[i].Name
		for _, fk := range t.ForeignKeys {
			if containsFold(fk.Columns, name) {
				return protocol.Errorf(1828, protocol.SQLStateGeneral, "Cannot drop column '%s': needed in a foreign key constraint '%s'", name, fk.Name)
			}
		}
		t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
		delete(a.Sources, name)
		a.dropIndexColumn(name)
		a.Rebuild = true

	case *ast.ChangeColumn:
		i := t.ColumnIndex(s.Old)
		if i < 0 {
			return protocol.Errorf(protocol.ErrCodeBadField, protocol.SQLStateNoSuchCol, "Unknown column '%s' in '%s'", s.Old, t.Name)
		}
		prev := t.Columns[i]
		if !strings.EqualFold(prev.Name, s.Column.Name) && t.Column(s.Column.Name) != nil {
			return protocol.Errorf(protocol.ErrCodeDupFieldName, protocol.SQLStateDupField, "Duplicate column name '%s'", s.Column.Name)
		}
		col, err := NewColumn(t, s.Column, d.src)
		if err != nil {
			return err
		}
		t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
		pos := i
		if s.First || s.After != "" {
			if pos, err = a.position(s.First, s.After); err != nil {
				return err
			}
		}
		t.Columns = append(t.Columns, nil)
		copy(t.Columns[pos+1:], t.Columns[pos:])
		t.Columns[pos] = col
		a.renameColumn(prev.Name, col.Name)
		if s.Column.PrimaryKey && !hasKeyOn(t, IndexPrimary, col.Name) {
			if err := d.addIndex(&ast.IndexDef{Kind: ast.IndexPrimary, Columns: []*ast.IndexPart{{Column: col.Name}}}); err != nil {
				return err
			}
		}
		if s.Column.Unique && !hasKeyOn(t, IndexUnique, col.Name) {
			if err := d.addIndex(&ast.IndexDef{Kind: ast.IndexUnique, Columns: []*ast.IndexPart{{Column: col.Name}}}); err != nil {
				return err
			}
		}
		a.Rebuild = true

	case *ast.RenameColumn:
		col := t.Column(s.Old)
		if col == nil {
			return protocol.Errorf(protocol.ErrCodeBadField, protocol.SQLStateNoSuchCol, "Unknown column '%s' in '%s'", s.Old, t.Name)
		}
		if t.Column(s.New) != nil && !strings.EqualFold(s.Old, s.New) {
			return protocol.Errorf(protocol.ErrCodeDupFieldName, protocol.SQLStateDupField, "Duplicate column name '%s'", s.New)
		}
		old := col.Name
		col.Name = s.New
		a.renameColumn(old, s.New)
		a.Rebuild = true

	case *ast.AlterColumnDefault:
		col := t.Column(s.Column)
		if col == nil {
			return protocol.Errorf(protocol.ErrCodeBadField, protocol.SQLStateNoSuchCol, "Unknown column '%s' in '%s'", s.Column, t.Name)
		}
		col.Default, col.DefaultExpr = nil, false
		if !s.Drop {
			if err := setDefault(col, s.Default, d.src); err != nil {
				return err
			}
		}
		a.Rebuild = true

	case *ast.AddIndex:
		if err := d.addIndex(s.Index); err != nil {
			return err
		}
		idx := t.Indexes[len(t.Indexes)-1]
		if idx.Kind == IndexPrimary {
			a.Rebuild = true
		} else {
			a.AddedIndexes = append(a.AddedIndexes, idx)
		}

	case *ast.DropIndex:
		if strings.EqualFold(s.Name, PrimaryName) {
			return a.dropPrimary()
		}
		return a.dropIndex(s.Name)

	case *ast.DropPrimaryKey:
		return a.dropPrimary()

	case *ast.RenameIndex:
		idx := t.Index(s.Old)
		if idx == nil || idx.Kind == IndexPrimary {
			return protocol.Errorf(protocol.ErrCodeNoSuchIndex, protocol.SQLStateGeneral, "Key '%s' doesn't exist in table '%s'", s.Old, t.Name)
		}
		if t.Index(s.New) != nil {
			return protocol.Errorf(protocol.ErrCodeDupKeyName, protocol.SQLStateSyntax, "Duplicate key name '%s'", s.New)
		}
		a.DroppedIndexes = append(a.DroppedIndexes, idx.clone())
		a.renameIndex(idx.Name, s.New)
		idx.Name = s.New
		a.AddedIndexes = append(a.AddedIndexes, idx)

	case *ast.AddForeignKey:
		if err := d.addForeignKey(s.ForeignKey); err != nil {
			return err
		}
		a.Rebuild = true

	case *ast.DropForeignKey:
		if !a.dropForeignKey(s.Name) {
			return cantDrop(s.Name)
		}
		a.Rebuild = true

	case *ast.AddCheck:
		d.addCheck(s.Check)
		a.Rebuild = true

	case *ast.DropConstraint:
		switch {
		case a.dropCheck(s.Name), a.dropForeignKey(s.Name):
			a.Rebuild = true
		case t.Index(s.Name) != nil:
			return a.dropIndex(s.Name)
		default:
			return protocol.Errorf(3940, protocol.SQLStateGeneral, "Constraint '%s' does not exist.", s.Name)
		}

	case *ast.RenameTo:
		t.Name = s.Table.Name

	case *ast.TableOptions:
		applyTableOptions(t, s.Options)

	case *ast.ConvertCharset:
		if s.Collate != "" {
			t.Collation = NormalizeCollation(s.Collate)
		} else {
			t.Collation = CollationFor(s.Charset)
		}
		for _, col := range t.Columns {
			if col.Type.IsString() {
				col.Charset, col.Collation = t.Charset(), t.Collation
			}
		}
		a.Rebuild = true

	case *ast.AlterOption:
	}
	return nil
}

// position resolves FIRST / AFTER col to an insertion index in New.
func (a *Alteration) position(first bool, after string) (int, error) {
	switch {
	case first:
		return 0, nil
	case after != "":
		i := a.New.ColumnIndex(after)
		if i < 0 {
			return 0, protocol.Errorf(protocol.ErrCodeBadField, protocol.SQLStateNoSuchCol, "Unknown column '%s' in '%s'", after, a.New.Name)
		}
		return i + 1, nil
	}
	return len(a.New.Columns), nil
}

func (a *Alteration) renameColumn(from, to string) {
	if src, ok := a.Sources[from]; ok && from != to {
		delete(a.Sources, from)
		a.Sources[to] = src
	}
	if from == to {
		return
	}
	for _, idx := range a.New.Indexes {
		for _, ic := range idx.Columns {
			if strings.EqualFold(ic.Name, from) {
				ic.Name = to
			}
		}
	}
	for _, fk := range a.New.ForeignKeys {
		for i, c := range fk.Columns {
			if strings.EqualFold(c, from) {
				fk.Columns[i] = to
			}
		}
	}
}

// dropIndexColumn removes a dropped column from every key, dropping keys
// left empty, as MySQL does.
func (a *Alteration) dropIndexColumn(name string) {
	kept := a.New.Indexes[:0]
	for _, idx := range a.New.Indexes {
		cols := idx.Columns[:0]
		for _, ic := range idx.Columns {
			if !strings.EqualFold(ic.Name, name) {
				cols = append(cols, ic)
			}
		}
		idx.Columns = cols
		if len(cols) > 0 {
			kept = append(kept, idx)
		}
	}
	a.New.Indexes = kept
}

func (a *Alteration) dropIndex(name string) error {
	for i, idx := range a.New.Indexes {
		if idx.Kind != IndexPrimary && strings.EqualFold(idx.Name, name) {
			a.New.Indexes = append(a.New.Indexes[:i], a.New.Indexes[i+1:]...)
			a.DroppedIndexes = append(a.DroppedIndexes, idx)
			return nil
		}
	}
	return cantDrop(name)
}

func (a *Alteration) dropPrimary() error {
	for i, idx := range a.New.Indexes {
		if idx.Kind == IndexPrimary {
			a.New.Indexes = append(a.New.Indexes[:i], a.New.Indexes[i+1:]...)
			a.Rebuild = true
			return nil
		}
	}
	return cantDrop(PrimaryName)
}

func (a *Alteration) dropForeignKey(name string) bool {
	for i, fk := range a.New.ForeignKeys {
		if strings.EqualFold(fk.Name, name) {
			a.New.ForeignKeys = append(a.New.ForeignKeys[:i], a.New.ForeignKeys[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Alteration) dropCheck(name string) bool {
	for i, c := range a.New.Checks {
		if strings.EqualFold(c.Name, name) {
			a.New.Checks = append(a.New.Checks[:i], a.New.Checks[i+1:]...)
			return true
		}
	}
	return false
}

// hasKeyOn reports a key of the given kind on exactly one column.
func hasKeyOn(t *Table, kind IndexKind, col string) bool {
	for _, idx := range t.Indexes {
		if idx.Kind == kind && len(idx.Columns) == 1 && strings.EqualFold(idx.Columns[0].Name, col) {
			return true
		}
	}
	return false
}

func cantDrop(name string) error {
	return protocol.Errorf(protocol.ErrCodeCantDropFieldOrKey, protocol.SQLStateSyntax, "Can't DROP '%s'; check that column/key exists", name)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
