// Package catalog keeps the MySQL view of the schema: the table model, the
// shadow information_schema tables stored in SQLite, the builder that keeps
// them current after DDL and the reconstructor that rebuilds them from
// SQLite's own catalog.
package catalog

import (
	"sort"
	"strings"
)

// Table is the MySQL definition of one table.
type Table struct {
	Name      string
	Engine    string
	Collation string
	Comment   string
	// RowFormat is set only when declared.
	RowFormat string
	// AutoIncrement is the next auto-increment value, 0 when unknown.
	AutoIncrement int64
	Columns       []*Column
	Indexes       []*Index
	ForeignKeys   []*ForeignKey
	Checks        []*Check
}

// Column is one column definition.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
	// Default is nil when the column has no default. DefaultExpr marks an
	// expression default such as CURRENT_TIMESTAMP.
	Default       *string
	DefaultExpr   bool
	AutoIncrement bool
	OnUpdate      string
	// Charset and Collation are set for character types only.
	Charset   string
	Collation string
	Comment   string
	Generated string
	Stored    bool
	Invisible bool
}

// IndexKind is the kind of a key.
type IndexKind string

const (
	IndexPrimary  IndexKind = "PRIMARY"
	IndexUnique   IndexKind = "UNIQUE"
	IndexKey      IndexKind = "KEY"
	IndexFulltext IndexKind = "FULLTEXT"
	IndexSpatial  IndexKind = "SPATIAL"
)

// PrimaryName is the name MySQL gives every primary key.
const PrimaryName = "PRIMARY"

// Index is a key. Columns keep declaration order.
type Index struct {
	Name    string
	Kind    IndexKind
	Columns []*IndexColumn
	Comment string
}

// IndexColumn is one key part. SubPart is the prefix length, 0 for the
// whole column.
type IndexColumn struct {
	Name    string
	SubPart int
	Desc    bool
}

// ForeignKey is a FOREIGN KEY constraint.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

// Check is a CHECK constraint. Clause is the parenthesized MySQL expression.
type Check struct {
	Name     string
	Clause   string
	Enforced bool
}

// Unique reports whether the index rejects duplicates.
func (i *Index) Unique() bool {
	return i.Kind == IndexPrimary || i.Kind == IndexUnique
}

// IndexType is the information_schema index_type.
func (i *Index) IndexType() string {
	switch i.Kind {
	case IndexFulltext:
		return "FULLTEXT"
	case IndexSpatial:
		return "SPATIAL"
	}
	return "BTREE"
}

// ColumnNames returns the key's column names.
func (i *Index) ColumnNames() []string {
	out := make([]string, len(i.Columns))
	for n, c := range i.Columns {
		out[n] = c.Name
	}
	return out
}

func (i *Index) clone() *Index {
	c := *i
	c.Columns = make([]*IndexColumn, len(i.Columns))
	for n, ic := range i.Columns {
		cc := *ic
		c.Columns[n] = &cc
	}
	return &c
}

// Charset returns the table's default charset.
func (t *Table) Charset() string {
	return CharsetOf(t.Collation)
}

// Column finds a column by name, ignoring case as MySQL does.
func (t *Table) Column(name string) *Column {
	if i := t.ColumnIndex(name); i >= 0 {
		return t.Columns[i]
	}
	return nil
}

// ColumnIndex returns the position of a column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index finds a key by name, ignoring case.
func (t *Table) Index(name string) *Index {
	for _, idx := range t.Indexes {
		if strings.EqualFold(idx.Name, name) {
			return idx
		}
	}
	return nil
}

// Primary returns the primary key or nil.
func (t *Table) Primary() *Index {
	for _, idx := range t.Indexes {
		if idx.Kind == IndexPrimary {
			return idx
		}
	}
	return nil
}

// UniqueKeys returns the column lists of the primary key and every unique
// key, in index order.
func (t *Table) UniqueKeys() [][]string {
	var out [][]string
	for _, idx := range t.Indexes {
		if idx.Unique() {
			out = append(out, idx.ColumnNames())
		}
	}
	return out
}

// AutoIncrementColumn returns the auto-increment column or nil.
func (t *Table) AutoIncrementColumn() *Column {
	for _, c := range t.Columns {
		if c.AutoIncrement {
			return c
		}
	}
	return nil
}

// RowidAlias returns the column that becomes SQLite's INTEGER PRIMARY KEY:
// the single integer primary key column when it is auto-increment.
func (t *Table) RowidAlias() *Column {
	pk := t.Primary()
	if pk == nil || len(pk.Columns) != 1 {
		return nil
	}
	c := t.Column(pk.Columns[0].Name)
	if c == nil || !c.AutoIncrement || !c.Type.IsInteger() {
		return nil
	}
	return c
}

// ForeignKey finds a foreign key by name.
func (t *Table) ForeignKey(name string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.Name, name) {
			return fk
		}
	}
	return nil
}

// ColumnKey returns the information_schema column_key of a column: PRI for
// primary key members, UNI for the sole column of a unique key and MUL for
// the first column of any other key.
func (t *Table) ColumnKey(name string) string {
	key := ""
	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			continue
		}
		if idx.Kind == IndexPrimary {
			for _, ic := range idx.Columns {
				if strings.EqualFold(ic.Name, name) {
					return "PRI"
				}
			}
			continue
		}
		if !strings.EqualFold(idx.Columns[0].Name, name) {
			continue
		}
		if idx.Kind == IndexUnique && len(idx.Columns) == 1 {
			key = "UNI"
		} else if key == "" {
			key = "MUL"
		}
	}
	return key
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := *t
	c.Columns = make([]*Column, len(t.Columns))
	for i, col := range t.Columns {
		cc := *col
		if col.Default != nil {
			d := *col.Default
			cc.Default = &d
		}
		cc.Type.Args = append([]string(nil), col.Type.Args...)
		cc.Type.Values = append([]string(nil), col.Type.Values...)
		c.Columns[i] = &cc
	}
	c.Indexes = make([]*Index, len(t.Indexes))
	for i, idx := range t.Indexes {
		c.Indexes[i] = idx.clone()
	}
	c.ForeignKeys = make([]*ForeignKey, len(t.ForeignKeys))
	for i, fk := range t.ForeignKeys {
		f := *fk
		f.Columns = append([]string(nil), fk.Columns...)
		f.RefColumns = append([]string(nil), fk.RefColumns...)
		c.ForeignKeys[i] = &f
	}
	c.Checks = make([]*Check, len(t.Checks))
	for i, ch := range t.Checks {
		cc := *ch
		c.Checks[i] = &cc
	}
	return &c
}

var indexRank = map[IndexKind]int{
	IndexPrimary:  0,
	IndexUnique:   1,
	IndexSpatial:  2,
	IndexKey:      3,
	IndexFulltext: 4,
}

// SortIndexes orders keys the way MySQL lists them: PRIMARY, UNIQUE,
// SPATIAL, plain, FULLTEXT, keeping declaration order within a kind.
func SortIndexes(idx []*Index) {
	sort.SliceStable(idx, func(i, j int) bool {
		return indexRank[idx[i].Kind] < indexRank[idx[j].Kind]
	})
}
