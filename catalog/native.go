package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	rqlitesql "github.com/rqlite/sql"
)

// OnUpdateTriggerName is the trigger that emulates ON UPDATE
// CURRENT_TIMESTAMP for one column.
func OnUpdateTriggerName(table, column string) string {
	return Prefix + table + "_" + column + "_on_update"
}

// nativeSchema holds what only the CREATE TABLE text in sqlite_schema
// knows: AUTOINCREMENT, collations and constraint names.
type nativeSchema struct {
	autoIncrement string
	collations    map[string]string
	fkNames       map[string]string
	checks        []*Check
}

func parseNativeSchema(createSQL string) nativeSchema {
	ns := nativeSchema{collations: map[string]string{}, fkNames: map[string]string{}}
	stmt, err := rqlitesql.NewParser(strings.NewReader(doubleQuoted(createSQL))).ParseStatement()
	if err != nil {
		return ns
	}
	create, ok := stmt.(*rqlitesql.CreateTableStatement)
	if !ok {
		return ns
	}
	for _, col := range create.Columns {
		name := strings.ToLower(col.Name.Name)
		for _, c := range col.Constraints {
			switch c := c.(type) {
			case *rqlitesql.PrimaryKeyConstraint:
				if c.Autoincrement.IsValid() {
					ns.autoIncrement = name
				}
			case *rqlitesql.CollateConstraint:
				ns.collations[name] = strings.ToUpper(c.Collation.Name)
			case *rqlitesql.CheckConstraint:
				ns.addCheck(c)
			}
		}
	}
	for _, c := range create.Constraints {
		switch c := c.(type) {
		case *rqlitesql.ForeignKeyConstraint:
			if c.Name == nil {
				continue
			}
			cols := make([]string, len(c.Columns))
			for i, id := range c.Columns {
				cols[i] = strings.ToLower(id.Name)
			}
			ns.fkNames[strings.Join(cols, ",")] = c.Name.Name
		case *rqlitesql.CheckConstraint:
			ns.addCheck(c)
		}
	}
	return ns
}

// doubleQuoted rewrites backtick-quoted identifiers with double quotes,
// leaving string literals alone.
func doubleQuoted(s string) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '`' && !inString:
			b.WriteByte('"')
			for i++; i < len(s); i++ {
				if s[i] == '`' {
					if i+1 < len(s) && s[i+1] == '`' {
						b.WriteByte('`')
						i++
						continue
					}
					break
				}
				if s[i] == '"' {
					b.WriteByte('"')
				}
				b.WriteByte(s[i])
			}
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (ns *nativeSchema) addCheck(c *rqlitesql.CheckConstraint) {
	chk := &Check{Clause: "(" + c.Expr.String() + ")", Enforced: true}
	if c.Name != nil {
		chk.Name = c.Name.Name
	}
	ns.checks = append(ns.checks, chk)
}

// nativeDefault converts a PRAGMA table_xinfo dflt_value.
func nativeDefault(col *Column, text string) {
	switch upper := strings.ToUpper(text); {
	case upper == "NULL":
		return
	case strings.HasPrefix(upper, "CURRENT_TIMESTAMP"):
		col.Default, col.DefaultExpr = ptr("CURRENT_TIMESTAMP"), true
		return
	case len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'':
		col.Default = ptr(strings.ReplaceAll(text[1:len(text)-1], "''", "'"))
	case len(text) >= 2 && text[0] == '(' && text[len(text)-1] == ')':
		col.Default, col.DefaultExpr = ptr(text[1:len(text)-1]), true
		return
	case strings.HasPrefix(upper, "X'"):
		col.Default, col.DefaultExpr = ptr(text), true
		return
	default:
		col.Default = ptr(text)
	}
	fixDecimalDefault(col)
}

// inferType maps a declared SQLite type to a MySQL type when the type cache
// has no entry: declared MySQL types are kept, anything else is mapped by
// SQLite's affinity rules.
func inferType(declared string) (Type, error) {
	upper := strings.ToUpper(strings.TrimSpace(declared))
	if upper == "" {
		return Type{Name: "text"}, nil
	}
	if upper != "INTEGER" && upper != "TEXT" && upper != "REAL" && upper != "BLOB" {
		if t, err := ParseType(declared); err == nil && t.Known() {
			return t, nil
		}
	}
	switch {
	case strings.Contains(upper, "INT"):
		return Type{Name: "int"}, nil
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return Type{Name: "text"}, nil
	case strings.Contains(upper, "BLOB"):
		return Type{Name: "longblob"}, nil
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return Type{Name: "double"}, nil
	case strings.Contains(upper, "NUM"), strings.Contains(upper, "DEC"):
		return Type{Name: "decimal", Args: []string{"10", "0"}}, nil
	}
	return Type{}, fmt.Errorf("unrecognized column type %q", declared)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (b *Builder) nativeSQL(ctx context.Context, exec Executor, name string) (string, error) {
	rows, err := exec.QueryContext(ctx, "SELECT sql FROM sqlite_schema WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return "", fmt.Errorf("read native schema: %w", err)
	}
	list, err := scanStrings(rows)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", errors.New("table does not exist")
	}
	return list[0], nil
}

// introspect builds the table model of a native table from SQLite's
// catalog and the type cache.
func (b *Builder) introspect(ctx context.Context, exec Executor, name string) (*Table, error) {
	t, err := b.introspectTable(ctx, exec, name)
	if err != nil {
		return nil, &ReconstructError{Table: name, Err: err}
	}
	return t, nil
}

func (b *Builder) introspectTable(ctx context.Context, exec Executor, name string) (*Table, error) {
	createSQL, err := b.nativeSQL(ctx, exec, name)
	if err != nil {
		return nil, err
	}
	ns := parseNativeSchema(createSQL)
	cache, err := b.cache.Entries(ctx, exec, name)
	if err != nil {
		return nil, err
	}
	t := &Table{Name: name, Engine: DefaultEngine, Collation: DefaultCollation}

	pk, err := b.nativeColumns(ctx, exec, t, ns, cache)
	if err != nil {
		return nil, err
	}
	if len(pk) > 0 {
		idx := &Index{Name: PrimaryName, Kind: IndexPrimary}
		for _, c := range pk {
			idx.Columns = append(idx.Columns, &IndexColumn{Name: c})
		}
		t.Indexes = append(t.Indexes, idx)
	}
	if err := b.nativeIndexes(ctx, exec, t, cache); err != nil {
		return nil, err
	}
	if err := b.nativeForeignKeys(ctx, exec, t, ns); err != nil {
		return nil, err
	}
	if err := b.nativeTriggers(ctx, exec, t); err != nil {
		return nil, err
	}
	for i, chk := range ns.checks {
		if chk.Name == "" {
			chk.Name = fmt.Sprintf("%s_chk_%d", t.Name, i+1)
		}
		t.Checks = append(t.Checks, chk)
	}
	if err := NewReader("").loadSequence(ctx, exec, t); err != nil {
		return nil, err
	}
	if err := Normalize(t); err != nil {
		return nil, err
	}
	return t, nil
}

// nativeColumns reads PRAGMA table_xinfo and returns the primary key
// columns in key order.
func (b *Builder) nativeColumns(ctx context.Context, exec Executor, t *Table, ns nativeSchema, cache map[string]string) ([]string, error) {
	rows, err := exec.QueryContext(ctx, "PRAGMA table_xinfo("+QuoteIdent(t.Name)+")")
	if err != nil {
		return nil, fmt.Errorf("read native columns: %w", err)
	}
	defer rows.Close()

	pk := map[int]string{}
	for rows.Next() {
		var (
			cid, notNull, pkPos, hidden int
			name, declared              string
			dflt                        sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dflt, &pkPos, &hidden); err != nil {
			return nil, err
		}
		if hidden == 1 {
			continue
		}
		col := &Column{Name: name, Nullable: notNull == 0}
		if cached, ok := cache[name]; ok {
			if col.Type, err = ParseType(cached); err != nil {
				return nil, err
			}
		} else if col.Type, err = inferType(declared); err != nil {
			return nil, err
		}
		if col.Type.IsString() {
			col.Charset = t.Charset()
			col.Collation = t.Collation
			if coll, ok := ns.collations[strings.ToLower(name)]; !ok || coll != "NOCASE" {
				col.Collation = col.Charset + "_bin"
			}
		}
		if strings.EqualFold(ns.autoIncrement, name) {
			col.AutoIncrement = true
		}
		if dflt.Valid {
			nativeDefault(col, dflt.String)
		}
		if pkPos > 0 {
			pk[pkPos] = name
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, errors.New("table has no columns")
	}
	positions := make([]int, 0, len(pk))
	for p := range pk {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = pk[p]
	}
	return out, nil
}

type nativeIndex struct {
	name   string
	unique bool
	origin string
}

func (b *Builder) nativeIndexes(ctx context.Context, exec Executor, t *Table, cache map[string]string) error {
	rows, err := exec.QueryContext(ctx, "PRAGMA index_list("+QuoteIdent(t.Name)+")")
	if err != nil {
		return fmt.Errorf("read native indexes: %w", err)
	}
	byName := map[string]nativeIndex{}
	for rows.Next() {
		var (
			seq, unique, partial int
			ni                   nativeIndex
		)
		if err := rows.Scan(&seq, &ni.name, &unique, &ni.origin, &partial); err != nil {
			rows.Close()
			return err
		}
		ni.unique = unique == 1
		byName[ni.name] = ni
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// declaration order
	rows, err = exec.QueryContext(ctx, "SELECT name FROM sqlite_schema WHERE type = 'index' AND tbl_name = ? ORDER BY rowid", t.Name)
	if err != nil {
		return fmt.Errorf("read native indexes: %w", err)
	}
	order, err := scanStrings(rows)
	if err != nil {
		return err
	}

	prefix := NativeIndexName(t.Name, "")
	for _, native := range order {
		ni, ok := byName[native]
		if !ok || ni.origin == "pk" {
			continue
		}
		cols, err := b.nativeIndexColumns(ctx, exec, native)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			continue
		}
		idx := &Index{Kind: IndexKey, Columns: cols}
		switch {
		case ni.unique:
			idx.Kind = IndexUnique
		case cache[native] == string(IndexFulltext):
			idx.Kind = IndexFulltext
		case cache[native] == string(IndexSpatial):
			idx.Kind = IndexSpatial
		}
		if ni.origin == "c" && strings.HasPrefix(native, prefix) {
			idx.Name = native[len(prefix):]
		} else {
			idx.Name = uniqueIndexName(t, cols[0].Name)
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return nil
}

// nativeIndexColumns returns the key columns of an index, or nil for an
// expression index.
func (b *Builder) nativeIndexColumns(ctx context.Context, exec Executor, index string) ([]*IndexColumn, error) {
	rows, err := exec.QueryContext(ctx, "PRAGMA index_xinfo("+QuoteIdent(index)+")")
	if err != nil {
		return nil, fmt.Errorf("read native index: %w", err)
	}
	defer rows.Close()
	var cols []*IndexColumn
	expr := false
	for rows.Next() {
		var (
			seqno, cid, desc, key int
			name, coll            sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name, &desc, &coll, &key); err != nil {
			return nil, err
		}
		if key == 0 {
			continue
		}
		if cid < 0 {
			expr = true
			continue
		}
		cols = append(cols, &IndexColumn{Name: name.String, Desc: desc == 1})
	}
	if expr {
		return nil, rows.Err()
	}
	return cols, rows.Err()
}

func (b *Builder) nativeForeignKeys(ctx context.Context, exec Executor, t *Table, ns nativeSchema) error {
	rows, err := exec.QueryContext(ctx, "PRAGMA foreign_key_list("+QuoteIdent(t.Name)+")")
	if err != nil {
		return fmt.Errorf("read native foreign keys: %w", err)
	}
	defer rows.Close()
	byID := map[int]*ForeignKey{}
	var ids []int
	for rows.Next() {
		var (
			id, seq                         int
			table, from, onUpdate, onDelete string
			to                              sql.NullString
			match                           string
		)
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &ForeignKey{RefTable: table, OnUpdate: onUpdate, OnDelete: onDelete}
			byID[id] = fk
			ids = append(ids, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.RefColumns = append(fk.RefColumns, to.String)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	// SQLite numbers foreign keys from the last declared one
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	for n, id := range ids {
		fk := byID[id]
		key := strings.ToLower(strings.Join(fk.Columns, ","))
		if name, ok := ns.fkNames[key]; ok {
			fk.Name = name
		} else {
			fk.Name = fmt.Sprintf("%s_ibfk_%d", t.Name, n+1)
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
		addForeignKeyIndex(t, fk, fk.Name)
	}
	return nil
}

func (b *Builder) nativeTriggers(ctx context.Context, exec Executor, t *Table) error {
	rows, err := exec.QueryContext(ctx, "SELECT name FROM sqlite_schema WHERE type = 'trigger' AND tbl_name = ?", t.Name)
	if err != nil {
		return fmt.Errorf("read native triggers: %w", err)
	}
	names, err := scanStrings(rows)
	if err != nil {
		return err
	}
	for _, name := range names {
		for _, c := range t.Columns {
			if strings.EqualFold(name, OnUpdateTriggerName(t.Name, c.Name)) {
				c.OnUpdate = "CURRENT_TIMESTAMP"
			}
		}
	}
	return nil
}

// Regenerate rebuilds the catalog rows of a table from its native schema.
func (b *Builder) Regenerate(ctx context.Context, exec Executor, name string) error {
	t, err := b.introspect(ctx, exec, name)
	if err != nil {
		return err
	}
	if err := b.DropTable(ctx, exec, name); err != nil {
		return err
	}
	return b.CreateTable(ctx, exec, t)
}
