package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// FromCreateTable builds the table model of a CREATE TABLE statement. src is
// the statement text the node spans refer to; expression defaults, generated
// columns and CHECK clauses keep their source spelling.
func FromCreateTable(ct *ast.CreateTable, src string) (*Table, error) {
	t := &Table{
		Name:      ct.Table.Name,
		Engine:    DefaultEngine,
		Collation: DefaultCollation,
	}
	applyTableOptions(t, ct.Options)

	d := &definer{t: t, src: src}
	for _, def := range ct.Columns {
		if err := d.addColumn(def, len(t.Columns)); err != nil {
			return nil, err
		}
	}
	for _, idx := range ct.Indexes {
		if err := d.addIndex(idx); err != nil {
			return nil, err
		}
	}
	for _, fk := range ct.ForeignKeys {
		if err := d.addForeignKey(fk); err != nil {
			return nil, err
		}
	}
	for _, chk := range ct.Checks {
		d.addCheck(chk)
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// applyTableOptions records ENGINE, charset, collation, comment,
// AUTO_INCREMENT and ROW_FORMAT. Other options have no MySQL-visible effect
// here.
func applyTableOptions(t *Table, opts []*ast.TableOption) {
	charset, collation := "", ""
	for _, o := range opts {
		switch o.Name {
		case "ENGINE":
			t.Engine = o.Value
		case "CHARSET":
			charset = NormalizeCharset(o.Value)
		case "COLLATE":
			collation = NormalizeCollation(o.Value)
		case "COMMENT":
			t.Comment = o.Value
		case "AUTO_INCREMENT":
			if n, err := strconv.ParseInt(o.Value, 10, 64); err == nil {
				t.AutoIncrement = n
			}
		case "ROW_FORMAT":
			if o.Value != "" {
				t.RowFormat = strings.ToUpper(o.Value[:1]) + strings.ToLower(o.Value[1:])
			}
		}
	}
	switch {
	case collation != "":
		t.Collation = collation
	case charset != "" && charset != "default":
		t.Collation = CollationFor(charset)
	}
}

// definer accumulates a table definition and applies MySQL's implicit rules
// once every part is known.
type definer struct {
	t      *Table
	src    string
	serial []string
	checks int
	fks    int
}

func (d *definer) addColumn(def *ast.ColumnDef, pos int) error {
	if d.t.Column(def.Name) != nil {
		return protocol.Errorf(protocol.ErrCodeDupFieldName, protocol.SQLStateDupField, "Duplicate column name '%s'", def.Name)
	}
	col, err := NewColumn(d.t, def, d.src)
	if err != nil {
		return err
	}
	d.t.Columns = append(d.t.Columns, nil)
	copy(d.t.Columns[pos+1:], d.t.Columns[pos:])
	d.t.Columns[pos] = col

	if def.PrimaryKey {
		if err := d.addIndex(&ast.IndexDef{Kind: ast.IndexPrimary, Columns: []*ast.IndexPart{{Column: def.Name}}}); err != nil {
			return err
		}
	}
	if def.Unique || strings.EqualFold(def.Type.Name, "SERIAL") {
		if strings.EqualFold(def.Type.Name, "SERIAL") {
			d.serial = append(d.serial, def.Name)
		}
		if err := d.addIndex(&ast.IndexDef{Kind: ast.IndexUnique, Columns: []*ast.IndexPart{{Column: def.Name}}}); err != nil {
			return err
		}
	}
	for _, chk := range def.Checks {
		d.addCheck(chk)
	}
	return nil
}

// NewColumn converts a column definition. The table supplies the default
// charset and collation.
func NewColumn(t *Table, def *ast.ColumnDef, src string) (*Column, error) {
	col := &Column{
		Name:          def.Name,
		Type:          TypeFromAST(def.Type),
		Nullable:      !def.NotNull,
		AutoIncrement: def.AutoIncrement,
		Invisible:     def.Invisible,
	}
	if !col.Type.Known() {
		return nil, protocol.Errorf(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Unknown data type '%s'", def.Type.Name)
	}
	if strings.EqualFold(def.Type.Name, "SERIAL") {
		col.Nullable = false
		col.AutoIncrement = true
	}
	if col.Type.IsString() {
		col.Charset, col.Collation = columnCollation(t, def.Type)
	}
	if def.Comment != nil {
		col.Comment = *def.Comment
	}
	if def.Default != nil {
		if err := setDefault(col, def.Default, src); err != nil {
			return nil, err
		}
	}
	if def.OnUpdate != nil {
		col.OnUpdate = currentTimestamp(def.OnUpdate)
		if col.OnUpdate == "" {
			return nil, protocol.Errorf(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Invalid ON UPDATE clause for '%s' column", def.Name)
		}
	}
	if def.Generated != nil {
		col.Generated = def.Generated.Expr.NodeSpan().Text(src)
		col.Stored = def.Generated.Stored
	}
	return col, nil
}

func columnCollation(t *Table, dt *ast.DataType) (charset, collation string) {
	switch {
	case dt.Collate != "":
		collation = NormalizeCollation(dt.Collate)
		charset = CharsetOf(collation)
	case dt.Charset != "":
		charset = NormalizeCharset(dt.Charset)
		collation = CollationFor(charset)
		if dt.Binary {
			collation = charset + "_bin"
		}
	case dt.Binary:
		charset = t.Charset()
		collation = charset + "_bin"
	default:
		charset, collation = t.Charset(), t.Collation
	}
	return charset, collation
}

var timestampFuncs = map[string]bool{
	"CURRENT_TIMESTAMP": true, "NOW": true, "LOCALTIME": true, "LOCALTIMESTAMP": true,
}

// currentTimestamp returns the canonical CURRENT_TIMESTAMP[(n)] spelling of
// a NOW-like call, or "".
func currentTimestamp(e ast.Expr) string {
	fn, ok := e.(*ast.FuncCall)
	if !ok || !timestampFuncs[strings.ToUpper(fn.Name)] {
		return ""
	}
	if len(fn.Args) == 1 {
		if lit, ok := fn.Args[0].(*ast.Literal); ok && lit.Kind == ast.LiteralInteger && lit.Value != "0" {
			return "CURRENT_TIMESTAMP(" + lit.Value + ")"
		}
	}
	return "CURRENT_TIMESTAMP"
}

func setDefault(col *Column, e ast.Expr, src string) error {
	if ts := currentTimestamp(e); ts != "" {
		col.Default, col.DefaultExpr = &ts, true
		return nil
	}
	switch v := e.(type) {
	case *ast.Literal:
		switch v.Kind {
		case ast.LiteralNull:
			col.Default = nil
			return nil
		case ast.LiteralTrue:
			col.Default = ptr("1")
		case ast.LiteralFalse:
			col.Default = ptr("0")
		case ast.LiteralHex, ast.LiteralBit:
			text := v.NodeSpan().Text(src)
			col.Default, col.DefaultExpr = &text, true
			return nil
		default:
			val := v.Value
			col.Default = &val
		}
	case *ast.Unary:
		lit, ok := v.X.(*ast.Literal)
		if (v.Op != "-" && v.Op != "+") || !ok || (lit.Kind != ast.LiteralInteger && lit.Kind != ast.LiteralDecimal) {
			return protocol.Errorf(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Invalid default value for '%s'", col.Name)
		}
		val := lit.Value
		if v.Op == "-" {
			val = "-" + val
		}
		col.Default = &val
	case *ast.Paren:
		text := v.X.NodeSpan().Text(src)
		col.Default, col.DefaultExpr = &text, true
		return nil
	default:
		return protocol.Errorf(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Invalid default value for '%s'", col.Name)
	}

	fixDecimalDefault(col)
	return nil
}

// fixDecimalDefault writes a DECIMAL default with the column's scale, as
// MySQL stores it.
func fixDecimalDefault(col *Column) {
	if col.Default == nil || col.DefaultExpr {
		return
	}
	if scale := col.Type.Scale(); scale >= 0 {
		if d, err := decimal.NewFromString(*col.Default); err == nil {
			s := d.StringFixed(int32(scale))
			col.Default = &s
		}
	}
}

func (d *definer) addIndex(def *ast.IndexDef) error {
	idx, err := NewIndex(d.t, def)
	if err != nil {
		return err
	}
	if idx.Kind == IndexPrimary && d.t.Primary() != nil {
		return protocol.NewMySQLError(protocol.ErrCodeMultiplePriKey, protocol.SQLStateSyntax, "Multiple primary key defined")
	}
	if idx.Kind != IndexPrimary && d.t.Index(idx.Name) != nil {
		return protocol.Errorf(protocol.ErrCodeDupKeyName, protocol.SQLStateSyntax, "Duplicate key name '%s'", idx.Name)
	}
	d.t.Indexes = append(d.t.Indexes, idx)
	return nil
}

// NewIndex converts a key definition, naming it after its first column when
// no name is given.
func NewIndex(t *Table, def *ast.IndexDef) (*Index, error) {
	idx := &Index{Name: def.Name, Comment: def.Comment}
	switch def.Kind {
	case ast.IndexPrimary:
		idx.Kind, idx.Name = IndexPrimary, PrimaryName
	case ast.IndexUnique:
		idx.Kind = IndexUnique
	case ast.IndexFulltext:
		idx.Kind = IndexFulltext
	case ast.IndexSpatial:
		idx.Kind = IndexSpatial
	default:
		idx.Kind = IndexKey
	}
	if idx.Name == "" {
		idx.Name = def.Constraint
	}
	for _, p := range def.Columns {
		if p.Expr != nil {
			return nil, protocol.NewMySQLError(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Functional key parts are not supported")
		}
		col := t.Column(p.Column)
		if col == nil {
			return nil, protocol.Errorf(protocol.ErrCodeKeyColumnMissing, protocol.SQLStateSyntax, "Key column '%s' doesn't exist in table", p.Column)
		}
		idx.Columns = append(idx.Columns, &IndexColumn{Name: col.Name, SubPart: p.Length, Desc: p.Desc})
	}
	if idx.Name == "" {
		idx.Name = uniqueIndexName(t, idx.Columns[0].Name)
	}
	return idx, nil
}

func uniqueIndexName(t *Table, base string) string {
	name := base
	for n := 2; t.Index(name) != nil || strings.EqualFold(name, PrimaryName); n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	return name
}

func (d *definer) addForeignKey(def *ast.ForeignKeyDef) error {
	d.fks++
	fk := &ForeignKey{
		Name:       def.Name,
		RefTable:   def.RefTable.Name,
		RefColumns: append([]string(nil), def.RefColumns...),
		OnDelete:   referenceAction(def.OnDelete),
		OnUpdate:   referenceAction(def.OnUpdate),
	}
	if fk.Name == "" {
		fk.Name = fmt.Sprintf("%s_ibfk_%d", d.t.Name, d.fks)
	}
	for _, c := range def.Columns {
		col := d.t.Column(c)
		if col == nil {
			return protocol.Errorf(protocol.ErrCodeKeyColumnMissing, protocol.SQLStateSyntax, "Key column '%s' doesn't exist in table", c)
		}
		fk.Columns = append(fk.Columns, col.Name)
	}
	d.t.ForeignKeys = append(d.t.ForeignKeys, fk)

	// MySQL creates a key for the referencing columns unless one leads with them
	name := def.IndexName
	if name == "" {
		name = def.Name
	}
	addForeignKeyIndex(d.t, fk, name)
	return nil
}

func addForeignKeyIndex(t *Table, fk *ForeignKey, name string) {
	for _, idx := range t.Indexes {
		if idx.Kind == IndexFulltext || idx.Kind == IndexSpatial || len(idx.Columns) < len(fk.Columns) {
			continue
		}
		covered := true
		for i, c := range fk.Columns {
			if !strings.EqualFold(idx.Columns[i].Name, c) {
				covered = false
				break
			}
		}
		if covered {
			return
		}
	}
	if name == "" || t.Index(name) != nil {
		name = uniqueIndexName(t, fk.Columns[0])
	}
	idx := &Index{Name: name, Kind: IndexKey}
	for _, c := range fk.Columns {
		idx.Columns = append(idx.Columns, &IndexColumn{Name: c})
	}
	t.Indexes = append(t.Indexes, idx)
}

func referenceAction(a string) string {
	if a == "" {
		return "NO ACTION"
	}
	return strings.ToUpper(a)
}

func (d *definer) addCheck(def *ast.CheckDef) {
	d.checks++
	name := def.Name
	if name == "" {
		name = fmt.Sprintf("%s_chk_%d", d.t.Name, d.checks)
	}
	d.t.Checks = append(d.t.Checks, &Check{Name: name, Clause: CheckClause(def.Expr, d.src), Enforced: !def.NotEnforced})
}

// CheckClause returns the parenthesized source text of a CHECK expression.
func CheckClause(e ast.Expr, src string) string {
	text := e.NodeSpan().Text(src)
	if _, ok := e.(*ast.Paren); ok {
		return text
	}
	return "(" + text + ")"
}

// finish applies the rules that need the whole definition: SERIAL
// promotion, primary key nullability, the auto-increment key check, prefix
// lengths and key order.
func (d *definer) finish() error {
	return Normalize(d.t, d.serial...)
}

// Normalize applies MySQL's whole-table rules to t. Columns named in serial
// were declared SERIAL; the first of them becomes the primary key when the
// table has none.
func Normalize(t *Table, serial ...string) error {
	if t.Primary() == nil && len(serial) > 0 {
		for _, idx := range t.Indexes {
			if idx.Kind == IndexUnique && len(idx.Columns) == 1 && strings.EqualFold(idx.Columns[0].Name, serial[0]) {
				idx.Kind, idx.Name = IndexPrimary, PrimaryName
				break
			}
		}
	}
	if pk := t.Primary(); pk != nil {
		for _, ic := range pk.Columns {
			if col := t.Column(ic.Name); col != nil {
				col.Nullable = false
			}
		}
	}

	autos := 0
	for _, col := range t.Columns {
		if !col.AutoIncrement {
			continue
		}
		autos++
		keyed := false
		for _, idx := range t.Indexes {
			if len(idx.Columns) > 0 && strings.EqualFold(idx.Columns[0].Name, col.Name) {
				keyed = true
				break
			}
		}
		if !keyed || autos > 1 {
			return protocol.NewMySQLError(protocol.ErrCodeWrongAutoKey, protocol.SQLStateSyntax,
				"Incorrect table definition; there can be only one auto column and it must be defined as a key")
		}
	}

	for _, idx := range t.Indexes {
		applySubParts(t, idx)
	}
	SortIndexes(t.Indexes)
	return nil
}
