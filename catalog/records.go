package catalog

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
)

// recorder renders the catalog rows of a table model.
type recorder struct {
	schema string
	now    string
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func (r recorder) tableRecord(t *Table) goqu.Record {
	var auto any
	if t.AutoIncrementColumn() != nil {
		next := t.AutoIncrement
		if next < 1 {
			next = 1
		}
		auto = next
	}
	rowFormat := t.RowFormat
	if rowFormat == "" {
		rowFormat = DefaultRowFormat
	}
	return goqu.Record{
		"table_schema":    r.schema,
		"table_name":      t.Name,
		"table_type":      "BASE TABLE",
		"engine":          t.Engine,
		"row_format":      rowFormat,
		"auto_increment":  auto,
		"create_time":     r.now,
		"table_collation": t.Collation,
		"create_options":  createOptions(t),
		"table_comment":   t.Comment,
	}
}

func createOptions(t *Table) string {
	if t.RowFormat != "" {
		return "row_format=" + strings.ToUpper(t.RowFormat)
	}
	return ""
}

// extra renders the information_schema extra column.
func extra(c *Column) string {
	var parts []string
	if c.AutoIncrement {
		parts = append(parts, "auto_increment")
	}
	if c.DefaultExpr {
		parts = append(parts, "DEFAULT_GENERATED")
	}
	if c.OnUpdate != "" {
		parts = append(parts, "on update "+c.OnUpdate)
	}
	if c.Generated != "" {
		if c.Stored {
			parts = append(parts, "STORED GENERATED")
		} else {
			parts = append(parts, "VIRTUAL GENERATED")
		}
	}
	if c.Invisible {
		parts = append(parts, "INVISIBLE")
	}
	return strings.Join(parts, " ")
}

func (r recorder) columnRecord(t *Table, i int) goqu.Record {
	c := t.Columns[i]
	rec := goqu.Record{
		"table_schema":          r.schema,
		"table_name":            t.Name,
		"column_name":           c.Name,
		"ordinal_position":      i + 1,
		"column_default":        nullable(c.Default),
		"is_nullable":           yesNo(c.Nullable),
		"data_type":             c.Type.Name,
		"column_type":           c.Type.ColumnType(),
		"column_key":            t.ColumnKey(c.Name),
		"extra":                 extra(c),
		"column_comment":        c.Comment,
		"generation_expression": c.Generated,
		"character_set_name":    nil,
		"collation_name":        nil,
	}
	if n, ok := c.Type.CharLength(); ok {
		rec["character_maximum_length"] = n
		o, _ := c.Type.OctetLength(c.Charset)
		rec["character_octet_length"] = o
	} else {
		rec["character_maximum_length"] = nil
		rec["character_octet_length"] = nil
	}
	p, s := c.Type.NumericPrecision()
	rec["numeric_precision"] = nullable(p)
	rec["numeric_scale"] = nullable(s)
	rec["datetime_precision"] = nullable(c.Type.DatetimePrecision())
	if c.Type.IsString() {
		rec["character_set_name"] = c.Charset
		rec["collation_name"] = c.Collation
	}
	return rec
}

// implicitPrimary reports a primary key stored only as the column's
// PRI key: a single column without a prefix.
func implicitPrimary(idx *Index) bool {
	return idx.Kind == IndexPrimary && len(idx.Columns) == 1 && idx.Columns[0].SubPart == 0
}

func (r recorder) statisticsRecords(t *Table, idx *Index) []goqu.Record {
	if implicitPrimary(idx) {
		return nil
	}
	nonUnique := 1
	if idx.Unique() {
		nonUnique = 0
	}
	out := make([]goqu.Record, 0, len(idx.Columns))
	for i, ic := range idx.Columns {
		var collation any = "A"
		if ic.Desc {
			collation = "D"
		}
		if idx.Kind == IndexFulltext {
			collation = nil
		}
		var subPart any
		if ic.SubPart > 0 {
			subPart = ic.SubPart
		}
		null := ""
		if c := t.Column(ic.Name); c != nil && c.Nullable {
			null = "YES"
		}
		out = append(out, goqu.Record{
			"table_schema":  r.schema,
			"table_name":    t.Name,
			"non_unique":    nonUnique,
			"index_schema":  r.schema,
			"index_name":    idx.Name,
			"seq_in_index":  i + 1,
			"column_name":   ic.Name,
			"collation":     collation,
			"sub_part":      subPart,
			"nullable":      null,
			"index_type":    idx.IndexType(),
			"index_comment": idx.Comment,
		})
	}
	return out
}

// constraintRows holds the constraint catalog rows of one named constraint.
type constraintRows struct {
	constraint  goqu.Record
	usage       []goqu.Record
	referential goqu.Record
	check       goqu.Record
}

func (r recorder) constraints(t *Table) ([]string, map[string]*constraintRows) {
	var names []string
	out := map[string]*constraintRows{}
	add := func(name, kind string, enforced bool) *constraintRows {
		cr := &constraintRows{constraint: goqu.Record{
			"constraint_schema": r.schema,
			"constraint_name":   name,
			"table_schema":      r.schema,
			"table_name":        t.Name,
			"constraint_type":   kind,
			"enforced":          yesNo(enforced),
		}}
		names = append(names, name)
		out[name] = cr
		return cr
	}
	usage := func(name string, i int, col string) goqu.Record {
		return goqu.Record{
			"constraint_schema":             r.schema,
			"constraint_name":               name,
			"table_schema":                  r.schema,
			"table_name":                    t.Name,
			"column_name":                   col,
			"ordinal_position":              i + 1,
			"position_in_unique_constraint": nil,
			"referenced_table_schema":       nil,
			"referenced_table_name":         nil,
			"referenced_column_name":        nil,
		}
	}

	for _, idx := range t.Indexes {
		if !idx.Unique() {
			continue
		}
		kind := "UNIQUE"
		if idx.Kind == IndexPrimary {
			kind = "PRIMARY KEY"
		}
		cr := add(idx.Name, kind, true)
		for i, ic := range idx.Columns {
			cr.usage = append(cr.usage, usage(idx.Name, i, ic.Name))
		}
	}
	for _, fk := range t.ForeignKeys {
		cr := add(fk.Name, "FOREIGN KEY", true)
		for i, c := range fk.Columns {
			u := usage(fk.Name, i, c)
			u["position_in_unique_constraint"] = i + 1
			u["referenced_table_schema"] = r.schema
			u["referenced_table_name"] = fk.RefTable
			if i < len(fk.RefColumns) {
				u["referenced_column_name"] = fk.RefColumns[i]
			}
			cr.usage = append(cr.usage, u)
		}
		cr.referential = goqu.Record{
			"constraint_schema":        r.schema,
			"constraint_name":          fk.Name,
			"unique_constraint_schema": r.schema,
			"unique_constraint_name":   nil,
			"update_rule":              fk.OnUpdate,
			"delete_rule":              fk.OnDelete,
			"table_name":               t.Name,
			"referenced_table_name":    fk.RefTable,
		}
	}
	for _, chk := range t.Checks {
		cr := add(chk.Name, "CHECK", chk.Enforced)
		cr.check = goqu.Record{
			"constraint_schema": r.schema,
			"constraint_name":   chk.Name,
			"check_clause":      chk.Clause,
		}
	}
	return names, out
}

// NativeIndexName is the SQLite name of a MySQL key.
func NativeIndexName(table, index string) string {
	return table + "__" + index
}

// typeCacheEntries maps each column to its column_type and each FULLTEXT or
// SPATIAL key, by native name, to its kind.
func typeCacheEntries(t *Table) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		out[c.Name] = c.Type.ColumnType()
	}
	for _, idx := range t.Indexes {
		if idx.Kind == IndexFulltext || idx.Kind == IndexSpatial {
			out[NativeIndexName(t.Name, idx.Name)] = string(idx.Kind)
		}
	}
	return out
}
