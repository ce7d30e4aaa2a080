package catalog

import (
	"strconv"
	"strings"
)

// ShowCreateTable renders a table the way MySQL's SHOW CREATE TABLE does.
func ShowCreateTable(t *Table) string {
	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+columnDefinition(t, c))
	}
	for _, idx := range t.Indexes {
		lines = append(lines, "  "+indexDefinition(idx))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, "  "+foreignKeyDefinition(fk))
	}
	for _, chk := range t.Checks {
		def := "CONSTRAINT " + QuoteIdent(chk.Name) + " CHECK (" + chk.Clause + ")"
		if !chk.Enforced {
			def += " /*!80016 NOT ENFORCED */"
		}
		lines = append(lines, "  "+def)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(QuoteIdent(t.Name))
	b.WriteString(" (\n")
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n) ENGINE=")
	b.WriteString(t.Engine)
	if t.AutoIncrementColumn() != nil && t.AutoIncrement > 1 {
		b.WriteString(" AUTO_INCREMENT=")
		b.WriteString(strconv.FormatInt(t.AutoIncrement, 10))
	}
	b.WriteString(" DEFAULT CHARSET=")
	b.WriteString(t.Charset())
	b.WriteString(" COLLATE=")
	b.WriteString(t.Collation)
	if t.RowFormat != "" {
		b.WriteString(" ROW_FORMAT=")
		b.WriteString(strings.ToUpper(t.RowFormat))
	}
	if t.Comment != "" {
		b.WriteString(" COMMENT=")
		b.WriteString(QuoteString(t.Comment))
	}
	return b.String()
}

func columnDefinition(t *Table, c *Column) string {
	parts := []string{QuoteIdent(c.Name), c.Type.ColumnType()}
	if c.Type.IsString() {
		switch {
		case c.Charset != t.Charset():
			parts = append(parts, "CHARACTER SET "+c.Charset, "COLLATE "+c.Collation)
		case c.Collation != t.Collation:
			parts = append(parts, "COLLATE "+c.Collation)
		}
	}
	if c.Generated != "" {
		kind := "VIRTUAL"
		if c.Stored {
			kind = "STORED"
		}
		parts = append(parts, "GENERATED ALWAYS AS ("+c.Generated+") "+kind)
	}
	switch {
	case !c.Nullable:
		parts = append(parts, "NOT NULL")
	case c.Type.Name == "timestamp":
		parts = append(parts, "NULL")
	}
	if c.Invisible {
		parts = append(parts, "/*!80023 INVISIBLE */")
	}
	switch {
	case c.Generated != "" || c.AutoIncrement:
	case c.Default != nil:
		parts = append(parts, "DEFAULT "+defaultLiteral(c))
	case c.Nullable && c.Type.HasImplicitDefault():
		parts = append(parts, "DEFAULT NULL")
	}
	if c.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+c.OnUpdate)
	}
	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if c.Comment != "" {
		parts = append(parts, "COMMENT "+QuoteString(c.Comment))
	}
	return strings.Join(parts, " ")
}

// defaultLiteral renders a stored default: timestamps and bit or hex
// literals as written, other expressions in parentheses and plain values
// quoted.
func defaultLiteral(c *Column) string {
	d := *c.Default
	if !c.DefaultExpr {
		return QuoteString(d)
	}
	upper := strings.ToUpper(d)
	if strings.HasPrefix(upper, "CURRENT_TIMESTAMP") ||
		strings.HasPrefix(upper, "X'") || strings.HasPrefix(upper, "B'") ||
		strings.HasPrefix(upper, "0X") || strings.HasPrefix(upper, "0B") {
		return d
	}
	return "(" + d + ")"
}

func indexDefinition(idx *Index) string {
	var b strings.Builder
	switch idx.Kind {
	case IndexPrimary:
		b.WriteString("PRIMARY KEY ")
	case IndexUnique:
		b.WriteString("UNIQUE KEY " + QuoteIdent(idx.Name) + " ")
	case IndexFulltext:
		b.WriteString("FULLTEXT KEY " + QuoteIdent(idx.Name) + " ")
	case IndexSpatial:
		b.WriteString("SPATIAL KEY " + QuoteIdent(idx.Name) + " ")
	default:
		b.WriteString("KEY " + QuoteIdent(idx.Name) + " ")
	}
	b.WriteByte('(')
	for i, ic := range idx.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(QuoteIdent(ic.Name))
		if ic.SubPart > 0 {
			b.WriteString("(" + strconv.Itoa(ic.SubPart) + ")")
		}
		if ic.Desc {
			b.WriteString(" DESC")
		}
	}
	b.WriteByte(')')
	if idx.Comment != "" {
		b.WriteString(" COMMENT " + QuoteString(idx.Comment))
	}
	return b.String()
}

func quoteList(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = QuoteIdent(n)
	}
	return strings.Join(q, ", ")
}

func foreignKeyDefinition(fk *ForeignKey) string {
	def := "CONSTRAINT " + QuoteIdent(fk.Name) + " FOREIGN KEY (" + quoteList(fk.Columns) +
		") REFERENCES " + QuoteIdent(fk.RefTable) + " (" + quoteList(fk.RefColumns) + ")"
	if a := fk.OnDelete; a != "" && a != "NO ACTION" {
		def += " ON DELETE " + a
	}
	if a := fk.OnUpdate; a != "" && a != "NO ACTION" {
		def += " ON UPDATE " + a
	}
	return def
}
