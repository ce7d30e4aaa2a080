package transform

import (
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/parser"
)

// nativeOptions modify the CREATE TABLE emitted for a model.
type nativeOptions struct {
	name        string
	temporary   bool
	ifNotExists bool
}

// nativeTable emits the SQLite table for t. The model keeps every MySQL
// detail; the native table only carries what SQLite can enforce.
func (l *lowerer) nativeTable(t *catalog.Table, opt nativeOptions) error {
	if opt.name == "" {
		opt.name = t.Name
	}
	s := l.serializer()
	s.w.kw("CREATE")
	if opt.temporary {
		s.w.kw("TEMP")
	}
	s.w.kw("TABLE")
	if opt.ifNotExists {
		s.w.kw("IF", "NOT", "EXISTS")
	}
	s.w.ident(opt.name)
	s.w.open()

	rowid := t.RowidAlias()
	for i, c := range t.Columns {
		if i > 0 {
			s.w.comma()
		}
		s.nativeColumn(t, c, c == rowid)
	}
	if pk := t.Primary(); pk != nil && rowid == nil {
		s.w.comma()
		s.w.kw("PRIMARY", "KEY")
		s.w.identList(pk.ColumnNames())
	}
	for _, fk := range t.ForeignKeys {
		s.w.comma()
		s.w.kw("CONSTRAINT")
		s.w.ident(fk.Name)
		s.w.kw("FOREIGN", "KEY")
		s.w.identList(fk.Columns)
		s.w.kw("REFERENCES")
		s.w.ident(fk.RefTable)
		s.w.identList(fk.RefColumns)
		if fk.OnDelete != "" && fk.OnDelete != "NO ACTION" {
			s.w.kw("ON", "DELETE", fk.OnDelete)
		}
		if fk.OnUpdate != "" && fk.OnUpdate != "NO ACTION" {
			s.w.kw("ON", "UPDATE", fk.OnUpdate)
		}
	}
	for _, chk := range t.Checks {
		if !chk.Enforced {
			continue
		}
		s.w.comma()
		if chk.Name != "" {
			s.w.kw("CONSTRAINT")
			s.w.ident(chk.Name)
		}
		s.w.kw("CHECK")
		s.w.open()
		s.sourceExpr(chk.Clause)
		s.w.close()
	}
	s.w.close()
	if l.env.Features.StrictTables {
		s.w.kw("STRICT")
	}
	return l.emit(s, KindExec, false)
}

func (s *SQLiteSerializer) nativeColumn(t *catalog.Table, c *catalog.Column, rowid bool) {
	s.w.ident(c.Name)
	if rowid {
		s.w.kw("INTEGER", "NOT", "NULL", "PRIMARY", "KEY", "AUTOINCREMENT")
		return
	}
	aff := c.Type.Affinity()
	if aff == catalog.AffinityInteger {
		if pk := t.Primary(); pk != nil && len(pk.Columns) == 1 && strings.EqualFold(pk.Columns[0].Name, c.Name) {
			// INTEGER would turn PRIMARY KEY (col) into a rowid alias
			aff = "INT"
		}
	}
	s.w.kw(aff)
	if !c.Nullable {
		s.w.kw("NOT", "NULL")
	}
	if c.Generated != "" {
		s.w.kw("GENERATED", "ALWAYS", "AS")
		s.w.open()
		s.sourceExpr(c.Generated)
		s.w.close()
		if c.Stored {
			s.w.kw("STORED")
		} else {
			s.w.kw("VIRTUAL")
		}
	} else if c.Default != nil {
		s.w.kw("DEFAULT")
		s.nativeDefault(c)
	}
	if c.Collation != "" && !catalog.CaseSensitive(c.Collation) {
		s.w.kw("COLLATE", "NOCASE")
	}
}

// nativeDefault writes a column default. SQLite takes literals bare and any
// other expression in parentheses.
func (s *SQLiteSerializer) nativeDefault(c *catalog.Column) {
	text := *c.Default
	if !c.DefaultExpr {
		s.w.str(text)
		return
	}
	if strings.HasPrefix(strings.ToUpper(text), "CURRENT_TIMESTAMP") {
		s.w.kw("CURRENT_TIMESTAMP")
		return
	}
	e, err := parser.New(grammar.Default()).ParseExpr(text)
	if err != nil {
		s.fail(err)
		return
	}
	c2 := s.sub(text)
	if _, ok := e.(*ast.Literal); ok {
		c2.node(e)
	} else {
		c2.w.open()
		c2.expr(e, precLowest)
		c2.w.close()
	}
	s.join(c2)
}

// sourceExpr renders MySQL expression text kept in the model, such as a
// CHECK clause or a generation expression.
func (s *SQLiteSerializer) sourceExpr(text string) {
	e, err := parser.New(grammar.Default()).ParseExpr(text)
	if err != nil {
		s.fail(err)
		return
	}
	if p, ok := e.(*ast.Paren); ok {
		e = p.X
	}
	c := s.sub(text)
	c.expr(e, precLowest)
	s.join(c)
}

// nativeIndexes emits CREATE INDEX for every key but the primary key.
// Prefix lengths have no SQLite equivalent and index the whole column.
func (l *lowerer) nativeIndexes(t *catalog.Table, idx []*catalog.Index) {
	for _, i := range idx {
		if i.Kind == catalog.IndexPrimary {
			continue
		}
		l.raw(KindExec, createIndexSQL(t.Name, i))
	}
}

func createIndexSQL(table string, i *catalog.Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if i.Kind == catalog.IndexUnique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(catalog.QuoteIdent(catalog.NativeIndexName(table, i.Name)))
	b.WriteString(" ON ")
	b.WriteString(catalog.QuoteIdent(table))
	b.WriteString(" (")
	for n, c := range i.Columns {
		if n > 0 {
			b.WriteString(", ")
		}
		b.WriteString(catalog.QuoteIdent(c.Name))
		if c.Desc {
			b.WriteString(" DESC")
		}
	}
	b.WriteString(")")
	return b.String()
}

func dropIndexSQL(table, index string) string {
	return "DROP INDEX IF EXISTS " + catalog.QuoteIdent(catalog.NativeIndexName(table, index))
}

// nativeTriggers emits the triggers that emulate ON UPDATE CURRENT_TIMESTAMP.
func (l *lowerer) nativeTriggers(t *catalog.Table, temporary bool) {
	for _, c := range t.Columns {
		if c.OnUpdate == "" {
			continue
		}
		kw := "CREATE TRIGGER "
		if temporary {
			kw = "CREATE TEMP TRIGGER "
		}
		table := catalog.QuoteIdent(t.Name)
		l.raw(KindExec, kw+catalog.QuoteIdent(catalog.OnUpdateTriggerName(t.Name, c.Name))+
			" AFTER UPDATE ON "+table+" FOR EACH ROW BEGIN UPDATE "+table+
			" SET "+catalog.QuoteIdent(c.Name)+" = CURRENT_TIMESTAMP WHERE rowid = NEW.rowid; END")
	}
}

func (l *lowerer) dropTriggers(t *catalog.Table) {
	for _, c := range t.Columns {
		if c.OnUpdate != "" {
			l.raw(KindExec, "DROP TRIGGER IF EXISTS "+catalog.QuoteIdent(catalog.OnUpdateTriggerName(t.Name, c.Name)))
		}
	}
}

// seedAutoIncrement makes the next generated id of t equal
// t.AutoIncrement.
func (l *lowerer) seedAutoIncrement(t *catalog.Table) {
	if t.AutoIncrement <= 1 || t.RowidAlias() == nil {
		return
	}
	l.raw(KindExec, "DELETE FROM sqlite_sequence WHERE name = ?", t.Name)
	l.raw(KindExec, "INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)", t.Name, t.AutoIncrement-1)
}
