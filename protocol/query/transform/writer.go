package transform

import (
	"strings"

	"github.com/maxpert/mylite/catalog"
)

// sqlWriter accumulates SQLite text token by token. It owns spacing and
// quoting: a space separates tokens except after "(" or "." and before ")",
// "," or ".".
type sqlWriter struct {
	b      strings.Builder
	params []any
	glue   bool
}

func (w *sqlWriter) tok(s string) {
	if s == "" {
		return
	}
	if w.b.Len() > 0 && !w.glue {
		out := w.b.String()
		prev := out[len(out)-1]
		if prev != '(' && prev != '.' && prev != ' ' && s[0] != ')' && s[0] != ',' && s[0] != '.' {
			w.b.WriteByte(' ')
		}
	}
	w.glue = false
	w.b.WriteString(s)
}

// kw writes keywords or other bare tokens.
func (w *sqlWriter) kw(words ...string) {
	for _, s := range words {
		w.tok(s)
	}
}

func (w *sqlWriter) ident(name string) {
	w.tok(catalog.QuoteIdent(name))
}

// qualified writes a dotted name, skipping empty parts.
func (w *sqlWriter) qualified(parts ...string) {
	var quoted []string
	for _, p := range parts {
		if p != "" {
			quoted = append(quoted, catalog.QuoteIdent(p))
		}
	}
	w.tok(strings.Join(quoted, "."))
}

func (w *sqlWriter) str(s string) {
	w.tok(catalog.QuoteString(s))
}

func (w *sqlWriter) open()  { w.tok("(") }
func (w *sqlWriter) close() { w.tok(")") }
func (w *sqlWriter) comma() { w.tok(",") }

// call writes "name(" with no space before the parenthesis.
func (w *sqlWriter) call(name string) {
	w.tok(name)
	w.glue = true
	w.tok("(")
}

// prefix writes an operator glued to its operand.
func (w *sqlWriter) prefix(op string) {
	w.tok(op)
	w.glue = true
}

func (w *sqlWriter) param(ref ParamRef) {
	w.tok("?")
	w.params = append(w.params, ref)
}

func (w *sqlWriter) bind(v any) {
	w.tok("?")
	w.params = append(w.params, v)
}

func (w *sqlWriter) identList(names []string) {
	w.open()
	for i, n := range names {
		if i > 0 {
			w.comma()
		}
		w.ident(n)
	}
	w.close()
}

func (w *sqlWriter) mark() int {
	return w.b.Len()
}

func (w *sqlWriter) since(mark int) string {
	return w.b.String()[mark:]
}

// statement returns what has been written and resets the writer.
func (w *sqlWriter) statement(kind Kind) TranspiledStatement {
	st := TranspiledStatement{SQL: w.b.String(), Params: w.params, Kind: kind}
	w.b.Reset()
	w.params = nil
	w.glue = false
	return st
}
