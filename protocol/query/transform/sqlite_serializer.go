package transform

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/parser"
)

// SQLite operator precedence, lowest binding first. Operands are
// parenthesized by these levels, not MySQL's, so the emitted text always
// groups the way the parsed tree does.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precEquality
	precRelational
	precBitwise
	precAdditive
	precMultiplicative
	precConcat
	precCollate
	precUnary
	precAtom
)

// SQLiteSerializer renders normalized AST nodes as SQLite text. The first
// error is kept and returned by finish; rendering continues so callers need
// not check after every node.
type SQLiteSerializer struct {
	ctx context.Context
	p   *ast.Parsed
	env *Env
	w   *sqlWriter
	err error
	// dynamic is set once the output embeds session state.
	dynamic bool
	// upsert allows VALUES(col) references.
	upsert bool
	// target resolves DEFAULT and DEFAULT(col).
	target *catalog.Table
}

func newSerializer(ctx context.Context, p *ast.Parsed, env *Env) *SQLiteSerializer {
	return &SQLiteSerializer{ctx: ctx, p: p, env: env, w: &sqlWriter{}}
}

// sub renders text that came from somewhere other than the statement, such
// as a stored column default, into the same output.
func (s *SQLiteSerializer) sub(src string) *SQLiteSerializer {
	c := *s
	c.p = &ast.Parsed{Source: src}
	c.err = nil
	return &c
}

func (s *SQLiteSerializer) join(c *SQLiteSerializer) {
	s.fail(c.err)
	s.dynamic = s.dynamic || c.dynamic
}

func (s *SQLiteSerializer) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

func (s *SQLiteSerializer) finish(kind Kind) (TranspiledStatement, error) {
	st := s.w.statement(kind)
	return st, s.err
}

func (s *SQLiteSerializer) text(n ast.Node) string {
	return s.p.Text(n)
}

func (s *SQLiteSerializer) database() string {
	if s.env == nil {
		return ""
	}
	return s.env.Database
}

func (s *SQLiteSerializer) checkSchema(schema string) {
	if schema == "" || strings.EqualFold(schema, s.database()) {
		return
	}
	s.fail(protocol.Errorf(protocol.ErrCodeBadDB, protocol.SQLStateSyntax, "Unknown database '%s'", schema))
}

// Select renders a complete query.
func (s *SQLiteSerializer) Select(sel *ast.Select) {
	if sel.With != nil {
		s.with(sel.With)
	}
	s.body(sel.Body)
	s.orderBy(sel.OrderBy)
	s.limit(sel.Limit)
}

func (s *SQLiteSerializer) with(w *ast.With) {
	s.w.kw("WITH")
	if w.Recursive {
		s.w.kw("RECURSIVE")
	}
	for i, cte := range w.CTEs {
		if i > 0 {
			s.w.comma()
		}
		s.w.ident(cte.Name)
		if len(cte.Columns) > 0 {
			s.w.identList(cte.Columns)
		}
		s.w.kw("AS")
		s.w.open()
		s.Select(cte.Query)
		s.w.close()
	}
}

// simpleSelect reports a parenthesized query that can lose its parentheses.
func simpleSelect(sel *ast.Select) bool {
	if sel.With != nil || len(sel.OrderBy) > 0 || sel.Limit != nil {
		return false
	}
	switch b := sel.Body.(type) {
	case *ast.QuerySpec:
		return true
	case *ast.ParenQuery:
		return simpleSelect(b.Query)
	}
	return false
}

func (s *SQLiteSerializer) body(q ast.QueryExpr) {
	switch v := q.(type) {
	case *ast.QuerySpec:
		s.querySpec(v)
	case *ast.SetOperation:
		s.setOperation(v)
	case *ast.ParenQuery:
		if simpleSelect(v.Query) {
			s.body(v.Query.Body)
			return
		}
		s.wrapped(v.Query)
	}
}

func (s *SQLiteSerializer) wrapped(sel *ast.Select) {
	s.w.kw("SELECT", "*", "FROM")
	s.w.open()
	s.Select(sel)
	s.w.close()
}

// setOperation renders a compound select. SQLite operands cannot be
// parenthesized and all compound operators bind equally from the left, so
// right-nested operations and operands with their own ORDER BY or LIMIT
// become derived tables.
func (s *SQLiteSerializer) setOperation(op *ast.SetOperation) {
	s.operand(op.Left, false)
	keyword := strings.ToUpper(op.Op)
	if op.All {
		if keyword != "UNION" {
			s.fail(unsupported("%s ALL", keyword))
		}
		s.w.kw(keyword, "ALL")
	} else {
		s.w.kw(keyword)
	}
	s.operand(op.Right, true)
}

func (s *SQLiteSerializer) operand(q ast.QueryExpr, right bool) {
	switch v := q.(type) {
	case *ast.QuerySpec:
		s.querySpec(v)
	case *ast.SetOperation:
		if right {
			s.wrapped(&ast.Select{Body: v})
			return
		}
		s.setOperation(v)
	case *ast.ParenQuery:
		if simpleSelect(v.Query) {
			s.operand(v.Query.Body, right)
			return
		}
		s.wrapped(v.Query)
	}
}

func (s *SQLiteSerializer) querySpec(q *ast.QuerySpec) {
	s.w.kw("SELECT")
	if q.Distinct {
		s.w.kw("DISTINCT")
	}
	for i, it := range q.Items {
		if i > 0 {
			s.w.comma()
		}
		s.selectItem(it)
	}
	if len(q.From) > 0 {
		s.w.kw("FROM")
		s.tables(q.From)
	}
	if q.Where != nil {
		s.w.kw("WHERE")
		s.expr(q.Where, precLowest)
	}
	if len(q.GroupBy) > 0 {
		s.w.kw("GROUP BY")
		s.exprList(q.GroupBy)
	}
	if q.WithRollup {
		s.fail(unsupported("WITH ROLLUP"))
	}
	if q.Having != nil {
		s.w.kw("HAVING")
		s.expr(q.Having, precLowest)
	}
}

// selectItem renders one result column. An unaliased expression whose
// SQLite text differs from what was written keeps its MySQL column name.
func (s *SQLiteSerializer) selectItem(it *ast.SelectItem) {
	mark := s.w.mark()
	s.expr(it.Expr, precLowest)
	if it.Alias != "" {
		s.w.kw("AS")
		s.w.ident(it.Alias)
		return
	}
	switch it.Expr.(type) {
	case *ast.ColumnRef, *ast.Star:
		return
	}
	orig := s.text(it.Expr)
	if orig != "" && strings.TrimLeft(s.w.since(mark), " ") != orig {
		s.w.kw("AS")
		s.w.ident(orig)
	}
}

func (s *SQLiteSerializer) tables(ts []ast.TableExpr) {
	for i, t := range ts {
		if i > 0 {
			s.w.comma()
		}
		s.tableExpr(t)
	}
}

func (s *SQLiteSerializer) tableExpr(t ast.TableExpr) {
	switch v := t.(type) {
	case *ast.TableName:
		s.tableName(v)
	case *ast.Join:
		s.tableExpr(v.Left)
		kind := v.Kind.String()
		if v.Kind == ast.JoinStraight {
			kind = "JOIN"
		}
		s.w.kw(kind)
		if _, nested := v.Right.(*ast.Join); nested {
			s.w.open()
			s.tableExpr(v.Right)
			s.w.close()
		} else {
			s.tableExpr(v.Right)
		}
		if v.On != nil {
			s.w.kw("ON")
			s.expr(v.On, precLowest)
		}
		if len(v.Using) > 0 {
			s.w.kw("USING")
			s.w.identList(v.Using)
		}
	case *ast.DerivedTable:
		if v.Lateral {
			s.fail(unsupported("LATERAL"))
		}
		if len(v.Columns) > 0 {
			s.fail(unsupported("derived table column list"))
		}
		s.w.open()
		s.Select(v.Query)
		s.w.close()
		if v.Alias != "" {
			s.w.kw("AS")
			s.w.ident(v.Alias)
		}
	case *ast.ParenTable:
		if len(v.Tables) == 1 {
			s.tableExpr(v.Tables[0])
			return
		}
		s.w.open()
		s.tables(v.Tables)
		s.w.close()
	}
}

func (s *SQLiteSerializer) tableName(t *ast.TableName) {
	s.checkSchema(t.Schema)
	s.w.ident(t.Name)
	if t.Alias != "" {
		s.w.kw("AS")
		s.w.ident(t.Alias)
	}
}

func (s *SQLiteSerializer) orderBy(items []*ast.OrderItem) {
	if len(items) == 0 {
		return
	}
	s.w.kw("ORDER BY")
	s.orderItems(items)
}

func (s *SQLiteSerializer) orderItems(items []*ast.OrderItem) {
	for i, o := range items {
		if i > 0 {
			s.w.comma()
		}
		s.expr(o.Expr, precLowest)
		switch {
		case o.Desc:
			s.w.kw("DESC")
		case o.Direction == "ASC":
			s.w.kw("ASC")
		}
	}
}

func (s *SQLiteSerializer) limit(l *ast.Limit) {
	if l == nil {
		return
	}
	s.w.kw("LIMIT")
	s.limitValue(l.Count)
	if l.Offset != nil {
		s.w.kw("OFFSET")
		s.limitValue(l.Offset)
	}
}

// limitValue maps MySQL's "all rows" idiom LIMIT 18446744073709551615,
// which overflows SQLite's integers, to -1.
func (s *SQLiteSerializer) limitValue(e ast.Expr) {
	if lit, ok := e.(*ast.Literal); ok && lit.Kind == ast.LiteralInteger {
		if _, err := strconv.ParseInt(lit.Value, 10, 64); err != nil {
			s.w.tok("-1")
			return
		}
	}
	s.expr(e, precLowest)
}

func (s *SQLiteSerializer) exprList(es []ast.Expr) {
	for i, e := range es {
		if i > 0 {
			s.w.comma()
		}
		s.expr(e, precLowest)
	}
}

// expr renders e, parenthesized when it binds looser than min.
func (s *SQLiteSerializer) expr(e ast.Expr, min int) {
	if precedence(e) < min {
		s.w.open()
		s.node(e)
		s.w.close()
		return
	}
	s.node(e)
}

func isInterval(e ast.Expr) bool {
	_, ok := e.(*ast.Interval)
	return ok
}

func precedence(e ast.Expr) int {
	switch v := e.(type) {
	case *ast.Binary:
		return binaryPrecedence(v)
	case *ast.Unary:
		switch v.Op {
		case "NOT":
			return precNot
		case "BINARY":
			return precCollate
		}
		return precUnary
	case *ast.In, *ast.Between, *ast.Like, *ast.Is, *ast.Quantified:
		return precEquality
	case *ast.Collate:
		return precCollate
	case *ast.Cast:
		if v.Type == nil {
			return precedence(v.X)
		}
	}
	return precAtom
}

func binaryPrecedence(b *ast.Binary) int {
	switch b.Op {
	case "OR":
		return precOr
	case "AND":
		return precAnd
	case "XOR", "=", "!=", "<=>":
		return precEquality
	case "<", "<=", ">", ">=":
		return precRelational
	case "|", "&", "<<", ">>":
		return precBitwise
	case "+", "-":
		if isInterval(b.Left) || isInterval(b.Right) {
			return precAtom
		}
		return precAdditive
	case "^":
		return precAdditive
	case "*", "/", "%":
		return precMultiplicative
	case "->", "->>":
		return precConcat
	}
	return precAtom
}

func (s *SQLiteSerializer) node(e ast.Expr) {
	switch v := e.(type) {
	case *ast.ColumnRef:
		s.checkSchema(v.Schema)
		s.w.qualified(v.Table, v.Name)
	case *ast.Star:
		if v.Table != "" {
			s.w.tok(catalog.QuoteIdent(v.Table) + ".*")
		} else {
			s.w.tok("*")
		}
	case *ast.Literal:
		s.literal(v)
	case *ast.Param:
		ref := ParamRef{Index: v.Index}
		if v.Name != "" {
			ref = ParamRef{Index: -1, Name: v.Name}
		}
		s.w.param(ref)
	case *ast.SystemVar:
		s.systemVar(v)
	case *ast.UserVar:
		s.dynamic = true
		var val any
		if s.env != nil && s.env.Session != nil {
			val, _ = s.env.Session.UserVar(strings.ToLower(v.Name))
		}
		s.value(val)
	case *ast.Unary:
		s.unary(v)
	case *ast.Binary:
		s.binary(v)
	case *ast.Paren:
		s.w.open()
		s.expr(v.X, precLowest)
		s.w.close()
	case *ast.Tuple:
		s.w.open()
		s.exprList(v.Items)
		s.w.close()
	case *ast.FuncCall:
		s.funcCall(v)
	case *ast.Case:
		s.caseExpr(v)
	case *ast.Cast:
		s.cast(v)
	case *ast.In:
		s.in(v)
	case *ast.Between:
		s.expr(v.X, precEquality+1)
		if v.Not {
			s.w.kw("NOT")
		}
		s.w.kw("BETWEEN")
		s.expr(v.Low, precEquality+1)
		s.w.kw("AND")
		s.expr(v.High, precEquality+1)
	case *ast.Like:
		s.like(v)
	case *ast.Is:
		s.expr(v.X, precEquality+1)
		s.w.kw("IS")
		if v.Not {
			s.w.kw("NOT")
		}
		if v.Value == "UNKNOWN" {
			s.w.kw("NULL")
		} else {
			s.w.kw(v.Value)
		}
	case *ast.Exists:
		s.w.kw("EXISTS")
		s.w.open()
		s.Select(v.Query)
		s.w.close()
	case *ast.Subquery:
		s.w.open()
		s.Select(v.Query)
		s.w.close()
	case *ast.Quantified:
		s.quantified(v)
	case *ast.Interval:
		s.fail(unsupported("INTERVAL outside date arithmetic"))
	case *ast.Collate:
		s.expr(v.X, precCollate)
		s.w.kw("COLLATE", sqliteCollation(v.Collation))
	case *ast.Default:
		var col *catalog.Column
		if s.target != nil && v.Column != "" {
			col = s.target.Column(v.Column)
		}
		s.columnDefault(col)
	case *ast.ValuesRef:
		if !s.upsert {
			s.fail(unsupported("VALUES() outside ON DUPLICATE KEY UPDATE"))
		}
		s.w.tok("excluded." + catalog.QuoteIdent(v.Column))
	case *ast.Match:
		s.fail(unsupported("MATCH ... AGAINST"))
	default:
		s.fail(unsupported("expression %T", e))
	}
}

func sqliteCollation(name string) string {
	if catalog.CaseSensitive(strings.ToLower(name)) {
		return "BINARY"
	}
	return "NOCASE"
}

func (s *SQLiteSerializer) literal(v *ast.Literal) {
	switch v.Kind {
	case ast.LiteralString:
		s.w.str(v.Value)
	case ast.LiteralInteger, ast.LiteralDecimal:
		s.w.tok(v.Value)
	case ast.LiteralHex:
		s.w.tok(hexBlob(v.Value))
	case ast.LiteralBit:
		s.w.tok(bitBlob(v.Value))
	case ast.LiteralNull:
		s.w.kw("NULL")
	case ast.LiteralTrue:
		s.w.kw("TRUE")
	case ast.LiteralFalse:
		s.w.kw("FALSE")
	}
}

func hexBlob(digits string) string {
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	return "x'" + strings.ToLower(digits) + "'"
}

// bitBlob converts b'0101' digits to the bytes MySQL stores for them.
func bitBlob(digits string) string {
	if digits == "" {
		return "x''"
	}
	n, ok := new(big.Int).SetString(digits, 2)
	if !ok {
		return "x''"
	}
	h := n.Text(16)
	width := (len(digits) + 7) / 8 * 2
	if len(h) < width {
		h = strings.Repeat("0", width-len(h)) + h
	}
	return hexBlob(h)
}

// value renders a Go value as a SQLite literal.
func (s *SQLiteSerializer) value(v any) {
	switch x := v.(type) {
	case nil:
		s.w.kw("NULL")
	case string:
		s.w.str(x)
	case []byte:
		s.w.tok("x'" + hex.EncodeToString(x) + "'")
	case bool:
		if x {
			s.w.tok("1")
		} else {
			s.w.tok("0")
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s.w.tok(fmt.Sprint(x))
	case float32:
		s.w.tok(strconv.FormatFloat(float64(x), 'g', -1, 32))
	case float64:
		s.w.tok(strconv.FormatFloat(x, 'g', -1, 64))
	default:
		s.w.str(fmt.Sprint(x))
	}
}

func (s *SQLiteSerializer) systemVar(v *ast.SystemVar) {
	s.dynamic = true
	val, ok := s.lookupSystemVar(strings.ToLower(v.Name), strings.ToUpper(v.Scope) == "GLOBAL")
	if !ok {
		s.fail(protocol.ErrUnknownSystemVariable(v.Name))
		return
	}
	s.value(val)
}

func (s *SQLiteSerializer) lookupSystemVar(name string, global bool) (any, bool) {
	if !global && s.env != nil && s.env.Session != nil {
		if v, ok := s.env.Session.SystemVar(name); ok {
			return v, true
		}
	}
	v, ok := SystemVariables[name]
	return v, ok
}

func (s *SQLiteSerializer) unary(v *ast.Unary) {
	switch v.Op {
	case "NOT":
		s.w.kw("NOT")
		s.expr(v.X, precNot)
	case "BINARY":
		s.expr(v.X, precCollate)
		s.w.kw("COLLATE", "BINARY")
	default:
		s.w.prefix(v.Op)
		// "- -x" must not become a "--" comment
		if u, ok := v.X.(*ast.Unary); ok && u.Op != "NOT" {
			s.w.open()
			s.node(u)
			s.w.close()
			return
		}
		s.expr(v.X, precUnary)
	}
}

func (s *SQLiteSerializer) binary(v *ast.Binary) {
	p := binaryPrecedence(v)
	switch v.Op {
	case "+", "-":
		if iv, ok := v.Right.(*ast.Interval); ok {
			s.dateArith(v.Left, iv, v.Op == "-")
			return
		}
		if iv, ok := v.Left.(*ast.Interval); ok && v.Op == "+" {
			s.dateArith(v.Right, iv, false)
			return
		}
	case "<=>":
		s.expr(v.Left, p)
		s.w.kw("IS")
		s.expr(v.Right, p+1)
		return
	case "DIV":
		s.w.call("CAST")
		s.expr(v.Left, precMultiplicative)
		s.w.kw("/")
		s.expr(v.Right, precMultiplicative+1)
		s.w.kw("AS", "INTEGER")
		s.w.close()
		return
	case "/":
		// MySQL division never truncates
		s.w.call("CAST")
		s.expr(v.Left, precLowest)
		s.w.kw("AS", "REAL")
		s.w.close()
		s.w.kw("/")
		s.expr(v.Right, p+1)
		return
	case "XOR":
		s.truth(v.Left)
		s.w.kw("<>")
		s.truth(v.Right)
		return
	case "^":
		s.w.open()
		s.expr(v.Left, precBitwise)
		s.w.kw("|")
		s.expr(v.Right, precBitwise+1)
		s.w.close()
		s.w.kw("-")
		s.w.open()
		s.expr(v.Left, precBitwise)
		s.w.kw("&")
		s.expr(v.Right, precBitwise+1)
		s.w.close()
		return
	case "MEMBER OF":
		s.w.kw("EXISTS")
		s.w.open()
		s.w.kw("SELECT", "1", "FROM")
		s.w.call("json_each")
		s.expr(v.Right, precLowest)
		s.w.close()
		s.w.kw("WHERE", "value", "=")
		s.expr(v.Left, precEquality+1)
		s.w.close()
		return
	case "SOUNDS LIKE", ":=":
		s.fail(unsupported("%s", v.Op))
		return
	}
	s.expr(v.Left, p)
	s.w.kw(v.Op)
	s.expr(v.Right, p+1)
}

func (s *SQLiteSerializer) truth(e ast.Expr) {
	s.w.open()
	s.expr(e, precRelational)
	s.w.kw("<>", "0")
	s.w.close()
}

func (s *SQLiteSerializer) caseExpr(c *ast.Case) {
	s.w.kw("CASE")
	if c.Operand != nil {
		s.expr(c.Operand, precLowest)
	}
	for _, w := range c.Whens {
		s.w.kw("WHEN")
		s.expr(w.Cond, precLowest)
		s.w.kw("THEN")
		s.expr(w.Result, precLowest)
	}
	if c.Else != nil {
		s.w.kw("ELSE")
		s.expr(c.Else, precLowest)
	}
	s.w.kw("END")
}

// castTypes maps MySQL cast targets to SQLite type names.
var castTypes = map[string]string{
	"SIGNED":   "INTEGER",
	"UNSIGNED": "INTEGER",
	"YEAR":     "INTEGER",
	"DECIMAL":  "NUMERIC",
	"DOUBLE":   "REAL",
	"FLOAT":    "REAL",
	"CHAR":     "TEXT",
	"BINARY":   "BLOB",
}

// castFunctions are cast targets SQLite expresses as a function.
var castFunctions = map[string]string{
	"DATE":     "date",
	"DATETIME": "datetime",
	"TIME":     "time",
	"JSON":     "json",
}

func (s *SQLiteSerializer) cast(c *ast.Cast) {
	if c.Type == nil {
		// CONVERT(x USING charset): text is stored as UTF-8 throughout
		s.node(c.X)
		return
	}
	name := strings.ToUpper(c.Type.Name)
	if fn, ok := castFunctions[name]; ok {
		s.w.call(fn)
		s.expr(c.X, precLowest)
		s.w.close()
		return
	}
	target, ok := castTypes[name]
	if !ok {
		s.fail(unsupported("CAST AS %s", name))
		return
	}
	s.w.call("CAST")
	s.expr(c.X, precLowest)
	s.w.kw("AS", target)
	s.w.close()
}

func (s *SQLiteSerializer) in(v *ast.In) {
	s.expr(v.X, precEquality+1)
	if v.Not {
		s.w.kw("NOT")
	}
	s.w.kw("IN")
	s.w.open()
	switch {
	case v.Query != nil:
		s.Select(v.Query)
	default:
		// SQLite compares row values only against a subquery
		if _, rows := v.X.(*ast.Tuple); rows {
			s.w.kw("VALUES")
		}
		s.exprList(v.List)
	}
	s.w.close()
}

func (s *SQLiteSerializer) like(v *ast.Like) {
	s.expr(v.X, precEquality+1)
	if v.Not {
		s.w.kw("NOT")
	}
	if strings.ToUpper(v.Op) != "LIKE" {
		s.w.kw("REGEXP")
		s.expr(v.Pattern, precEquality+1)
		return
	}
	s.w.kw("LIKE")
	s.expr(v.Pattern, precEquality+1)
	s.w.kw("ESCAPE")
	if v.Escape != nil {
		s.expr(v.Escape, precEquality+1)
	} else {
		s.w.str(`\`)
	}
}

func (s *SQLiteSerializer) quantified(q *ast.Quantified) {
	quant := strings.ToUpper(q.Quantifier)
	switch {
	case q.Op == "=" && (quant == "ANY" || quant == "SOME"):
		s.expr(q.X, precEquality+1)
		s.w.kw("IN")
	case q.Op == "!=" && quant == "ALL":
		s.expr(q.X, precEquality+1)
		s.w.kw("NOT", "IN")
	default:
		s.fail(unsupported("%s %s subquery", q.Op, quant))
		return
	}
	s.w.open()
	s.Select(q.Query)
	s.w.close()
}

// columnDefault renders the value DEFAULT stands for in a row.
func (s *SQLiteSerializer) columnDefault(col *catalog.Column) {
	if col == nil || col.Default == nil {
		s.w.kw("NULL")
		return
	}
	if col.DefaultExpr {
		s.defaultExpr(*col.Default)
		return
	}
	s.w.str(*col.Default)
}

func (s *SQLiteSerializer) defaultExpr(text string) {
	if strings.HasPrefix(strings.ToUpper(text), "CURRENT_TIMESTAMP") {
		s.w.kw("CURRENT_TIMESTAMP")
		return
	}
	e, err := parser.New(grammar.Default()).ParseExpr(text)
	if err != nil {
		s.fail(fmt.Errorf("default %q: %w", text, err))
		return
	}
	c := s.sub(text)
	c.expr(e, precAtom)
	s.join(c)
}
