package parser

import (
	"strings"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/lexer"
)

func (s *state) parseExpr() ast.Expr {
	return s.parseExprPrec(grammar.PrecOr)
}

func (s *state) parseExprList() []ast.Expr {
	var out []ast.Expr
	for {
		out = append(out, s.parseExpr())
		if !s.accept(",") || s.failed() {
			break
		}
	}
	return out
}

// binaryOp returns the infix operator at the cursor, if any.
func (s *state) binaryOp() (grammar.OpInfo, bool) {
	t := s.cur()
	switch t.Kind {
	case lexer.Keyword, lexer.Operator:
		return s.g.Binary(t.Text)
	case lexer.Ident:
		// SOUNDS and MEMBER are not keywords in every grammar table
		return s.g.Binary(strings.ToUpper(t.Text))
	}
	return grammar.OpInfo{}, false
}

// parseExprPrec is a precedence-climbing loop over the grammar's operator
// table. Operators binding looser than min end the expression.
func (s *state) parseExprPrec(min int) ast.Expr {
	start := s.startPos()
	left := s.parseUnary()
	for !s.failed() {
		op, ok := s.binaryOp()
		if !ok || op.Prec < min {
			break
		}
		// NOT only continues an expression as NOT IN/BETWEEN/LIKE/REGEXP
		if op.Op == "NOT" && !s.isNegatablePredicate(1) {
			break
		}
		left = s.parseInfix(start, left, op)
	}
	return left
}

func (s *state) isNegatablePredicate(off int) bool {
	switch word(s.peek(off)) {
	case "IN", "BETWEEN", "LIKE", "REGEXP", "RLIKE":
		return true
	}
	return false
}

func (s *state) parseInfix(start int, left ast.Expr, op grammar.OpInfo) ast.Expr {
	s.advance()
	not := false
	name := op.Op
	if name == "NOT" {
		not = true
		name = word(s.advance())
		if name == "RLIKE" {
			name = "REGEXP"
		}
	}

	switch name {
	case "BETWEEN":
		low := s.parseExprPrec(grammar.PrecBitOr)
		s.expect("AND")
		high := s.parseExprPrec(grammar.PrecBitOr)
		return &ast.Between{NodeInfo: ast.NodeInfo{Span: s.span(start)}, X: left, Not: not, Low: low, High: high}

	case "IN":
		s.expect("(")
		in := &ast.In{X: left, Not: not}
		if s.isAny("SELECT", "WITH") {
			in.Query = s.parseSelect()
		} else {
			in.List = s.parseExprList()
		}
		s.expect(")")
		in.Span = s.span(start)
		return in

	case "LIKE", "REGEXP":
		like := &ast.Like{Op: name, X: left, Not: not}
		like.Pattern = s.parseExprPrec(grammar.PrecBitOr)
		if name == "LIKE" && s.accept("ESCAPE") {
			like.Escape = s.parseExprPrec(grammar.PrecBitOr)
		}
		like.Span = s.span(start)
		return like

	case "IS":
		is := &ast.Is{X: left}
		is.Not = s.accept("NOT")
		switch {
		case s.isAny("NULL", "TRUE", "FALSE", "UNKNOWN"):
			is.Value = word(s.advance())
		default:
			s.fail("NULL", "TRUE", "FALSE", "UNKNOWN")
		}
		is.Span = s.span(start)
		return is

	case "SOUNDS":
		s.expect("LIKE")
		right := s.parseExprPrec(grammar.PrecBitOr)
		return &ast.Binary{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Op: "SOUNDS LIKE", Left: left, Right: right}

	case "MEMBER":
		s.accept("OF")
		s.expect("(")
		right := s.parseExpr()
		s.expect(")")
		return &ast.Binary{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Op: "MEMBER OF", Left: left, Right: right}

	case "COLLATE":
		c := &ast.Collate{X: left, Collation: s.identOrString()}
		c.Span = s.span(start)
		return c
	}

	if op.Prec == grammar.PrecComparison && s.isAny("ANY", "SOME", "ALL") && s.isAt(1, "(") {
		q := &ast.Quantified{Op: op.Op, X: left, Quantifier: word(s.advance())}
		s.expect("(")
		q.Query = s.parseSelect()
		s.expect(")")
		q.Span = s.span(start)
		return q
	}

	next := op.Prec + 1
	if op.Assoc == grammar.AssocRight {
		next = op.Prec
	}
	right := s.parseExprPrec(next)
	return &ast.Binary{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Op: op.Op, Left: left, Right: right}
}

func (s *state) parseUnary() ast.Expr {
	start := s.startPos()
	t := s.cur()
	if t.Kind == lexer.Keyword || t.Kind == lexer.Operator {
		if op, ok := s.g.Unary(t.Text); ok {
			// BINARY and NOT followed by "(" may also begin other forms, but
			// both still read as operators applied to a parenthesized operand.
			s.advance()
			x := s.parseExprPrec(op.Prec)
			return &ast.Unary{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Op: op.Op, X: x}
		}
	}
	return s.parsePrimary()
}

func (s *state) parsePrimary() ast.Expr {
	start := s.startPos()
	t := s.cur()
	info := func() ast.NodeInfo { return ast.NodeInfo{Span: s.span(start)} }

	switch t.Kind {
	case lexer.Number:
		s.advance()
		kind := ast.LiteralInteger
		if strings.ContainsAny(t.Text, ".eE") {
			kind = ast.LiteralDecimal
		}
		return &ast.Literal{NodeInfo: info(), Kind: kind, Value: t.Text}

	case lexer.String:
		return s.parseStringLiteral("")

	case lexer.Hex:
		s.advance()
		return &ast.Literal{NodeInfo: info(), Kind: ast.LiteralHex, Value: t.Text}

	case lexer.Bit:
		s.advance()
		return &ast.Literal{NodeInfo: info(), Kind: ast.LiteralBit, Value: t.Text}

	case lexer.Param:
		s.advance()
		p := &ast.Param{NodeInfo: info(), Index: s.params}
		s.params++
		return p

	case lexer.NamedParam:
		s.advance()
		return &ast.Param{NodeInfo: info(), Index: -1, Name: t.Text}

	case lexer.SystemVar:
		s.advance()
		return systemVar(t.Text, info())

	case lexer.UserVar:
		s.advance()
		return &ast.UserVar{NodeInfo: info(), Name: t.Text}

	case lexer.Punct:
		if t.Text == "(" {
			return s.parseParenExpr()
		}

	case lexer.Operator:
		if t.Text == "*" {
			s.advance()
			return &ast.Star{NodeInfo: info()}
		}

	case lexer.Ident, lexer.QuotedIdent:
		// charset introducer: _utf8mb4'text'
		if t.Kind == lexer.Ident && strings.HasPrefix(t.Text, "_") && s.peek(1).Kind == lexer.String {
			s.advance()
			return s.parseStringLiteral(t.Text)
		}
		return s.parseNameExpr()

	case lexer.Keyword:
		return s.parseKeywordExpr()
	}

	s.fail("expression")
	return nil
}

func systemVar(text string, info ast.NodeInfo) *ast.SystemVar {
	v := &ast.SystemVar{NodeInfo: info, Name: text}
	if i := strings.IndexByte(text, '.'); i > 0 {
		switch scope := strings.ToUpper(text[:i]); scope {
		case "GLOBAL", "SESSION", "LOCAL":
			v.Scope = scope
			v.Name = text[i+1:]
		}
	}
	return v
}

// parseStringLiteral reads one string and any adjacent strings, which MySQL
// concatenates.
func (s *state) parseStringLiteral(introducer string) ast.Expr {
	start := s.startPos()
	if introducer != "" {
		start = s.peek(-1).Start
	}
	var sb strings.Builder
	for s.cur().Kind == lexer.String {
		sb.WriteString(s.advance().Text)
	}
	return &ast.Literal{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Kind: ast.LiteralString, Value: sb.String(), Introducer: introducer}
}

func (s *state) parseParenExpr() ast.Expr {
	start := s.startPos()
	s.expect("(")
	if s.isAny("SELECT", "WITH") {
		q := s.parseSelect()
		s.expect(")")
		return &ast.Subquery{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Query: q}
	}
	list := s.parseExprList()
	s.expect(")")
	if len(list) == 1 {
		return &ast.Paren{NodeInfo: ast.NodeInfo{Span: s.span(start)}, X: list[0]}
	}
	return &ast.Tuple{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Items: list}
}

// parseNameExpr reads a column reference, t.*, or a function call.
func (s *state) parseNameExpr() ast.Expr {
	start := s.startPos()
	first := s.cur()
	name := s.ident()
	if s.is("(") && first.Kind != lexer.QuotedIdent {
		return s.parseCall(start, strings.ToUpper(name))
	}
	parts := []string{name}
	for s.accept(".") {
		if s.accept("*") {
			return &ast.Star{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Table: parts[len(parts)-1]}
		}
		parts = append(parts, s.ident())
		if len(parts) == 3 {
			break
		}
	}
	col := &ast.ColumnRef{}
	switch len(parts) {
	case 1:
		col.Name = parts[0]
	case 2:
		col.Table, col.Name = parts[0], parts[1]
	default:
		col.Schema, col.Table, col.Name = parts[0], parts[1], parts[2]
	}
	col.Span = s.span(start)
	return col
}

// bareFunctions may be written without parentheses.
var bareFunctions = map[string]bool{
	"CURRENT_TIMESTAMP": true, "CURRENT_DATE": true, "CURRENT_TIME": true,
	"CURRENT_USER": true, "LOCALTIME": true, "LOCALTIMESTAMP": true,
	"UTC_DATE": true, "UTC_TIME": true, "UTC_TIMESTAMP": true,
}

func (s *state) parseKeywordExpr() ast.Expr {
	start := s.startPos()
	t := s.cur()
	info := func() ast.NodeInfo { return ast.NodeInfo{Span: s.span(start)} }

	switch t.Text {
	case "NULL":
		s.advance()
		return &ast.Literal{NodeInfo: info(), Kind: ast.LiteralNull, Value: "NULL"}
	case "TRUE":
		s.advance()
		return &ast.Literal{NodeInfo: info(), Kind: ast.LiteralTrue, Value: "TRUE"}
	case "FALSE":
		s.advance()
		return &ast.Literal{NodeInfo: info(), Kind: ast.LiteralFalse, Value: "FALSE"}
	case "CASE":
		return s.parseCase()
	case "CAST":
		if s.isAt(1, "(") {
			return s.parseCast()
		}
	case "CONVERT":
		return s.parseConvert()
	case "EXISTS":
		s.advance()
		s.expect("(")
		q := s.parseSelect()
		s.expect(")")
		return &ast.Exists{NodeInfo: info(), Query: q}
	case "INTERVAL":
		return s.parseInterval()
	case "MATCH":
		return s.parseMatch()
	case "DEFAULT":
		s.advance()
		d := &ast.Default{}
		if s.accept("(") {
			d.Column = s.ident()
			s.expect(")")
		}
		d.Span = s.span(start)
		return d
	case "VALUES":
		s.advance()
		s.expect("(")
		col := s.ident()
		s.expect(")")
		return &ast.ValuesRef{NodeInfo: info(), Column: col}
	case "DATE", "TIME", "TIMESTAMP":
		// typed literal: DATE '2024-01-01'
		if s.peek(1).Kind == lexer.String {
			s.advance()
			lit := s.parseStringLiteral("")
			lit.(*ast.Literal).Span = s.span(start)
			return lit
		}
	}

	if bareFunctions[t.Text] {
		s.advance()
		if s.is("(") {
			return s.parseCall(start, t.Text)
		}
		return &ast.FuncCall{NodeInfo: info(), Name: t.Text}
	}
	if s.isAt(1, "(") && (s.g.IsKeywordFunction(t.Text) || !s.g.IsReserved(t.Text)) {
		s.advance()
		return s.parseCall(start, t.Text)
	}
	if !s.g.IsReserved(t.Text) {
		return s.parseNameExpr()
	}
	s.fail("expression")
	return nil
}

// parseCall parses the argument list of name; the cursor is on "(".
func (s *state) parseCall(start int, name string) ast.Expr {
	s.expect("(")
	fn := &ast.FuncCall{Name: name}

	switch name {
	case "TRIM":
		s.parseTrimArgs(fn)
	case "EXTRACT":
		fn.Keyword = word(s.cur())
		if !s.g.IsIntervalUnit(fn.Keyword) {
			s.fail("interval unit")
		}
		s.advance()
		s.expect("FROM")
		fn.Args = []ast.Expr{s.parseExpr()}
	case "POSITION":
		needle := s.parseExprPrec(grammar.PrecBitOr)
		s.expect("IN")
		fn.Args = []ast.Expr{needle, s.parseExpr()}
	default:
		s.parseGenericArgs(fn)
	}
	s.expect(")")

	if s.is("OVER") {
		fn.Over = s.parseOver()
	}
	fn.Span = s.span(start)
	return fn
}

func (s *state) parseGenericArgs(fn *ast.FuncCall) {
	if s.is(")") {
		return
	}
	if s.accept("*") {
		fn.Star = true
		return
	}
	fn.Distinct = s.accept("DISTINCT")
	if !fn.Distinct {
		s.accept("ALL")
	}
	for {
		fn.Args = append(fn.Args, s.parseExpr())
		// SUBSTRING(s FROM a FOR b)
		if strings.HasPrefix(fn.Name, "SUBSTR") && s.accept("FROM") {
			fn.Args = append(fn.Args, s.parseExpr())
			if s.accept("FOR") {
				fn.Args = append(fn.Args, s.parseExpr())
			}
			return
		}
		if !s.accept(",") || s.failed() {
			break
		}
	}
	if fn.Name == "CHAR" && s.accept("USING") {
		fn.Keyword = s.ident()
	}
	if fn.Name == "GROUP_CONCAT" {
		if s.acceptSeq("ORDER", "BY") {
			fn.OrderBy = s.parseOrderItems()
		}
		if s.accept("SEPARATOR") {
			sep := s.parsePrimary()
			if lit, ok := sep.(*ast.Literal); ok && lit.Kind == ast.LiteralString {
				fn.Separator = lit
			} else {
				s.fail("string")
			}
		}
	}
}

func (s *state) parseTrimArgs(fn *ast.FuncCall) {
	if s.isAny("LEADING", "TRAILING", "BOTH") {
		fn.Keyword = word(s.advance())
		if s.accept("FROM") {
			fn.Args = []ast.Expr{s.parseExpr()}
			return
		}
	}
	first := s.parseExpr()
	if s.accept("FROM") {
		fn.Args = []ast.Expr{s.parseExpr(), first}
		return
	}
	fn.Args = []ast.Expr{first}
}

func (s *state) parseOver() *ast.WindowSpec {
	start := s.startPos()
	s.expect("OVER")
	w := &ast.WindowSpec{}
	if !s.is("(") {
		w.Name = s.ident()
		w.Span = s.span(start)
		return w
	}
	s.expect("(")
	if s.isIdent(s.cur()) && !s.isAny("PARTITION", "ORDER", "ROWS", "RANGE", "GROUPS") {
		w.Name = s.ident()
	}
	if s.acceptSeq("PARTITION", "BY") {
		w.PartitionBy = s.parseExprList()
	}
	if s.acceptSeq("ORDER", "BY") {
		w.OrderBy = s.parseOrderItems()
	}
	if s.isAny("ROWS", "RANGE", "GROUPS") {
		frameStart := s.startPos()
		depth := 0
		for !s.eof() && !(depth == 0 && s.is(")")) {
			switch {
			case s.is("("):
				depth++
			case s.is(")"):
				depth--
			}
			s.advance()
		}
		w.Frame = s.src[frameStart:s.lastEnd]
	}
	s.expect(")")
	w.Span = s.span(start)
	return w
}

func (s *state) parseCase() ast.Expr {
	start := s.startPos()
	s.expect("CASE")
	c := &ast.Case{}
	if !s.is("WHEN") {
		c.Operand = s.parseExpr()
	}
	for s.is("WHEN") {
		wstart := s.startPos()
		s.advance()
		cond := s.parseExpr()
		s.expect("THEN")
		res := s.parseExpr()
		c.Whens = append(c.Whens, &ast.When{NodeInfo: ast.NodeInfo{Span: s.span(wstart)}, Cond: cond, Result: res})
	}
	if len(c.Whens) == 0 {
		s.fail("WHEN")
	}
	if s.accept("ELSE") {
		c.Else = s.parseExpr()
	}
	s.expect("END")
	c.Span = s.span(start)
	return c
}

func (s *state) parseCast() ast.Expr {
	start := s.startPos()
	s.expect("CAST")
	s.expect("(")
	c := &ast.Cast{X: s.parseExpr()}
	s.expect("AS")
	c.Type = s.parseCastType()
	s.expect(")")
	c.Span = s.span(start)
	return c
}

func (s *state) parseConvert() ast.Expr {
	start := s.startPos()
	s.expect("CONVERT")
	s.expect("(")
	c := &ast.Cast{Convert: true, X: s.parseExpr()}
	if s.accept("USING") {
		c.Using = s.ident()
	} else {
		s.expect(",")
		c.Type = s.parseCastType()
	}
	s.expect(")")
	c.Span = s.span(start)
	return c
}

func (s *state) parseCastType() *ast.DataType {
	start := s.startPos()
	prod, ok := s.g.MatchCast(s.words(3))
	if !ok {
		s.fail("cast type")
		return nil
	}
	for range prod.Words {
		s.advance()
	}
	dt := &ast.DataType{Name: prod.Name}
	if prod.Args != grammar.ArgsNone && s.is("(") {
		dt.Args = s.parseTypeArgs()
	}
	s.parseCharsetAttrs(dt)
	dt.Span = s.span(start)
	return dt
}

func (s *state) parseInterval() ast.Expr {
	start := s.startPos()
	s.expect("INTERVAL")
	// INTERVAL(N, N1, ...) is a function unless a unit follows a single argument
	if s.is("(") {
		save, saveEnd, saveParams := s.pos, s.lastEnd, s.params
		call := s.parseCall(start, "INTERVAL").(*ast.FuncCall)
		if s.failed() || !(len(call.Args) == 1 && s.g.IsIntervalUnit(word(s.cur()))) {
			return call
		}
		s.pos, s.lastEnd, s.params = save, saveEnd, saveParams
	}
	v := s.parseExprPrec(grammar.PrecBitOr)
	unit := word(s.cur())
	if !s.g.IsIntervalUnit(unit) {
		s.fail("interval unit")
		return nil
	}
	s.advance()
	return &ast.Interval{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Value: v, Unit: unit}
}

func (s *state) parseMatch() ast.Expr {
	start := s.startPos()
	s.expect("MATCH")
	s.expect("(")
	m := &ast.Match{}
	for {
		col, ok := s.parseNameExpr().(*ast.ColumnRef)
		if !ok {
			s.fail("column")
			return nil
		}
		m.Columns = append(m.Columns, col)
		if !s.accept(",") {
			break
		}
	}
	s.expect(")")
	s.expect("AGAINST")
	s.expect("(")
	m.Against = s.parseExprPrec(grammar.PrecBitOr)
	switch {
	case s.acceptSeq("IN", "NATURAL", "LANGUAGE", "MODE"):
		m.Modifier = "IN NATURAL LANGUAGE MODE"
		if s.acceptSeq("WITH", "QUERY", "EXPANSION") {
			m.Modifier += " WITH QUERY EXPANSION"
		}
	case s.acceptSeq("IN", "BOOLEAN", "MODE"):
		m.Modifier = "IN BOOLEAN MODE"
	case s.acceptSeq("WITH", "QUERY", "EXPANSION"):
		m.Modifier = "WITH QUERY EXPANSION"
	}
	s.expect(")")
	m.Span = s.span(start)
	return m
}
