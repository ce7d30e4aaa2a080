package parser

import (
	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/lexer"
)

// selectModifiers are accepted after SELECT and kept for the rewriter.
var selectModifiers = map[string]bool{
	"HIGH_PRIORITY": true, "STRAIGHT_JOIN": true, "SQL_SMALL_RESULT": true,
	"SQL_BIG_RESULT": true, "SQL_BUFFER_RESULT": true, "SQL_NO_CACHE": true,
	"SQL_CACHE": true,
}

func (s *state) parseSelect() *ast.Select {
	start := s.startPos()
	sel := &ast.Select{}
	if s.is("WITH") {
		sel.With = s.parseWith()
	}
	sel.Body = s.parseQueryBody()
	s.parseQueryTail(sel)
	sel.Span = s.span(start)
	return sel
}

func (s *state) parseWith() *ast.With {
	start := s.startPos()
	s.expect("WITH")
	w := &ast.With{Recursive: s.accept("RECURSIVE")}
	for {
		cstart := s.startPos()
		cte := &ast.CTE{Name: s.ident()}
		if s.is("(") {
			cte.Columns = s.identList()
		}
		s.expect("AS")
		s.expect("(")
		cte.Query = s.parseSelect()
		s.expect(")")
		cte.Span = s.span(cstart)
		w.CTEs = append(w.CTEs, cte)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	w.Span = s.span(start)
	return w
}

func (s *state) parseQueryBody() ast.QueryExpr {
	start := s.startPos()
	left := s.parseQueryPrimary()
	for !s.failed() && s.isAny("UNION", "EXCEPT", "INTERSECT") {
		op := &ast.SetOperation{Op: word(s.advance()), Left: left}
		if s.accept("ALL") {
			op.All = true
		} else {
			s.accept("DISTINCT")
		}
		op.Right = s.parseQueryPrimary()
		op.Span = s.span(start)
		left = op
	}
	return left
}

func (s *state) parseQueryPrimary() ast.QueryExpr {
	start := s.startPos()
	if s.accept("(") {
		q := s.parseSelect()
		s.expect(")")
		return &ast.ParenQuery{NodeInfo: ast.NodeInfo{Span: s.span(start)}, Query: q}
	}
	if !s.is("SELECT") {
		s.fail("SELECT")
		return nil
	}
	return s.parseQuerySpec()
}

func (s *state) parseQuerySpec() *ast.QuerySpec {
	start := s.startPos()
	s.expect("SELECT")
	q := &ast.QuerySpec{}
modifiers:
	for {
		w := word(s.cur())
		switch {
		case w == "ALL":
		case w == "DISTINCT" || w == "DISTINCTROW":
			q.Distinct = true
		case w == "SQL_CALC_FOUND_ROWS":
			q.CalcFoundRows = true
		case selectModifiers[w]:
			q.Modifiers = append(q.Modifiers, w)
		default:
			break modifiers
		}
		s.advance()
	}
	for {
		q.Items = append(q.Items, s.parseSelectItem())
		if !s.accept(",") || s.failed() {
			break
		}
	}

	for _, c := range s.g.SelectClauses() {
		if !s.acceptSeq(c.Words...) {
			continue
		}
		switch c.Name {
		case grammar.ClauseFrom:
			if s.accept("DUAL") {
				continue
			}
			q.From = s.parseTableRefs()
		case grammar.ClauseWhere:
			q.Where = s.parseExpr()
		case grammar.ClauseGroupBy:
			for {
				q.GroupBy = append(q.GroupBy, s.parseExpr())
				if !s.accept("ASC") {
					s.accept("DESC")
				}
				if !s.accept(",") || s.failed() {
					break
				}
			}
			q.WithRollup = s.acceptSeq("WITH", "ROLLUP")
		case grammar.ClauseHaving:
			q.Having = s.parseExpr()
		case grammar.ClauseWindow:
			s.failf("named WINDOW clauses are not supported")
		}
	}
	q.Span = s.span(start)
	return q
}

func (s *state) parseSelectItem() *ast.SelectItem {
	start := s.startPos()
	item := &ast.SelectItem{Expr: s.parseExpr()}
	if s.accept("AS") {
		item.Alias = s.identOrString()
	} else if t := s.cur(); t.Kind == lexer.String || s.isIdent(t) {
		item.Alias = s.identOrString()
	}
	item.Span = s.span(start)
	return item
}

func (s *state) parseQueryTail(sel *ast.Select) {
	for _, c := range s.g.QueryTailClauses() {
		if !s.isAt(0, c.Words[0]) {
			continue
		}
		switch c.Name {
		case grammar.ClauseOrderBy:
			if s.acceptSeq(c.Words...) {
				sel.OrderBy = s.parseOrderItems()
			}
		case grammar.ClauseLimit:
			if s.acceptSeq(c.Words...) {
				sel.Limit = s.parseLimitClause()
			}
		case grammar.ClauseLock:
			if sel.Lock == "" {
				sel.Lock = s.parseLockClause()
			}
		}
	}
}

func (s *state) parseOrderItems() []*ast.OrderItem {
	var out []*ast.OrderItem
	for {
		start := s.startPos()
		item := &ast.OrderItem{Expr: s.parseExpr()}
		switch {
		case s.accept("ASC"):
			item.Direction = "ASC"
		case s.accept("DESC"):
			item.Direction = "DESC"
			item.Desc = true
		}
		item.Span = s.span(start)
		out = append(out, item)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	return out
}

// parseLimitClause handles LIMIT n, LIMIT off, n and LIMIT n OFFSET off.
func (s *state) parseLimitClause() *ast.Limit {
	start := s.peek(-1).Start
	l := &ast.Limit{Count: s.parseLimitValue()}
	if s.accept(",") {
		l.Offset = l.Count
		l.Count = s.parseLimitValue()
	} else if s.accept("OFFSET") {
		l.Offset = s.parseLimitValue()
	}
	l.Span = s.span(start)
	return l
}

func (s *state) parseLimitValue() ast.Expr {
	switch s.cur().Kind {
	case lexer.Number, lexer.Param, lexer.NamedParam:
		return s.parsePrimary()
	}
	s.fail("number", "parameter")
	return nil
}

func (s *state) parseLockClause() string {
	start := s.startPos()
	switch {
	case s.acceptSeq("FOR", "UPDATE"), s.acceptSeq("FOR", "SHARE"):
		if s.accept("OF") {
			s.tableNameList()
		}
		if !s.accept("NOWAIT") {
			s.acceptSeq("SKIP", "LOCKED")
		}
	case s.acceptSeq("LOCK", "IN", "SHARE", "MODE"):
	default:
		s.fail("UPDATE", "SHARE")
		return ""
	}
	return s.src[start:s.lastEnd]
}

func (s *state) parseTableRefs() []ast.TableExpr {
	var out []ast.TableExpr
	for {
		out = append(out, s.parseTableRef())
		if !s.accept(",") || s.failed() {
			break
		}
	}
	return out
}

// joinKind consumes a join operator and reports its kind.
func (s *state) joinKind() (ast.JoinKind, bool) {
	switch {
	case s.accept("JOIN"), s.acceptSeq("INNER", "JOIN"):
		return ast.JoinInner, true
	case s.acceptSeq("CROSS", "JOIN"):
		return ast.JoinCross, true
	case s.accept("STRAIGHT_JOIN"):
		return ast.JoinStraight, true
	case s.acceptSeq("LEFT", "JOIN"), s.acceptSeq("LEFT", "OUTER", "JOIN"):
		return ast.JoinLeft, true
	case s.acceptSeq("RIGHT", "JOIN"), s.acceptSeq("RIGHT", "OUTER", "JOIN"):
		return ast.JoinRight, true
	case s.acceptSeq("NATURAL", "JOIN"), s.acceptSeq("NATURAL", "INNER", "JOIN"):
		return ast.JoinNatural, true
	case s.acceptSeq("NATURAL", "LEFT", "JOIN"), s.acceptSeq("NATURAL", "LEFT", "OUTER", "JOIN"):
		return ast.JoinNaturalLeft, true
	case s.acceptSeq("NATURAL", "RIGHT", "JOIN"), s.acceptSeq("NATURAL", "RIGHT", "OUTER", "JOIN"):
		return ast.JoinNaturalRight, true
	}
	return 0, false
}

func (s *state) parseTableRef() ast.TableExpr {
	start := s.startPos()
	left := s.parseTableFactor()
	for !s.failed() {
		kind, ok := s.joinKind()
		if !ok {
			break
		}
		j := &ast.Join{Kind: kind, Left: left, Right: s.parseTableFactor()}
		switch {
		case s.accept("ON"):
			j.On = s.parseExpr()
		case s.accept("USING"):
			j.Using = s.identList()
		}
		j.Span = s.span(start)
		left = j
	}
	return left
}

func (s *state) parseTableFactor() ast.TableExpr {
	start := s.startPos()
	lateral := s.accept("LATERAL")
	if s.is("(") {
		if lateral || s.isAt(1, "SELECT") || s.isAt(1, "WITH") {
			s.expect("(")
			d := &ast.DerivedTable{Lateral: lateral, Query: s.parseSelect()}
			s.expect(")")
			s.accept("AS")
			d.Alias = s.ident()
			if s.is("(") {
				d.Columns = s.identList()
			}
			d.Span = s.span(start)
			return d
		}
		s.expect("(")
		p := &ast.ParenTable{Tables: s.parseTableRefs()}
		s.expect(")")
		p.Span = s.span(start)
		return p
	}

	t := s.tableName()
	if s.accept("AS") {
		t.Alias = s.identOrString()
	} else if s.isIdent(s.cur()) {
		t.Alias = s.ident()
	}
	t.Hints = s.parseIndexHints()
	t.Span = s.span(start)
	return t
}

func (s *state) parseIndexHints() []*ast.IndexHint {
	var out []*ast.IndexHint
	for s.isAny("USE", "FORCE", "IGNORE") && (s.isAt(1, "INDEX") || s.isAt(1, "KEY")) {
		start := s.startPos()
		h := &ast.IndexHint{Kind: word(s.advance())}
		s.advance()
		if s.accept("FOR") {
			switch {
			case s.accept("JOIN"):
				h.Scope = "JOIN"
			case s.acceptSeq("ORDER", "BY"):
				h.Scope = "ORDER BY"
			case s.acceptSeq("GROUP", "BY"):
				h.Scope = "GROUP BY"
			default:
				s.fail("JOIN", "ORDER BY", "GROUP BY")
			}
		}
		s.expect("(")
		if !s.is(")") {
			for {
				if s.accept("PRIMARY") {
					h.Indexes = append(h.Indexes, "PRIMARY")
				} else {
					h.Indexes = append(h.Indexes, s.ident())
				}
				if !s.accept(",") || s.failed() {
					break
				}
			}
		}
		s.expect(")")
		h.Span = s.span(start)
		out = append(out, h)
		if s.is(",") && s.isAnyAt(1, "USE", "FORCE", "IGNORE") {
			s.advance()
		}
	}
	return out
}
