package parser

import (
	"github.com/maxpert/mylite/protocol/ast"
)

func (s *state) parseInsert() *ast.Insert {
	start := s.startPos()
	ins := &ast.Insert{Replace: s.is("REPLACE")}
	s.advance()
	if s.isAny("LOW_PRIORITY", "DELAYED", "HIGH_PRIORITY") {
		ins.Priority = word(s.advance())
	}
	ins.Ignore = s.accept("IGNORE")
	s.accept("INTO")
	ins.Table = s.tableName()
	if s.accept("PARTITION") {
		s.identList()
	}

	if s.is("(") && !s.isAt(1, "SELECT") && !s.isAt(1, "WITH") {
		if s.isAt(1, ")") {
			s.advance()
			s.advance()
		} else {
			ins.Columns = s.identList()
		}
	}

	switch {
	case s.accept("VALUES"), s.accept("VALUE"):
		ins.Rows = s.parseValueRows()
	case s.accept("SET"):
		ins.Set = s.parseAssignments()
	case s.isAny("SELECT", "WITH", "("):
		ins.Select = s.parseSelect()
	default:
		s.fail("VALUES", "SET", "SELECT")
		return nil
	}
	// INSERT ... VALUES (...) AS new [(cols)]
	if s.accept("AS") {
		s.ident()
		if s.is("(") {
			s.identList()
		}
	}
	if s.acceptSeq("ON", "DUPLICATE", "KEY", "UPDATE") {
		ins.OnDuplicate = s.parseAssignments()
	}
	ins.Span = s.span(start)
	return ins
}

func (s *state) parseValueRows() [][]ast.Expr {
	var rows [][]ast.Expr
	for {
		s.accept("ROW")
		s.expect("(")
		var row []ast.Expr
		if !s.is(")") {
			row = s.parseExprList()
		}
		s.expect(")")
		rows = append(rows, row)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	return rows
}

func (s *state) parseAssignments() []*ast.Assignment {
	var out []*ast.Assignment
	for {
		start := s.startPos()
		col, ok := s.parseNameExpr().(*ast.ColumnRef)
		if !ok {
			s.fail("column")
			return nil
		}
		s.expect("=")
		a := &ast.Assignment{Column: col, Value: s.parseExpr()}
		a.Span = s.span(start)
		out = append(out, a)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	return out
}

func (s *state) parseUpdate() *ast.Update {
	start := s.startPos()
	s.expect("UPDATE")
	up := &ast.Update{}
	up.LowPriority = s.accept("LOW_PRIORITY")
	up.Ignore = s.accept("IGNORE")
	up.Tables = s.parseTableRefs()
	s.expect("SET")
	up.Set = s.parseAssignments()
	if s.accept("WHERE") {
		up.Where = s.parseExpr()
	}
	if s.acceptSeq("ORDER", "BY") {
		up.OrderBy = s.parseOrderItems()
	}
	if s.accept("LIMIT") {
		up.Limit = s.parseLimitClause()
	}
	up.Span = s.span(start)
	return up
}

// parseDelete handles the three MySQL forms:
//
//	DELETE FROM t [WHERE] [ORDER BY] [LIMIT]
//	DELETE a[.*], b[.*] FROM refs [WHERE]
//	DELETE FROM a[.*], b[.*] USING refs [WHERE]
func (s *state) parseDelete() *ast.Delete {
	start := s.startPos()
	s.expect("DELETE")
	del := &ast.Delete{}
	for {
		switch {
		case s.accept("LOW_PRIORITY"):
			del.LowPriority = true
			continue
		case s.accept("QUICK"):
			del.Quick = true
			continue
		case s.accept("IGNORE"):
			del.Ignore = true
			continue
		}
		break
	}

	if s.accept("FROM") {
		save, saveEnd := s.pos, s.lastEnd
		targets := s.parseDeleteTargets()
		if !s.failed() && s.accept("USING") {
			del.Targets = targets
			del.From = s.parseTableRefs()
		} else if s.err == nil {
			s.pos, s.lastEnd = save, saveEnd
			del.From = s.parseTableRefs()
		}
	} else {
		del.Targets = s.parseDeleteTargets()
		s.expect("FROM")
		del.From = s.parseTableRefs()
	}

	if s.accept("WHERE") {
		del.Where = s.parseExpr()
	}
	if s.acceptSeq("ORDER", "BY") {
		del.OrderBy = s.parseOrderItems()
	}
	if s.accept("LIMIT") {
		del.Limit = s.parseLimitClause()
	}
	del.Span = s.span(start)
	return del
}

// parseDeleteTargets reads a, b.* , schema.c lists, returning the last name
// segment of each entry.
func (s *state) parseDeleteTargets() []string {
	var out []string
	for {
		name := s.ident()
		for s.accept(".") {
			if s.accept("*") {
				break
			}
			name = s.ident()
		}
		out = append(out, name)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	return out
}
