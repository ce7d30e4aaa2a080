package parser

import (
	"strings"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/lexer"
)

var showKinds = map[string]ast.ShowKind{
	grammar.ShowTables:      ast.ShowTables,
	grammar.ShowColumns:     ast.ShowColumns,
	grammar.ShowIndex:       ast.ShowIndex,
	grammar.ShowTableStatus: ast.ShowTableStatus,
	grammar.ShowCreateTable: ast.ShowCreateTable,
	grammar.ShowDatabases:   ast.ShowDatabases,
	grammar.ShowVariables:   ast.ShowVariables,
	grammar.ShowGlobalVars:  ast.ShowVariables,
}

func (s *state) parseShow() *ast.Show {
	start := s.startPos()
	s.expect("SHOW")
	prod, ok := s.g.MatchShow(s.words(3))
	if !ok {
		s.fail("TABLES", "COLUMNS", "INDEX", "TABLE STATUS", "CREATE TABLE", "DATABASES", "VARIABLES")
		return nil
	}
	for range prod.Words {
		s.advance()
	}
	show := &ast.Show{Kind: showKinds[prod.Form], Full: prod.Full, Global: prod.Form == grammar.ShowGlobalVars}

	switch show.Kind {
	case ast.ShowColumns, ast.ShowIndex:
		if !s.accept("FROM") {
			s.expect("IN")
		}
		show.Table = s.tableName()
		if s.accept("FROM") || s.accept("IN") {
			show.Database = s.ident()
		}
	case ast.ShowCreateTable:
		show.Table = s.tableName()
	case ast.ShowTables, ast.ShowTableStatus:
		if s.accept("FROM") || s.accept("IN") {
			show.Database = s.ident()
		}
	}
	if show.Table != nil && show.Table.Schema != "" && show.Database == "" {
		show.Database = show.Table.Schema
	}

	if show.Kind != ast.ShowCreateTable {
		switch {
		case s.accept("LIKE"):
			show.Like = s.parsePrimary()
		case s.accept("WHERE"):
			show.Where = s.parseExpr()
		}
	}
	show.Span = s.span(start)
	return show
}

func (s *state) parseDescribe() *ast.Describe {
	start := s.startPos()
	s.advance()
	if s.isAny("SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "REPLACE", "FORMAT", "ANALYZE") {
		s.failf("EXPLAIN of a statement is not supported")
		return nil
	}
	d := &ast.Describe{Table: s.tableName()}
	if t := s.cur(); s.isIdent(t) || t.Kind == lexer.String {
		d.Column = s.identOrString()
	}
	d.Span = s.span(start)
	return d
}

func (s *state) parseMaintenance() *ast.TableMaintenance {
	start := s.startPos()
	tm := &ast.TableMaintenance{Op: word(s.advance())}
	if !s.accept("LOCAL") {
		s.accept("NO_WRITE_TO_BINLOG")
	}
	s.expect("TABLE")
	tm.Tables = s.tableNameList()
	// CHECK TABLE options and REPAIR TABLE options have no effect here
	for s.isAny("FOR", "QUICK", "FAST", "MEDIUM", "EXTENDED", "CHANGED", "USE_FRM") {
		s.advance()
		s.accept("UPGRADE")
	}
	tm.Span = s.span(start)
	return tm
}

func (s *state) parseTransaction(rule string) *ast.Transaction {
	start := s.startPos()
	tx := &ast.Transaction{}
	switch rule {
	case grammar.RuleBegin:
		if s.accept("BEGIN") {
			s.accept("WORK")
		} else {
			s.expectSeq("START", "TRANSACTION")
			for s.acceptSeq("READ", "ONLY") || s.acceptSeq("READ", "WRITE") ||
				s.acceptSeq("WITH", "CONSISTENT", "SNAPSHOT") {
				if !s.accept(",") {
					break
				}
			}
		}
		tx.Kind = ast.TxBegin
	case grammar.RuleCommit:
		s.expect("COMMIT")
		s.accept("WORK")
		tx.Kind = ast.TxCommit
	case grammar.RuleRollback:
		s.expect("ROLLBACK")
		s.accept("WORK")
		tx.Kind = ast.TxRollback
		if s.accept("TO") {
			s.accept("SAVEPOINT")
			tx.Kind = ast.TxRollbackTo
			tx.Name = s.ident()
		}
	case grammar.RuleSavepoint:
		s.expect("SAVEPOINT")
		tx.Kind = ast.TxSavepoint
		tx.Name = s.ident()
	case grammar.RuleRelease:
		s.expectSeq("RELEASE", "SAVEPOINT")
		tx.Kind = ast.TxRelease
		tx.Name = s.ident()
	}
	tx.Span = s.span(start)
	return tx
}

func (s *state) parseSet() *ast.Set {
	start := s.startPos()
	s.expect("SET")
	set := &ast.Set{}
	switch {
	case s.accept("NAMES"):
		set.Names = strings.ToLower(s.setWord())
		if s.accept("COLLATE") {
			set.Collate = strings.ToLower(s.setWord())
		}
	case s.acceptSeq("CHARACTER", "SET"), s.accept("CHARSET"):
		set.Names = strings.ToLower(s.setWord())
	case s.is("TRANSACTION") || (s.isAny("GLOBAL", "SESSION", "LOCAL") && s.isAt(1, "TRANSACTION")):
		from := s.startPos()
		for !s.eof() && !s.is(";") {
			s.advance()
		}
		set.Transaction = s.src[from:s.lastEnd]
	default:
		for {
			set.Assignments = append(set.Assignments, s.parseSetAssignment())
			if !s.accept(",") || s.failed() {
				break
			}
		}
	}
	set.Span = s.span(start)
	return set
}

// setWord reads a charset or collation name, which may also be DEFAULT or a
// quoted string.
func (s *state) setWord() string {
	if s.is("DEFAULT") {
		s.advance()
		return "default"
	}
	return s.identOrString()
}

func (s *state) parseSetAssignment() *ast.SetAssignment {
	start := s.startPos()
	a := &ast.SetAssignment{}
	t := s.cur()
	switch {
	case t.Kind == lexer.UserVar:
		s.advance()
		a.User = true
		a.Name = t.Text
	case t.Kind == lexer.SystemVar:
		s.advance()
		v := systemVar(t.Text, ast.NodeInfo{})
		a.Scope, a.Name = v.Scope, v.Name
	default:
		if s.isAny("GLOBAL", "SESSION", "LOCAL", "PERSIST") {
			a.Scope = word(s.advance())
		}
		a.Name = s.ident()
	}
	if !s.accept("=") {
		s.expect(":=")
	}
	// ON and OFF are accepted as bare words for boolean variables
	if v := s.cur(); (v.Kind == lexer.Keyword || v.Kind == lexer.Ident) && (word(v) == "ON" || word(v) == "OFF") {
		s.advance()
		a.Value = &ast.Literal{NodeInfo: ast.NodeInfo{Span: ast.Span{Start: v.Start, End: v.End}}, Kind: ast.LiteralString, Value: word(v)}
	} else {
		a.Value = s.parseExpr()
	}
	a.Span = s.span(start)
	return a
}

func (s *state) parseUse() *ast.Use {
	start := s.startPos()
	s.expect("USE")
	u := &ast.Use{Database: s.ident()}
	u.Span = s.span(start)
	return u
}

func (s *state) parseLockTables(unlock bool) *ast.LockTables {
	start := s.startPos()
	lt := &ast.LockTables{Unlock: unlock}
	s.advance()
	if !s.accept("TABLES") {
		s.expect("TABLE")
	}
	if unlock {
		lt.Span = s.span(start)
		return lt
	}
	for {
		t := s.tableName()
		if s.accept("AS") {
			t.Alias = s.ident()
		} else if s.isIdent(s.cur()) {
			t.Alias = s.ident()
		}
		switch {
		case s.accept("READ"):
			s.accept("LOCAL")
		case s.acceptSeq("LOW_PRIORITY", "WRITE"), s.accept("WRITE"):
		default:
			s.fail("READ", "WRITE")
		}
		lt.Tables = append(lt.Tables, t)
		if !s.accept(",") || s.failed() {
			break
		}
	}
	lt.Span = s.span(start)
	return lt
}
