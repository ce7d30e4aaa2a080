// Package parser builds ast statements from MySQL SQL text.
//
// Statement dispatch, SHOW forms, data types, clause order and operator
// precedence all come from a grammar.Grammar; this package holds the
// recursive-descent engine that walks those tables:
//
//	statement  → production(lead words) [;]
//	select     → [WITH ctes] body [ORDER BY ...] [LIMIT ...] [lock]
//	body       → primary {(UNION|EXCEPT|INTERSECT) [ALL|DISTINCT] primary}
//	primary    → SELECT spec | ( select )
//	expr       → unary {binop expr}   (precedence climbing)
//
// The first error stops parsing; it is returned as a *SyntaxError or, for
// malformed tokens, the *lexer.LexError.
package parser

import (
	"strings"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/lexer"
)

// Parser parses SQL text with a fixed grammar. It is stateless between
// calls and safe for concurrent use.
type Parser struct {
	g *grammar.Grammar
}

// New creates a parser over g.
func New(g *grammar.Grammar) *Parser {
	return &Parser{g: g}
}

// Parse parses a single statement using the default grammar.
func Parse(sql string) (ast.Statement, error) {
	return New(grammar.Default()).Parse(sql)
}

// Parse parses exactly one statement, optionally terminated by ";".
func (p *Parser) Parse(sql string) (ast.Statement, error) {
	st, err := p.start(sql)
	if err != nil {
		return nil, err
	}
	stmt := st.parseStatement()
	st.accept(";")
	if !st.eof() {
		st.fail("end of statement")
	}
	if st.err != nil {
		return nil, st.err
	}
	return stmt, nil
}

// ParseAll parses a ";"-separated script. Empty statements are skipped.
func (p *Parser) ParseAll(sql string) ([]ast.Statement, error) {
	st, err := p.start(sql)
	if err != nil {
		return nil, err
	}
	var out []ast.Statement
	for !st.eof() {
		if st.accept(";") {
			continue
		}
		st.params = 0
		stmt := st.parseStatement()
		if st.err != nil {
			return nil, st.err
		}
		out = append(out, stmt)
		if !st.eof() {
			st.expect(";")
		}
		if st.err != nil {
			return nil, st.err
		}
	}
	return out, nil
}

// ParseDataType parses a column type on its own, such as the
// "bigint(20) unsigned" text kept in information_schema.columns.
func (p *Parser) ParseDataType(text string) (*ast.DataType, error) {
	st, err := p.start(text)
	if err != nil {
		return nil, err
	}
	dt := st.parseDataType()
	if !st.eof() {
		st.fail("end of type")
	}
	if st.err != nil {
		return nil, st.err
	}
	return dt, nil
}

// ParseExpr parses a standalone expression such as a stored column default.
func (p *Parser) ParseExpr(text string) (ast.Expr, error) {
	st, err := p.start(text)
	if err != nil {
		return nil, err
	}
	e := st.parseExpr()
	if !st.eof() {
		st.fail("end of expression")
	}
	if st.err != nil {
		return nil, st.err
	}
	return e, nil
}

func (p *Parser) start(sql string) (*state, error) {
	all, err := lexer.Tokenize(sql, p.g)
	if err != nil {
		return nil, err
	}
	toks := make([]lexer.Token, 0, len(all))
	for _, t := range all {
		if t.Significant() {
			toks = append(toks, t)
		}
	}
	return &state{g: p.g, src: sql, toks: toks}, nil
}

// state is the per-call cursor over significant tokens. toks always ends
// with an EOF token.
type state struct {
	g       *grammar.Grammar
	src     string
	toks    []lexer.Token
	pos     int
	lastEnd int
	params  int
	err     error
}

func (s *state) cur() lexer.Token {
	return s.toks[s.pos]
}

func (s *state) peek(off int) lexer.Token {
	if s.pos+off < 0 {
		return s.toks[0]
	}
	if s.pos+off >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.pos+off]
}

func (s *state) eof() bool {
	return s.cur().Kind == lexer.EOF
}

func (s *state) advance() lexer.Token {
	t := s.cur()
	if t.Kind != lexer.EOF {
		s.lastEnd = t.End
		s.pos++
	}
	return t
}

func (s *state) span(start int) ast.Span {
	end := s.lastEnd
	if end < start {
		end = start
	}
	return ast.Span{Start: start, End: end}
}

func (s *state) startPos() int {
	return s.cur().Start
}

// word returns the upper-cased spelling of t for keyword matching, or ""
// for tokens that can never be a keyword.
func word(t lexer.Token) string {
	switch t.Kind {
	case lexer.Keyword, lexer.Operator, lexer.Punct:
		return t.Text
	case lexer.Ident:
		return strings.ToUpper(t.Text)
	}
	return ""
}

func (s *state) isAt(off int, w string) bool {
	return word(s.peek(off)) == w
}

func (s *state) is(w string) bool {
	return s.isAt(0, w)
}

func (s *state) isAny(ws ...string) bool {
	return s.isAnyAt(0, ws...)
}

func (s *state) isAnyAt(off int, ws ...string) bool {
	cw := word(s.peek(off))
	for _, w := range ws {
		if cw == w {
			return true
		}
	}
	return false
}

func (s *state) accept(w string) bool {
	if s.is(w) {
		s.advance()
		return true
	}
	return false
}

// acceptSeq consumes ws only when all of them match.
func (s *state) acceptSeq(ws ...string) bool {
	for i, w := range ws {
		if !s.isAt(i, w) {
			return false
		}
	}
	for range ws {
		s.advance()
	}
	return true
}

func (s *state) expect(w string) {
	if !s.accept(w) {
		s.fail(w)
	}
}

func (s *state) expectSeq(ws ...string) {
	for _, w := range ws {
		s.expect(w)
	}
}

// words returns up to n upper-cased words starting at the cursor.
func (s *state) words(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		t := s.peek(i)
		if t.Kind == lexer.EOF {
			break
		}
		out = append(out, word(t))
	}
	return out
}

// fail records the first error and parks the cursor at EOF so that every
// loop terminates.
func (s *state) fail(expected ...string) {
	if s.err != nil {
		return
	}
	t := s.cur()
	s.err = &SyntaxError{
		Span:     ast.Span{Start: t.Start, End: t.End},
		Pos:      lexer.PositionAt(s.src, t.Start),
		Expected: expected,
		Found:    t.Describe(),
	}
	s.pos = len(s.toks) - 1
}

func (s *state) failf(msg string) {
	if s.err != nil {
		return
	}
	s.fail()
	s.err.(*SyntaxError).Message = msg
}

func (s *state) failed() bool {
	return s.err != nil
}

// isIdent reports whether t can be used as an unquoted or quoted name.
func (s *state) isIdent(t lexer.Token) bool {
	switch t.Kind {
	case lexer.Ident, lexer.QuotedIdent:
		return true
	case lexer.Keyword:
		return !s.g.IsReserved(t.Text)
	}
	return false
}

// ident consumes a name. Unquoted keywords keep their source spelling.
func (s *state) ident() string {
	t := s.cur()
	if !s.isIdent(t) {
		s.fail("identifier")
		return ""
	}
	s.advance()
	if t.Kind == lexer.Keyword {
		return t.Raw
	}
	return t.Text
}

// identList parses ( a, b, ... ).
func (s *state) identList() []string {
	s.expect("(")
	var out []string
	for {
		out = append(out, s.ident())
		if !s.accept(",") {
			break
		}
	}
	s.expect(")")
	return out
}

// identOrString accepts either a name or a quoted string, as MySQL allows for
// aliases, charsets and option values.
func (s *state) identOrString() string {
	if s.cur().Kind == lexer.String {
		return s.advance().Text
	}
	return s.ident()
}

func (s *state) stringLit() string {
	t := s.cur()
	if t.Kind != lexer.String {
		s.fail("string")
		return ""
	}
	s.advance()
	return t.Text
}

func (s *state) number() string {
	t := s.cur()
	if t.Kind != lexer.Number {
		s.fail("number")
		return ""
	}
	s.advance()
	return t.Text
}

// optionValue consumes a single token used as an option value (ENGINE=x,
// ROW_FORMAT=x, AUTO_INCREMENT=n).
func (s *state) optionValue() string {
	t := s.cur()
	switch t.Kind {
	case lexer.String, lexer.Number, lexer.Ident, lexer.QuotedIdent, lexer.Keyword:
		s.advance()
		if t.Kind == lexer.Keyword {
			return t.Raw
		}
		return t.Text
	}
	s.fail("value")
	return ""
}

func (s *state) tableName() *ast.TableName {
	start := s.startPos()
	t := &ast.TableName{Name: s.ident()}
	if s.accept(".") {
		t.Schema = t.Name
		t.Name = s.ident()
	}
	t.Span = s.span(start)
	return t
}

func (s *state) tableNameList() []*ast.TableName {
	var out []*ast.TableName
	for {
		out = append(out, s.tableName())
		if !s.accept(",") {
			break
		}
	}
	return out
}

func (s *state) parseStatement() ast.Statement {
	prod, ok := s.g.MatchStatement(s.words(4))
	if !ok {
		var leads []string
		seen := map[string]bool{}
		for _, p := range s.g.Statements() {
			if l := p.Lead[0]; !seen[l] && l != "(" {
				seen[l] = true
				leads = append(leads, l)
			}
		}
		s.fail(leads...)
		return nil
	}

	var stmt ast.Statement
	switch prod.Name {
	case grammar.RuleSelect:
		stmt = s.parseSelect()
	case grammar.RuleInsert, grammar.RuleReplace:
		stmt = s.parseInsert()
	case grammar.RuleUpdate:
		stmt = s.parseUpdate()
	case grammar.RuleDelete:
		stmt = s.parseDelete()
	case grammar.RuleCreateTable:
		stmt = s.parseCreateTable()
	case grammar.RuleCreateIndex:
		stmt = s.parseCreateIndex()
	case grammar.RuleAlterTable:
		stmt = s.parseAlterTable()
	case grammar.RuleDropTable:
		stmt = s.parseDropTable()
	case grammar.RuleDropIndex:
		stmt = s.parseDropIndex()
	case grammar.RuleRenameTable:
		stmt = s.parseRenameTable()
	case grammar.RuleTruncate:
		stmt = s.parseTruncate()
	case grammar.RuleShow:
		stmt = s.parseShow()
	case grammar.RuleDescribe:
		stmt = s.parseDescribe()
	case grammar.RuleTableMaintenance:
		stmt = s.parseMaintenance()
	case grammar.RuleBegin, grammar.RuleCommit, grammar.RuleRollback,
		grammar.RuleSavepoint, grammar.RuleRelease:
		stmt = s.parseTransaction(prod.Name)
	case grammar.RuleSet:
		stmt = s.parseSet()
	case grammar.RuleUse:
		stmt = s.parseUse()
	case grammar.RuleLockTables, grammar.RuleUnlockTables:
		stmt = s.parseLockTables(prod.Name == grammar.RuleUnlockTables)
	default:
		s.failf("unhandled statement production " + prod.Name)
	}
	if s.failed() {
		return nil
	}
	return stmt
}
