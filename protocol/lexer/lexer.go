// Package lexer tokenizes MySQL-dialect SQL.
package lexer

import (
	"strings"
)

// Keywords decides which upper-cased words are keywords.
type Keywords interface {
	IsKeyword(word string) bool
}

// Lexer produces tokens lazily. It holds no state beyond its read position,
// so Reset restarts it and tokenizing the same input is deterministic.
type Lexer struct {
	input    string
	keywords Keywords

	pos int
	// versioned counts open /*! ... */ comments whose body is lexed as code.
	versioned int
	lastSig   Kind
	lastText  string
}

// New creates a lexer over input.
func New(input string, keywords Keywords) *Lexer {
	l := &Lexer{input: input, keywords: keywords}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of its input.
func (l *Lexer) Reset() {
	l.pos = 0
	l.versioned = 0
	l.lastSig = EOF
	l.lastText = ""
}

// Tokenize returns every token of input, including whitespace and comments,
// terminated by an EOF token.
func Tokenize(input string, keywords Keywords) ([]Token, error) {
	l := New(input, keywords)
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func (l *Lexer) peek(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func (l *Lexer) errorf(at int, msg string) error {
	return &LexError{Pos: PositionAt(l.input, at), Message: msg}
}

func (l *Lexer) emit(kind Kind, start int, text string) Token {
	tok := Token{Kind: kind, Raw: l.input[start:l.pos], Text: text, Start: start, End: l.pos}
	if tok.Significant() {
		l.lastSig = kind
		l.lastText = text
	}
	return tok
}

// Next returns the next token; at end of input it returns EOF repeatedly.
func (l *Lexer) Next() (Token, error) {
	if l.pos >= len(l.input) {
		if l.versioned > 0 {
			return Token{}, l.errorf(l.pos, "unterminated comment")
		}
		return Token{Kind: EOF, Start: l.pos, End: l.pos}, nil
	}
	start := l.pos
	ch := l.input[l.pos]

	switch {
	case isSpace(ch):
		for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
			l.pos++
		}
		return l.emit(Whitespace, start, " "), nil

	case ch == '#':
		l.skipLine()
		return l.emit(Comment, start, ""), nil

	case ch == '-' && l.peek(1) == '-' && (isSpace(l.peek(2)) || l.pos+2 >= len(l.input)):
		l.skipLine()
		return l.emit(Comment, start, ""), nil

	case ch == '/' && l.peek(1) == '*':
		return l.blockComment(start)

	case ch == '*' && l.peek(1) == '/' && l.versioned > 0:
		l.pos += 2
		l.versioned--
		return l.emit(Comment, start, ""), nil

	case ch == '\'' || ch == '"':
		return l.quoted(start, ch, String)

	case ch == '`':
		return l.quoted(start, ch, QuotedIdent)

	case (ch == 'x' || ch == 'X') && l.peek(1) == '\'':
		return l.prefixedLiteral(start, Hex, isHexDigit)

	case (ch == 'b' || ch == 'B') && l.peek(1) == '\'':
		return l.prefixedLiteral(start, Bit, isBitDigit)

	case (ch == 'n' || ch == 'N') && l.peek(1) == '\'':
		l.pos++
		tok, err := l.quoted(l.pos, '\'', String)
		if err != nil {
			return tok, err
		}
		tok.Start = start
		tok.Raw = l.input[start:l.pos]
		return tok, nil

	case ch == '@':
		return l.variable(start)

	case ch == '?':
		l.pos++
		return l.emit(Param, start, "?"), nil

	case ch == ':' && isIdentStart(l.peek(1)):
		l.pos++
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		return l.emit(NamedParam, start, l.input[start+1:l.pos]), nil

	case ch == '.' && isDigit(l.peek(1)) && !l.afterQualifier():
		return l.number(start)

	case isDigit(ch):
		return l.word(start)

	case isIdentStart(ch):
		return l.word(start)
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op) {
			l.pos += len(op)
			return l.emit(Operator, start, op), nil
		}
	}
	if strings.IndexByte("(),;.{}", ch) >= 0 {
		l.pos++
		return l.emit(Punct, start, string(ch)), nil
	}
	return Token{}, l.errorf(start, "unexpected character "+quoteByte(ch))
}

// operators are ordered longest first.
var operators = []string{
	"<=>", "->>",
	"<<", ">>", "<=", ">=", "<>", "!=", ":=", "&&", "||", "->",
	"=", "<", ">", "!", "~", "^", "&", "|", "+", "-", "*", "/", "%",
}

func (l *Lexer) afterQualifier() bool {
	switch l.lastSig {
	case Ident, QuotedIdent:
		return true
	case Punct:
		return l.lastText == ")"
	}
	return false
}

func (l *Lexer) skipLine() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.pos++
	}
}

func (l *Lexer) blockComment(start int) (Token, error) {
	// /*!NNNNN ... */ and /*M!NNNNN ... */ are executable comments
	if l.peek(2) == '!' || (l.peek(2) == 'M' && l.peek(3) == '!') {
		l.pos += 3
		if l.input[l.pos-1] == 'M' {
			l.pos++
		}
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		l.versioned++
		return l.emit(Comment, start, ""), nil
	}
	end := strings.Index(l.input[l.pos+2:], "*/")
	if end < 0 {
		return Token{}, l.errorf(start, "unterminated comment")
	}
	l.pos += 2 + end + 2
	return l.emit(Comment, start, ""), nil
}

func (l *Lexer) quoted(start int, quote byte, kind Kind) (Token, error) {
	l.pos++
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			if kind == QuotedIdent {
				return Token{}, l.errorf(start, "unterminated quoted identifier")
			}
			return Token{}, l.errorf(start, "unterminated string literal")
		}
		c := l.input[l.pos]
		switch {
		case c == quote:
			if l.peek(1) == quote {
				sb.WriteByte(quote)
				l.pos += 2
				continue
			}
			l.pos++
			return l.emit(kind, start, sb.String()), nil
		case c == '\\' && kind == String:
			if l.pos+1 >= len(l.input) {
				return Token{}, l.errorf(start, "unterminated string literal")
			}
			sb.WriteString(unescape(l.input[l.pos+1]))
			l.pos += 2
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
}

func unescape(c byte) string {
	switch c {
	case '0':
		return "\x00"
	case 'b':
		return "\b"
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case 'Z':
		return "\x1a"
	case '%':
		return `\%`
	case '_':
		return `\_`
	}
	return string(c)
}

func (l *Lexer) prefixedLiteral(start int, kind Kind, valid func(byte) bool) (Token, error) {
	l.pos += 2
	digitsStart := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\'' {
		if !valid(l.input[l.pos]) {
			return Token{}, l.errorf(l.pos, "invalid digit in "+kind.String())
		}
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{}, l.errorf(start, "unterminated "+kind.String())
	}
	digits := l.input[digitsStart:l.pos]
	l.pos++
	return l.emit(kind, start, digits), nil
}

func (l *Lexer) variable(start int) (Token, error) {
	l.pos++
	kind := UserVar
	if l.peek(0) == '@' {
		kind = SystemVar
		l.pos++
	}
	c := l.peek(0)
	if kind == UserVar && (c == '\'' || c == '"' || c == '`') {
		tok, err := l.quoted(l.pos, c, String)
		if err != nil {
			return tok, err
		}
		return l.emit(UserVar, start, tok.Text), nil
	}
	nameStart := l.pos
	for l.pos < len(l.input) && (isIdentChar(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	if l.pos == nameStart {
		return Token{}, l.errorf(start, "missing variable name")
	}
	return l.emit(kind, start, l.input[nameStart:l.pos]), nil
}

func (l *Lexer) number(start int) (Token, error) {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.peek(0) == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	l.exponent()
	return l.emit(Number, start, l.input[start:l.pos]), nil
}

func (l *Lexer) exponent() {
	c := l.peek(0)
	if c != 'e' && c != 'E' {
		return
	}
	if isDigit(l.peek(1)) {
		l.pos++
	} else if (l.peek(1) == '+' || l.peek(1) == '-') && isDigit(l.peek(2)) {
		l.pos += 2
	} else {
		return
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
}

// word scans an identifier, keyword or number. MySQL identifiers may start
// with digits as long as they are not entirely numeric.
func (l *Lexer) word(start int) (Token, error) {
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	w := l.input[start:l.pos]

	switch {
	case allDigits(w):
		l.pos = start
		return l.number(start)
	case len(w) > 2 && w[0] == '0' && w[1] == 'x' && allMatch(w[2:], isHexDigit):
		return l.emit(Hex, start, w[2:]), nil
	case len(w) > 2 && w[0] == '0' && w[1] == 'b' && allMatch(w[2:], isBitDigit):
		return l.emit(Bit, start, w[2:]), nil
	case isDigit(w[0]) && isExponentWord(w, l.peek(0)):
		l.pos = start
		return l.number(start)
	}

	if isDigit(w[0]) {
		return l.emit(Ident, start, w), nil
	}
	upper := strings.ToUpper(w)
	if l.keywords != nil && l.keywords.IsKeyword(upper) {
		// a keyword directly after "." is a qualified name, e.g. t.status
		if !(l.lastSig == Punct && l.lastText == ".") {
			return l.emit(Keyword, start, upper), nil
		}
	}
	return l.emit(Ident, start, w), nil
}

// isExponentWord reports whether w, followed by next, starts a number such
// as 1e10 or 2E+3.
func isExponentWord(w string, next byte) bool {
	i := 0
	for i < len(w) && isDigit(w[i]) {
		i++
	}
	if i == len(w) || (w[i] != 'e' && w[i] != 'E') {
		return false
	}
	rest := w[i+1:]
	if rest == "" {
		return next == '+' || next == '-'
	}
	return allDigits(rest)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isBitDigit(c byte) bool { return c == '0' || c == '1' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func allDigits(s string) bool {
	return s != "" && allMatch(s, isDigit)
}

func allMatch(s string, f func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !f(s[i]) {
			return false
		}
	}
	return true
}

func quoteByte(c byte) string {
	return "'" + string(rune(c)) + "'"
}
