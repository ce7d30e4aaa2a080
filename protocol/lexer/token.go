package lexer

import "fmt"

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Whitespace
	Comment
	Keyword
	Ident
	QuotedIdent
	String
	Number
	Hex
	Bit
	SystemVar
	UserVar
	Param
	NamedParam
	Operator
	Punct
)

var kindNames = [...]string{
	EOF:         "end of input",
	Whitespace:  "whitespace",
	Comment:     "comment",
	Keyword:     "keyword",
	Ident:       "identifier",
	QuotedIdent: "quoted identifier",
	String:      "string",
	Number:      "number",
	Hex:         "hex literal",
	Bit:         "bit literal",
	SystemVar:   "system variable",
	UserVar:     "user variable",
	Param:       "parameter",
	NamedParam:  "named parameter",
	Operator:    "operator",
	Punct:       "punctuation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexeme. Raw is the exact source text; Text is normalized:
// keywords are upper case, quoted identifiers are unquoted, strings are
// unescaped, hex and bit literals hold only their digits, and variables
// hold the name without the leading @ signs.
type Token struct {
	Kind  Kind
	Raw   string
	Text  string
	Start int
	End   int
}

// Significant reports whether the parser should see this token.
func (t Token) Significant() bool {
	return t.Kind != Whitespace && t.Kind != Comment
}

// Is reports whether the token is the given keyword or operator/punctuation.
func (t Token) Is(text string) bool {
	switch t.Kind {
	case Keyword, Operator, Punct:
		return t.Text == text
	}
	return false
}

// Describe renders the token for error messages.
func (t Token) Describe() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Raw)
}

// Position is a line/column location, both 1-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

// PositionAt converts a byte offset in src to a Position.
func PositionAt(src string, offset int) Position {
	if offset > len(src) {
		offset = len(src)
	}
	pos := Position{Line: 1, Column: 1, Offset: offset}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

// LexError reports malformed input such as an unterminated literal.
type LexError struct {
	Pos     Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}
