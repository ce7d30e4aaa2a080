package parser

import (
	"fmt"
	"strings"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/lexer"
)

// SyntaxError reports a token stream the grammar does not accept.
type SyntaxError struct {
	Span     ast.Span
	Pos      lexer.Position
	Expected []string
	Found    string
	// Message replaces the expected-set wording when set.
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("syntax error at line %d, column %d: %s near %s", e.Pos.Line, e.Pos.Column, e.Message, e.Found)
	}
	return fmt.Sprintf("syntax error at line %d, column %d: expected %s, found %s",
		e.Pos.Line, e.Pos.Column, describeExpected(e.Expected), e.Found)
}

func describeExpected(exp []string) string {
	switch len(exp) {
	case 0:
		return "more input"
	case 1:
		return exp[0]
	}
	return strings.Join(exp[:len(exp)-1], ", ") + " or " + exp[len(exp)-1]
}
