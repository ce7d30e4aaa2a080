// Package grammar holds the declarative description of the MySQL dialect
// used by the parser: keywords, operator precedence, statement productions,
// clause order, SHOW forms and data types.
//
// A Grammar is built once and never mutated; share it freely between
// goroutines and pass it to parser.New.
package grammar

import (
	"strings"
	"sync"
)

// Grammar is the immutable dialect table.
type Grammar struct {
	keywords   map[string]bool // word -> reserved
	binary     map[string]OpInfo
	unary      map[string]OpInfo
	statements []Production
	shows      []ShowProduction
	types      []TypeProduction
	casts      []TypeProduction
	clauses    []Clause
	tail       []Clause
	functions  map[string]bool
	units      map[string]bool
}

var (
	defaultOnce    sync.Once
	defaultGrammar *Grammar
)

// Default returns the process-wide grammar, loading it on first use.
func Default() *Grammar {
	defaultOnce.Do(func() {
		defaultGrammar = Load()
	})
	return defaultGrammar
}

// Load builds a fresh grammar from the tables in this package.
func Load() *Grammar {
	g := &Grammar{
		keywords:   make(map[string]bool, len(reservedWords)+len(nonReservedWords)),
		binary:     make(map[string]OpInfo, len(binaryOperators)),
		unary:      make(map[string]OpInfo, len(unaryOperators)),
		statements: sortedProductions(statementProductions),
		shows:      sortedShows(showProductions),
		types:      sortedTypes(dataTypes),
		casts:      sortedTypes(castTypes),
		clauses:    append([]Clause(nil), selectClauses...),
		tail:       append([]Clause(nil), queryTailClauses...),
		functions:  make(map[string]bool, len(keywordFunctions)),
		units:      make(map[string]bool, len(intervalUnits)),
	}
	for _, w := range nonReservedWords {
		g.keywords[w] = false
	}
	for _, w := range reservedWords {
		g.keywords[w] = true
	}
	for _, op := range binaryOperators {
		g.binary[op.Token] = op
	}
	for _, op := range unaryOperators {
		g.unary[op.Token] = op
	}
	for _, f := range keywordFunctions {
		g.functions[f] = true
	}
	for _, u := range intervalUnits {
		g.units[u] = true
	}
	return g
}

// IsKeyword implements lexer.Keywords.
func (g *Grammar) IsKeyword(word string) bool {
	_, ok := g.keywords[word]
	return ok
}

// IsReserved reports whether word cannot be used as an unquoted identifier.
func (g *Grammar) IsReserved(word string) bool {
	return g.keywords[strings.ToUpper(word)]
}

// IsKeywordFunction reports whether a reserved word may be called as a
// function, e.g. LEFT(s, 2) or REPLACE(s, a, b).
func (g *Grammar) IsKeywordFunction(word string) bool {
	return g.functions[word]
}

// IsIntervalUnit reports whether word is a temporal INTERVAL unit.
func (g *Grammar) IsIntervalUnit(word string) bool {
	return g.units[strings.ToUpper(word)]
}

// Binary returns the infix operator entry for a token text.
func (g *Grammar) Binary(tok string) (OpInfo, bool) {
	op, ok := g.binary[tok]
	return op, ok
}

// Unary returns the prefix operator entry for a token text.
func (g *Grammar) Unary(tok string) (OpInfo, bool) {
	op, ok := g.unary[tok]
	return op, ok
}

// MatchStatement returns the longest statement production whose leading
// words prefix the given upper-cased words.
func (g *Grammar) MatchStatement(words []string) (Production, bool) {
	for _, p := range g.statements {
		if hasPrefix(words, p.Lead) {
			return p, true
		}
	}
	return Production{}, false
}

// MatchShow returns the longest SHOW form matching the words after SHOW.
func (g *Grammar) MatchShow(words []string) (ShowProduction, bool) {
	for _, p := range g.shows {
		if hasPrefix(words, p.Words) {
			return p, true
		}
	}
	return ShowProduction{}, false
}

// MatchType returns the longest data type whose words prefix words.
func (g *Grammar) MatchType(words []string) (TypeProduction, bool) {
	return matchType(g.types, words)
}

// MatchCast returns the longest CAST target type whose words prefix words.
func (g *Grammar) MatchCast(words []string) (TypeProduction, bool) {
	return matchType(g.casts, words)
}

// SelectClauses returns the clauses of a query specification in the order
// they must appear.
func (g *Grammar) SelectClauses() []Clause {
	return g.clauses
}

// QueryTailClauses returns the clauses that follow a whole query body.
func (g *Grammar) QueryTailClauses() []Clause {
	return g.tail
}

// Statements lists all statement productions, longest first.
func (g *Grammar) Statements() []Production {
	return g.statements
}

func matchType(types []TypeProduction, words []string) (TypeProduction, bool) {
	for _, t := range types {
		if hasPrefix(words, t.Words) {
			return t, true
		}
	}
	return TypeProduction{}, false
}

func hasPrefix(words, lead []string) bool {
	if len(lead) > len(words) {
		return false
	}
	for i, w := range lead {
		if words[i] != w {
			return false
		}
	}
	return true
}
