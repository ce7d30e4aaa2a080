package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keywordSet map[string]bool

func (k keywordSet) IsKeyword(w string) bool { return k[w] }

var testKeywords = keywordSet{
	"SELECT": true, "FROM": true, "WHERE": true, "STATUS": true, "AND": true,
}

func significant(t *testing.T, input string) []Token {
	t.Helper()
	toks, err := Tokenize(input, testKeywords)
	require.NoError(t, err)
	var out []Token
	for _, tok := range toks {
		if tok.Significant() && tok.Kind != EOF {
			out = append(out, tok)
		}
	}
	return out
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

func TestTokenizeBasicSelect(t *testing.T) {
	toks := significant(t, "select `id`, name FROM wp_posts where id >= 10")
	assert.Equal(t, []Kind{Keyword, QuotedIdent, Punct, Ident, Keyword, Ident, Keyword, Ident, Operator, Number}, kinds(toks))
	assert.Equal(t, []string{"SELECT", "id", ",", "name", "FROM", "wp_posts", "WHERE", "id", ">=", "10"}, texts(toks))
	assert.Equal(t, "select", toks[0].Raw)
	assert.Equal(t, "`id`", toks[1].Raw)
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single", `'abc'`, "abc"},
		{"double", `"abc"`, "abc"},
		{"doubled quote", `'it''s'`, "it's"},
		{"escaped quote", `'it\'s'`, "it's"},
		{"escaped double", `"say \"hi\""`, `say "hi"`},
		{"backslash", `'a\\b'`, `a\b`},
		{"newline tab", `'a\nb\tc\r'`, "a\nb\tc\r"},
		{"nul and ctrl-z", `'\0\Z'`, "\x00\x1a"},
		{"unknown escape passes through", `'\q'`, "q"},
		{"like wildcards keep backslash", `'50\%\_'`, `50\%\_`},
		{"national", `N'abc'`, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := significant(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, String, toks[0].Kind)
			assert.Equal(t, tt.want, toks[0].Text)
			assert.Equal(t, tt.input, toks[0].Raw)
		})
	}
}

func TestTokenizeBacktickDoubling(t *testing.T) {
	toks := significant(t, "`a``b`")
	require.Len(t, toks, 1)
	assert.Equal(t, QuotedIdent, toks[0].Kind)
	assert.Equal(t, "a`b", toks[0].Text)
}

func TestTokenizeNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		text  string
	}{
		{"42", Number, "42"},
		{"3.14", Number, "3.14"},
		{".5", Number, ".5"},
		{"1e10", Number, "1e10"},
		{"2E+3", Number, "2E+3"},
		{"1.5e-2", Number, "1.5e-2"},
		{"0x1F", Hex, "1F"},
		{"x'1f'", Hex, "1f"},
		{"X'AB'", Hex, "AB"},
		{"0b101", Bit, "101"},
		{"b'01'", Bit, "01"},
		{"B'1'", Bit, "1"},
		{"1abc", Ident, "1abc"},
		{"0xZZ", Ident, "0xZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := significant(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, tt.kind, toks[0].Kind)
			assert.Equal(t, tt.text, toks[0].Text)
		})
	}
}

func TestTokenizeQualifiedNames(t *testing.T) {
	toks := significant(t, "t.status, t1.5")
	assert.Equal(t, []Kind{Ident, Punct, Ident, Punct, Ident, Punct, Number}, kinds(toks)[:7])
	assert.Equal(t, "status", toks[2].Text)
}

func TestTokenizeVariablesAndParams(t *testing.T) {
	toks := significant(t, "@@SESSION.sql_mode @@version @x @'quoted' ? :name")
	assert.Equal(t, []Kind{SystemVar, SystemVar, UserVar, UserVar, Param, NamedParam}, kinds(toks))
	assert.Equal(t, []string{"SESSION.sql_mode", "version", "x", "quoted", "?", "name"}, texts(toks))
}

func TestTokenizeOperatorsLongestFirst(t *testing.T) {
	toks := significant(t, "a<=>b <> c != d := e && f || g << h ->> i -> j")
	var ops []string
	for _, tok := range toks {
		if tok.Kind == Operator {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{"<=>", "<>", "!=", ":=", "&&", "||", "<<", "->>", "->"}, ops)
}

func TestTokenizeComments(t *testing.T) {
	toks, err := Tokenize("SELECT 1 -- trailing\n# hash\n/* block */ FROM t", testKeywords)
	require.NoError(t, err)

	var comments int
	for _, tok := range toks {
		if tok.Kind == Comment {
			comments++
		}
	}
	assert.Equal(t, 3, comments)
	assert.Equal(t, []string{"SELECT", "1", "FROM", "t"}, texts(significant(t, "SELECT 1 -- trailing\n# hash\n/* block */ FROM t")))

	// "--" without a following space is two minus operators
	assert.Equal(t, []string{"1", "-", "-", "1"}, texts(significant(t, "1--1")))
}

func TestTokenizeVersionedComment(t *testing.T) {
	toks := significant(t, "CREATE TABLE t (a int) /*!40101 ENGINE=InnoDB */")
	got := texts(toks)
	assert.Contains(t, got, "ENGINE")
	assert.Contains(t, got, "InnoDB")
	assert.NotContains(t, got, "*/")
}

func TestTokenizeRawConcatenationReproducesInput(t *testing.T) {
	input := "SELECT  `a` ,\t'x''y' /* c */ FROM t  -- end"
	toks, err := Tokenize(input, testKeywords)
	require.NoError(t, err)
	var sb strings.Builder
	for _, tok := range toks {
		sb.WriteString(tok.Raw)
	}
	assert.Equal(t, input, sb.String())
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"SELECT 'abc", "unterminated string literal"},
		{"SELECT `abc", "unterminated quoted identifier"},
		{"SELECT /* abc", "unterminated comment"},
		{"SELECT x'1g'", "invalid digit"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Tokenize(tt.input, testKeywords)
			require.Error(t, err)
			var lexErr *LexError
			require.True(t, errors.As(err, &lexErr))
			assert.Contains(t, lexErr.Message, tt.msg)
			assert.Equal(t, 1, lexErr.Pos.Line)
		})
	}
}

func TestLexErrorPosition(t *testing.T) {
	_, err := Tokenize("SELECT 1\nFROM 'oops", testKeywords)
	var lexErr *LexError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, 2, lexErr.Pos.Line)
	assert.Equal(t, 6, lexErr.Pos.Column)
	assert.Equal(t, "lexer error at line 2, column 6: unterminated string literal", err.Error())
}

func TestLexerResetIsDeterministic(t *testing.T) {
	l := New("SELECT a FROM b", testKeywords)
	var first []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		first = append(first, tok)
		if tok.Kind == EOF {
			break
		}
	}
	l.Reset()
	var second []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		second = append(second, tok)
		if tok.Kind == EOF {
			break
		}
	}
	assert.Equal(t, first, second)
}
