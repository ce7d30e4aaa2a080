package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestKeywords(t *testing.T) {
	g := Load()
	assert.True(t, g.IsKeyword("SELECT"))
	assert.True(t, g.IsReserved("select"))
	assert.True(t, g.IsKeyword("STATUS"))
	assert.False(t, g.IsReserved("status"))
	assert.False(t, g.IsKeyword("WP_POSTS"))
}

func TestMatchStatementPrefersLongestLead(t *testing.T) {
	g := Load()

	p, ok := g.MatchStatement([]string{"CREATE", "UNIQUE", "INDEX", "X"})
	require.True(t, ok)
	assert.Equal(t, RuleCreateIndex, p.Name)

	p, ok = g.MatchStatement([]string{"CREATE", "TEMPORARY", "TABLE"})
	require.True(t, ok)
	assert.Equal(t, RuleCreateTable, p.Name)

	p, ok = g.MatchStatement([]string{"RELEASE", "SAVEPOINT", "a"})
	require.True(t, ok)
	assert.Equal(t, RuleRelease, p.Name)

	_, ok = g.MatchStatement([]string{"GRANT"})
	assert.False(t, ok)
}

func TestMatchShow(t *testing.T) {
	g := Load()
	p, ok := g.MatchShow([]string{"FULL", "COLUMNS", "FROM"})
	require.True(t, ok)
	assert.Equal(t, ShowColumns, p.Form)
	assert.True(t, p.Full)

	p, ok = g.MatchShow([]string{"TABLE", "STATUS"})
	require.True(t, ok)
	assert.Equal(t, ShowTableStatus, p.Form)
}

func TestMatchTypeMultiWord(t *testing.T) {
	g := Load()
	tests := []struct {
		words []string
		want  string
		n     int
	}{
		{[]string{"DOUBLE", "PRECISION"}, "DOUBLE", 2},
		{[]string{"DOUBLE", "("}, "DOUBLE", 1},
		{[]string{"NATIONAL", "CHARACTER", "VARYING", "("}, "VARCHAR", 3},
		{[]string{"CHARACTER", "VARYING"}, "VARCHAR", 2},
		{[]string{"CHARACTER", "SET"}, "CHAR", 1},
		{[]string{"GEOMETRYCOLLECTION"}, "GEOMCOLLECTION", 1},
		{[]string{"SERIAL"}, "SERIAL", 1},
	}
	for _, tt := range tests {
		p, ok := g.MatchType(tt.words)
		require.True(t, ok, "%v", tt.words)
		assert.Equal(t, tt.want, p.Name, "%v", tt.words)
		assert.Len(t, p.Words, tt.n, "%v", tt.words)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	g := Load()
	and, _ := g.Binary("AND")
	or, _ := g.Binary("||")
	eq, _ := g.Binary("=")
	mul, _ := g.Binary("*")
	add, _ := g.Binary("+")

	assert.Equal(t, "OR", or.Op)
	assert.Less(t, or.Prec, and.Prec)
	assert.Less(t, and.Prec, eq.Prec)
	assert.Less(t, eq.Prec, add.Prec)
	assert.Less(t, add.Prec, mul.Prec)

	bang, ok := g.Unary("!")
	require.True(t, ok)
	not, _ := g.Unary("NOT")
	assert.Greater(t, bang.Prec, not.Prec)
}

func TestSelectClauseOrder(t *testing.T) {
	g := Load()
	var names []string
	for _, c := range g.SelectClauses() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{ClauseFrom, ClauseWhere, ClauseGroupBy, ClauseHaving, ClauseWindow}, names)
}
