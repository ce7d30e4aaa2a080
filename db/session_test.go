package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTransactions(t *testing.T) {
	ctx := context.Background()
	tr := openTranslator(t, nil)
	s := NewSession(tr)

	assert.ErrorIs(t, s.Commit(ctx), ErrNoneActive)
	assert.ErrorIs(t, s.Rollback(ctx), ErrNoneActive)

	require.NoError(t, s.BeginTransaction(ctx))
	assert.True(t, s.InTransaction())
	err := s.BeginTransaction(ctx)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, "There is already an active transaction", err.Error())

	require.NoError(t, s.Rollback(ctx))
	assert.False(t, s.InTransaction())
	assert.Equal(t, 0, tr.Depth())
}

func TestSessionPreparedStatements(t *testing.T) {
	ctx := context.Background()
	s := NewSession(openTranslator(t, nil))

	_, err := s.Exec(ctx, "CREATE TABLE p (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(20))")
	require.NoError(t, err)

	stmt, err := s.Prepare("INSERT INTO p (name) VALUES (?)")
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		_, err := stmt.Execute(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stmt.RowCount())
	}
	assert.Equal(t, int64(3), s.LastInsertID())

	sel, err := s.Prepare("SELECT name FROM p WHERE id > ? ORDER BY id")
	require.NoError(t, err)
	_, err = sel.Execute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"name": "b"}, {"name": "c"}}, sel.FetchAll())

	n, err := s.Exec(ctx, "DELETE FROM p WHERE id < ?", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.Prepare("SELEC name FROM p")
	assert.Error(t, err)
}

func TestSessionCommit(t *testing.T) {
	ctx := context.Background()
	s := NewSession(openTranslator(t, nil))
	_, err := s.Exec(ctx, "CREATE TABLE t (id INT)")
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction(ctx))
	_, err = s.Exec(ctx, "INSERT INTO t (id) VALUES (1)")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx))

	res, err := s.Query(ctx, "SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Rows[0][0])
}

func TestSessionFollowsSQLTransactionControl(t *testing.T) {
	ctx := context.Background()
	tr := openTranslator(t, nil)
	s := NewSession(tr)
	_, err := s.Exec(ctx, "CREATE TABLE t (id INT)")
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction(ctx))
	_, err = s.Exec(ctx, "INSERT INTO t (id) VALUES (1)")
	require.NoError(t, err)
	_, err = s.Exec(ctx, "COMMIT")
	require.NoError(t, err)
	assert.False(t, s.InTransaction())
	assert.ErrorIs(t, s.Commit(ctx), ErrNoneActive)

	_, err = s.Exec(ctx, "START TRANSACTION")
	require.NoError(t, err)
	assert.True(t, s.InTransaction())
	assert.ErrorIs(t, s.BeginTransaction(ctx), ErrAlreadyActive)
	_, err = s.Exec(ctx, "INSERT INTO t (id) VALUES (2)")
	require.NoError(t, err)
	require.NoError(t, s.Rollback(ctx))
	assert.False(t, s.InTransaction())
	assert.Equal(t, 0, tr.Depth())

	require.NoError(t, s.BeginTransaction(ctx))
	_, err = s.Exec(ctx, "ROLLBACK")
	require.NoError(t, err)
	assert.False(t, s.InTransaction())
	require.NoError(t, s.BeginTransaction(ctx))
	require.NoError(t, s.Commit(ctx))

	res, err := s.Query(ctx, "SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Rows[0][0])
}

func TestQueryLogLimit(t *testing.T) {
	l := &queryLog{limit: 2}
	l.add("a", nil)
	l.add("b", nil)
	l.add("c", []any{1})
	assert.Equal(t, []ExecutedQuery{{SQL: "b"}, {SQL: "c", Params: []any{1}}}, l.snapshot())

	l.reset()
	assert.Empty(t, l.snapshot())

	unlimited := &queryLog{}
	for i := 0; i < 100; i++ {
		unlimited.add("x", nil)
	}
	assert.Len(t, unlimited.snapshot(), 100)
}

func TestResultMaps(t *testing.T) {
	r := &Result{Columns: []string{"a", "b"}, Rows: [][]any{{int64(1), "x"}, {nil, "y"}}}
	assert.Equal(t, []map[string]any{{"a": int64(1), "b": "x"}, {"a": nil, "b": "y"}}, r.Maps())
	assert.Empty(t, (&Result{}).Maps())
}
