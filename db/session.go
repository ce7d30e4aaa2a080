package db

import (
	"context"
	"sync"

	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/parser"
)

// Session is a single-transaction driver surface over a Translator for
// callers written against a PDO-style API. Unlike the translator it does
// not nest: BeginTransaction with a transaction open is an error.
type Session struct {
	t *Translator

	mu           sync.Mutex
	active       bool
	lastInsertID int64
}

func NewSession(t *Translator) *Session {
	return &Session{t: t}
}

// BeginTransaction fails with ErrAlreadyActive when a transaction is open.
func (s *Session) BeginTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrAlreadyActive
	}
	if err := s.t.Begin(ctx); err != nil {
		return err
	}
	s.active = true
	return nil
}

// Commit fails with ErrNoneActive when no transaction is open.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoneActive
	}
	err := s.t.Commit(ctx)
	s.active = s.t.Depth() > 0
	return err
}

// Rollback fails with ErrNoneActive when no transaction is open.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoneActive
	}
	err := s.t.Rollback(ctx)
	s.active = s.t.Depth() > 0
	return err
}

func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Exec runs a statement and returns the number of affected rows.
func (s *Session) Exec(ctx context.Context, sql string, params ...any) (int64, error) {
	res, err := s.Query(ctx, sql, params...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Query runs sql. BEGIN, COMMIT and ROLLBACK written as SQL move the
// session's transaction state along with the translator's.
func (s *Session) Query(ctx context.Context, sql string, params ...any) (*Result, error) {
	res, err := s.t.Query(ctx, sql, params...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = s.t.Depth() > 0
	if err != nil {
		return nil, err
	}
	if res.LastInsertID != 0 {
		s.lastInsertID = res.LastInsertID
	}
	return res, nil
}

// LastInsertID returns the id generated by the most recent INSERT.
func (s *Session) LastInsertID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInsertID
}

// Prepare checks that sql parses and returns a statement that can be run
// repeatedly with different parameters.
func (s *Session) Prepare(sql string) (*Stmt, error) {
	if _, err := parser.New(grammar.Default()).ParseAll(sql); err != nil {
		return nil, err
	}
	return &Stmt{session: s, sql: sql}, nil
}

// Stmt is a prepared statement of a Session.
type Stmt struct {
	session *Session
	sql     string
	result  *Result
}

// Execute runs the statement with params.
func (st *Stmt) Execute(ctx context.Context, params ...any) (*Result, error) {
	res, err := st.session.Query(ctx, st.sql, params...)
	if err != nil {
		return nil, err
	}
	st.result = res
	return res, nil
}

// RowCount returns the rows affected by the last execution.
func (st *Stmt) RowCount() int64 {
	if st.result == nil {
		return 0
	}
	return st.result.RowsAffected
}

// FetchAll returns the rows of the last execution keyed by column name.
func (st *Stmt) FetchAll() []map[string]any {
	if st.result == nil {
		return nil
	}
	return st.result.Maps()
}
