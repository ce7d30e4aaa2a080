package db

import (
	"strings"

	"github.com/maxpert/mylite/protocol/query/transform"
)

// sessionState holds the variables and counters of the connection.
type sessionState struct {
	system    map[string]any
	user      map[string]any
	foundRows int64
}

var _ transform.Session = (*sessionState)(nil)

func newSessionState() *sessionState {
	return &sessionState{
		system: map[string]any{},
		user:   map[string]any{},
	}
}

func (s *sessionState) SystemVar(name string) (any, bool) {
	v, ok := s.system[strings.ToLower(name)]
	return v, ok
}

func (s *sessionState) UserVar(name string) (any, bool) {
	v, ok := s.user[strings.ToLower(name)]
	return v, ok
}

func (s *sessionState) FoundRows() int64 {
	return s.foundRows
}

func (s *sessionState) set(v transform.SessionVar, value any) {
	if b, ok := value.([]byte); ok && !v.User {
		value = string(b)
	}
	if v.User {
		s.user[strings.ToLower(v.Name)] = value
		return
	}
	s.system[strings.ToLower(v.Name)] = value
}
