package query

import (
	"github.com/maxpert/mylite/protocol/query/transform"
)

// QueryContext holds all state for processing one query string through the
// pipeline.
type QueryContext struct {
	SQL    string
	Params []any
	Env    *transform.Env

	// Results has one entry per statement of SQL, in order.
	Results []*transform.Result
	// WasCached is set when Results came from the transpilation cache.
	WasCached bool
}

// NewContext creates a QueryContext for sql lowered in env.
func NewContext(sql string, params []any, env *transform.Env) *QueryContext {
	if env == nil {
		env = &transform.Env{}
	}
	return &QueryContext{SQL: sql, Params: params, Env: env}
}

// Statements returns the SQLite statements of every result.
func (c *QueryContext) Statements() []transform.TranspiledStatement {
	var out []transform.TranspiledStatement
	for _, r := range c.Results {
		out = append(out, r.Statements...)
	}
	return out
}

// IsReadOnly reports whether every statement only reads.
func (c *QueryContext) IsReadOnly() bool {
	for _, r := range c.Results {
		if r.Control != nil || len(r.Changes) > 0 {
			return false
		}
		for _, st := range r.Statements {
			if st.Kind == transform.KindExec {
				return false
			}
		}
	}
	return true
}
