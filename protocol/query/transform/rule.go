// Package transform lowers MySQL statements to SQLite.
//
// Lowering happens in two steps. Rules normalize the AST in place for
// semantic changes that need schema knowledge or cross-clause context:
//   - dropping select modifiers and index hints
//   - mapping information_schema tables onto the catalog tables
//   - qualifying ambiguous column names in joins
//
// Lower then walks the normalized statement with an exhaustive type switch
// and renders one or more SQLite statements through the SQLiteSerializer.
// Syntactic differences (functions, literals, operators, types) live in the
// serializer, not in rules.
package transform

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol/ast"
)

// Kind tells the executor how to run a statement.
type Kind int

const (
	// KindExec runs the statement for its effect and row count.
	KindExec Kind = iota
	// KindQuery returns rows to the caller.
	KindQuery
	// KindFoundRows is a COUNT(*) query whose single value becomes FOUND_ROWS().
	KindFoundRows
	// KindEmptyCheck must return no rows; any row fails the batch.
	KindEmptyCheck
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindFoundRows:
		return "found_rows"
	case KindEmptyCheck:
		return "empty_check"
	}
	return "exec"
}

// ParamRef is a placeholder in emitted SQL that takes a caller parameter.
// Index is the positional parameter it reads, or -1 when Name is set.
type ParamRef struct {
	Index int
	Name  string
}

// TranspiledStatement represents a SQLite-ready statement with parameters.
// Params holds ParamRef values for caller placeholders and plain values the
// rewrite bound itself.
type TranspiledStatement struct {
	SQL    string
	Params []any
	Kind   Kind
	// Counted statements contribute to the reported affected-row count.
	Counted bool
}

// Bind resolves the statement's parameters against the caller's arguments.
// Positional references index the arguments that are not sql.NamedArg.
func (s *TranspiledStatement) Bind(args []any) ([]any, error) {
	if len(s.Params) == 0 {
		return nil, nil
	}
	var positional []any
	named := map[string]any{}
	for _, a := range args {
		if na, ok := a.(sql.NamedArg); ok {
			named[na.Name] = na.Value
			continue
		}
		positional = append(positional, a)
	}

	out := make([]any, len(s.Params))
	for i, p := range s.Params {
		ref, ok := p.(ParamRef)
		if !ok {
			out[i] = p
			continue
		}
		if ref.Name != "" {
			v, ok := named[ref.Name]
			if !ok {
				return nil, fmt.Errorf("missing named parameter :%s", ref.Name)
			}
			out[i] = v
			continue
		}
		if ref.Index < 0 || ref.Index >= len(positional) {
			return nil, fmt.Errorf("missing parameter %d of %d", ref.Index+1, len(positional))
		}
		out[i] = positional[ref.Index]
	}
	return out, nil
}

// ControlKind names a session or transaction action the executor performs
// itself.
type ControlKind int

const (
	ControlBegin ControlKind = iota
	ControlCommit
	ControlRollback
	ControlSavepoint
	ControlRelease
	ControlRollbackTo
	ControlSet
	ControlUse
)

// SessionVar is one SET assignment. Value is a single-row SELECT whose
// value is stored under Name.
type SessionVar struct {
	Name  string
	User  bool
	Scope string
	Value TranspiledStatement
}

// Control is an action that has no SQLite statement of its own.
type Control struct {
	Kind ControlKind
	Name string
	Vars []SessionVar
}

// Result is the lowering of one MySQL statement.
type Result struct {
	Statements []TranspiledStatement
	// Changes are recorded in the catalog after the statements succeed.
	Changes []catalog.Change
	Control *Control
	// ForeignKeysOff asks the executor to disable foreign key enforcement
	// around the batch when no transaction is open.
	ForeignKeysOff bool
	// Cacheable is false when the output depends on the schema or session.
	Cacheable bool
	// Applied lists the rules that changed the statement.
	Applied []string
	// Type classifies the source statement for metrics.
	Type string
}

// Features are target capabilities resolved from the SQLite version and
// configuration.
type Features struct {
	StrictTables      bool
	ValuesColumnNames bool
}

// SchemaProvider returns the definition of a table, or nil and no error when
// the table does not exist.
type SchemaProvider func(ctx context.Context, table string) (*catalog.Table, error)

// Session exposes the per-connection state lowering reads.
type Session interface {
	SystemVar(name string) (any, bool)
	UserVar(name string) (any, bool)
	FoundRows() int64
}

// Env is the context statements are lowered in.
type Env struct {
	Database string
	Schema   SchemaProvider
	Session  Session
	Features Features
}

func (e *Env) table(ctx context.Context, name string) (*catalog.Table, error) {
	if e == nil || e.Schema == nil {
		return nil, nil
	}
	return e.Schema(ctx, name)
}

// Rule is an AST normalization pass.
type Rule interface {
	Name() string
	Priority() int
	// Apply rewrites stmt in place and reports whether anything changed.
	Apply(ctx context.Context, p *ast.Parsed, env *Env) (bool, error)
}
