package transform

import (
	"context"
	"strings"

	"github.com/maxpert/mylite/protocol/ast"
)

// DisambiguateRule qualifies bare column names in ORDER BY, GROUP BY and
// HAVING of joined queries. A name is rewritten only when exactly one
// unaliased qualified column of the select list carries it:
//
//   - ORDER BY and GROUP BY: the term must be the bare column itself;
//   - HAVING: column operands are rewritten, arguments of function calls
//     are not (HAVING name = 1 changes, HAVING COUNT(name) does not);
//   - the ORDER BY of a set operation applies to the combined rows and is
//     left alone, while each branch is handled on its own.
type DisambiguateRule struct{}

func (r *DisambiguateRule) Name() string  { return "Disambiguate" }
func (r *DisambiguateRule) Priority() int { return 30 }

func (r *DisambiguateRule) Apply(_ context.Context, p *ast.Parsed, _ *Env) (bool, error) {
	applied := false
	ast.Inspect(p.Statement, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Select:
			if q := singleSpec(v.Body); q != nil && joined(q) {
				for _, o := range v.OrderBy {
					if qualifyTerm(&o.Expr, q) {
						applied = true
					}
				}
			}
		case *ast.QuerySpec:
			if !joined(v) {
				return true
			}
			for i := range v.GroupBy {
				if qualifyTerm(&v.GroupBy[i], v) {
					applied = true
				}
			}
			if v.Having != nil && qualifyOperands(&v.Having, v) {
				applied = true
			}
		}
		return true
	})
	return applied, nil
}

// singleSpec returns the query specification of a body that is not a set
// operation.
func singleSpec(q ast.QueryExpr) *ast.QuerySpec {
	switch v := q.(type) {
	case *ast.QuerySpec:
		return v
	case *ast.ParenQuery:
		if v.Query.With == nil && len(v.Query.OrderBy) == 0 && v.Query.Limit == nil {
			return singleSpec(v.Query.Body)
		}
	}
	return nil
}

func joined(q *ast.QuerySpec) bool {
	if len(q.From) > 1 {
		return true
	}
	for _, t := range q.From {
		switch v := t.(type) {
		case *ast.Join:
			return true
		case *ast.ParenTable:
			if len(v.Tables) > 1 {
				return true
			}
			if len(v.Tables) == 1 {
				if _, ok := v.Tables[0].(*ast.Join); ok {
					return true
				}
			}
		}
	}
	return false
}

// qualifiedItem finds the single unaliased, qualified select item named
// name. An alias equal to name makes the reference unresolvable here.
func qualifiedItem(q *ast.QuerySpec, name string) *ast.ColumnRef {
	var found *ast.ColumnRef
	for _, it := range q.Items {
		if strings.EqualFold(it.Alias, name) {
			return nil
		}
		col, ok := it.Expr.(*ast.ColumnRef)
		if !ok || it.Alias != "" || col.Table == "" || !strings.EqualFold(col.Name, name) {
			continue
		}
		if found != nil {
			return nil
		}
		found = col
	}
	return found
}

func qualifyTerm(e *ast.Expr, q *ast.QuerySpec) bool {
	col, ok := (*e).(*ast.ColumnRef)
	if !ok || col.Table != "" {
		return false
	}
	item := qualifiedItem(q, col.Name)
	if item == nil {
		return false
	}
	*e = &ast.ColumnRef{NodeInfo: col.NodeInfo, Schema: item.Schema, Table: item.Table, Name: item.Name}
	return true
}

// qualifyOperands rewrites the bare columns of a HAVING condition, stopping
// at function calls and subqueries.
func qualifyOperands(e *ast.Expr, q *ast.QuerySpec) bool {
	switch v := (*e).(type) {
	case *ast.ColumnRef:
		return qualifyTerm(e, q)
	case *ast.Binary:
		l := qualifyOperands(&v.Left, q)
		r := qualifyOperands(&v.Right, q)
		return l || r
	case *ast.Unary:
		return qualifyOperands(&v.X, q)
	case *ast.Paren:
		return qualifyOperands(&v.X, q)
	case *ast.Is:
		return qualifyOperands(&v.X, q)
	case *ast.Like:
		return qualifyOperands(&v.X, q)
	case *ast.Between:
		a := qualifyOperands(&v.X, q)
		b := qualifyOperands(&v.Low, q)
		c := qualifyOperands(&v.High, q)
		return a || b || c
	case *ast.In:
		changed := qualifyOperands(&v.X, q)
		for i := range v.List {
			if qualifyOperands(&v.List[i], q) {
				changed = true
			}
		}
		return changed
	}
	return false
}
