package transform

import (
	"context"
	"sort"

	"github.com/maxpert/mylite/protocol/ast"
)

// SelectModifiersRule drops MySQL select options and locking clauses that
// SQLite has no use for: HIGH_PRIORITY, SQL_NO_CACHE, SQL_BUFFER_RESULT,
// FOR UPDATE, LOCK IN SHARE MODE. SQL_CALC_FOUND_ROWS is kept for lowering.
type SelectModifiersRule struct{}

func (r *SelectModifiersRule) Name() string  { return "SelectModifiers" }
func (r *SelectModifiersRule) Priority() int { return 10 }

func (r *SelectModifiersRule) Apply(_ context.Context, p *ast.Parsed, _ *Env) (bool, error) {
	applied := false
	ast.Inspect(p.Statement, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Select:
			if v.Lock != "" {
				v.Lock = ""
				applied = true
			}
		case *ast.QuerySpec:
			if len(v.Modifiers) > 0 {
				v.Modifiers = nil
				applied = true
			}
		}
		return true
	})
	if ins, ok := p.Statement.(*ast.Insert); ok && ins.Priority != "" {
		ins.Priority = ""
		applied = true
	}
	return applied, nil
}

// IndexHintsRule strips USE/FORCE/IGNORE INDEX hints from every table
// reference.
type IndexHintsRule struct{}

func (r *IndexHintsRule) Name() string  { return "IndexHints" }
func (r *IndexHintsRule) Priority() int { return 15 }

func (r *IndexHintsRule) Apply(_ context.Context, p *ast.Parsed, _ *Env) (bool, error) {
	applied := false
	ast.Inspect(p.Statement, func(n ast.Node) bool {
		if t, ok := n.(*ast.TableName); ok && len(t.Hints) > 0 {
			t.Hints = nil
			applied = true
		}
		return true
	})
	return applied, nil
}

// RuleSet orders rules by priority.
type RuleSet []Rule

func (rs RuleSet) Len() int           { return len(rs) }
func (rs RuleSet) Less(i, j int) bool { return rs[i].Priority() < rs[j].Priority() }
func (rs RuleSet) Swap(i, j int)      { rs[i], rs[j] = rs[j], rs[i] }

// DefaultRules returns the normalization passes run before lowering.
func DefaultRules() RuleSet {
	rs := RuleSet{
		&DisambiguateRule{},
		&InformationSchemaRule{},
		&IndexHintsRule{},
		&SelectModifiersRule{},
	}
	sort.Stable(rs)
	return rs
}

// Normalize runs every rule over p and returns the names of those that
// changed it.
func (rs RuleSet) Normalize(ctx context.Context, p *ast.Parsed, env *Env) ([]string, error) {
	var applied []string
	for _, r := range rs {
		ok, err := r.Apply(ctx, p, env)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, r.Name())
		}
	}
	return applied, nil
}
