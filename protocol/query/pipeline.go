package query

import (
	"context"

	"github.com/maxpert/mylite/protocol/query/transform"
)

// Pipeline transpiles query strings and, when a validator is configured,
// checks the output before it reaches the database.
type Pipeline struct {
	transpiler *Transpiler
	validator  *Validator
}

// NewPipeline creates a pipeline with a transpilation cache of cacheSize
// entries. A validatorPoolSize of zero disables validation.
func NewPipeline(cacheSize int, driverName string, validatorPoolSize int) (*Pipeline, error) {
	t, err := NewTranspiler(cacheSize)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{transpiler: t}
	if validatorPoolSize > 0 {
		v, err := NewValidator(driverName, validatorPoolSize)
		if err != nil {
			return nil, err
		}
		p.validator = v
	}
	return p, nil
}

func (p *Pipeline) Close() {
	if p.validator != nil {
		p.validator.Close()
	}
}

// Process transpiles qc and calls run with each statement's result, in
// order, after it passes validation.
func (p *Pipeline) Process(ctx context.Context, qc *QueryContext, run func(*transform.Result) error) error {
	return p.transpiler.Transpile(ctx, qc, func(res *transform.Result) error {
		if p.validator != nil && !qc.WasCached {
			if err := p.validator.Validate(ctx, res.Statements); err != nil {
				return err
			}
		}
		if run == nil {
			return nil
		}
		return run(res)
	})
}

// CachedTranslations returns the number of cached transpilations.
func (p *Pipeline) CachedTranslations() int {
	return p.transpiler.Len()
}
