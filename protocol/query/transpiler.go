package query

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/parser"
	"github.com/maxpert/mylite/protocol/query/transform"
	"github.com/maxpert/mylite/telemetry"
)

// Transpiler parses MySQL text, normalizes each statement with the rule set
// and lowers it to SQLite. Results that depend on neither the schema nor the
// session are cached by query text.
type Transpiler struct {
	parser *parser.Parser
	rules  transform.RuleSet
	cache  *lru.Cache[uint64, []*transform.Result]
}

func NewTranspiler(cacheSize int) (*Transpiler, error) {
	cache, err := lru.New[uint64, []*transform.Result](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Transpiler{
		parser: parser.New(grammar.Default()),
		rules:  transform.DefaultRules(),
		cache:  cache,
	}, nil
}

// Transpile lowers every statement of qc.SQL into qc.Results. A non-nil run
// is called with each result before the next statement is lowered, so that
// later statements see the tables earlier ones create.
func (t *Transpiler) Transpile(ctx context.Context, qc *QueryContext, run func(*transform.Result) error) error {
	key := cacheKey(qc.SQL, qc.Env)
	if cached, ok := t.cache.Get(key); ok {
		telemetry.TranslationCacheTotal.With("hit").Inc()
		qc.Results = cached
		qc.WasCached = true
		if run == nil {
			return nil
		}
		for _, res := range cached {
			if err := run(res); err != nil {
				return err
			}
		}
		return nil
	}
	telemetry.TranslationCacheTotal.With("miss").Inc()

	start := time.Now()
	stmts, err := t.parser.ParseAll(qc.SQL)
	if err != nil {
		return err
	}
	results := make([]*transform.Result, 0, len(stmts))
	cacheable := len(stmts) > 0
	for _, stmt := range stmts {
		p := &ast.Parsed{Source: qc.SQL, Statement: stmt}
		applied, err := t.rules.Normalize(ctx, p, qc.Env)
		if err != nil {
			return err
		}
		res, err := transform.Lower(ctx, p, qc.Env)
		if err != nil {
			return err
		}
		res.Applied = applied
		cacheable = cacheable && res.Cacheable
		results = append(results, res)
		qc.Results = results
		telemetry.StatementsTranslatedTotal.With(res.Type).Inc()
		telemetry.TranslationDurationSeconds.Observe(time.Since(start).Seconds())

		if run != nil {
			if err := run(res); err != nil {
				return err
			}
		}
		start = time.Now()
	}

	if cacheable {
		t.cache.Add(key, results)
	}
	return nil
}

// Len returns the number of cached transpilations.
func (t *Transpiler) Len() int {
	return t.cache.Len()
}

// cacheKey hashes the query with everything else a cacheable lowering
// depends on.
func cacheKey(sql string, env *transform.Env) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(sql)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(env.Database)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatBool(env.Features.StrictTables))
	_, _ = h.WriteString(strconv.FormatBool(env.Features.ValuesColumnNames))
	return h.Sum64()
}
