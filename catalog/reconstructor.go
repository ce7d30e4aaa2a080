package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"

	"github.com/maxpert/mylite/protocol/ast"
	"github.com/maxpert/mylite/protocol/grammar"
	"github.com/maxpert/mylite/protocol/parser"
	"github.com/maxpert/mylite/telemetry"
)

//go:embed defaults/wordpress.sql
var wordpressSchema string

// defaultSchemaPrefix is the table prefix used in the embedded schema.
const defaultSchemaPrefix = "wp_"

// ReconstructorConfig controls which tables are reconstructed and how
// known tables are recognized.
type ReconstructorConfig struct {
	// IgnoreTables are glob patterns of native tables left out of the
	// catalog.
	IgnoreTables []string
	// DefaultSchemaPrefix is the table prefix of the embedded default
	// definitions, "wp_" when empty.
	DefaultSchemaPrefix string
	// Multisite also matches per-site tables such as wp_2_posts.
	Multisite bool
}

// Reconstructor brings the catalog in line with the native schema.
type Reconstructor struct {
	builder  *Builder
	reader   *Reader
	ignore   []glob.Glob
	prefix   string
	multi    bool
	defaults map[string]*defaultTable
}

type defaultTable struct {
	stmt *ast.CreateTable
	src  string
}

// NewReconstructor creates a reconstructor writing through b.
func NewReconstructor(b *Builder, conf ReconstructorConfig) (*Reconstructor, error) {
	r := &Reconstructor{
		builder: b,
		reader:  NewReader(b.schema),
		prefix:  conf.DefaultSchemaPrefix,
		multi:   conf.Multisite,
	}
	if r.prefix == "" {
		r.prefix = defaultSchemaPrefix
	}
	for _, p := range conf.IgnoreTables {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		r.ignore = append(r.ignore, g)
	}
	defaults, err := loadDefaults(wordpressSchema)
	if err != nil {
		return nil, err
	}
	r.defaults = defaults
	return r, nil
}

func loadDefaults(src string) (map[string]*defaultTable, error) {
	stmts, err := parser.New(grammar.Default()).ParseAll(src)
	if err != nil {
		return nil, fmt.Errorf("parse default schema: %w", err)
	}
	out := map[string]*defaultTable{}
	for _, stmt := range stmts {
		ct, ok := stmt.(*ast.CreateTable)
		if !ok {
			continue
		}
		name := strings.TrimPrefix(ct.Table.Name, defaultSchemaPrefix)
		out[strings.ToLower(name)] = &defaultTable{stmt: ct, src: src}
	}
	return out, nil
}

func (r *Reconstructor) ignored(name string) bool {
	if IsReserved(name) {
		return true
	}
	for _, g := range r.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// EnsureCorrectInformationSchema creates missing catalog tables, drops the
// rows of tables that no longer exist and regenerates the rows of tables
// that are missing or whose columns differ from the native ones.
func (r *Reconstructor) EnsureCorrectInformationSchema(ctx context.Context, exec Executor) error {
	if err := EnsureSchema(ctx, exec); err != nil {
		return err
	}
	rows, err := exec.QueryContext(ctx, "SELECT name FROM sqlite_schema WHERE type = 'table' ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("list native tables: %w", err)
	}
	all, err := scanStrings(rows)
	if err != nil {
		return err
	}
	native := map[string]bool{}
	var tables []string
	for _, name := range all {
		if r.ignored(name) {
			continue
		}
		native[strings.ToLower(name)] = true
		tables = append(tables, name)
	}

	recorded, err := r.reader.Tables(ctx, exec)
	if err != nil {
		return err
	}
	have := map[string]bool{}
	for _, name := range recorded {
		if native[strings.ToLower(name)] {
			have[strings.ToLower(name)] = true
			continue
		}
		log.Info().Str("table", name).Msg("Removing catalog rows of dropped table")
		if err := r.builder.DropTable(ctx, exec, name); err != nil {
			return err
		}
	}

	for _, name := range tables {
		if have[strings.ToLower(name)] {
			ok, err := r.consistent(ctx, exec, name)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			log.Info().Str("table", name).Msg("Catalog columns differ from native table, regenerating")
		} else {
			log.Info().Str("table", name).Msg("Reconstructing catalog rows")
		}
		if err := r.reconstruct(ctx, exec, name); err != nil {
			return err
		}
	}
	return nil
}

// consistent compares the catalog column names of a table with the native
// ones.
func (r *Reconstructor) consistent(ctx context.Context, exec Executor, name string) (bool, error) {
	nativeCols, err := nativeColumnNames(ctx, exec, name)
	if err != nil {
		return false, err
	}
	query, args, err := r.builder.dialect.From(ColumnsTable).Select("column_name").
		Where(r.builder.tableWhere(name)).Order(goqu.C("ordinal_position").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("read catalog: %w", err)
	}
	catalogCols, err := scanStrings(rows)
	if err != nil {
		return false, err
	}
	return sameNames(nativeCols, catalogCols), nil
}

func nativeColumnNames(ctx context.Context, exec Executor, name string) ([]string, error) {
	rows, err := exec.QueryContext(ctx, "SELECT name FROM pragma_table_xinfo(?) WHERE hidden != 1 ORDER BY cid", name)
	if err != nil {
		return nil, fmt.Errorf("read native columns: %w", err)
	}
	return scanStrings(rows)
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (r *Reconstructor) reconstruct(ctx context.Context, exec Executor, name string) error {
	t, err := r.defaultDefinition(ctx, exec, name)
	if err != nil {
		return err
	}
	if t == nil {
		if t, err = r.builder.introspect(ctx, exec, name); err != nil {
			return err
		}
	}
	if err := r.builder.DropTable(ctx, exec, name); err != nil {
		return err
	}
	if err := r.builder.CreateTable(ctx, exec, t); err != nil {
		return err
	}
	telemetry.ReconstructedTablesTotal.Inc()
	return nil
}

// defaultKey strips the configured prefix and, for multisite, the site
// number from a table name. It returns "" for other tables.
func (r *Reconstructor) defaultKey(name string) string {
	lower := strings.ToLower(name)
	prefix := strings.ToLower(r.prefix)
	if !strings.HasPrefix(lower, prefix) {
		return ""
	}
	rest := lower[len(prefix):]
	if r.multi {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i > 0 && i < len(rest) && rest[i] == '_' {
			rest = rest[i+1:]
		}
	}
	return rest
}

// defaultDefinition returns the embedded definition of a known table when
// its columns match the native table, or nil.
func (r *Reconstructor) defaultDefinition(ctx context.Context, exec Executor, name string) (*Table, error) {
	def, ok := r.defaults[r.defaultKey(name)]
	if !ok {
		return nil, nil
	}
	t, err := FromCreateTable(def.stmt, def.src)
	if err != nil {
		return nil, &ReconstructError{Table: name, Err: err}
	}
	t.Name = name
	nativeCols, err := nativeColumnNames(ctx, exec, name)
	if err != nil {
		return nil, err
	}
	if !sameNames(nativeCols, t.ColumnNames()) {
		return nil, nil
	}
	if err := NewReader(r.builder.schema).loadSequence(ctx, exec, t); err != nil {
		return nil, err
	}
	return t, nil
}
