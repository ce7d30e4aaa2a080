package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/cfg"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/lexer"
	"github.com/maxpert/mylite/protocol/parser"
	"github.com/maxpert/mylite/protocol/query"
	"github.com/maxpert/mylite/protocol/query/transform"
	"github.com/maxpert/mylite/telemetry"
)

// Translator runs MySQL statements against a SQLite database.
//
// All access goes through one connection and is serialized; the translator
// is safe for concurrent use but runs one call at a time.
type Translator struct {
	mu sync.Mutex

	db       *sql.DB
	conn     *sql.Conn
	exec     *loggedExecutor
	log      *queryLog
	pipeline *query.Pipeline

	builder       *catalog.Builder
	reader        *catalog.Reader
	reconstructor *catalog.Reconstructor

	env         *transform.Env
	session     *sessionState
	version     string
	foreignKeys bool
	depth       int
}

// Open opens the SQLite database of conf and prepares its catalog. A nil
// conf uses cfg.Config.
func Open(ctx context.Context, conf *cfg.Configuration) (*Translator, error) {
	if conf == nil {
		conf = cfg.Config
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	dsn := conf.SQLite.Path
	if strings.Contains(dsn, "?") {
		dsn += fmt.Sprintf("&_busy_timeout=%d", conf.SQLite.BusyTimeoutMS)
	} else {
		dsn += fmt.Sprintf("?_busy_timeout=%d", conf.SQLite.BusyTimeoutMS)
	}
	sqlDB, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: catalog rows and user tables share its transaction
	sqlDB.SetMaxOpenConns(1)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	t := &Translator{
		db:          sqlDB,
		conn:        conn,
		log:         &queryLog{limit: conf.Translator.LastQueriesLimit},
		session:     newSessionState(),
		foreignKeys: conf.SQLite.ForeignKeys,
	}
	t.exec = &loggedExecutor{conn: conn, log: t.log}

	if err := t.setup(ctx, conf); err != nil {
		t.close()
		return nil, err
	}
	return t, nil
}

func (t *Translator) setup(ctx context.Context, conf *cfg.Configuration) error {
	isMemoryDB := strings.Contains(conf.SQLite.Path, ":memory:")
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", conf.SQLite.BusyTimeoutMS),
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA temp_store=MEMORY",
	}
	if !isMemoryDB && conf.SQLite.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode="+strings.ToUpper(conf.SQLite.JournalMode))
	}
	if conf.SQLite.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys=ON")
	} else {
		pragmas = append(pragmas, "PRAGMA foreign_keys=OFF")
	}
	for _, p := range pragmas {
		if _, err := t.conn.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to run %s: %w", p, err)
		}
	}

	if err := t.conn.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&t.version); err != nil {
		return fmt.Errorf("failed to read sqlite version: %w", err)
	}
	features := transform.Features{
		StrictTables:      conf.SQLite.StrictTables.Resolve(versionAtLeast(t.version, 3, 37, 0)),
		ValuesColumnNames: conf.SQLite.ValuesColumnNames.Resolve(versionAtLeast(t.version, 3, 33, 0)),
	}

	database := conf.Translator.Database
	t.builder = catalog.NewBuilder(database, catalog.NewTypeCache())
	t.reader = catalog.NewReader(database)
	reconstructor, err := catalog.NewReconstructor(t.builder, catalog.ReconstructorConfig{
		IgnoreTables:        conf.InformationSchema.IgnoreTables,
		DefaultSchemaPrefix: conf.InformationSchema.DefaultSchemaPrefix,
		Multisite:           conf.InformationSchema.Multisite,
	})
	if err != nil {
		return err
	}
	t.reconstructor = reconstructor
	t.env = &transform.Env{
		Database: database,
		Schema:   t.table,
		Session:  t.session,
		Features: features,
	}

	if err := catalog.EnsureSchema(ctx, t.conn); err != nil {
		return err
	}
	if conf.InformationSchema.ReconstructOnOpen {
		if err := t.reconstruct(ctx); err != nil {
			return err
		}
	}

	pipeline, err := query.NewPipeline(conf.Translator.CacheSize, SQLiteDriverName, conf.Translator.ValidatorPoolSize)
	if err != nil {
		return err
	}
	t.pipeline = pipeline

	log.Debug().
		Str("path", conf.SQLite.Path).
		Str("sqlite_version", t.version).
		Bool("strict_tables", features.StrictTables).
		Bool("values_column_names", features.ValuesColumnNames).
		Msg("Translator opened")
	return nil
}

// Close releases the connection. An open transaction is rolled back by
// SQLite.
func (t *Translator) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.close()
}

func (t *Translator) close() error {
	if t.pipeline != nil {
		t.pipeline.Close()
	}
	err := t.conn.Close()
	return errors.Join(err, t.db.Close())
}

// SQLiteVersion returns the version of the SQLite library in use.
func (t *Translator) SQLiteVersion() string {
	return t.version
}

// Features returns the SQLite capabilities statements are lowered for.
func (t *Translator) Features() transform.Features {
	return t.env.Features
}

// table is the schema provider statements are lowered with.
func (t *Translator) table(ctx context.Context, name string) (*catalog.Table, error) {
	_, ok, err := t.reader.Exists(ctx, t.conn, name)
	if err != nil || !ok {
		return nil, err
	}
	return t.reader.Load(ctx, t.conn, name)
}

// Reconstruct brings the information schema catalog in line with the
// native tables.
func (t *Translator) Reconstruct(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.reset()
	return t.reconstruct(ctx)
}

func (t *Translator) reconstruct(ctx context.Context) error {
	return t.atomically(ctx, func() error {
		return t.reconstructor.EnsureCorrectInformationSchema(ctx, t.exec)
	})
}

// atomically runs fn in its own nesting level, rolling it back on failure.
func (t *Translator) atomically(ctx context.Context, fn func() error) error {
	if err := t.begin(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return errors.Join(err, t.rollback(ctx))
	}
	return t.commit(ctx)
}

// LastQueries returns the SQLite statements executed by the most recent
// call, in execution order.
func (t *Translator) LastQueries() []ExecutedQuery {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.snapshot()
}

// CachedTranslations returns the number of cached transpilations.
func (t *Translator) CachedTranslations() int {
	return t.pipeline.CachedTranslations()
}

// CatalogTables returns the number of tables in the information schema
// catalog.
func (t *Translator) CatalogTables(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tables, err := t.reader.Tables(ctx, t.conn)
	return len(tables), err
}

var _ telemetry.StatsProvider = (*Translator)(nil)

// Query translates and runs a MySQL query string. Parameters are positional
// for ? placeholders and sql.NamedArg for :name ones. When the string holds
// several statements the result is that of the last one.
func (t *Translator) Query(ctx context.Context, sqlText string, params ...any) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.reset()

	start := time.Now()
	qc := query.NewContext(sqlText, params, t.env)
	out := &Result{}
	err := t.pipeline.Process(ctx, qc, func(res *transform.Result) error {
		stmtStart := time.Now()
		r, err := t.run(ctx, res, params)
		if err != nil {
			return err
		}
		telemetry.QueryDurationSeconds.With(res.Type).Observe(time.Since(stmtStart).Seconds())
		if r.Columns != nil {
			telemetry.RowsReturned.Observe(float64(len(r.Rows)))
		} else {
			telemetry.RowsAffected.Observe(float64(r.RowsAffected))
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, t.fail(sqlText, err)
	}

	log.Debug().
		Str("sql", sqlText).
		Int("statements", len(qc.Statements())).
		Bool("cached", qc.WasCached).
		Dur("duration", time.Since(start)).
		Msg("Query executed")
	return out, nil
}

// run executes the lowering of one MySQL statement.
func (t *Translator) run(ctx context.Context, res *transform.Result, args []any) (out *Result, err error) {
	if res.Control != nil {
		return &Result{}, t.control(ctx, res.Control, args)
	}

	if res.ForeignKeysOff && t.depth == 0 && t.foreignKeys {
		// the pragma has no effect inside a transaction
		if err := t.setForeignKeys(ctx, false); err != nil {
			return nil, err
		}
		defer func() {
			err = errors.Join(err, t.setForeignKeys(ctx, true))
			if err != nil {
				out = nil
			}
		}()
	}

	if len(res.Statements) <= 1 && len(res.Changes) == 0 {
		return t.execute(ctx, res, args)
	}
	err = t.atomically(ctx, func() error {
		var err error
		if out, err = t.execute(ctx, res, args); err != nil {
			return err
		}
		for _, ch := range res.Changes {
			if err := t.builder.Apply(ctx, t.exec, ch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Translator) execute(ctx context.Context, res *transform.Result, args []any) (*Result, error) {
	out := &Result{}
	queried, counted := false, false
	for i := range res.Statements {
		st := &res.Statements[i]
		bound, err := st.Bind(args)
		if err != nil {
			return nil, err
		}
		telemetry.SQLiteStatementsTotal.With(st.Kind.String()).Inc()

		switch st.Kind {
		case transform.KindExec:
			r, err := t.exec.ExecContext(ctx, st.SQL, bound...)
			if err != nil {
				return nil, err
			}
			if !st.Counted {
				continue
			}
			n, err := r.RowsAffected()
			if err != nil {
				return nil, err
			}
			out.RowsAffected += n
			if res.Type == "INSERT" || res.Type == "REPLACE" {
				if out.LastInsertID, err = r.LastInsertId(); err != nil {
					return nil, err
				}
			}
		case transform.KindQuery:
			rs, err := t.exec.QueryContext(ctx, st.SQL, bound...)
			if err != nil {
				return nil, err
			}
			if out.Columns, out.Rows, err = scanAll(rs); err != nil {
				return nil, err
			}
			queried = true
		case transform.KindFoundRows:
			var n int64
			rs, err := t.exec.QueryContext(ctx, st.SQL, bound...)
			if err != nil {
				return nil, err
			}
			_, rows, err := scanAll(rs)
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				n, _ = rows[0][0].(int64)
			}
			t.session.foundRows = n
			counted = true
		case transform.KindEmptyCheck:
			rs, err := t.exec.QueryContext(ctx, st.SQL, bound...)
			if err != nil {
				return nil, err
			}
			_, rows, err := scanAll(rs)
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				return nil, protocol.NewMySQLError(protocol.ErrCodeNoReferencedRow, protocol.SQLStateIntegrity,
					"Cannot add or update a child row: a foreign key constraint fails")
			}
		}
	}
	if queried && !counted {
		t.session.foundRows = int64(len(out.Rows))
	}
	return out, nil
}

func (t *Translator) setForeignKeys(ctx context.Context, on bool) error {
	value := "OFF"
	if on {
		value = "ON"
	}
	_, err := t.exec.ExecContext(ctx, "PRAGMA foreign_keys = "+value)
	return err
}

// control performs a statement that has no SQLite statement of its own.
func (t *Translator) control(ctx context.Context, c *transform.Control, args []any) error {
	switch c.Kind {
	case transform.ControlBegin:
		return t.begin(ctx)
	case transform.ControlCommit:
		// COMMIT and ROLLBACK outside a transaction are accepted by MySQL
		if t.depth == 0 {
			return nil
		}
		return t.commit(ctx)
	case transform.ControlRollback:
		if t.depth == 0 {
			return nil
		}
		return t.rollback(ctx)
	case transform.ControlSavepoint:
		if t.depth == 0 {
			return nil
		}
		_, err := t.exec.ExecContext(ctx, "SAVEPOINT "+catalog.QuoteIdent(c.Name))
		return err
	case transform.ControlRelease, transform.ControlRollbackTo:
		if t.depth == 0 {
			return protocol.Errorf(protocol.ErrCodeSavepointNotExist, protocol.SQLStateGeneral, "SAVEPOINT %s does not exist", c.Name)
		}
		query := "RELEASE SAVEPOINT "
		if c.Kind == transform.ControlRollbackTo {
			query = "ROLLBACK TO SAVEPOINT "
			t.builder.Cache().Reset()
		}
		_, err := t.exec.ExecContext(ctx, query+catalog.QuoteIdent(c.Name))
		return err
	case transform.ControlSet:
		for _, v := range c.Vars {
			if err := t.setVar(ctx, v, args); err != nil {
				return err
			}
		}
		return nil
	case transform.ControlUse:
		if !strings.EqualFold(c.Name, t.env.Database) {
			return protocol.Errorf(protocol.ErrCodeBadDB, protocol.SQLStateSyntax, "Unknown database '%s'", c.Name)
		}
		return nil
	}
	return fmt.Errorf("unknown control statement %d", c.Kind)
}

func (t *Translator) setVar(ctx context.Context, v transform.SessionVar, args []any) error {
	bound, err := v.Value.Bind(args)
	if err != nil {
		return err
	}
	rs, err := t.exec.QueryContext(ctx, v.Value.SQL, bound...)
	if err != nil {
		return err
	}
	_, rows, err := scanAll(rs)
	if err != nil {
		return err
	}
	var value any
	if len(rows) > 0 && len(rows[0]) > 0 {
		value = rows[0][0]
	}
	t.session.set(v, value)

	if !v.User && strings.EqualFold(v.Name, "foreign_key_checks") {
		on := truthy(value)
		t.foreignKeys = on
		return t.setForeignKeys(ctx, on)
	}
	return nil
}

// fail classifies a failed query for metrics and converts engine errors
// to MySQL errors.
func (t *Translator) fail(sqlText string, err error) error {
	class, converted := classify(err)
	telemetry.TranslationErrorsTotal.With(class).Inc()
	log.Debug().Err(err).Str("sql", sqlText).Str("class", class).Msg("Query failed")
	return converted
}

func classify(err error) (string, error) {
	var (
		lexErr      *lexer.LexError
		syntaxErr   *parser.SyntaxError
		unsupported *transform.UnsupportedConstructError
		stateErr    *TransactionStateError
		mysqlErr    *protocol.MySQLError
	)
	switch {
	case errors.As(err, &lexErr):
		return "lex", err
	case errors.As(err, &syntaxErr):
		return "syntax", err
	case errors.As(err, &unsupported):
		return "unsupported", err
	case errors.As(err, &stateErr):
		return "transaction", err
	case errors.As(err, &mysqlErr):
		return "mysql", mysqlErr
	}
	return "engine", protocol.ConvertToMySQLError(err)
}
