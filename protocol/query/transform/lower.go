package transform

import (
	"context"
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

type lowerer struct {
	ctx        context.Context
	p          *ast.Parsed
	env        *Env
	res        *Result
	schemaUsed bool
	dynamic    bool
}

// Lower translates one normalized statement into SQLite statements.
func Lower(ctx context.Context, p *ast.Parsed, env *Env) (*Result, error) {
	if env == nil {
		env = &Env{}
	}
	l := &lowerer{ctx: ctx, p: p, env: env, res: &Result{}}
	var err error
	switch st := p.Statement.(type) {
	case *ast.Select:
		l.res.Type = "SELECT"
		err = l.selectStmt(st)
	case *ast.Insert:
		l.res.Type = "INSERT"
		if st.Replace {
			l.res.Type = "REPLACE"
		}
		err = l.insert(st)
	case *ast.Update:
		l.res.Type = "UPDATE"
		err = l.update(st)
	case *ast.Delete:
		l.res.Type = "DELETE"
		err = l.delete(st)
	case *ast.CreateTable:
		l.res.Type = "CREATE_TABLE"
		err = l.createTable(st)
	case *ast.AlterTable:
		l.res.Type = "ALTER_TABLE"
		err = l.alterTable(st)
	case *ast.DropTable:
		l.res.Type = "DROP_TABLE"
		err = l.dropTable(st)
	case *ast.RenameTable:
		l.res.Type = "RENAME_TABLE"
		err = l.renameTable(st)
	case *ast.CreateIndex:
		l.res.Type = "CREATE_INDEX"
		err = l.createIndex(st)
	case *ast.DropIndexStmt:
		l.res.Type = "DROP_INDEX"
		err = l.dropIndex(st)
	case *ast.Truncate:
		l.res.Type = "TRUNCATE"
		err = l.truncate(st)
	case *ast.Show:
		l.res.Type = "SHOW"
		err = l.show(st)
	case *ast.Describe:
		l.res.Type = "DESCRIBE"
		err = l.describe(st)
	case *ast.TableMaintenance:
		l.res.Type = strings.ToUpper(st.Op)
		err = l.maintenance(st)
	case *ast.Transaction:
		l.res.Type = "TRANSACTION"
		l.transaction(st)
	case *ast.Set:
		l.res.Type = "SET"
		err = l.set(st)
	case *ast.Use:
		l.res.Type = "USE"
		l.res.Control = &Control{Kind: ControlUse, Name: st.Database}
	case *ast.LockTables:
		// one connection holds the database; table locks have nothing to do
		l.res.Type = "LOCK_TABLES"
	default:
		err = unsupported("statement %T", p.Statement)
	}
	if err != nil {
		return nil, err
	}
	l.res.Cacheable = !l.schemaUsed && !l.dynamic && l.res.Control == nil && len(l.res.Changes) == 0
	return l.res, nil
}

func (l *lowerer) serializer() *SQLiteSerializer {
	return newSerializer(l.ctx, l.p, l.env)
}

// emit appends the serializer's statement to the result.
func (l *lowerer) emit(s *SQLiteSerializer, kind Kind, counted bool) error {
	st, err := s.finish(kind)
	if err != nil {
		return err
	}
	l.dynamic = l.dynamic || s.dynamic
	st.Counted = counted
	l.res.Statements = append(l.res.Statements, st)
	return nil
}

func (l *lowerer) raw(kind Kind, sql string, params ...any) {
	l.res.Statements = append(l.res.Statements, TranspiledStatement{SQL: sql, Params: params, Kind: kind})
}

func (l *lowerer) database() string {
	return l.env.Database
}

// table returns the definition of name, or nil when it does not exist.
func (l *lowerer) table(tn *ast.TableName) (*catalog.Table, error) {
	if tn.Schema != "" && !strings.EqualFold(tn.Schema, l.database()) {
		return nil, protocol.Errorf(protocol.ErrCodeBadDB, protocol.SQLStateSyntax, "Unknown database '%s'", tn.Schema)
	}
	l.schemaUsed = true
	return l.env.table(l.ctx, tn.Name)
}

// existing is table but fails with ER_NO_SUCH_TABLE for a missing table.
func (l *lowerer) existing(tn *ast.TableName) (*catalog.Table, error) {
	t, err := l.table(tn)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, protocol.ErrNoSuchTable(l.database(), tn.Name)
	}
	return t, nil
}

func (l *lowerer) selectStmt(sel *ast.Select) error {
	s := l.serializer()
	s.Select(sel)
	if err := l.emit(s, KindQuery, false); err != nil {
		return err
	}
	if !calcFoundRows(sel.Body) {
		return nil
	}
	// FOUND_ROWS() counts the rows the query would return without LIMIT
	count := &ast.Select{With: sel.With, Body: sel.Body}
	s = l.serializer()
	s.w.kw("SELECT", "COUNT(*)", "FROM")
	s.w.open()
	s.Select(count)
	s.w.close()
	l.dynamic = true
	return l.emit(s, KindFoundRows, false)
}

func calcFoundRows(q ast.QueryExpr) bool {
	switch v := q.(type) {
	case *ast.QuerySpec:
		return v.CalcFoundRows
	case *ast.SetOperation:
		return calcFoundRows(v.Left)
	case *ast.ParenQuery:
		return calcFoundRows(v.Query.Body)
	}
	return false
}

// strict reports whether the session rejects implicit defaults.
func (l *lowerer) strict() bool {
	l.dynamic = true
	mode, _ := l.serializer().lookupSystemVar("sql_mode", false)
	str, _ := mode.(string)
	return StrictMode(str)
}
