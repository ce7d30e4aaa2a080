package transform

import (
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

// maintenance answers CHECK, OPTIMIZE, REPAIR and ANALYZE TABLE with the
// Table/Op/Msg_type/Msg_text rows MySQL returns. ANALYZE also refreshes
// SQLite's statistics.
func (l *lowerer) maintenance(tm *ast.TableMaintenance) error {
	op := strings.ToLower(tm.Op)
	var rows [][4]any
	for _, tn := range tm.Tables {
		name := l.database() + "." + tn.Name
		t, err := l.table(tn)
		if err != nil {
			return err
		}
		if t == nil && l.env.Schema != nil {
			rows = append(rows,
				[4]any{name, op, "Error", "Table '" + name + "' doesn't exist"},
				[4]any{name, op, "status", "Operation failed"})
			continue
		}
		if op == "analyze" {
			l.raw(KindExec, "ANALYZE "+catalog.QuoteIdent(tn.Name))
		}
		rows = append(rows, [4]any{name, op, "status", "OK"})
	}

	var b strings.Builder
	var params []any
	for i, r := range rows {
		if i > 0 {
			b.WriteString(" UNION ALL ")
		}
		if i == 0 {
			b.WriteString("SELECT ? AS `Table`, ? AS `Op`, ? AS `Msg_type`, ? AS `Msg_text`")
		} else {
			b.WriteString("SELECT ?, ?, ?, ?")
		}
		params = append(params, r[:]...)
	}
	if len(rows) > 0 {
		l.raw(KindQuery, b.String(), params...)
	}
	return nil
}

var transactionControls = map[ast.TxKind]ControlKind{
	ast.TxBegin:      ControlBegin,
	ast.TxCommit:     ControlCommit,
	ast.TxRollback:   ControlRollback,
	ast.TxSavepoint:  ControlSavepoint,
	ast.TxRelease:    ControlRelease,
	ast.TxRollbackTo: ControlRollbackTo,
}

func (l *lowerer) transaction(tx *ast.Transaction) {
	l.res.Control = &Control{Kind: transactionControls[tx.Kind], Name: tx.Name}
}

// set lowers SET to session variable assignments the executor stores. SET
// TRANSACTION has no effect on a single connection.
func (l *lowerer) set(st *ast.Set) error {
	if st.Transaction != "" {
		return nil
	}
	ctl := &Control{Kind: ControlSet}
	if st.Names != "" {
		charset := catalog.NormalizeCharset(st.Names)
		collation := catalog.NormalizeCollation(st.Collate)
		if collation == "" {
			collation = catalog.CollationFor(charset)
		}
		for _, name := range []string{"character_set_client", "character_set_connection", "character_set_results"} {
			ctl.Vars = append(ctl.Vars, constVar(name, charset))
		}
		ctl.Vars = append(ctl.Vars, constVar("collation_connection", collation))
	}

	for _, a := range st.Assignments {
		name := strings.ToLower(a.Name)
		v := SessionVar{Name: name, User: a.User, Scope: strings.ToUpper(a.Scope)}
		if !a.User && !KnownSystemVariable(name) {
			return protocol.ErrUnknownSystemVariable(a.Name)
		}
		switch val := a.Value.(type) {
		case *ast.Default:
			v.Value = selectValue(SystemVariables[name])
		case *ast.ColumnRef:
			// SET sql_mode = TRADITIONAL, SET autocommit = ON
			if val.Table != "" || a.User {
				return unsupported("column reference in SET")
			}
			v.Value = selectValue(val.Name)
		default:
			s := l.serializer()
			s.w.kw("SELECT")
			s.expr(a.Value, precLowest)
			stmt, err := s.finish(KindQuery)
			if err != nil {
				return err
			}
			v.Value = stmt
		}
		ctl.Vars = append(ctl.Vars, v)
	}
	l.res.Control = ctl
	return nil
}

func selectValue(v any) TranspiledStatement {
	return TranspiledStatement{SQL: "SELECT ?", Params: []any{v}, Kind: KindQuery}
}

func constVar(name string, v any) SessionVar {
	return SessionVar{Name: name, Value: selectValue(v)}
}
