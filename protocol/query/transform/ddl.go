package transform

import (
	"strings"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/protocol"
	"github.com/maxpert/mylite/protocol/ast"
)

func (l *lowerer) dropTable(dt *ast.DropTable) error {
	if dt.Temporary {
		for _, tn := range dt.Tables {
			sql := "DROP TABLE "
			if dt.IfExists {
				sql += "IF EXISTS "
			}
			l.raw(KindExec, sql+"temp."+catalog.QuoteIdent(tn.Name))
		}
		return nil
	}

	// MySQL drops all of the tables or none of them
	var missing, names []string
	for _, tn := range dt.Tables {
		t, err := l.table(tn)
		if err != nil {
			return err
		}
		if t == nil && l.env.Schema != nil {
			if !dt.IfExists {
				missing = append(missing, l.database()+"."+tn.Name)
			}
			continue
		}
		names = append(names, tn.Name)
	}
	if len(missing) > 0 {
		return protocol.Errorf(protocol.ErrCodeBadTable, protocol.SQLStateNoSuchTable, "Unknown table '%s'", strings.Join(missing, ","))
	}
	for _, name := range names {
		sql := "DROP TABLE "
		if dt.IfExists {
			sql += "IF EXISTS "
		}
		l.raw(KindExec, sql+catalog.QuoteIdent(name))
	}
	if len(names) > 0 {
		l.res.Changes = append(l.res.Changes, &catalog.DropTableChange{Names: names})
	}
	return nil
}

// renameTable applies the pairs in order, so later pairs see the names
// earlier ones produced: RENAME TABLE a TO tmp, b TO a, tmp TO b swaps.
func (l *lowerer) renameTable(rt *ast.RenameTable) error {
	moved := map[string]*catalog.Table{}
	lookup := func(tn *ast.TableName) (*catalog.Table, error) {
		if t, ok := moved[strings.ToLower(tn.Name)]; ok {
			return t, nil
		}
		return l.table(tn)
	}
	for _, pair := range rt.Pairs {
		from, err := lookup(pair.From)
		if err != nil {
			return err
		}
		if from == nil {
			return protocol.ErrNoSuchTable(l.database(), pair.From.Name)
		}
		if catalog.IsReserved(pair.To.Name) {
			return protocol.Errorf(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "Table name '%s' is reserved", pair.To.Name)
		}
		to, err := lookup(pair.To)
		if err != nil {
			return err
		}
		if to != nil {
			return protocol.Errorf(protocol.ErrCodeTableExists, protocol.SQLStateTableExists, "Table '%s' already exists", pair.To.Name)
		}

		next := from.Clone()
		next.Name = pair.To.Name
		l.renameNative(from, next, nil)
		moved[strings.ToLower(from.Name)] = nil
		moved[strings.ToLower(next.Name)] = next
		l.res.Changes = append(l.res.Changes, &catalog.RenameTableChange{From: from.Name, To: next.Name})
	}
	return nil
}

func (l *lowerer) createIndex(ci *ast.CreateIndex) error {
	return l.alterTable(&ast.AlterTable{
		NodeInfo: ci.NodeInfo,
		Table:    ci.Table,
		Specs:    []ast.AlterSpec{&ast.AddIndex{NodeInfo: ci.Index.NodeInfo, Index: ci.Index}},
	})
}

func (l *lowerer) dropIndex(di *ast.DropIndexStmt) error {
	var spec ast.AlterSpec = &ast.DropIndex{NodeInfo: di.NodeInfo, Name: di.Name}
	if strings.EqualFold(di.Name, catalog.PrimaryName) {
		spec = &ast.DropPrimaryKey{NodeInfo: di.NodeInfo}
	}
	return l.alterTable(&ast.AlterTable{NodeInfo: di.NodeInfo, Table: di.Table, Specs: []ast.AlterSpec{spec}})
}

// truncate empties a table and restarts its auto-increment sequence.
func (l *lowerer) truncate(tr *ast.Truncate) error {
	t, err := l.existing(tr.Table)
	if err != nil {
		return err
	}
	l.raw(KindExec, "DELETE FROM "+catalog.QuoteIdent(t.Name))
	if t.RowidAlias() != nil {
		l.raw(KindExec, "DELETE FROM sqlite_sequence WHERE name = ?", t.Name)
	}
	return nil
}
