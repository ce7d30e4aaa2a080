package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/maxpert/mylite/protocol"
)

// Reader loads table models back from the catalog rows.
type Reader struct {
	schema  string
	dialect goqu.DialectWrapper
}

// NewReader creates a reader for the named database.
func NewReader(schema string) *Reader {
	return &Reader{schema: schema, dialect: goqu.Dialect("sqlite3")}
}

func (r *Reader) query(ctx context.Context, exec Executor, ds *goqu.SelectDataset) (*sql.Rows, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return rows, nil
}

func (r *Reader) where(table string) goqu.Ex {
	return goqu.Ex{"table_schema": r.schema, "table_name": table}
}

// Tables lists the names of the tables in the catalog, in creation order.
func (r *Reader) Tables(ctx context.Context, exec Executor) ([]string, error) {
	rows, err := r.query(ctx, exec, r.dialect.From(TablesTable).Select("table_name").
		Where(goqu.C("table_schema").Eq(r.schema)).Order(goqu.I("rowid").Asc()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Exists reports whether the catalog has the table, matching the name
// case-insensitively, and returns its stored spelling.
func (r *Reader) Exists(ctx context.Context, exec Executor, table string) (string, bool, error) {
	rows, err := r.query(ctx, exec, r.dialect.From(TablesTable).Select("table_name").
		Where(goqu.C("table_schema").Eq(r.schema), goqu.L("table_name = ? COLLATE NOCASE", table)))
	if err != nil {
		return "", false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return "", false, rows.Err()
	}
	var name string
	if err := rows.Scan(&name); err != nil {
		return "", false, err
	}
	return name, true, nil
}

// Load reads the definition of one table. A table missing from the catalog
// is a no-such-table error.
func (r *Reader) Load(ctx context.Context, exec Executor, table string) (*Table, error) {
	name, ok, err := r.Exists(ctx, exec, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, protocol.ErrNoSuchTable(r.schema, table)
	}
	t, err := r.loadTable(ctx, exec, name)
	if err != nil {
		return nil, err
	}
	primary, err := r.loadColumns(ctx, exec, t)
	if err != nil {
		return nil, err
	}
	if err := r.loadIndexes(ctx, exec, t, primary); err != nil {
		return nil, err
	}
	if err := r.loadConstraints(ctx, exec, t); err != nil {
		return nil, err
	}
	if err := r.loadSequence(ctx, exec, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Reader) loadTable(ctx context.Context, exec Executor, name string) (*Table, error) {
	rows, err := r.query(ctx, exec, r.dialect.From(TablesTable).
		Select("engine", "table_collation", "table_comment", "create_options", "auto_increment").
		Where(r.where(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, protocol.ErrNoSuchTable(r.schema, name)
	}
	t := &Table{Name: name}
	var options string
	var auto sql.NullInt64
	if err := rows.Scan(&t.Engine, &t.Collation, &t.Comment, &options, &auto); err != nil {
		return nil, err
	}
	if v, ok := strings.CutPrefix(options, "row_format="); ok {
		t.RowFormat = strings.ToUpper(v[:1]) + strings.ToLower(v[1:])
	}
	t.AutoIncrement = auto.Int64
	return t, rows.Err()
}

// loadColumns reads the columns in ordinal order and returns those whose
// column_key is PRI.
func (r *Reader) loadColumns(ctx context.Context, exec Executor, t *Table) ([]string, error) {
	rows, err := r.query(ctx, exec, r.dialect.From(ColumnsTable).
		Select("column_name", "column_type", "is_nullable", "column_default", "extra",
			"column_comment", "generation_expression", "character_set_name", "collation_name", "column_key").
		Where(r.where(t.Name)).Order(goqu.C("ordinal_position").Asc()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var primary []string
	for rows.Next() {
		var (
			c                  Column
			columnType, null   string
			extraText          string
			def                sql.NullString
			charset, collation sql.NullString
			key                string
		)
		if err := rows.Scan(&c.Name, &columnType, &null, &def, &extraText,
			&c.Comment, &c.Generated, &charset, &collation, &key); err != nil {
			return nil, err
		}
		typ, err := ParseType(columnType)
		if err != nil {
			return nil, err
		}
		if key == "PRI" {
			primary = append(primary, c.Name)
		}
		c.Type = typ
		c.Nullable = null == "YES"
		if def.Valid {
			v := def.String
			c.Default = &v
		}
		c.Charset, c.Collation = charset.String, collation.String
		parseExtra(&c, extraText)
		t.Columns = append(t.Columns, &c)
	}
	return primary, rows.Err()
}

// parseExtra is the inverse of extra.
func parseExtra(c *Column, text string) {
	if strings.Contains(text, "auto_increment") {
		c.AutoIncrement = true
	}
	if strings.Contains(text, "DEFAULT_GENERATED") {
		c.DefaultExpr = true
	}
	if i := strings.Index(text, "on update "); i >= 0 {
		rest := text[i+len("on update "):]
		if j := strings.IndexByte(rest, ' '); j >= 0 {
			rest = rest[:j]
		}
		c.OnUpdate = rest
	}
	if strings.Contains(text, "STORED GENERATED") {
		c.Stored = true
	}
	if strings.Contains(text, "INVISIBLE") {
		c.Invisible = true
	}
}

// loadIndexes reads the keys from the statistics rows. A primary key with
// no rows is the single column whose column_key is PRI.
func (r *Reader) loadIndexes(ctx context.Context, exec Executor, t *Table, primary []string) error {
	rows, err := r.query(ctx, exec, r.dialect.From(StatisticsTable).
		Select("index_name", "non_unique", "seq_in_index", "column_name", "sub_part", "collation", "index_type", "index_comment").
		Where(r.where(t.Name)).
		Order(goqu.I("rowid").Asc()))
	if err != nil {
		return err
	}
	defer rows.Close()

	seq := map[*IndexColumn]int{}
	byName := map[string]*Index{}
	for rows.Next() {
		var (
			name, column, indexType, comment string
			nonUnique, n                     int
			subPart                          sql.NullInt64
			collation                        sql.NullString
		)
		if err := rows.Scan(&name, &nonUnique, &n, &column, &subPart, &collation, &indexType, &comment); err != nil {
			return err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &Index{Name: name, Comment: comment}
			switch {
			case name == PrimaryName:
				idx.Kind = IndexPrimary
			case indexType == "FULLTEXT":
				idx.Kind = IndexFulltext
			case indexType == "SPATIAL":
				idx.Kind = IndexSpatial
			case nonUnique == 0:
				idx.Kind = IndexUnique
			default:
				idx.Kind = IndexKey
			}
			byName[name] = idx
			t.Indexes = append(t.Indexes, idx)
		}
		ic := &IndexColumn{
			Name:    column,
			SubPart: int(subPart.Int64),
			Desc:    collation.String == "D",
		}
		seq[ic] = n
		idx.Columns = append(idx.Columns, ic)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, idx := range t.Indexes {
		sort.SliceStable(idx.Columns, func(i, j int) bool {
			return seq[idx.Columns[i]] < seq[idx.Columns[j]]
		})
	}

	if t.Primary() == nil && len(primary) == 1 {
		t.Indexes = append([]*Index{{
			Name:    PrimaryName,
			Kind:    IndexPrimary,
			Columns: []*IndexColumn{{Name: primary[0]}},
		}}, t.Indexes...)
	}
	SortIndexes(t.Indexes)
	return nil
}

func (r *Reader) loadConstraints(ctx context.Context, exec Executor, t *Table) error {
	rows, err := r.query(ctx, exec, r.dialect.From(TableConstraintsTable).
		Select("constraint_name", "constraint_type", "enforced").
		Where(r.where(t.Name), goqu.C("constraint_type").In("FOREIGN KEY", "CHECK")).
		Order(goqu.I("rowid").Asc()))
	if err != nil {
		return err
	}
	type named struct{ name, kind, enforced string }
	var list []named
	for rows.Next() {
		var n named
		if err := rows.Scan(&n.name, &n.kind, &n.enforced); err != nil {
			rows.Close()
			return err
		}
		list = append(list, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, n := range list {
		if n.kind == "CHECK" {
			clause, err := r.checkClause(ctx, exec, n.name)
			if err != nil {
				return err
			}
			t.Checks = append(t.Checks, &Check{Name: n.name, Clause: clause, Enforced: n.enforced == "YES"})
			continue
		}
		fk, err := r.foreignKey(ctx, exec, t.Name, n.name)
		if err != nil {
			return err
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
	return nil
}

func (r *Reader) checkClause(ctx context.Context, exec Executor, name string) (string, error) {
	rows, err := r.query(ctx, exec, r.dialect.From(CheckConstraintsTable).Select("check_clause").
		Where(goqu.Ex{"constraint_schema": r.schema, "constraint_name": name}))
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var clause string
	if rows.Next() {
		if err := rows.Scan(&clause); err != nil {
			return "", err
		}
	}
	return clause, rows.Err()
}

func (r *Reader) foreignKey(ctx context.Context, exec Executor, table, name string) (*ForeignKey, error) {
	fk := &ForeignKey{Name: name, OnDelete: "NO ACTION", OnUpdate: "NO ACTION"}
	rows, err := r.query(ctx, exec, r.dialect.From(KeyColumnUsageTable).
		Select("column_name", "referenced_table_name", "referenced_column_name").
		Where(r.where(table), goqu.C("constraint_name").Eq(name)).
		Order(goqu.C("ordinal_position").Asc()))
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var col string
		var refTable, refCol sql.NullString
		if err := rows.Scan(&col, &refTable, &refCol); err != nil {
			rows.Close()
			return nil, err
		}
		fk.Columns = append(fk.Columns, col)
		fk.RefTable = refTable.String
		fk.RefColumns = append(fk.RefColumns, refCol.String)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.query(ctx, exec, r.dialect.From(ReferentialConstraintsTable).
		Select("update_rule", "delete_rule").
		Where(goqu.Ex{"constraint_schema": r.schema, "constraint_name": name, "table_name": table}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&fk.OnUpdate, &fk.OnDelete); err != nil {
			return nil, err
		}
	}
	return fk, rows.Err()
}

// loadSequence takes the next auto-increment value from sqlite_sequence
// when SQLite has issued one.
func (r *Reader) loadSequence(ctx context.Context, exec Executor, t *Table) error {
	if t.AutoIncrementColumn() == nil {
		return nil
	}
	rows, err := exec.QueryContext(ctx, "SELECT 1 FROM sqlite_schema WHERE type = 'table' AND name = 'sqlite_sequence'")
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	exists := rows.Next()
	rows.Close()
	if !exists {
		return nil
	}
	rows, err = exec.QueryContext(ctx, "SELECT seq FROM sqlite_sequence WHERE name = ?", t.Name)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return err
		}
		if seq+1 > t.AutoIncrement {
			t.AutoIncrement = seq + 1
		}
	}
	return rows.Err()
}
