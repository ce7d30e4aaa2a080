package catalog

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	// registers the sqlite3 dialect
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
)

// Change is a schema change to record in the catalog after its native
// statements have run.
type Change interface {
	catalogChange()
}

// CreateTableChange records a new table.
type CreateTableChange struct {
	Table *Table
}

// AlterTableChange records an ALTER TABLE.
type AlterTableChange struct {
	Alteration *Alteration
}

// DropTableChange removes tables from the catalog.
type DropTableChange struct {
	Names []string
}

// RenameTableChange records RENAME TABLE.
type RenameTableChange struct {
	From string
	To   string
}

// RegenerateTableChange rebuilds a table's rows from the native schema, for
// tables whose definition is only known after SQLite created them.
type RegenerateTableChange struct {
	Name string
}

func (*CreateTableChange) catalogChange()     {}
func (*AlterTableChange) catalogChange()      {}
func (*DropTableChange) catalogChange()       {}
func (*RenameTableChange) catalogChange()     {}
func (*RegenerateTableChange) catalogChange() {}

// Builder writes catalog rows. It is used on one connection at a time.
type Builder struct {
	schema  string
	dialect goqu.DialectWrapper
	now     func() time.Time
	cache   *TypeCache
}

// NewBuilder creates a builder for the named database.
func NewBuilder(schema string, cache *TypeCache) *Builder {
	if cache == nil {
		cache = NewTypeCache()
	}
	return &Builder{
		schema:  schema,
		dialect: goqu.Dialect("sqlite3"),
		now:     time.Now,
		cache:   cache,
	}
}

// WithClock replaces the clock used for create_time.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Schema returns the database name rows are written under.
func (b *Builder) Schema() string {
	return b.schema
}

// Cache returns the type cache.
func (b *Builder) Cache() *TypeCache {
	return b.cache
}

func (b *Builder) recorder() recorder {
	return recorder{schema: b.schema, now: b.now().UTC().Format(time.DateTime)}
}

// Apply records a change.
func (b *Builder) Apply(ctx context.Context, exec Executor, ch Change) error {
	switch c := ch.(type) {
	case *CreateTableChange:
		return b.CreateTable(ctx, exec, c.Table)
	case *AlterTableChange:
		return b.AlterTable(ctx, exec, c.Alteration)
	case *DropTableChange:
		for _, name := range c.Names {
			if err := b.DropTable(ctx, exec, name); err != nil {
				return err
			}
		}
		return nil
	case *RenameTableChange:
		return b.RenameTable(ctx, exec, c.From, c.To)
	case *RegenerateTableChange:
		return b.Regenerate(ctx, exec, c.Name)
	}
	return fmt.Errorf("unknown catalog change %T", ch)
}

func (b *Builder) exec(ctx context.Context, exec Executor, ds interface {
	ToSQL() (string, []any, error)
}) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update catalog: %w", err)
	}
	return nil
}

func (b *Builder) insert(ctx context.Context, exec Executor, table string, rows []goqu.Record) error {
	if len(rows) == 0 {
		return nil
	}
	vals := make([]any, len(rows))
	for i, r := range rows {
		vals[i] = r
	}
	return b.exec(ctx, exec, b.dialect.Insert(table).Rows(vals...).Prepared(true))
}

func (b *Builder) tableWhere(table string) exp.Expression {
	return goqu.Ex{"table_schema": b.schema, "table_name": table}
}

// rowsOf selects the rows of table in catalog table t. MySQL names the
// schema column of referential_constraints constraint_schema.
func (b *Builder) rowsOf(t, table string) exp.Expression {
	if t == ReferentialConstraintsTable {
		return goqu.Ex{"constraint_schema": b.schema, "table_name": table}
	}
	return b.tableWhere(table)
}

// CreateTable inserts every catalog row of a new table.
func (b *Builder) CreateTable(ctx context.Context, exec Executor, t *Table) error {
	r := b.recorder()
	if err := b.insert(ctx, exec, TablesTable, []goqu.Record{r.tableRecord(t)}); err != nil {
		return err
	}

	cols := make([]goqu.Record, len(t.Columns))
	for i := range t.Columns {
		cols[i] = r.columnRecord(t, i)
	}
	if err := b.insert(ctx, exec, ColumnsTable, cols); err != nil {
		return err
	}

	var stats []goqu.Record
	for _, idx := range t.Indexes {
		stats = append(stats, r.statisticsRecords(t, idx)...)
	}
	if err := b.insert(ctx, exec, StatisticsTable, stats); err != nil {
		return err
	}

	names, cons := r.constraints(t)
	for _, name := range names {
		if err := b.insertConstraint(ctx, exec, cons[name]); err != nil {
			return err
		}
	}
	return b.cache.Replace(ctx, exec, t.Name, typeCacheEntries(t))
}

func (b *Builder) insertConstraint(ctx context.Context, exec Executor, cr *constraintRows) error {
	if err := b.insert(ctx, exec, TableConstraintsTable, []goqu.Record{cr.constraint}); err != nil {
		return err
	}
	if err := b.insert(ctx, exec, KeyColumnUsageTable, cr.usage); err != nil {
		return err
	}
	if cr.referential != nil {
		if err := b.insert(ctx, exec, ReferentialConstraintsTable, []goqu.Record{cr.referential}); err != nil {
			return err
		}
	}
	if cr.check != nil {
		return b.insert(ctx, exec, CheckConstraintsTable, []goqu.Record{cr.check})
	}
	return nil
}

func (b *Builder) deleteConstraint(ctx context.Context, exec Executor, table, name string, check bool) error {
	for _, t := range []string{TableConstraintsTable, KeyColumnUsageTable, ReferentialConstraintsTable} {
		del := b.dialect.Delete(t).Where(b.rowsOf(t, table), goqu.C("constraint_name").Eq(name))
		if err := b.exec(ctx, exec, del.Prepared(true)); err != nil {
			return err
		}
	}
	if !check {
		return nil
	}
	return b.exec(ctx, exec, b.dialect.Delete(CheckConstraintsTable).
		Where(goqu.Ex{"constraint_schema": b.schema, "constraint_name": name}).Prepared(true))
}

// DropTable removes every catalog row and type cache entry of a table.
func (b *Builder) DropTable(ctx context.Context, exec Executor, name string) error {
	// check_constraints has no table column; its names come from table_constraints
	checks, err := b.checkNames(ctx, exec, name)
	if err != nil {
		return err
	}
	for _, c := range checks {
		if err := b.exec(ctx, exec, b.dialect.Delete(CheckConstraintsTable).
			Where(goqu.Ex{"constraint_schema": b.schema, "constraint_name": c}).Prepared(true)); err != nil {
			return err
		}
	}
	for _, t := range []string{TablesTable, ColumnsTable, StatisticsTable, TableConstraintsTable, KeyColumnUsageTable, ReferentialConstraintsTable} {
		if err := b.exec(ctx, exec, b.dialect.Delete(t).Where(b.rowsOf(t, name)).Prepared(true)); err != nil {
			return err
		}
	}
	return b.cache.Drop(ctx, exec, name)
}

func (b *Builder) checkNames(ctx context.Context, exec Executor, table string) ([]string, error) {
	query, args, err := b.dialect.From(TableConstraintsTable).Select("constraint_name").
		Where(b.tableWhere(table), goqu.C("constraint_type").Eq("CHECK")).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
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

// RenameTable moves every catalog row of a table to its new name and
// repoints foreign keys that reference it.
func (b *Builder) RenameTable(ctx context.Context, exec Executor, from, to string) error {
	for _, t := range []string{TablesTable, ColumnsTable, StatisticsTable, TableConstraintsTable, KeyColumnUsageTable, ReferentialConstraintsTable} {
		if err := b.exec(ctx, exec, b.dialect.Update(t).
			Set(goqu.Record{"table_name": to}).
			Where(b.rowsOf(t, from)).Prepared(true)); err != nil {
			return err
		}
	}
	if err := b.exec(ctx, exec, b.dialect.Update(KeyColumnUsageTable).
		Set(goqu.Record{"referenced_table_name": to}).
		Where(goqu.Ex{"referenced_table_schema": b.schema, "referenced_table_name": from}).Prepared(true)); err != nil {
		return err
	}
	if err := b.exec(ctx, exec, b.dialect.Update(ReferentialConstraintsTable).
		Set(goqu.Record{"referenced_table_name": to}).
		Where(goqu.Ex{"constraint_schema": b.schema, "referenced_table_name": from}).Prepared(true)); err != nil {
		return err
	}
	return b.cache.Rename(ctx, exec, from, to)
}

// AlterTable patches the catalog from the old definition to the new one.
// Only rows that differ are touched; column keys and nullability are then
// recomputed from key membership in one statement.
func (b *Builder) AlterTable(ctx context.Context, exec Executor, a *Alteration) error {
	name := a.New.Name
	if a.Renamed() {
		if err := b.RenameTable(ctx, exec, a.Old.Name, name); err != nil {
			return err
		}
	}

	// the old definition as the catalog holds it once renames are applied
	old := a.Old.Clone()
	old.Name = name
	renames := map[string]string{}
	for to, from := range a.Sources {
		if from != to {
			renames[from] = to
		}
	}
	for from, to := range renames {
		if err := b.renameColumn(ctx, exec, name, from, to); err != nil {
			return err
		}
	}
	renameInModel(old, renames)
	for from, to := range a.IndexRenames {
		idx := old.Index(from)
		if idx == nil {
			continue
		}
		if err := b.exec(ctx, exec, b.dialect.Update(StatisticsTable).
			Set(goqu.Record{"index_name": to}).
			Where(b.tableWhere(name), goqu.C("index_name").Eq(idx.Name)).Prepared(true)); err != nil {
			return err
		}
		idx.Name = to
	}

	r := b.recorder()
	if err := b.patchTable(ctx, exec, r, old, a.New); err != nil {
		return err
	}
	if err := b.patchColumns(ctx, exec, r, old, a.New); err != nil {
		return err
	}
	if err := b.patchStatistics(ctx, exec, r, old, a.New); err != nil {
		return err
	}
	if err := b.patchConstraints(ctx, exec, r, old, a.New); err != nil {
		return err
	}
	if err := b.recomputeColumnKeys(ctx, exec, name); err != nil {
		return err
	}
	return b.cache.Replace(ctx, exec, name, typeCacheEntries(a.New))
}

func (b *Builder) renameColumn(ctx context.Context, exec Executor, table, from, to string) error {
	where := goqu.Ex{"table_schema": b.schema, "table_name": table, "column_name": from}
	for _, t := range []string{ColumnsTable, StatisticsTable, KeyColumnUsageTable} {
		if err := b.exec(ctx, exec, b.dialect.Update(t).
			Set(goqu.Record{"column_name": to}).Where(where).Prepared(true)); err != nil {
			return err
		}
	}
	return nil
}

func renameInModel(t *Table, renames map[string]string) {
	re := func(n string) string {
		if to, ok := renames[n]; ok {
			return to
		}
		return n
	}
	for _, c := range t.Columns {
		c.Name = re(c.Name)
	}
	for _, idx := range t.Indexes {
		for _, ic := range idx.Columns {
			ic.Name = re(ic.Name)
		}
	}
	for _, fk := range t.ForeignKeys {
		for i, c := range fk.Columns {
			fk.Columns[i] = re(c)
		}
	}
}

func (b *Builder) patchTable(ctx context.Context, exec Executor, r recorder, old, t *Table) error {
	before, after := r.tableRecord(old), r.tableRecord(t)
	delete(before, "create_time")
	delete(after, "create_time")
	if reflect.DeepEqual(before, after) {
		return nil
	}
	delete(after, "table_schema")
	delete(after, "table_name")
	return b.exec(ctx, exec, b.dialect.Update(TablesTable).Set(after).Where(b.tableWhere(t.Name)).Prepared(true))
}

func (b *Builder) patchColumns(ctx context.Context, exec Executor, r recorder, old, t *Table) error {
	for i, c := range old.Columns {
		if t.Column(c.Name) != nil {
			continue
		}
		if err := b.exec(ctx, exec, b.dialect.Delete(ColumnsTable).
			Where(b.tableWhere(t.Name), goqu.C("column_name").Eq(old.Columns[i].Name)).Prepared(true)); err != nil {
			return err
		}
	}
	for i, c := range t.Columns {
		rec := r.columnRecord(t, i)
		j := old.ColumnIndex(c.Name)
		if j < 0 {
			if err := b.insert(ctx, exec, ColumnsTable, []goqu.Record{rec}); err != nil {
				return err
			}
			continue
		}
		prev := r.columnRecord(old, j)
		delete(rec, "column_key")
		delete(prev, "column_key")
		if reflect.DeepEqual(rec, prev) {
			continue
		}
		where := goqu.Ex{"table_schema": b.schema, "table_name": t.Name, "column_name": c.Name}
		if err := b.exec(ctx, exec, b.dialect.Update(ColumnsTable).Set(rec).Where(where).Prepared(true)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) patchStatistics(ctx context.Context, exec Executor, r recorder, old, t *Table) error {
	oldRows := map[string][]goqu.Record{}
	for _, idx := range old.Indexes {
		oldRows[strings.ToLower(idx.Name)] = r.statisticsRecords(old, idx)
	}
	newRows := map[string][]goqu.Record{}
	for _, idx := range t.Indexes {
		newRows[strings.ToLower(idx.Name)] = r.statisticsRecords(t, idx)
	}

	for _, idx := range old.Indexes {
		key := strings.ToLower(idx.Name)
		if _, ok := newRows[key]; !ok && len(oldRows[key]) > 0 {
			if err := b.deleteIndexRows(ctx, exec, t.Name, idx.Name); err != nil {
				return err
			}
		}
	}

	renumber := false
	for _, idx := range t.Indexes {
		key := strings.ToLower(idx.Name)
		before, after := oldRows[key], newRows[key]
		if reflect.DeepEqual(before, after) {
			continue
		}
		if dropped, ok := onlyDroppedColumns(before, after); ok {
			for _, col := range dropped {
				if err := b.exec(ctx, exec, b.dialect.Delete(StatisticsTable).Where(
					b.tableWhere(t.Name), goqu.Ex{"index_name": idx.Name, "column_name": col},
				).Prepared(true)); err != nil {
					return err
				}
			}
			renumber = true
			continue
		}
		if err := b.replaceIndexRows(ctx, exec, t.Name, idx.Name, before, after); err != nil {
			return err
		}
	}
	if !renumber {
		return nil
	}
	return b.renumberStatistics(ctx, exec, t.Name)
}

// replaceIndexRows rewrites the rows of one index in place. Keys are ranked
// by their lowest rowid, so the rows that exist are updated rather than
// deleted and inserted again.
func (b *Builder) replaceIndexRows(ctx context.Context, exec Executor, table, index string, before, after []goqu.Record) error {
	for i, rec := range after {
		if i >= len(before) {
			return b.insert(ctx, exec, StatisticsTable, after[i:])
		}
		if err := b.exec(ctx, exec, b.dialect.Update(StatisticsTable).Set(rec).Where(
			b.tableWhere(table), goqu.Ex{"index_name": index, "seq_in_index": i + 1},
		).Prepared(true)); err != nil {
			return err
		}
	}
	if len(before) <= len(after) {
		return nil
	}
	return b.exec(ctx, exec, b.dialect.Delete(StatisticsTable).Where(
		b.tableWhere(table), goqu.C("index_name").Eq(index), goqu.C("seq_in_index").Gt(len(after)),
	).Prepared(true))
}

func (b *Builder) deleteIndexRows(ctx context.Context, exec Executor, table, index string) error {
	return b.exec(ctx, exec, b.dialect.Delete(StatisticsTable).
		Where(b.tableWhere(table), goqu.C("index_name").Eq(index)).Prepared(true))
}

// onlyDroppedColumns reports whether after is before minus some rows,
// renumbered, and returns the columns of the missing rows.
func onlyDroppedColumns(before, after []goqu.Record) ([]string, bool) {
	if len(after) == 0 || len(after) >= len(before) {
		return nil, false
	}
	keep := map[any]bool{}
	for _, rec := range after {
		keep[rec["column_name"]] = true
	}
	var dropped []string
	var remaining []goqu.Record
	for _, rec := range before {
		if !keep[rec["column_name"]] {
			dropped = append(dropped, rec["column_name"].(string))
			continue
		}
		c := goqu.Record{}
		for k, v := range rec {
			c[k] = v
		}
		c["seq_in_index"] = len(remaining) + 1
		remaining = append(remaining, c)
	}
	return dropped, reflect.DeepEqual(remaining, after)
}

// renumberStatistics closes the gaps left in seq_in_index by deleted rows.
func (b *Builder) renumberStatistics(ctx context.Context, exec Executor, table string) error {
	s := StatisticsTable
	query := `UPDATE ` + s + ` SET seq_in_index = (
		SELECT COUNT(*) FROM ` + s + ` AS s2
		WHERE s2.table_schema = ` + s + `.table_schema
		AND s2.table_name = ` + s + `.table_name
		AND s2.index_name = ` + s + `.index_name
		AND s2.seq_in_index <= ` + s + `.seq_in_index
	) WHERE table_schema = ? AND table_name = ?`
	if _, err := exec.ExecContext(ctx, query, b.schema, table); err != nil {
		return fmt.Errorf("update catalog: %w", err)
	}
	return nil
}

func (b *Builder) patchConstraints(ctx context.Context, exec Executor, r recorder, old, t *Table) error {
	oldNames, before := r.constraints(old)
	newNames, after := r.constraints(t)
	for _, name := range oldNames {
		if _, ok := after[name]; !ok {
			if err := b.deleteConstraint(ctx, exec, t.Name, name, before[name].check != nil); err != nil {
				return err
			}
		}
	}
	for _, name := range newNames {
		prev, ok := before[name]
		if ok && reflect.DeepEqual(prev, after[name]) {
			continue
		}
		if ok {
			if err := b.deleteConstraint(ctx, exec, t.Name, name, prev.check != nil); err != nil {
				return err
			}
		}
		if err := b.insertConstraint(ctx, exec, after[name]); err != nil {
			return err
		}
	}
	return nil
}

// recomputeColumnKeys derives column_key and is_nullable of every column of
// a table from the primary key usage rows and the statistics rows, with the
// same precedence as Table.ColumnKey.
func (b *Builder) recomputeColumnKeys(ctx context.Context, exec Executor, table string) error {
	c, s, k := ColumnsTable, StatisticsTable, KeyColumnUsageTable
	inPrimary := `EXISTS (SELECT 1 FROM ` + k + ` AS k
		WHERE k.table_schema = ` + c + `.table_schema AND k.table_name = ` + c + `.table_name
		AND k.constraint_name = 'PRIMARY' AND k.column_name = ` + c + `.column_name)`
	query := `UPDATE ` + c + ` SET
		column_key = CASE
			WHEN ` + inPrimary + ` THEN 'PRI'
			WHEN EXISTS (SELECT 1 FROM ` + s + ` AS s
				WHERE s.table_schema = ` + c + `.table_schema AND s.table_name = ` + c + `.table_name
				AND s.column_name = ` + c + `.column_name AND s.seq_in_index = 1
				AND s.non_unique = 0 AND s.index_name != 'PRIMARY'
				AND NOT EXISTS (SELECT 1 FROM ` + s + ` AS s2
					WHERE s2.table_schema = s.table_schema AND s2.table_name = s.table_name
					AND s2.index_name = s.index_name AND s2.seq_in_index = 2)) THEN 'UNI'
			WHEN EXISTS (SELECT 1 FROM ` + s + ` AS s
				WHERE s.table_schema = ` + c + `.table_schema AND s.table_name = ` + c + `.table_name
				AND s.column_name = ` + c + `.column_name AND s.seq_in_index = 1) THEN 'MUL'
			ELSE ''
		END,
		is_nullable = CASE WHEN ` + inPrimary + ` THEN 'NO' ELSE is_nullable END
	WHERE table_schema = ? AND table_name = ?`
	if _, err := exec.ExecContext(ctx, query, b.schema, table); err != nil {
		return fmt.Errorf("update catalog: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
