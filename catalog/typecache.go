package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/puzpuzpuz/xsync/v3"
)

// TypeCache keeps the MySQL column types and special key kinds that the
// SQLite schema cannot express, in the type cache table with an in-memory
// mirror per table.
type TypeCache struct {
	dialect goqu.DialectWrapper
	tables  *xsync.MapOf[string, *xsync.MapOf[string, string]]
}

// NewTypeCache creates an empty cache mirror.
func NewTypeCache() *TypeCache {
	return &TypeCache{
		dialect: goqu.Dialect("sqlite3"),
		tables:  xsync.NewMapOf[string, *xsync.MapOf[string, string]](),
	}
}

// Reset drops the mirror, for example after a rollback.
func (c *TypeCache) Reset() {
	c.tables.Clear()
}

// Entries returns the cached entries of a table, loading them on first use.
func (c *TypeCache) Entries(ctx context.Context, exec Executor, table string) (map[string]string, error) {
	m, err := c.load(ctx, exec, table)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, m.Size())
	m.Range(func(k, v string) bool {
		out[k] = v
		return true
	})
	return out, nil
}

// Lookup returns one cached entry.
func (c *TypeCache) Lookup(ctx context.Context, exec Executor, table, name string) (string, bool, error) {
	m, err := c.load(ctx, exec, table)
	if err != nil {
		return "", false, err
	}
	v, ok := m.Load(name)
	return v, ok, nil
}

func (c *TypeCache) load(ctx context.Context, exec Executor, table string) (*xsync.MapOf[string, string], error) {
	key := strings.ToLower(table)
	if m, ok := c.tables.Load(key); ok {
		return m, nil
	}
	query, args, err := c.dialect.From(TypeCacheTable).
		Select("column_or_index", "mysql_type").
		Where(goqu.C("table").Eq(table)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read type cache: %w", err)
	}
	defer rows.Close()

	m := xsync.NewMapOf[string, string]()
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, err
		}
		m.Store(name, typ)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	c.tables.Store(key, m)
	return m, nil
}

// Replace stores the entries of a table, replacing any previous ones.
func (c *TypeCache) Replace(ctx context.Context, exec Executor, table string, entries map[string]string) error {
	if err := c.Drop(ctx, exec, table); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	rows := make([]any, 0, len(entries))
	for _, name := range sortedKeys(entries) {
		rows = append(rows, goqu.Record{"table": table, "column_or_index": name, "mysql_type": entries[name]})
	}
	query, args, err := c.dialect.Insert(TypeCacheTable).Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write type cache: %w", err)
	}
	m := xsync.NewMapOf[string, string]()
	for k, v := range entries {
		m.Store(k, v)
	}
	c.tables.Store(strings.ToLower(table), m)
	return nil
}

// Drop removes every entry of a table.
func (c *TypeCache) Drop(ctx context.Context, exec Executor, table string) error {
	query, args, err := c.dialect.Delete(TypeCacheTable).
		Where(goqu.C("table").Eq(table)).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear type cache: %w", err)
	}
	c.tables.Delete(strings.ToLower(table))
	return nil
}

// Rename moves the entries of a table to its new name, renaming the native
// index keys with it.
func (c *TypeCache) Rename(ctx context.Context, exec Executor, from, to string) error {
	entries, err := c.Entries(ctx, exec, from)
	if err != nil {
		return err
	}
	if err := c.Drop(ctx, exec, from); err != nil {
		return err
	}
	moved := make(map[string]string, len(entries))
	oldPrefix := NativeIndexName(from, "")
	for k, v := range entries {
		if strings.HasPrefix(k, oldPrefix) {
			k = NativeIndexName(to, k[len(oldPrefix):])
		}
		moved[k] = v
	}
	return c.Replace(ctx, exec, to, moved)
}
