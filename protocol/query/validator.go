package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/maxpert/mylite/protocol/query/transform"
)

// Validator prepares emitted statements against scratch in-memory databases
// so that a lowering bug surfaces as an error naming the rewritten SQL
// instead of a failure halfway through a batch.
type Validator struct {
	connPool chan *sql.DB
}

// NewValidator opens poolSize in-memory databases with driverName, which
// should register the same functions as the real connection.
func NewValidator(driverName string, poolSize int) (*Validator, error) {
	pool := make(chan *sql.DB, poolSize)
	for i := 0; i < poolSize; i++ {
		db, err := sql.Open(driverName, ":memory:")
		if err != nil {
			for j := 0; j < i; j++ {
				closeDB := <-pool
				closeDB.Close()
			}
			return nil, err
		}
		db.SetMaxOpenConns(1)
		pool <- db
	}
	return &Validator{connPool: pool}, nil
}

func (v *Validator) Close() {
	close(v.connPool)
	for db := range v.connPool {
		db.Close()
	}
}

// Validate prepares every DML and query statement. Statements that only
// fail because the scratch database lacks the schema pass.
func (v *Validator) Validate(ctx context.Context, stmts []transform.TranspiledStatement) error {
	db := <-v.connPool
	defer func() { v.connPool <- db }()

	for _, st := range stmts {
		if !shouldValidate(st.SQL) {
			continue
		}
		stmt, err := db.PrepareContext(ctx, st.SQL)
		if err != nil {
			if isSchemaError(err) {
				continue
			}
			return fmt.Errorf("invalid rewrite %q: %w", st.SQL, err)
		}
		stmt.Close()
	}
	return nil
}

func shouldValidate(sqlText string) bool {
	word, _, _ := strings.Cut(strings.TrimSpace(sqlText), " ")
	switch strings.ToUpper(word) {
	case "SELECT", "INSERT", "REPLACE", "UPDATE", "DELETE", "WITH":
		return true
	default:
		return false
	}
}

func isSchemaError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "no such table") ||
		strings.Contains(errStr, "no such column") ||
		strings.Contains(errStr, "no such index") ||
		strings.Contains(errStr, "no such view") ||
		strings.Contains(errStr, "no such trigger") ||
		strings.Contains(errStr, "has no column named")
}
