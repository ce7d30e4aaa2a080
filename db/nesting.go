package db

import (
	"context"
	"errors"
	"strconv"

	"github.com/maxpert/mylite/telemetry"
)

// SQLite has one real transaction per connection. Nested levels are
// savepoints named after their depth, so an inner rollback only undoes the
// inner work.

func savepointName(depth int) string {
	return "LEVEL" + strconv.Itoa(depth)
}

func (t *Translator) setDepth(depth int) {
	t.depth = depth
	telemetry.TransactionDepth.Set(float64(depth))
}

func (t *Translator) begin(ctx context.Context) error {
	query := "BEGIN"
	if t.depth > 0 {
		query = "SAVEPOINT " + savepointName(t.depth)
	}
	if _, err := t.exec.ExecContext(ctx, query); err != nil {
		return err
	}
	t.setDepth(t.depth + 1)
	return nil
}

func (t *Translator) commit(ctx context.Context) error {
	if t.depth == 0 {
		return ErrNoneActive
	}
	if t.depth > 1 {
		if _, err := t.exec.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName(t.depth-1)); err != nil {
			return err
		}
		t.setDepth(t.depth - 1)
		return nil
	}
	if _, err := t.exec.ExecContext(ctx, "COMMIT"); err != nil {
		// a failed COMMIT leaves the transaction open
		return errors.Join(err, t.rollback(ctx))
	}
	t.setDepth(0)
	return nil
}

func (t *Translator) rollback(ctx context.Context) error {
	if t.depth == 0 {
		return ErrNoneActive
	}
	// rolled back catalog rows invalidate the type cache mirror
	t.builder.Cache().Reset()
	if t.depth > 1 {
		name := savepointName(t.depth - 1)
		if _, err := t.exec.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return err
		}
		if _, err := t.exec.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return err
		}
		t.setDepth(t.depth - 1)
		return nil
	}
	t.setDepth(0)
	_, err := t.exec.ExecContext(ctx, "ROLLBACK")
	return err
}

// Begin starts a transaction, or a savepoint inside the open one.
func (t *Translator) Begin(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.reset()
	return t.begin(ctx)
}

// Commit commits the innermost level. It fails with ErrNoneActive when no
// transaction is open.
func (t *Translator) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.reset()
	return t.commit(ctx)
}

// Rollback undoes the innermost level. It fails with ErrNoneActive when no
// transaction is open.
func (t *Translator) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.reset()
	return t.rollback(ctx)
}

// Depth returns the current transaction nesting level, 0 when none is open.
func (t *Translator) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.depth
}
