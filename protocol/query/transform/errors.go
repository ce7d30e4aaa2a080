package transform

import (
	"fmt"

	"github.com/maxpert/mylite/protocol"
)

// UnsupportedConstructError reports a statement that parsed but has no
// SQLite lowering. Nothing is ever silently dropped.
type UnsupportedConstructError struct {
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("unsupported construct: %s", e.Construct)
}

// MySQLError converts the error to the code MySQL returns for unsupported
// syntax.
func (e *UnsupportedConstructError) MySQLError() *protocol.MySQLError {
	return protocol.NewMySQLError(protocol.ErrCodeNotSupported, protocol.SQLStateSyntax, "This version of MySQL doesn't yet support '"+e.Construct+"'")
}

func unsupported(format string, args ...any) error {
	return &UnsupportedConstructError{Construct: fmt.Sprintf(format, args...)}
}
