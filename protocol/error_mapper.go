package protocol

import (
	"errors"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ConvertToMySQLError converts any error to *MySQLError with appropriate MySQL error codes
func ConvertToMySQLError(err error) *MySQLError {
	if err == nil {
		return nil
	}

	var mysqlErr *MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return mapSQLiteError(sqliteErr, sqliteErr.Error())
	}

	return mapByMessage(err.Error())
}

// ToDriverError converts err to the error type returned by go-sql-driver, for
// callers written against a real MySQL connection.
func ToDriverError(err error) error {
	m := ConvertToMySQLError(err)
	if m == nil {
		return nil
	}
	out := &gomysql.MySQLError{Number: m.Code, Message: m.Message}
	copy(out.SQLState[:], m.SQLState)
	return out
}

func mapSQLiteError(e sqlite3.Error, msg string) *MySQLError {
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return NewMySQLError(ErrCodeDupEntry, SQLStateIntegrity, msg)
	case sqlite3.ErrConstraintNotNull:
		return NewMySQLError(ErrCodeBadNull, SQLStateIntegrity, msg)
	case sqlite3.ErrConstraintForeignKey:
		return NewMySQLError(ErrCodeNoReferencedRow, SQLStateIntegrity, msg)
	case sqlite3.ErrConstraintCheck:
		return NewMySQLError(ErrCodeCheckConstraint, SQLStateIntegrity, msg)
	}

	switch e.Code {
	case sqlite3.ErrBusy:
		return NewMySQLError(ErrCodeLockTimeout, SQLStateGeneral,
			"Lock wait timeout exceeded; try restarting transaction")
	case sqlite3.ErrLocked:
		return NewMySQLError(ErrCodeDeadlock, SQLStateDeadlock,
			"Deadlock found when trying to get lock; try restarting transaction")
	case sqlite3.ErrTooBig:
		return NewMySQLError(ErrCodeTooBigRowsize, SQLStateGeneral, msg)
	case sqlite3.ErrConstraint:
		return mapConstraintByMessage(msg)
	}

	return mapByMessage(msg)
}

func mapByMessage(msg string) *MySQLError {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "no such table"):
		return NewMySQLError(ErrCodeNoSuchTable, SQLStateNoSuchTable, msg)
	case strings.Contains(lower, "already exists"):
		return NewMySQLError(ErrCodeTableExists, SQLStateTableExists, msg)
	case strings.Contains(lower, "no column named"), strings.Contains(lower, "no such column"):
		return NewMySQLError(ErrCodeBadField, SQLStateNoSuchCol, msg)
	case strings.Contains(lower, "syntax error"):
		return NewMySQLError(ErrCodeParseError, SQLStateSyntax, msg)
	case strings.Contains(lower, "unique constraint"):
		return NewMySQLError(ErrCodeDupEntry, SQLStateIntegrity, msg)
	case strings.Contains(lower, "not null constraint"):
		return NewMySQLError(ErrCodeBadNull, SQLStateIntegrity, msg)
	case strings.Contains(lower, "foreign key constraint"):
		return NewMySQLError(ErrCodeNoReferencedRow, SQLStateIntegrity, msg)
	case strings.Contains(lower, "check constraint"):
		return NewMySQLError(ErrCodeCheckConstraint, SQLStateIntegrity, msg)
	default:
		return NewMySQLError(ErrCodeUnknown, SQLStateGeneral, msg)
	}
}

func mapConstraintByMessage(msg string) *MySQLError {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "unique"), strings.Contains(lower, "primary key"):
		return NewMySQLError(ErrCodeDupEntry, SQLStateIntegrity, msg)
	case strings.Contains(lower, "not null"):
		return NewMySQLError(ErrCodeBadNull, SQLStateIntegrity, msg)
	case strings.Contains(lower, "foreign key"):
		return NewMySQLError(ErrCodeNoReferencedRow, SQLStateIntegrity, msg)
	case strings.Contains(lower, "check"):
		return NewMySQLError(ErrCodeCheckConstraint, SQLStateIntegrity, msg)
	default:
		return NewMySQLError(ErrCodeUnknown, SQLStateIntegrity, msg)
	}
}
