package protocol

import (
	"errors"
	"fmt"

	"vitess.io/vitess/go/mysql/sqlerror"
)

// MySQLError is an error carrying a MySQL error code and SQLSTATE, formatted
// the way the mysql client prints it. The message keeps the SQLite text when
// the error came from the target engine.
type MySQLError struct {
	Code     uint16
	SQLState string
	Message  string
}

func (e *MySQLError) Error() string {
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.SQLState, e.Message)
}

// NewMySQLError creates a new MySQL error
func NewMySQLError(code uint16, sqlState, message string) *MySQLError {
	return &MySQLError{
		Code:     code,
		SQLState: sqlState,
		Message:  message,
	}
}

// Errorf creates a MySQL error with a formatted message.
func Errorf(code uint16, sqlState, format string, args ...any) *MySQLError {
	return NewMySQLError(code, sqlState, fmt.Sprintf(format, args...))
}

// Error codes. Codes vitess does not name are spelled out.
const (
	ErrCodeDupEntry        = uint16(sqlerror.ERDupEntry)
	ErrCodeNoSuchTable     = uint16(sqlerror.ERNoSuchTable)
	ErrCodeBadField        = uint16(sqlerror.ERBadFieldError)
	ErrCodeParseError      = uint16(sqlerror.ERParseError)
	ErrCodeUnknown         = uint16(sqlerror.ERUnknownError)
	ErrCodeBadNull         = uint16(sqlerror.ERBadNullError)
	ErrCodeTableExists     = uint16(sqlerror.ERTableExists)
	ErrCodeDeadlock        = uint16(sqlerror.ERLockDeadlock)
	ErrCodeLockTimeout     = uint16(sqlerror.ERLockWaitTimeout)
	ErrCodeNoReferencedRow = uint16(sqlerror.ErNoReferencedRow2)
	ErrCodeRowIsReferenced = uint16(sqlerror.ERRowIsReferenced2)
	ErrCodeNotSupported    = uint16(sqlerror.ERNotSupportedYet)
	ErrCodeBadDB           = uint16(sqlerror.ERBadDb)

	ErrCodeNonUniq            uint16 = 1052
	ErrCodeBadTable           uint16 = 1051
	ErrCodeDupFieldName       uint16 = 1060
	ErrCodeDupKeyName         uint16 = 1061
	ErrCodeMultiplePriKey     uint16 = 1068
	ErrCodeKeyColumnMissing   uint16 = 1072
	ErrCodeWrongAutoKey       uint16 = 1075
	ErrCodeUnknownTable       uint16 = 1109
	ErrCodeCantDropFieldOrKey uint16 = 1091
	ErrCodeWrongValueCount    uint16 = 1136
	ErrCodeTooBigRowsize      uint16 = 1118
	ErrCodeNoSuchIndex        uint16 = 1176
	ErrCodeUnknownSystemVar   uint16 = 1193
	ErrCodeSavepointNotExist  uint16 = 1305
	ErrCodeWrongUsage         uint16 = 1221
	ErrCodeWrongParamCount    uint16 = 1582
	ErrCodeCheckConstraint    uint16 = 3819
)

// SQLSTATE values.
const (
	SQLStateGeneral     = sqlerror.SSUnknownSQLState
	SQLStateIntegrity   = sqlerror.SSConstraintViolation
	SQLStateSyntax      = sqlerror.SSClientError
	SQLStateNoSuchTable = sqlerror.SSUnknownTable
	SQLStateNoSuchCol   = sqlerror.SSBadFieldError
	SQLStateTableExists = "42S01"
	SQLStateDeadlock    = "40001"
	SQLStateDupField    = "42S21"
	SQLStateValueCount  = "21S01"
)

// ErrLockWaitTimeout returns error 1205 - lock wait timeout exceeded
func ErrLockWaitTimeout() *MySQLError {
	return NewMySQLError(ErrCodeLockTimeout, SQLStateGeneral, "Lock wait timeout exceeded; try restarting transaction")
}

// ErrDeadlock returns error 1213 - deadlock detected
func ErrDeadlock() *MySQLError {
	return NewMySQLError(ErrCodeDeadlock, SQLStateDeadlock, "Deadlock found when trying to get lock; try restarting transaction")
}

// ErrNoSuchTable returns error 1146 for the given table.
func ErrNoSuchTable(schema, table string) *MySQLError {
	return Errorf(ErrCodeNoSuchTable, SQLStateNoSuchTable, "Table '%s.%s' doesn't exist", schema, table)
}

// ErrUnknownSystemVariable returns error 1193.
func ErrUnknownSystemVariable(name string) *MySQLError {
	return Errorf(ErrCodeUnknownSystemVar, SQLStateGeneral, "Unknown system variable '%s'", name)
}

// IsRetryableError checks if an error is a retryable transaction error
func IsRetryableError(err error) bool {
	var mysqlErr *MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}

	switch mysqlErr.Code {
	case ErrCodeLockTimeout, ErrCodeDeadlock:
		return true
	default:
		return false
	}
}
