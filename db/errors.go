package db

// TransactionState names the invalid state a transaction call was made in.
type TransactionState int

const (
	// AlreadyActive is returned when a transaction is started while one is open.
	AlreadyActive TransactionState = iota
	// NoneActive is returned by a commit or rollback with nothing open.
	NoneActive
)

// TransactionStateError reports a begin, commit or rollback that is invalid
// for the current transaction state.
type TransactionStateError struct {
	State TransactionState
}

func (e *TransactionStateError) Error() string {
	if e.State == AlreadyActive {
		return "There is already an active transaction"
	}
	return "There is no active transaction"
}

var (
	ErrAlreadyActive = &TransactionStateError{State: AlreadyActive}
	ErrNoneActive    = &TransactionStateError{State: NoneActive}
)
