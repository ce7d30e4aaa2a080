package ast

// ShowKind enumerates the supported SHOW statements.
type ShowKind int

const (
	ShowTables ShowKind = iota
	ShowColumns
	ShowIndex
	ShowTableStatus
	ShowCreateTable
	ShowDatabases
	ShowVariables
)

// Show is a SHOW pseudo-statement. Like and Where are mutually exclusive.
type Show struct {
	NodeInfo
	Kind     ShowKind
	Full     bool
	Global   bool
	Table    *TableName
	Database string
	Like     Expr
	Where    Expr
}

// Describe is DESCRIBE/DESC/EXPLAIN t [col].
type Describe struct {
	NodeInfo
	Table  *TableName
	Column string
}

// TableMaintenance is CHECK, OPTIMIZE, REPAIR or ANALYZE TABLE.
type TableMaintenance struct {
	NodeInfo
	Op     string
	Tables []*TableName
}

// TxKind enumerates transaction control statements.
type TxKind int

const (
	TxBegin TxKind = iota
	TxCommit
	TxRollback
	TxSavepoint
	TxRelease
	TxRollbackTo
)

// Transaction is a transaction control statement.
type Transaction struct {
	NodeInfo
	Kind TxKind
	Name string
}

// SetAssignment is one variable assignment of SET.
type SetAssignment struct {
	NodeInfo
	Scope string
	Name  string
	User  bool
	Value Expr
}

// Set is SET var = value[, ...], SET NAMES, SET CHARACTER SET or
// SET TRANSACTION.
type Set struct {
	NodeInfo
	Assignments []*SetAssignment
	Names       string
	Collate     string
	Transaction string
}

// Use is USE db.
type Use struct {
	NodeInfo
	Database string
}

// LockTables is LOCK TABLES ... or UNLOCK TABLES.
type LockTables struct {
	NodeInfo
	Unlock bool
	Tables []*TableName
}

func (*Show) statementNode()             {}
func (*Describe) statementNode()         {}
func (*TableMaintenance) statementNode() {}
func (*Transaction) statementNode()      {}
func (*Set) statementNode()              {}
func (*Use) statementNode()              {}
func (*LockTables) statementNode()       {}
