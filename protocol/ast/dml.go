package ast

// Assignment is col = value in SET or ON DUPLICATE KEY UPDATE.
type Assignment struct {
	NodeInfo
	Column *ColumnRef
	Value  Expr
}

// Insert is INSERT or REPLACE in its VALUES, SET and SELECT forms.
type Insert struct {
	NodeInfo
	Replace     bool
	Ignore      bool
	Priority    string
	Table       *TableName
	Columns     []string
	Rows        [][]Expr
	Select      *Select
	Set         []*Assignment
	OnDuplicate []*Assignment
}

// Update is a single- or multi-table UPDATE.
type Update struct {
	NodeInfo
	LowPriority bool
	Ignore      bool
	Tables      []TableExpr
	Set         []*Assignment
	Where       Expr
	OrderBy     []*OrderItem
	Limit       *Limit
}

// Delete is a single- or multi-table DELETE. Targets is set for the
// multi-table forms (DELETE a, b FROM ... and DELETE FROM a, b USING ...).
type Delete struct {
	NodeInfo
	LowPriority bool
	Quick       bool
	Ignore      bool
	Targets     []string
	From        []TableExpr
	Where       Expr
	OrderBy     []*OrderItem
	Limit       *Limit
}

func (*Insert) statementNode() {}
func (*Update) statementNode() {}
func (*Delete) statementNode() {}
