package ast

// Select is a complete query: optional CTEs, a body, and the trailing
// ORDER BY / LIMIT / locking clauses that apply to the whole body.
type Select struct {
	NodeInfo
	With    *With
	Body    QueryExpr
	OrderBy []*OrderItem
	Limit   *Limit
	Lock    string
}

// With is a WITH clause.
type With struct {
	NodeInfo
	Recursive bool
	CTEs      []*CTE
}

// CTE is one common table expression.
type CTE struct {
	NodeInfo
	Name    string
	Columns []string
	Query   *Select
}

// QuerySpec is a single SELECT ... FROM ... WHERE ... GROUP BY ... HAVING.
type QuerySpec struct {
	NodeInfo
	Distinct      bool
	CalcFoundRows bool
	// Modifiers holds MySQL select options with no SQLite meaning
	// (HIGH_PRIORITY, SQL_NO_CACHE, STRAIGHT_JOIN, ...).
	Modifiers  []string
	Items      []*SelectItem
	From       []TableExpr
	Where      Expr
	GroupBy    []Expr
	WithRollup bool
	Having     Expr
}

// SetOperation is UNION, EXCEPT or INTERSECT of two query bodies.
type SetOperation struct {
	NodeInfo
	Op    string
	All   bool
	Left  QueryExpr
	Right QueryExpr
}

// ParenQuery is a parenthesized query used as a set operation operand.
type ParenQuery struct {
	NodeInfo
	Query *Select
}

// SelectItem is one entry of the select list.
type SelectItem struct {
	NodeInfo
	Expr  Expr
	Alias string
}

// OrderItem is an ORDER BY term.
type OrderItem struct {
	NodeInfo
	Expr Expr
	Desc bool
	// Direction is the keyword as written ("ASC", "DESC" or empty).
	Direction string
}

// Limit holds LIMIT count [OFFSET offset] (or LIMIT offset, count).
type Limit struct {
	NodeInfo
	Count  Expr
	Offset Expr
}

// TableName references a base table, optionally schema-qualified.
type TableName struct {
	NodeInfo
	Schema string
	Name   string
	Alias  string
	Hints  []*IndexHint
}

// Ref returns the name the table is referred to by in the query.
func (t *TableName) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// IndexHint is USE/FORCE/IGNORE INDEX [FOR scope] (names).
type IndexHint struct {
	NodeInfo
	Kind    string
	Scope   string
	Indexes []string
}

// JoinKind enumerates the join operators.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinCross
	JoinLeft
	JoinRight
	JoinStraight
	JoinNatural
	JoinNaturalLeft
	JoinNaturalRight
)

var joinKeywords = map[JoinKind]string{
	JoinInner:        "JOIN",
	JoinCross:        "CROSS JOIN",
	JoinLeft:         "LEFT JOIN",
	JoinRight:        "RIGHT JOIN",
	JoinStraight:     "STRAIGHT_JOIN",
	JoinNatural:      "NATURAL JOIN",
	JoinNaturalLeft:  "NATURAL LEFT JOIN",
	JoinNaturalRight: "NATURAL RIGHT JOIN",
}

func (k JoinKind) String() string {
	return joinKeywords[k]
}

// Outer reports whether the join preserves unmatched rows of one side.
func (k JoinKind) Outer() bool {
	switch k {
	case JoinLeft, JoinRight, JoinNaturalLeft, JoinNaturalRight:
		return true
	}
	return false
}

// Join is a binary join of two table expressions.
type Join struct {
	NodeInfo
	Kind  JoinKind
	Left  TableExpr
	Right TableExpr
	On    Expr
	Using []string
}

// DerivedTable is a subquery in FROM.
type DerivedTable struct {
	NodeInfo
	Lateral bool
	Query   *Select
	Alias   string
	Columns []string
}

// ParenTable is a parenthesized list of table expressions.
type ParenTable struct {
	NodeInfo
	Tables []TableExpr
}

func (*Select) statementNode() {}

func (*QuerySpec) queryExprNode()    {}
func (*SetOperation) queryExprNode() {}
func (*ParenQuery) queryExprNode()   {}

func (*TableName) tableExprNode()    {}
func (*Join) tableExprNode()         {}
func (*DerivedTable) tableExprNode() {}
func (*ParenTable) tableExprNode()   {}
