package ast

// LiteralKind classifies literal values.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInteger
	LiteralDecimal
	LiteralHex
	LiteralBit
	LiteralNull
	LiteralTrue
	LiteralFalse
)

// ColumnRef is a possibly qualified column name.
type ColumnRef struct {
	NodeInfo
	Schema string
	Table  string
	Name   string
}

// Star is * or t.* in a select list or COUNT(*).
type Star struct {
	NodeInfo
	Table string
}

// Literal is a constant. Value holds the decoded value: the unescaped string,
// the digits of a number, hex digits for LiteralHex and 0/1 digits for
// LiteralBit. Introducer keeps a charset introducer such as _utf8mb4.
type Literal struct {
	NodeInfo
	Kind       LiteralKind
	Value      string
	Introducer string
}

// Param is a positional (?) or named (:name) placeholder. Index counts
// positional placeholders from zero in source order.
type Param struct {
	NodeInfo
	Index int
	Name  string
}

// SystemVar is @@name, @@SESSION.name or @@GLOBAL.name.
type SystemVar struct {
	NodeInfo
	Scope string
	Name  string
}

// UserVar is @name.
type UserVar struct {
	NodeInfo
	Name string
}

// Unary is a prefix operator: -, +, ~, !, NOT or BINARY.
type Unary struct {
	NodeInfo
	Op string
	X  Expr
}

// Binary is an infix operator. Op is normalized: && is AND, || is OR,
// MOD is %, and <> is !=.
type Binary struct {
	NodeInfo
	Op    string
	Left  Expr
	Right Expr
}

// Paren is a parenthesized expression.
type Paren struct {
	NodeInfo
	X Expr
}

// Tuple is a row constructor (a, b, ...).
type Tuple struct {
	NodeInfo
	Items []Expr
}

// FuncCall is a function or aggregate call. Name is upper-cased.
type FuncCall struct {
	NodeInfo
	Name      string
	Args      []Expr
	Distinct  bool
	Star      bool
	OrderBy   []*OrderItem
	Separator *Literal
	Over      *WindowSpec
	// Keyword is the unit of EXTRACT(unit FROM x) or the LEADING/TRAILING/BOTH
	// side of TRIM.
	Keyword string
}

// WindowSpec is the OVER clause of a window function.
type WindowSpec struct {
	NodeInfo
	Name        string
	PartitionBy []Expr
	OrderBy     []*OrderItem
	// Frame is the frame clause as written, e.g. "ROWS BETWEEN 1 PRECEDING AND CURRENT ROW".
	Frame string
}

// Case is CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type Case struct {
	NodeInfo
	Operand Expr
	Whens   []*When
	Else    Expr
}

// When is one WHEN arm of a CASE.
type When struct {
	NodeInfo
	Cond   Expr
	Result Expr
}

// Cast is CAST(x AS type), CONVERT(x, type) or CONVERT(x USING charset).
type Cast struct {
	NodeInfo
	X       Expr
	Type    *DataType
	Convert bool
	Using   string
}

// In is x [NOT] IN (list) or x [NOT] IN (subquery).
type In struct {
	NodeInfo
	X     Expr
	Not   bool
	List  []Expr
	Query *Select
}

// Between is x [NOT] BETWEEN low AND high.
type Between struct {
	NodeInfo
	X    Expr
	Not  bool
	Low  Expr
	High Expr
}

// Like is x [NOT] LIKE/REGEXP/RLIKE pattern [ESCAPE e].
type Like struct {
	NodeInfo
	Op      string
	X       Expr
	Not     bool
	Pattern Expr
	Escape  Expr
}

// Is is x IS [NOT] NULL/TRUE/FALSE/UNKNOWN.
type Is struct {
	NodeInfo
	X     Expr
	Not   bool
	Value string
}

// Exists is EXISTS (subquery).
type Exists struct {
	NodeInfo
	Query *Select
}

// Subquery is a scalar subquery.
type Subquery struct {
	NodeInfo
	Query *Select
}

// Quantified is x op ANY/SOME/ALL (subquery).
type Quantified struct {
	NodeInfo
	Op         string
	Quantifier string
	X          Expr
	Query      *Select
}

// Interval is INTERVAL value unit.
type Interval struct {
	NodeInfo
	Value Expr
	Unit  string
}

// Collate is x COLLATE name.
type Collate struct {
	NodeInfo
	X         Expr
	Collation string
}

// Default is the DEFAULT keyword in VALUES/SET, or DEFAULT(col).
type Default struct {
	NodeInfo
	Column string
}

// ValuesRef is VALUES(col) inside ON DUPLICATE KEY UPDATE.
type ValuesRef struct {
	NodeInfo
	Column string
}

// Match is MATCH (cols) AGAINST (expr [modifier]).
type Match struct {
	NodeInfo
	Columns  []*ColumnRef
	Against  Expr
	Modifier string
}

func (*ColumnRef) exprNode()  {}
func (*Star) exprNode()       {}
func (*Literal) exprNode()    {}
func (*Param) exprNode()      {}
func (*SystemVar) exprNode()  {}
func (*UserVar) exprNode()    {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Paren) exprNode()      {}
func (*Tuple) exprNode()      {}
func (*FuncCall) exprNode()   {}
func (*Case) exprNode()       {}
func (*Cast) exprNode()       {}
func (*In) exprNode()         {}
func (*Between) exprNode()    {}
func (*Like) exprNode()       {}
func (*Is) exprNode()         {}
func (*Exists) exprNode()     {}
func (*Subquery) exprNode()   {}
func (*Quantified) exprNode() {}
func (*Interval) exprNode()   {}
func (*Collate) exprNode()    {}
func (*Default) exprNode()    {}
func (*ValuesRef) exprNode()  {}
func (*Match) exprNode()      {}
