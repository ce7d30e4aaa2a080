// Package ast defines the syntax tree produced by the MySQL parser.
//
// The node set is closed: Statement, QueryExpr, TableExpr, Expr and AlterSpec
// are sealed interfaces whose implementations all live in this package, so a
// type switch over them in the rewriter can be checked for completeness.
package ast

// Span is a half-open byte range [Start, End) into the parsed source.
type Span struct {
	Start int
	End   int
}

// Text returns the source text covered by the span.
func (s Span) Text(src string) string {
	if s.Start < 0 || s.End > len(src) || s.Start > s.End {
		return ""
	}
	return src[s.Start:s.End]
}

// Node is implemented by every syntax tree node.
type Node interface {
	NodeSpan() Span
}

// NodeInfo carries the common fields for all nodes.
type NodeInfo struct {
	Span Span
}

// NodeSpan returns the node's source span.
func (n *NodeInfo) NodeSpan() Span {
	return n.Span
}

// Statement is a top-level SQL statement.
type Statement interface {
	Node
	statementNode()
}

// QueryExpr is the body of a SELECT: a query specification, a set
// operation of two bodies, or a parenthesized query.
type QueryExpr interface {
	Node
	queryExprNode()
}

// TableExpr is an entry of a FROM clause.
type TableExpr interface {
	Node
	tableExprNode()
}

// Expr is a scalar or boolean expression.
type Expr interface {
	Node
	exprNode()
}

// AlterSpec is one comma-separated action of an ALTER TABLE statement.
type AlterSpec interface {
	Node
	alterSpecNode()
}

// Parsed couples a statement with the source text its spans refer to.
type Parsed struct {
	Source    string
	Statement Statement
}

// Text returns the original text of a node.
func (p *Parsed) Text(n Node) string {
	return n.NodeSpan().Text(p.Source)
}
