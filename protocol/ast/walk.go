package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false the children of that node are skipped.
// Subqueries are descended into.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || isNilNode(n) {
		return
	}
	if !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Select:
		return v == nil
	case *Limit:
		return v == nil
	case *TableName:
		return v == nil
	case *Literal:
		return v == nil
	case *WindowSpec:
		return v == nil
	case *With:
		return v == nil
	case *DataType:
		return v == nil
	case *ColumnRef:
		return v == nil
	}
	return false
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(cs ...Node) {
		for _, c := range cs {
			if c != nil && !isNilNode(c) {
				out = append(out, c)
			}
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	addOrder := func(items []*OrderItem) {
		for _, o := range items {
			out = append(out, o)
		}
	}
	addTables := func(ts []TableExpr) {
		for _, t := range ts {
			out = append(out, t)
		}
	}
	addAssign := func(as []*Assignment) {
		for _, a := range as {
			out = append(out, a)
		}
	}
	expr := func(e Expr) Node {
		if e == nil {
			return nil
		}
		return e
	}

	switch v := n.(type) {
	case *Select:
		if v.With != nil {
			add(v.With)
		}
		add(v.Body)
		addOrder(v.OrderBy)
		if v.Limit != nil {
			add(v.Limit)
		}
	case *With:
		for _, c := range v.CTEs {
			add(c)
		}
	case *CTE:
		add(v.Query)
	case *QuerySpec:
		for _, it := range v.Items {
			add(it)
		}
		addTables(v.From)
		add(expr(v.Where))
		addExprs(v.GroupBy)
		add(expr(v.Having))
	case *SetOperation:
		add(v.Left, v.Right)
	case *ParenQuery:
		add(v.Query)
	case *SelectItem:
		add(expr(v.Expr))
	case *OrderItem:
		add(expr(v.Expr))
	case *Limit:
		add(expr(v.Count), expr(v.Offset))
	case *Join:
		add(v.Left, v.Right, expr(v.On))
	case *DerivedTable:
		add(v.Query)
	case *ParenTable:
		addTables(v.Tables)
	case *TableName, *ColumnRef, *Star, *Literal, *Param, *SystemVar, *UserVar,
		*Default, *ValuesRef, *IndexHint, *DataType:
	case *Unary:
		add(v.X)
	case *Binary:
		add(v.Left, v.Right)
	case *Paren:
		add(v.X)
	case *Tuple:
		addExprs(v.Items)
	case *FuncCall:
		addExprs(v.Args)
		addOrder(v.OrderBy)
		if v.Over != nil {
			add(v.Over)
		}
	case *WindowSpec:
		addExprs(v.PartitionBy)
		addOrder(v.OrderBy)
	case *Case:
		add(expr(v.Operand))
		for _, w := range v.Whens {
			add(w)
		}
		add(expr(v.Else))
	case *When:
		add(v.Cond, v.Result)
	case *Cast:
		add(v.X)
	case *In:
		add(v.X)
		addExprs(v.List)
		if v.Query != nil {
			add(v.Query)
		}
	case *Between:
		add(v.X, v.Low, v.High)
	case *Like:
		add(v.X, v.Pattern, expr(v.Escape))
	case *Is:
		add(v.X)
	case *Exists:
		add(v.Query)
	case *Subquery:
		add(v.Query)
	case *Quantified:
		add(v.X, v.Query)
	case *Interval:
		add(v.Value)
	case *Collate:
		add(v.X)
	case *Match:
		for _, c := range v.Columns {
			add(c)
		}
		add(v.Against)
	case *Assignment:
		add(v.Column, expr(v.Value))
	case *Insert:
		add(v.Table)
		for _, row := range v.Rows {
			addExprs(row)
		}
		if v.Select != nil {
			add(v.Select)
		}
		addAssign(v.Set)
		addAssign(v.OnDuplicate)
	case *Update:
		addTables(v.Tables)
		addAssign(v.Set)
		add(expr(v.Where))
		addOrder(v.OrderBy)
		if v.Limit != nil {
			add(v.Limit)
		}
	case *Delete:
		addTables(v.From)
		add(expr(v.Where))
		addOrder(v.OrderBy)
		if v.Limit != nil {
			add(v.Limit)
		}
	case *Show:
		add(expr(v.Like), expr(v.Where))
	case *SetAssignment:
		add(expr(v.Value))
	case *Set:
		for _, a := range v.Assignments {
			add(a)
		}
	case *CreateTable:
		if v.AsSelect != nil {
			add(v.AsSelect)
		}
	}
	return out
}
