package querytree

// Visitor is called once for every node reached by Walk.
type Visitor interface {
	Visit(node Node)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(node Node)

// Visit calls f(node).
func (f VisitorFunc) Visit(node Node) { f(node) }

// Walk traverses the tree depth-first and calls v.Visit for every node
// exactly once, parent before children, children in field order.
//
// Children are collected after the parent's visit returns, so a visitor may
// replace a node's child lists in place and Walk descends into the
// replacements.
func Walk(root Node, v Visitor) {
	Inspect(root, func(n Node) bool {
		v.Visit(n)
		return true
	})
}

// Inspect traverses the tree depth-first, calling f for each node. If f
// returns false, the children of that node are skipped.
func Inspect(root Node, f func(Node) bool) {
	if isNil(root) {
		return
	}
	if !f(root) {
		return
	}
	for _, child := range Children(root) {
		Inspect(child, f)
	}
}

// Children returns the direct, non-nil children of n in field order.
// Lists held by a query (projection, ORDER BY, ...) are returned as
// *ListNode children, so their elements are two levels below the query.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if !isNil(c) {
			out = append(out, c)
		}
	}
	addList := func(l *ListNode) {
		if l != nil {
			out = append(out, l)
		}
	}

	switch node := n.(type) {
	case *QueryNode:
		addList(node.Projection)
		add(node.JoinTree)
		add(node.Where)
		addList(node.GroupBy)
		add(node.Having)
		addList(node.OrderBy)
		addList(node.LimitBy)
		add(node.LimitByLimit)
		add(node.LimitByOffset)
		add(node.Limit)
		add(node.Offset)
	case *UnionNode:
		addList(node.Queries)
	case *ListNode:
		for _, c := range node.Nodes {
			add(c)
		}
	case *SortNode:
		add(node.Expression)
		add(node.FillFrom)
		add(node.FillTo)
		add(node.FillStep)
	case *FunctionNode:
		addList(node.Arguments)
	case *JoinNode:
		add(node.Left)
		add(node.Right)
		add(node.On)
	}
	return out
}

// Queries returns every QueryNode in the tree in visit order.
func Queries(root Node) []*QueryNode {
	var out []*QueryNode
	Walk(root, VisitorFunc(func(n Node) {
		if q, ok := n.(*QueryNode); ok {
			out = append(out, q)
		}
	}))
	return out
}
