package querytree

import "fmt"

// Clone returns a deep copy of the subtree. Literal values are immutable
// and shared.
func Clone(n Node) Node {
	if isNil(n) {
		return nil
	}

	switch node := n.(type) {
	case *QueryNode:
		return &QueryNode{
			IsSubquery:    node.IsSubquery,
			IsDistinct:    node.IsDistinct,
			Alias:         node.Alias,
			Projection:    cloneList(node.Projection),
			JoinTree:      Clone(node.JoinTree),
			Where:         Clone(node.Where),
			GroupBy:       cloneList(node.GroupBy),
			Having:        Clone(node.Having),
			OrderBy:       cloneList(node.OrderBy),
			LimitBy:       cloneList(node.LimitBy),
			LimitByLimit:  Clone(node.LimitByLimit),
			LimitByOffset: Clone(node.LimitByOffset),
			Limit:         Clone(node.Limit),
			Offset:        Clone(node.Offset),
		}
	case *UnionNode:
		return &UnionNode{Mode: node.Mode, Alias: node.Alias, Queries: cloneList(node.Queries)}
	case *ListNode:
		return cloneList(node)
	case *SortNode:
		return &SortNode{
			Expression: Clone(node.Expression),
			Direction:  node.Direction,
			Nulls:      node.Nulls,
			Collation:  node.Collation,
			WithFill:   node.WithFill,
			FillFrom:   Clone(node.FillFrom),
			FillTo:     Clone(node.FillTo),
			FillStep:   Clone(node.FillStep),
		}
	case *ColumnNode:
		c := *node
		return &c
	case *ConstantNode:
		c := *node
		return &c
	case *FunctionNode:
		return &FunctionNode{Name: node.Name, Arguments: cloneList(node.Arguments)}
	case *TableNode:
		c := *node
		return &c
	case *JoinNode:
		return &JoinNode{
			Type:  node.Type,
			Left:  Clone(node.Left),
			Right: Clone(node.Right),
			On:    Clone(node.On),
		}
	default:
		panic(fmt.Sprintf("querytree: unknown node type %T", n))
	}
}

func cloneList(l *ListNode) *ListNode {
	if l == nil {
		return nil
	}
	out := &ListNode{Nodes: make([]Node, len(l.Nodes))}
	for i, c := range l.Nodes {
		out.Nodes[i] = Clone(c)
	}
	return out
}
