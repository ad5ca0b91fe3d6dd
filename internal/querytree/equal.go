package querytree

import (
	"fmt"

	"github.com/roach88/qtopt/internal/ir"
)

// IsEqual reports whether two subtrees are structurally equal: same
// variants, same scalar fields, same literals, pairwise-equal children in
// the same order. Pointer identity is irrelevant.
//
// No algebraic reasoning is applied: plus(a, 1) and plus(1, a) differ.
// nil equals only nil; a nil *ListNode equals an empty one.
func IsEqual(a, b Node) bool {
	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil == bNil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *QueryNode:
		y := b.(*QueryNode)
		return x.IsSubquery == y.IsSubquery &&
			x.IsDistinct == y.IsDistinct &&
			x.Alias == y.Alias &&
			listsEqual(x.Projection, y.Projection) &&
			IsEqual(x.JoinTree, y.JoinTree) &&
			IsEqual(x.Where, y.Where) &&
			listsEqual(x.GroupBy, y.GroupBy) &&
			IsEqual(x.Having, y.Having) &&
			listsEqual(x.OrderBy, y.OrderBy) &&
			listsEqual(x.LimitBy, y.LimitBy) &&
			IsEqual(x.LimitByLimit, y.LimitByLimit) &&
			IsEqual(x.LimitByOffset, y.LimitByOffset) &&
			IsEqual(x.Limit, y.Limit) &&
			IsEqual(x.Offset, y.Offset)
	case *UnionNode:
		y := b.(*UnionNode)
		return x.Mode == y.Mode && x.Alias == y.Alias && listsEqual(x.Queries, y.Queries)
	case *ListNode:
		return listsEqual(x, b.(*ListNode))
	case *SortNode:
		y := b.(*SortNode)
		return x.Direction == y.Direction &&
			x.Nulls == y.Nulls &&
			x.Collation == y.Collation &&
			x.WithFill == y.WithFill &&
			IsEqual(x.Expression, y.Expression) &&
			IsEqual(x.FillFrom, y.FillFrom) &&
			IsEqual(x.FillTo, y.FillTo) &&
			IsEqual(x.FillStep, y.FillStep)
	case *ColumnNode:
		y := b.(*ColumnNode)
		return x.Name == y.Name && x.Source == y.Source
	case *ConstantNode:
		return ir.Equal(x.Literal(), b.(*ConstantNode).Literal())
	case *FunctionNode:
		y := b.(*FunctionNode)
		return x.Name == y.Name && listsEqual(x.Arguments, y.Arguments)
	case *TableNode:
		y := b.(*TableNode)
		return x.Name == y.Name && x.Alias == y.Alias
	case *JoinNode:
		y := b.(*JoinNode)
		return x.Type == y.Type &&
			IsEqual(x.Left, y.Left) &&
			IsEqual(x.Right, y.Right) &&
			IsEqual(x.On, y.On)
	default:
		panic(fmt.Sprintf("querytree: unknown node type %T", a))
	}
}

func listsEqual(a, b *ListNode) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !IsEqual(a.Nodes[i], b.Nodes[i]) {
			return false
		}
	}
	return true
}
