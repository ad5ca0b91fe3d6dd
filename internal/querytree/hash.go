package querytree

import (
	"fmt"

	"github.com/roach88/qtopt/internal/ir"
)

// Field markers keep optional children apart in the hash stream: a query
// with only WHERE set must not hash like one with only HAVING set.
const (
	markAbsent  byte = 0x00
	markPresent byte = 0x01
)

// TreeHash computes the structural hash of a subtree.
//
// The hash is a function of node kinds, scalar fields, literal values and
// the order of children. It never depends on pointer identity, so two
// separately built trees describing the same expression hash equal.
// Structurally equal trees (IsEqual) always hash equal; the converse holds
// only up to collisions, which callers resolve with IsEqual.
//
// A nil *ListNode and an empty one hash the same, matching IsEqual.
func TreeHash(n Node) uint64 {
	h := ir.NewHasher()
	writeNode(h, n)
	return h.Sum64()
}

func writeNode(h *ir.Hasher, n Node) {
	if isNil(n) {
		h.Tag(markAbsent)
		return
	}
	h.Tag(markPresent)
	h.Tag(byte(n.Kind()))

	switch node := n.(type) {
	case *QueryNode:
		h.Bool(node.IsSubquery)
		h.Bool(node.IsDistinct)
		h.String(node.Alias)
		writeList(h, node.Projection)
		writeNode(h, node.JoinTree)
		writeNode(h, node.Where)
		writeList(h, node.GroupBy)
		writeNode(h, node.Having)
		writeList(h, node.OrderBy)
		writeList(h, node.LimitBy)
		writeNode(h, node.LimitByLimit)
		writeNode(h, node.LimitByOffset)
		writeNode(h, node.Limit)
		writeNode(h, node.Offset)
	case *UnionNode:
		h.String(string(node.Mode))
		h.String(node.Alias)
		writeList(h, node.Queries)
	case *ListNode:
		writeList(h, node)
	case *SortNode:
		h.String(string(node.Direction))
		h.String(string(node.Nulls))
		h.String(node.Collation)
		h.Bool(node.WithFill)
		writeNode(h, node.Expression)
		writeNode(h, node.FillFrom)
		writeNode(h, node.FillTo)
		writeNode(h, node.FillStep)
	case *ColumnNode:
		h.String(node.Name)
		h.String(node.Source)
	case *ConstantNode:
		if err := h.Value(node.Literal()); err != nil {
			// Sealed IRValue types always marshal; anything else is a bug.
			panic(fmt.Sprintf("querytree: unhashable constant: %v", err))
		}
	case *FunctionNode:
		h.String(node.Name)
		writeList(h, node.Arguments)
	case *TableNode:
		h.String(node.Name)
		h.String(node.Alias)
	case *JoinNode:
		h.String(string(node.Type))
		writeNode(h, node.Left)
		writeNode(h, node.Right)
		writeNode(h, node.On)
	default:
		panic(fmt.Sprintf("querytree: unknown node type %T", n))
	}
}

func writeList(h *ir.Hasher, l *ListNode) {
	h.Int(int64(l.Len()))
	if l == nil {
		return
	}
	for _, child := range l.Nodes {
		writeNode(h, child)
	}
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch node := n.(type) {
	case *QueryNode:
		return node == nil
	case *UnionNode:
		return node == nil
	case *ListNode:
		return node == nil
	case *SortNode:
		return node == nil
	case *ColumnNode:
		return node == nil
	case *ConstantNode:
		return node == nil
	case *FunctionNode:
		return node == nil
	case *TableNode:
		return node == nil
	case *JoinNode:
		return node == nil
	}
	return false
}
