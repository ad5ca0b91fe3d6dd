package querytree

import "github.com/roach88/qtopt/internal/ir"

// Node is a node of the query tree.
//
// This is a sealed interface - only types in this package implement it.
// The marker method prevents external implementations and keeps type
// switches over node variants exhaustive.
//
// Node variants:
//   - QueryNode: one SELECT block
//   - UnionNode: UNION/INTERSECT/EXCEPT of query blocks
//   - ListNode: ordered list of nodes (projection, ORDER BY, LIMIT BY, arguments)
//   - SortNode: one ORDER BY element
//   - ColumnNode, ConstantNode, FunctionNode: expressions
//   - TableNode, JoinNode: FROM clause sources
type Node interface {
	Kind() NodeKind
	treeNode() // Marker method - seals interface to this package
}

// NodeKind identifies a node variant. The numeric value is part of the
// structural hash and must not be reordered.
type NodeKind uint8

const (
	KindQuery NodeKind = iota + 1
	KindUnion
	KindList
	KindSort
	KindColumn
	KindConstant
	KindFunction
	KindTable
	KindJoin
)

var kindNames = map[NodeKind]string{
	KindQuery:    "query",
	KindUnion:    "union",
	KindList:     "list",
	KindSort:     "sort",
	KindColumn:   "column",
	KindConstant: "constant",
	KindFunction: "function",
	KindTable:    "table",
	KindJoin:     "join",
}

func (k NodeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// QueryNode represents one query block.
//
// Semantics:
//
//	SELECT [DISTINCT] <projection> FROM <join_tree> WHERE <where>
//	GROUP BY <group_by> HAVING <having> ORDER BY <order_by>
//	LIMIT <limit_by_limit> [OFFSET <limit_by_offset>] BY <limit_by>
//	LIMIT <limit> [OFFSET <offset>]
//
// A nil or empty OrderBy/LimitBy list means the clause is not specified.
// OrderBy elements are expected to be *SortNode; LimitBy elements are
// arbitrary expressions.
type QueryNode struct {
	IsSubquery bool
	IsDistinct bool
	Alias      string

	Projection *ListNode
	JoinTree   Node
	Where      Node
	GroupBy    *ListNode
	Having     Node
	OrderBy    *ListNode

	LimitBy       *ListNode
	LimitByLimit  Node
	LimitByOffset Node

	Limit  Node
	Offset Node
}

func (*QueryNode) Kind() NodeKind { return KindQuery }
func (*QueryNode) treeNode()      {}

// HasOrderBy reports whether the query has a non-empty ORDER BY clause.
func (q *QueryNode) HasOrderBy() bool {
	return q.OrderBy != nil && len(q.OrderBy.Nodes) > 0
}

// OrderByNodes returns the ORDER BY elements (nil when absent).
func (q *QueryNode) OrderByNodes() []Node {
	if q.OrderBy == nil {
		return nil
	}
	return q.OrderBy.Nodes
}

// SetOrderByNodes replaces the ORDER BY elements in place.
func (q *QueryNode) SetOrderByNodes(nodes []Node) {
	if q.OrderBy == nil {
		q.OrderBy = &ListNode{}
	}
	q.OrderBy.Nodes = nodes
}

// HasLimitBy reports whether the query has a non-empty LIMIT BY clause.
func (q *QueryNode) HasLimitBy() bool {
	return q.LimitBy != nil && len(q.LimitBy.Nodes) > 0
}

// LimitByNodes returns the LIMIT BY expressions (nil when absent).
func (q *QueryNode) LimitByNodes() []Node {
	if q.LimitBy == nil {
		return nil
	}
	return q.LimitBy.Nodes
}

// SetLimitByNodes replaces the LIMIT BY expressions in place.
func (q *QueryNode) SetLimitByNodes(nodes []Node) {
	if q.LimitBy == nil {
		q.LimitBy = &ListNode{}
	}
	q.LimitBy.Nodes = nodes
}

// UnionMode is the set operation combining the queries of a UnionNode.
type UnionMode string

const (
	UnionAll          UnionMode = "UNION ALL"
	UnionDistinct     UnionMode = "UNION DISTINCT"
	IntersectAll      UnionMode = "INTERSECT ALL"
	IntersectDistinct UnionMode = "INTERSECT DISTINCT"
	ExceptAll         UnionMode = "EXCEPT ALL"
	ExceptDistinct    UnionMode = "EXCEPT DISTINCT"
)

// UnionNode combines sibling query blocks. Each element of Queries is a
// *QueryNode or a nested *UnionNode.
type UnionNode struct {
	Mode    UnionMode
	Queries *ListNode
	Alias   string
}

func (*UnionNode) Kind() NodeKind { return KindUnion }
func (*UnionNode) treeNode()      {}

// ListNode is an ordered list of nodes.
type ListNode struct {
	Nodes []Node
}

func (*ListNode) Kind() NodeKind { return KindList }
func (*ListNode) treeNode()      {}

// Len returns the number of elements; a nil list has length 0.
func (l *ListNode) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Nodes)
}

// SortDirection is the direction of one sort key.
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// NullsOrder places NULLs relative to other values. Empty means default.
type NullsOrder string

const (
	NullsDefault NullsOrder = ""
	NullsFirst   NullsOrder = "FIRST"
	NullsLast    NullsOrder = "LAST"
)

// SortNode is one ORDER BY element: an expression plus direction and
// gap-filling metadata.
//
// WithFill marks a gap-filling key (ORDER BY x WITH FILL [FROM a] [TO b]
// [STEP s]). Such a key asks the executor to synthesize missing rows along
// x, so it is never interchangeable with a plain sort on the same
// expression.
type SortNode struct {
	Expression Node
	Direction  SortDirection
	Nulls      NullsOrder
	Collation  string

	WithFill bool
	FillFrom Node
	FillTo   Node
	FillStep Node
}

func (*SortNode) Kind() NodeKind { return KindSort }
func (*SortNode) treeNode()      {}

// Expr returns the sorted expression.
func (s *SortNode) Expr() Node { return s.Expression }

// IsFill reports whether this is a WITH FILL sort key.
func (s *SortNode) IsFill() bool { return s.WithFill }

// ColumnNode references a column, optionally qualified by its source
// table or alias.
type ColumnNode struct {
	Name   string
	Source string
}

func (*ColumnNode) Kind() NodeKind { return KindColumn }
func (*ColumnNode) treeNode()      {}

// ConstantNode is a literal value.
type ConstantNode struct {
	Value ir.IRValue
}

func (*ConstantNode) Kind() NodeKind { return KindConstant }
func (*ConstantNode) treeNode()      {}

// Literal returns the constant's value, treating an unset Value as NULL.
func (c *ConstantNode) Literal() ir.IRValue {
	if c.Value == nil {
		return ir.IRNull{}
	}
	return c.Value
}

// FunctionNode is a function call (operators included: plus, equals, ...).
type FunctionNode struct {
	Name      string
	Arguments *ListNode
}

func (*FunctionNode) Kind() NodeKind { return KindFunction }
func (*FunctionNode) treeNode()      {}

// Args returns the call arguments (nil when there are none).
func (f *FunctionNode) Args() []Node {
	if f.Arguments == nil {
		return nil
	}
	return f.Arguments.Nodes
}

// TableNode references a stored table.
type TableNode struct {
	Name  string
	Alias string
}

func (*TableNode) Kind() NodeKind { return KindTable }
func (*TableNode) treeNode()      {}

// JoinType is the join type of a JoinNode.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
)

// JoinNode joins two FROM sources. On is nil for CROSS joins.
type JoinNode struct {
	Type  JoinType
	Left  Node
	Right Node
	On    Node
}

func (*JoinNode) Kind() NodeKind { return KindJoin }
func (*JoinNode) treeNode()      {}

// NewList creates a ListNode holding nodes.
func NewList(nodes ...Node) *ListNode {
	return &ListNode{Nodes: nodes}
}

// NewColumn creates an unqualified column reference.
func NewColumn(name string) *ColumnNode {
	return &ColumnNode{Name: name}
}

// NewConstant creates a literal.
func NewConstant(v ir.IRValue) *ConstantNode {
	return &ConstantNode{Value: v}
}

// NewFunction creates a function call.
func NewFunction(name string, args ...Node) *FunctionNode {
	return &FunctionNode{Name: name, Arguments: NewList(args...)}
}

// NewSort creates an ascending, non-fill sort key.
func NewSort(expr Node) *SortNode {
	return &SortNode{Expression: expr, Direction: Ascending}
}

// NewFillSort creates an ascending WITH FILL sort key.
func NewFillSort(expr Node) *SortNode {
	return &SortNode{Expression: expr, Direction: Ascending, WithFill: true}
}

// NewTable creates a table reference.
func NewTable(name string) *TableNode {
	return &TableNode{Name: name}
}
