// Package querytree provides the in-memory query tree that optimization
// passes operate on.
//
// NODE VARIANTS:
//
// Node is a sealed interface using the marker method pattern. The closed set
// of variants is:
//
//	QueryNode     one SELECT block with its clauses
//	UnionNode     UNION / INTERSECT / EXCEPT of query blocks
//	ListNode      ordered node list (projection, ORDER BY, LIMIT BY, args)
//	SortNode      one ORDER BY key, optionally WITH FILL
//	ColumnNode    column reference
//	ConstantNode  literal (ir.IRValue, no floats)
//	FunctionNode  function or operator call
//	TableNode     stored table
//	JoinNode      join of two FROM sources
//
// Passes dispatch with type switches:
//
//	switch n := node.(type) {
//	case *QueryNode:
//	    // clause-level rewrite
//	case *SortNode:
//	    // sort key
//	}
//
// STRUCTURAL IDENTITY:
//
// TreeHash and IsEqual define when two subtrees describe the same
// expression. Both ignore pointer identity and compare shape, scalar fields
// and literal values only. They agree: IsEqual(a, b) implies
// TreeHash(a) == TreeHash(b). No algebraic equivalence is attempted.
//
// TRAVERSAL:
//
// Walk visits every node once, depth-first, parent first. Children are read
// after the parent's visit, so a visitor may rewrite a node's clause lists
// in place.
//
// DOCUMENTS:
//
// Encode and Decode convert trees to and from plain maps and slices, the
// form read from YAML, JSON and CUE sources and hashed with
// ir.MarshalCanonical.
package querytree
