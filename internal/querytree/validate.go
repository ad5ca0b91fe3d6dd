package querytree

import "fmt"

// Violation is one breach of the tree contract.
type Violation struct {
	// Path locates the offending node, e.g. "query.order_by[2]".
	Path string `json:"path"`

	// Message describes the breach.
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	// Valid is true when Violations is empty.
	Valid bool `json:"valid"`

	// Violations lists every breach found, in traversal order.
	Violations []Violation `json:"violations,omitempty"`
}

// Validate checks that a tree honours the contract optimization passes
// rely on:
//  1. Every ORDER BY element is a non-nil *SortNode with an expression
//  2. LIMIT BY elements are non-nil expressions, not sort keys
//  3. List elements are never nil
//  4. Columns, functions and tables are named
//  5. Joins have both sides; union members are queries or unions
//
// Passes do not call Validate; they fail loudly on contract breaches
// instead. Validate lets front ends reject bad input before it reaches the
// pipeline and report every problem at once.
//
// Validate is a pure function with no side effects.
func Validate(root Node) ValidationResult {
	v := &validator{}
	v.validateNode(root, rootPath(root))
	return ValidationResult{
		Valid:      len(v.violations) == 0,
		Violations: v.violations,
	}
}

// validator accumulates violations during traversal.
type validator struct {
	violations []Violation
}

func (v *validator) addViolation(path, format string, args ...any) {
	v.violations = append(v.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

func rootPath(n Node) string {
	if isNil(n) {
		return "$"
	}
	return n.Kind().String()
}

func (v *validator) validateNode(n Node, path string) {
	if isNil(n) {
		v.addViolation(path, "nil node")
		return
	}

	switch node := n.(type) {
	case *QueryNode:
		v.validateQuery(node, path)
	case *UnionNode:
		if node.Queries.Len() == 0 {
			v.addViolation(path+".queries", "union requires at least one query")
		}
		for i, q := range node.Queries.nodes() {
			elemPath := fmt.Sprintf("%s.queries[%d]", path, i)
			switch q.(type) {
			case *QueryNode, *UnionNode:
				v.validateNode(q, elemPath)
			default:
				if isNil(q) {
					v.addViolation(elemPath, "nil node")
				} else {
					v.addViolation(elemPath, "union member must be a query or union, got %s", q.Kind())
				}
			}
		}
	case *ListNode:
		v.validateList(node, path)
	case *SortNode:
		v.validateSort(node, path)
	case *ColumnNode:
		if node.Name == "" {
			v.addViolation(path, "column name is required")
		}
	case *ConstantNode:
		// Any IRValue is a valid literal.
	case *FunctionNode:
		if node.Name == "" {
			v.addViolation(path, "function name is required")
		}
		v.validateList(node.Arguments, path+".args")
	case *TableNode:
		if node.Name == "" {
			v.addViolation(path, "table name is required")
		}
	case *JoinNode:
		v.validateNode(node.Left, path+".left")
		v.validateNode(node.Right, path+".right")
		if node.On != nil {
			v.validateNode(node.On, path+".on")
		}
	default:
		v.addViolation(path, "unknown node type %T", n)
	}
}

func (v *validator) validateQuery(q *QueryNode, path string) {
	v.validateList(q.Projection, path+".projection")
	v.validateOptional(q.JoinTree, path+".from")
	v.validateOptional(q.Where, path+".where")
	v.validateList(q.GroupBy, path+".group_by")
	v.validateOptional(q.Having, path+".having")

	// Rule 1: ORDER BY holds sort keys only
	for i, elem := range q.OrderByNodes() {
		elemPath := fmt.Sprintf("%s.order_by[%d]", path, i)
		sort, ok := elem.(*SortNode)
		if !ok || sort == nil {
			if isNil(elem) {
				v.addViolation(elemPath, "nil node")
			} else {
				v.addViolation(elemPath, "order by element must be a sort node, got %s", elem.Kind())
			}
			continue
		}
		v.validateSort(sort, elemPath)
	}

	// Rule 2: LIMIT BY holds expressions
	for i, elem := range q.LimitByNodes() {
		elemPath := fmt.Sprintf("%s.limit_by[%d]", path, i)
		if _, isSort := elem.(*SortNode); isSort {
			v.addViolation(elemPath, "limit by element must be an expression, got sort")
			continue
		}
		v.validateNode(elem, elemPath)
	}

	v.validateOptional(q.LimitByLimit, path+".limit_by_limit")
	v.validateOptional(q.LimitByOffset, path+".limit_by_offset")
	v.validateOptional(q.Limit, path+".limit")
	v.validateOptional(q.Offset, path+".offset")
}

func (v *validator) validateSort(s *SortNode, path string) {
	if isNil(s.Expression) {
		v.addViolation(path+".expr", "sort node requires an expression")
	} else {
		v.validateNode(s.Expression, path+".expr")
	}
	if !s.WithFill && (s.FillFrom != nil || s.FillTo != nil || s.FillStep != nil) {
		v.addViolation(path, "fill bounds set without with_fill")
	}
	v.validateOptional(s.FillFrom, path+".fill_from")
	v.validateOptional(s.FillTo, path+".fill_to")
	v.validateOptional(s.FillStep, path+".fill_step")
}

// validateList checks the elements of an optional list.
func (v *validator) validateList(l *ListNode, path string) {
	for i, elem := range l.nodes() {
		v.validateNode(elem, fmt.Sprintf("%s[%d]", path, i))
	}
}

func (v *validator) validateOptional(n Node, path string) {
	if n == nil {
		return
	}
	v.validateNode(n, path)
}
