package querytree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/qtopt/internal/ir"
)

// Format renders a subtree as SQL-like text.
//
// The output is for humans and test expectations, not for re-parsing:
//
//	t.a                      column
//	plus(a, 1)               function
//	a DESC WITH FILL STEP 1  sort key
//	SELECT a FROM t ORDER BY a LIMIT 1 BY a
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

// FormatList renders each element of nodes with Format.
func FormatList(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = Format(n)
	}
	return out
}

func format(b *strings.Builder, n Node) {
	if isNil(n) {
		b.WriteString("<nil>")
		return
	}

	switch node := n.(type) {
	case *QueryNode:
		formatQuery(b, node)
	case *UnionNode:
		for i, q := range node.Queries.nodes() {
			if i > 0 {
				b.WriteString(" " + string(node.Mode) + " ")
			}
			b.WriteByte('(')
			format(b, q)
			b.WriteByte(')')
		}
		if node.Alias != "" {
			b.WriteString(" AS " + node.Alias)
		}
	case *ListNode:
		formatJoined(b, node.Nodes)
	case *SortNode:
		format(b, node.Expression)
		if node.Direction == Descending {
			b.WriteString(" DESC")
		}
		if node.Nulls != NullsDefault {
			b.WriteString(" NULLS " + string(node.Nulls))
		}
		if node.Collation != "" {
			b.WriteString(" COLLATE " + quote(node.Collation))
		}
		if node.WithFill {
			b.WriteString(" WITH FILL")
			formatOptional(b, " FROM ", node.FillFrom)
			formatOptional(b, " TO ", node.FillTo)
			formatOptional(b, " STEP ", node.FillStep)
		}
	case *ColumnNode:
		if node.Source != "" {
			b.WriteString(node.Source + ".")
		}
		b.WriteString(node.Name)
	case *ConstantNode:
		formatLiteral(b, node.Literal())
	case *FunctionNode:
		b.WriteString(node.Name)
		b.WriteByte('(')
		formatJoined(b, node.Args())
		b.WriteByte(')')
	case *TableNode:
		b.WriteString(node.Name)
		if node.Alias != "" {
			b.WriteString(" AS " + node.Alias)
		}
	case *JoinNode:
		format(b, node.Left)
		b.WriteString(" " + string(node.Type) + " JOIN ")
		format(b, node.Right)
		formatOptional(b, " ON ", node.On)
	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}

func formatQuery(b *strings.Builder, q *QueryNode) {
	if q.IsSubquery {
		b.WriteByte('(')
	}
	b.WriteString("SELECT ")
	if q.IsDistinct {
		b.WriteString("DISTINCT ")
	}
	if q.Projection.Len() == 0 {
		b.WriteString("*")
	} else {
		formatJoined(b, q.Projection.Nodes)
	}
	formatOptional(b, " FROM ", q.JoinTree)
	formatOptional(b, " WHERE ", q.Where)
	if q.GroupBy.Len() > 0 {
		b.WriteString(" GROUP BY ")
		formatJoined(b, q.GroupBy.Nodes)
	}
	formatOptional(b, " HAVING ", q.Having)
	if q.HasOrderBy() {
		b.WriteString(" ORDER BY ")
		formatJoined(b, q.OrderBy.Nodes)
	}
	if q.HasLimitBy() {
		formatOptional(b, " LIMIT ", q.LimitByLimit)
		formatOptional(b, " OFFSET ", q.LimitByOffset)
		b.WriteString(" BY ")
		formatJoined(b, q.LimitBy.Nodes)
	}
	formatOptional(b, " LIMIT ", q.Limit)
	formatOptional(b, " OFFSET ", q.Offset)
	if q.IsSubquery {
		b.WriteByte(')')
	}
	if q.Alias != "" {
		b.WriteString(" AS " + q.Alias)
	}
}

func formatOptional(b *strings.Builder, prefix string, n Node) {
	if isNil(n) {
		return
	}
	b.WriteString(prefix)
	format(b, n)
}

func formatJoined(b *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, n)
	}
}

func formatLiteral(b *strings.Builder, v ir.IRValue) {
	switch val := v.(type) {
	case ir.IRNull:
		b.WriteString("NULL")
	case ir.IRString:
		b.WriteString(quote(string(val)))
	case ir.IRInt:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case ir.IRBool:
		b.WriteString(strconv.FormatBool(bool(val)))
	case ir.IRArray:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			formatLiteral(b, elem)
		}
		b.WriteByte(']')
	case ir.IRObject:
		b.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(k) + ": ")
			formatLiteral(b, val[k])
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "<%T>", v)
	}
}

// quote renders a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

// nodes returns the list elements, nil-safe.
func (l *ListNode) nodes() []Node {
	if l == nil {
		return nil
	}
	return l.Nodes
}
