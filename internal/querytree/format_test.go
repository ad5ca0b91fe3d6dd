package querytree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/qtopt/internal/ir"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"column", NewColumn("a"), "a"},
		{"qualified column", &ColumnNode{Name: "a", Source: "t"}, "t.a"},
		{"function", plusA1(), "plus(a, 1)"},
		{"no-arg function", NewFunction("now"), "now()"},
		{"null", NewConstant(ir.IRNull{}), "NULL"},
		{"string", NewConstant(ir.IRString("it's")), `'it\'s'`},
		{"bool", NewConstant(ir.IRBool(true)), "true"},
		{"array", NewConstant(ir.IRArray{ir.IRInt(1), ir.IRString("x")}), "[1, 'x']"},
		{"object", NewConstant(ir.IRObject{"b": ir.IRInt(2), "a": ir.IRInt(1)}), "{'a': 1, 'b': 2}"},
		{"sort asc", NewSort(NewColumn("a")), "a"},
		{"sort desc nulls", &SortNode{Expression: NewColumn("a"), Direction: Descending, Nulls: NullsLast}, "a DESC NULLS LAST"},
		{"sort collate", &SortNode{Expression: NewColumn("s"), Direction: Ascending, Collation: "en"}, "s COLLATE 'en'"},
		{"fill", NewFillSort(NewColumn("a")), "a WITH FILL"},
		{"fill bounds", &SortNode{
			Expression: NewColumn("d"),
			Direction:  Ascending,
			WithFill:   true,
			FillFrom:   NewConstant(ir.IRInt(0)),
			FillTo:     NewConstant(ir.IRInt(10)),
			FillStep:   NewConstant(ir.IRInt(2)),
		}, "d WITH FILL FROM 0 TO 10 STEP 2"},
		{"table alias", &TableNode{Name: "t", Alias: "x"}, "t AS x"},
		{"join", &JoinNode{Type: JoinLeft, Left: NewTable("a"), Right: NewTable("b"),
			On: NewFunction("equals", &ColumnNode{Name: "id", Source: "a"}, &ColumnNode{Name: "id", Source: "b"})},
			"a LEFT JOIN b ON equals(a.id, b.id)"},
		{"empty query", &QueryNode{}, "SELECT *"},
		{"sample query", sampleQuery(),
			"SELECT a, plus(a, 1) FROM t WHERE equals(b, 'x') ORDER BY a, plus(a, 1) DESC, a WITH FILL STEP 1 LIMIT 2 BY a"},
		{"subquery", &QueryNode{IsSubquery: true, IsDistinct: true, Alias: "s", Projection: NewList(NewColumn("a")), Limit: NewConstant(ir.IRInt(5))},
			"(SELECT DISTINCT a LIMIT 5) AS s"},
		{"union", &UnionNode{Mode: UnionAll, Queries: NewList(
			&QueryNode{Projection: NewList(NewColumn("a"))},
			&QueryNode{Projection: NewList(NewColumn("b"))},
		)}, "(SELECT a) UNION ALL (SELECT b)"},
		{"nil", nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.node))
		})
	}
}

func TestFormatList(t *testing.T) {
	got := FormatList([]Node{NewSort(NewColumn("a")), NewFillSort(NewColumn("b"))})
	assert.Equal(t, []string{"a", "b WITH FILL"}, got)
	assert.Empty(t, FormatList(nil))
}
