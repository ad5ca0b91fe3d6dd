package querytree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/qtopt/internal/ir"
)

func plusA1() Node {
	return NewFunction("plus", NewColumn("a"), NewConstant(ir.IRInt(1)))
}

func TestTreeHash_IndependentOfIdentity(t *testing.T) {
	a1 := plusA1()
	a2 := plusA1()

	assert.NotSame(t, a1, a2)
	assert.Equal(t, TreeHash(a1), TreeHash(a2))
	assert.True(t, IsEqual(a1, a2))
}

func TestTreeHash_Deterministic(t *testing.T) {
	q := sampleQuery()
	assert.Equal(t, TreeHash(q), TreeHash(q))
	assert.Equal(t, TreeHash(q), TreeHash(sampleQuery()))
}

func TestTreeHashAndIsEqual_Variants(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Node
		equal bool
	}{
		{"same column", NewColumn("a"), NewColumn("a"), true},
		{"different column", NewColumn("a"), NewColumn("b"), false},
		{"qualified column", &ColumnNode{Name: "a", Source: "t"}, NewColumn("a"), false},
		{"same int", NewConstant(ir.IRInt(1)), NewConstant(ir.IRInt(1)), true},
		{"int vs string", NewConstant(ir.IRInt(1)), NewConstant(ir.IRString("1")), false},
		{"nil value is null", &ConstantNode{}, NewConstant(ir.IRNull{}), true},
		{"same object literal",
			NewConstant(ir.IRObject{"k": ir.IRInt(1), "j": ir.IRBool(true)}),
			NewConstant(ir.IRObject{"j": ir.IRBool(true), "k": ir.IRInt(1)}), true},
		{"argument order matters",
			NewFunction("plus", NewColumn("a"), NewConstant(ir.IRInt(1))),
			NewFunction("plus", NewConstant(ir.IRInt(1)), NewColumn("a")), false},
		{"function name", NewFunction("f", NewColumn("a")), NewFunction("g", NewColumn("a")), false},
		{"nil args equal empty args", &FunctionNode{Name: "now"}, NewFunction("now"), true},
		{"sort direction", NewSort(NewColumn("a")), &SortNode{Expression: NewColumn("a"), Direction: Descending}, false},
		{"sort fill flag", NewSort(NewColumn("a")), NewFillSort(NewColumn("a")), false},
		{"sort collation", &SortNode{Expression: NewColumn("a"), Direction: Ascending, Collation: "en"}, NewSort(NewColumn("a")), false},
		{"fill step",
			&SortNode{Expression: NewColumn("a"), Direction: Ascending, WithFill: true, FillStep: NewConstant(ir.IRInt(1))},
			&SortNode{Expression: NewColumn("a"), Direction: Ascending, WithFill: true, FillStep: NewConstant(ir.IRInt(2))}, false},
		{"table alias", NewTable("t"), &TableNode{Name: "t", Alias: "x"}, false},
		{"join type",
			&JoinNode{Type: JoinInner, Left: NewTable("a"), Right: NewTable("b")},
			&JoinNode{Type: JoinLeft, Left: NewTable("a"), Right: NewTable("b")}, false},
		{"union mode",
			&UnionNode{Mode: UnionAll, Queries: NewList(&QueryNode{})},
			&UnionNode{Mode: UnionDistinct, Queries: NewList(&QueryNode{})}, false},
		{"column vs table with same name", NewColumn("t"), NewTable("t"), false},
		{"where vs having",
			&QueryNode{Where: NewColumn("a")},
			&QueryNode{Having: NewColumn("a")}, false},
		{"empty order by equals absent", &QueryNode{OrderBy: NewList()}, &QueryNode{}, true},
		{"same query", sampleQuery(), sampleQuery(), true},
		{"list length", NewList(NewColumn("a")), NewList(NewColumn("a"), NewColumn("a")), false},
		{"nested list boundaries",
			NewList(NewList(NewColumn("a")), NewList(NewColumn("b"), NewColumn("c"))),
			NewList(NewList(NewColumn("a"), NewColumn("b")), NewList(NewColumn("c"))), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, IsEqual(tt.a, tt.b))
			assert.Equal(t, tt.equal, IsEqual(tt.b, tt.a), "IsEqual must be symmetric")
			if tt.equal {
				assert.Equal(t, TreeHash(tt.a), TreeHash(tt.b))
			} else {
				assert.NotEqual(t, TreeHash(tt.a), TreeHash(tt.b))
			}
		})
	}
}

func TestIsEqual_Nil(t *testing.T) {
	var nilColumn *ColumnNode

	assert.True(t, IsEqual(nil, nil))
	assert.True(t, IsEqual(nil, nilColumn), "typed nil equals nil")
	assert.False(t, IsEqual(nil, NewColumn("a")))
	assert.False(t, IsEqual(NewColumn("a"), nil))
	assert.Equal(t, TreeHash(nil), TreeHash(nilColumn))
}

func TestNodeKind_String(t *testing.T) {
	assert.Equal(t, "query", KindQuery.String())
	assert.Equal(t, "sort", (&SortNode{}).Kind().String())
	assert.Equal(t, "join", KindJoin.String())
	assert.Equal(t, "unknown", NodeKind(0).String())
}

// sampleQuery builds:
//
//	SELECT a, plus(a, 1) FROM t WHERE equals(b, 'x')
//	ORDER BY a, plus(a, 1) DESC, a WITH FILL STEP 1 LIMIT 2 BY a
func sampleQuery() *QueryNode {
	return &QueryNode{
		Projection: NewList(NewColumn("a"), plusA1()),
		JoinTree:   NewTable("t"),
		Where:      NewFunction("equals", NewColumn("b"), NewConstant(ir.IRString("x"))),
		OrderBy: NewList(
			NewSort(NewColumn("a")),
			&SortNode{Expression: plusA1(), Direction: Descending},
			&SortNode{Expression: NewColumn("a"), Direction: Ascending, WithFill: true, FillStep: NewConstant(ir.IRInt(1))},
		),
		LimitBy:      NewList(NewColumn("a")),
		LimitByLimit: NewConstant(ir.IRInt(2)),
	}
}
