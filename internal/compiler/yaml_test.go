package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtopt/internal/querytree"
)

const dupKeysYAML = `
query:
  projection: [{column: a}]
  from: {table: t}
  order_by:
    - {expr: {column: a}}
    - {expr: {column: b}, direction: desc}
    - {expr: {column: a}}
    - {expr: {column: a}, with_fill: true, fill_step: {constant: 1}}
  limit_by: [{column: a}, {column: a}]
  limit_by_limit: {constant: 2}
`

func TestCompileYAML(t *testing.T) {
	tree, err := CompileYAML([]byte(dupKeysYAML), "dup.yaml")
	require.NoError(t, err)

	q, ok := tree.(*querytree.QueryNode)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b DESC", "a", "a WITH FILL STEP 1"}, querytree.FormatList(q.OrderByNodes()))
	assert.Equal(t, []string{"a", "a"}, querytree.FormatList(q.LimitByNodes()))
}

func TestCompileYAML_Anchors(t *testing.T) {
	src := `
query:
  order_by:
    - expr: &k {function: plus, args: [{column: a}, {constant: 1}]}
    - expr: *k
`
	tree, err := CompileYAML([]byte(src), "anchors.yaml")
	require.NoError(t, err)

	q := tree.(*querytree.QueryNode)
	nodes := q.OrderByNodes()
	require.Len(t, nodes, 2)
	assert.NotSame(t, nodes[0].(*querytree.SortNode).Expr(), nodes[1].(*querytree.SortNode).Expr())
	assert.True(t, querytree.IsEqual(nodes[0], nodes[1]))
}

func TestCompileYAML_ErrorPositions(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		field   string
		message string
		line    int
	}{
		{
			name:    "unknown variant",
			src:     "query:\n  order_by:\n    - expr: {colum: a}\n",
			field:   "query.order_by[0].expr",
			message: "node has no variant key",
			line:    3,
		},
		{
			name:    "unknown query field",
			src:     "query:\n  projection: []\n  order: []\n",
			field:   "query",
			message: `unknown field "order"`,
			line:    2,
		},
		{
			name:    "float literal",
			src:     "query:\n  limit: {constant: 1.5}\n",
			field:   "query.limit.constant",
			message: "floats are forbidden",
			line:    2,
		},
		{
			name:    "duplicate key",
			src:     "column: a\ncolumn: b\n",
			field:   "$",
			message: `duplicate key "column"`,
			line:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileYAML([]byte(tt.src), "bad.yaml")
			require.Error(t, err)

			var compileErr *CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, tt.field, compileErr.Field)
			assert.Contains(t, compileErr.Message, tt.message)
			require.True(t, compileErr.Pos.IsValid())
			assert.Equal(t, tt.line, compileErr.Pos.Line())
			assert.Equal(t, "bad.yaml", compileErr.Pos.Filename())
			assert.Contains(t, err.Error(), "bad.yaml:")
		})
	}
}

func TestCompileYAML_SyntaxErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":      "query: [",
		"empty":          "",
		"multi document": "column: a\n---\ncolumn: b\n",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := CompileYAML([]byte(src), "bad.yaml")
			require.Error(t, err)

			var compileErr *CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, "yaml", compileErr.Field)
		})
	}
}
