package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtopt/internal/ir"
	"github.com/roach88/qtopt/internal/querytree"
)

func TestMarshalTree_Canonical(t *testing.T) {
	_, body, err := marshalTree(querytree.NewFunction("plus", querytree.NewColumn("a"), querytree.NewConstant(ir.IRInt(1))))
	require.NoError(t, err)

	assert.Equal(t, `{"args":[{"column":"a"},{"constant":1}],"function":"plus"}`, body)
}

func TestMarshalTree_LargeIntegersSurvive(t *testing.T) {
	tree := &querytree.QueryNode{Limit: querytree.NewConstant(ir.IRInt(9007199254740993))}

	_, body, err := marshalTree(tree)
	require.NoError(t, err)
	decoded, err := unmarshalTree(body)
	require.NoError(t, err)

	assert.True(t, querytree.IsEqual(tree, decoded))
}

func TestMarshalPasses(t *testing.T) {
	data, err := marshalPasses([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, `["b","a"]`, data)

	names, err := unmarshalPasses(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names)

	empty, err := marshalPasses(nil)
	require.NoError(t, err)
	names, err = unmarshalPasses(empty)
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)
}

func TestUnmarshalTree_Invalid(t *testing.T) {
	_, err := unmarshalTree(`{"bogus": 1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal tree")
}
