package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeIDDeterminism(t *testing.T) {
	doc := map[string]any{
		"query": map[string]any{
			"order_by": []any{map[string]any{"expr": map[string]any{"column": "a"}}},
		},
	}

	id1, err := TreeID(doc)
	require.NoError(t, err)
	id2, err := TreeID(doc)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "TreeID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestTreeIDChangesWithContent(t *testing.T) {
	a := MustTreeID(map[string]any{"column": "a"})
	b := MustTreeID(map[string]any{"column": "b"})
	assert.NotEqual(t, a, b)
}

func TestTreeIDRejectsFloats(t *testing.T) {
	_, err := TreeID(map[string]any{"constant": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TreeID")
}

func TestMustTreeIDPanics(t *testing.T) {
	assert.Panics(t, func() { MustTreeID(1.5) })
}

func TestHasherDeterministic(t *testing.T) {
	sum := func() uint64 {
		h := NewHasher()
		h.Tag('F')
		h.String("plus")
		h.Int(2)
		h.Bool(true)
		require.NoError(t, h.Value(IRArray{IRInt(1), IRString("x")}))
		return h.Sum64()
	}
	assert.Equal(t, sum(), sum())
}

func TestHasherLengthPrefixedStrings(t *testing.T) {
	h1 := NewHasher()
	h1.String("ab")
	h1.String("c")

	h2 := NewHasher()
	h2.String("a")
	h2.String("bc")

	assert.NotEqual(t, h1.Sum64(), h2.Sum64())
}

func TestHasherDistinguishesValueTypes(t *testing.T) {
	sum := func(v IRValue) uint64 {
		h := NewHasher()
		require.NoError(t, h.Value(v))
		return h.Sum64()
	}

	assert.NotEqual(t, sum(IRInt(1)), sum(IRString("1")))
	assert.NotEqual(t, sum(IRBool(true)), sum(IRString("true")))
	assert.NotEqual(t, sum(IRNull{}), sum(IRString("null")))
}
