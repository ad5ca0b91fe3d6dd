package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "x", IRString("x")},
		{"bool", true, IRBool(true)},
		{"int", 7, IRInt(7)},
		{"int64", int64(-3), IRInt(-3)},
		{"uint64", uint64(9), IRInt(9)},
		{"json number", json.Number("12"), IRInt(12)},
		{"ir passthrough", IRString("y"), IRString("y")},
		{"array", []any{1, "a"}, IRArray{IRInt(1), IRString("a")}},
		{"object", map[string]any{"k": false}, IRObject{"k": IRBool(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromAnyRejectsFloats(t *testing.T) {
	for _, v := range []any{1.5, float32(2), json.Number("1.0"), json.Number("1e3"), []any{0.5}} {
		_, err := FromAny(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "float")
	}
}

func TestFromAnyRejectsUnknown(t *testing.T) {
	_, err := FromAny(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported literal type")
}

func TestToAnyInvertsFromAny(t *testing.T) {
	in := map[string]any{"a": []any{int64(1), "x", true, nil}}
	v, err := FromAny(in)
	require.NoError(t, err)
	assert.Equal(t, in, ToAny(v))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(IRInt(1), IRInt(1)))
	assert.False(t, Equal(IRInt(1), IRString("1")))
	assert.True(t, Equal(IRNull{}, IRNull{}))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, IRNull{}))
	assert.True(t, Equal(IRArray{IRInt(1), IRBool(true)}, IRArray{IRInt(1), IRBool(true)}))
	assert.False(t, Equal(IRArray{IRInt(1)}, IRArray{IRInt(1), IRInt(2)}))
	assert.True(t, Equal(IRObject{"a": IRInt(1)}, IRObject{"a": IRInt(1)}))
	assert.False(t, Equal(IRObject{"a": IRInt(1)}, IRObject{"b": IRInt(1)}))
}

func TestSortedKeysUTF16(t *testing.T) {
	obj := IRObject{"b": IRInt(1), "a": IRInt(2), "\uE000": IRInt(3), "\U00010000": IRInt(4)}
	assert.Equal(t, []string{"a", "b", "\U00010000", "\uE000"}, obj.SortedKeys())
}

func TestMarshalUnmarshalIRValue(t *testing.T) {
	v := IRObject{"list": IRArray{IRInt(1), IRNull{}}, "s": IRString("<x>")}
	data, err := MarshalIRValue(v)
	require.NoError(t, err)

	back, err := UnmarshalIRValue(data)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestUnmarshalIRValueRejectsFloat(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`{"x": 1.25}`))
	require.Error(t, err)
}
