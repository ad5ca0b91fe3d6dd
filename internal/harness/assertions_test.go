package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertOrderBy,
		Expected: "[a]",
		Actual:   "[a, a]",
		Output:   "SELECT * ORDER BY a, a",
	}

	assert.Equal(t,
		"Assertion failed: order_by\n  Expected: [a]\n  Actual: [a, a]\n\nOptimized tree:\n  SELECT * ORDER BY a, a\n",
		err.Error())
}

func TestAssertClause_EmptyMatchesAbsent(t *testing.T) {
	result := NewResult()
	result.Queries = []QuerySnapshot{{Index: 0, OrderBy: []string{}, LimitBy: nil}}

	assert.NoError(t, assertClause(result, Assertion{Type: AssertOrderBy}, func(q QuerySnapshot) []string { return q.OrderBy }))
	assert.NoError(t, assertClause(result, Assertion{Type: AssertLimitBy, Expect: []string{}}, func(q QuerySnapshot) []string { return q.LimitBy }))
}

func TestAssertIdempotent_RequiresContext(t *testing.T) {
	err := assertIdempotent(NewResult(), nil)
	assert.ErrorContains(t, err, "requires a store")
}

func TestFormatClause(t *testing.T) {
	assert.Equal(t, "(empty)", formatClause(nil))
	assert.Equal(t, "[a, b]", formatClause([]string{"a", "b"}))
}
