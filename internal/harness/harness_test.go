package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// inlineScenario builds a scenario from an inline YAML tree.
func inlineScenario(t *testing.T, name, tree string, assertions ...Assertion) *Scenario {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(tree), &doc))
	return &Scenario{
		Name:        name,
		Description: name,
		Input:       *doc.Content[0],
		Assertions:  assertions,
	}
}

func TestRun_DeduplicatesAndRecords(t *testing.T) {
	scenario := inlineScenario(t, "dedup", `
query:
  order_by:
    - {expr: {column: a}}
    - {expr: {column: a}}
  limit_by: [{column: b}, {column: b}]
  limit_by_limit: {constant: 1}
`,
		Assertion{Type: AssertOrderBy, Expect: []string{"a"}},
		Assertion{Type: AssertLimitBy, Expect: []string{"b"}},
		Assertion{Type: AssertRemoved, OrderBy: 1, LimitBy: 1},
		Assertion{Type: AssertIdempotent},
	)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "SELECT * ORDER BY a LIMIT 1 BY b", result.Output)

	require.NotNil(t, result.Run)
	assert.Equal(t, "run-0001", result.Run.ID)
	assert.Equal(t, "dedup", result.Run.Source)
	assert.Equal(t, []string{"OrderByLimitByDuplicateElimination"}, result.Run.Passes)
	assert.Equal(t, 1, result.Run.QueriesVisited)
	assert.NotEqual(t, result.Run.InputTreeID, result.Run.OutputTreeID)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/07_nested_queries.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Queries, second.Queries)
	assert.Equal(t, first.Run, second.Run)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario := inlineScenario(t, "failing", `
query:
  order_by:
    - {expr: {column: a}}
    - {expr: {column: b}}
`,
		Assertion{Type: AssertOrderBy, Expect: []string{"b", "a"}},
		Assertion{Type: AssertRemoved, OrderBy: 1},
		Assertion{Type: AssertOrderBy, Query: 3},
		Assertion{Type: AssertOutput, Text: "SELECT 1"},
		Assertion{Type: AssertViolation, Text: "ORDER BY"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "Expected: [b, a]")
	assert.Contains(t, result.Errors[0], "Actual: [a, b]")
	assert.Contains(t, result.Errors[1], "Expected: order_by=1 limit_by=0")
	assert.Contains(t, result.Errors[2], "tree has 1 queries")
	assert.Contains(t, result.Errors[3], "Actual: SELECT * ORDER BY a, b")
	assert.Contains(t, result.Errors[4], "run succeeded")
}

func TestRun_ContractViolation(t *testing.T) {
	scenario := inlineScenario(t, "violation", `
query:
  order_by: [{column: a}]
`,
		Assertion{Type: AssertViolation, Text: "expected sort node, got column"},
		Assertion{Type: AssertIdempotent},
	)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.Nil(t, result.Run)
	assert.Nil(t, result.Report)
	assert.Contains(t, result.Violation, "ORDER BY element 0")
	require.Len(t, result.Errors, 1, "only the idempotent assertion fails")
	assert.Contains(t, result.Errors[0], "Expected: successful run")
}

func TestRun_Settings(t *testing.T) {
	scenario := inlineScenario(t, "disabled", `
query:
  order_by:
    - {expr: {column: a}}
    - {expr: {column: a}}
`,
		Assertion{Type: AssertOrderBy, Expect: []string{"a", "a"}},
		Assertion{Type: AssertRemoved},
		Assertion{Type: AssertIdempotent},
	)
	scenario.Settings = map[string]string{"disabled_passes": "OrderByLimitByDuplicateElimination"}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.NotNil(t, result.Report)
	require.Len(t, result.Report.Passes, 1)
	assert.True(t, result.Report.Passes[0].Skipped)
	assert.Empty(t, result.Run.Passes)
}

func TestRun_TreeLoadError(t *testing.T) {
	scenario := inlineScenario(t, "bad", `
query:
  order_by:
    - {expr: {column: a}, direction: sideways}
`, Assertion{Type: AssertIdempotent})

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile inline tree")
	assert.Contains(t, err.Error(), "invalid direction")
}
