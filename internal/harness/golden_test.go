package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios and compares
// its snapshot against testdata/golden.
func TestScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err, "failed to load scenario from %s", path)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)

			assert.True(t, result.Pass, "scenario should pass; errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Marshal(t *testing.T) {
	snapshot := Snapshot{
		ScenarioName: "s",
		Output:       "SELECT *",
		Queries:      []QuerySnapshot{{Index: 0, OrderBy: []string{"a"}, LimitBy: []string{}}},
		Violation:    "boom",
	}

	data, err := snapshot.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"output":"SELECT *","queries":[{"index":0,"limit_by":[],"order_by":["a"]}],"scenario_name":"s","violation":"boom"}`,
		string(data))
}
