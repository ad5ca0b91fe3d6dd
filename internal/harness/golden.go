package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/qtopt/internal/ir"
)

// Snapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Output       string          `json:"output"`
	Queries      []QuerySnapshot `json:"queries"`
	Violation    string          `json:"violation,omitempty"`
	RunID        string          `json:"run_id,omitempty"`
	InputTreeID  string          `json:"input_tree_id,omitempty"`
	OutputTreeID string          `json:"output_tree_id,omitempty"`
	Removed      map[string]int  `json:"removed,omitempty"`
}

// NewSnapshot builds a snapshot from a result.
func NewSnapshot(scenarioName string, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: scenarioName,
		Output:       result.Output,
		Queries:      result.Queries,
		Violation:    result.Violation,
	}
	if result.Run != nil {
		s.RunID = result.Run.ID
		s.InputTreeID = result.Run.InputTreeID
		s.OutputTreeID = result.Run.OutputTreeID
		s.Removed = map[string]int{
			"order_by": result.Run.RemovedOrderBy,
			"limit_by": result.Run.RemovedLimitBy,
		}
	}
	return s
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	queries := make([]any, len(s.Queries))
	for i, q := range s.Queries {
		queries[i] = map[string]any{
			"index":    int64(q.Index),
			"order_by": stringList(q.OrderBy),
			"limit_by": stringList(q.LimitBy),
		}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"output":        s.Output,
		"queries":       queries,
	}
	if s.Violation != "" {
		result["violation"] = s.Violation
	}
	if s.RunID != "" {
		result["run_id"] = s.RunID
		result["input_tree_id"] = s.InputTreeID
		result["output_tree_id"] = s.OutputTreeID
	}
	if s.Removed != nil {
		removed := make(map[string]any, len(s.Removed))
		for k, v := range s.Removed {
			removed[k] = int64(v)
		}
		result["removed"] = removed
	}
	return result
}

// Marshal serializes the snapshot as canonical JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(scenarioName, result)
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
