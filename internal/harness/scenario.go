package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qtopt/internal/compiler"
)

// Scenario defines a conformance test scenario.
// A scenario feeds one query tree through the default pass pipeline and
// asserts on the optimized clauses, the rewrite counts and idempotence.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tree is the path to a tree document (.yaml, .yml, .json or .cue).
	// Relative paths are resolved against the scenario file's directory.
	Tree string `yaml:"tree,omitempty"`

	// Input is an inline tree document. Exactly one of Tree and Input
	// must be set.
	Input yaml.Node `yaml:"input,omitempty"`

	// Settings are passed to the pass environment.
	Settings map[string]string `yaml:"settings,omitempty"`

	// Assertions validate the optimized tree.
	// Supported types: order_by, limit_by, removed, output, idempotent,
	// violation
	Assertions []Assertion `yaml:"assertions"`

	// path is the file the scenario was loaded from, if any.
	path string
}

// Assertion validates the optimized tree or the run report.
type Assertion struct {
	// Type specifies the assertion type:
	// - "order_by": ORDER BY of query Query formats to Expect
	// - "limit_by": LIMIT BY of query Query formats to Expect
	// - "removed": totals of removed elements equal OrderBy and LimitBy
	// - "output": the whole tree formats to Text
	// - "idempotent": a second run changes nothing
	// - "violation": the run failed with a contract violation containing Text
	Type string `yaml:"type"`

	// Query is the query index in visit order (order_by, limit_by).
	Query int `yaml:"query,omitempty"`

	// Expect lists the formatted clause elements (order_by, limit_by).
	// Empty means the clause is absent or empty.
	Expect []string `yaml:"expect,omitempty"`

	// OrderBy and LimitBy are the expected removal counts (removed).
	OrderBy int `yaml:"order_by,omitempty"`
	LimitBy int `yaml:"limit_by,omitempty"`

	// Text is the expected output (output) or message fragment (violation).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertOrderBy    = "order_by"
	AssertLimitBy    = "limit_by"
	AssertRemoved    = "removed"
	AssertOutput     = "output"
	AssertIdempotent = "idempotent"
	AssertViolation  = "violation"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.path = path

	// Resolve the tree path relative to the scenario BEFORE validation
	if scenario.Tree != "" && !filepath.IsAbs(scenario.Tree) {
		scenario.Tree = filepath.Join(filepath.Dir(path), scenario.Tree)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files directly inside dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasInput := s.Input.Kind != 0
	switch {
	case s.Tree == "" && !hasInput:
		return fmt.Errorf("one of tree or input is required")
	case s.Tree != "" && hasInput:
		return fmt.Errorf("tree and input are mutually exclusive")
	}

	if s.Tree != "" {
		if _, err := os.Stat(s.Tree); os.IsNotExist(err) {
			return fmt.Errorf("tree file not found: %s", s.Tree)
		}
		if !compiler.IsTreeFile(s.Tree) {
			return fmt.Errorf("unsupported tree file: %s", s.Tree)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOrderBy, AssertLimitBy:
		if a.Query < 0 {
			return fmt.Errorf("assertions[%d]: query must be non-negative for %s", index, a.Type)
		}
	case AssertRemoved:
		if a.OrderBy < 0 || a.LimitBy < 0 {
			return fmt.Errorf("assertions[%d]: counts must be non-negative for removed", index)
		}
	case AssertOutput:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for output", index)
		}
	case AssertIdempotent:
	case AssertViolation:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for violation", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
