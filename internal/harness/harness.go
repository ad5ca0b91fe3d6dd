package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qtopt/internal/compiler"
	"github.com/roach88/qtopt/internal/passes"
	"github.com/roach88/qtopt/internal/querytree"
	"github.com/roach88/qtopt/internal/store"
	"github.com/roach88/qtopt/internal/testutil"
)

// epoch is the start time of the harness clock.
var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the test execution engine.
// It runs scenarios against the default pass pipeline and records every
// run in a store with deterministic IDs and timestamps.
type Harness struct {
	store   *store.Store
	manager *passes.Manager
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Compile the scenario's tree
// 3. Run the default passes and record the run
// 4. Evaluate assertions
//
// A contract violation raised by a pass is reported in Result.Violation
// rather than as an error, so scenarios can assert on it.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness()
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	return h.run(context.Background(), scenario)
}

func newHarness() (*Harness, error) {
	clock := testutil.NewStepClock(epoch, time.Second)
	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewSequentialIDGenerator("run")),
		store.WithClock(clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	return &Harness{
		store:   st,
		manager: passes.NewManager(logger, passes.DefaultPasses()...),
		logger:  logger,
	}, nil
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	tree, err := LoadTree(scenario)
	if err != nil {
		return nil, err
	}
	input := querytree.Clone(tree)

	result := NewResult()
	report, err := h.manager.Run(tree, h.environment(scenario))
	switch {
	case passes.IsContractViolation(err):
		result.Violation = err.Error()
	case err != nil:
		return nil, fmt.Errorf("failed to run passes: %w", err)
	default:
		result.Report = report
		run, err := h.store.RecordRun(ctx, runInput(scenario.Name, input, tree, report))
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		result.Run = run
	}
	result.capture(tree)

	actx := &AssertionContext{
		Ctx:   ctx,
		Store: h.store,
		Rerun: h.rerun(scenario),
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// environment builds a fresh pass environment for one run.
func (h *Harness) environment(scenario *Scenario) *passes.Environment {
	env := passes.NewEnvironment()
	maps.Copy(env.Settings, scenario.Settings)
	env.Logger = h.logger
	return env
}

// rerun returns a function that runs the pipeline again over a copy of a
// tree.
func (h *Harness) rerun(scenario *Scenario) func(querytree.Node) (querytree.Node, passes.Stats, error) {
	return func(tree querytree.Node) (querytree.Node, passes.Stats, error) {
		again := querytree.Clone(tree)
		report, err := h.manager.Run(again, h.environment(scenario))
		if err != nil {
			return nil, passes.Stats{}, err
		}
		return again, report.Totals(), nil
	}
}

// runInput converts a successful run into a store record.
func runInput(source string, input, output querytree.Node, report *passes.Report) store.RunInput {
	totals := report.Totals()
	var ran []string
	for _, p := range report.Passes {
		if !p.Skipped {
			ran = append(ran, p.Name)
		}
	}
	return store.RunInput{
		Source:         source,
		Input:          input,
		Output:         output,
		Passes:         ran,
		QueriesVisited: totals.QueriesVisited,
		RemovedOrderBy: totals.RemovedOrderBy,
		RemovedLimitBy: totals.RemovedLimitBy,
	}
}

// LoadTree compiles the scenario's tree from its file or inline input.
func LoadTree(scenario *Scenario) (querytree.Node, error) {
	if scenario.Tree != "" {
		tree, err := compiler.LoadFile(scenario.Tree)
		if err != nil {
			return nil, fmt.Errorf("failed to load tree: %w", err)
		}
		return tree, nil
	}

	if scenario.Input.Kind == 0 {
		return nil, errors.New("scenario has no tree")
	}
	data, err := yaml.Marshal(&scenario.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inline tree: %w", err)
	}
	name := scenario.path
	if name == "" {
		name = scenario.Name
	}
	tree, err := compiler.CompileYAML(data, name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile inline tree: %w", err)
	}
	return tree, nil
}
