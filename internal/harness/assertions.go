package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/qtopt/internal/passes"
	"github.com/roach88/qtopt/internal/querytree"
	"github.com/roach88/qtopt/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Formatted optimized tree for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Output != "" {
		fmt.Fprintf(&buf, "\nOptimized tree:\n  %s\n", e.Output)
	}

	return buf.String()
}

// AssertionContext provides access to the run's store and pipeline for
// assertions that need more than the result.
type AssertionContext struct {
	Ctx   context.Context
	Store *store.Store

	// Rerun runs the pipeline again over a copy of a tree.
	Rerun func(querytree.Node) (querytree.Node, passes.Stats, error)
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// An empty slice means all assertions passed.
//
// When the run stopped on a contract violation, every assertion other than
// "violation" fails.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	if a.Type == AssertViolation {
		return assertViolation(result, a)
	}
	if result.Violation != "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: "successful run",
			Actual:   result.Violation,
		}
	}

	switch a.Type {
	case AssertOrderBy:
		return assertClause(result, a, func(q QuerySnapshot) []string { return q.OrderBy })
	case AssertLimitBy:
		return assertClause(result, a, func(q QuerySnapshot) []string { return q.LimitBy })
	case AssertRemoved:
		return assertRemoved(result, a)
	case AssertOutput:
		return assertOutput(result, a)
	case AssertIdempotent:
		return assertIdempotent(result, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertClause compares one clause of one query element by element.
func assertClause(result *Result, a Assertion, clause func(QuerySnapshot) []string) error {
	if a.Query >= len(result.Queries) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("query %d", a.Query),
			Actual:   fmt.Sprintf("tree has %d queries", len(result.Queries)),
			Output:   result.Output,
		}
	}

	got := clause(result.Queries[a.Query])
	if !slices.Equal(got, a.Expect) && !(len(got) == 0 && len(a.Expect) == 0) {
		return &AssertionError{
			Type:     a.Type,
			Expected: formatClause(a.Expect),
			Actual:   formatClause(got),
			Output:   result.Output,
		}
	}
	return nil
}

func assertRemoved(result *Result, a Assertion) error {
	totals := result.Report.Totals()
	if totals.RemovedOrderBy != a.OrderBy || totals.RemovedLimitBy != a.LimitBy {
		return &AssertionError{
			Type:     AssertRemoved,
			Expected: fmt.Sprintf("order_by=%d limit_by=%d", a.OrderBy, a.LimitBy),
			Actual:   fmt.Sprintf("order_by=%d limit_by=%d", totals.RemovedOrderBy, totals.RemovedLimitBy),
			Output:   result.Output,
		}
	}
	return nil
}

func assertOutput(result *Result, a Assertion) error {
	if result.Output != a.Text {
		return &AssertionError{
			Type:     AssertOutput,
			Expected: a.Text,
			Actual:   result.Output,
		}
	}
	return nil
}

// assertIdempotent reloads the recorded output tree from the store and runs
// the pipeline over it again. The second run must remove nothing and leave
// the tree structurally unchanged.
func assertIdempotent(result *Result, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil || actx.Rerun == nil {
		return fmt.Errorf("idempotent requires a store and a pipeline")
	}
	if result.Run == nil {
		return fmt.Errorf("no recorded run")
	}

	stored, err := actx.Store.ReadTree(actx.Ctx, result.Run.OutputTreeID)
	if err != nil {
		return fmt.Errorf("read output tree: %w", err)
	}
	if !querytree.IsEqual(stored, result.Tree()) {
		return &AssertionError{
			Type:     AssertIdempotent,
			Expected: result.Output,
			Actual:   "stored tree " + querytree.Format(stored),
		}
	}

	again, stats, err := actx.Rerun(stored)
	if err != nil {
		return fmt.Errorf("second run: %w", err)
	}
	if stats.Removed() != 0 || !querytree.IsEqual(again, stored) {
		return &AssertionError{
			Type:     AssertIdempotent,
			Expected: result.Output,
			Actual:   fmt.Sprintf("%s (removed %d)", querytree.Format(again), stats.Removed()),
		}
	}
	return nil
}

func assertViolation(result *Result, a Assertion) error {
	if result.Violation == "" {
		return &AssertionError{
			Type:     AssertViolation,
			Expected: fmt.Sprintf("contract violation containing %q", a.Text),
			Actual:   "run succeeded",
			Output:   result.Output,
		}
	}
	if !strings.Contains(result.Violation, a.Text) {
		return &AssertionError{
			Type:     AssertViolation,
			Expected: fmt.Sprintf("contract violation containing %q", a.Text),
			Actual:   result.Violation,
		}
	}
	return nil
}

func formatClause(elems []string) string {
	if len(elems) == 0 {
		return "(empty)"
	}
	return "[" + strings.Join(elems, ", ") + "]"
}
