package passes

import (
	"fmt"
	"log/slog"

	"github.com/roach88/qtopt/internal/querytree"
)

// DefaultPasses returns the standard pipeline in execution order.
func DefaultPasses() []Pass {
	return []Pass{
		NewOrderByLimitByDuplicateElimination(),
	}
}

// PassReport is the outcome of one pass in a run.
type PassReport struct {
	Name    string `json:"name"`
	Skipped bool   `json:"skipped,omitempty"`
	Stats
}

// Report is the outcome of Manager.Run.
type Report struct {
	Passes []PassReport `json:"passes"`
}

// Totals sums the stats of all passes that ran.
func (r *Report) Totals() Stats {
	var total Stats
	for _, p := range r.Passes {
		total.QueriesVisited += p.QueriesVisited
		total.RemovedOrderBy += p.RemovedOrderBy
		total.RemovedLimitBy += p.RemovedLimitBy
	}
	return total
}

// Manager runs an ordered list of passes over a tree.
//
// The pass list is fixed at construction; passes run in that order.
type Manager struct {
	passes []Pass
	logger *slog.Logger
}

// NewManager creates a manager. A nil logger discards logs.
//
// The passes slice is copied so later changes by the caller do not affect
// the pipeline.
func NewManager(logger *slog.Logger, passes ...Pass) *Manager {
	if logger == nil {
		logger = discardLogger
	}
	return &Manager{
		passes: append([]Pass(nil), passes...),
		logger: logger,
	}
}

// PassNames returns the names of the configured passes in order.
func (m *Manager) PassNames() []string {
	names := make([]string, len(m.passes))
	for i, p := range m.passes {
		names[i] = p.Name()
	}
	return names
}

// Run applies every enabled pass to tree in order.
//
// A *ContractViolation raised by a pass stops the run and is returned
// wrapped; the report then covers the passes that completed. Any other
// panic propagates. env may be nil.
func (m *Manager) Run(tree querytree.Node, env *Environment) (*Report, error) {
	if env == nil {
		env = NewEnvironment()
	}
	if env.Logger == nil {
		env.Logger = m.logger
	}
	saved := env.Stats
	defer func() { env.Stats = saved }()

	report := &Report{Passes: make([]PassReport, 0, len(m.passes))}
	for _, p := range m.passes {
		if env.PassDisabled(p.Name()) {
			m.logger.Debug("pass disabled", "pass", p.Name())
			report.Passes = append(report.Passes, PassReport{Name: p.Name(), Skipped: true})
			continue
		}

		m.logger.Debug("running pass", "pass", p.Name())
		stats := &Stats{}
		env.Stats = stats

		if err := runPass(p, tree, env); err != nil {
			m.logger.Error("pass failed",
				"pass", p.Name(),
				"error", err,
			)
			return report, fmt.Errorf("pass %s: %w", p.Name(), err)
		}

		report.Passes = append(report.Passes, PassReport{Name: p.Name(), Stats: *stats})
		if stats.Removed() > 0 {
			m.logger.Info("pass rewrote tree",
				"pass", p.Name(),
				"queries", stats.QueriesVisited,
				"order_by_removed", stats.RemovedOrderBy,
				"limit_by_removed", stats.RemovedLimitBy,
			)
		}
	}
	return report, nil
}

// runPass runs one pass, converting a *ContractViolation panic into an
// error.
func runPass(p Pass, tree querytree.Node, env *Environment) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cv, ok := r.(*ContractViolation)
			if !ok {
				panic(r)
			}
			err = cv
		}
	}()
	p.Run(tree, env)
	return nil
}
