package harness

import (
	"github.com/roach88/qtopt/internal/passes"
	"github.com/roach88/qtopt/internal/querytree"
	"github.com/roach88/qtopt/internal/store"
)

// QuerySnapshot captures the sort clauses of one query after optimization.
type QuerySnapshot struct {
	// Index is the query's position in pre-order visit order.
	Index int `json:"index"`

	OrderBy []string `json:"order_by"`
	LimitBy []string `json:"limit_by"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions match.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Output is the optimized tree rendered with querytree.Format.
	Output string `json:"output"`

	// Queries holds one snapshot per query in visit order.
	Queries []QuerySnapshot `json:"queries"`

	// Report is the pass manager's report. Nil if the run failed.
	Report *passes.Report `json:"report,omitempty"`

	// Violation is the contract violation message, if a pass raised one.
	Violation string `json:"violation,omitempty"`

	// Run is the recorded run. Nil if the run failed.
	Run *store.Run `json:"run,omitempty"`

	tree querytree.Node
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Queries: []QuerySnapshot{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Tree returns the optimized tree.
func (r *Result) Tree() querytree.Node {
	return r.tree
}

// capture fills Output and Queries from tree.
func (r *Result) capture(tree querytree.Node) {
	r.tree = tree
	r.Output = querytree.Format(tree)
	r.Queries = r.Queries[:0]
	for i, q := range querytree.Queries(tree) {
		r.Queries = append(r.Queries, QuerySnapshot{
			Index:   i,
			OrderBy: querytree.FormatList(q.OrderByNodes()),
			LimitBy: querytree.FormatList(q.LimitByNodes()),
		})
	}
}
