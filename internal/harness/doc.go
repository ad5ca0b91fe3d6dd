// Package harness provides a conformance testing framework for the query
// tree optimizer.
//
// A scenario is a YAML file naming a tree (a file path or an inline
// document) and a list of assertions:
//
//	name: duplicate_order_by
//	description: Repeated sort keys collapse to their first occurrence
//	tree: trees/duplicate_order_by.yaml
//	assertions:
//	  - type: order_by
//	    expect: [a, b]
//	  - type: removed
//	    order_by: 1
//	  - type: idempotent
//
// Run compiles the tree, runs the default pass pipeline and records the run
// in a fresh in-memory store with sequential run IDs and a stepping clock,
// so two executions of the same scenario produce identical results.
// RunWithGolden additionally compares a canonical JSON snapshot of the
// outcome against testdata/golden/<name>.golden.
//
// Contract violations raised by a pass do not abort Run. They are reported
// in Result.Violation and can be asserted with the "violation" type.
package harness
