// Package passes implements query tree optimization passes and the manager
// that runs them.
//
// A pass rewrites a tree in place. Passes assume the tree honours the
// contract checked by querytree.Validate; a breach is a bug in whatever
// built the tree, so passes panic with *ContractViolation instead of
// returning errors. Manager recovers those panics (and only those) and
// fails the run:
//
//	mgr := passes.NewManager(logger, passes.DefaultPasses()...)
//	report, err := mgr.Run(tree, passes.NewEnvironment())
//	if passes.IsContractViolation(err) {
//	    // tree was malformed; its contents can no longer be trusted
//	}
//
// Passes are single-threaded and perform no I/O. Distinct trees may be
// optimized concurrently as long as each tree has one owner.
package passes
