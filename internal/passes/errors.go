package passes

import (
	"errors"
	"fmt"
)

// Clause names used in contract violations.
const (
	ClauseOrderBy = "ORDER BY"
	ClauseLimitBy = "LIMIT BY"
)

// ContractViolation reports a tree that breaks the node contract a pass
// relies on, e.g. an ORDER BY element that is not a sort node.
//
// Passes panic with *ContractViolation; Manager.Run recovers it and returns
// it as an error. A tree that produced a violation must be discarded: the
// failing pass may have rewritten part of it.
type ContractViolation struct {
	// Pass is the name of the pass that detected the breach.
	Pass string

	// Clause is ClauseOrderBy or ClauseLimitBy.
	Clause string

	// Index is the position of the offending element in the clause.
	Index int

	// Message describes the breach.
	Message string
}

// Error implements the error interface.
func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation in %s: %s element %d: %s", e.Pass, e.Clause, e.Index, e.Message)
}

func violatef(pass, clause string, index int, format string, args ...any) {
	panic(&ContractViolation{
		Pass:    pass,
		Clause:  clause,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	})
}

// IsContractViolation returns true if err is or wraps a *ContractViolation.
func IsContractViolation(err error) bool {
	var cv *ContractViolation
	return errors.As(err, &cv)
}
