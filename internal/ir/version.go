package ir

// Version constants for the tree document format and the optimizer.
const (
	// DocumentVersion is the tree document schema version.
	DocumentVersion = "1"

	// OptimizerVersion is the qtopt optimizer version.
	OptimizerVersion = "0.1.0"
)
