// Package store provides SQLite-backed history of optimization runs.
//
// The store keeps two tables:
//   - trees: content-addressed tree snapshots (canonical JSON + rendering)
//   - runs: one row per optimization, referencing its input and output trees
//
// # Identity and ordering
//
// Tree IDs are ir.TreeID of the canonical document, so identical trees are
// stored once no matter how often they are optimized. Run IDs are UUIDv7.
// Runs carry a logical seq; all history queries order by seq, never by
// wall time, so results are deterministic:
//
//	ORDER BY seq DESC, id COLLATE BINARY ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
