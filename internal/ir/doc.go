// Package ir provides the foundational value and hashing types for qtopt.
//
// This package has no internal imports. querytree, compiler, store and
// harness all build on it, which keeps ir the bottom layer with no cycles.
//
// Key design constraints:
//   - NO float literals anywhere - use int64 for numbers
//   - RFC 8785 canonical JSON is the only encoding used for hashing
//   - Structural digests are domain-separated SHA-256 (see hash.go)
package ir
