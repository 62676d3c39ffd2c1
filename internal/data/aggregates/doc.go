// Package aggregates implements the commerce write boundaries.
//
// Each aggregate composes table repos from internal/data/repos and owns the
// transaction for its invariant-critical writes.
package aggregates
