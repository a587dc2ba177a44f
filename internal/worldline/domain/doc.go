// Package domain defines the worldline entities and value types.
//
// A worldline is one branch of narrative state: an identity, an active point
// of view, an authority lane, and a metadata tree tracking reachable nodes,
// per-POV choices, recorded snapshots, and assets. Worldlines form a forest
// through optional parent back-references created by forking; the parent link
// is lineage bookkeeping, never an ownership edge.
//
// The package is pure: no I/O, no clocks beyond injected functions, and no
// references to the registry that owns the worldlines.
package domain
