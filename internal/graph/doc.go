// Package graph implements deferred node-graph construction for an
// external 3D-authoring host.
//
// Callers describe nodes as Descriptors (parent, type, name, attributes,
// inputs, flags) and sequences of nodes as Chains, entirely in memory,
// without touching the host. A later Create call hands the graph to the
// Engine, which materializes every reachable descriptor exactly once in
// dependency order through the host primitives defined in internal/host.
//
// # Core Types
//
// Descriptor is an immutable-until-copied specification of one future
// node. Creation is deferred, idempotent, and memoized by descriptor
// identity: repeated Create calls return the same host object.
//
// Input is a tagged variant over the accepted input source shapes:
// descriptor, chain (resolving to the chain's last element), wrapped
// host object, path string, or an explicit none for sparse connections.
// Each carries an output index (default 0).
//
// Chain is an ordered, auto-wired sequence of descriptors. Nested chains
// are spliced flat, consecutive elements are implicitly connected
// primary-output to primary-input, and Copy supports reordering,
// duplication, and insertion against the original element sequence.
//
// Engine walks parent and input references depth-first, detects true
// circular dependencies with a visiting set, and populates the Registry.
//
// Registry is the reverse index from a materialized object's resolved
// path back to its originating descriptor. Entries are held in a TTL
// cache and verified against the host on lookup, so they never extend a
// host object's lifetime.
//
// # Error Handling
//
// All structural validation is deferred to Create time to preserve
// forward references. Failures wrap one of the sentinel errors
// (ErrResolution, ErrValidation, ErrCycle, ErrEmptyChain) or propagate
// the host error unchanged, and carry the failing descriptor's expected
// path. A failing deep Create leaves already-materialized dependencies
// in place; there is no rollback.
package graph
