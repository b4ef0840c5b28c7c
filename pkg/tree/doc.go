// Package tree builds the flat tree map that sits between a parsed document
// and its laid-out graph.
//
// # Overview
//
// [Build] walks a [document.Value] and produces a [Map]: one [Node] per
// document location, keyed by a structural identity, in walk order. Nodes
// carry a display label, their ordered children, optional lateral relations
// (siblings and spouses) and a best-effort source line.
//
// # Identities
//
// Content nodes are identified by pointers from package pointer ("/a/0/b").
// The structural root is identified by [RootID], which never starts with "/"
// and so can never collide with a content pointer, including "/" itself
// (the pointer to an empty-string key under the root).
//
// # Line Estimates
//
// Unless the caller asks for source lines, node lines follow a display
// heuristic: the first child of a container sits one line below its parent,
// a scalar child advances the counter by one, and a nested container advances
// it by its own child count plus two for the bracket rows. The estimate is
// not a source-mapping contract.
//
// # Invariants
//
// Maps produced by [Build] satisfy:
//   - exactly one node (the root) is not referenced by any relation list
//   - every relation target exists in the map ([Map.Validate])
//   - the same input always yields the same ids, labels and child order
//
// Maps are read-only once built; layout and visibility code only reads them.
package tree
