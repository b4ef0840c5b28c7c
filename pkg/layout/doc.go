// Package layout assigns 2D positions and edge endpoints to a tree map.
//
// # Algorithms
//
// [Engine.Layout] picks one of two algorithms by node count:
//
//   - Relational (count <= threshold, [DefaultThreshold] by default): a tidy
//     tree layout that honors three relations. Children descend one row;
//     spouses are placed next after their node on the same row; siblings are
//     placed next before it. A node and its lateral relatives form a group
//     that is centered over the combined children of its members.
//   - Linear (count > threshold): a single breadth-first pass assigns each
//     node a depth level and a sequential index within that level. It runs
//     in O(n) time and memory regardless of shape.
//
// Both algorithms are iterative and produce the same output shape; only the
// coordinates and [Result.Algorithm] differ.
//
// # Directions
//
// Coordinates are first computed for a top-to-bottom flow. Horizontal
// directions (LR, RL) transpose them, and reversed directions (BT, RL)
// mirror the depth axis so the flow still reads from the root outwards.
// Handle sides come from a fixed table indexed by [Role] and [Direction].
//
// # Edges
//
// Every children, spouses and siblings relation whose target was positioned
// yields one [Edge]. Edge IDs are "source->target", so repeated calls on the
// same input produce identical IDs.
//
// # Failure
//
// An empty map, a root ID that is not in the map, or a panic inside either
// algorithm all yield an empty [Result]. Layout never returns an error.
package layout
