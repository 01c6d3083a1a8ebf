// Package calltree implements the two call tree variants at the heart of the
// profiler: RecordedTree, the ordered, timestamped record of a single traced
// execution, and AggregatedTree, the deduplicated accumulator of time and
// call counts across many executions.
//
// Both variants store their nodes in an append-only arena owned by the tree
// and refer to nodes by index. Indices are stable for the lifetime of the
// tree: nodes are only ever appended, never removed or relocated, which keeps
// trees cheap to deep copy for snapshotting.
package calltree

// NodeIndex addresses a node inside its owning tree's arena.
type NodeIndex int

// NoNode marks the absence of a node, e.g. a missing child.
const NoNode NodeIndex = -1

// rootIndex is the arena slot of the root node of every tree. The root
// carries actions.NoAction and is excluded from exported output.
const rootIndex NodeIndex = 0

// MergeSource is a tree whose statistics can be folded into an
// AggregatedTree. Both tree variants implement it: a RecordedTree contributes
// one call and one elapsed duration per node, an AggregatedTree contributes
// its cumulative totals.
type MergeSource interface {
	MergeInto(dst *AggregatedTree)
}

// elapsed returns the duration of a recorded call, clamping ill-defined
// values to zero. A node whose stop timestamp was never set (it defaults to
// zero) or precedes its start timestamp would otherwise contribute a negative
// duration to the aggregate.
func elapsed(start, stop int64) int64 {
	if stop <= start {
		return 0
	}
	return stop - start
}
