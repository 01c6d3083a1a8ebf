// Package aggregator owns the process-wide profiling state: the running
// total of every submitted execution and the most recent execution itself.
package aggregator

import (
	"sync"

	"github.com/treeprof/treeprof/internal/actions"
	"github.com/treeprof/treeprof/internal/calltree"
)

// Manager serializes tree submissions from many recording goroutines into
// one AggregatedTree of all-time totals and keeps the last submitted
// RecordedTree for inspection. Both fields are guarded by a single mutex so
// a submission updates them as a pair.
//
// Reads go through TotalSnapshot and LastSnapshot, which deep copy under the
// same mutex. There is no unlocked read path: traced trees are small, so
// copying is cheaper than reasoning about readers observing a merge halfway
// through.
type Manager struct {
	mu    sync.Mutex
	total *calltree.AggregatedTree
	last  *calltree.RecordedTree
}

// NewManager returns a manager with an empty total. The total lives for the
// lifetime of the manager and only ever grows; there is no reset.
func NewManager(registry *actions.Registry) *Manager {
	return &Manager{total: calltree.NewAggregatedTree(registry)}
}

// AddTree snapshots the guarded tree and submits the copy. The recording
// goroutine may keep mutating its tree afterwards; the manager never aliases
// it.
func (m *Manager) AddTree(tree *calltree.ConcurrentTree) {
	m.Submit(tree.Snapshot())
}

// Submit merges tree into the running total and makes it the most recent
// execution, replacing the previous one. Ownership of tree transfers to the
// manager; the caller must not mutate it afterwards.
func (m *Manager) Submit(tree *calltree.RecordedTree) {
	treesSubmitted.Inc()
	if n := tree.Unterminated(); n > 0 {
		unterminatedCalls.Add(float64(n))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tree.MergeInto(m.total)
	m.last = tree
}

// TotalSnapshot returns a deep copy of the all-time totals.
func (m *Manager) TotalSnapshot() *calltree.AggregatedTree {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total.Clone()
}

// LastSnapshot returns a deep copy of the most recently submitted execution,
// nil if nothing was submitted yet.
func (m *Manager) LastSnapshot() *calltree.RecordedTree {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return nil
	}
	return m.last.Clone()
}
