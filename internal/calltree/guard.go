package calltree

import (
	"sync"

	"github.com/treeprof/treeprof/internal/actions"
)

// ConcurrentTree pairs a RecordedTree with a mutex so that one goroutine can
// keep building the tree while another takes a consistent snapshot of it.
//
// The recording goroutine is the only mutator, but it must hold the lock
// around every mutation so a concurrent Snapshot never observes a node that
// is allocated but not yet written. Snapshot bounds its critical section to
// the size of the tree: the copy is taken under the lock, everything the
// caller does with it afterwards is not.
type ConcurrentTree struct {
	mu   sync.Mutex
	tree *RecordedTree
}

// NewConcurrentTree returns a guard around a fresh RecordedTree.
func NewConcurrentTree(registry *actions.Registry) *ConcurrentTree {
	return &ConcurrentTree{tree: NewRecordedTree(registry)}
}

// Lock acquires exclusive access to the underlying tree.
func (c *ConcurrentTree) Lock() {
	c.mu.Lock()
}

// Unlock releases exclusive access to the underlying tree.
func (c *ConcurrentTree) Unlock() {
	c.mu.Unlock()
}

// Tree returns the guarded tree. The caller must hold the lock for as long
// as it reads or mutates the tree if any other goroutine may access it.
func (c *ConcurrentTree) Tree() *RecordedTree {
	return c.tree
}

// Snapshot returns a deep copy of the guarded tree, taken under the lock.
func (c *ConcurrentTree) Snapshot() *RecordedTree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Clone()
}
