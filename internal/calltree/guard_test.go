package calltree

import (
	"sync"
	"testing"

	"github.com/treeprof/treeprof/internal/actions"
	"github.com/treeprof/treeprof/internal/testutil"
)

func TestSnapshotEqualsQuiescentTree(t *testing.T) {
	registry := actions.NewRegistry()
	a := registry.Register("A")
	b := registry.Register("B")

	guard := NewConcurrentTree(registry)
	guard.Lock()
	tree := guard.Tree()
	na := tree.StartAction(tree.Root(), a, 0)
	nb := tree.StartAction(na, b, 1)
	tree.StopAction(nb, 2)
	tree.StopAction(na, 3)
	guard.Unlock()

	snapshot := guard.Snapshot()

	liveStats, err := guard.Tree().Render()
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	snapStats, err := snapshot.Render()
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if diff := testutil.Diff(snapStats, liveStats); diff != "" {
		t.Fatalf("snapshot differs from live tree: %v", diff)
	}
}

func TestSnapshotIsIsolatedFromLaterMutation(t *testing.T) {
	registry := actions.NewRegistry()
	a := registry.Register("A")

	guard := NewConcurrentTree(registry)
	snapshot := guard.Snapshot()

	guard.Lock()
	guard.Tree().StartAction(guard.Tree().Root(), a, 1)
	guard.Unlock()

	if got, want := snapshot.Len(), 1; got != want {
		t.Fatalf("snapshot grew with the live tree: got %d nodes, want %d", got, want)
	}
}

func TestSnapshotNeverObservesPartialNodes(t *testing.T) {
	registry := actions.NewRegistry()
	a := registry.Register("A")

	guard := NewConcurrentTree(registry)
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		parent := guard.Tree().Root()
		for i := 0; i < 500; i++ {
			guard.Lock()
			tree := guard.Tree()
			node := tree.StartAction(parent, a, int64(i))
			tree.StopAction(node, int64(i+1))
			guard.Unlock()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			snapshot := guard.Snapshot()
			for node := NodeIndex(0); int(node) < snapshot.Len(); node++ {
				action := snapshot.ActionOf(node)
				if node == snapshot.Root() {
					if action != actions.NoAction {
						t.Errorf("root action: got %d, want NoAction", action)
					}
					continue
				}
				if action != a {
					t.Errorf("node %d has unwritten action id %d", node, action)
				}
			}
		}
	}()

	wg.Wait()
}
