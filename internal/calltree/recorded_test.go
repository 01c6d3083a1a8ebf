package calltree

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/treeprof/treeprof/internal/actions"
	"github.com/treeprof/treeprof/internal/errorutil"
	"github.com/treeprof/treeprof/internal/testutil"
)

func TestRecordedTreeRecordsOrderedCalls(t *testing.T) {
	registry := actions.NewRegistry()
	a := registry.Register("A")
	b := registry.Register("B")

	tree := NewRecordedTree(registry)
	na := tree.StartAction(tree.Root(), a, 0)
	nb1 := tree.StartAction(na, b, 1)
	tree.StopAction(nb1, 4)
	nb2 := tree.StartAction(na, b, 5)
	tree.StopAction(nb2, 9)
	tree.StopAction(na, 10)

	if got, want := tree.Len(), 4; got != want {
		t.Fatalf("node count: got %d, want %d", got, want)
	}
	if got := tree.ActionOf(tree.Root()); got != actions.NoAction {
		t.Fatalf("root action: got %d, want NoAction", got)
	}
	if nb1 == nb2 {
		t.Fatalf("two calls to the same action share node %d", nb1)
	}
	if got, want := tree.StartTimeOf(nb2), int64(5); got != want {
		t.Fatalf("start time of second B call: got %d, want %d", got, want)
	}

	stats, err := tree.Render()
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	want := []*RecordedStat{
		{Name: "A", StartTime: 0, StopTime: 10, Actions: []*RecordedStat{
			{Name: "B", StartTime: 1, StopTime: 4},
			{Name: "B", StartTime: 5, StopTime: 9},
		}},
	}
	if diff := testutil.Diff(stats, want); diff != "" {
		t.Fatalf("rendered tree mismatch: %v", diff)
	}
}

func TestRecordedTreeExportIsLossless(t *testing.T) {
	registry := actions.NewRegistry()
	a := registry.Register("A")
	b := registry.Register("B")
	c := registry.Register("C")

	tree := NewRecordedTree(registry)
	na := tree.StartAction(tree.Root(), a, 10)
	nb := tree.StartAction(na, b, 20)
	tree.StopAction(nb, 30)
	nc := tree.StartAction(na, c, 40)
	tree.StopAction(nc, 50)
	tree.StopAction(na, 60)

	payload, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	var parsed []*RecordedStat
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	rendered, err := tree.Render()
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if diff := testutil.Diff(parsed, rendered); diff != "" {
		t.Fatalf("re-parsed export differs from rendered tree: %v", diff)
	}
}

func TestRecordedTreeRenderUnknownAction(t *testing.T) {
	registry := actions.NewRegistry()
	tree := NewRecordedTree(registry)
	tree.StartAction(tree.Root(), actions.ActionID(7), 0)

	_, err := tree.Render()
	if !errors.Is(err, errorutil.ErrNotFound) {
		t.Fatalf("rendering a tree with an unregistered action: got %v, want ErrNotFound", err)
	}
}

func TestRecordedTreeUnterminated(t *testing.T) {
	registry := actions.NewRegistry()
	a := registry.Register("A")
	b := registry.Register("B")

	tree := NewRecordedTree(registry)
	na := tree.StartAction(tree.Root(), a, 5)
	nb := tree.StartAction(na, b, 6)
	tree.StopAction(nb, 8)

	if got, want := tree.Unterminated(), 1; got != want {
		t.Fatalf("unterminated calls: got %d, want %d", got, want)
	}
	tree.StopAction(na, 9)
	if got, want := tree.Unterminated(), 0; got != want {
		t.Fatalf("unterminated calls after stop: got %d, want %d", got, want)
	}
}

func TestRecordedTreeClone(t *testing.T) {
	registry := actions.NewRegistry()
	a := registry.Register("A")
	b := registry.Register("B")

	tree := NewRecordedTree(registry)
	na := tree.StartAction(tree.Root(), a, 0)
	tree.StopAction(na, 10)

	clone := tree.Clone()
	tree.StartAction(na, b, 11)

	if got, want := clone.Len(), 2; got != want {
		t.Fatalf("clone grew with the original: got %d nodes, want %d", got, want)
	}
	stats, err := clone.Render()
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	want := []*RecordedStat{{Name: "A", StartTime: 0, StopTime: 10}}
	if diff := testutil.Diff(stats, want); diff != "" {
		t.Fatalf("rendered clone mismatch: %v", diff)
	}
}
