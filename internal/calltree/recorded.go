package calltree

import (
	"github.com/goccy/go-json"

	"github.com/treeprof/treeprof/internal/actions"
)

type (
	// childLink pairs the action id of a child with its arena index. The
	// action id is duplicated on the link so sibling scans do not have to
	// chase the index.
	childLink struct {
		action actions.ActionID
		node   NodeIndex
	}

	// recordedNode is one call event: which action ran, when it started and
	// stopped, and the calls nested inside it in the order they happened.
	recordedNode struct {
		action    actions.ActionID
		children  []childLink
		startTime int64
		stopTime  int64
	}

	// RecordedTree is the faithful record of one traced execution. Children
	// are ordered and may repeat an action id: each occurrence is a distinct
	// call. A RecordedTree is built by a single goroutine; wrap it in a
	// ConcurrentTree if another goroutine needs to snapshot it mid-build.
	RecordedTree struct {
		registry *actions.Registry
		nodes    []recordedNode
	}

	// RecordedStat is the export schema of a recorded call. The document for
	// a whole tree is the root's Actions slice, the root itself is omitted.
	RecordedStat struct {
		Name      string          `json:"name"`
		StartTime int64           `json:"start_time"`
		StopTime  int64           `json:"stop_time"`
		Actions   []*RecordedStat `json:"actions,omitempty"`
	}
)

// NewRecordedTree returns a tree holding only the root node. The registry is
// shared, not owned; it is only consulted to resolve names during export.
func NewRecordedTree(registry *actions.Registry) *RecordedTree {
	t := &RecordedTree{registry: registry}
	t.newNode(actions.NoAction)
	return t
}

func (t *RecordedTree) newNode(action actions.ActionID) NodeIndex {
	t.nodes = append(t.nodes, recordedNode{action: action})
	return NodeIndex(len(t.nodes) - 1)
}

// Root returns the index of the root node.
func (t *RecordedTree) Root() NodeIndex {
	return rootIndex
}

// Len returns the number of nodes in the tree, the root included.
func (t *RecordedTree) Len() int {
	return len(t.nodes)
}

// ActionOf returns the action id of node. Passing an index outside the
// allocated range is a programming error and panics.
func (t *RecordedTree) ActionOf(node NodeIndex) actions.ActionID {
	return t.nodes[node].action
}

// StartTimeOf returns the start timestamp of node.
func (t *RecordedTree) StartTimeOf(node NodeIndex) int64 {
	return t.nodes[node].startTime
}

// StopTimeOf returns the stop timestamp of node, zero if the call is still
// open.
func (t *RecordedTree) StopTimeOf(node NodeIndex) int64 {
	return t.nodes[node].stopTime
}

// StartAction records a call to action nested under parent, started at now.
// It always allocates a fresh node and appends it to parent's child list,
// even when a sibling for the same action already exists: every call is a
// distinct event. It returns the index of the new node.
func (t *RecordedTree) StartAction(parent NodeIndex, action actions.ActionID, now int64) NodeIndex {
	node := t.newNode(action)
	t.nodes[node].startTime = now
	t.nodes[parent].children = append(t.nodes[parent].children, childLink{action: action, node: node})
	return node
}

// StopAction records that the call at node stopped at now. It does not
// validate call nesting; callers that need mismatch detection keep their own
// open-call stack.
func (t *RecordedTree) StopAction(node NodeIndex, now int64) {
	t.nodes[node].stopTime = now
}

// Unterminated returns the number of calls whose stop timestamp is missing
// or precedes their start. Such calls contribute zero elapsed time when the
// tree is merged.
func (t *RecordedTree) Unterminated() int {
	n := 0
	for i := range t.nodes {
		if NodeIndex(i) == rootIndex {
			continue
		}
		if t.nodes[i].stopTime < t.nodes[i].startTime {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the tree. The copy shares the registry but no
// node storage with the original.
func (t *RecordedTree) Clone() *RecordedTree {
	clone := &RecordedTree{
		registry: t.registry,
		nodes:    make([]recordedNode, len(t.nodes)),
	}
	copy(clone.nodes, t.nodes)
	for i := range clone.nodes {
		if len(t.nodes[i].children) == 0 {
			continue
		}
		children := make([]childLink, len(t.nodes[i].children))
		copy(children, t.nodes[i].children)
		clone.nodes[i].children = children
	}
	return clone
}

// MergeInto folds the tree's calls into dst. For every node, the matching
// child under the corresponding dst node is found or created by action id,
// its call count incremented by one and its cumulative time increased by the
// node's elapsed duration. Ill-defined durations are clamped to zero, the
// call is still counted.
func (t *RecordedTree) MergeInto(dst *AggregatedTree) {
	t.mergeNode(rootIndex, dst, dst.Root())
}

func (t *RecordedTree) mergeNode(src NodeIndex, dst *AggregatedTree, dstNode NodeIndex) {
	if src != rootIndex {
		n := &t.nodes[src]
		dst.AddTime(dstNode, elapsed(n.startTime, n.stopTime))
		dst.AddCalls(dstNode, 1)
	}
	for _, link := range t.nodes[src].children {
		t.mergeNode(link.node, dst, dst.FindOrCreateChild(dstNode, link.action))
	}
}

// Render resolves the tree into its export schema, the root's children in
// insertion order. It fails if a node carries an action id the registry does
// not know.
func (t *RecordedTree) Render() ([]*RecordedStat, error) {
	return t.renderChildren(rootIndex)
}

func (t *RecordedTree) renderChildren(node NodeIndex) ([]*RecordedStat, error) {
	links := t.nodes[node].children
	if len(links) == 0 {
		return nil, nil
	}
	stats := make([]*RecordedStat, 0, len(links))
	for _, link := range links {
		name, err := t.registry.NameOf(link.action)
		if err != nil {
			return nil, err
		}
		children, err := t.renderChildren(link.node)
		if err != nil {
			return nil, err
		}
		stats = append(stats, &RecordedStat{
			Name:      name,
			StartTime: t.nodes[link.node].startTime,
			StopTime:  t.nodes[link.node].stopTime,
			Actions:   children,
		})
	}
	return stats, nil
}

// MarshalJSON emits the tree as the JSON array of its root's children.
func (t *RecordedTree) MarshalJSON() ([]byte, error) {
	stats, err := t.Render()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []*RecordedStat{}
	}
	return json.Marshal(stats)
}
