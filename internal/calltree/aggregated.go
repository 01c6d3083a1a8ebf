package calltree

import (
	"sort"

	"github.com/goccy/go-json"

	"github.com/treeprof/treeprof/internal/actions"
)

type (
	// aggregatedNode accumulates statistics for one action in one call
	// context. Children are keyed by action id: among siblings, each distinct
	// action occupies exactly one bucket.
	aggregatedNode struct {
		action actions.ActionID
		links  map[actions.ActionID]NodeIndex
		time   int64
		calls  int64
	}

	// AggregatedTree is the long-lived accumulator of call statistics. It
	// only ever grows: merges append nodes for first-seen action ids and add
	// to the numeric fields of existing ones, nothing is deleted or moved.
	AggregatedTree struct {
		registry *actions.Registry
		nodes    []aggregatedNode
	}

	// AggregatedStat is the export schema of one aggregated call context.
	// The document for a whole tree is the root's Actions slice, the root
	// itself is omitted.
	AggregatedStat struct {
		Name    string            `json:"name"`
		Time    int64             `json:"time"`
		Calls   int64             `json:"calls"`
		Actions []*AggregatedStat `json:"actions,omitempty"`
	}
)

// NewAggregatedTree returns a tree holding only the root node. The registry
// is shared, not owned; it is only consulted to resolve names during export.
func NewAggregatedTree(registry *actions.Registry) *AggregatedTree {
	t := &AggregatedTree{registry: registry}
	t.newNode(actions.NoAction)
	return t
}

func (t *AggregatedTree) newNode(action actions.ActionID) NodeIndex {
	t.nodes = append(t.nodes, aggregatedNode{
		action: action,
		links:  make(map[actions.ActionID]NodeIndex),
	})
	return NodeIndex(len(t.nodes) - 1)
}

// Root returns the index of the root node.
func (t *AggregatedTree) Root() NodeIndex {
	return rootIndex
}

// Len returns the number of nodes in the tree, the root included.
func (t *AggregatedTree) Len() int {
	return len(t.nodes)
}

// ActionOf returns the action id of node. Passing an index outside the
// allocated range is a programming error and panics.
func (t *AggregatedTree) ActionOf(node NodeIndex) actions.ActionID {
	return t.nodes[node].action
}

// TimeOf returns the cumulative time of node.
func (t *AggregatedTree) TimeOf(node NodeIndex) int64 {
	return t.nodes[node].time
}

// CallsOf returns the cumulative call count of node.
func (t *AggregatedTree) CallsOf(node NodeIndex) int64 {
	return t.nodes[node].calls
}

// HasChild reports whether node has a child for action.
func (t *AggregatedTree) HasChild(node NodeIndex, action actions.ActionID) bool {
	_, ok := t.nodes[node].links[action]
	return ok
}

// Child returns the child of node for action, NoNode if there is none.
func (t *AggregatedTree) Child(node NodeIndex, action actions.ActionID) NodeIndex {
	if child, ok := t.nodes[node].links[action]; ok {
		return child
	}
	return NoNode
}

// FindOrCreateChild returns the child of node for action, allocating it on
// the first occurrence of that action among node's children.
func (t *AggregatedTree) FindOrCreateChild(node NodeIndex, action actions.ActionID) NodeIndex {
	if child, ok := t.nodes[node].links[action]; ok {
		return child
	}
	child := t.newNode(action)
	t.nodes[node].links[action] = child
	return child
}

// AddTime adds delta to node's cumulative time.
func (t *AggregatedTree) AddTime(node NodeIndex, delta int64) {
	t.nodes[node].time += delta
}

// AddCalls adds n to node's cumulative call count.
func (t *AggregatedTree) AddCalls(node NodeIndex, n int64) {
	t.nodes[node].calls += n
}

// childActions returns node's child action ids in ascending order. Iteration
// over the links map is randomized, sorting keeps merges and exports
// deterministic.
func (t *AggregatedTree) childActions(node NodeIndex) []actions.ActionID {
	links := t.nodes[node].links
	if len(links) == 0 {
		return nil
	}
	ids := make([]actions.ActionID, 0, len(links))
	for action := range links {
		ids = append(ids, action)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a deep copy of the tree. The copy shares the registry but no
// node storage with the original.
func (t *AggregatedTree) Clone() *AggregatedTree {
	clone := &AggregatedTree{
		registry: t.registry,
		nodes:    make([]aggregatedNode, len(t.nodes)),
	}
	copy(clone.nodes, t.nodes)
	for i := range clone.nodes {
		links := make(map[actions.ActionID]NodeIndex, len(t.nodes[i].links))
		for action, child := range t.nodes[i].links {
			links[action] = child
		}
		clone.nodes[i].links = links
	}
	return clone
}

// MergeInto folds the tree's totals into dst. For every node, the matching
// child under the corresponding dst node is found or created by action id and
// the node's cumulative time and calls are added to it. Totals are therefore
// independent of the order trees are merged in.
func (t *AggregatedTree) MergeInto(dst *AggregatedTree) {
	t.mergeNode(rootIndex, dst, dst.Root())
}

func (t *AggregatedTree) mergeNode(src NodeIndex, dst *AggregatedTree, dstNode NodeIndex) {
	if src != rootIndex {
		dst.AddTime(dstNode, t.nodes[src].time)
		dst.AddCalls(dstNode, t.nodes[src].calls)
	}
	for _, action := range t.childActions(src) {
		child := t.nodes[src].links[action]
		t.mergeNode(child, dst, dst.FindOrCreateChild(dstNode, action))
	}
}

// Render resolves the tree into its export schema, children ordered by
// action id. It fails if a node carries an action id the registry does not
// know.
func (t *AggregatedTree) Render() ([]*AggregatedStat, error) {
	return t.renderChildren(rootIndex)
}

func (t *AggregatedTree) renderChildren(node NodeIndex) ([]*AggregatedStat, error) {
	ids := t.childActions(node)
	if len(ids) == 0 {
		return nil, nil
	}
	stats := make([]*AggregatedStat, 0, len(ids))
	for _, action := range ids {
		child := t.nodes[node].links[action]
		name, err := t.registry.NameOf(action)
		if err != nil {
			return nil, err
		}
		children, err := t.renderChildren(child)
		if err != nil {
			return nil, err
		}
		stats = append(stats, &AggregatedStat{
			Name:    name,
			Time:    t.nodes[child].time,
			Calls:   t.nodes[child].calls,
			Actions: children,
		})
	}
	return stats, nil
}

// MarshalJSON emits the tree as the JSON array of its root's children.
func (t *AggregatedTree) MarshalJSON() ([]byte, error) {
	stats, err := t.Render()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []*AggregatedStat{}
	}
	return json.Marshal(stats)
}
