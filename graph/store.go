// ABOUTME: Dense arena of heap graph nodes with child/parent adjacency
// ABOUTME: Handles node and edge registration and root reachability marking

package graph

// noComponent marks a node not yet assigned to any component.
const noComponent = int64(-1)

// node is one heap object. Rows are dense indices into the store's arena and
// adjacency is kept as index sets, so nodes never hold pointers to each
// other.
type node struct {
	selfSize uint64

	// children holds outgoing "owns" edges; parents holds the reverse edges,
	// which are only read for component boundary counting, never traversed.
	// Both are sets: a second edge between the same pair collapses.
	children map[int64]struct{}
	parents  map[int64]struct{}

	// Tarjan bookkeeping. A discovery index of 0 means unvisited.
	index     uint64
	lowlink   uint64
	onStack   bool
	reachable bool
	component int64
}

// store owns every node of the graph, indexed by row.
type store struct {
	nodes []node
}

// node returns the node at row, growing the arena on demand. New slots start
// unassigned.
func (s *store) node(row int64) *node {
	for int64(len(s.nodes)) <= row {
		s.nodes = append(s.nodes, node{component: noComponent})
	}
	return &s.nodes[row]
}

// addNode registers or overwrites the self size of the node at row.
func (s *store) addNode(row int64, selfSize uint64) {
	s.node(row).selfSize = selfSize
}

// addEdge records that owner owns owned. Rows never passed to addNode are
// grown on demand with a self size of zero.
func (s *store) addEdge(ownerRow, ownedRow int64) {
	// Grow both rows before taking pointers; growth reallocates the arena.
	s.node(ownerRow)
	s.node(ownedRow)

	owner := &s.nodes[ownerRow]
	if owner.children == nil {
		owner.children = make(map[int64]struct{})
	}
	owner.children[ownedRow] = struct{}{}

	owned := &s.nodes[ownedRow]
	if owned.parents == nil {
		owned.parents = make(map[int64]struct{})
	}
	owned.parents[ownerRow] = struct{}{}
}

// markReachable flips the reachability flag on row and everything it
// transitively owns, notifying the delegate once per newly reached node.
// Iterative: owner chains in real heaps outrun the call stack. Total cost
// across all roots is O(edges), since marked subtrees are never re-walked.
func (s *store) markReachable(row int64, delegate Delegate) {
	stack := []int64{row}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &s.nodes[r]
		if n.reachable {
			continue
		}
		delegate.MarkReachable(r)
		n.reachable = true
		for child := range n.children {
			if !s.nodes[child].reachable {
				stack = append(stack, child)
			}
		}
	}
}
