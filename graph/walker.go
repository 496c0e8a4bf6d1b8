// ABOUTME: SCC discovery and retained-size computation over the ownership graph
// ABOUTME: Tarjan low-link search with fractional ownership propagation

package graph

import (
	"fmt"
	"slices"
)

// component is one strongly-connected component. Components are created in
// strict dependency order: every component a member points to outside its
// own SCC already exists and has a smaller id.
type component struct {
	lowlink            uint64
	uniqueRetainedSize uint64

	// incomingEdges counts cross-component edges into this component that no
	// ancestor has resolved yet. origIncomingEdges is its value at creation
	// and never changes; it is the denominator of every ownership fraction
	// over this component.
	incomingEdges     uint64
	origIncomingEdges uint64

	// childComponents is the ownership ledger: for each descendant component
	// id, the fraction of that descendant's external incoming edges this
	// component accounts for. An entry is dropped the moment ownership
	// becomes total, and the whole ledger is dropped once incomingEdges hits
	// zero, keeping live state proportional to the unresolved frontier.
	childComponents map[int64]Fraction
}

// addShare accumulates f into the ledger entry for id and returns the new
// total share.
func (c *component) addShare(id int64, f Fraction) Fraction {
	share, ok := c.childComponents[id]
	if !ok {
		share = NewFraction(0, 1)
	}
	share = share.Add(f)
	c.childComponents[id] = share
	return share
}

// Walker computes, for every node of an ownership graph, the retained size
// of its strongly-connected component and the share of it the node uniquely
// owns.
//
// Usage: register nodes with AddNode and edges with AddEdge, declare roots
// with MarkRoot, then call CalculateRetained. Results stream to the Delegate
// as each component is resolved. A Walker is single-use and not safe for
// concurrent use; invariant violations caused by inconsistent graph
// construction panic rather than produce corrupt sizes.
type Walker struct {
	delegate   Delegate
	store      store
	components []component
	nodeStack  []int64
	nextIndex  uint64
}

// NewWalker returns a Walker that reports results to delegate, which must be
// non-nil.
func NewWalker(delegate Delegate) *Walker {
	return &Walker{delegate: delegate}
}

// AddNode registers or updates the self size of the node at row. Rows are
// used as dense array indices and must be non-negative; sparse caller ids
// need translating before they get here.
func (w *Walker) AddNode(row int64, selfSize uint64) {
	w.store.addNode(row, selfSize)
}

// AddEdge registers an ownership edge. Edges are a set: registering the same
// pair twice is a no-op. Endpoints never passed to AddNode are created with
// a self size of zero.
func (w *Walker) AddEdge(ownerRow, ownedRow int64) {
	w.store.addEdge(ownerRow, ownedRow)
}

// MarkRoot declares row as a root. Everything reachable from it is marked
// reachable, and its component, plus every component it depends on, is
// resolved immediately.
func (w *Walker) MarkRoot(row int64) {
	n := w.store.node(row)
	w.store.markReachable(row, w.delegate)
	if n.index == 0 {
		w.findSCC(row)
	}
}

// CalculateRetained assigns every remaining node to a component, including
// nodes unreachable from any declared root, and emits their results. It
// panics if any component's live incoming-edge count is nonzero afterwards:
// that would mean a cross-component edge was double-counted or missed.
func (w *Walker) CalculateRetained() {
	for row := range w.store.nodes {
		if w.store.nodes[row].index == 0 {
			w.findSCC(int64(row))
		}
	}
	for id := range w.components {
		if n := w.components[id].incomingEdges; n != 0 {
			panic(fmt.Sprintf("graph: component %d finished with %d unresolved incoming edges", id, n))
		}
	}
}

// sccFrame is one suspended visit of the low-link search.
type sccFrame struct {
	row      int64
	children []int64
	next     int
}

// findSCC runs the low-link search from row, resolving every component in
// the subgraph below it. Iterative with an explicit frame stack: the search
// depth equals the longest owner chain, which for real heaps can outrun the
// goroutine stack.
func (w *Walker) findSCC(row int64) {
	frames := []sccFrame{w.discover(row)}
	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		n := &w.store.nodes[f.row]

		descended := false
		for f.next < len(f.children) {
			childRow := f.children[f.next]
			child := &w.store.nodes[childRow]
			if child.index == 0 {
				f.next++
				frames = append(frames, w.discover(childRow))
				descended = true
				break
			}
			// An on-stack child pulls up its discovery index, never its
			// low-link; using the low-link here is the classic Tarjan bug.
			if child.onStack && child.index < n.lowlink {
				n.lowlink = child.index
			}
			f.next++
		}
		if descended {
			continue
		}

		if n.lowlink == n.index {
			w.foundSCC(f.row)
		}
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := &w.store.nodes[frames[len(frames)-1].row]
			if n.lowlink < parent.lowlink {
				parent.lowlink = n.lowlink
			}
		}
	}
}

// discover assigns row its discovery index and pushes it onto the working
// stack, returning the search frame for it. Children are snapshotted in row
// order so discovery is deterministic.
func (w *Walker) discover(row int64) sccFrame {
	n := &w.store.nodes[row]
	w.nextIndex++
	n.index = w.nextIndex
	n.lowlink = w.nextIndex
	n.onStack = true
	w.nodeStack = append(w.nodeStack, row)
	return sccFrame{row: row, children: sortedKeys(n.children)}
}

// directChild accumulates the cross-component edges from the component being
// finalized into one already-resolved child component.
type directChild struct {
	// edgeCount is the number of distinct (owner node, owned node) edges
	// crossing into the child component. It must match what the child
	// counted as incoming from here, or edge conservation breaks.
	edgeCount uint64
	// lastRow is the most recently seen member owning such an edge; with
	// edgeCount == 1 it identifies the sole owning node.
	lastRow int64
}

// ambiguousOwner marks a child component owned through more than one member
// node, which disqualifies it from unique attribution.
const ambiguousOwner = int64(-1)

// recordOwner notes that row owns edges into childID. More than one edge, or
// a second distinct owning row, makes the ownership ambiguous.
func recordOwner(ownerOf map[int64]int64, edgeCount uint64, childID, row int64) {
	if edgeCount > 1 {
		ownerOf[childID] = ambiguousOwner
		return
	}
	if prev, ok := ownerOf[childID]; !ok {
		ownerOf[childID] = row
	} else if prev != row {
		// Finalization records each direct child exactly once, so this arm
		// only fires if a caller ever records the same id from two rows.
		ownerOf[childID] = ambiguousOwner
	}
}

// uniqueOwner reports whether row is the single member owning childID.
func uniqueOwner(ownerOf map[int64]int64, edgeCount uint64, childID, row int64) bool {
	if edgeCount > 1 {
		return false
	}
	prev, ok := ownerOf[childID]
	return !ok || prev == row
}

// foundSCC finalizes the component rooted at rootRow: it pops the members,
// folds in the ownership ledgers of the component's resolved children, and
// emits the per-node results.
func (w *Walker) foundSCC(rootRow int64) {
	componentID := int64(len(w.components))
	comp := component{
		lowlink:         w.store.nodes[rootRow].lowlink,
		childComponents: make(map[int64]Fraction),
	}

	var members []int64
	directChildren := make(map[int64]*directChild)

	for {
		memberRow := w.nodeStack[len(w.nodeStack)-1]
		w.nodeStack = w.nodeStack[:len(w.nodeStack)-1]
		members = append(members, memberRow)
		member := &w.store.nodes[memberRow]

		for _, childRow := range sortedKeys(member.children) {
			child := &w.store.nodes[childRow]
			if child.onStack {
				// Part of this same SCC; this loop pops it.
				continue
			}
			if child.component == noComponent {
				panic(fmt.Sprintf("graph: node %d reaches node %d which is neither on the stack nor resolved", memberRow, childRow))
			}
			if child.component == componentID {
				// A member popped earlier in this loop.
				continue
			}
			dc := directChildren[child.component]
			if dc == nil {
				dc = &directChild{}
				directChildren[child.component] = dc
			}
			dc.edgeCount++
			dc.lastRow = memberRow
		}

		member.onStack = false
		if member.component != noComponent {
			panic(fmt.Sprintf("graph: node %d assigned to component %d but already belongs to %d", memberRow, componentID, member.component))
		}
		member.component = componentID
		if memberRow == rootRow {
			break
		}
	}

	for _, memberRow := range members {
		member := &w.store.nodes[memberRow]
		comp.uniqueRetainedSize += member.selfSize
		for parentRow := range member.parents {
			// Intra-component edges are not incoming edges. Edges from
			// not-yet-resolved ancestors do count; the ancestor's own
			// finalization resolves them later.
			if w.store.nodes[parentRow].component != componentID {
				comp.incomingEdges++
			}
		}
	}
	comp.origIncomingEdges = comp.incomingEdges

	uniqueByRow := make(map[int64]uint64)
	ownerOfChild := make(map[int64]int64)

	for _, childID := range sortedKeys(directChildren) {
		dc := directChildren[childID]
		child := &w.components[childID]

		recordOwner(ownerOfChild, dc.edgeCount, childID, dc.lastRow)

		if child.incomingEdges < dc.edgeCount {
			panic(fmt.Sprintf("graph: component %d has %d live incoming edges but component %d resolves %d", childID, child.incomingEdges, componentID, dc.edgeCount))
		}
		child.incomingEdges -= dc.edgeCount

		// Fold the child's ledger into ours: our share of the child scales
		// every partial claim the child holds on its own descendants.
		multiplier := NewFraction(dc.edgeCount, child.origIncomingEdges)
		for grandID, childShare := range child.childComponents {
			grand := &w.components[grandID]
			share := comp.addShare(grandID, multiplier.Mul(childShare))
			if share.EqualsInt(1) {
				comp.uniqueRetainedSize += grand.uniqueRetainedSize
				if uniqueOwner(ownerOfChild, dc.edgeCount, grandID, dc.lastRow) {
					uniqueByRow[dc.lastRow] += grand.uniqueRetainedSize
				}
				delete(comp.childComponents, grandID)
			}
		}

		if child.origIncomingEdges == dc.edgeCount {
			// This component alone accounts for every external edge into the
			// child; no fraction needed. The counter was decremented above.
			if child.incomingEdges != 0 {
				panic(fmt.Sprintf("graph: component %d fully owned by component %d but has %d live incoming edges", childID, componentID, child.incomingEdges))
			}
			comp.uniqueRetainedSize += child.uniqueRetainedSize
			if dc.edgeCount == 1 {
				uniqueByRow[dc.lastRow] += child.uniqueRetainedSize
			}
		} else {
			share := comp.addShare(childID, NewFraction(dc.edgeCount, child.origIncomingEdges))
			if share.EqualsInt(1) {
				comp.uniqueRetainedSize += child.uniqueRetainedSize
				if uniqueOwner(ownerOfChild, dc.edgeCount, childID, dc.lastRow) {
					uniqueByRow[dc.lastRow] += child.uniqueRetainedSize
				}
				delete(comp.childComponents, childID)
			}
		}

		if child.incomingEdges == 0 {
			// No ancestor can ever consult this ledger again.
			child.childComponents = nil
		}
	}

	// Partially owned children still count toward what this component
	// retains: from the perspective of our own ancestors, nothing downstream
	// has been freed independently.
	retained := comp.uniqueRetainedSize
	for childID := range comp.childComponents {
		retained += w.components[childID].uniqueRetainedSize
	}

	w.components = append(w.components, comp)

	for _, memberRow := range members {
		member := &w.store.nodes[memberRow]
		w.delegate.SetRetained(memberRow, retained, member.selfSize+uniqueByRow[memberRow])
	}
}

// sortedKeys returns the keys of m in ascending order, for deterministic
// traversal and finalization.
func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
