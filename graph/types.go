// ABOUTME: Shared types for the heap ownership graph core
// ABOUTME: Defines the Delegate result-sink interface

package graph

// Delegate receives the walker's results as they are produced. The walker
// emits per-node facts as a side effect of component discovery and never
// stores them itself; the caller decides whether to buffer, persist, or
// stream them.
type Delegate interface {
	// MarkReachable is invoked exactly once per node, the first time the
	// node is proven reachable from some declared root.
	MarkReachable(row int64)

	// SetRetained is invoked exactly once per node, when the node's
	// component is finalized. retainedSize is the total memory freed if
	// every external reference into the node's component disappeared.
	// uniqueSize is the node's self size plus the memory it is the sole
	// owner of.
	SetRetained(row int64, retainedSize, uniqueSize uint64)
}
