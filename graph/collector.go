// ABOUTME: In-memory Delegate that records reachability and retained sizes
// ABOUTME: The default result sink for callers that do not stream results

package graph

// Retained holds the two metrics computed for one node.
type Retained struct {
	RetainedSize uint64
	UniqueSize   uint64
}

// Collector is a Delegate that accumulates results in memory. The zero value
// is ready to use.
type Collector struct {
	reachable map[int64]bool
	results   map[int64]Retained
}

var _ Delegate = (*Collector)(nil)

// MarkReachable records that row is reachable from a declared root.
func (c *Collector) MarkReachable(row int64) {
	if c.reachable == nil {
		c.reachable = make(map[int64]bool)
	}
	c.reachable[row] = true
}

// SetRetained records the computed metrics for row.
func (c *Collector) SetRetained(row int64, retainedSize, uniqueSize uint64) {
	if c.results == nil {
		c.results = make(map[int64]Retained)
	}
	c.results[row] = Retained{RetainedSize: retainedSize, UniqueSize: uniqueSize}
}

// Reachable reports whether row was proven reachable from a declared root.
func (c *Collector) Reachable(row int64) bool {
	return c.reachable[row]
}

// Result returns the metrics for row and whether they have been emitted.
func (c *Collector) Result(row int64) (Retained, bool) {
	r, ok := c.results[row]
	return r, ok
}

// NumResults returns how many nodes have results so far.
func (c *Collector) NumResults() int {
	return len(c.results)
}
