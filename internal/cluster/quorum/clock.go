package quorum

import "sync"

// VersionClock is the cluster's monotonic 64-bit write counter, an instance
// field protected by its own lock rather than process-global state. A
// single scalar version is all the quorum layer needs; it does not track
// a per-node vector.
type VersionClock struct {
	mu    sync.Mutex
	value int64
}

// Next increments and returns the new clock value. Strictly monotonic per
// process; no cross-node synchronization is assumed or needed.
func (c *VersionClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value
}
