package telemetry

import "sync"

// Counters is the in-process metrics sink surfaced by the diagnostics
// endpoint. Keys are owned by the reporting packages.
type Counters struct {
	mu     sync.Mutex
	values map[string]uint64
}

// NewCounters builds an empty metrics sink.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

// Add accumulates delta onto the named counter.
func (c *Counters) Add(key string, delta uint64) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	c.values[key] += delta
	c.mu.Unlock()
}

// Store overwrites the named counter with value.
func (c *Counters) Store(key string, value uint64) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// Snapshot returns a copy of every counter for diagnostics rendering.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.values) == 0 {
		return nil
	}
	snapshot := make(map[string]uint64, len(c.values))
	for key, value := range c.values {
		snapshot[key] = value
	}
	return snapshot
}

// Ensure Counters satisfies the component-facing interface.
var _ Metrics = (*Counters)(nil)
