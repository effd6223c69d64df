package recall

import (
	"slices"
	"sync"
)

// Sample is the recall of one query: how many ground-truth identifiers the
// candidate result contained.
type Sample struct {
	Query  int
	Recall int
}

// Collector accumulates samples from concurrent workers.
type Collector struct {
	mu      sync.Mutex
	samples []Sample
}

// NewCollector returns a collector with room for n samples.
func NewCollector(n int) *Collector {
	return &Collector{samples: make([]Sample, 0, n)}
}

// Add appends samples.
func (c *Collector) Add(samples ...Sample) {
	c.mu.Lock()
	c.samples = append(c.samples, samples...)
	c.mu.Unlock()
}

// Len returns the number of collected samples.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Samples returns a copy of the collected samples.
func (c *Collector) Samples() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.samples)
}
