// Package buffer provides a bounded capture buffer for process output.
package buffer

import "sync"

// Capture is a thread-safe io.Writer that retains only the newest bytes up
// to a fixed capacity. The execution pipeline uses it as the stdout/stderr
// sink so a runaway program cannot grow captured output without bound; the
// tail of the stream is what gets surfaced to participants.
type Capture struct {
	mu       sync.RWMutex
	data     []byte
	capacity int
}

// NewCapture creates a Capture with the given capacity in bytes.
// A capacity below 1 is treated as 1.
func NewCapture(capacity int) *Capture {
	if capacity <= 0 {
		capacity = 1
	}
	return &Capture{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Write appends p, discarding the oldest bytes once capacity is exceeded.
// It never returns an error.
func (c *Capture) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(p) >= c.capacity {
		// The chunk alone fills the buffer; keep only its tail.
		c.data = append(c.data[:0], p[len(p)-c.capacity:]...)
		return len(p), nil
	}

	overflow := len(c.data) + len(p) - c.capacity
	if overflow > 0 {
		c.data = append(c.data[:0], c.data[overflow:]...)
	}
	c.data = append(c.data, p...)

	return len(p), nil
}

// String returns the retained output as text.
func (c *Capture) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return string(c.data)
}

// Len returns the number of retained bytes.
func (c *Capture) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Cap returns the capacity in bytes.
func (c *Capture) Cap() int {
	return c.capacity
}

// Reset discards all retained bytes.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = c.data[:0]
}
