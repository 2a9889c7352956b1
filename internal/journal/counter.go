// ABOUTME: Shared sequence counter that numbers journal entries.
// ABOUTME: One counter may be shared by many journals; increments are atomic.
package journal

import "sync/atomic"

// Counter hands out sequence numbers starting at 1.
// The zero value is ready to use and safe for concurrent callers.
type Counter struct {
	last atomic.Int64
}

// Default numbers entries for journals built without WithCounter,
// giving every such journal in the process a single numbering scheme.
var Default = &Counter{}

// NewCounter returns a counter whose first number is 1.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the next sequence number.
func (c *Counter) Next() int64 {
	return c.last.Add(1)
}

// Current returns the last number handed out, or 0 if none has been.
func (c *Counter) Current() int64 {
	return c.last.Load()
}
