// Package timing paces loops that must follow the wall clock, such as the
// status display of a live player or a player without an audio device.
package timing

import "time"

// Limiter paces a loop to a fixed period.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next period.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for offline rendering).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// FrameDuration returns the period of count sample frames at rate Hz.
func FrameDuration(count, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(count) * int64(time.Second) / int64(rate))
}
