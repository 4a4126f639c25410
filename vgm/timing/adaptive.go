package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	target       time.Duration
	next         time.Time
	frameCounter int64
	now          func() time.Time
	sleep        func(time.Duration)
}

func NewAdaptiveLimiter(period time.Duration) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		target: period,
		next:   time.Now(),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.now()
	wait := a.next.Sub(now)

	if wait > 0 {
		if wait >= 2*time.Millisecond {
			a.sleep(wait - time.Millisecond)
		}
		for a.now().Before(a.next) {
			// busy-wait the last millisecond, higher accuracy.
		}
	} else if wait < -5*a.target {
		// too far behind, drop the backlog
		a.next = now
	}

	a.next = a.next.Add(a.target)
	a.frameCounter++

	if a.frameCounter%60 == 0 {
		drift := a.now().Sub(a.next)
		if drift.Abs() > 10*time.Millisecond {
			a.next = a.next.Add(drift / 10)
			slog.Debug("Frame timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.next = a.now()
	a.frameCounter = 0
}
