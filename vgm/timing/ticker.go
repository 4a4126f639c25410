package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent timing. Ticks missed
// by a slow consumer are dropped.
type TickerLimiter struct {
	period time.Duration
	ticker *time.Ticker
}

func NewTickerLimiter(period time.Duration) *TickerLimiter {
	return &TickerLimiter{
		period: period,
		ticker: time.NewTicker(period),
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

// C exposes the tick channel for use in select loops.
func (t *TickerLimiter) C() <-chan time.Time {
	return t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.period)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
