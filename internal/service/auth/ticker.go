package auth

import "time"

// Ticker delivers refresh ticks. Production code uses NewRealTicker; tests
// drive C by hand.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. It does not close C.
func (t *Ticker) Stop() {
	if t.stop != nil {
		t.stop()
	}
}

// NewTicker wraps an arbitrary channel, mostly for tests
func NewTicker(c <-chan time.Time, stop func()) *Ticker {
	return &Ticker{C: c, stop: stop}
}

// TickerFactory creates a ticker firing every d
type TickerFactory func(d time.Duration) *Ticker

// NewRealTicker is the TickerFactory backed by time.NewTicker
func NewRealTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
