package tile

import "time"

// Blink drives caret opacity from a clock: hidden for the first half of each
// period, shown for the second.
type Blink struct {
	period  time.Duration
	started time.Time
	running bool
}

func NewBlink(period time.Duration) *Blink {
	if period <= 0 {
		period = time.Second
	}
	return &Blink{period: period}
}

func (b *Blink) Start(now time.Time) {
	b.started = now
	b.running = true
}

func (b *Blink) Stop() { b.running = false }

func (b *Blink) Running() bool { return b.running }

// Opacity is 0 or 1 at now; a stopped blink is hidden.
func (b *Blink) Opacity(now time.Time) float64 {
	if !b.running {
		return 0
	}
	phase := now.Sub(b.started) % b.period
	if phase < 0 {
		phase += b.period
	}
	if phase < b.period/2 {
		return 0
	}
	return 1
}
