package platform

import (
	"image"
	"time"
)

// ClickCounter turns presses into click counts. A press continues the
// previous series when it comes within Interval and Slop pixels of it.
type ClickCounter struct {
	Interval time.Duration
	Slop     int

	last  time.Time
	at    image.Point
	count int
}

func NewClickCounter() *ClickCounter {
	return &ClickCounter{Interval: 500 * time.Millisecond, Slop: 4}
}

func (c *ClickCounter) Press(now time.Time, pt image.Point) int {
	d := pt.Sub(c.at)
	near := abs(d.X) <= c.Slop && abs(d.Y) <= c.Slop
	if c.count > 0 && near && now.Sub(c.last) <= c.Interval {
		c.count++
	} else {
		c.count = 1
	}
	// Past a paragraph selection the series starts over.
	if c.count > 3 {
		c.count = 1
	}
	c.last = now
	c.at = pt
	return c.count
}

func (c *ClickCounter) Reset() { c.count = 0 }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
