// Package debounce collapses bursts of change notifications into a single trailing-edge call.
package debounce

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// DefaultWindow is the quiet period observed on the dashboards.
const DefaultWindow = 500 * time.Millisecond

// Coalescer is a trailing-edge debouncer. Every Notify restarts the quiet window; the
// callback runs once the window passes with no further notifications.
//
// States: idle (no timer) and scheduled (timer armed). A fired timer returns to idle
// before invoking the callback, so a notification arriving while the callback runs
// schedules a fresh call.
type Coalescer struct {
	clock  clock.Clock
	window time.Duration
	fire   func()

	mu         sync.Mutex
	timer      clock.Timer
	generation uint64
	stopped    bool
	coalesced  uint64
}

// New returns an idle coalescer. A zero window falls back to DefaultWindow.
func New(clk clock.Clock, window time.Duration, fire func()) *Coalescer {
	if clk == nil {
		clk = clock.WallClock
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{
		clock:  clk,
		window: window,
		fire:   fire,
	}
}

// Notify records a notification and (re)arms the timer.
// It reports whether the notification was folded into an already scheduled call.
func (c *Coalescer) Notify() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}

	folded := false
	if c.timer != nil {
		c.timer.Stop()
		c.coalesced++
		folded = true
	}

	c.generation++
	gen := c.generation
	c.timer = c.clock.AfterFunc(c.window, func() { c.expire(gen) })
	return folded
}

// Flush cancels any scheduled call and runs the callback now, on the caller's goroutine.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.cancelLocked()
	c.mu.Unlock()

	c.fire()
}

// Stop cancels the armed timer. Later notifications are ignored and a timer that already
// expired but has not yet run its callback is dropped.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.cancelLocked()
}

// Scheduled reports whether a call is pending.
func (c *Coalescer) Scheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Coalesced is the number of notifications folded into an already scheduled call.
func (c *Coalescer) Coalesced() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coalesced
}

func (c *Coalescer) cancelLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// invalidates a callback racing with Stop
	c.generation++
}

func (c *Coalescer) expire(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	c.fire()
}
