// Package connectivity tracks whether a dashboard can still trust what it shows.
package connectivity

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

const DefaultGrace = 5 * time.Second

type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonOffline              Reason = "offline"
	ReasonRealtimeDisconnected Reason = "realtime_disconnected"
)

// Status is pushed to consumers on every change.
type Status struct {
	Online            bool   `json:"online"`
	RealtimeConnected bool   `json:"realtime_connected"`
	Alert             bool   `json:"alert"`
	Reason            Reason `json:"reason,omitempty"`
}

// Monitor combines store reachability and the realtime feed state. Going offline raises the
// alert at once; a realtime disconnect raises it only after it lasts for the grace period,
// so normal reconnect cycles do not flap. The alert is latched until Reset.
type Monitor struct {
	clock    clock.Clock
	grace    time.Duration
	onChange func(Status)

	mu         sync.Mutex
	status     Status
	graceTimer clock.Timer
	generation uint64
	stopped    bool
}

func NewMonitor(clk clock.Clock, grace time.Duration, onChange func(Status)) *Monitor {
	if clk == nil {
		clk = clock.WallClock
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	if onChange == nil {
		onChange = func(Status) {}
	}
	return &Monitor{
		clock:    clk,
		grace:    grace,
		onChange: onChange,
		status:   Status{Online: true, RealtimeConnected: true},
	}
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.stopped || m.status.Online == online {
		m.mu.Unlock()
		return
	}
	m.status.Online = online
	if !online {
		m.raiseLocked(ReasonOffline)
	}
	st := m.status
	m.mu.Unlock()

	m.onChange(st)
}

func (m *Monitor) SetRealtimeConnected(connected bool) {
	m.mu.Lock()
	if m.stopped || m.status.RealtimeConnected == connected {
		m.mu.Unlock()
		return
	}
	m.status.RealtimeConnected = connected
	if connected {
		m.cancelGraceLocked()
	} else if m.graceTimer == nil {
		m.generation++
		gen := m.generation
		m.graceTimer = m.clock.AfterFunc(m.grace, func() { m.graceExpired(gen) })
	}
	st := m.status
	m.mu.Unlock()

	m.onChange(st)
}

// Reset clears a latched alert, as a remount would.
func (m *Monitor) Reset() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.cancelGraceLocked()
	m.status = Status{Online: true, RealtimeConnected: true}
	st := m.status
	m.mu.Unlock()

	m.onChange(st)
}

// Stop cancels the grace timer; no further changes are reported.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.cancelGraceLocked()
}

func (m *Monitor) raiseLocked(reason Reason) {
	if m.status.Alert {
		return
	}
	m.status.Alert = true
	m.status.Reason = reason
}

func (m *Monitor) cancelGraceLocked() {
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
	m.generation++
}

func (m *Monitor) graceExpired(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.graceTimer = nil
	if m.status.RealtimeConnected || m.status.Alert {
		m.mu.Unlock()
		return
	}
	m.raiseLocked(ReasonRealtimeDisconnected)
	st := m.status
	m.mu.Unlock()

	m.onChange(st)
}
