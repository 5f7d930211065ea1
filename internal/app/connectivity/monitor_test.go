package connectivity_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/juju/clock/testclock"
	"go.uber.org/goleak"

	"github.com/YelzhanWeb/menuapp/internal/app/connectivity"
)

type statusLog struct {
	mu      sync.Mutex
	changes []connectivity.Status
	notify  chan struct{}
}

func newStatusLog() *statusLog {
	return &statusLog{notify: make(chan struct{}, 16)}
}

func (l *statusLog) record(st connectivity.Status) {
	l.mu.Lock()
	l.changes = append(l.changes, st)
	l.mu.Unlock()
	l.notify <- struct{}{}
}

func (l *statusLog) wait(c *qt.C) {
	c.Helper()
	select {
	case <-l.notify:
	case <-time.After(5 * time.Second):
		c.Fatalf("timed out waiting for status change")
	}
}

func (l *statusLog) drain() {
	for {
		select {
		case <-l.notify:
		default:
			return
		}
	}
}

func TestOfflineRaisesAlertImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := qt.New(t)

	log := newStatusLog()
	m := connectivity.NewMonitor(testclock.NewClock(time.Time{}), 5*time.Second, log.record)
	defer m.Stop()

	m.SetOnline(false)
	st := m.Status()
	c.Check(st.Alert, qt.IsTrue)
	c.Check(st.Reason, qt.Equals, connectivity.ReasonOffline)

	// latched: coming back online does not clear it
	m.SetOnline(true)
	st = m.Status()
	c.Check(st.Online, qt.IsTrue)
	c.Check(st.Alert, qt.IsTrue)

	m.Reset()
	c.Check(m.Status().Alert, qt.IsFalse)
}

func TestRealtimeDisconnectWaitsForGrace(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := qt.New(t)

	clk := testclock.NewClock(time.Time{})
	log := newStatusLog()
	m := connectivity.NewMonitor(clk, 5*time.Second, log.record)
	defer m.Stop()

	m.SetRealtimeConnected(false)
	log.wait(c)
	c.Check(m.Status().Alert, qt.IsFalse)

	clk.Advance(4 * time.Second)
	c.Check(m.Status().Alert, qt.IsFalse)

	clk.Advance(time.Second)
	log.wait(c)
	st := m.Status()
	c.Check(st.Alert, qt.IsTrue)
	c.Check(st.Reason, qt.Equals, connectivity.ReasonRealtimeDisconnected)
}

func TestReconnectWithinGraceDoesNotAlert(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := qt.New(t)

	clk := testclock.NewClock(time.Time{})
	log := newStatusLog()
	m := connectivity.NewMonitor(clk, 5*time.Second, log.record)
	defer m.Stop()

	m.SetRealtimeConnected(false)
	clk.Advance(3 * time.Second)
	m.SetRealtimeConnected(true)
	log.drain()

	clk.Advance(time.Minute)
	select {
	case <-log.notify:
		c.Fatalf("unexpected status change after reconnect")
	case <-time.After(50 * time.Millisecond):
	}
	c.Check(m.Status().Alert, qt.IsFalse)
}

type flakyPinger struct {
	mu   sync.Mutex
	errs []error
}

func (p *flakyPinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func TestProbeReportsStoreReachability(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := qt.New(t)

	clk := testclock.NewClock(time.Time{})
	log := newStatusLog()
	m := connectivity.NewMonitor(clk, 5*time.Second, log.record)
	defer m.Stop()

	pinger := &flakyPinger{errs: []error{errors.New("connection refused")}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		connectivity.Probe(ctx, clk, 10*time.Second, pinger, m)
	}()

	c.Assert(clk.WaitAdvance(10*time.Second, 5*time.Second, 1), qt.IsNil)
	log.wait(c)
	c.Check(m.Status().Online, qt.IsFalse)
	c.Check(m.Status().Alert, qt.IsTrue)

	c.Assert(clk.WaitAdvance(10*time.Second, 5*time.Second, 1), qt.IsNil)
	log.wait(c)
	c.Check(m.Status().Online, qt.IsTrue)

	cancel()
	<-done
}
