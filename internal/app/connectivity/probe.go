package connectivity

import (
	"context"
	"time"

	"github.com/juju/clock"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe pings the store every interval and feeds the result to the monitor until ctx is done.
func Probe(ctx context.Context, clk clock.Clock, interval time.Duration, pinger Pinger, m *Monitor) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-clk.After(interval):
		}

		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := pinger.Ping(pingCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		m.SetOnline(err == nil)
	}
}
