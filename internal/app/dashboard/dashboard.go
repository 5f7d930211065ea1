package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/app/debounce"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

// ChannelName is the change feed channel shared by every dashboard of a role.
func ChannelName(role domain.Role) string {
	return string(role) + "-dashboard"
}

// Observer receives dashboard lifecycle signals, for metrics.
type Observer interface {
	Mounted(role domain.Role)
	Unmounted(role domain.Role)
	ChangeReceived(role domain.Role, table string)
	NotificationCoalesced(role domain.Role)
	FetchCompleted(role domain.Role, err error)
	StaleFetchDiscarded(role domain.Role)
}

type Config struct {
	Role           domain.Role
	Fetcher        interfaces.SnapshotFetcher
	Notifier       interfaces.ChangeNotifier
	Clock          clock.Clock
	DebounceWindow time.Duration
	Logger         logger.Logger
	Observer       Observer

	// OnSnapshot receives every applied snapshot.
	OnSnapshot func(domain.Snapshot)
	// OnRealtimeStatus receives the change feed's connection state.
	OnRealtimeStatus func(connected bool)
}

func (c *Config) Validate() error {
	if !c.Role.HasDashboard() {
		return fmt.Errorf("role %q has no dashboard", c.Role)
	}
	if c.Fetcher == nil {
		return errors.New("missing snapshot fetcher")
	}
	if c.Notifier == nil {
		return errors.New("missing change notifier")
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.OnSnapshot == nil {
		c.OnSnapshot = func(domain.Snapshot) {}
	}
	if c.OnRealtimeStatus == nil {
		c.OnRealtimeStatus = func(bool) {}
	}
	return nil
}

// Dashboard owns one mounted role dashboard's snapshot. The snapshot is only ever replaced
// by this dashboard's own fetch completions, and a completion older than the newest applied
// one is discarded.
type Dashboard struct {
	cfg       Config
	ctx       context.Context
	cancel    context.CancelFunc
	coalescer *debounce.Coalescer
	sub       interfaces.Subscription
	onClose   func()
	closeOnce sync.Once

	mu            sync.Mutex
	snapshot      *domain.Snapshot
	dispatched    uint64
	applied       uint64
	closed        bool
	connected     bool
	everConnected bool
}

// Mount opens the change feed subscription and loads the initial snapshot. The context
// carries the acting user and bounds every fetch of this dashboard.
func Mount(ctx context.Context, cfg Config) (*Dashboard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dctx, cancel := context.WithCancel(ctx)
	d := &Dashboard{
		cfg:    cfg,
		ctx:    dctx,
		cancel: cancel,
	}
	d.coalescer = debounce.New(cfg.Clock, cfg.DebounceWindow, d.refresh)

	// Subscribe before the first read so no change between the two is lost.
	sub, err := cfg.Notifier.Subscribe(dctx, interfaces.SubscribeRequest{
		Channel:  ChannelName(cfg.Role),
		Tables:   domain.DashboardTables,
		OnChange: d.handleChange,
		OnStatus: d.handleStatus,
	})
	if err != nil {
		d.coalescer.Stop()
		cancel()
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}
	d.sub = sub

	cfg.Observer.Mounted(cfg.Role)
	cfg.Logger.Debug("dashboard_mounted", fmt.Sprintf("%s dashboard mounted", cfg.Role), "", map[string]interface{}{
		"channel": ChannelName(cfg.Role),
	})

	d.refresh()
	return d, nil
}

func (d *Dashboard) Role() domain.Role {
	return d.cfg.Role
}

// Snapshot returns the latest applied snapshot, if any fetch has succeeded yet.
func (d *Dashboard) Snapshot() (domain.Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapshot == nil {
		return domain.Snapshot{}, false
	}
	return *d.snapshot, true
}

// Refresh refetches now, skipping the debounce window. Used right after the acting user's
// own mutation, such as a checkout.
func (d *Dashboard) Refresh() {
	d.coalescer.Flush()
}

// Close unsubscribes and cancels pending work. A fetch already in flight is dropped when it
// completes.
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		d.coalescer.Stop()
		if d.sub != nil {
			if err := d.sub.Unsubscribe(); err != nil {
				d.cfg.Logger.Error("unsubscribe_failed", "Failed to close change subscription", "", nil, err)
			}
		}
		d.cancel()
		d.cfg.Observer.Unmounted(d.cfg.Role)
		if d.onClose != nil {
			d.onClose()
		}
	})
}

func (d *Dashboard) handleChange(event domain.ChangeEvent) {
	d.cfg.Observer.ChangeReceived(d.cfg.Role, event.Table)
	if d.coalescer.Notify() {
		d.cfg.Observer.NotificationCoalesced(d.cfg.Role)
	}
}

// handleStatus refetches after a background reconnect: events published while the feed
// was down are not replayed.
func (d *Dashboard) handleStatus(connected bool) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	reconnected := connected && !d.connected && d.everConnected
	d.connected = connected
	if connected {
		d.everConnected = true
	}
	d.mu.Unlock()

	if reconnected {
		d.cfg.Logger.Info("realtime_reconnected", "Change feed reconnected, scheduling full refetch", "", map[string]interface{}{
			"role": string(d.cfg.Role),
		})
		d.coalescer.Notify()
	}
	d.cfg.OnRealtimeStatus(connected)
}

func (d *Dashboard) refresh() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.dispatched++
	seq := d.dispatched
	d.mu.Unlock()

	snap, err := d.cfg.Fetcher.Fetch(d.ctx)
	d.cfg.Observer.FetchCompleted(d.cfg.Role, err)
	if err != nil {
		d.logFetchError(err)
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if seq <= d.applied {
		d.mu.Unlock()
		d.cfg.Observer.StaleFetchDiscarded(d.cfg.Role)
		d.cfg.Logger.Debug("stale_snapshot_discarded", "Older fetch completed after a newer one", "", map[string]interface{}{
			"sequence": seq,
		})
		return
	}
	snap.Sequence = seq
	d.applied = seq
	d.snapshot = snap
	applied := *snap
	d.mu.Unlock()

	d.cfg.OnSnapshot(applied)
}

// logFetchError keeps the previous snapshot in every case; read failures never blank the view.
func (d *Dashboard) logFetchError(err error) {
	details := map[string]interface{}{"role": string(d.cfg.Role)}
	switch {
	case errors.Is(err, context.Canceled):
	case errors.Is(err, domain.ErrAuthMissing):
		d.cfg.Logger.Debug("fetch_skipped", "No authenticated user", "", details)
	case errors.Is(err, domain.ErrNoRestaurantAssociation):
		d.cfg.Logger.Error("no_restaurant", "Profile has no restaurant association", "", details, err)
	default:
		d.cfg.Logger.Error("fetch_failed", "Failed to fetch dashboard snapshot, keeping previous state", "", details, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

type nopObserver struct{}

func (nopObserver) Mounted(domain.Role)                {}
func (nopObserver) Unmounted(domain.Role)              {}
func (nopObserver) ChangeReceived(domain.Role, string) {}
func (nopObserver) NotificationCoalesced(domain.Role)  {}
func (nopObserver) FetchCompleted(domain.Role, error)  {}
func (nopObserver) StaleFetchDiscarded(domain.Role)    {}
