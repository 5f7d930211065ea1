// Package inproc is an in-process change feed: a fan-out hub that implements both sides of
// the notifier contract for a single process.
package inproc

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

type Notifier struct {
	mu        sync.RWMutex
	subs      map[uint64]*subscription
	nextID    uint64
	connected bool
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs:      make(map[uint64]*subscription),
		connected: true,
	}
}

type subscription struct {
	id       uint64
	channel  string
	tables   map[string]bool
	onChange interfaces.ChangeHandler
	onStatus interfaces.StatusHandler
	owner    *Notifier
	once     sync.Once
	done     chan struct{}
}

// Subscribe registers the handler until Unsubscribe is called or ctx is done. The status
// handler, if any, is told the current connection state right away.
func (n *Notifier) Subscribe(ctx context.Context, req interfaces.SubscribeRequest) (interfaces.Subscription, error) {
	tables := make(map[string]bool, len(req.Tables))
	for _, t := range req.Tables {
		tables[t] = true
	}

	n.mu.Lock()
	n.nextID++
	sub := &subscription{
		id:       n.nextID,
		channel:  req.Channel,
		tables:   tables,
		onChange: req.OnChange,
		onStatus: req.OnStatus,
		owner:    n,
		done:     make(chan struct{}),
	}
	n.subs[sub.id] = sub
	connected := n.connected
	n.mu.Unlock()

	if sub.onStatus != nil {
		sub.onStatus(connected)
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Unsubscribe()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// PublishChange delivers the event to every subscription watching its table.
func (n *Notifier) PublishChange(_ context.Context, event domain.ChangeEvent) error {
	n.mu.RLock()
	if !n.connected {
		n.mu.RUnlock()
		return nil
	}
	targets := make([]*subscription, 0, len(n.subs))
	for _, s := range n.subs {
		if s.tables[event.Table] {
			targets = append(targets, s)
		}
	}
	n.mu.RUnlock()

	for _, s := range targets {
		s.onChange(event)
	}
	return nil
}

// SetConnected simulates the feed dropping or recovering. Events published while
// disconnected are lost, as with the real transport.
func (n *Notifier) SetConnected(connected bool) {
	n.mu.Lock()
	if n.connected == connected {
		n.mu.Unlock()
		return
	}
	n.connected = connected
	targets := make([]*subscription, 0, len(n.subs))
	for _, s := range n.subs {
		targets = append(targets, s)
	}
	n.mu.Unlock()

	for _, s := range targets {
		if s.onStatus != nil {
			s.onStatus(connected)
		}
	}
}

// Subscribers is the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.owner.mu.Lock()
		delete(s.owner.subs, s.id)
		s.owner.mu.Unlock()
		close(s.done)
	})
	return nil
}
