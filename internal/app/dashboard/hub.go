package dashboard

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub indexes mounted dashboards by user. It is created once and injected wherever a mount
// or an immediate refresh is needed; dashboards themselves share no state.
type Hub struct {
	mu     sync.Mutex
	mounts map[uuid.UUID]map[*Dashboard]struct{}
}

func NewHub() *Hub {
	return &Hub{mounts: make(map[uuid.UUID]map[*Dashboard]struct{})}
}

// Mount mounts a dashboard for the user and indexes it until it is closed.
func (h *Hub) Mount(ctx context.Context, userID uuid.UUID, cfg Config) (*Dashboard, error) {
	d, err := Mount(ctx, cfg)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	set, ok := h.mounts[userID]
	if !ok {
		set = make(map[*Dashboard]struct{})
		h.mounts[userID] = set
	}
	set[d] = struct{}{}
	h.mu.Unlock()

	d.onClose = func() { h.remove(userID, d) }
	return d, nil
}

// RefreshUser refetches every dashboard the user has mounted without waiting for the
// debounce window. It does not block on the fetches.
func (h *Hub) RefreshUser(userID uuid.UUID) {
	for _, d := range h.userDashboards(userID) {
		go d.Refresh()
	}
}

// Count is the number of mounted dashboards.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.mounts {
		n += len(set)
	}
	return n
}

// CloseAll unmounts everything, on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var all []*Dashboard
	for _, set := range h.mounts {
		for d := range set {
			all = append(all, d)
		}
	}
	h.mu.Unlock()

	for _, d := range all {
		d.Close()
	}
}

func (h *Hub) userDashboards(userID uuid.UUID) []*Dashboard {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.mounts[userID]
	out := make([]*Dashboard, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	return out
}

func (h *Hub) remove(userID uuid.UUID, d *Dashboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.mounts[userID]
	delete(set, d)
	if len(set) == 0 {
		delete(h.mounts, userID)
	}
}
