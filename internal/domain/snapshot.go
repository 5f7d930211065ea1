package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionView is an open session with its nested order items and service requests.
type SessionView struct {
	Session
	OrderItems      []OrderItem      `json:"order_items"`
	ServiceRequests []ServiceRequest `json:"service_requests"`
}

// Snapshot is one dashboard's in-memory copy of a restaurant's live state. It is replaced
// wholesale on every refresh and never patched.
type Snapshot struct {
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	Capabilities CapabilitySet `json:"-"`
	Tables       []Table       `json:"tables"`
	Sessions     []SessionView `json:"sessions"`
	FetchedAt    time.Time     `json:"fetched_at"`
	Sequence     uint64        `json:"sequence"`
}

// SessionForTable returns the open session seated at the table, if any.
func (s *Snapshot) SessionForTable(tableID uuid.UUID) (*SessionView, bool) {
	for i := range s.Sessions {
		if s.Sessions[i].TableID == tableID {
			return &s.Sessions[i], true
		}
	}
	return nil, false
}

// PendingRequests counts unresolved service requests across sessions.
func (s *Snapshot) PendingRequests() int {
	n := 0
	for _, sv := range s.Sessions {
		for _, r := range sv.ServiceRequests {
			if r.Status == RequestPending {
				n++
			}
		}
	}
	return n
}
