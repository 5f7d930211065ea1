package domain

import (
	"time"

	"github.com/google/uuid"
)

type ServiceRequest struct {
	ID           uuid.UUID     `json:"id"`
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	TableID      uuid.UUID     `json:"table_id"`
	SessionID    uuid.UUID     `json:"session_id"`
	Type         RequestType   `json:"type"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty"`
}

func NewServiceRequest(session *Session, requestType RequestType) (*ServiceRequest, error) {
	if requestType != RequestCallWaiter && requestType != RequestBill {
		return nil, Validationf("request type must be one of: call_waiter, bill")
	}
	if !session.IsOpen() {
		return nil, ErrSessionClosed
	}
	return &ServiceRequest{
		ID:           uuid.New(),
		RestaurantID: session.RestaurantID,
		TableID:      session.TableID,
		SessionID:    session.ID,
		Type:         requestType,
		Status:       RequestPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Resolve marks the request handled by staff. Resolving twice is a no-op.
func (r *ServiceRequest) Resolve() {
	if r.Status == RequestResolved {
		return
	}
	now := time.Now().UTC()
	r.Status = RequestResolved
	r.ResolvedAt = &now
}
