package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the ordering context of one table between seating and settlement.
type Session struct {
	ID           uuid.UUID     `json:"id"`
	TableID      uuid.UUID     `json:"table_id"`
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	ClosedAt     *time.Time    `json:"closed_at,omitempty"`
}

func NewSession(table *Table) *Session {
	return &Session{
		ID:           uuid.New(),
		TableID:      table.ID,
		RestaurantID: table.RestaurantID,
		Status:       SessionOrdering,
		CreatedAt:    time.Now().UTC(),
	}
}

// TransitionTo moves the session to a new status
func (s *Session) TransitionTo(status SessionStatus) error {
	if !s.CanTransitionTo(status) {
		return ErrInvalidStatusTransition
	}
	s.Status = status
	if status == SessionClosed {
		now := time.Now().UTC()
		s.ClosedAt = &now
	}
	return nil
}

func (s *Session) CanTransitionTo(status SessionStatus) bool {
	validTransitions := map[SessionStatus][]SessionStatus{
		SessionOrdering:       {SessionPaymentPending, SessionClosed},
		SessionPaymentPending: {SessionOrdering, SessionClosed},
		SessionClosed:         {},
	}
	for _, st := range validTransitions[s.Status] {
		if st == status {
			return true
		}
	}
	return false
}

func (s *Session) IsOpen() bool {
	return s.Status != SessionClosed
}
