package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Watched tables.
const (
	TableSessions        = "sessions"
	TableOrderItems      = "order_items"
	TableServiceRequests = "service_requests"
)

// DashboardTables are the tables every dashboard subscription watches.
var DashboardTables = []string{TableSessions, TableOrderItems, TableServiceRequests}

// ChangeEvent is emitted by the store whenever a watched row changes. Subscribers only use it
// as a trigger and do not inspect the row.
type ChangeEvent struct {
	Type       ChangeType `json:"type"`
	Table      string     `json:"table"`
	RowID      uuid.UUID  `json:"id"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// MutationRecord is an audit entry for a successful write.
type MutationRecord struct {
	Entity     string    `json:"entity" bson:"entity"`
	Op         string    `json:"op" bson:"op"`
	EntityID   string    `json:"entity_id" bson:"entity_id"`
	UserID     string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
}
