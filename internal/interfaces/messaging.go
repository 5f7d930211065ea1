package interfaces

import (
	"context"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

type (
	ChangeHandler func(event domain.ChangeEvent)
	StatusHandler func(connected bool)
)

// SubscribeRequest describes one dashboard's change feed subscription.
type SubscribeRequest struct {
	Channel  string
	Tables   []string
	OnChange ChangeHandler
	// OnStatus is optional and reports connection state changes of the feed.
	OnStatus StatusHandler
}

type Subscription interface {
	Unsubscribe() error
}

// ChangeNotifier delivers forward-only change events; there is no historical replay.
type ChangeNotifier interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (Subscription, error)
}

// ChangePublisher forwards store change events into the notifier transport.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event domain.ChangeEvent) error
}

// AuditRecorder keeps a trail of successful mutations.
type AuditRecorder interface {
	Record(ctx context.Context, rec domain.MutationRecord) error
}

// AuditReader lists the trail of one entity, newest first.
type AuditReader interface {
	ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.MutationRecord, error)
}
