package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

// Интерфейсы Репозиториев (Adapter/Postgres, Adapter/Memory)
type RestaurantRepository interface {
	Create(ctx context.Context, r *domain.Restaurant) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	List(ctx context.Context) ([]*domain.Restaurant, error)
	Update(ctx context.Context, r *domain.Restaurant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TableRepository interface {
	Create(ctx context.Context, t *domain.Table) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Table, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Table, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	// FindOrdering returns the table's session in status ordering, or ErrNotFound.
	FindOrdering(ctx context.Context, tableID uuid.UUID) (*domain.Session, error)
	UpdateStatus(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Close closes the session, closes its order items and resolves its service requests
	// as one atomic unit.
	Close(ctx context.Context, id uuid.UUID) error
}

type OrderItemRepository interface {
	Create(ctx context.Context, item *domain.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.OrderItem, error)
	Update(ctx context.Context, item *domain.OrderItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	// TransitionAll moves every item of the session in status from to status to and
	// reports the number of rows affected.
	TransitionAll(ctx context.Context, sessionID uuid.UUID, from, to domain.OrderItemStatus) (int64, error)
}

type ServiceRequestRepository interface {
	Create(ctx context.Context, r *domain.ServiceRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error)
	Update(ctx context.Context, r *domain.ServiceRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Payment, error)
}

// SnapshotReader performs the dashboard reads, one round trip per entity group.
type SnapshotReader interface {
	ReadFloor(ctx context.Context, restaurantID uuid.UUID) (*domain.Restaurant, []domain.Table, error)
	ReadOpenSessions(ctx context.Context, restaurantID uuid.UUID) ([]domain.SessionView, error)
}

// Store bundles the repositories of one backing store.
type Store struct {
	Restaurants     RestaurantRepository
	Profiles        ProfileRepository
	Categories      CategoryRepository
	Products        ProductRepository
	Tables          TableRepository
	Sessions        SessionRepository
	OrderItems      OrderItemRepository
	ServiceRequests ServiceRequestRepository
	Payments        PaymentRepository
	Snapshots       SnapshotReader
}
