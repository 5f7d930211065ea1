package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

// Authenticator is the auth collaborator. CurrentUser returns nil without error when nobody
// is signed in.
type Authenticator interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// PaymentProcessor is the checkout collaborator.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, sessionID uuid.UUID, method domain.PaymentMethod, amount decimal.Decimal) (*domain.PaymentResult, error)
}

// SnapshotFetcher loads a full dashboard snapshot for the acting user.
type SnapshotFetcher interface {
	Fetch(ctx context.Context) (*domain.Snapshot, error)
}

// Refresher asks every dashboard mounted by a user to refetch right away.
type Refresher interface {
	RefreshUser(userID uuid.UUID)
}

// Интерфейсы Сервисов (используются HTTP слоем)
type CatalogService interface {
	CreateRestaurant(ctx context.Context, cmd CreateRestaurantCommand) (*domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]*domain.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id uuid.UUID, cmd UpdateRestaurantCommand) (*domain.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id uuid.UUID) error

	CreateCategory(ctx context.Context, cmd CategoryCommand) (*domain.Category, error)
	ListCategories(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, cmd CategoryCommand) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, cmd ProductCommand) (*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, cmd ProductCommand) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateTable(ctx context.Context, cmd CreateTableCommand) (*domain.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (*domain.Table, error)
	ListTables(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Table, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error

	AssignProfile(ctx context.Context, userID uuid.UUID, cmd ProfileCommand) (*domain.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

type OrderService interface {
	OpenSession(ctx context.Context, tableID uuid.UUID) (*domain.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.SessionView, error)
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) (*domain.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	SubmitDraftOrders(ctx context.Context, sessionID uuid.UUID) (int64, error)
	ConfirmOrderItems(ctx context.Context, sessionID uuid.UUID) (int64, error)
	CloseTableSession(ctx context.Context, sessionID uuid.UUID) error
	Checkout(ctx context.Context, sessionID uuid.UUID, method domain.PaymentMethod) (*domain.PaymentResult, error)

	AddOrderItem(ctx context.Context, cmd AddOrderItemCommand) (*domain.OrderItem, error)
	UpdateOrderItem(ctx context.Context, id uuid.UUID, cmd UpdateOrderItemCommand) (*domain.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	ServeOrderItem(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error)

	CreateServiceRequest(ctx context.Context, cmd CreateServiceRequestCommand) (*domain.ServiceRequest, error)
	ResolveServiceRequest(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error)
	DeleteServiceRequest(ctx context.Context, id uuid.UUID) error
}
