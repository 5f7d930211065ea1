package interfaces

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

// Команды для сервисов (приходят из HTTP слоя)

type CreateRestaurantCommand struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Features []string `json:"features"`
}

type UpdateRestaurantCommand struct {
	Name     *string  `json:"name"`
	Features []string `json:"features"`
}

type CategoryCommand struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Position     int       `json:"position"`
}

type ProductCommand struct {
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Available    *bool           `json:"available"`
}

type CreateTableCommand struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	TableNumber  int       `json:"table_number"`
}

type AddOrderItemCommand struct {
	SessionID uuid.UUID `json:"session_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Notes     string    `json:"notes"`
}

// UpdateOrderItemCommand changes quantity and notes of a draft item, or moves the item to a
// new status. Nil fields are left alone.
type UpdateOrderItemCommand struct {
	Quantity *int                    `json:"quantity"`
	Notes    *string                 `json:"notes"`
	Status   *domain.OrderItemStatus `json:"status"`
}

type CreateServiceRequestCommand struct {
	SessionID uuid.UUID          `json:"session_id"`
	Type      domain.RequestType `json:"type"`
}

type ProfileCommand struct {
	RestaurantID *uuid.UUID  `json:"restaurant_id"`
	Role         domain.Role `json:"role"`
	FullName     string      `json:"full_name"`
}
