package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line of a session's order. UnitPrice is copied from the product when the
// item is created and is never recomputed from the product's live price.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	SessionID   uuid.UUID       `json:"session_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Status      OrderItemStatus `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewOrderItem creates a draft item priced from the product at this moment
func NewOrderItem(session *Session, product *Product, quantity int, notes string) (*OrderItem, error) {
	if !session.IsOpen() {
		return nil, ErrSessionClosed
	}
	if product.RestaurantID != session.RestaurantID {
		return nil, Validationf("product does not belong to the session's restaurant")
	}
	if !product.Available {
		return nil, Validationf("product %s is not available", product.Name)
	}

	item := &OrderItem{
		ID:          uuid.New(),
		SessionID:   session.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Status:      ItemDraft,
		Notes:       strings.TrimSpace(notes),
		CreatedAt:   time.Now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *OrderItem) Validate() error {
	if i.Quantity < 1 || i.Quantity > 50 {
		return Validationf("item quantity must be 1-50")
	}
	if len(i.Notes) > 200 {
		return Validationf("item notes must not exceed 200 characters")
	}
	return nil
}

// Subtotal is quantity times the captured unit price.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TransitionTo transitions the item to a new status
func (i *OrderItem) TransitionTo(status OrderItemStatus) error {
	if !i.CanTransitionTo(status) {
		return ErrInvalidStatusTransition
	}
	i.Status = status
	return nil
}

// CanTransitionTo checks if the item can transition to the new status
func (i *OrderItem) CanTransitionTo(status OrderItemStatus) bool {
	validTransitions := map[OrderItemStatus][]OrderItemStatus{
		ItemDraft:     {ItemPending, ItemCancelled},
		ItemPending:   {ItemConfirmed, ItemCancelled, ItemClosed},
		ItemConfirmed: {ItemServed, ItemCancelled, ItemClosed},
		ItemServed:    {ItemClosed},
		ItemClosed:    {},
		ItemCancelled: {},
	}
	for _, s := range validTransitions[i.Status] {
		if s == status {
			return true
		}
	}
	return false
}

// Billable reports whether the item counts towards the session total.
func (i *OrderItem) Billable() bool {
	return i.Status != ItemCancelled && i.Status != ItemDraft
}

// SessionTotal sums the billable items.
func SessionTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for idx := range items {
		if items[idx].Billable() {
			total = total.Add(items[idx].Subtotal())
		}
	}
	return total
}
