package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the authenticated caller as reported by the auth collaborator.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
}

// Profile links a user to a restaurant and a staff role.
type Profile struct {
	UserID       uuid.UUID  `json:"user_id"`
	RestaurantID *uuid.UUID `json:"restaurant_id,omitempty"`
	Role         Role       `json:"role"`
	FullName     string     `json:"full_name"`
}

type Restaurant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Features  []string  `json:"features"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRestaurant(name, slug string, features []string) (*Restaurant, error) {
	r := &Restaurant{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Slug:      strings.TrimSpace(slug),
		Features:  features,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Restaurant) Validate() error {
	if len(r.Name) < 1 || len(r.Name) > 120 {
		return Validationf("restaurant name must be 1-120 characters")
	}
	if r.Slug == "" || strings.ContainsAny(r.Slug, " /") {
		return Validationf("restaurant slug must be non-empty without spaces or slashes")
	}
	return nil
}

type Category struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Position     int       `json:"position"`
}

func (c *Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) < 1 || len(c.Name) > 80 {
		return Validationf("category name must be 1-80 characters")
	}
	if c.Position < 0 {
		return Validationf("category position must not be negative")
	}
	return nil
}

type Product struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Available    bool            `json:"available"`
}

func (p *Product) Validate() error {
	if len(strings.TrimSpace(p.Name)) < 1 || len(p.Name) > 120 {
		return Validationf("product name must be 1-120 characters")
	}
	if p.Price.IsNegative() {
		return Validationf("product price must not be negative")
	}
	return nil
}
