package domain

import (
	"github.com/google/uuid"
)

// Table is immutable after creation apart from deletion.
type Table struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	TableNumber  int       `json:"table_number"`
}

func NewTable(restaurantID uuid.UUID, number int) (*Table, error) {
	if number < 1 || number > 999 {
		return nil, Validationf("table number must be between 1 and 999")
	}
	return &Table{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		TableNumber:  number,
	}, nil
}
