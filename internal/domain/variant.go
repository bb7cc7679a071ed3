package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProductVariant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Color     string
	Size      string
	Price     Money
	Stock     int
	IsActive  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available reports whether quantity can be taken from the variant right now.
func (v ProductVariant) Available(quantity int) bool {
	return v.IsActive && quantity > 0 && v.Stock >= quantity
}

type StockRequest struct {
	VariantID uuid.UUID
	Quantity  int
}
