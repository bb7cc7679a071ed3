package domain

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// NewArrival is a product shown in the "new" list. Backfilled marks older products that were
// added only because too few recent ones exist.
type NewArrival struct {
	Product
	Backfilled bool
}
