package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type ProductRepository interface {
	// ListProductsCreatedAfter returns active products created at or after t, newest first.
	ListProductsCreatedAfter(ctx context.Context, t time.Time, limit int) ([]domain.Product, error)

	// ListProductsCreatedBefore returns active products created strictly before t, newest first.
	ListProductsCreatedBefore(ctx context.Context, t time.Time, limit int) ([]domain.Product, error)

	InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error)
}
