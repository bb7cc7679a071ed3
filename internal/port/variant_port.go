package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type VariantRepository interface {
	GetVariant(ctx context.Context, variantID uuid.UUID) (domain.ProductVariant, error)

	GetVariants(ctx context.Context, variantIDs []uuid.UUID) ([]domain.ProductVariant, error)

	// DecrementStock takes quantity from an active variant only if enough stock is left.
	DecrementStock(ctx context.Context, variantID uuid.UUID, quantity int) error

	RestoreStock(ctx context.Context, variantID uuid.UUID, quantity int) error

	InsertVariant(ctx context.Context, variant domain.ProductVariant) (uuid.UUID, error)
}
