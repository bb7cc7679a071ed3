package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/samber/lo"
)

type variantRepository struct {
	v *view
}

func (r *variantRepository) GetVariant(_ context.Context, variantID uuid.UUID) (domain.ProductVariant, error) {
	var result domain.ProductVariant

	err := r.v.apply(func(st *state) error {
		variant, ok := st.variants[variantID]
		if !ok {
			return fmt.Errorf("variant[%s]: %w", variantID, domain.ErrVariantNotFound)
		}
		result = variant
		return nil
	})

	return result, err
}

func (r *variantRepository) GetVariants(_ context.Context, variantIDs []uuid.UUID) ([]domain.ProductVariant, error) {
	var result []domain.ProductVariant

	err := r.v.apply(func(st *state) error {
		for _, id := range lo.Uniq(variantIDs) {
			if variant, ok := st.variants[id]; ok {
				result = append(result, variant)
			}
		}
		return nil
	})

	return result, err
}

func (r *variantRepository) DecrementStock(_ context.Context, variantID uuid.UUID, quantity int) error {
	if !domain.ValidQuantity(quantity) {
		return domain.ErrInvalidQuantity
	}

	return r.v.apply(func(st *state) error {
		variant, ok := st.variants[variantID]
		if !ok {
			return fmt.Errorf("variant[%s]: %w", variantID, domain.ErrVariantNotFound)
		}

		if !variant.Available(quantity) {
			return fmt.Errorf("variant[%s]: %w", variantID, domain.ErrOutOfStock)
		}

		variant.Stock -= quantity
		variant.UpdatedAt = r.v.now()
		st.variants[variantID] = variant

		return nil
	})
}

func (r *variantRepository) RestoreStock(_ context.Context, variantID uuid.UUID, quantity int) error {
	if !domain.ValidQuantity(quantity) {
		return domain.ErrInvalidQuantity
	}

	return r.v.apply(func(st *state) error {
		variant, ok := st.variants[variantID]
		if !ok {
			return fmt.Errorf("variant[%s]: %w", variantID, domain.ErrVariantNotFound)
		}

		variant.Stock += quantity
		variant.UpdatedAt = r.v.now()
		st.variants[variantID] = variant

		return nil
	})
}

func (r *variantRepository) InsertVariant(_ context.Context, variant domain.ProductVariant) (uuid.UUID, error) {
	if variant.ProductID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("productID is empty")
	}

	if variant.Stock < 0 {
		return uuid.Nil, fmt.Errorf("stock is negative")
	}

	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	variant.CreatedAt = r.v.now()
	variant.UpdatedAt = variant.CreatedAt

	err := r.v.apply(func(st *state) error {
		st.variants[variant.ID] = variant
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return variant.ID, nil
}
