package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type variantRepository struct {
	q *db.Queries
}

func NewVariant(dbtx db.DBTX) port.VariantRepository {
	return &variantRepository{
		q: db.New(dbtx),
	}
}

func (r *variantRepository) GetVariant(ctx context.Context, variantID uuid.UUID) (domain.ProductVariant, error) {
	row, err := r.q.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProductVariant{}, fmt.Errorf("variant[%s]: %w", variantID, domain.ErrVariantNotFound)
		}
		return domain.ProductVariant{}, fmt.Errorf("q.GetVariant: %w", err)
	}

	return mapDBVariantToDomain(row)
}

func (r *variantRepository) GetVariants(ctx context.Context, variantIDs []uuid.UUID) ([]domain.ProductVariant, error) {
	variantIDs = lo.Uniq(variantIDs)
	if len(variantIDs) == 0 {
		return nil, nil
	}

	rows, err := r.q.GetVariants(ctx, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("q.GetVariants: %w", err)
	}

	variants := make([]domain.ProductVariant, 0, len(rows))
	for _, row := range rows {
		v, err := mapDBVariantToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBVariantToDomain: %w", err)
		}
		variants = append(variants, v)
	}

	return variants, nil
}

func (r *variantRepository) DecrementStock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	if !domain.ValidQuantity(quantity) {
		return domain.ErrInvalidQuantity
	}

	cmdTag, err := r.q.DecrementStock(ctx, variantID, int32(quantity))
	if err != nil {
		return fmt.Errorf("q.DecrementStock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		if _, err := r.GetVariant(ctx, variantID); err != nil {
			return err
		}
		return fmt.Errorf("variant[%s]: %w", variantID, domain.ErrOutOfStock)
	}

	return nil
}

func (r *variantRepository) RestoreStock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	if !domain.ValidQuantity(quantity) {
		return domain.ErrInvalidQuantity
	}

	cmdTag, err := r.q.RestoreStock(ctx, variantID, int32(quantity))
	if err != nil {
		return fmt.Errorf("q.RestoreStock: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("variant[%s]: %w", variantID, domain.ErrVariantNotFound)
	}

	return nil
}

func (r *variantRepository) InsertVariant(ctx context.Context, variant domain.ProductVariant) (uuid.UUID, error) {
	if variant.ProductID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("productID is empty")
	}

	if variant.Stock < 0 {
		return uuid.Nil, fmt.Errorf("stock is negative")
	}

	id, err := r.q.InsertVariant(ctx, db.InsertVariantParams{
		ProductID:     variant.ProductID,
		Color:         variant.Color,
		Size:          variant.Size,
		PriceAmount:   variant.Price.Amount,
		PriceCurrency: variant.Price.Currency.String(),
		Stock:         int32(variant.Stock),
		IsActive:      variant.IsActive,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertVariant: %w", err)
	}

	return id, nil
}

func mapDBVariantToDomain(row db.ProductVariant) (domain.ProductVariant, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.ProductVariant{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.ProductVariant{
		ID:        row.ID,
		ProductID: row.ProductID,
		Color:     row.Color,
		Size:      row.Size,
		Price:     domain.NewMoney(row.PriceAmount, parsedCurrency),
		Stock:     int(row.Stock),
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
