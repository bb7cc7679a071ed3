package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
)

type productRepository struct {
	q *db.Queries
}

func NewProduct(dbtx db.DBTX) port.ProductRepository {
	return &productRepository{
		q: db.New(dbtx),
	}
}

func (r *productRepository) ListProductsCreatedAfter(ctx context.Context, t time.Time, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.q.ListProductsCreatedAfter(ctx, t, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.ListProductsCreatedAfter: %w", err)
	}

	return lo.Map(rows, mapDBProductToDomain), nil
}

func (r *productRepository) ListProductsCreatedBefore(ctx context.Context, t time.Time, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.q.ListProductsCreatedBefore(ctx, t, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.ListProductsCreatedBefore: %w", err)
	}

	return lo.Map(rows, mapDBProductToDomain), nil
}

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error) {
	if product.Name == "" {
		return uuid.Nil, fmt.Errorf("name is empty")
	}

	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	id, err := r.q.InsertProduct(ctx, db.InsertProductParams{
		Name:      product.Name,
		IsActive:  product.IsActive,
		CreatedAt: createdAt,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertProduct: %w", err)
	}

	return id, nil
}

func mapDBProductToDomain(row db.Product, _ int) domain.Product {
	return domain.Product{
		ID:        row.ID,
		Name:      row.Name,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
	}
}
