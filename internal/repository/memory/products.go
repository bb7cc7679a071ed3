package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type productRepository struct {
	v *view
}

func (r *productRepository) ListProductsCreatedAfter(_ context.Context, t time.Time, limit int) ([]domain.Product, error) {
	return r.list(limit, func(p domain.Product) bool { return !p.CreatedAt.Before(t) })
}

func (r *productRepository) ListProductsCreatedBefore(_ context.Context, t time.Time, limit int) ([]domain.Product, error) {
	return r.list(limit, func(p domain.Product) bool { return p.CreatedAt.Before(t) })
}

func (r *productRepository) list(limit int, keep func(domain.Product) bool) ([]domain.Product, error) {
	if limit <= 0 {
		return nil, nil
	}

	var result []domain.Product

	err := r.v.apply(func(st *state) error {
		for _, p := range st.products {
			if p.IsActive && keep(p) {
				result = append(result, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(result, func(a, b domain.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *productRepository) InsertProduct(_ context.Context, product domain.Product) (uuid.UUID, error) {
	if product.Name == "" {
		return uuid.Nil, fmt.Errorf("name is empty")
	}

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.v.now()
	}

	err := r.v.apply(func(st *state) error {
		st.products[product.ID] = product
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return product.ID, nil
}
