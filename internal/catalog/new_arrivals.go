// Package catalog serves read-only product listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
)

const (
	DefaultWindow    = 30 * 24 * time.Hour
	DefaultThreshold = 8
	DefaultLimit     = 20
)

type Service struct {
	products  port.ProductRepository
	window    time.Duration
	threshold int
	limit     int
	now       func() time.Time
}

type Option func(*Service)

// WithNewArrivals sets how far back a product counts as new, the minimum list size reached by
// backfilling older products, and the maximum list size.
func WithNewArrivals(window time.Duration, threshold, limit int) Option {
	return func(s *Service) {
		s.window = window
		s.threshold = threshold
		s.limit = limit
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(products port.ProductRepository, opts ...Option) (*Service, error) {
	if products == nil {
		return nil, errors.New("products is nil")
	}

	s := &Service{
		products:  products,
		window:    DefaultWindow,
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.window <= 0 {
		return nil, errors.New("window must be positive")
	}

	if s.limit <= 0 || s.threshold < 0 {
		return nil, errors.New("limit must be positive and threshold non-negative")
	}

	return s, nil
}

// NewArrivals lists active products created within the window, newest first. When fewer than
// threshold exist, the most recent older products are appended with Backfilled set.
func (s *Service) NewArrivals(ctx context.Context) ([]domain.NewArrival, error) {
	cutoff := s.now().UTC().Add(-s.window)

	recent, err := s.products.ListProductsCreatedAfter(ctx, cutoff, s.limit)
	if err != nil {
		return nil, fmt.Errorf("ListProductsCreatedAfter: %w", err)
	}

	result := lo.Map(recent, func(p domain.Product, _ int) domain.NewArrival {
		return domain.NewArrival{Product: p}
	})

	missing := min(s.threshold, s.limit) - len(result)
	if missing <= 0 {
		return result, nil
	}

	older, err := s.products.ListProductsCreatedBefore(ctx, cutoff, missing)
	if err != nil {
		return nil, fmt.Errorf("ListProductsCreatedBefore: %w", err)
	}

	for _, p := range older {
		result = append(result, domain.NewArrival{Product: p, Backfilled: true})
	}

	return result, nil
}
