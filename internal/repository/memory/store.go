// Package memory is an in-process port.Store used by tests and by the service when no
// database is configured.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

type state struct {
	products    map[uuid.UUID]domain.Product
	variants    map[uuid.UUID]domain.ProductVariant
	vouchers    map[uuid.UUID]domain.Voucher
	redemptions []domain.VoucherRedemption
	orders      map[uuid.UUID]domain.Order
	outbox      []domain.OutboxRecord
	outboxSeq   int64
}

func newState() *state {
	return &state{
		products: make(map[uuid.UUID]domain.Product),
		variants: make(map[uuid.UUID]domain.ProductVariant),
		vouchers: make(map[uuid.UUID]domain.Voucher),
		orders:   make(map[uuid.UUID]domain.Order),
	}
}

func (s *state) clone() *state {
	return &state{
		products:    maps.Clone(s.products),
		variants:    maps.Clone(s.variants),
		vouchers:    maps.Clone(s.vouchers),
		redemptions: slices.Clone(s.redemptions),
		orders:      maps.Clone(s.orders),
		outbox:      slices.Clone(s.outbox),
		outboxSeq:   s.outboxSeq,
	}
}

// Store keeps all data in maps guarded by a single mutex. A transaction works on a copy of
// the data and replaces the original on commit, so a failed transaction leaves no trace.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Orders() port.OrderRepository     { return &orderRepository{v: s.view()} }
func (s *Store) Vouchers() port.VoucherRepository { return &voucherRepository{v: s.view()} }
func (s *Store) Variants() port.VariantRepository { return &variantRepository{v: s.view()} }
func (s *Store) Products() port.ProductRepository { return &productRepository{v: s.view()} }
func (s *Store) Outbox() port.OutboxRepository    { return &outboxRepository{v: s.view()} }

// InTx holds the store lock for the whole of fn, transactions are serialized.
func (s *Store) InTx(ctx context.Context, fn func(tx port.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&txStore{v: &view{data: work, now: s.now}}); err != nil {
		return err
	}

	s.data = work
	return nil
}

func (s *Store) view() *view {
	return &view{store: s, now: s.now}
}

// view resolves the data a repository works on: the committed data under the store lock,
// or the private copy of a running transaction.
type view struct {
	store *Store
	data  *state
	now   func() time.Time
}

func (v *view) apply(fn func(st *state) error) error {
	if v.data != nil {
		return fn(v.data)
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	return fn(v.store.data)
}

func (v *view) inTx() bool {
	return v.data != nil
}

type txStore struct {
	v *view
}

func (t *txStore) Orders() port.OrderRepository     { return &orderRepository{v: t.v} }
func (t *txStore) Vouchers() port.VoucherRepository { return &voucherRepository{v: t.v} }
func (t *txStore) Variants() port.VariantRepository { return &variantRepository{v: t.v} }
func (t *txStore) Products() port.ProductRepository { return &productRepository{v: t.v} }
func (t *txStore) Outbox() port.OutboxRepository    { return &outboxRepository{v: t.v} }

func (t *txStore) InTx(_ context.Context, fn func(tx port.Store) error) error {
	return fn(t)
}
