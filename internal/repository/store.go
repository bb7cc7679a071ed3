package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/port"
)

type store struct {
	dbtx db.DBTX

	orders   port.OrderRepository
	vouchers port.VoucherRepository
	variants port.VariantRepository
	products port.ProductRepository
	outbox   port.OutboxRepository
}

// NewStore builds a postgres backed port.Store.
func NewStore(pool *pgxpool.Pool) (port.Store, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}
	return newStore(pool), nil
}

func newStore(dbtx db.DBTX) *store {
	return &store{
		dbtx:     dbtx,
		orders:   NewOrder(dbtx),
		vouchers: NewVoucher(dbtx),
		variants: NewVariant(dbtx),
		products: NewProduct(dbtx),
		outbox:   NewOutbox(dbtx),
	}
}

func (s *store) Orders() port.OrderRepository     { return s.orders }
func (s *store) Vouchers() port.VoucherRepository { return s.vouchers }
func (s *store) Variants() port.VariantRepository { return s.variants }
func (s *store) Products() port.ProductRepository { return s.products }
func (s *store) Outbox() port.OutboxRepository    { return s.outbox }

func (s *store) InTx(ctx context.Context, fn func(tx port.Store) error) error {
	if _, ok := s.dbtx.(pgx.Tx); ok {
		return fn(s)
	}

	pool, ok := s.dbtx.(*pgxpool.Pool)
	if !ok {
		return fmt.Errorf("dbtx is neither pgx.Tx nor *pgxpool.Pool: %T", s.dbtx)
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return fn(newStore(tx))
	})
}
