package port

import (
	"context"
)

// Store groups the repositories that take part in one unit of work.
type Store interface {
	Orders() OrderRepository
	Vouchers() VoucherRepository
	Variants() VariantRepository
	Products() ProductRepository
	Outbox() OutboxRepository

	// InTx runs fn with a Store bound to a single transaction, committing when fn returns nil.
	// Calling InTx on a transactional Store reuses its transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
