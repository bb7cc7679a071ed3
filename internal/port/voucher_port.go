package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type VoucherRepository interface {
	GetVoucherByCode(ctx context.Context, code string) (domain.Voucher, error)

	// LockVoucherByCode reads the voucher and holds it until the surrounding transaction ends.
	LockVoucherByCode(ctx context.Context, code string) (domain.Voucher, error)

	GetVoucherUsage(ctx context.Context, voucherID uuid.UUID, userID string) (domain.VoucherUsage, error)

	// RecordRedemption increments the used count and stores the redemption row.
	RecordRedemption(ctx context.Context, redemption domain.VoucherRedemption) error

	InsertVoucher(ctx context.Context, voucher domain.Voucher) (uuid.UUID, error)
}
