package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type voucherRepository struct {
	v *view
}

func (r *voucherRepository) GetVoucherByCode(_ context.Context, code string) (domain.Voucher, error) {
	var result domain.Voucher

	code = domain.NormalizeVoucherCode(code)
	if code == "" {
		return result, fmt.Errorf("code is empty")
	}

	err := r.v.apply(func(st *state) error {
		for _, voucher := range st.vouchers {
			if voucher.Code == code {
				result = voucher
				return nil
			}
		}
		return domain.ErrVoucherNotFound
	})

	return result, err
}

// LockVoucherByCode needs a transaction; the transaction already holds the store exclusively.
func (r *voucherRepository) LockVoucherByCode(ctx context.Context, code string) (domain.Voucher, error) {
	if !r.v.inTx() {
		return domain.Voucher{}, fmt.Errorf("LockVoucherByCode requires a transaction")
	}
	return r.GetVoucherByCode(ctx, code)
}

func (r *voucherRepository) GetVoucherUsage(_ context.Context, voucherID uuid.UUID, userID string) (domain.VoucherUsage, error) {
	var usage domain.VoucherUsage

	err := r.v.apply(func(st *state) error {
		voucher, ok := st.vouchers[voucherID]
		if !ok {
			return domain.ErrVoucherNotFound
		}

		usage.Total = voucher.UsedCount
		for _, redemption := range st.redemptions {
			if redemption.VoucherID == voucherID && redemption.UserID == userID {
				usage.ForUser++
			}
		}
		return nil
	})

	return usage, err
}

func (r *voucherRepository) RecordRedemption(_ context.Context, redemption domain.VoucherRedemption) error {
	if redemption.VoucherID == uuid.Nil || redemption.OrderID == uuid.Nil {
		return fmt.Errorf("voucherID or orderID is empty")
	}

	return r.v.apply(func(st *state) error {
		voucher, ok := st.vouchers[redemption.VoucherID]
		if !ok {
			return domain.ErrVoucherNotFound
		}

		if voucher.UsageLimit != nil && voucher.UsedCount >= *voucher.UsageLimit {
			return domain.ErrVoucherUsageExceeded
		}

		voucher.UsedCount++
		voucher.UpdatedAt = r.v.now()
		st.vouchers[voucher.ID] = voucher
		st.redemptions = append(st.redemptions, redemption)

		return nil
	})
}

func (r *voucherRepository) InsertVoucher(_ context.Context, voucher domain.Voucher) (uuid.UUID, error) {
	if err := voucher.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("voucher.Validate: %w", err)
	}

	voucher.Code = domain.NormalizeVoucherCode(voucher.Code)
	if voucher.ID == uuid.Nil {
		voucher.ID = uuid.New()
	}
	voucher.CreatedAt = r.v.now()
	voucher.UpdatedAt = voucher.CreatedAt

	err := r.v.apply(func(st *state) error {
		for _, existing := range st.vouchers {
			if existing.Code == voucher.Code {
				return fmt.Errorf("voucher[%s] already exists", voucher.Code)
			}
		}
		st.vouchers[voucher.ID] = voucher
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return voucher.ID, nil
}
