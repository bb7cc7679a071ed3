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
	"github.com/shopspring/decimal"
)

type voucherRepository struct {
	dbtx db.DBTX
	q    *db.Queries
}

func NewVoucher(dbtx db.DBTX) port.VoucherRepository {
	return &voucherRepository{
		dbtx: dbtx,
		q:    db.New(dbtx),
	}
}

func (r *voucherRepository) GetVoucherByCode(ctx context.Context, code string) (domain.Voucher, error) {
	code = domain.NormalizeVoucherCode(code)
	if code == "" {
		return domain.Voucher{}, fmt.Errorf("code is empty")
	}

	row, err := r.q.GetVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Voucher{}, domain.ErrVoucherNotFound
		}
		return domain.Voucher{}, fmt.Errorf("q.GetVoucherByCode: %w", err)
	}

	return mapDBVoucherToDomain(row), nil
}

func (r *voucherRepository) LockVoucherByCode(ctx context.Context, code string) (domain.Voucher, error) {
	if _, ok := r.dbtx.(pgx.Tx); !ok {
		return domain.Voucher{}, fmt.Errorf("LockVoucherByCode requires a transaction")
	}

	code = domain.NormalizeVoucherCode(code)
	if code == "" {
		return domain.Voucher{}, fmt.Errorf("code is empty")
	}

	row, err := r.q.LockVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Voucher{}, domain.ErrVoucherNotFound
		}
		return domain.Voucher{}, fmt.Errorf("q.LockVoucherByCode: %w", err)
	}

	return mapDBVoucherToDomain(row), nil
}

func (r *voucherRepository) GetVoucherUsage(ctx context.Context, voucherID uuid.UUID, userID string) (domain.VoucherUsage, error) {
	var usage domain.VoucherUsage

	row, err := r.q.GetVoucherByID(ctx, voucherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return usage, domain.ErrVoucherNotFound
		}
		return usage, fmt.Errorf("q.GetVoucherByID: %w", err)
	}

	forUser, err := r.q.CountVoucherUsagesByUser(ctx, voucherID, userID)
	if err != nil {
		return usage, fmt.Errorf("q.CountVoucherUsagesByUser: %w", err)
	}

	return domain.VoucherUsage{
		Total:   int(row.UsedCount),
		ForUser: int(forUser),
	}, nil
}

func (r *voucherRepository) RecordRedemption(ctx context.Context, redemption domain.VoucherRedemption) error {
	if redemption.VoucherID == uuid.Nil || redemption.OrderID == uuid.Nil {
		return fmt.Errorf("voucherID or orderID is empty")
	}

	return withTxNoResult(ctx, r.dbtx, func(q *db.Queries) error {
		cmdTag, err := q.IncrementVoucherUsedCount(ctx, redemption.VoucherID)
		if err != nil {
			return fmt.Errorf("q.IncrementVoucherUsedCount: %w", err)
		}

		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("q.IncrementVoucherUsedCount: %w", domain.ErrVoucherUsageExceeded)
		}

		if err := q.InsertVoucherUsage(ctx, db.InsertVoucherUsageParams{
			VoucherID:      redemption.VoucherID,
			UserID:         redemption.UserID,
			OrderID:        redemption.OrderID,
			DiscountAmount: redemption.Discount,
			UsedAt:         redemption.UsedAt,
		}); err != nil {
			return fmt.Errorf("q.InsertVoucherUsage: %w", err)
		}

		return nil
	})
}

func (r *voucherRepository) InsertVoucher(ctx context.Context, voucher domain.Voucher) (uuid.UUID, error) {
	if err := voucher.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("voucher.Validate: %w", err)
	}

	var usageLimit *int32
	if voucher.UsageLimit != nil {
		usageLimit = lo.ToPtr(int32(*voucher.UsageLimit))
	}

	id, err := r.q.InsertVoucher(ctx, db.InsertVoucherParams{
		Code:                  domain.NormalizeVoucherCode(voucher.Code),
		DiscountPercent:       voucher.DiscountPercent,
		MinimumOrderValue:     voucher.MinimumOrderValue,
		MaximumOrderValue:     toNullDecimal(voucher.MaximumOrderValue),
		MaximumDiscountAmount: toNullDecimal(voucher.MaximumDiscountAmount),
		StartDate:             voucher.StartDate,
		EndDate:               voucher.EndDate,
		IsActive:              voucher.IsActive,
		UsageLimit:            usageLimit,
		UsedCount:             int32(voucher.UsedCount),
		IsOneTimePerUser:      voucher.IsOneTimePerUser,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertVoucher: %w", err)
	}

	return id, nil
}

func mapDBVoucherToDomain(row db.Voucher) domain.Voucher {
	var usageLimit *int
	if row.UsageLimit != nil {
		usageLimit = lo.ToPtr(int(*row.UsageLimit))
	}

	return domain.Voucher{
		ID:                    row.ID,
		Code:                  row.Code,
		DiscountPercent:       row.DiscountPercent,
		MinimumOrderValue:     row.MinimumOrderValue,
		MaximumOrderValue:     fromNullDecimal(row.MaximumOrderValue),
		MaximumDiscountAmount: fromNullDecimal(row.MaximumDiscountAmount),
		StartDate:             row.StartDate,
		EndDate:               row.EndDate,
		IsActive:              row.IsActive,
		UsageLimit:            usageLimit,
		UsedCount:             int(row.UsedCount),
		IsOneTimePerUser:      row.IsOneTimePerUser,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return lo.ToPtr(d.Decimal)
}
