package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const voucherColumns = `id, code, discount_percent, minimum_order_value, maximum_order_value, maximum_discount_amount,
       start_date, end_date, is_active, usage_limit, used_count, is_one_time_per_user, created_at, updated_at`

func scanVoucher(row pgx.Row) (Voucher, error) {
	var i Voucher
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.DiscountPercent,
		&i.MinimumOrderValue,
		&i.MaximumOrderValue,
		&i.MaximumDiscountAmount,
		&i.StartDate,
		&i.EndDate,
		&i.IsActive,
		&i.UsageLimit,
		&i.UsedCount,
		&i.IsOneTimePerUser,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getVoucherByCode = `SELECT ` + voucherColumns + `
FROM vouchers
WHERE code = $1`

func (q *Queries) GetVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	row := q.db.QueryRow(ctx, getVoucherByCode, code)
	return scanVoucher(row)
}

const lockVoucherByCode = `SELECT ` + voucherColumns + `
FROM vouchers
WHERE code = $1
FOR UPDATE`

func (q *Queries) LockVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	row := q.db.QueryRow(ctx, lockVoucherByCode, code)
	return scanVoucher(row)
}

const countVoucherUsagesByUser = `SELECT count(*)
FROM voucher_usages
WHERE voucher_id = $1
  AND user_id = $2`

func (q *Queries) CountVoucherUsagesByUser(ctx context.Context, voucherID uuid.UUID, userID string) (int64, error) {
	row := q.db.QueryRow(ctx, countVoucherUsagesByUser, voucherID, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const incrementVoucherUsedCount = `UPDATE vouchers
SET used_count = used_count + 1,
    updated_at = now()
WHERE id = $1
  AND (usage_limit IS NULL OR used_count < usage_limit)`

func (q *Queries) IncrementVoucherUsedCount(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, incrementVoucherUsedCount, id)
}

const insertVoucherUsage = `INSERT INTO voucher_usages (voucher_id, user_id, order_id, discount_amount, used_at)
VALUES ($1, $2, $3, $4, $5)`

type InsertVoucherUsageParams struct {
	VoucherID      uuid.UUID
	UserID         string
	OrderID        uuid.UUID
	DiscountAmount decimal.Decimal
	UsedAt         time.Time
}

func (q *Queries) InsertVoucherUsage(ctx context.Context, arg InsertVoucherUsageParams) error {
	_, err := q.db.Exec(ctx, insertVoucherUsage,
		arg.VoucherID,
		arg.UserID,
		arg.OrderID,
		arg.DiscountAmount,
		arg.UsedAt,
	)
	return err
}

const insertVoucher = `INSERT INTO vouchers (code, discount_percent, minimum_order_value, maximum_order_value,
                      maximum_discount_amount, start_date, end_date, is_active, usage_limit, used_count,
                      is_one_time_per_user)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

type InsertVoucherParams struct {
	Code                  string
	DiscountPercent       decimal.Decimal
	MinimumOrderValue     decimal.Decimal
	MaximumOrderValue     decimal.NullDecimal
	MaximumDiscountAmount decimal.NullDecimal
	StartDate             time.Time
	EndDate               time.Time
	IsActive              bool
	UsageLimit            *int32
	UsedCount             int32
	IsOneTimePerUser      bool
}

func (q *Queries) InsertVoucher(ctx context.Context, arg InsertVoucherParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertVoucher,
		arg.Code,
		arg.DiscountPercent,
		arg.MinimumOrderValue,
		arg.MaximumOrderValue,
		arg.MaximumDiscountAmount,
		arg.StartDate,
		arg.EndDate,
		arg.IsActive,
		arg.UsageLimit,
		arg.UsedCount,
		arg.IsOneTimePerUser,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getVoucherByID = `SELECT ` + voucherColumns + `
FROM vouchers
WHERE id = $1`

func (q *Queries) GetVoucherByID(ctx context.Context, id uuid.UUID) (Voucher, error) {
	row := q.db.QueryRow(ctx, getVoucherByID, id)
	return scanVoucher(row)
}
