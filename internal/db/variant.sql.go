package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const variantColumns = `id, product_id, color, size, price_amount, price_currency, stock, is_active, created_at, updated_at`

func scanVariant(row pgx.Row) (ProductVariant, error) {
	var i ProductVariant
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.Color,
		&i.Size,
		&i.PriceAmount,
		&i.PriceCurrency,
		&i.Stock,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getVariant = `SELECT ` + variantColumns + `
FROM product_variants
WHERE id = $1`

func (q *Queries) GetVariant(ctx context.Context, id uuid.UUID) (ProductVariant, error) {
	row := q.db.QueryRow(ctx, getVariant, id)
	return scanVariant(row)
}

const getVariants = `SELECT ` + variantColumns + `
FROM product_variants
WHERE id = ANY ($1::uuid[])
ORDER BY id`

func (q *Queries) GetVariants(ctx context.Context, ids []uuid.UUID) ([]ProductVariant, error) {
	rows, err := q.db.Query(ctx, getVariants, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ProductVariant
	for rows.Next() {
		i, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const decrementStock = `UPDATE product_variants
SET stock      = stock - $2,
    updated_at = now()
WHERE id = $1
  AND is_active
  AND stock >= $2`

func (q *Queries) DecrementStock(ctx context.Context, id uuid.UUID, quantity int32) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, decrementStock, id, quantity)
}

const restoreStock = `UPDATE product_variants
SET stock      = stock + $2,
    updated_at = now()
WHERE id = $1`

func (q *Queries) RestoreStock(ctx context.Context, id uuid.UUID, quantity int32) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, restoreStock, id, quantity)
}

const insertVariant = `INSERT INTO product_variants (product_id, color, size, price_amount, price_currency, stock, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

type InsertVariantParams struct {
	ProductID     uuid.UUID
	Color         string
	Size          string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Stock         int32
	IsActive      bool
}

func (q *Queries) InsertVariant(ctx context.Context, arg InsertVariantParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertVariant,
		arg.ProductID,
		arg.Color,
		arg.Size,
		arg.PriceAmount,
		arg.PriceCurrency,
		arg.Stock,
		arg.IsActive,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}
