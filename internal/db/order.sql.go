package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, owner_id, status, shipping_address, payment_method, voucher_code, cancel_reason,
       currency, subtotal, shipping_fee, discount_amount, final_total, created_at, updated_at, deleted_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Status,
		&i.ShippingAddress,
		&i.PaymentMethod,
		&i.VoucherCode,
		&i.CancelReason,
		&i.Currency,
		&i.Subtotal,
		&i.ShippingFee,
		&i.DiscountAmount,
		&i.FinalTotal,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const getOrder = `SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
  AND deleted_at IS NULL`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const orderItemColumns = `order_id, variant_id, product_id, quantity, unit_price_amount, line_total_amount,
       price_currency, created_at`

func scanOrderItems(rows pgx.Rows) ([]OrderItem, error) {
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.OrderID,
			&i.VariantID,
			&i.ProductID,
			&i.Quantity,
			&i.UnitPriceAmount,
			&i.LineTotalAmount,
			&i.PriceCurrency,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOrderItems = `SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY created_at, variant_id`

func (q *Queries) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	return scanOrderItems(rows)
}

const getOrderItemsByOrderIDs = `SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = ANY ($1::uuid[])
ORDER BY order_id, created_at, variant_id`

func (q *Queries) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItemsByOrderIDs, orderIDs)
	if err != nil {
		return nil, err
	}
	return scanOrderItems(rows)
}

const insertOrder = `INSERT INTO orders (owner_id, shipping_address, payment_method, voucher_code, currency,
                    subtotal, shipping_fee, discount_amount, final_total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

type InsertOrderParams struct {
	OwnerID         string
	ShippingAddress []byte
	PaymentMethod   string
	VoucherCode     *string
	Currency        string
	Subtotal        decimal.Decimal
	ShippingFee     decimal.Decimal
	DiscountAmount  decimal.Decimal
	FinalTotal      decimal.Decimal
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, insertOrder,
		arg.OwnerID,
		arg.ShippingAddress,
		arg.PaymentMethod,
		arg.VoucherCode,
		arg.Currency,
		arg.Subtotal,
		arg.ShippingFee,
		arg.DiscountAmount,
		arg.FinalTotal,
	)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const insertOrderItem = `INSERT INTO order_items (order_id, variant_id, product_id, quantity, unit_price_amount,
                         line_total_amount, price_currency)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type InsertOrderItemParams struct {
	OrderID         uuid.UUID
	VariantID       uuid.UUID
	ProductID       uuid.UUID
	Quantity        int32
	UnitPriceAmount decimal.Decimal
	LineTotalAmount decimal.Decimal
	PriceCurrency   string
}

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) error {
	_, err := q.db.Exec(ctx, insertOrderItem,
		arg.OrderID,
		arg.VariantID,
		arg.ProductID,
		arg.Quantity,
		arg.UnitPriceAmount,
		arg.LineTotalAmount,
		arg.PriceCurrency,
	)
	return err
}

const orderFilter = `
WHERE deleted_at IS NULL
  AND ($1::uuid[] IS NULL OR id = ANY ($1::uuid[]))
  AND ($2::text[] IS NULL OR owner_id = ANY ($2::text[]))
  AND ($3::text[] IS NULL OR status = ANY ($3::text[]))
  AND ($4::timestamptz IS NULL OR created_at > $4)
  AND ($5::timestamptz IS NULL OR created_at < $5)
  AND ($6::timestamptz IS NULL OR updated_at > $6)
  AND ($7::timestamptz IS NULL OR updated_at < $7)`

type SearchOrdersParams struct {
	Ids           []uuid.UUID
	OwnerIds      []string
	Statuses      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
	Limit         int32
	Offset        int32
}

const searchOrders = `SELECT ` + orderColumns + `
FROM orders` + orderFilter + `
ORDER BY created_at DESC, id
LIMIT $8 OFFSET $9`

func (q *Queries) SearchOrders(ctx context.Context, arg SearchOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, searchOrders,
		arg.Ids,
		arg.OwnerIds,
		arg.Statuses,
		arg.CreatedAfter,
		arg.CreatedBefore,
		arg.UpdatedAfter,
		arg.UpdatedBefore,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
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

const countOrders = `SELECT count(*)
FROM orders` + orderFilter

func (q *Queries) CountOrders(ctx context.Context, arg SearchOrdersParams) (int64, error) {
	row := q.db.QueryRow(ctx, countOrders,
		arg.Ids,
		arg.OwnerIds,
		arg.Statuses,
		arg.CreatedAfter,
		arg.CreatedBefore,
		arg.UpdatedAfter,
		arg.UpdatedBefore,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateOrderStatus = `UPDATE orders
SET status        = $3,
    cancel_reason = COALESCE($4, cancel_reason),
    updated_at    = now()
WHERE id = $1
  AND status = $2
  AND deleted_at IS NULL`

type UpdateOrderStatusParams struct {
	ID           uuid.UUID
	FromStatus   string
	ToStatus     string
	CancelReason *string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, updateOrderStatus, arg.ID, arg.FromStatus, arg.ToStatus, arg.CancelReason)
}

const softDeleteOrder = `UPDATE orders
SET deleted_at = now(),
    updated_at = now()
WHERE id = $1
  AND deleted_at IS NULL`

func (q *Queries) SoftDeleteOrder(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, softDeleteOrder, id)
}

const deleteOrderItems = `DELETE
FROM order_items
WHERE order_id = $1`

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteOrderItems, orderID)
}

const deleteOrder = `DELETE
FROM orders
WHERE id = $1`

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, deleteOrder, id)
}
