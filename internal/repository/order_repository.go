package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type orderRepository struct {
	dbtx db.DBTX
	q    *db.Queries
}

func NewOrder(dbtx db.DBTX) port.OrderRepository {
	return &orderRepository{
		dbtx: dbtx,
		q:    db.New(dbtx),
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	if orderID == uuid.Nil {
		return o, fmt.Errorf("orderID is empty")
	}

	dbOrder, err := r.q.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, domain.ErrOrderNotFound
		}
		return o, fmt.Errorf("q.GetOrder: %w", err)
	}

	dbOrderItems, err := r.q.GetOrderItems(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("q.GetOrderItems: %w", err)
	}

	order, err := mapDBOrderToDomain(dbOrder, dbOrderItems)
	if err != nil {
		return o, fmt.Errorf("mapDBOrderToDomain: %w", err)
	}

	return order, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	var p domain.Page[domain.Order]

	if err := filter.Validate(); err != nil {
		return p, fmt.Errorf("filter.Validate: %w", err)
	}

	page = page.Normalize()

	params := mapDomainOrderFilterToDBFilter(filter)
	params.Limit = int32(page.Limit)
	params.Offset = int32(page.Offset())

	total, err := r.q.CountOrders(ctx, params)
	if err != nil {
		return p, fmt.Errorf("q.CountOrders: %w", err)
	}

	dbOrders, err := r.q.SearchOrders(ctx, params)
	if err != nil {
		return p, fmt.Errorf("q.SearchOrders: %w", err)
	}

	orderIDs := lo.Map(dbOrders, func(o db.Order, _ int) uuid.UUID { return o.ID })

	var dbItems []db.OrderItem
	if len(orderIDs) > 0 {
		dbItems, err = r.q.GetOrderItemsByOrderIDs(ctx, orderIDs)
		if err != nil {
			return p, fmt.Errorf("q.GetOrderItemsByOrderIDs: %w", err)
		}
	}

	itemsByOrder := lo.GroupBy(dbItems, func(item db.OrderItem) uuid.UUID { return item.OrderID })

	orders := make([]domain.Order, 0, len(dbOrders))
	for _, dbOrder := range dbOrders {
		order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID])
		if err != nil {
			return p, fmt.Errorf("mapDBOrderToDomain: %w", err)
		}
		orders = append(orders, order)
	}

	return domain.NewPage(orders, page, int(total)), nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, domain.ErrEmptyOrder
	}

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return uuid.Nil, fmt.Errorf("json.Marshal: %w", err)
	}

	orderID, err := withTx(ctx, r.dbtx, func(q *db.Queries) (uuid.UUID, error) {
		orderID, err := q.InsertOrder(ctx, db.InsertOrderParams{
			OwnerID:         order.OwnerID,
			ShippingAddress: address,
			PaymentMethod:   string(order.PaymentMethod),
			VoucherCode:     order.VoucherCode,
			Currency:        order.FinalTotal.Currency.String(),
			Subtotal:        order.Subtotal.Amount,
			ShippingFee:     order.ShippingFee.Amount,
			DiscountAmount:  order.DiscountAmount.Amount,
			FinalTotal:      order.FinalTotal.Amount,
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("q.InsertOrder: %w", err)
		}

		// TODO: batch insert with pgx.Batch once orders carry more than a handful of lines
		for _, item := range order.Items {
			if !domain.ValidQuantity(item.Quantity) {
				return uuid.Nil, fmt.Errorf("variant[%s]: %w", item.VariantID, domain.ErrInvalidQuantity)
			}

			arg := db.InsertOrderItemParams{
				OrderID:         orderID,
				VariantID:       item.VariantID,
				ProductID:       item.ProductID,
				Quantity:        int32(item.Quantity),
				UnitPriceAmount: item.UnitPrice.Amount,
				LineTotalAmount: item.LineTotal.Amount,
				PriceCurrency:   item.UnitPrice.Currency.String(),
			}
			if err := q.InsertOrderItem(ctx, arg); err != nil {
				return uuid.Nil, fmt.Errorf("q.InsertOrderItem: %w", err)
			}
		}

		return orderID, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("withTx: %w", err)
	}

	return orderID, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, cancelReason *string) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	if to == "" {
		return fmt.Errorf("status is empty")
	}

	cmdTag, err := r.q.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{
		ID:           orderID,
		FromStatus:   string(from),
		ToStatus:     string(to),
		CancelReason: cancelReason,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateOrderStatus: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		// either the order is gone or another writer moved it away from `from`
		if _, err := r.q.GetOrder(ctx, orderID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("q.UpdateOrderStatus: %w", domain.ErrOrderNotFound)
			}
			return fmt.Errorf("q.GetOrder: %w", err)
		}
		return fmt.Errorf("q.UpdateOrderStatus: %w", domain.ErrInvalidTransition)
	}

	return nil
}

func (r *orderRepository) SoftDeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	cmdTag, err := r.q.SoftDeleteOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("q.SoftDeleteOrder: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("q.SoftDeleteOrder: %w", domain.ErrOrderNotFound)
	}

	return nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	if err := withTxNoResult(ctx, r.dbtx, func(q *db.Queries) error {
		if _, err := q.DeleteOrderItems(ctx, orderID); err != nil {
			return fmt.Errorf("q.DeleteOrderItems: %w", err)
		}

		cmdTag, err := q.DeleteOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("q.DeleteOrder: %w", err)
		}

		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("q.DeleteOrder: %w", domain.ErrOrderNotFound)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func mapDomainOrderFilterToDBFilter(filter domain.OrderFilter) db.SearchOrdersParams {
	statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string { return string(s) })

	var createdAfter, createdBefore, updatedAfter, updatedBefore *time.Time

	if filter.CreatedAt != nil {
		createdAfter = filter.CreatedAt.After
		createdBefore = filter.CreatedAt.Before
	}

	if filter.UpdatedAt != nil {
		updatedAfter = filter.UpdatedAt.After
		updatedBefore = filter.UpdatedAt.Before
	}

	return db.SearchOrdersParams{
		Ids:           nilSliceIfEmpty(filter.IDs),
		OwnerIds:      nilSliceIfEmpty(filter.OwnerIDs),
		Statuses:      nilSliceIfEmpty(statuses),
		CreatedAfter:  createdAfter,
		CreatedBefore: createdBefore,
		UpdatedAfter:  updatedAfter,
		UpdatedBefore: updatedBefore,
	}
}

func mapDBOrderItemToDomain(row db.OrderItem) (domain.OrderItem, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.OrderItem{
		VariantID: row.VariantID,
		ProductID: row.ProductID,
		Quantity:  int(row.Quantity),
		UnitPrice: domain.NewMoney(row.UnitPriceAmount, parsedCurrency),
		LineTotal: domain.NewMoney(row.LineTotalAmount, parsedCurrency),
	}, nil
}

func mapDBOrderToDomain(dbOrder db.Order, dbOrderItems []db.OrderItem) (domain.Order, error) {
	var o domain.Order

	items := make([]domain.OrderItem, 0, len(dbOrderItems))
	for _, row := range dbOrderItems {
		item, err := mapDBOrderItemToDomain(row)
		if err != nil {
			return o, fmt.Errorf("mapDBOrderItemToDomain: %w", err)
		}
		items = append(items, item)
	}

	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	paymentMethod, err := domain.ToPaymentMethod(dbOrder.PaymentMethod)
	if err != nil {
		return o, fmt.Errorf("domain.ToPaymentMethod[%s]: %w", dbOrder.PaymentMethod, err)
	}

	cur, err := currency.ParseISO(dbOrder.Currency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", dbOrder.Currency, err)
	}

	var address domain.Address
	if err := json.Unmarshal(dbOrder.ShippingAddress, &address); err != nil {
		return o, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return domain.Order{
		ID:              dbOrder.ID,
		OwnerID:         dbOrder.OwnerID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		Status:          status,
		VoucherCode:     dbOrder.VoucherCode,
		CancelReason:    dbOrder.CancelReason,
		Subtotal:        domain.NewMoney(dbOrder.Subtotal, cur),
		ShippingFee:     domain.NewMoney(dbOrder.ShippingFee, cur),
		DiscountAmount:  domain.NewMoney(dbOrder.DiscountAmount, cur),
		FinalTotal:      domain.NewMoney(dbOrder.FinalTotal, cur),
		CreatedAt:       dbOrder.CreatedAt,
		UpdatedAt:       dbOrder.UpdatedAt,
		DeletedAt:       dbOrder.DeletedAt,
	}, nil
}
