package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	SearchOrders(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error)

	InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error)

	// UpdateOrderStatus moves the order to status only if it is still in from.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, cancelReason *string) error

	SoftDeleteOrder(ctx context.Context, orderID uuid.UUID) error

	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}
