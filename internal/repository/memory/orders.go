package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/samber/lo"
)

type orderRepository struct {
	v *view
}

func (r *orderRepository) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	err := r.v.apply(func(st *state) error {
		order, ok := st.orders[orderID]
		if !ok || order.DeletedAt != nil {
			return domain.ErrOrderNotFound
		}
		o = copyOrder(order)
		return nil
	})

	return o, err
}

func (r *orderRepository) SearchOrders(_ context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	var p domain.Page[domain.Order]

	if err := filter.Validate(); err != nil {
		return p, fmt.Errorf("filter.Validate: %w", err)
	}

	page = page.Normalize()

	err := r.v.apply(func(st *state) error {
		var matched []domain.Order
		for _, order := range st.orders {
			if order.DeletedAt == nil && matchOrder(filter, order) {
				matched = append(matched, order)
			}
		}

		slices.SortFunc(matched, func(a, b domain.Order) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.ID.String(), b.ID.String())
		})

		total := len(matched)
		start := min(page.Offset(), total)
		end := min(start+page.Limit, total)

		items := lo.Map(matched[start:end], func(o domain.Order, _ int) domain.Order { return copyOrder(o) })
		p = domain.NewPage(items, page, total)
		return nil
	})

	return p, err
}

func (r *orderRepository) InsertOrder(_ context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, domain.ErrEmptyOrder
	}

	order = copyOrder(order)
	order.ID = uuid.New()
	order.Status = domain.OrderStatusPending
	order.CreatedAt = r.v.now()
	order.UpdatedAt = order.CreatedAt
	order.DeletedAt = nil

	err := r.v.apply(func(st *state) error {
		st.orders[order.ID] = order
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return order.ID, nil
}

func (r *orderRepository) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, from, to domain.OrderStatus, cancelReason *string) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	if to == "" {
		return fmt.Errorf("status is empty")
	}

	return r.v.apply(func(st *state) error {
		order, ok := st.orders[orderID]
		if !ok || order.DeletedAt != nil {
			return domain.ErrOrderNotFound
		}

		if order.Status != from {
			return fmt.Errorf("status is %s, not %s: %w", order.Status, from, domain.ErrInvalidTransition)
		}

		order.Status = to
		if cancelReason != nil {
			order.CancelReason = lo.ToPtr(*cancelReason)
		}
		order.UpdatedAt = r.v.now()
		st.orders[orderID] = order

		return nil
	})
}

func (r *orderRepository) SoftDeleteOrder(_ context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	return r.v.apply(func(st *state) error {
		order, ok := st.orders[orderID]
		if !ok || order.DeletedAt != nil {
			return domain.ErrOrderNotFound
		}

		now := r.v.now()
		order.DeletedAt = &now
		order.UpdatedAt = now
		st.orders[orderID] = order

		return nil
	})
}

func (r *orderRepository) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	return r.v.apply(func(st *state) error {
		if _, ok := st.orders[orderID]; !ok {
			return domain.ErrOrderNotFound
		}
		delete(st.orders, orderID)
		return nil
	})
}

func matchOrder(f domain.OrderFilter, o domain.Order) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, o.ID) {
		return false
	}
	if len(f.OwnerIDs) > 0 && !slices.Contains(f.OwnerIDs, o.OwnerID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
		return false
	}
	if f.CreatedAt != nil && !inRange(*f.CreatedAt, o.CreatedAt) {
		return false
	}
	if f.UpdatedAt != nil && !inRange(*f.UpdatedAt, o.UpdatedAt) {
		return false
	}
	return true
}

func inRange(r domain.TimeRange, t time.Time) bool {
	if r.After != nil && t.Compare(*r.After) <= 0 {
		return false
	}
	if r.Before != nil && t.Compare(*r.Before) >= 0 {
		return false
	}
	return true
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	return o
}
