package domain

import (
	"errors"
	"fmt"
)

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map and the transitions table
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func OrderStatuses() []OrderStatus {
	result := make([]OrderStatus, 0, len(validOrderStatuses))
	for status := range validOrderStatuses {
		result = append(result, status)
	}
	return result
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type transition struct {
	from OrderStatus
	to   OrderStatus
}

// transitions lists every legal status change and the roles allowed to trigger it.
// Customers additionally have to own the order.
var transitions = map[transition][]Role{
	{OrderStatusPending, OrderStatusProcessing}:   {RoleAdmin},
	{OrderStatusPending, OrderStatusCancelled}:    {RoleAdmin, RoleCustomer},
	{OrderStatusProcessing, OrderStatusShipped}:   {RoleAdmin},
	{OrderStatusProcessing, OrderStatusCancelled}: {RoleAdmin},
	{OrderStatusShipped, OrderStatusDelivered}:    {RoleAdmin},
	{OrderStatusShipped, OrderStatusCancelled}:    {RoleAdmin},
}

// CheckTransition reports whether actor may move an order owned by ownerID from one status to another.
func CheckTransition(from, to OrderStatus, actor Actor, ownerID string) error {
	roles, ok := transitions[transition{from: from, to: to}]
	if !ok {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	for _, role := range roles {
		if role != actor.Role {
			continue
		}
		if role == RoleCustomer && actor.UserID != ownerID {
			continue
		}
		return nil
	}

	return fmt.Errorf("%s -> %s by %s: %w", from, to, actor.Role, ErrInvalidTransition)
}

// NextStatuses returns the statuses actor may move an order to from the given one.
func NextStatuses(from OrderStatus, actor Actor, ownerID string) []OrderStatus {
	var result []OrderStatus
	for status := range validOrderStatuses {
		if CheckTransition(from, status, actor, ownerID) == nil {
			result = append(result, status)
		}
	}
	return result
}
