// Package events defines the order events written to the outbox and relays them to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/samber/lo"
)

type Item struct {
	VariantID string `json:"variant_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type OrderCreated struct {
	OrderID        string    `json:"order_id"`
	OwnerID        string    `json:"owner_id"`
	Status         string    `json:"status"`
	Currency       string    `json:"currency"`
	Subtotal       string    `json:"subtotal"`
	ShippingFee    string    `json:"shipping_fee"`
	DiscountAmount string    `json:"discount_amount"`
	FinalTotal     string    `json:"final_total"`
	VoucherCode    *string   `json:"voucher_code,omitempty"`
	Items          []Item    `json:"items"`
	CreatedAt      time.Time `json:"created_at"`
}

type StatusChanged struct {
	OrderID   string    `json:"order_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type OrderDeleted struct {
	OrderID   string    `json:"order_id"`
	Hard      bool      `json:"hard"`
	DeletedAt time.Time `json:"deleted_at"`
}

// New wraps payload into an outbox event keyed by key.
func New(eventType, key string, payload any, now time.Time) (domain.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("json.Marshal[%s]: %w", eventType, err)
	}

	return domain.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Key:       key,
		Payload:   data,
		CreatedAt: now.UTC(),
	}, nil
}

func NewOrderCreated(order domain.Order, now time.Time) (domain.Event, error) {
	payload := OrderCreated{
		OrderID:        order.ID.String(),
		OwnerID:        order.OwnerID,
		Status:         string(order.Status),
		Currency:       order.FinalTotal.Currency.String(),
		Subtotal:       order.Subtotal.Amount.String(),
		ShippingFee:    order.ShippingFee.Amount.String(),
		DiscountAmount: order.DiscountAmount.Amount.String(),
		FinalTotal:     order.FinalTotal.Amount.String(),
		VoucherCode:    order.VoucherCode,
		Items: lo.Map(order.Items, func(item domain.OrderItem, _ int) Item {
			return Item{
				VariantID: item.VariantID.String(),
				ProductID: item.ProductID.String(),
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice.Amount.String(),
				LineTotal: item.LineTotal.Amount.String(),
			}
		}),
		CreatedAt: order.CreatedAt,
	}

	return New(domain.EventOrderCreated, order.ID.String(), payload, now)
}

func NewStatusChanged(change domain.StatusChange) (domain.Event, error) {
	payload := StatusChanged{
		OrderID:   change.OrderID.String(),
		From:      string(change.From),
		To:        string(change.To),
		ActorID:   change.ActorID,
		ActorRole: string(change.ActorRole),
		Reason:    change.Reason,
		ChangedAt: change.ChangedAt,
	}

	return New(domain.EventOrderStatusChanged, change.OrderID.String(), payload, change.ChangedAt)
}

func NewOrderDeleted(orderID uuid.UUID, hard bool, now time.Time) (domain.Event, error) {
	payload := OrderDeleted{
		OrderID:   orderID.String(),
		Hard:      hard,
		DeletedAt: now.UTC(),
	}

	return New(domain.EventOrderDeleted, orderID.String(), payload, now)
}
