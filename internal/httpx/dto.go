package httpx

import (
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/samber/lo"
)

type ItemRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []ItemRequest  `json:"items"`
	ShippingAddress domain.Address `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
	VoucherCode     string         `json:"voucher_code,omitempty"`
}

type QuoteRequest struct {
	Items           []ItemRequest  `json:"items"`
	ShippingAddress domain.Address `json:"shipping_address"`
	VoucherCode     string         `json:"voucher_code,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type TotalsResponse struct {
	Currency       string `json:"currency"`
	Subtotal       string `json:"subtotal"`
	ShippingFee    string `json:"shipping_fee"`
	DiscountAmount string `json:"discount_amount"`
	FinalTotal     string `json:"final_total"`
}

type OrderItemResponse struct {
	VariantID string `json:"variant_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"owner_id"`
	Status          string              `json:"status"`
	Items           []OrderItemResponse `json:"items"`
	ShippingAddress domain.Address      `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	VoucherCode     *string             `json:"voucher_code,omitempty"`
	CancelReason    *string             `json:"cancel_reason,omitempty"`
	Totals          TotalsResponse      `json:"totals"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

type NewArrivalResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Backfilled bool      `json:"backfilled"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapTotalsToResponse(t domain.TotalBreakdown) TotalsResponse {
	return TotalsResponse{
		Currency:       t.FinalTotal.Currency.String(),
		Subtotal:       t.Subtotal.Amount.String(),
		ShippingFee:    t.ShippingFee.Amount.String(),
		DiscountAmount: t.DiscountAmount.Amount.String(),
		FinalTotal:     t.FinalTotal.Amount.String(),
	}
}

func mapOrderToResponse(order domain.Order) OrderResponse {
	return OrderResponse{
		ID:      order.ID.String(),
		OwnerID: order.OwnerID,
		Status:  string(order.Status),
		Items: lo.Map(order.Items, func(item domain.OrderItem, _ int) OrderItemResponse {
			return OrderItemResponse{
				VariantID: item.VariantID.String(),
				ProductID: item.ProductID.String(),
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice.Amount.String(),
				LineTotal: item.LineTotal.Amount.String(),
			}
		}),
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   string(order.PaymentMethod),
		VoucherCode:     order.VoucherCode,
		CancelReason:    order.CancelReason,
		Totals:          mapTotalsToResponse(order.Totals()),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func mapPageToResponse[T, R any](p domain.Page[T], fn func(T) R) PageResponse[R] {
	mapped := domain.MapPage(p, fn)
	return PageResponse[R]{
		Items:      mapped.Items,
		Page:       mapped.Page,
		Limit:      mapped.Limit,
		TotalPages: mapped.TotalPages,
		TotalItems: mapped.TotalItems,
	}
}

func mapNewArrivalToResponse(a domain.NewArrival) NewArrivalResponse {
	return NewArrivalResponse{
		ID:         a.ID.String(),
		Name:       a.Name,
		CreatedAt:  a.CreatedAt,
		Backfilled: a.Backfilled,
	}
}
