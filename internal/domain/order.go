package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID              uuid.UUID
	OwnerID         string
	Items           []OrderItem
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	Status          OrderStatus
	VoucherCode     *string
	CancelReason    *string

	Subtotal       Money
	ShippingFee    Money
	DiscountAmount Money
	FinalTotal     Money

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// OrderItem is embedded in its order and is not addressable on its own.
type OrderItem struct {
	VariantID uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice Money
	LineTotal Money
}

// TotalBreakdown keeps FinalTotal = Subtotal + ShippingFee - DiscountAmount.
type TotalBreakdown struct {
	Subtotal       Money
	ShippingFee    Money
	DiscountAmount Money
	FinalTotal     Money
}

func (o Order) Totals() TotalBreakdown {
	return TotalBreakdown{
		Subtotal:       o.Subtotal,
		ShippingFee:    o.ShippingFee,
		DiscountAmount: o.DiscountAmount,
		FinalTotal:     o.FinalTotal,
	}
}

func (o *Order) ApplyTotals(t TotalBreakdown) {
	o.Subtotal = t.Subtotal
	o.ShippingFee = t.ShippingFee
	o.DiscountAmount = t.DiscountAmount
	o.FinalTotal = t.FinalTotal
}

// StockRequests returns the per-variant quantities held by the order, merging duplicate variants.
func (o Order) StockRequests() []StockRequest {
	return MergeStockRequests(o.Items)
}

// MaxQuantity is the largest quantity a single order line or stock change may carry.
const MaxQuantity = math.MaxInt32

func ValidQuantity(quantity int) bool {
	return quantity > 0 && quantity <= MaxQuantity
}

func MergeStockRequests(items []OrderItem) []StockRequest {
	index := make(map[uuid.UUID]int, len(items))
	result := make([]StockRequest, 0, len(items))

	for _, item := range items {
		if i, ok := index[item.VariantID]; ok {
			result[i].Quantity += item.Quantity
			continue
		}
		index[item.VariantID] = len(result)
		result = append(result, StockRequest{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	return result
}
