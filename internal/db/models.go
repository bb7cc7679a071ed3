package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uuid.UUID
	OwnerID         string
	Status          string
	ShippingAddress []byte
	PaymentMethod   string
	VoucherCode     *string
	CancelReason    *string
	Currency        string
	Subtotal        decimal.Decimal
	ShippingFee     decimal.Decimal
	DiscountAmount  decimal.Decimal
	FinalTotal      decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

type OrderItem struct {
	OrderID         uuid.UUID
	VariantID       uuid.UUID
	ProductID       uuid.UUID
	Quantity        int32
	UnitPriceAmount decimal.Decimal
	LineTotalAmount decimal.Decimal
	PriceCurrency   string
	CreatedAt       time.Time
}

type Product struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

type ProductVariant struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	Color         string
	Size          string
	PriceAmount   decimal.Decimal
	PriceCurrency string
	Stock         int32
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Voucher struct {
	ID                    uuid.UUID
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
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Outbox struct {
	ID        int64
	EventID   uuid.UUID
	EventType string
	Key       string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}
