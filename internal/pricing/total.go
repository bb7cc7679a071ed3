package pricing

import (
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"golang.org/x/text/currency"
)

// ShippingFeeCalculator resolves the shipping fee of a destination.
type ShippingFeeCalculator interface {
	Fee(addr domain.Address) (domain.Money, error)
}

// AppliedVoucher is a voucher found by code together with its current usage counters.
type AppliedVoucher struct {
	Voucher domain.Voucher
	Usage   domain.VoucherUsage
}

// Quote is the priced form of a set of line items.
type Quote struct {
	Items  []domain.OrderItem
	Totals domain.TotalBreakdown
}

type Calculator struct {
	currency currency.Unit
	shipping ShippingFeeCalculator
	now      func() time.Time
}

type CalculatorOption func(*Calculator)

// WithClock overrides the clock used for voucher validity windows.
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *Calculator) {
		c.now = now
	}
}

func NewCalculator(cur currency.Unit, shipping ShippingFeeCalculator, opts ...CalculatorOption) (*Calculator, error) {
	if shipping == nil {
		return nil, fmt.Errorf("shipping is nil")
	}

	c := &Calculator{
		currency: cur,
		shipping: shipping,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Calculator) Currency() currency.Unit {
	return c.currency
}

// Compute prices the items and composes subtotal, shipping fee and voucher discount.
// voucher is nil when no code was supplied.
func (c *Calculator) Compute(items []domain.OrderItem, addr domain.Address, voucher *AppliedVoucher) (Quote, error) {
	var q Quote

	if len(items) == 0 {
		return q, domain.ErrEmptyOrder
	}

	if err := addr.Validate(); err != nil {
		return q, err
	}

	subtotal := domain.ZeroMoney(c.currency)
	priced := make([]domain.OrderItem, 0, len(items))

	for _, item := range items {
		if !domain.ValidQuantity(item.Quantity) {
			return q, fmt.Errorf("variant[%s]: %w", item.VariantID, domain.ErrInvalidQuantity)
		}

		if item.UnitPrice.Currency.String() != c.currency.String() {
			return q, domain.ValidationError(fmt.Sprintf("variant[%s]: price currency %s differs from %s",
				item.VariantID, item.UnitPrice.Currency, c.currency))
		}

		item.LineTotal = lineTotal(item)
		subtotal.Amount = subtotal.Amount.Add(item.LineTotal.Amount)
		priced = append(priced, item)
	}

	shippingFee, err := c.shipping.Fee(addr)
	if err != nil {
		return q, fmt.Errorf("shipping.Fee: %w", err)
	}

	discount := domain.ZeroMoney(c.currency)
	if voucher != nil {
		discount, err = EvaluateVoucher(voucher.Voucher, subtotal, voucher.Usage, c.now())
		if err != nil {
			return q, fmt.Errorf("voucher[%s]: %w", voucher.Voucher.Code, err)
		}
	}

	final := subtotal.Amount.Add(shippingFee.Amount).Sub(discount.Amount)
	if final.IsNegative() {
		// discount is capped at the subtotal and fees are non-negative
		return q, fmt.Errorf("final total %s is negative", final)
	}

	return Quote{
		Items: priced,
		Totals: domain.TotalBreakdown{
			Subtotal:       subtotal,
			ShippingFee:    shippingFee,
			DiscountAmount: discount,
			FinalTotal:     domain.NewMoney(final, c.currency),
		},
	}, nil
}

func lineTotal(item domain.OrderItem) domain.Money {
	return domain.Money{
		Amount:   item.UnitPrice.Amount.Mul(decimalFromInt(item.Quantity)),
		Currency: item.UnitPrice.Currency,
	}
}
