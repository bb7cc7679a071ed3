package pricing

import (
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EvaluateVoucher decides whether v applies to an order with the given subtotal and returns the
// discount. The discount is min(subtotal * percent / 100, cap), never more than the subtotal.
// The percentage is rounded half-up to minor units; a cap or subtotal finer than minor units is
// rounded down, so the discount never exceeds either. On failure the returned discount is zero.
func EvaluateVoucher(v domain.Voucher, subtotal domain.Money, usage domain.VoucherUsage, now time.Time) (domain.Money, error) {
	zero := domain.ZeroMoney(subtotal.Currency)

	if !v.ActiveAt(now) {
		return zero, domain.ErrVoucherInactive
	}

	if subtotal.Amount.LessThan(v.MinimumOrderValue) {
		return zero, domain.ErrVoucherBelowMinimum
	}

	if v.MaximumOrderValue != nil && subtotal.Amount.GreaterThan(*v.MaximumOrderValue) {
		return zero, domain.ErrVoucherAboveMaximum
	}

	if v.UsageLimit != nil && usage.Total >= *v.UsageLimit {
		return zero, domain.ErrVoucherUsageExceeded
	}

	if v.IsOneTimePerUser && usage.ForUser > 0 {
		return zero, domain.ErrVoucherUsageExceeded
	}

	discount := domain.NewMoney(subtotal.Amount.Mul(v.DiscountPercent).Div(hundred), subtotal.Currency).Round().Amount

	if v.MaximumDiscountAmount != nil {
		discount = decimal.Min(discount, *v.MaximumDiscountAmount)
	}
	discount = decimal.Min(discount, subtotal.Amount)

	return domain.NewMoney(discount, subtotal.Currency).RoundDown(), nil
}

func decimalFromInt(i int) decimal.Decimal {
	return decimal.NewFromInt(int64(i))
}
