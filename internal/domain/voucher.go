package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Voucher struct {
	ID                    uuid.UUID
	Code                  string
	DiscountPercent       decimal.Decimal
	MinimumOrderValue     decimal.Decimal
	MaximumOrderValue     *decimal.Decimal
	MaximumDiscountAmount *decimal.Decimal
	StartDate             time.Time
	EndDate               time.Time
	IsActive              bool
	UsageLimit            *int
	UsedCount             int
	IsOneTimePerUser      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v Voucher) Validate() error {
	if NormalizeVoucherCode(v.Code) == "" {
		return errors.New("code is empty")
	}

	if v.DiscountPercent.IsNegative() || v.DiscountPercent.GreaterThan(hundred) {
		return errors.New("discount percent must be within [0, 100]")
	}

	if v.MinimumOrderValue.IsNegative() {
		return errors.New("minimum order value is negative")
	}

	if v.MaximumOrderValue != nil && v.MaximumOrderValue.LessThan(v.MinimumOrderValue) {
		return errors.New("maximum order value is below minimum order value")
	}

	if v.MaximumDiscountAmount != nil && v.MaximumDiscountAmount.IsNegative() {
		return errors.New("maximum discount amount is negative")
	}

	if v.EndDate.Before(v.StartDate) {
		return errors.New("end date is before start date")
	}

	if v.UsageLimit != nil && *v.UsageLimit < 0 {
		return errors.New("usage limit is negative")
	}

	return nil
}

// ActiveAt reports whether the voucher is enabled and now is within [StartDate, EndDate].
func (v Voucher) ActiveAt(now time.Time) bool {
	if !v.IsActive {
		return false
	}
	return !now.Before(v.StartDate) && !now.After(v.EndDate)
}

// NormalizeVoucherCode trims and upper-cases codes, they are matched case-insensitively.
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// VoucherUsage is how often a voucher has been consumed, globally and by a single user.
type VoucherUsage struct {
	Total   int
	ForUser int
}

type VoucherRedemption struct {
	VoucherID uuid.UUID
	UserID    string
	OrderID   uuid.UUID
	Discount  decimal.Decimal
	UsedAt    time.Time
}
