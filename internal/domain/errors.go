package domain

import "errors"

// ErrorKind classifies a failure so that transports can map it without knowing every sentinel.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindState
	KindBusinessRule
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindBusinessRule:
		return "business_rule"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// ValidationError builds an ad-hoc validation failure, used for malformed input that has no sentinel.
func ValidationError(msg string) error {
	return newError(KindValidation, msg)
}

// KindOf returns the kind of the first *Error found in the chain, KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

var (
	ErrEmptyOrder          = newError(KindValidation, "order has no items")
	ErrInvalidQuantity     = newError(KindValidation, "quantity must be between 1 and 2147483647")
	ErrInvalidAddress      = newError(KindValidation, "shipping address is invalid")
	ErrUnresolvableAddress = newError(KindValidation, "shipping address cannot be mapped to a zone")
	ErrInvalidPayment      = newError(KindValidation, "payment method is invalid")
	ErrInvalidActor        = newError(KindValidation, "actor is invalid")

	ErrForbidden = newError(KindForbidden, "operation requires the admin role")

	ErrOrderNotFound   = newError(KindNotFound, "order not found")
	ErrVoucherNotFound = newError(KindNotFound, "voucher not found")
	ErrVariantNotFound = newError(KindNotFound, "variant not found")

	ErrInvalidTransition = newError(KindState, "invalid status transition")
	ErrInvalidState      = newError(KindState, "order is not in a deletable state")

	ErrVoucherInactive      = newError(KindBusinessRule, "voucher is inactive or outside its validity window")
	ErrVoucherBelowMinimum  = newError(KindBusinessRule, "order value is below the voucher minimum")
	ErrVoucherAboveMaximum  = newError(KindBusinessRule, "order value is above the voucher maximum")
	ErrVoucherUsageExceeded = newError(KindBusinessRule, "voucher usage limit reached")
	ErrOutOfStock           = newError(KindBusinessRule, "variant is out of stock")
)
