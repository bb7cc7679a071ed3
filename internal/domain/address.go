package domain

import "strings"

type Address struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province"`
}

func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.Province) == "" {
		return ErrInvalidAddress
	}
	return nil
}

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
)

func ToPaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCOD, PaymentBankTransfer, PaymentCard:
		return PaymentMethod(s), nil
	}
	return "", ErrInvalidPayment
}
