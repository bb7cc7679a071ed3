package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func NewMoney(amount decimal.Decimal, cur currency.Unit) Money {
	return Money{Amount: amount, Currency: cur}
}

func ZeroMoney(cur currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: cur}
}

// Round rounds the amount to the minor units of the currency, e.g. 0 digits for VND, 2 for EUR.
func (m Money) Round() Money {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return Money{Amount: m.Amount.Round(int32(scale)), Currency: m.Currency}
}

// RoundDown truncates the amount to the minor units of the currency.
func (m Money) RoundDown() Money {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return Money{Amount: m.Amount.RoundDown(int32(scale)), Currency: m.Currency}
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) SameCurrency(other Money) bool {
	return m.Currency.String() == other.Currency.String()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency.String())
}
