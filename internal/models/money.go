// Package models holds the small shared value types used across the format
// parsers.
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount with its currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney builds a Money value.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// NewMoneyFromString parses a decimal amount string into a Money value.
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Add sums two Money values of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add different currencies: %s and %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// String formats the amount with two decimals followed by the currency code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// Dec2 quantizes a decimal to two fractional digits, the resolution of every
// amount carried by these file formats.
func Dec2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Dec4 quantizes a decimal to four fractional digits, used for exchange
// rates.
func Dec4(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}
