package domain

import (
	"fmt"
	"math"
	"regexp"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO-4217 style three-letter code.
type Currency string

// PLN is the settlement currency the bank starts with when nothing else is configured.
const PLN Currency = "PLN"

// Validate reports whether c is a well-formed currency code.
func (c Currency) Validate() error {
	if !currencyRe.MatchString(string(c)) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, string(c))
	}
	return nil
}

// Money is an immutable non-negative amount in minor units.
// Every arithmetic result is a fresh value.
type Money struct {
	currency Currency
	amount   int64
}

// NewMoney validates currency and amount.
func NewMoney(currency Currency, amount int64) (Money, error) {
	if err := currency.Validate(); err != nil {
		return Money{}, err
	}
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	return Money{currency: currency, amount: amount}, nil
}

// MustMoney is NewMoney for constants and tests; it panics on invalid input.
func MustMoney(currency Currency, amount int64) Money {
	m, err := NewMoney(currency, amount)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in currency.
func Zero(currency Currency) Money {
	return Money{currency: currency}
}

func (m Money) Currency() Currency { return m.currency }
func (m Money) Amount() int64      { return m.amount }
func (m Money) IsZero() bool       { return m.amount == 0 }

// SameCurrency reports whether m and other are in the same currency.
func (m Money) SameCurrency(other Money) bool {
	return m.currency == other.currency
}

// Add returns m + other. A sum past math.MaxInt64 is rejected.
func (m Money) Add(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", ErrCurrencyMismatch, other.currency, m.currency)
	}
	if other.amount > math.MaxInt64-m.amount {
		return Money{}, fmt.Errorf("%w: %d + %d overflows", ErrInvalidAmount, m.amount, other.amount)
	}
	return Money{currency: m.currency, amount: m.amount + other.amount}, nil
}

// Subtract returns m - other. The result may not go below zero.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.SameCurrency(other) {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrCurrencyMismatch, other.currency, m.currency)
	}
	if m.amount < other.amount {
		return Money{}, fmt.Errorf("%w: %d - %d", ErrNegativeAmount, m.amount, other.amount)
	}
	return Money{currency: m.currency, amount: m.amount - other.amount}, nil
}

// LessThan compares amounts of the same currency.
func (m Money) LessThan(other Money) bool {
	return m.amount < other.amount
}

// String renders "<amount> <currency>", e.g. "1000 PLN".
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.amount, m.currency)
}
