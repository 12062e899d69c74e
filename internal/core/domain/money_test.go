package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		currency Currency
		amount   int64
		wantErr  error
	}{
		{"zero", PLN, 0, nil},
		{"positive", PLN, 1000, nil},
		{"other currency", "EUR", 1, nil},
		{"negative", PLN, -1, ErrNegativeAmount},
		{"lower case currency", "pln", 1, ErrInvalidCurrency},
		{"too long currency", "PLNX", 1, ErrInvalidCurrency},
		{"empty currency", "", 1, ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoney(tt.currency, tt.amount)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.currency, m.Currency())
			assert.Equal(t, tt.amount, m.Amount())
		})
	}
}

func TestMustMoney_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMoney(PLN, -5) })
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney(PLN, 700)
	b := MustMoney(PLN, 300)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), sum.Amount())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, int64(400), diff.Amount())

	// operands are untouched
	assert.Equal(t, int64(700), a.Amount())
	assert.Equal(t, int64(300), b.Amount())

	_, err = b.Subtract(a)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	zero, err := a.Subtract(a)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestMoney_AddOverflow(t *testing.T) {
	ceiling := MustMoney(PLN, math.MaxInt64)

	sum, err := ceiling.Add(Zero(PLN))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), sum.Amount())

	_, err = ceiling.Add(MustMoney(PLN, 1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = MustMoney(PLN, 1000).Add(ceiling)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// the receiver keeps its value
	assert.Equal(t, int64(math.MaxInt64), ceiling.Amount())
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	pln := MustMoney(PLN, 10)
	eur := MustMoney("EUR", 10)

	_, err := pln.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = pln.Subtract(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	assert.False(t, pln.SameCurrency(eur))
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "1000 PLN", MustMoney(PLN, 1000).String())
	assert.Equal(t, "0 EUR", Zero("EUR").String())
}

func TestMoney_LessThan(t *testing.T) {
	assert.True(t, MustMoney(PLN, 1).LessThan(MustMoney(PLN, 2)))
	assert.False(t, MustMoney(PLN, 2).LessThan(MustMoney(PLN, 2)))
}
