package usecase_test

import (
	"testing"
	"time"

	"vehicle-rental/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationDays(t *testing.T) {
	start := testNow.Add(days(1))

	tests := []struct {
		name string
		end  time.Time
		want int64
	}{
		{"exact single day", start.Add(days(1)), 1},
		{"exact three days", start.Add(days(3)), 3},
		{"partial day rounds up", start.Add(days(2) + time.Hour), 3},
		{"one minute is a day", start.Add(time.Minute), 1},
		{"empty period", start, 0},
		{"reversed period", start.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.DurationDays(start, tt.end))
		})
	}
}

func TestPricingCalculator_Quote(t *testing.T) {
	calc := usecase.NewPricingCalculator("", fixedClock)
	start := testNow.Add(days(1))

	t.Run("Three days at 50", func(t *testing.T) {
		quote, err := calc.Quote(decimal.RequireFromString("50.00"), start, start.Add(days(3)))
		require.NoError(t, err)

		assert.Equal(t, int64(3), quote.DurationDays)
		assert.Equal(t, "150.00", quote.BasePrice.StringFixed(2))
		assert.Equal(t, "150.00", quote.TotalPrice.StringFixed(2))
		assert.Equal(t, "15.00", quote.DepositAmount.StringFixed(2))
		assert.Equal(t, int64(1500), quote.DepositCents())
		assert.Equal(t, usecase.DefaultCurrency, quote.Currency)
	})

	t.Run("Deposit rounds to cents", func(t *testing.T) {
		quote, err := calc.Quote(decimal.RequireFromString("33.33"), start, start.Add(days(1)))
		require.NoError(t, err)

		assert.Equal(t, "3.33", quote.DepositAmount.StringFixed(2))
		assert.True(t, quote.DepositAmount.LessThanOrEqual(quote.TotalPrice))
	})

	t.Run("Zero rate is free", func(t *testing.T) {
		quote, err := calc.Quote(decimal.Zero, start, start.Add(days(2)))
		require.NoError(t, err)
		assert.True(t, quote.TotalPrice.IsZero())
		assert.True(t, quote.DepositAmount.IsZero())
	})

	t.Run("Negative rate", func(t *testing.T) {
		_, err := calc.Quote(decimal.NewFromInt(-1), start, start.Add(days(1)))
		assert.ErrorIs(t, err, usecase.ErrValidation)
	})

	t.Run("End before start", func(t *testing.T) {
		_, err := calc.Quote(decimal.NewFromInt(10), start, start.Add(-time.Hour))
		assert.ErrorIs(t, err, usecase.ErrValidation)
	})

	t.Run("End equals start", func(t *testing.T) {
		_, err := calc.Quote(decimal.NewFromInt(10), start, start)
		assert.ErrorIs(t, err, usecase.ErrValidation)
	})

	t.Run("Start in the past", func(t *testing.T) {
		_, err := calc.Quote(decimal.NewFromInt(10), testNow.Add(-time.Minute), testNow.Add(days(1)))
		assert.ErrorIs(t, err, usecase.ErrValidation)
	})
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(1500), usecase.ToCents(decimal.RequireFromString("15")))
	assert.Equal(t, int64(1), usecase.ToCents(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(333), usecase.ToCents(decimal.RequireFromString("3.33")))
}
