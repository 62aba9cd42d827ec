package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DepositPercentage is the share of the base price collected upfront.
const DepositPercentage = 10

// DefaultCurrency is the currency every price is quoted in.
const DefaultCurrency = "USD"

const day = 24 * time.Hour

var (
	hundred        = decimal.NewFromInt(100)
	depositPercent = decimal.NewFromInt(DepositPercentage)
)

// PriceBreakdown is the quote for renting a vehicle over a period.
type PriceBreakdown struct {
	DurationDays  int64
	DailyRate     decimal.Decimal
	BasePrice     decimal.Decimal
	DepositAmount decimal.Decimal
	TotalPrice    decimal.Decimal
	Currency      string
}

// DepositCents is the deposit in minor units, the amount a payment intent must carry.
func (p PriceBreakdown) DepositCents() int64 {
	return ToCents(p.DepositAmount)
}

// PricingCalculator quotes rentals. It holds no state besides its clock.
type PricingCalculator struct {
	currency string
	now      func() time.Time
}

func NewPricingCalculator(currency string, now func() time.Time) *PricingCalculator {
	if currency == "" {
		currency = DefaultCurrency
	}
	if now == nil {
		now = time.Now
	}
	return &PricingCalculator{currency: currency, now: now}
}

// ValidatePeriod rejects a period that ends before it starts or starts in the past.
// "Past" is evaluated against the clock at call time.
func (c *PricingCalculator) ValidatePeriod(start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	if start.Before(c.now()) {
		return fmt.Errorf("%w: start date cannot be in the past", ErrValidation)
	}
	return nil
}

// Quote prices [start, end) at dailyRate. Every started day is charged in full.
func (c *PricingCalculator) Quote(dailyRate decimal.Decimal, start, end time.Time) (*PriceBreakdown, error) {
	if dailyRate.IsNegative() {
		return nil, fmt.Errorf("%w: daily rate cannot be negative", ErrValidation)
	}
	if err := c.ValidatePeriod(start, end); err != nil {
		return nil, err
	}

	days := DurationDays(start, end)
	base := dailyRate.Mul(decimal.NewFromInt(days)).Round(2)
	deposit := base.Mul(depositPercent).Div(hundred).Round(2)

	return &PriceBreakdown{
		DurationDays:  days,
		DailyRate:     dailyRate,
		BasePrice:     base,
		DepositAmount: deposit,
		TotalPrice:    base,
		Currency:      c.currency,
	}, nil
}

// DurationDays is ceil((end - start) / 24h).
func DurationDays(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	days := int64(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

// ToCents converts a 2dp amount to minor units, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
