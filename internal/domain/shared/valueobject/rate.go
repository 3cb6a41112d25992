package valueobject

import (
	"github.com/shopspring/decimal"
)

// ExchangeRate is the number of Bs one USD buys at the time of a record ("tasa").
// A zero or negative rate means the rate is missing.
type ExchangeRate struct {
	value decimal.Decimal
}

// NewExchangeRate wraps a Bs-per-USD rate
func NewExchangeRate(bsPerUSD decimal.Decimal) ExchangeRate {
	return ExchangeRate{value: bsPerUSD}
}

// NoRate is the missing rate
func NoRate() ExchangeRate {
	return ExchangeRate{}
}

// Decimal returns the raw rate
func (r ExchangeRate) Decimal() decimal.Decimal {
	return r.value
}

// IsUsable reports whether the rate can be used for conversion
func (r ExchangeRate) IsUsable() bool {
	return r.value.IsPositive()
}

// String returns the rate, or "missing"
func (r ExchangeRate) String() string {
	if !r.IsUsable() {
		return "missing"
	}
	return r.value.String()
}
