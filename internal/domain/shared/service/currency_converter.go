package service

import (
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Conversion is the result of converting an amount between Bs and USD.
// RateMissing is set when a Bs term had no usable rate and was degraded to zero;
// it is an observation for logs and metrics, never a failure.
type Conversion struct {
	Amount      decimal.Decimal
	RateMissing bool
}

// ToUSD converts amount to USD at rate (Bs per USD).
// USD passes through; Bs is divided by the rate, or becomes 0 when the rate is missing.
// Zero amounts never count as a missing rate.
func ToUSD(amount decimal.Decimal, currency valueobject.Currency, rate valueobject.ExchangeRate) Conversion {
	switch currency {
	case valueobject.USD:
		return Conversion{Amount: amount}
	case valueobject.Bs:
		if amount.IsZero() {
			return Conversion{Amount: decimal.Zero}
		}
		if !rate.IsUsable() {
			return Conversion{Amount: decimal.Zero, RateMissing: true}
		}
		return Conversion{Amount: amount.Div(rate.Decimal())}
	}
	return Conversion{Amount: decimal.Zero, RateMissing: !amount.IsZero()}
}

// ToBs converts amount to Bs at rate; the mirror image of ToUSD
func ToBs(amount decimal.Decimal, currency valueobject.Currency, rate valueobject.ExchangeRate) Conversion {
	switch currency {
	case valueobject.Bs:
		return Conversion{Amount: amount}
	case valueobject.USD:
		if amount.IsZero() {
			return Conversion{Amount: decimal.Zero}
		}
		if !rate.IsUsable() {
			return Conversion{Amount: decimal.Zero, RateMissing: true}
		}
		return Conversion{Amount: amount.Mul(rate.Decimal())}
	}
	return Conversion{Amount: decimal.Zero, RateMissing: !amount.IsZero()}
}

// Convert converts m into target currency.
// The second result reports whether a missing rate zeroed the value.
func Convert(m valueobject.Money, target valueobject.Currency, rate valueobject.ExchangeRate) (valueobject.Money, bool) {
	var c Conversion
	switch target {
	case valueobject.USD:
		c = ToUSD(m.Amount(), m.Currency(), rate)
	case valueobject.Bs:
		c = ToBs(m.Amount(), m.Currency(), rate)
	default:
		return valueobject.Zero(target), true
	}
	return valueobject.MustMoney(c.Amount, target), c.RateMissing
}

// ToUSDMoney is Convert to USD
func ToUSDMoney(m valueobject.Money, rate valueobject.ExchangeRate) (valueobject.Money, bool) {
	return Convert(m, valueobject.USD, rate)
}

// ToBsMoney is Convert to Bs
func ToBsMoney(m valueobject.Money, rate valueobject.ExchangeRate) (valueobject.Money, bool) {
	return Convert(m, valueobject.Bs, rate)
}
