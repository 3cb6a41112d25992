package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency is one of the two currencies the back office books in
type Currency string

const (
	Bs  Currency = "Bs"  // Venezuelan Bolívar
	USD Currency = "USD" // US Dollar
)

// DisplayPlaces is the number of decimals money is rounded to when it leaves the engine
const DisplayPlaces int32 = 2

// IsValid reports whether c is a supported currency
func (c Currency) IsValid() bool {
	return c == Bs || c == USD
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// ParseCurrency maps the labels seen in upstream records to a Currency.
// Unknown labels return an error.
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))) {
	case "bs", "bs.s", "ves", "vef", "bolivares", "bolívares":
		return Bs, nil
	case "usd", "$", "us$", "dolares", "dólares":
		return USD, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency %q", s))
}

// Money is a value object representing a monetary amount in one currency.
// It is immutable; all operations return new Money instances.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money in the given currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency %q", currency))
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is NewMoney for currencies known at compile time
func MustMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NewUSD creates Money in USD
func NewUSD(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: USD}
}

// NewBs creates Money in Bs
func NewBs(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: Bs}
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of both amounts. Mixing currencies is an error.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns the difference. Mixing currencies is an error.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply returns a new Money multiplied by the given factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Percent returns pct percent of m (pct is expressed 0-100)
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(pct).Div(decimal.NewFromInt(100)), currency: m.currency}
}

// Round returns a new Money rounded to the specified decimal places
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

// Rounded rounds to DisplayPlaces
func (m Money) Rounded() Money {
	return m.Round(DisplayPlaces)
}

// Equals returns true if both Money values have the same amount and currency
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThanOrEqual compares two amounts of the same currency
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// LessThan compares two amounts of the same currency
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return shared.NewDomainError(shared.CodeCurrencyMismatch,
			fmt.Sprintf("cannot combine %s with %s without conversion", m.currency, other.currency))
	}
	return nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(DisplayPlaces), m.currency)
}

// MarshalJSON writes {"amount": <number>, "currency": "Bs"|"USD"}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency Currency    `json:"currency"`
	}{
		Amount:   json.Number(m.amount.String()),
		Currency: m.currency,
	})
}

// UnmarshalJSON accepts the amount as a JSON number or a numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   json.RawMessage `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	raw := strings.Trim(strings.TrimSpace(string(v.Amount)), `"`)
	if raw == "" || raw == "null" {
		raw = "0"
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	cur, err := ParseCurrency(v.Currency)
	if err != nil {
		return err
	}
	m.amount = amount
	m.currency = cur
	return nil
}

// Value implements driver.Valuer; only the amount is stored, currency lives in its own column
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner. The currency is left as already set (USD when unset).
func (m *Money) Scan(value any) error {
	var amount decimal.Decimal
	if err := amount.Scan(value); err != nil {
		if value != nil {
			return fmt.Errorf("cannot scan %T into Money: %w", value, err)
		}
		amount = decimal.Zero
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = USD
	}
	return nil
}
