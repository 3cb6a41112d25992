package bank

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/service"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateType is the aggregate name used on events
const AggregateType = "BankAccount"

// BookingPlaces is the precision amounts are booked at on the ledger
const BookingPlaces int32 = 2

// OpeningConcept is the concept of the movement that carries an opening balance
const OpeningConcept = "opening balance"

var hundred = decimal.NewFromInt(100)

// MovementType is the kind of ledger movement
type MovementType string

const (
	MovementDeposit    MovementType = "deposit"
	MovementTransfer   MovementType = "transfer"
	MovementCheque     MovementType = "cheque"
	MovementWithdrawal MovementType = "withdrawal"
)

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementDeposit, MovementTransfer, MovementCheque, MovementWithdrawal:
		return true
	}
	return false
}

// IsOutflow reports whether the movement takes money out of the account
func (t MovementType) IsOutflow() bool {
	return t == MovementTransfer || t == MovementCheque || t == MovementWithdrawal
}

// ParseMovementType folds an upstream label ("deposito", "cheque", "retiro"...)
func ParseMovementType(label string) (MovementType, error) {
	switch shared.FoldLabel(label) {
	case "deposit", "deposito":
		return MovementDeposit, nil
	case "transfer", "transferencia":
		return MovementTransfer, nil
	case "cheque", "check":
		return MovementCheque, nil
	case "withdrawal", "retiro":
		return MovementWithdrawal, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown movement type %q", label))
}

// Movement is an immutable ledger entry. Amount is the gross amount in the
// movement's currency; AccountAmount, FeeAmount and NetAmount are in the
// account's currency. Only NetAmount (deposits) or AccountAmount (outflows)
// touches the balance.
type Movement struct {
	ID               uuid.UUID
	AccountID        uuid.UUID
	Type             MovementType
	Amount           decimal.Decimal
	Currency         valueobject.Currency
	ExchangeRateUsed valueobject.ExchangeRate
	AccountAmount    decimal.Decimal
	FeePercent       decimal.Decimal
	FeeAmount        decimal.Decimal
	NetAmount        decimal.Decimal
	USDEquivalent    decimal.Decimal
	RateMissing      bool
	BalanceAfter     decimal.Decimal
	Concept          string
	Reference        string
	IdempotencyKey   string
	CreatedAt        time.Time
}

// Effect is the signed change the movement made to the balance
func (m Movement) Effect() decimal.Decimal {
	if m.Type.IsOutflow() {
		return m.AccountAmount.Neg()
	}
	return m.NetAmount
}

// MovementCommand asks the ledger to apply a movement.
// An empty Currency means the account's currency. FeePercent overrides the
// account's deposit fee when set.
type MovementCommand struct {
	Type           MovementType
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	ExchangeRate   valueobject.ExchangeRate
	FeePercent     *decimal.Decimal
	Concept        string
	Reference      string
	IdempotencyKey string
}

// Account is a bank account whose balance only changes through movements
type Account struct {
	shared.BaseAggregateRoot
	Name       string
	Bank       string
	Currency   valueobject.Currency
	Balance    decimal.Decimal
	FeePercent decimal.Decimal
	Movements  []Movement
}

// NewAccount creates an account. A non-zero opening balance is booked as a
// fee-free deposit so the balance stays recomputable from movements.
func NewAccount(name, bankName string, currency valueobject.Currency, feePercent, opening decimal.Decimal) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "account name is required")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency %q", currency))
	}
	if err := checkFee(feePercent); err != nil {
		return nil, err
	}
	if opening.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "opening balance cannot be negative")
	}

	a := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Bank:              strings.TrimSpace(bankName),
		Currency:          currency,
		FeePercent:        feePercent,
	}
	if opening.IsPositive() {
		zero := decimal.Zero
		if _, err := a.Apply(MovementCommand{
			Type:       MovementDeposit,
			Amount:     opening,
			FeePercent: &zero,
			Concept:    OpeningConcept,
		}, time.Now()); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func checkFee(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("fee percentage %s is outside 0-100", pct))
	}
	return nil
}

// BalanceMoney returns the balance as Money
func (a *Account) BalanceMoney() valueobject.Money {
	return valueobject.MustMoney(a.Balance, a.Currency)
}

// HasMovementKey reports whether a movement with the idempotency key was already booked
func (a *Account) HasMovementKey(key string) bool {
	if key == "" {
		return false
	}
	for _, m := range a.Movements {
		if m.IdempotencyKey == key {
			return true
		}
	}
	return false
}

// Apply validates and books a movement. On error the account is unchanged.
func (a *Account) Apply(cmd MovementCommand, at time.Time) (Movement, error) {
	if !cmd.Type.IsValid() {
		return Movement{}, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown movement type %q", cmd.Type))
	}
	if !cmd.Amount.IsPositive() {
		return Movement{}, shared.NewDomainError(shared.CodeInvalidInput, "movement amount must be positive")
	}
	if a.HasMovementKey(cmd.IdempotencyKey) {
		return Movement{}, shared.NewDomainError(shared.CodeDuplicateMovement,
			fmt.Sprintf("movement %q was already applied", cmd.IdempotencyKey))
	}
	currency := cmd.Currency
	if currency == "" {
		currency = a.Currency
	}
	if !currency.IsValid() {
		return Movement{}, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency %q", currency))
	}

	if currency == a.Currency && !cmd.Amount.Equal(cmd.Amount.Round(BookingPlaces)) {
		return Movement{}, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("movement amount %s has more than %d decimal places", cmd.Amount, BookingPlaces))
	}
	exact, err := a.toAccountCurrency(cmd.Amount, currency, cmd.ExchangeRate)
	if err != nil {
		return Movement{}, err
	}
	gross := exact.Round(BookingPlaces)
	if !gross.IsPositive() {
		return Movement{}, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("movement amount %s %s is below %s %s", cmd.Amount, currency, decimal.New(1, -BookingPlaces), a.Currency))
	}

	m := Movement{
		ID:               uuid.New(),
		AccountID:        a.ID,
		Type:             cmd.Type,
		Amount:           cmd.Amount,
		Currency:         currency,
		ExchangeRateUsed: cmd.ExchangeRate,
		AccountAmount:    gross,
		FeePercent:       decimal.Zero,
		FeeAmount:        decimal.Zero,
		NetAmount:        gross,
		Concept:          strings.TrimSpace(cmd.Concept),
		Reference:        strings.TrimSpace(cmd.Reference),
		IdempotencyKey:   cmd.IdempotencyKey,
		CreatedAt:        at,
	}

	if cmd.Type == MovementDeposit {
		fee := a.FeePercent
		if cmd.FeePercent != nil {
			fee = *cmd.FeePercent
		}
		if err := checkFee(fee); err != nil {
			return Movement{}, err
		}
		m.FeePercent = fee
		m.NetAmount = gross.Mul(hundred.Sub(fee)).Div(hundred).Round(BookingPlaces)
		m.FeeAmount = gross.Sub(m.NetAmount)
	} else if a.Balance.LessThan(exact) {
		return Movement{}, shared.NewDomainError(shared.CodeInsufficientFunds,
			fmt.Sprintf("balance %s %s is less than %s %s", a.Balance.StringFixed(2), a.Currency, exact, a.Currency))
	}

	usd := service.ToUSD(m.NetAmount, a.Currency, cmd.ExchangeRate)
	m.USDEquivalent = usd.Amount
	m.RateMissing = usd.RateMissing

	a.Balance = a.Balance.Add(m.Effect())
	m.BalanceAfter = a.Balance
	a.Movements = append(a.Movements, m)
	a.Touch()
	a.AddDomainEvent(NewMovementAppliedEvent(a, m))
	return m, nil
}

// toAccountCurrency converts a movement amount without rounding it; a
// cross-currency movement without a usable rate is rejected rather than booked as zero.
func (a *Account) toAccountCurrency(amount decimal.Decimal, currency valueobject.Currency, rate valueobject.ExchangeRate) (decimal.Decimal, error) {
	if currency == a.Currency {
		return amount, nil
	}
	if !rate.IsUsable() {
		return decimal.Zero, shared.NewDomainError(shared.CodeRateMissing,
			fmt.Sprintf("exchange rate is required to book %s on a %s account", currency, a.Currency))
	}
	m, _ := service.Convert(valueobject.MustMoney(amount, currency), a.Currency, rate)
	return m.Amount(), nil
}

// Recompute rebuilds the balance from the movements:
// Σ deposit net amounts − Σ outflow amounts.
func (a *Account) Recompute() decimal.Decimal {
	total := decimal.Zero
	for _, m := range a.Movements {
		total = total.Add(m.Effect())
	}
	return total
}

// VerifyInvariant checks that the running balance equals the recomputed one
// and that no movement left the balance negative.
func (a *Account) VerifyInvariant() error {
	running := decimal.Zero
	for _, m := range a.Movements {
		running = running.Add(m.Effect())
		if running.IsNegative() {
			return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("movement %s left the balance negative", m.ID))
		}
		if !running.Equal(m.BalanceAfter) {
			return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("movement %s records balance %s, expected %s", m.ID, m.BalanceAfter, running))
		}
	}
	if !running.Equal(a.Balance) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("balance %s does not match movements total %s", a.Balance, running))
	}
	return nil
}

// USDValue values the balance in USD at rate; Bs accounts without a rate are worth 0
func (a *Account) USDValue(rate valueobject.ExchangeRate) service.Conversion {
	return service.ToUSD(a.Balance, a.Currency, rate)
}
