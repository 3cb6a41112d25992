package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/service"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExpenseStatus represents the verification state of an expense ("gasto")
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusVerified ExpenseStatus = "verified"
	ExpenseStatusDenied   ExpenseStatus = "denied"
)

// IsValid checks if the status is a valid ExpenseStatus
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusVerified, ExpenseStatusDenied:
		return true
	}
	return false
}

// String returns the string representation of ExpenseStatus
func (s ExpenseStatus) String() string {
	return string(s)
}

// ParseExpenseStatus folds an upstream label; unknown labels are pending
func ParseExpenseStatus(label string) ExpenseStatus {
	switch shared.FoldLabel(label) {
	case "verified", "verificado", "aprobado", "approved":
		return ExpenseStatusVerified
	case "denied", "denegado", "rechazado", "rejected":
		return ExpenseStatusDenied
	}
	return ExpenseStatusPending
}

// Expense is a branch expense paid in Bs or USD
type Expense struct {
	shared.BaseAggregateRoot
	BranchID     shared.BranchID
	Date         valueobject.Day
	Currency     valueobject.Currency
	ExchangeRate valueobject.ExchangeRate
	Amount       decimal.Decimal
	Status       ExpenseStatus
	Category     string
	Description  string
	DecidedBy    string
	DecidedAt    *time.Time
}

// NewExpense creates a pending expense
func NewExpense(branchID shared.BranchID, date valueobject.Day, amount valueobject.Money, rate valueobject.ExchangeRate, description string) (*Expense, error) {
	if branchID.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "branch is required")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "date is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "expense amount must be positive")
	}
	if amount.Currency() == valueobject.Bs && !rate.IsUsable() {
		return nil, shared.NewDomainError(shared.CodeRateMissing, "exchange rate is required for Bs expenses")
	}
	return &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BranchID:          branchID,
		Date:              date,
		Currency:          amount.Currency(),
		ExchangeRate:      rate,
		Amount:            amount.Amount(),
		Status:            ExpenseStatusPending,
		Description:       strings.TrimSpace(description),
	}, nil
}

// Money returns the expense amount in its own currency
func (e *Expense) Money() valueobject.Money {
	return valueobject.MustMoney(e.Amount, e.Currency)
}

// USDEquivalent converts the amount to USD; a Bs expense without rate is worth 0
func (e *Expense) USDEquivalent() service.Conversion {
	return service.ToUSD(e.Amount, e.Currency, e.ExchangeRate)
}

// Verify approves a pending expense; verifying twice is a no-op
func (e *Expense) Verify(by string) error {
	return e.decide(ExpenseStatusVerified, by)
}

// Deny rejects a pending expense; denying twice is a no-op
func (e *Expense) Deny(by string) error {
	return e.decide(ExpenseStatusDenied, by)
}

func (e *Expense) decide(to ExpenseStatus, by string) error {
	if e.Status == to {
		return nil
	}
	if e.Status != ExpenseStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot change expense in %s status", e.Status))
	}
	if strings.TrimSpace(by) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Verifier is required")
	}
	now := time.Now()
	e.Status = to
	e.DecidedBy = by
	e.DecidedAt = &now
	e.Touch()
	return nil
}
