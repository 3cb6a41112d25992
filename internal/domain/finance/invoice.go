package finance

import (
	"fmt"
	"strings"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/service"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the state of an accounts-payable invoice ("cuenta por pagar")
type InvoiceStatus string

const (
	InvoiceStatusActive InvoiceStatus = "active"
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusVoid   InvoiceStatus = "void"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusActive, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// ParseInvoiceStatus folds an upstream label into an InvoiceStatus
func ParseInvoiceStatus(label string) (InvoiceStatus, error) {
	switch shared.FoldLabel(label) {
	case "active", "activa", "activo", "pendiente", "pending":
		return InvoiceStatusActive, nil
	case "paid", "pagada", "pagado":
		return InvoiceStatusPaid, nil
	case "void", "anulada", "anulado", "voided":
		return InvoiceStatusVoid, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown invoice status %q", label))
}

// Invoice is a provider invoice owed by a branch
type Invoice struct {
	shared.BaseAggregateRoot
	BranchID             shared.BranchID
	Provider             string
	Number               string
	OriginalAmount       decimal.Decimal
	OriginalCurrency     valueobject.Currency
	OriginalExchangeRate valueobject.ExchangeRate
	Status               InvoiceStatus
	IssueDate            valueobject.Day
	DueDate              valueobject.Day
}

// NewInvoice creates an active invoice
func NewInvoice(branchID shared.BranchID, provider string, amount valueobject.Money, rate valueobject.ExchangeRate, issueDate valueobject.Day) (*Invoice, error) {
	if branchID.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "branch is required")
	}
	if strings.TrimSpace(provider) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "provider is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "invoice amount must be positive")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "issue date is required")
	}
	return &Invoice{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		BranchID:             branchID,
		Provider:             strings.TrimSpace(provider),
		OriginalAmount:       amount.Amount(),
		OriginalCurrency:     amount.Currency(),
		OriginalExchangeRate: rate,
		Status:               InvoiceStatusActive,
		IssueDate:            issueDate,
	}, nil
}

// OriginalAmountUSD normalizes the invoiced amount to USD at the invoice's own rate
func (i *Invoice) OriginalAmountUSD() service.Conversion {
	return service.ToUSD(i.OriginalAmount, i.OriginalCurrency, i.OriginalExchangeRate)
}

// MarkPaid closes an active invoice
func (i *Invoice) MarkPaid() error {
	if i.Status == InvoiceStatusPaid {
		return nil
	}
	if i.Status != InvoiceStatusActive {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot pay invoice in %s status", i.Status))
	}
	i.Status = InvoiceStatusPaid
	i.Touch()
	return nil
}

// Void cancels an invoice that has not been paid
func (i *Invoice) Void() error {
	if i.Status == InvoiceStatusVoid {
		return nil
	}
	if i.Status == InvoiceStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot void a paid invoice")
	}
	i.Status = InvoiceStatusVoid
	i.Touch()
	return nil
}
