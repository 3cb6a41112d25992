package finance

import (
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/service"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus tells whether a payment settles its invoice
type PaymentStatus string

const (
	PaymentStatusPartial PaymentStatus = "partial" // abono
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPartial || s == PaymentStatusPaid
}

// Payment ("pago") is money paid to a provider, optionally against an invoice
type Payment struct {
	shared.BaseAggregateRoot
	InvoiceID             *uuid.UUID
	BranchID              shared.BranchID
	Provider              string
	Amount                decimal.Decimal
	Currency              valueobject.Currency
	ExchangeRateAtPayment valueobject.ExchangeRate
	Status                PaymentStatus
	Date                  valueobject.Day
	Reference             string
}

// NewPayment records a payment. invoiceID is nil for payments not tied to an invoice.
func NewPayment(invoiceID *uuid.UUID, branchID shared.BranchID, amount valueobject.Money, rate valueobject.ExchangeRate, status PaymentStatus, date valueobject.Day) (*Payment, error) {
	if branchID.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "branch is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "payment amount must be positive")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "payment status must be partial or paid")
	}
	if amount.Currency() == valueobject.Bs && !rate.IsUsable() {
		return nil, shared.NewDomainError(shared.CodeRateMissing, "exchange rate is required for Bs payments")
	}
	return &Payment{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		InvoiceID:             invoiceID,
		BranchID:              branchID,
		Amount:                amount.Amount(),
		Currency:              amount.Currency(),
		ExchangeRateAtPayment: rate,
		Status:                status,
		Date:                  date,
	}, nil
}

// AmountUSD converts the payment at the rate in effect when it was made
func (p *Payment) AmountUSD() service.Conversion {
	return service.ToUSD(p.Amount, p.Currency, p.ExchangeRateAtPayment)
}

// IsLinked reports whether the payment targets an invoice
func (p *Payment) IsLinked() bool {
	return p.InvoiceID != nil && *p.InvoiceID != uuid.Nil
}
