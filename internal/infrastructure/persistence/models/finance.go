package models

import (
	"time"

	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseModel is the persistence model for a branch expense
type ExpenseModel struct {
	AggregateModel
	BranchID     string          `gorm:"type:varchar(64);not null;index:idx_expense_branch_date,priority:1"`
	Date         string          `gorm:"type:varchar(10);not null;index:idx_expense_branch_date,priority:2"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status       string          `gorm:"type:varchar(20);not null;index"`
	Category     string          `gorm:"type:varchar(100)"`
	Description  string          `gorm:"type:varchar(500)"`
	DecidedBy    string          `gorm:"type:varchar(100)"`
	DecidedAt    *time.Time
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BranchID:          shared.BranchID(m.BranchID),
		Date:              valueobject.Day(m.Date),
		Currency:          valueobject.Currency(m.Currency),
		ExchangeRate:      valueobject.NewExchangeRate(m.ExchangeRate),
		Amount:            m.Amount,
		Status:            finance.ExpenseStatus(m.Status),
		Category:          m.Category,
		Description:       m.Description,
		DecidedBy:         m.DecidedBy,
		DecidedAt:         m.DecidedAt,
	}
}

// FromDomain populates the model from a domain Expense
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.BranchID = string(e.BranchID)
	m.Date = e.Date.String()
	m.Currency = string(e.Currency)
	m.ExchangeRate = e.ExchangeRate.Decimal()
	m.Amount = e.Amount
	m.Status = string(e.Status)
	m.Category = e.Category
	m.Description = e.Description
	m.DecidedBy = e.DecidedBy
	m.DecidedAt = e.DecidedAt
}

// InvoiceModel is the persistence model for a provider invoice
type InvoiceModel struct {
	AggregateModel
	BranchID             string          `gorm:"type:varchar(64);not null;index:idx_invoice_branch_status,priority:1"`
	Provider             string          `gorm:"type:varchar(200);not null"`
	Number               string          `gorm:"type:varchar(100)"`
	OriginalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OriginalCurrency     string          `gorm:"type:varchar(3);not null"`
	OriginalExchangeRate decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status               string          `gorm:"type:varchar(20);not null;index:idx_invoice_branch_status,priority:2"`
	IssueDate            string          `gorm:"type:varchar(10);not null;index"`
	DueDate              string          `gorm:"type:varchar(10)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	return &finance.Invoice{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		BranchID:             shared.BranchID(m.BranchID),
		Provider:             m.Provider,
		Number:               m.Number,
		OriginalAmount:       m.OriginalAmount,
		OriginalCurrency:     valueobject.Currency(m.OriginalCurrency),
		OriginalExchangeRate: valueobject.NewExchangeRate(m.OriginalExchangeRate),
		Status:               finance.InvoiceStatus(m.Status),
		IssueDate:            valueobject.Day(m.IssueDate),
		DueDate:              valueobject.Day(m.DueDate),
	}
}

// FromDomain populates the model from a domain Invoice
func (m *InvoiceModel) FromDomain(i *finance.Invoice) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.BranchID = string(i.BranchID)
	m.Provider = i.Provider
	m.Number = i.Number
	m.OriginalAmount = i.OriginalAmount
	m.OriginalCurrency = string(i.OriginalCurrency)
	m.OriginalExchangeRate = i.OriginalExchangeRate.Decimal()
	m.Status = string(i.Status)
	m.IssueDate = i.IssueDate.String()
	m.DueDate = i.DueDate.String()
}

// PaymentModel is the persistence model for a provider payment
type PaymentModel struct {
	AggregateModel
	InvoiceID             *uuid.UUID      `gorm:"type:uuid;index"`
	BranchID              string          `gorm:"type:varchar(64);not null;index:idx_payment_branch_date,priority:1"`
	Provider              string          `gorm:"type:varchar(200)"`
	Amount                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency              string          `gorm:"type:varchar(3);not null"`
	ExchangeRateAtPayment decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status                string          `gorm:"type:varchar(20);not null"`
	Date                  string          `gorm:"type:varchar(10);index:idx_payment_branch_date,priority:2"`
	Reference             string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseAggregateRoot:     m.ToDomainAggregateRoot(),
		InvoiceID:             m.InvoiceID,
		BranchID:              shared.BranchID(m.BranchID),
		Provider:              m.Provider,
		Amount:                m.Amount,
		Currency:              valueobject.Currency(m.Currency),
		ExchangeRateAtPayment: valueobject.NewExchangeRate(m.ExchangeRateAtPayment),
		Status:                finance.PaymentStatus(m.Status),
		Date:                  valueobject.Day(m.Date),
		Reference:             m.Reference,
	}
}

// FromDomain populates the model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.InvoiceID = p.InvoiceID
	m.BranchID = string(p.BranchID)
	m.Provider = p.Provider
	m.Amount = p.Amount
	m.Currency = string(p.Currency)
	m.ExchangeRateAtPayment = p.ExchangeRateAtPayment.Decimal()
	m.Status = string(p.Status)
	m.Date = p.Date.String()
	m.Reference = p.Reference
}
