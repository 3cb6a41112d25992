package finance

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Query selects records by branch and date. Empty branch means all branches.
type Query struct {
	BranchID shared.BranchID
	Range    valueobject.DateRange
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByID finds an expense by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// Find returns expenses of the branch dated inside the range
	Find(ctx context.Context, q Query) ([]*Expense, error)

	// Save creates or updates an expense
	Save(ctx context.Context, e *Expense) error
}

// InvoiceRepository defines the interface for accounts-payable invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// Find returns invoices of the branch issued inside the range
	Find(ctx context.Context, q Query) ([]*Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, inv *Invoice) error
}

// PaymentRepository defines the interface for provider payment persistence
type PaymentRepository interface {
	// Find returns payments of the branch dated inside the range
	Find(ctx context.Context, q Query) ([]*Payment, error)

	// FindByInvoice returns every payment made against an invoice
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)

	// Save creates or updates a payment
	Save(ctx context.Context, p *Payment) error
}
