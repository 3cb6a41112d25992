package backoffice

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordExpenseCommand records a branch expense
type RecordExpenseCommand struct {
	BranchID     shared.BranchID
	Date         valueobject.Day
	Amount       valueobject.Money
	ExchangeRate valueobject.ExchangeRate
	Category     string
	Description  string
}

// RecordInvoiceCommand records a provider invoice
type RecordInvoiceCommand struct {
	BranchID     shared.BranchID
	Provider     string
	Number       string
	Amount       valueobject.Money
	ExchangeRate valueobject.ExchangeRate
	IssueDate    valueobject.Day
	DueDate      valueobject.Day
}

// RecordPaymentCommand records a provider payment, optionally against an invoice
type RecordPaymentCommand struct {
	InvoiceID    *uuid.UUID
	BranchID     shared.BranchID
	Provider     string
	Amount       valueobject.Money
	ExchangeRate valueobject.ExchangeRate
	Status       finance.PaymentStatus
	Date         valueobject.Day
	Reference    string
}

// RecordExpense stores a pending expense
func (s *Service) RecordExpense(ctx context.Context, cmd RecordExpenseCommand) (*finance.Expense, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "record_expense",
		telemetry.AttrBranchID, string(cmd.BranchID),
	)
	defer span.End()

	e, err := finance.NewExpense(cmd.BranchID, cmd.Date, cmd.Amount, cmd.ExchangeRate, cmd.Description)
	if err != nil {
		return nil, fail(span, err)
	}
	e.Category = cmd.Category
	if err := s.repos.Expenses.Save(ctx, e); err != nil {
		return nil, fail(span, err)
	}
	s.log(ctx).Info("expense recorded",
		zap.String("id", e.ID.String()),
		zap.String("amount", e.Money().String()),
	)
	return e, nil
}

// VerifyExpense approves a pending expense
func (s *Service) VerifyExpense(ctx context.Context, id uuid.UUID, by string) (*finance.Expense, error) {
	return s.decideExpense(ctx, "verify_expense", id, func(e *finance.Expense) error { return e.Verify(by) })
}

// DenyExpense rejects a pending expense
func (s *Service) DenyExpense(ctx context.Context, id uuid.UUID, by string) (*finance.Expense, error) {
	return s.decideExpense(ctx, "deny_expense", id, func(e *finance.Expense) error { return e.Deny(by) })
}

func (s *Service) decideExpense(ctx context.Context, method string, id uuid.UUID, apply func(*finance.Expense) error) (*finance.Expense, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, method)
	defer span.End()

	e, err := s.repos.Expenses.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	version := e.Version
	if err := apply(e); err != nil {
		return nil, fail(span, err)
	}
	if e.Version == version {
		return e, nil
	}
	if err := s.repos.Expenses.Save(ctx, e); err != nil {
		return nil, fail(span, err)
	}
	telemetry.SetAttributes(span, telemetry.AttrStatus, e.Status.String())
	return e, nil
}

// RecordInvoice stores an active provider invoice
func (s *Service) RecordInvoice(ctx context.Context, cmd RecordInvoiceCommand) (*finance.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "record_invoice",
		telemetry.AttrBranchID, string(cmd.BranchID),
	)
	defer span.End()

	inv, err := finance.NewInvoice(cmd.BranchID, cmd.Provider, cmd.Amount, cmd.ExchangeRate, cmd.IssueDate)
	if err != nil {
		return nil, fail(span, err)
	}
	inv.Number = cmd.Number
	inv.DueDate = cmd.DueDate
	if err := s.repos.Invoices.Save(ctx, inv); err != nil {
		return nil, fail(span, err)
	}
	if inv.OriginalAmountUSD().RateMissing {
		s.metrics.RecordRateMissing(ctx, "invoice", 1)
		s.log(ctx).Warn("invoice recorded without a usable exchange rate",
			zap.String("id", inv.ID.String()))
	}
	s.log(ctx).Info("invoice recorded",
		zap.String("id", inv.ID.String()),
		zap.String("provider", inv.Provider),
	)
	return inv, nil
}

// VoidInvoice cancels an unpaid invoice
func (s *Service) VoidInvoice(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "void_invoice")
	defer span.End()

	inv, err := s.repos.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	version := inv.Version
	if err := inv.Void(); err != nil {
		return nil, fail(span, err)
	}
	if inv.Version == version {
		return inv, nil
	}
	if err := s.repos.Invoices.Save(ctx, inv); err != nil {
		return nil, fail(span, err)
	}
	return inv, nil
}

// RecordPayment stores a provider payment. A payment against an invoice must
// name an existing, non-void invoice; a "paid" payment closes it. The invoice
// is saved first; a concurrent void rejects the payment before it is stored.
func (s *Service) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*finance.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "record_payment",
		telemetry.AttrBranchID, string(cmd.BranchID),
	)
	defer span.End()

	var inv *finance.Invoice
	if cmd.InvoiceID != nil && *cmd.InvoiceID != uuid.Nil {
		found, err := s.repos.Invoices.FindByID(ctx, *cmd.InvoiceID)
		if err != nil {
			return nil, fail(span, err)
		}
		if found.Status == finance.InvoiceStatusVoid {
			return nil, fail(span, shared.NewDomainError(shared.CodeInvalidState, "Cannot pay a void invoice"))
		}
		inv = found
		if cmd.BranchID.IsZero() {
			cmd.BranchID = inv.BranchID
		}
		if cmd.Provider == "" {
			cmd.Provider = inv.Provider
		}
	}

	p, err := finance.NewPayment(cmd.InvoiceID, cmd.BranchID, cmd.Amount, cmd.ExchangeRate, cmd.Status, cmd.Date)
	if err != nil {
		return nil, fail(span, err)
	}
	p.Provider = cmd.Provider
	p.Reference = cmd.Reference

	if inv != nil && p.Status == finance.PaymentStatusPaid && inv.Status == finance.InvoiceStatusActive {
		if err := inv.MarkPaid(); err != nil {
			return nil, fail(span, err)
		}
		if err := s.repos.Invoices.Save(ctx, inv); err != nil {
			return nil, fail(span, err)
		}
	}
	if err := s.repos.Payments.Save(ctx, p); err != nil {
		return nil, fail(span, err)
	}
	s.log(ctx).Info("payment recorded",
		zap.String("id", p.ID.String()),
		zap.Bool("linked", p.IsLinked()),
		zap.String("amount_usd", p.AmountUSD().Amount.StringFixed(2)),
	)
	return p, nil
}

// InvoiceExposure sums the original USD amount of the branch's invoices in
// status, each invoice once. An empty branch means every branch.
func (s *Service) InvoiceExposure(ctx context.Context, branchID shared.BranchID, status finance.InvoiceStatus, dates valueobject.DateRange) (finance.ExposureResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "invoice_exposure",
		telemetry.AttrBranchID, string(branchID),
		telemetry.AttrStatus, string(status),
	)
	defer span.End()

	res, err := s.invoiceExposure(ctx, branchID, status, dates)
	if err != nil {
		return finance.ExposureResult{}, fail(span, err)
	}
	telemetry.SetAttributes(span,
		telemetry.AttrRecordCount, res.InvoiceCount,
		telemetry.AttrRateMissing, res.RateMissingCount,
	)
	s.metrics.RecordRateMissing(ctx, "invoice", res.RateMissingCount)
	res.AmountUSD = res.AmountUSD.Round(valueobject.DisplayPlaces)
	return res, nil
}

func (s *Service) invoiceExposure(ctx context.Context, branchID shared.BranchID, status finance.InvoiceStatus, dates valueobject.DateRange) (finance.ExposureResult, error) {
	if err := dates.Validate(); err != nil {
		return finance.ExposureResult{}, err
	}
	invoices, err := s.repos.Invoices.Find(ctx, finance.Query{BranchID: branchID, Range: dates})
	if err != nil {
		return finance.ExposureResult{}, err
	}
	return finance.ExposureByStatus(invoices, branchID, status, dates)
}

// PaymentsTotals groups the branch's provider payments by invoice. Invoices
// of every branch are loaded so a payment is matched whichever branch issued
// the invoice.
func (s *Service) PaymentsTotals(ctx context.Context, branchID shared.BranchID) (finance.PaymentsSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "payments_totals",
		telemetry.AttrBranchID, string(branchID),
	)
	defer span.End()

	invoices, err := s.repos.Invoices.Find(ctx, finance.Query{})
	if err != nil {
		return finance.PaymentsSummary{}, fail(span, err)
	}
	payments, err := s.repos.Payments.Find(ctx, finance.Query{})
	if err != nil {
		return finance.PaymentsSummary{}, fail(span, err)
	}

	sum := finance.PaymentsTotals(invoices, payments, branchID)
	telemetry.SetAttributes(span,
		telemetry.AttrRecordCount, len(payments),
		telemetry.AttrRateMissing, sum.RateMissingCount,
	)
	s.metrics.RecordRateMissing(ctx, "payment", sum.RateMissingCount)
	if sum.UnlinkedCount > 0 {
		s.log(ctx).Debug("payments without a known invoice",
			zap.Int("count", sum.UnlinkedCount))
	}
	return sum.Rounded(), nil
}
