package finance

import (
	"sort"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExposureResult is the USD value of a set of invoices
type ExposureResult struct {
	AmountUSD        decimal.Decimal `json:"amount_usd"`
	InvoiceCount     int             `json:"invoice_count"`
	RateMissingCount int             `json:"rate_missing_count"`
}

func branchMatches(filter, branch shared.BranchID) bool {
	return filter.IsZero() || filter == branch
}

// ExposureByStatus sums the original USD amount of every invoice in the given
// status for the branch (empty branch means all), each invoice counted once.
// When dates bounds are set the invoice issue date must fall inside them.
func ExposureByStatus(invoices []*Invoice, branch shared.BranchID, status InvoiceStatus, dates valueobject.DateRange) (ExposureResult, error) {
	if err := dates.Validate(); err != nil {
		return ExposureResult{}, err
	}
	if !status.IsValid() {
		return ExposureResult{}, shared.NewDomainError(shared.CodeInvalidInput, "unknown invoice status "+status.String())
	}

	var res ExposureResult
	seen := make(map[uuid.UUID]struct{}, len(invoices))
	for _, inv := range invoices {
		if inv == nil || inv.Status != status || !branchMatches(branch, inv.BranchID) || !dates.Contains(inv.IssueDate) {
			continue
		}
		if _, dup := seen[inv.ID]; dup && inv.ID != uuid.Nil {
			continue
		}
		seen[inv.ID] = struct{}{}

		usd := inv.OriginalAmountUSD()
		res.AmountUSD = res.AmountUSD.Add(usd.Amount)
		res.InvoiceCount++
		if usd.RateMissing {
			res.RateMissingCount++
		}
	}
	return res, nil
}

// ActiveExposureUSD is the outstanding USD exposure of a branch
func ActiveExposureUSD(invoices []*Invoice, branch shared.BranchID) ExposureResult {
	res, _ := ExposureByStatus(invoices, branch, InvoiceStatusActive, valueobject.DateRange{})
	return res
}

// PaidExposureUSD is the USD value of invoices paid off, by issue date
func PaidExposureUSD(invoices []*Invoice, branch shared.BranchID, dates valueobject.DateRange) (ExposureResult, error) {
	return ExposureByStatus(invoices, branch, InvoiceStatusPaid, dates)
}

// InvoicePaymentGroup gathers every payment made against one invoice
type InvoicePaymentGroup struct {
	InvoiceID           uuid.UUID       `json:"invoice_id"`
	BranchID            shared.BranchID `json:"branch_id"`
	Provider            string          `json:"provider"`
	Status              InvoiceStatus   `json:"status"`
	OriginalAmountUSD   decimal.Decimal `json:"original_amount_usd"`
	PagosGeneralUSD     decimal.Decimal `json:"pagos_general_usd"`
	DiferencialPagosUSD decimal.Decimal `json:"diferencial_pagos_usd"`
	PaymentCount        int             `json:"payment_count"`
	issueDate           valueobject.Day
}

// PaymentsSummary totals payments by invoice.
// FacturadoUSD counts each invoice's original amount once, however many payments it has.
type PaymentsSummary struct {
	Groups              []InvoicePaymentGroup `json:"groups"`
	FacturadoUSD        decimal.Decimal       `json:"facturado_usd"`
	PagosGeneralUSD     decimal.Decimal       `json:"pagos_general_usd"`
	DiferencialPagosUSD decimal.Decimal       `json:"diferencial_pagos_usd"`
	UnlinkedPaymentsUSD decimal.Decimal       `json:"unlinked_payments_usd"`
	UnlinkedCount       int                   `json:"unlinked_count"`
	RateMissingCount    int                   `json:"rate_missing_count"`
}

// PaymentsTotals groups the branch's payments by invoice. Each payment is
// converted at its own rate; a positive differential means more USD was paid
// than invoiced. Payments without an invoice, or whose invoice is unknown,
// are reported as unlinked.
func PaymentsTotals(invoices []*Invoice, payments []*Payment, branch shared.BranchID) PaymentsSummary {
	byID := make(map[uuid.UUID]*Invoice, len(invoices))
	for _, inv := range invoices {
		if inv != nil {
			byID[inv.ID] = inv
		}
	}

	var sum PaymentsSummary
	groups := make(map[uuid.UUID]*InvoicePaymentGroup)
	for _, p := range payments {
		if p == nil {
			continue
		}
		var inv *Invoice
		if p.IsLinked() {
			inv = byID[*p.InvoiceID]
		}
		owner := p.BranchID
		if owner.IsZero() && inv != nil {
			owner = inv.BranchID
		}
		if !branchMatches(branch, owner) {
			continue
		}

		usd := p.AmountUSD()
		if usd.RateMissing {
			sum.RateMissingCount++
		}
		if inv == nil {
			sum.UnlinkedPaymentsUSD = sum.UnlinkedPaymentsUSD.Add(usd.Amount)
			sum.UnlinkedCount++
			continue
		}

		g, ok := groups[inv.ID]
		if !ok {
			original := inv.OriginalAmountUSD()
			if original.RateMissing {
				sum.RateMissingCount++
			}
			g = &InvoicePaymentGroup{
				InvoiceID:         inv.ID,
				BranchID:          inv.BranchID,
				Provider:          inv.Provider,
				Status:            inv.Status,
				OriginalAmountUSD: original.Amount,
				issueDate:         inv.IssueDate,
			}
			groups[inv.ID] = g
			sum.FacturadoUSD = sum.FacturadoUSD.Add(original.Amount)
		}
		g.PagosGeneralUSD = g.PagosGeneralUSD.Add(usd.Amount)
		g.PaymentCount++
	}

	sum.Groups = make([]InvoicePaymentGroup, 0, len(groups))
	for _, g := range groups {
		g.DiferencialPagosUSD = g.PagosGeneralUSD.Sub(g.OriginalAmountUSD)
		sum.PagosGeneralUSD = sum.PagosGeneralUSD.Add(g.PagosGeneralUSD)
		sum.Groups = append(sum.Groups, *g)
	}
	sum.DiferencialPagosUSD = sum.PagosGeneralUSD.Sub(sum.FacturadoUSD)
	sort.Slice(sum.Groups, func(i, j int) bool {
		a, b := sum.Groups[i], sum.Groups[j]
		if a.issueDate != b.issueDate {
			return a.issueDate < b.issueDate
		}
		return a.InvoiceID.String() < b.InvoiceID.String()
	})
	return sum
}

// Rounded returns a copy with every amount rounded for display
func (s PaymentsSummary) Rounded() PaymentsSummary {
	p := valueobject.DisplayPlaces
	s.FacturadoUSD = s.FacturadoUSD.Round(p)
	s.PagosGeneralUSD = s.PagosGeneralUSD.Round(p)
	s.DiferencialPagosUSD = s.DiferencialPagosUSD.Round(p)
	s.UnlinkedPaymentsUSD = s.UnlinkedPaymentsUSD.Round(p)
	groups := make([]InvoicePaymentGroup, len(s.Groups))
	for i, g := range s.Groups {
		g.OriginalAmountUSD = g.OriginalAmountUSD.Round(p)
		g.PagosGeneralUSD = g.PagosGeneralUSD.Round(p)
		g.DiferencialPagosUSD = g.DiferencialPagosUSD.Round(p)
		groups[i] = g
	}
	s.Groups = groups
	return s
}

// Merge adds o's counts and amounts into r
func (r ExposureResult) Merge(o ExposureResult) ExposureResult {
	r.AmountUSD = r.AmountUSD.Add(o.AmountUSD)
	r.InvoiceCount += o.InvoiceCount
	r.RateMissingCount += o.RateMissingCount
	return r
}
