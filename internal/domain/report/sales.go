package report

import (
	"sort"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/shopspring/decimal"
)

// SalesSummary is the fold of a set of reconciliations.
// Sales figures come from verified records only; PendingUSD from records still
// awaiting verification. Denied and voided records only show up in the counts.
type SalesSummary struct {
	TotalSalesUSD             decimal.Decimal `json:"total_sales_usd"`
	TotalSalesUSDExclRecharge decimal.Decimal `json:"total_sales_usd_excl_recharge"`
	TotalBs                   decimal.Decimal `json:"total_bs"`
	TotalShortageUSD          decimal.Decimal `json:"total_shortage_usd"`
	TotalOverageUSD           decimal.Decimal `json:"total_overage_usd"`
	TotalVoucherUSD           decimal.Decimal `json:"total_voucher_usd"`
	TotalCashUSD              decimal.Decimal `json:"total_cash_usd"`
	TotalZelleUSD             decimal.Decimal `json:"total_zelle_usd"`
	TotalCashBs               decimal.Decimal `json:"total_cash_bs"`
	TotalMobilePaymentBs      decimal.Decimal `json:"total_mobile_payment_bs"`
	TotalCardBs               decimal.Decimal `json:"total_card_bs"`
	TotalRechargeBs           decimal.Decimal `json:"total_recharge_bs"`
	TotalReturnsBs            decimal.Decimal `json:"total_returns_bs"`
	PendingUSD                decimal.Decimal `json:"pending_usd"`
	VerifiedCount             int             `json:"verified_count"`
	PendingCount              int             `json:"pending_count"`
	DeniedCount               int             `json:"denied_count"`
	VoidedCount               int             `json:"voided_count"`
	RateMissingCount          int             `json:"rate_missing_count"`
	WarningCount              int             `json:"warning_count"`
	CriticalCount             int             `json:"critical_count"`
}

// Merge adds other into s. Every field is a plain sum, so merging is order independent.
func (s SalesSummary) Merge(o SalesSummary) SalesSummary {
	s.TotalSalesUSD = s.TotalSalesUSD.Add(o.TotalSalesUSD)
	s.TotalSalesUSDExclRecharge = s.TotalSalesUSDExclRecharge.Add(o.TotalSalesUSDExclRecharge)
	s.TotalBs = s.TotalBs.Add(o.TotalBs)
	s.TotalShortageUSD = s.TotalShortageUSD.Add(o.TotalShortageUSD)
	s.TotalOverageUSD = s.TotalOverageUSD.Add(o.TotalOverageUSD)
	s.TotalVoucherUSD = s.TotalVoucherUSD.Add(o.TotalVoucherUSD)
	s.TotalCashUSD = s.TotalCashUSD.Add(o.TotalCashUSD)
	s.TotalZelleUSD = s.TotalZelleUSD.Add(o.TotalZelleUSD)
	s.TotalCashBs = s.TotalCashBs.Add(o.TotalCashBs)
	s.TotalMobilePaymentBs = s.TotalMobilePaymentBs.Add(o.TotalMobilePaymentBs)
	s.TotalCardBs = s.TotalCardBs.Add(o.TotalCardBs)
	s.TotalRechargeBs = s.TotalRechargeBs.Add(o.TotalRechargeBs)
	s.TotalReturnsBs = s.TotalReturnsBs.Add(o.TotalReturnsBs)
	s.PendingUSD = s.PendingUSD.Add(o.PendingUSD)
	s.VerifiedCount += o.VerifiedCount
	s.PendingCount += o.PendingCount
	s.DeniedCount += o.DeniedCount
	s.VoidedCount += o.VoidedCount
	s.RateMissingCount += o.RateMissingCount
	s.WarningCount += o.WarningCount
	s.CriticalCount += o.CriticalCount
	return s
}

// Rounded returns a copy with every amount rounded for display
func (s SalesSummary) Rounded() SalesSummary {
	p := valueobject.DisplayPlaces
	s.TotalSalesUSD = s.TotalSalesUSD.Round(p)
	s.TotalSalesUSDExclRecharge = s.TotalSalesUSDExclRecharge.Round(p)
	s.TotalBs = s.TotalBs.Round(p)
	s.TotalShortageUSD = s.TotalShortageUSD.Round(p)
	s.TotalOverageUSD = s.TotalOverageUSD.Round(p)
	s.TotalVoucherUSD = s.TotalVoucherUSD.Round(p)
	s.TotalCashUSD = s.TotalCashUSD.Round(p)
	s.TotalZelleUSD = s.TotalZelleUSD.Round(p)
	s.TotalCashBs = s.TotalCashBs.Round(p)
	s.TotalMobilePaymentBs = s.TotalMobilePaymentBs.Round(p)
	s.TotalCardBs = s.TotalCardBs.Round(p)
	s.TotalRechargeBs = s.TotalRechargeBs.Round(p)
	s.TotalReturnsBs = s.TotalReturnsBs.Round(p)
	s.PendingUSD = s.PendingUSD.Round(p)
	return s
}

// Aggregator folds reconciliations into summaries, grading discrepancies with Thresholds
type Aggregator struct {
	Thresholds till.Thresholds
}

// NewAggregator creates an aggregator with the given discrepancy thresholds
func NewAggregator(th till.Thresholds) Aggregator {
	return Aggregator{Thresholds: th}
}

// Aggregate folds records with the default thresholds
func Aggregate(records []*till.Reconciliation, filter Filter) (SalesSummary, error) {
	return NewAggregator(till.DefaultThresholds()).Aggregate(records, filter)
}

// Aggregate folds the records matching the filter in a single pass.
// It fails only when the filter itself is invalid; record data never aborts it.
func (a Aggregator) Aggregate(records []*till.Reconciliation, filter Filter) (SalesSummary, error) {
	if err := filter.Validate(); err != nil {
		return SalesSummary{}, err
	}
	var s SalesSummary
	for _, r := range records {
		if r == nil || !filter.Matches(r) {
			continue
		}
		s = a.add(s, r)
	}
	return s, nil
}

func (a Aggregator) add(s SalesSummary, r *till.Reconciliation) SalesSummary {
	switch {
	case r.Voided:
		s.VoidedCount++
		return s
	case r.Status == till.StatusDenied:
		s.DeniedCount++
		return s
	case r.Status == till.StatusPending:
		s.PendingCount++
		s.PendingUSD = s.PendingUSD.Add(r.PendingUSD)
		if r.RateMissing {
			s.RateMissingCount++
		}
		return s
	}

	s.VerifiedCount++
	if r.RateMissing {
		s.RateMissingCount++
	}
	s.TotalSalesUSD = s.TotalSalesUSD.Add(r.TotalUSD)
	s.TotalSalesUSDExclRecharge = s.TotalSalesUSDExclRecharge.Add(r.TotalUSDExclRecharge)
	s.TotalBs = s.TotalBs.Add(r.BsSubtotal)
	s.TotalShortageUSD = s.TotalShortageUSD.Add(r.ShortageUSD)
	s.TotalOverageUSD = s.TotalOverageUSD.Add(r.OverageUSD)
	s.TotalVoucherUSD = s.TotalVoucherUSD.Add(r.VoucherUSD)
	s.TotalCashUSD = s.TotalCashUSD.Add(r.CashUSD)
	s.TotalZelleUSD = s.TotalZelleUSD.Add(r.ZelleUSD)
	s.TotalCashBs = s.TotalCashBs.Add(r.CashBs)
	s.TotalMobilePaymentBs = s.TotalMobilePaymentBs.Add(r.MobilePaymentBs)
	s.TotalCardBs = s.TotalCardBs.Add(r.CardBs)
	s.TotalRechargeBs = s.TotalRechargeBs.Add(r.RechargeBs)
	s.TotalReturnsBs = s.TotalReturnsBs.Add(r.ReturnsBs)
	switch a.Thresholds.Classify(r) {
	case till.SeverityWarning:
		s.WarningCount++
	case till.SeverityCritical:
		s.CriticalCount++
	}
	return s
}

// CashierSummary is one cashier's share of an aggregation
type CashierSummary struct {
	CashierID   shared.CashierID `json:"cashier_id"`
	CashierName string           `json:"cashier_name"`
	Summary     SalesSummary     `json:"summary"`
}

// BranchSummary is one branch's share of an aggregation
type BranchSummary struct {
	BranchID shared.BranchID `json:"branch_id"`
	Summary  SalesSummary    `json:"summary"`
}

// GroupByCashier aggregates the matching records per cashier, sorted by cashier id.
// The groups partition the records, so merging them gives Aggregate's result.
func (a Aggregator) GroupByCashier(records []*till.Reconciliation, filter Filter) ([]CashierSummary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	groups := make(map[shared.CashierID]*CashierSummary)
	for _, r := range records {
		if r == nil || !filter.Matches(r) {
			continue
		}
		g, ok := groups[r.CashierID]
		if !ok {
			g = &CashierSummary{CashierID: r.CashierID}
			groups[r.CashierID] = g
		}
		if g.CashierName == "" {
			g.CashierName = r.CashierName
		}
		g.Summary = a.add(g.Summary, r)
	}

	out := make([]CashierSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CashierID < out[j].CashierID })
	return out, nil
}

// GroupByBranch aggregates the matching records per branch, sorted by branch id
func (a Aggregator) GroupByBranch(records []*till.Reconciliation, filter Filter) ([]BranchSummary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	groups := make(map[shared.BranchID]SalesSummary)
	for _, r := range records {
		if r == nil || !filter.Matches(r) {
			continue
		}
		groups[r.BranchID] = a.add(groups[r.BranchID], r)
	}

	out := make([]BranchSummary, 0, len(groups))
	for id, s := range groups {
		out = append(out, BranchSummary{BranchID: id, Summary: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BranchID < out[j].BranchID })
	return out, nil
}
