package backoffice

import (
	"context"
	"sort"

	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/report"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BranchDashboard is one branch's figures for the dashboard window
type BranchDashboard struct {
	BranchID       shared.BranchID        `json:"branch_id"`
	BranchName     string                 `json:"branch_name"`
	Sales          report.SalesSummary    `json:"sales"`
	Expenses       report.ExpenseSummary  `json:"expenses"`
	ActiveExposure finance.ExposureResult `json:"active_exposure"`
	NetUSD         decimal.Decimal        `json:"net_usd"`
}

// Dashboard combines sales, expenses and payables per branch with the bank position.
// NetUSD is verified sales minus verified expenses.
type Dashboard struct {
	Branches       []BranchDashboard      `json:"branches"`
	Sales          report.SalesSummary    `json:"sales"`
	Expenses       report.ExpenseSummary  `json:"expenses"`
	ActiveExposure finance.ExposureResult `json:"active_exposure"`
	NetUSD         decimal.Decimal        `json:"net_usd"`
	Bank           BankPosition           `json:"bank"`
}

// Dashboard aggregates every branch in parallel and values the bank accounts
// at rate. Without branchIDs it covers the configured branches, or the
// branches found in the window when none are configured. Each branch writes
// only its own slot, so the totals do not depend on completion order.
func (s *Service) Dashboard(ctx context.Context, filter report.Filter, branchIDs []shared.BranchID, rate valueobject.ExchangeRate) (Dashboard, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "dashboard")
	defer span.End()

	if err := filter.Validate(); err != nil {
		return Dashboard{}, fail(span, err)
	}
	branches, err := s.dashboardBranches(ctx, filter, branchIDs)
	if err != nil {
		return Dashboard{}, fail(span, err)
	}
	telemetry.SetAttributes(span, "branch_count", len(branches))

	out := Dashboard{Branches: make([]BranchDashboard, len(branches))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	g.Go(func() error {
		pos, err := s.bankPosition(gctx, rate)
		if err != nil {
			return err
		}
		out.Bank = pos
		return nil
	})
	for i, branchID := range branches {
		g.Go(func() error {
			bd, err := s.branchDashboard(gctx, filter.WithBranch(branchID))
			if err != nil {
				return err
			}
			out.Branches[i] = bd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, fail(span, err)
	}

	for i, b := range out.Branches {
		out.Sales = out.Sales.Merge(b.Sales)
		out.Expenses = out.Expenses.Merge(b.Expenses)
		out.ActiveExposure = out.ActiveExposure.Merge(b.ActiveExposure)
		out.Branches[i].Sales = b.Sales.Rounded()
		out.Branches[i].Expenses = b.Expenses.Rounded()
		out.Branches[i].ActiveExposure.AmountUSD = b.ActiveExposure.AmountUSD.Round(valueobject.DisplayPlaces)
		out.Branches[i].NetUSD = b.NetUSD.Round(valueobject.DisplayPlaces)
	}
	out.NetUSD = out.Sales.TotalSalesUSD.Sub(out.Expenses.VerifiedUSD).Round(valueobject.DisplayPlaces)

	s.observeSales(ctx, out.Sales)
	s.metrics.RecordRateMissing(ctx, "expense", out.Expenses.RateMissingCount)
	s.metrics.RecordRateMissing(ctx, "invoice", out.ActiveExposure.RateMissingCount)
	if out.Bank.InvariantViolations > 0 {
		s.log(ctx).Error("dashboard found bank accounts out of balance",
			zap.Int("accounts", out.Bank.InvariantViolations))
	}

	out.Sales = out.Sales.Rounded()
	out.Expenses = out.Expenses.Rounded()
	out.ActiveExposure.AmountUSD = out.ActiveExposure.AmountUSD.Round(valueobject.DisplayPlaces)
	return out, nil
}

func (s *Service) branchDashboard(ctx context.Context, filter report.Filter) (BranchDashboard, error) {
	sales, _, err := s.aggregate(ctx, filter)
	if err != nil {
		return BranchDashboard{}, err
	}
	expenses, err := s.expenseSummary(ctx, filter)
	if err != nil {
		return BranchDashboard{}, err
	}
	exposure, err := s.invoiceExposure(ctx, filter.BranchID, finance.InvoiceStatusActive, valueobject.DateRange{})
	if err != nil {
		return BranchDashboard{}, err
	}
	return BranchDashboard{
		BranchID:       filter.BranchID,
		BranchName:     s.opts.Branches.Name(filter.BranchID),
		Sales:          sales,
		Expenses:       expenses,
		ActiveExposure: exposure,
		NetUSD:         sales.TotalSalesUSD.Sub(expenses.VerifiedUSD),
	}, nil
}

func (s *Service) dashboardBranches(ctx context.Context, filter report.Filter, requested []shared.BranchID) ([]shared.BranchID, error) {
	seen := make(map[shared.BranchID]struct{})
	add := func(id shared.BranchID) {
		if !id.IsZero() {
			seen[id] = struct{}{}
		}
	}

	switch {
	case len(requested) > 0:
		for _, id := range requested {
			add(id)
		}
	case !filter.BranchID.IsZero():
		add(filter.BranchID)
	case s.opts.Branches.Len() > 0:
		for _, id := range s.opts.Branches.IDs() {
			add(id)
		}
	default:
		records, err := s.repos.Reconciliations.Find(ctx, filter.TillQuery())
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			add(r.BranchID)
		}
	}

	out := make([]shared.BranchID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
