package backoffice

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/report"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Aggregate folds the reconciliations matching filter into a sales summary.
// Per-record anomalies are counted in the summary, only an invalid filter or a
// failed read aborts it.
func (s *Service) Aggregate(ctx context.Context, filter report.Filter) (report.SalesSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "aggregate",
		telemetry.AttrBranchID, string(filter.BranchID),
		telemetry.AttrCashierID, string(filter.CashierID),
	)
	defer span.End()

	sum, n, err := s.aggregate(ctx, filter)
	if err != nil {
		return report.SalesSummary{}, fail(span, err)
	}
	telemetry.SetAttributes(span,
		telemetry.AttrRecordCount, n,
		telemetry.AttrRateMissing, sum.RateMissingCount,
	)
	s.observeSales(ctx, sum)
	return sum.Rounded(), nil
}

func (s *Service) aggregate(ctx context.Context, filter report.Filter) (report.SalesSummary, int, error) {
	if err := filter.Validate(); err != nil {
		return report.SalesSummary{}, 0, err
	}
	records, err := s.repos.Reconciliations.Find(ctx, filter.TillQuery())
	if err != nil {
		return report.SalesSummary{}, 0, err
	}
	sum, err := s.agg.Aggregate(records, filter)
	return sum, len(records), err
}

func (s *Service) observeSales(ctx context.Context, sum report.SalesSummary) {
	s.metrics.RecordRateMissing(ctx, "reconciliation", sum.RateMissingCount)
	s.metrics.RecordDiscrepancies(ctx, sum.WarningCount, sum.CriticalCount)
	if sum.RateMissingCount > 0 {
		s.log(ctx).Warn("reconciliations aggregated without a usable exchange rate",
			zap.Int("count", sum.RateMissingCount))
	}
	if sum.CriticalCount > 0 {
		s.log(ctx).Warn("critical till discrepancies",
			zap.Int("critical", sum.CriticalCount),
			zap.Int("warning", sum.WarningCount))
	}
}

// CashierBreakdown aggregates the matching reconciliations per cashier
func (s *Service) CashierBreakdown(ctx context.Context, filter report.Filter) ([]report.CashierSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "cashier_breakdown",
		telemetry.AttrBranchID, string(filter.BranchID),
	)
	defer span.End()

	if err := filter.Validate(); err != nil {
		return nil, fail(span, err)
	}
	records, err := s.repos.Reconciliations.Find(ctx, filter.TillQuery())
	if err != nil {
		return nil, fail(span, err)
	}
	groups, err := s.agg.GroupByCashier(records, filter)
	if err != nil {
		return nil, fail(span, err)
	}

	total := report.SalesSummary{}
	for i := range groups {
		if name, ok := s.opts.Cashiers.Lookup(groups[i].CashierID); ok && groups[i].CashierName == "" {
			groups[i].CashierName = name
		}
		total = total.Merge(groups[i].Summary)
		groups[i].Summary = groups[i].Summary.Rounded()
	}
	telemetry.SetAttributes(span, telemetry.AttrRecordCount, len(records))
	s.observeSales(ctx, total)
	return groups, nil
}

// ExpenseSummary totals the expenses matching filter by verification state
func (s *Service) ExpenseSummary(ctx context.Context, filter report.Filter) (report.ExpenseSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "expense_summary",
		telemetry.AttrBranchID, string(filter.BranchID),
	)
	defer span.End()

	sum, err := s.expenseSummary(ctx, filter)
	if err != nil {
		return report.ExpenseSummary{}, fail(span, err)
	}
	s.metrics.RecordRateMissing(ctx, "expense", sum.RateMissingCount)
	return sum.Rounded(), nil
}

func (s *Service) expenseSummary(ctx context.Context, filter report.Filter) (report.ExpenseSummary, error) {
	if err := filter.Validate(); err != nil {
		return report.ExpenseSummary{}, err
	}
	expenses, err := s.repos.Expenses.Find(ctx, filter.FinanceQuery())
	if err != nil {
		return report.ExpenseSummary{}, err
	}
	return report.AggregateExpenses(expenses, filter)
}
