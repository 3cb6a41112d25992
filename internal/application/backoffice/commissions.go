package backoffice

import (
	"context"
	"fmt"

	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ComputeCommissions computes what the cashier earns on their verified,
// non-voided reconciliations inside dates, using their stored profile.
func (s *Service) ComputeCommissions(ctx context.Context, cashierID shared.CashierID, dates valueobject.DateRange) (commission.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "compute_commissions",
		telemetry.AttrCashierID, string(cashierID),
	)
	defer span.End()

	if cashierID.IsZero() {
		return commission.Result{}, fail(span, shared.NewDomainError(shared.CodeInvalidInput, "cashier is required"))
	}
	if err := dates.Validate(); err != nil {
		return commission.Result{}, fail(span, err)
	}

	profile, err := s.repos.Profiles.FindByCashier(ctx, cashierID)
	if err != nil {
		return commission.Result{}, fail(span, fmt.Errorf("commission profile for cashier %s: %w", cashierID, err))
	}
	if profile.Base == "" {
		profile.Base = s.opts.CommissionBase
	}

	verified := till.StatusVerified
	records, err := s.repos.Reconciliations.Find(ctx, till.Query{
		CashierID: cashierID,
		Range:     dates,
		Status:    &verified,
	})
	if err != nil {
		return commission.Result{}, fail(span, err)
	}

	res, err := commission.Calculate(*profile, records, s.opts.Branches)
	if err != nil {
		return commission.Result{}, fail(span, err)
	}
	telemetry.SetAttributes(span, telemetry.AttrRecordCount, res.RecordCount)
	if res.UnpaidRecordCount > 0 {
		s.log(ctx).Warn("records without a configured commission percentage",
			zap.String("cashier_id", string(cashierID)),
			zap.String("mode", string(profile.Mode)),
			zap.Int("count", res.UnpaidRecordCount))
	}
	s.log(ctx).Info("commissions computed",
		zap.String("cashier_id", string(cashierID)),
		zap.Int("records", res.RecordCount),
		zap.String("commission_usd", res.TotalCommissionUSD.StringFixed(2)),
	)
	return res.Rounded(), nil
}

// SaveCommissionProfile validates and stores a cashier's commission profile
func (s *Service) SaveCommissionProfile(ctx context.Context, p commission.Profile) error {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "save_commission_profile",
		telemetry.AttrCashierID, string(p.CashierID),
	)
	defer span.End()

	if p.CashierID.IsZero() {
		return fail(span, shared.NewDomainError(shared.CodeInvalidInput, "cashier is required"))
	}
	if err := p.Validate(); err != nil {
		return fail(span, err)
	}
	if err := s.repos.Profiles.Save(ctx, &p); err != nil {
		return fail(span, err)
	}
	return nil
}

// GetCommissionProfile loads a cashier's commission profile
func (s *Service) GetCommissionProfile(ctx context.Context, cashierID shared.CashierID) (*commission.Profile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "get_commission_profile",
		telemetry.AttrCashierID, string(cashierID),
	)
	defer span.End()

	p, err := s.repos.Profiles.FindByCashier(ctx, cashierID)
	if err != nil {
		return nil, fail(span, err)
	}
	return p, nil
}
