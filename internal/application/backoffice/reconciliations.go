package backoffice

import (
	"context"
	"errors"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestResult reports a batch import of upstream records
type IngestResult struct {
	Imported    int         `json:"imported"`
	Skipped     int         `json:"skipped"`
	RateMissing int         `json:"rate_missing"`
	IDs         []uuid.UUID `json:"ids"`
}

// RecordReconciliation validates a till-closing entry and stores it as pending
func (s *Service) RecordReconciliation(ctx context.Context, in till.Input) (*till.Reconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "record_reconciliation",
		telemetry.AttrBranchID, string(in.BranchID),
		telemetry.AttrCashierID, string(in.CashierID),
	)
	defer span.End()

	if in.CashierName == "" {
		if name, ok := s.opts.Cashiers.Lookup(in.CashierID); ok {
			in.CashierName = name
		}
	}
	r, err := till.NewReconciliation(in)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repos.Reconciliations.Save(ctx, r); err != nil {
		return nil, fail(span, err)
	}
	s.publish(ctx, r)

	s.log(ctx).Info("reconciliation recorded",
		zap.String("id", r.ID.String()),
		zap.String("branch_id", string(r.BranchID)),
		zap.String("cashier_id", string(r.CashierID)),
		zap.String("day", r.Day.String()),
		zap.String("total_usd", r.TotalUSD.StringFixed(2)),
	)
	return r, nil
}

// IngestRecords normalizes loosely typed upstream records and stores them as
// they are, statuses included. Malformed fields become zero; nothing is rejected.
// A record whose id is already stored is skipped and never overwritten.
func (s *Service) IngestRecords(ctx context.Context, raws []map[string]any) (IngestResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "ingest_records",
		telemetry.AttrRecordCount, len(raws),
	)
	defer span.End()

	res := IngestResult{IDs: make([]uuid.UUID, 0, len(raws))}
	now := time.Now()
	for _, r := range till.NormalizeAll(raws) {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
			r.UpdatedAt = now
		}
		if r.CashierName == "" {
			if name, ok := s.opts.Cashiers.Lookup(r.CashierID); ok {
				r.CashierName = name
			}
		}
		if err := s.repos.Reconciliations.Save(ctx, r); err != nil {
			if errors.Is(err, shared.ErrInvalidState) {
				res.Skipped++
				continue
			}
			return res, fail(span, err)
		}
		if r.RateMissing {
			res.RateMissing++
		}
		res.Imported++
		res.IDs = append(res.IDs, r.ID)
	}

	telemetry.SetAttributes(span, telemetry.AttrRateMissing, res.RateMissing)
	s.metrics.RecordRateMissing(ctx, "reconciliation", res.RateMissing)
	if res.RateMissing > 0 {
		s.log(ctx).Warn("ingested records without a usable exchange rate",
			zap.Int("count", res.RateMissing))
	}
	s.log(ctx).Info("records ingested",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// GetReconciliation loads one reconciliation
func (s *Service) GetReconciliation(ctx context.Context, id uuid.UUID) (*till.Reconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "get_reconciliation")
	defer span.End()

	r, err := s.repos.Reconciliations.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	return r, nil
}

// ListReconciliations returns the reconciliations matching q, voided ones included
func (s *Service) ListReconciliations(ctx context.Context, q till.Query) ([]*till.Reconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "list_reconciliations",
		telemetry.AttrBranchID, string(q.BranchID),
		telemetry.AttrCashierID, string(q.CashierID),
	)
	defer span.End()

	if err := q.Range.Validate(); err != nil {
		return nil, fail(span, err)
	}
	records, err := s.repos.Reconciliations.Find(ctx, q)
	if err != nil {
		return nil, fail(span, err)
	}
	telemetry.SetAttributes(span, telemetry.AttrRecordCount, len(records))
	return records, nil
}

// VerifyReconciliation marks a pending reconciliation verified
func (s *Service) VerifyReconciliation(ctx context.Context, id uuid.UUID, by string) (*till.Reconciliation, error) {
	return s.decide(ctx, "verify_reconciliation", id, func(r *till.Reconciliation) error {
		return r.Verify(by)
	})
}

// DenyReconciliation marks a pending reconciliation denied
func (s *Service) DenyReconciliation(ctx context.Context, id uuid.UUID, by, reason string) (*till.Reconciliation, error) {
	return s.decide(ctx, "deny_reconciliation", id, func(r *till.Reconciliation) error {
		return r.Deny(by, reason)
	})
}

// VoidReconciliation soft-deletes a reconciliation
func (s *Service) VoidReconciliation(ctx context.Context, id uuid.UUID, reason string) (*till.Reconciliation, error) {
	return s.decide(ctx, "void_reconciliation", id, func(r *till.Reconciliation) error {
		r.Void(reason)
		return nil
	})
}

func (s *Service) decide(ctx context.Context, method string, id uuid.UUID, apply func(*till.Reconciliation) error) (*till.Reconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, method)
	defer span.End()

	r, err := s.repos.Reconciliations.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	version := r.Version
	if err := apply(r); err != nil {
		return nil, fail(span, err)
	}
	if r.Version == version {
		return r, nil
	}
	if err := s.repos.Reconciliations.Save(ctx, r); err != nil {
		return nil, fail(span, err)
	}
	s.publish(ctx, r)

	telemetry.SetAttributes(span, telemetry.AttrStatus, r.Status.String())
	s.log(ctx).Info("reconciliation updated",
		zap.String("id", r.ID.String()),
		zap.String("status", r.Status.String()),
		zap.Bool("voided", r.Voided),
	)
	return r, nil
}
