package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics counts the observations the engine makes while folding
// records: missing exchange rates, graded discrepancies and ledger activity.
type EngineMetrics struct {
	rateMissing   metric.Int64Counter
	discrepancies metric.Int64Counter
	movements     metric.Int64Counter
	rejected      metric.Int64Counter
}

// NewEngineMetrics registers the engine instruments on meter
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	var m EngineMetrics
	var err error
	if m.rateMissing, err = meter.Int64Counter("backoffice.rate_missing",
		metric.WithDescription("Records converted without a usable exchange rate"),
		metric.WithUnit("{record}")); err != nil {
		return nil, fmt.Errorf("create rate_missing counter: %w", err)
	}
	if m.discrepancies, err = meter.Int64Counter("backoffice.discrepancies",
		metric.WithDescription("Verified reconciliations graded warning or critical"),
		metric.WithUnit("{record}")); err != nil {
		return nil, fmt.Errorf("create discrepancies counter: %w", err)
	}
	if m.movements, err = meter.Int64Counter("backoffice.bank.movements",
		metric.WithDescription("Ledger movements booked"),
		metric.WithUnit("{movement}")); err != nil {
		return nil, fmt.Errorf("create movements counter: %w", err)
	}
	if m.rejected, err = meter.Int64Counter("backoffice.bank.movements_rejected",
		metric.WithDescription("Ledger movements rejected, by error code"),
		metric.WithUnit("{movement}")); err != nil {
		return nil, fmt.Errorf("create movements_rejected counter: %w", err)
	}
	return &m, nil
}

// RecordRateMissing adds n records of kind (reconciliation, expense, invoice...) that lacked a rate
func (m *EngineMetrics) RecordRateMissing(ctx context.Context, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rateMissing.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordDiscrepancies adds the warning and critical counts of an aggregation
func (m *EngineMetrics) RecordDiscrepancies(ctx context.Context, warning, critical int) {
	if m == nil {
		return
	}
	if warning > 0 {
		m.discrepancies.Add(ctx, int64(warning), metric.WithAttributes(attribute.String("severity", "warning")))
	}
	if critical > 0 {
		m.discrepancies.Add(ctx, int64(critical), metric.WithAttributes(attribute.String("severity", "critical")))
	}
}

// RecordMovement counts a booked movement
func (m *EngineMetrics) RecordMovement(ctx context.Context, movementType, currency string) {
	if m == nil {
		return
	}
	m.movements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", movementType),
		attribute.String("currency", currency),
	))
}

// RecordRejectedMovement counts a movement refused with code
func (m *EngineMetrics) RecordRejectedMovement(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}
