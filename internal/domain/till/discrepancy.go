package till

import "github.com/shopspring/decimal"

// Severity grades a till discrepancy against the system-expected total
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Thresholds are the discrepancy percentages (of the expected total)
// at which a reconciliation stops being normal.
type Thresholds struct {
	WarnPct     decimal.Decimal
	CriticalPct decimal.Decimal
}

// DefaultThresholds grades up to 1% as normal and above 5% as critical
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnPct:     decimal.NewFromInt(1),
		CriticalPct: decimal.NewFromInt(5),
	}
}

// DiscrepancyPct returns |discrepancy| as a percentage of the expected total.
// With no expected total any discrepancy counts as 100%.
func DiscrepancyPct(r *Reconciliation) decimal.Decimal {
	diff := r.DiscrepancyUSD().Abs()
	if diff.IsZero() {
		return decimal.Zero
	}
	if !r.ExpectedUSD.IsPositive() {
		return decimal.NewFromInt(100)
	}
	return diff.Div(r.ExpectedUSD).Mul(decimal.NewFromInt(100))
}

// Classify grades the reconciliation's discrepancy
func (t Thresholds) Classify(r *Reconciliation) Severity {
	pct := DiscrepancyPct(r)
	switch {
	case pct.LessThanOrEqual(t.WarnPct):
		return SeverityNormal
	case pct.LessThanOrEqual(t.CriticalPct):
		return SeverityWarning
	default:
		return SeverityCritical
	}
}
