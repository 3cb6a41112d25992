package till

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/service"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateType is the aggregate name used on events
const AggregateType = "Reconciliation"

// CardPoint is the settlement of one card terminal on a till
type CardPoint struct {
	Bank     string          `json:"bank"`
	DebitBs  decimal.Decimal `json:"debit_bs"`
	CreditBs decimal.Decimal `json:"credit_bs"`
}

// TotalBs returns debit plus credit
func (c CardPoint) TotalBs() decimal.Decimal {
	return c.DebitBs.Add(c.CreditBs)
}

// Input carries the till-closing figures of one cashier session.
// Amounts are raw; nothing here is derived.
type Input struct {
	ID              uuid.UUID
	BranchID        shared.BranchID
	CashierID       shared.CashierID
	CashierName     string
	Day             valueobject.Day
	TillNumber      int
	Shift           Shift
	ExchangeRate    decimal.Decimal
	SystemTotalBs   decimal.Decimal
	ReturnsBs       decimal.Decimal
	RechargeBs      decimal.Decimal
	MobilePaymentBs decimal.Decimal
	CashBs          decimal.Decimal
	CashUSD         decimal.Decimal
	ZelleUSD        decimal.Decimal
	VoucherUSD      decimal.Decimal
	CardPoints      []CardPoint
	Status          Status
	Voided          bool
}

// Figures are the values derived from a reconciliation's inputs.
// They are recomputed from the inputs and never persisted as a source of truth.
type Figures struct {
	CardBs               decimal.Decimal
	BsSubtotal           decimal.Decimal
	USDSubtotal          decimal.Decimal
	TotalUSD             decimal.Decimal
	TotalUSDExclRecharge decimal.Decimal
	PendingBsSubtotal    decimal.Decimal
	PendingUSD           decimal.Decimal
	ExpectedUSD          decimal.Decimal
	ShortageUSD          decimal.Decimal
	OverageUSD           decimal.Decimal
	// RateMissing is set when a Bs term needed conversion and the rate was not usable
	RateMissing bool
}

// Reconciliation ("cuadre") is one cashier/shift/till session for one day at one branch
type Reconciliation struct {
	shared.BaseAggregateRoot
	BranchID        shared.BranchID
	CashierID       shared.CashierID
	CashierName     string
	Day             valueobject.Day
	TillNumber      int
	Shift           Shift
	ExchangeRate    valueobject.ExchangeRate
	SystemTotalBs   decimal.Decimal
	ReturnsBs       decimal.Decimal
	RechargeBs      decimal.Decimal
	MobilePaymentBs decimal.Decimal
	CashBs          decimal.Decimal
	CashUSD         decimal.Decimal
	ZelleUSD        decimal.Decimal
	VoucherUSD      decimal.Decimal
	CardPoints      []CardPoint
	Status          Status
	DecidedBy       string
	DecidedAt       *time.Time
	DenialReason    string
	Voided          bool
	VoidReason      string
	VoidedAt        *time.Time
	Figures
}

// FromInput builds a reconciliation without validating it and computes its figures.
// It is used when reading records that already exist upstream; no event is raised.
func FromInput(in Input) *Reconciliation {
	status := in.Status
	if !status.IsValid() {
		status = StatusPending
	}
	shift := in.Shift
	if !shift.IsValid() {
		shift = ShiftUnknown
	}
	r := &Reconciliation{
		BaseAggregateRoot: shared.BaseAggregateRoot{ID: in.ID, Version: 1},
		BranchID:          in.BranchID,
		CashierID:         in.CashierID,
		CashierName:       in.CashierName,
		Day:               in.Day,
		TillNumber:        in.TillNumber,
		Shift:             shift,
		ExchangeRate:      valueobject.NewExchangeRate(in.ExchangeRate),
		SystemTotalBs:     in.SystemTotalBs,
		ReturnsBs:         in.ReturnsBs,
		RechargeBs:        in.RechargeBs,
		MobilePaymentBs:   in.MobilePaymentBs,
		CashBs:            in.CashBs,
		CashUSD:           in.CashUSD,
		ZelleUSD:          in.ZelleUSD,
		VoucherUSD:        in.VoucherUSD,
		CardPoints:        append([]CardPoint(nil), in.CardPoints...),
		Status:            status,
		Voided:            in.Voided,
	}
	r.Recalculate()
	return r
}

// NewReconciliation validates a till-closing entry and creates a pending reconciliation
func NewReconciliation(in Input) (*Reconciliation, error) {
	if in.BranchID.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "branch is required")
	}
	if in.CashierID.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "cashier is required")
	}
	if in.Day.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "day is required")
	}
	if in.TillNumber < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "till number cannot be negative")
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"exchangeRate", in.ExchangeRate},
		{"systemTotalBs", in.SystemTotalBs},
		{"returnsBs", in.ReturnsBs},
		{"rechargeBs", in.RechargeBs},
		{"mobilePaymentBs", in.MobilePaymentBs},
		{"cashBs", in.CashBs},
		{"cashUSD", in.CashUSD},
		{"zelleUSD", in.ZelleUSD},
		{"voucherUSD", in.VoucherUSD},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("%s cannot be negative", a.name))
		}
	}
	for i, cp := range in.CardPoints {
		if cp.DebitBs.IsNegative() || cp.CreditBs.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("cardPoints[%d] cannot be negative", i))
		}
	}

	r := FromInput(in)
	if r.hasBsAmounts() && !r.ExchangeRate.IsUsable() {
		return nil, shared.NewDomainError(shared.CodeRateMissing, "exchange rate must be positive when Bs amounts are present")
	}

	root := shared.NewBaseAggregateRoot()
	if in.ID != uuid.Nil {
		root.ID = in.ID
	}
	r.BaseAggregateRoot = root
	r.Status = StatusPending
	r.Voided = false
	r.AddDomainEvent(NewReconciliationRecordedEvent(r))
	return r, nil
}

func (r *Reconciliation) hasBsAmounts() bool {
	if !r.SystemTotalBs.IsZero() || !r.ReturnsBs.IsZero() || !r.RechargeBs.IsZero() ||
		!r.MobilePaymentBs.IsZero() || !r.CashBs.IsZero() {
		return true
	}
	for _, cp := range r.CardPoints {
		if !cp.TotalBs().IsZero() {
			return true
		}
	}
	return false
}

// Recalculate recomputes the derived figures from the inputs
func (r *Reconciliation) Recalculate() {
	rate := r.ExchangeRate
	var f Figures

	for _, cp := range r.CardPoints {
		f.CardBs = f.CardBs.Add(cp.TotalBs())
	}
	gross := r.RechargeBs.Add(r.MobilePaymentBs).Add(r.CashBs).Add(f.CardBs)
	f.BsSubtotal = gross.Sub(r.ReturnsBs)
	f.PendingBsSubtotal = gross
	f.USDSubtotal = r.CashUSD.Add(r.ZelleUSD)

	total := service.ToUSD(f.BsSubtotal, valueobject.Bs, rate)
	exclRecharge := service.ToUSD(f.BsSubtotal.Sub(r.RechargeBs), valueobject.Bs, rate)
	pending := service.ToUSD(f.PendingBsSubtotal, valueobject.Bs, rate)
	expected := service.ToUSD(r.SystemTotalBs, valueobject.Bs, rate)

	f.TotalUSD = f.USDSubtotal.Add(total.Amount)
	f.TotalUSDExclRecharge = f.USDSubtotal.Add(exclRecharge.Amount)
	f.PendingUSD = f.USDSubtotal.Add(pending.Amount)
	f.ExpectedUSD = expected.Amount
	f.RateMissing = total.RateMissing || exclRecharge.RateMissing || pending.RateMissing || expected.RateMissing

	f.ShortageUSD = decimal.Zero
	f.OverageUSD = decimal.Zero
	if !f.RateMissing {
		diff := f.TotalUSD.Sub(f.ExpectedUSD)
		switch diff.Sign() {
		case -1:
			f.ShortageUSD = diff.Neg()
		case 1:
			f.OverageUSD = diff
		}
	}
	r.Figures = f
}

// DiscrepancyUSD is the signed difference between counted and expected totals:
// negative for a shortage, positive for an overage.
func (r *Reconciliation) DiscrepancyUSD() decimal.Decimal {
	return r.OverageUSD.Sub(r.ShortageUSD)
}

// IsVerified reports whether the record counts toward sales
func (r *Reconciliation) IsVerified() bool {
	return r.Status == StatusVerified && !r.Voided
}

// IsAwaitingVerification reports whether the record counts toward pending amounts
func (r *Reconciliation) IsAwaitingVerification() bool {
	return r.Status == StatusPending && !r.Voided
}

// Verify marks the record verified. Verifying twice is a no-op.
func (r *Reconciliation) Verify(by string) error {
	if r.Status == StatusVerified {
		return nil
	}
	if err := r.canDecide(by); err != nil {
		return err
	}
	now := time.Now()
	r.Status = StatusVerified
	r.DecidedBy = by
	r.DecidedAt = &now
	r.Touch()
	r.AddDomainEvent(NewReconciliationVerifiedEvent(r))
	return nil
}

// Deny marks the record denied. Denying twice is a no-op.
func (r *Reconciliation) Deny(by, reason string) error {
	if r.Status == StatusDenied {
		return nil
	}
	if err := r.canDecide(by); err != nil {
		return err
	}
	now := time.Now()
	r.Status = StatusDenied
	r.DecidedBy = by
	r.DecidedAt = &now
	r.DenialReason = reason
	r.Touch()
	r.AddDomainEvent(NewReconciliationDeniedEvent(r))
	return nil
}

func (r *Reconciliation) canDecide(by string) error {
	if r.Voided {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot decide on a voided reconciliation")
	}
	if r.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot change reconciliation in %s status", r.Status))
	}
	if strings.TrimSpace(by) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Verifier is required")
	}
	return nil
}

// Void soft-deletes the record. It is irreversible; voiding twice is a no-op.
func (r *Reconciliation) Void(reason string) {
	if r.Voided {
		return
	}
	now := time.Now()
	r.Voided = true
	r.VoidReason = reason
	r.VoidedAt = &now
	r.Touch()
	r.AddDomainEvent(NewReconciliationVoidedEvent(r))
}
