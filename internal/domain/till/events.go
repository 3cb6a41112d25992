package till

import (
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeReconciliationRecorded = "ReconciliationRecorded"
	EventTypeReconciliationVerified = "ReconciliationVerified"
	EventTypeReconciliationDenied   = "ReconciliationDenied"
	EventTypeReconciliationVoided   = "ReconciliationVoided"
)

// ReconciliationEvent is raised on every lifecycle change of a reconciliation
type ReconciliationEvent struct {
	shared.BaseDomainEvent
	ReconciliationID uuid.UUID        `json:"reconciliation_id"`
	BranchID         shared.BranchID  `json:"branch_id"`
	CashierID        shared.CashierID `json:"cashier_id"`
	Day              string           `json:"day"`
	Status           Status           `json:"status"`
	TotalUSD         decimal.Decimal  `json:"total_usd"`
	ShortageUSD      decimal.Decimal  `json:"shortage_usd"`
	OverageUSD       decimal.Decimal  `json:"overage_usd"`
	Actor            string           `json:"actor,omitempty"`
	Reason           string           `json:"reason,omitempty"`
}

func newReconciliationEvent(eventType string, r *Reconciliation, actor, reason string) *ReconciliationEvent {
	return &ReconciliationEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(eventType, AggregateType, r.ID),
		ReconciliationID: r.ID,
		BranchID:         r.BranchID,
		CashierID:        r.CashierID,
		Day:              r.Day.String(),
		Status:           r.Status,
		TotalUSD:         r.TotalUSD,
		ShortageUSD:      r.ShortageUSD,
		OverageUSD:       r.OverageUSD,
		Actor:            actor,
		Reason:           reason,
	}
}

// NewReconciliationRecordedEvent creates the event for a new till-closing entry
func NewReconciliationRecordedEvent(r *Reconciliation) *ReconciliationEvent {
	return newReconciliationEvent(EventTypeReconciliationRecorded, r, r.CashierName, "")
}

// NewReconciliationVerifiedEvent creates the event for a verification
func NewReconciliationVerifiedEvent(r *Reconciliation) *ReconciliationEvent {
	return newReconciliationEvent(EventTypeReconciliationVerified, r, r.DecidedBy, "")
}

// NewReconciliationDeniedEvent creates the event for a denial
func NewReconciliationDeniedEvent(r *Reconciliation) *ReconciliationEvent {
	return newReconciliationEvent(EventTypeReconciliationDenied, r, r.DecidedBy, r.DenialReason)
}

// NewReconciliationVoidedEvent creates the event for a void
func NewReconciliationVoidedEvent(r *Reconciliation) *ReconciliationEvent {
	return newReconciliationEvent(EventTypeReconciliationVoided, r, "", r.VoidReason)
}
