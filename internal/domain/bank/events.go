package bank

import (
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeMovementApplied is raised for every booked ledger movement
const EventTypeMovementApplied = "BankMovementApplied"

// MovementAppliedEvent carries a booked movement and the balance it left
type MovementAppliedEvent struct {
	shared.BaseDomainEvent
	AccountID    uuid.UUID            `json:"account_id"`
	MovementID   uuid.UUID            `json:"movement_id"`
	Type         MovementType         `json:"type"`
	Currency     valueobject.Currency `json:"currency"`
	Effect       decimal.Decimal      `json:"effect"`
	BalanceAfter decimal.Decimal      `json:"balance_after"`
}

// NewMovementAppliedEvent creates the event for movement m on account a
func NewMovementAppliedEvent(a *Account, m Movement) *MovementAppliedEvent {
	return &MovementAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementApplied, AggregateType, a.ID),
		AccountID:       a.ID,
		MovementID:      m.ID,
		Type:            m.Type,
		Currency:        a.Currency,
		Effect:          m.Effect(),
		BalanceAfter:    m.BalanceAfter,
	}
}
