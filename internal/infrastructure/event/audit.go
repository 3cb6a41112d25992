package event

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per reconciliation decision
// and per ledger movement
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates the audit handler
func NewAuditLogHandler(l *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: l.Named("audit")}
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		till.EventTypeReconciliationRecorded,
		till.EventTypeReconciliationVerified,
		till.EventTypeReconciliationDenied,
		till.EventTypeReconciliationVoided,
		bank.EventTypeMovementApplied,
	}
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	l := logger.Enrich(ctx, h.logger).With(
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.Time("occurred_at", ev.OccurredAt()),
	)
	switch e := ev.(type) {
	case *till.ReconciliationEvent:
		l.Info("reconciliation",
			zap.Stringer("reconciliation_id", e.ReconciliationID),
			zap.String("branch_id", string(e.BranchID)),
			zap.String("cashier_id", string(e.CashierID)),
			zap.String("day", e.Day),
			zap.String("status", string(e.Status)),
			zap.String("total_usd", e.TotalUSD.StringFixed(2)),
			zap.String("shortage_usd", e.ShortageUSD.StringFixed(2)),
			zap.String("overage_usd", e.OverageUSD.StringFixed(2)),
			zap.String("by", e.Actor),
			zap.String("reason", e.Reason),
		)
	case *bank.MovementAppliedEvent:
		l.Info("bank movement",
			zap.Stringer("account_id", e.AccountID),
			zap.Stringer("movement_id", e.MovementID),
			zap.String("type", string(e.Type)),
			zap.String("currency", string(e.Currency)),
			zap.String("effect", e.Effect.StringFixed(2)),
			zap.String("balance_after", e.BalanceAfter.StringFixed(2)),
		)
	default:
		l.Info("domain event", zap.Stringer("aggregate_id", ev.AggregateID()))
	}
	return nil
}
