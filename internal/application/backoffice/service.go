// Package backoffice is the application layer of the pharmacy back office.
// It loads data through repository interfaces, runs the domain rules and
// publishes the resulting domain events.
package backoffice

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/report"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/infrastructure/logger"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const serviceName = "backoffice"

// DefaultConcurrency bounds the per-branch fan-out of Dashboard
const DefaultConcurrency = 4

// Repositories groups the stores the service reads and writes
type Repositories struct {
	Reconciliations till.ReconciliationRepository
	Expenses        finance.ExpenseRepository
	Invoices        finance.InvoiceRepository
	Payments        finance.PaymentRepository
	Profiles        commission.ProfileRepository
	Accounts        bank.AccountRepository
}

// Options carries the engine rules and the display-name tables
type Options struct {
	Thresholds     till.Thresholds
	CommissionBase commission.Base
	Concurrency    int
	Branches       shared.NameTable[shared.BranchID]
	Cashiers       shared.NameTable[shared.CashierID]
}

// Service exposes the back-office operations
type Service struct {
	repos   Repositories
	ledger  *bank.Ledger
	events  shared.EventPublisher
	metrics *telemetry.EngineMetrics
	logger  *zap.Logger
	opts    Options
	agg     report.Aggregator
}

// NewService creates a new Service. A nil ledger gets one backed by
// repos.Accounts without an idempotency store; events and metrics may be nil.
func NewService(
	repos Repositories,
	ledger *bank.Ledger,
	events shared.EventPublisher,
	metrics *telemetry.EngineMetrics,
	log *zap.Logger,
	opts Options,
) *Service {
	if ledger == nil {
		ledger = bank.NewLedger(repos.Accounts, nil, 0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Thresholds.WarnPct.IsZero() && opts.Thresholds.CriticalPct.IsZero() {
		opts.Thresholds = till.DefaultThresholds()
	}
	if opts.CommissionBase == "" {
		opts.CommissionBase = commission.BaseExclRecharge
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Service{
		repos:   repos,
		ledger:  ledger,
		events:  events,
		metrics: metrics,
		logger:  log,
		opts:    opts,
		agg:     report.NewAggregator(opts.Thresholds),
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, s.logger)
}

// publish sends and clears the events an aggregate raised. The write has
// already happened, so a publishing failure is logged and not returned.
func (s *Service) publish(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	s.publishEvents(ctx, events)
}

func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.log(ctx).Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	return err
}

// Thresholds returns the discrepancy grading in effect
func (s *Service) Thresholds() till.Thresholds {
	return s.opts.Thresholds
}
