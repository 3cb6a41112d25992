package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New())}
}

type recordingHandler struct {
	mu      sync.Mutex
	types   []string
	handled []string
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev.EventType())
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func TestInMemoryEventBus_Routing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	verified := &recordingHandler{types: []string{"Verified"}}
	all := &recordingHandler{}
	bus.Subscribe(verified)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Verified"), newTestEvent("Denied")))

	assert.Equal(t, []string{"Verified"}, verified.handled)
	assert.Equal(t, []string{"Verified", "Denied"}, all.handled)
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"A"}}
	bus.Subscribe(h, "B")
	_ = bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B"))
	assert.Equal(t, []string{"B"}, h.handled)
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))
	failing := &recordingHandler{types: []string{"X"}, err: errors.New("nope")}
	panicking := &recordingHandler{types: []string{"X"}, panics: true}
	ok := &recordingHandler{types: []string{"X"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(ok)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
	assert.Len(t, ok.handled, 1)
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	r := till.FromInput(till.Input{
		BranchID:     "centro",
		CashierID:    "c1",
		Day:          "2024-03-01",
		ExchangeRate: decimal.NewFromInt(36),
		CashUSD:      decimal.NewFromInt(100),
	})
	require.NoError(t, r.Verify("supervisor"))

	acct, err := bank.NewAccount("Operaciones", "Banesco", valueobject.USD, decimal.Zero, decimal.NewFromInt(50))
	require.NoError(t, err)

	events := append(r.GetDomainEvents(), acct.GetDomainEvents()...)
	require.NoError(t, bus.Publish(context.Background(), events...))

	entries := logs.FilterMessage("reconciliation").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "verified", fields["status"])
	assert.Equal(t, "supervisor", fields["by"])
	assert.Equal(t, "100.00", fields["total_usd"])

	moves := logs.FilterMessage("bank movement").All()
	require.Len(t, moves, 1)
	assert.Equal(t, "50.00", moves[0].ContextMap()["balance_after"])
}
