// Package testutil holds helpers shared by the integration tests.
package testutil

import (
	"context"
	"sync"

	"github.com/farmacia/backoffice/internal/domain/shared"
)

// RecordingEventHandler keeps every event it receives
type RecordingEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
}

// NewRecordingEventHandler subscribes to eventTypes, or to every event when none are given
func NewRecordingEventHandler(eventTypes ...string) *RecordingEventHandler {
	return &RecordingEventHandler{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to
func (h *RecordingEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records event
func (h *RecordingEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return nil
}

// Types returns the types of the handled events in delivery order
func (h *RecordingEventHandler) Types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.handled))
	for i, ev := range h.handled {
		out[i] = ev.EventType()
	}
	return out
}

// Count returns how many events of eventType were handled
func (h *RecordingEventHandler) Count(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.handled {
		if ev.EventType() == eventType {
			n++
		}
	}
	return n
}
