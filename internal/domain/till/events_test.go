package till

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationEvents(t *testing.T) {
	r, err := NewReconciliation(validInput())
	require.NoError(t, err)
	require.NoError(t, r.Deny("auditor", "receipts missing"))

	events := r.GetDomainEvents()
	require.Len(t, events, 2)

	denied, ok := events[1].(*ReconciliationEvent)
	require.True(t, ok)
	assert.Equal(t, EventTypeReconciliationDenied, denied.EventType())
	assert.Equal(t, AggregateType, denied.AggregateType())
	assert.Equal(t, r.ID, denied.AggregateID())
	assert.Equal(t, "auditor", denied.Actor)
	assert.Equal(t, "receipts missing", denied.Reason)
	assert.Equal(t, StatusDenied, denied.Status)
	assert.Equal(t, "2024-03-05", denied.Day)
}
