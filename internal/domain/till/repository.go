package till

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Query selects reconciliations by branch, cashier and day.
// Empty ids and open range bounds match everything.
type Query struct {
	BranchID  shared.BranchID
	CashierID shared.CashierID
	Range     valueobject.DateRange
	Status    *Status
}

// Matches reports whether r satisfies the query
func (q Query) Matches(r *Reconciliation) bool {
	if !q.BranchID.IsZero() && r.BranchID != q.BranchID {
		return false
	}
	if !q.CashierID.IsZero() && r.CashierID != q.CashierID {
		return false
	}
	if q.Status != nil && r.Status != *q.Status {
		return false
	}
	return q.Range.Contains(r.Day)
}

// ReconciliationRepository defines the interface for reconciliation persistence
type ReconciliationRepository interface {
	// FindByID finds a reconciliation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Reconciliation, error)

	// Find returns every reconciliation matching the query, voided ones included
	Find(ctx context.Context, q Query) ([]*Reconciliation, error)

	// Save creates or updates a reconciliation
	Save(ctx context.Context, r *Reconciliation) error
}
