package commission

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/shared"
)

// ProfileRepository defines the interface for commission profile persistence
type ProfileRepository interface {
	// FindByCashier returns the cashier's profile or shared.ErrNotFound
	FindByCashier(ctx context.Context, cashierID shared.CashierID) (*Profile, error)

	// Save creates or replaces a cashier's profile
	Save(ctx context.Context, p *Profile) error
}
