package bank

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository loads and stores accounts with their movements.
// Save inserts movements not yet stored; stored movements are never rewritten.
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindAll(ctx context.Context) ([]*Account, error)
	Save(ctx context.Context, account *Account) error
}
