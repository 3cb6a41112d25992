package bank

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// idempotencyPrefix scopes movement keys inside a shared idempotency store
const idempotencyPrefix = "bank:movement:"

// ErrKeyNotReleased is joined to a movement error when the movement's
// idempotency key could not be released. Retries with that key are rejected
// as duplicates until the key expires.
var ErrKeyNotReleased = errors.New("idempotency key not released")

// MovementResult is the outcome of a successful ApplyMovement
type MovementResult struct {
	Movement   Movement
	NewBalance valueobject.Money
	Events     []shared.DomainEvent
}

// Ledger applies movements to accounts. Movements on the same account are
// serialized; movements on different accounts proceed in parallel.
type Ledger struct {
	repo  AccountRepository
	idem  shared.IdempotencyStore
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	locks map[uuid.UUID]*accountLock
}

type accountLock struct {
	sync.Mutex
	refs int
}

// NewLedger creates a ledger. idem may be nil, in which case duplicates are
// only caught against the movements already stored on the account.
func NewLedger(repo AccountRepository, idem shared.IdempotencyStore, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	return &Ledger{
		repo:  repo,
		idem:  idem,
		ttl:   ttl,
		now:   time.Now,
		locks: make(map[uuid.UUID]*accountLock),
	}
}

func (l *Ledger) lock(id uuid.UUID) func() {
	l.mu.Lock()
	al, ok := l.locks[id]
	if !ok {
		al = &accountLock{}
		l.locks[id] = al
	}
	al.refs++
	l.mu.Unlock()

	al.Lock()
	return func() {
		al.Unlock()
		l.mu.Lock()
		al.refs--
		if al.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// ApplyMovement books cmd on the account. Validation, balance check and the
// write happen under the account's lock, so two concurrent outflows can never
// both pass against the same balance. A repeated idempotency key fails with
// DUPLICATE_MOVEMENT and leaves the account unchanged.
func (l *Ledger) ApplyMovement(ctx context.Context, accountID uuid.UUID, cmd MovementCommand) (MovementResult, error) {
	if err := ctx.Err(); err != nil {
		return MovementResult{}, err
	}
	unlock := l.lock(accountID)
	defer unlock()

	key := ""
	if cmd.IdempotencyKey != "" && l.idem != nil {
		key = idempotencyPrefix + accountID.String() + ":" + cmd.IdempotencyKey
		fresh, err := l.idem.MarkProcessed(ctx, key, l.ttl)
		if err != nil {
			return MovementResult{}, err
		}
		if !fresh {
			return MovementResult{}, shared.NewDomainError(shared.CodeDuplicateMovement,
				"movement "+cmd.IdempotencyKey+" was already applied")
		}
	}

	res, err := l.apply(ctx, accountID, cmd)
	if err != nil && key != "" {
		// the key must not block a retry of a movement that was never booked
		if relErr := l.idem.Release(context.WithoutCancel(ctx), key); relErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %s: %w", ErrKeyNotReleased, cmd.IdempotencyKey, relErr))
		}
	}
	return res, err
}

func (l *Ledger) apply(ctx context.Context, accountID uuid.UUID, cmd MovementCommand) (MovementResult, error) {
	account, err := l.repo.FindByID(ctx, accountID)
	if err != nil {
		return MovementResult{}, err
	}
	m, err := account.Apply(cmd, l.now())
	if err != nil {
		return MovementResult{}, err
	}
	if err := l.repo.Save(ctx, account); err != nil {
		return MovementResult{}, err
	}
	return MovementResult{
		Movement:   m,
		NewBalance: account.BalanceMoney(),
		Events:     account.GetDomainEvents(),
	}, nil
}

// Deposit is a shorthand for a deposit in the account's currency
func (l *Ledger) Deposit(ctx context.Context, accountID uuid.UUID, amount valueobject.Money, rate valueobject.ExchangeRate, concept string) (MovementResult, error) {
	return l.ApplyMovement(ctx, accountID, MovementCommand{
		Type:         MovementDeposit,
		Amount:       amount.Amount(),
		Currency:     amount.Currency(),
		ExchangeRate: rate,
		Concept:      concept,
	})
}

// Withdraw is a shorthand for a withdrawal
func (l *Ledger) Withdraw(ctx context.Context, accountID uuid.UUID, amount valueobject.Money, rate valueobject.ExchangeRate, concept string) (MovementResult, error) {
	return l.ApplyMovement(ctx, accountID, MovementCommand{
		Type:         MovementWithdrawal,
		Amount:       amount.Amount(),
		Currency:     amount.Currency(),
		ExchangeRate: rate,
		Concept:      concept,
	})
}
