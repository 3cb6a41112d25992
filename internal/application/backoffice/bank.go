package backoffice

import (
	"context"
	"errors"

	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OpenAccountCommand opens a bank account
type OpenAccountCommand struct {
	Name           string
	Bank           string
	Currency       valueobject.Currency
	FeePercent     decimal.Decimal
	OpeningBalance decimal.Decimal
}

// AccountPosition is one account's balance and its USD valuation
type AccountPosition struct {
	AccountID      uuid.UUID            `json:"account_id"`
	Name           string               `json:"name"`
	Bank           string               `json:"bank"`
	Currency       valueobject.Currency `json:"currency"`
	Balance        decimal.Decimal      `json:"balance"`
	USDValue       decimal.Decimal      `json:"usd_value"`
	RateMissing    bool                 `json:"rate_missing"`
	MovementCount  int                  `json:"movement_count"`
	InvariantOK    bool                 `json:"invariant_ok"`
	InvariantError string               `json:"invariant_error,omitempty"`
}

// BankPosition is the valuation of every account at one exchange rate
type BankPosition struct {
	Accounts            []AccountPosition `json:"accounts"`
	TotalBs             decimal.Decimal   `json:"total_bs"`
	TotalUSD            decimal.Decimal   `json:"total_usd"`
	TotalUSDValue       decimal.Decimal   `json:"total_usd_value"`
	RateMissingCount    int               `json:"rate_missing_count"`
	InvariantViolations int               `json:"invariant_violations"`
}

// OpenAccount creates an account; a positive opening balance is booked as a fee-free deposit
func (s *Service) OpenAccount(ctx context.Context, cmd OpenAccountCommand) (*bank.Account, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "open_account")
	defer span.End()

	a, err := bank.NewAccount(cmd.Name, cmd.Bank, cmd.Currency, cmd.FeePercent, cmd.OpeningBalance)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.repos.Accounts.Save(ctx, a); err != nil {
		return nil, fail(span, err)
	}
	s.publish(ctx, a)

	s.log(ctx).Info("bank account opened",
		zap.String("account_id", a.ID.String()),
		zap.String("currency", a.Currency.String()),
		zap.String("balance", a.Balance.StringFixed(2)),
	)
	return a, nil
}

// GetAccount loads an account with its movements
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*bank.Account, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "get_account",
		telemetry.AttrAccountID, id.String(),
	)
	defer span.End()

	a, err := s.repos.Accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	return a, nil
}

// ApplyMovement books a movement through the ledger. It fails with
// INSUFFICIENT_FUNDS when an outflow exceeds the balance and with
// DUPLICATE_MOVEMENT when the idempotency key was already used.
func (s *Service) ApplyMovement(ctx context.Context, accountID uuid.UUID, cmd bank.MovementCommand) (bank.MovementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "apply_movement",
		telemetry.AttrAccountID, accountID.String(),
		telemetry.AttrMovementType, string(cmd.Type),
	)
	defer span.End()

	res, err := s.ledger.ApplyMovement(ctx, accountID, cmd)
	if err != nil {
		code := errorCode(err)
		s.metrics.RecordRejectedMovement(ctx, code)
		log := s.log(ctx).With(
			zap.String("account_id", accountID.String()),
			zap.String("type", string(cmd.Type)),
			zap.String("amount", cmd.Amount.String()),
			zap.String("code", code),
		)
		if code == "" {
			log.Error("movement failed", zap.Error(err))
		} else {
			log.Info("movement rejected", zap.Error(err))
		}
		if errors.Is(err, bank.ErrKeyNotReleased) {
			log.Warn("idempotency key left claimed after a failed movement",
				zap.String("idempotency_key", cmd.IdempotencyKey))
		}
		return bank.MovementResult{}, fail(span, err)
	}

	s.metrics.RecordMovement(ctx, string(res.Movement.Type), res.Movement.Currency.String())
	if res.Movement.RateMissing {
		s.metrics.RecordRateMissing(ctx, "movement", 1)
	}
	s.publishEvents(ctx, res.Events)

	s.log(ctx).Info("movement applied",
		zap.String("account_id", accountID.String()),
		zap.String("movement_id", res.Movement.ID.String()),
		zap.String("type", string(res.Movement.Type)),
		zap.String("balance", res.NewBalance.String()),
	)
	return res, nil
}

// BankPosition values every account at rate and re-checks each ledger invariant.
// Bs accounts are worth 0 USD when rate is not usable.
func (s *Service) BankPosition(ctx context.Context, rate valueobject.ExchangeRate) (BankPosition, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "bank_position")
	defer span.End()

	pos, err := s.bankPosition(ctx, rate)
	if err != nil {
		return BankPosition{}, fail(span, err)
	}
	telemetry.SetAttributes(span,
		telemetry.AttrRecordCount, len(pos.Accounts),
		telemetry.AttrRateMissing, pos.RateMissingCount,
	)
	return pos, nil
}

func (s *Service) bankPosition(ctx context.Context, rate valueobject.ExchangeRate) (BankPosition, error) {
	accounts, err := s.repos.Accounts.FindAll(ctx)
	if err != nil {
		return BankPosition{}, err
	}

	pos := BankPosition{Accounts: make([]AccountPosition, 0, len(accounts))}
	for _, a := range accounts {
		usd := a.USDValue(rate)
		p := AccountPosition{
			AccountID:     a.ID,
			Name:          a.Name,
			Bank:          a.Bank,
			Currency:      a.Currency,
			Balance:       a.Balance,
			USDValue:      usd.Amount.Round(valueobject.DisplayPlaces),
			RateMissing:   usd.RateMissing,
			MovementCount: len(a.Movements),
			InvariantOK:   true,
		}
		if err := a.VerifyInvariant(); err != nil {
			p.InvariantOK = false
			p.InvariantError = err.Error()
			pos.InvariantViolations++
			s.log(ctx).Error("bank account balance does not match its movements",
				zap.String("account_id", a.ID.String()),
				zap.Error(err))
		}
		if usd.RateMissing {
			pos.RateMissingCount++
		}
		if a.Currency == valueobject.Bs {
			pos.TotalBs = pos.TotalBs.Add(a.Balance)
		} else {
			pos.TotalUSD = pos.TotalUSD.Add(a.Balance)
		}
		pos.TotalUSDValue = pos.TotalUSDValue.Add(usd.Amount)
		pos.Accounts = append(pos.Accounts, p)
	}
	pos.TotalUSDValue = pos.TotalUSDValue.Round(valueobject.DisplayPlaces)
	s.metrics.RecordRateMissing(ctx, "bank_account", pos.RateMissingCount)
	return pos, nil
}

// errorCode returns the domain error code carried by err, or "" for other failures
func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
