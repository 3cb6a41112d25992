package models

import (
	"time"

	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccountModel is the persistence model for a bank account.
// Movements live in their own append-only table.
type BankAccountModel struct {
	AggregateModel
	Name       string          `gorm:"type:varchar(200);not null"`
	Bank       string          `gorm:"type:varchar(200)"`
	Currency   string          `gorm:"type:varchar(3);not null"`
	Balance    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	FeePercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain rebuilds the account with its movements in booking order
func (m *BankAccountModel) ToDomain(movements []BankMovementModel) *bank.Account {
	a := &bank.Account{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Bank:              m.Bank,
		Currency:          valueobject.Currency(m.Currency),
		Balance:           m.Balance,
		FeePercent:        m.FeePercent,
		Movements:         make([]bank.Movement, 0, len(movements)),
	}
	for i := range movements {
		a.Movements = append(a.Movements, movements[i].ToDomain())
	}
	return a
}

// FromDomain populates the model from a domain Account
func (m *BankAccountModel) FromDomain(a *bank.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Name = a.Name
	m.Bank = a.Bank
	m.Currency = string(a.Currency)
	m.Balance = a.Balance
	m.FeePercent = a.FeePercent
}

// BankMovementModel is one ledger movement. Seq orders movements within an
// account. (account_id, seq) and (account_id, idempotency_key) are unique.
type BankMovementModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	AccountID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bank_movement_seq,priority:1;uniqueIndex:idx_bank_movement_key,priority:1"`
	Seq              int             `gorm:"not null;uniqueIndex:idx_bank_movement_seq,priority:2"`
	Type             string          `gorm:"type:varchar(20);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	ExchangeRateUsed decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AccountAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	FeePercent       decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	FeeAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	USDEquivalent    decimal.Decimal `gorm:"column:usd_equivalent;type:decimal(18,4);not null"`
	RateMissing      bool            `gorm:"not null;default:false"`
	BalanceAfter     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Concept          string          `gorm:"type:varchar(500)"`
	Reference        string          `gorm:"type:varchar(100)"`
	IdempotencyKey   *string         `gorm:"type:varchar(200);uniqueIndex:idx_bank_movement_key,priority:2"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BankMovementModel) TableName() string {
	return "bank_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *BankMovementModel) ToDomain() bank.Movement {
	mv := bank.Movement{
		ID:               m.ID,
		AccountID:        m.AccountID,
		Type:             bank.MovementType(m.Type),
		Amount:           m.Amount,
		Currency:         valueobject.Currency(m.Currency),
		ExchangeRateUsed: valueobject.NewExchangeRate(m.ExchangeRateUsed),
		AccountAmount:    m.AccountAmount,
		FeePercent:       m.FeePercent,
		FeeAmount:        m.FeeAmount,
		NetAmount:        m.NetAmount,
		USDEquivalent:    m.USDEquivalent,
		RateMissing:      m.RateMissing,
		BalanceAfter:     m.BalanceAfter,
		Concept:          m.Concept,
		Reference:        m.Reference,
		CreatedAt:        m.CreatedAt,
	}
	if m.IdempotencyKey != nil {
		mv.IdempotencyKey = *m.IdempotencyKey
	}
	return mv
}

// BankMovementModelFromDomain creates a persistence model for the movement at position seq
func BankMovementModelFromDomain(mv bank.Movement, seq int) *BankMovementModel {
	m := &BankMovementModel{
		ID:               mv.ID,
		AccountID:        mv.AccountID,
		Seq:              seq,
		Type:             string(mv.Type),
		Amount:           mv.Amount,
		Currency:         string(mv.Currency),
		ExchangeRateUsed: mv.ExchangeRateUsed.Decimal(),
		AccountAmount:    mv.AccountAmount,
		FeePercent:       mv.FeePercent,
		FeeAmount:        mv.FeeAmount,
		NetAmount:        mv.NetAmount,
		USDEquivalent:    mv.USDEquivalent,
		RateMissing:      mv.RateMissing,
		BalanceAfter:     mv.BalanceAfter,
		Concept:          mv.Concept,
		Reference:        mv.Reference,
		CreatedAt:        mv.CreatedAt,
	}
	if mv.IdempotencyKey != "" {
		key := mv.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}
