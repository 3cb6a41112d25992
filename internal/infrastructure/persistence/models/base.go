package models

import (
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel provides the persistence fields shared by aggregate roots,
// including the version used for optimistic locking.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from a domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

// ToDomainAggregateRoot returns the domain BaseAggregateRoot for the model
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

// All lists every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&ReconciliationModel{},
		&ExpenseModel{},
		&InvoiceModel{},
		&PaymentModel{},
		&BankAccountModel{},
		&BankMovementModel{},
		&CommissionProfileModel{},
	}
}
