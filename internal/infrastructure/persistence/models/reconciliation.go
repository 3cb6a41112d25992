package models

import (
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/shopspring/decimal"
)

// ReconciliationModel stores the inputs and lifecycle of a till reconciliation.
// Derived figures are not stored; they are recomputed when the row is read.
type ReconciliationModel struct {
	AggregateModel
	BranchID        string           `gorm:"type:varchar(64);not null;index:idx_reconciliation_branch_day,priority:1"`
	CashierID       string           `gorm:"type:varchar(64);not null;index"`
	CashierName     string           `gorm:"type:varchar(200)"`
	Day             string           `gorm:"type:varchar(10);not null;index:idx_reconciliation_branch_day,priority:2"`
	TillNumber      int              `gorm:"not null;default:0"`
	Shift           string           `gorm:"type:varchar(20);not null"`
	ExchangeRate    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	SystemTotalBs   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ReturnsBs       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	RechargeBs      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	MobilePaymentBs decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CashBs          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CashUSD         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ZelleUSD        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	VoucherUSD      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CardPoints      []till.CardPoint `gorm:"serializer:json;type:text"`
	Status          string           `gorm:"type:varchar(20);not null;index"`
	DecidedBy       string           `gorm:"type:varchar(100)"`
	DecidedAt       *time.Time
	DenialReason    string `gorm:"type:varchar(500)"`
	Voided          bool   `gorm:"not null;default:false"`
	VoidReason      string `gorm:"type:varchar(500)"`
	VoidedAt        *time.Time
}

// TableName returns the table name for GORM
func (ReconciliationModel) TableName() string {
	return "reconciliations"
}

// ToDomain rebuilds the reconciliation and recomputes its figures
func (m *ReconciliationModel) ToDomain() *till.Reconciliation {
	r := till.FromInput(till.Input{
		ID:              m.ID,
		BranchID:        shared.BranchID(m.BranchID),
		CashierID:       shared.CashierID(m.CashierID),
		CashierName:     m.CashierName,
		Day:             valueobject.Day(m.Day),
		TillNumber:      m.TillNumber,
		Shift:           till.Shift(m.Shift),
		ExchangeRate:    m.ExchangeRate,
		SystemTotalBs:   m.SystemTotalBs,
		ReturnsBs:       m.ReturnsBs,
		RechargeBs:      m.RechargeBs,
		MobilePaymentBs: m.MobilePaymentBs,
		CashBs:          m.CashBs,
		CashUSD:         m.CashUSD,
		ZelleUSD:        m.ZelleUSD,
		VoucherUSD:      m.VoucherUSD,
		CardPoints:      m.CardPoints,
		Status:          till.Status(m.Status),
		Voided:          m.Voided,
	})
	r.BaseAggregateRoot = m.ToDomainAggregateRoot()
	r.DecidedBy = m.DecidedBy
	r.DecidedAt = m.DecidedAt
	r.DenialReason = m.DenialReason
	r.VoidReason = m.VoidReason
	r.VoidedAt = m.VoidedAt
	return r
}

// FromDomain populates the model from a domain reconciliation
func (m *ReconciliationModel) FromDomain(r *till.Reconciliation) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.BranchID = string(r.BranchID)
	m.CashierID = string(r.CashierID)
	m.CashierName = r.CashierName
	m.Day = r.Day.String()
	m.TillNumber = r.TillNumber
	m.Shift = string(r.Shift)
	m.ExchangeRate = r.ExchangeRate.Decimal()
	m.SystemTotalBs = r.SystemTotalBs
	m.ReturnsBs = r.ReturnsBs
	m.RechargeBs = r.RechargeBs
	m.MobilePaymentBs = r.MobilePaymentBs
	m.CashBs = r.CashBs
	m.CashUSD = r.CashUSD
	m.ZelleUSD = r.ZelleUSD
	m.VoucherUSD = r.VoucherUSD
	m.CardPoints = r.CardPoints
	m.Status = string(r.Status)
	m.DecidedBy = r.DecidedBy
	m.DecidedAt = r.DecidedAt
	m.DenialReason = r.DenialReason
	m.Voided = r.Voided
	m.VoidReason = r.VoidReason
	m.VoidedAt = r.VoidedAt
}

// ReconciliationModelFromDomain creates a persistence model from a domain reconciliation
func ReconciliationModelFromDomain(r *till.Reconciliation) *ReconciliationModel {
	m := &ReconciliationModel{}
	m.FromDomain(r)
	return m
}
