package models

import (
	"sort"
	"time"

	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CommissionProfileModel stores one cashier's commission profile.
// Percent tables are kept as JSON documents keyed by branch or tag.
type CommissionProfileModel struct {
	CashierID       string                     `gorm:"type:varchar(64);primary_key"`
	Mode            string                     `gorm:"type:varchar(20);not null"`
	Base            string                     `gorm:"type:varchar(20);not null"`
	FlatPercent     decimal.Decimal            `gorm:"type:decimal(5,2);not null"`
	BranchPercents  map[string]decimal.Decimal `gorm:"serializer:json;type:text"`
	TagPercents     map[string]decimal.Decimal `gorm:"serializer:json;type:text"`
	SpecialBranches []string                   `gorm:"serializer:json;type:text"`
	UpdatedAt       time.Time                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CommissionProfileModel) TableName() string {
	return "commission_profiles"
}

// ToDomain converts the persistence model to a domain Profile
func (m *CommissionProfileModel) ToDomain() *commission.Profile {
	p := &commission.Profile{
		CashierID:   shared.CashierID(m.CashierID),
		Mode:        commission.Mode(m.Mode),
		Base:        commission.Base(m.Base),
		FlatPercent: m.FlatPercent,
	}
	if len(m.BranchPercents) > 0 {
		p.BranchPercents = make(map[shared.BranchID]decimal.Decimal, len(m.BranchPercents))
		for k, v := range m.BranchPercents {
			p.BranchPercents[shared.BranchID(k)] = v
		}
	}
	if len(m.TagPercents) > 0 {
		p.TagPercents = make(map[commission.Tag]decimal.Decimal, len(m.TagPercents))
		for k, v := range m.TagPercents {
			p.TagPercents[commission.Tag(k)] = v
		}
	}
	if len(m.SpecialBranches) > 0 {
		p.SpecialBranches = make(map[shared.BranchID]struct{}, len(m.SpecialBranches))
		for _, b := range m.SpecialBranches {
			p.SpecialBranches[shared.BranchID(b)] = struct{}{}
		}
	}
	return p
}

// FromDomain populates the model from a domain Profile
func (m *CommissionProfileModel) FromDomain(p *commission.Profile) {
	m.CashierID = string(p.CashierID)
	m.Mode = string(p.Mode)
	m.Base = string(p.Base)
	m.FlatPercent = p.FlatPercent
	m.BranchPercents = make(map[string]decimal.Decimal, len(p.BranchPercents))
	for k, v := range p.BranchPercents {
		m.BranchPercents[string(k)] = v
	}
	m.TagPercents = make(map[string]decimal.Decimal, len(p.TagPercents))
	for k, v := range p.TagPercents {
		m.TagPercents[string(k)] = v
	}
	m.SpecialBranches = make([]string, 0, len(p.SpecialBranches))
	for b := range p.SpecialBranches {
		m.SpecialBranches = append(m.SpecialBranches, string(b))
	}
	sort.Strings(m.SpecialBranches)
}
