package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommissionProfileRepository implements ProfileRepository using GORM
type GormCommissionProfileRepository struct {
	db *gorm.DB
}

// NewGormCommissionProfileRepository creates a new GormCommissionProfileRepository
func NewGormCommissionProfileRepository(db *gorm.DB) *GormCommissionProfileRepository {
	return &GormCommissionProfileRepository{db: db}
}

// FindByCashier returns the cashier's profile
func (r *GormCommissionProfileRepository) FindByCashier(ctx context.Context, cashierID shared.CashierID) (*commission.Profile, error) {
	var model models.CommissionProfileModel
	if err := r.db.WithContext(ctx).First(&model, "cashier_id = ?", string(cashierID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save validates and creates or replaces the cashier's profile
func (r *GormCommissionProfileRepository) Save(ctx context.Context, p *commission.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	var model models.CommissionProfileModel
	model.FromDomain(p)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cashier_id"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// Ensure GormCommissionProfileRepository implements ProfileRepository
var _ commission.ProfileRepository = (*GormCommissionProfileRepository)(nil)
