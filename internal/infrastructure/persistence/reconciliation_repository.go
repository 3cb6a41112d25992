package persistence

import (
	"context"
	"errors"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReconciliationRepository implements ReconciliationRepository using GORM
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// FindByID finds a reconciliation by its ID
func (r *GormReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*till.Reconciliation, error) {
	var model models.ReconciliationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Find returns the reconciliations matching q ordered by day, voided ones included
func (r *GormReconciliationRepository) Find(ctx context.Context, q till.Query) ([]*till.Reconciliation, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	var rows []models.ReconciliationModel
	if err := r.db.WithContext(ctx).
		Scopes(branchScope(q.BranchID), cashierScope(q.CashierID), statusScope(q.Status), dayRange("day", q.Range)).
		Order("day, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*till.Reconciliation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

func cashierScope(id shared.CashierID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id.IsZero() {
			return db
		}
		return db.Where("cashier_id = ?", string(id))
	}
}

func statusScope(status *till.Status) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == nil {
			return db
		}
		return db.Where("status = ?", string(*status))
	}
}

// Save creates a reconciliation or stores a decision on it. A copy loaded
// before another decision was saved is rejected with ErrStaleRecord.
func (r *GormReconciliationRepository) Save(ctx context.Context, rec *till.Reconciliation) error {
	model := models.ReconciliationModelFromDomain(rec)
	return saveVersioned(r.db.WithContext(ctx), model, rec.ID, rec.Version)
}

// Ensure GormReconciliationRepository implements ReconciliationRepository
var _ till.ReconciliationRepository = (*GormReconciliationRepository)(nil)
