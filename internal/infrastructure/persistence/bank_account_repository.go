package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrAccountConflict is returned when an account changed in the database
// between being loaded and being saved
var ErrAccountConflict = shared.NewDomainError(shared.CodeInvalidState, "Bank account has been modified concurrently")

// GormBankAccountRepository implements AccountRepository using GORM.
// Movements are append-only: Save inserts the movements the stored account
// does not have yet and never rewrites existing ones.
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID loads an account with its movements in booking order
func (r *GormBankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*bank.Account, error) {
	db := r.db.WithContext(ctx)
	var model models.BankAccountModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	var movements []models.BankMovementModel
	if err := db.Where("account_id = ?", id).Order("seq").Find(&movements).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(movements), nil
}

// FindAll loads every account ordered by name
func (r *GormBankAccountRepository) FindAll(ctx context.Context) ([]*bank.Account, error) {
	db := r.db.WithContext(ctx)
	var accounts []models.BankAccountModel
	if err := db.Order("name, id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return []*bank.Account{}, nil
	}

	ids := make([]uuid.UUID, len(accounts))
	for i := range accounts {
		ids[i] = accounts[i].ID
	}
	var movements []models.BankMovementModel
	if err := db.Where("account_id IN ?", ids).Order("account_id, seq").Find(&movements).Error; err != nil {
		return nil, err
	}
	byAccount := make(map[uuid.UUID][]models.BankMovementModel, len(accounts))
	for _, m := range movements {
		byAccount[m.AccountID] = append(byAccount[m.AccountID], m)
	}

	out := make([]*bank.Account, len(accounts))
	for i := range accounts {
		out[i] = accounts[i].ToDomain(byAccount[accounts[i].ID])
	}
	return out, nil
}

// Save persists the account header and appends its new movements in one
// transaction. The header update is guarded by the version the account had
// when it was loaded; a mismatch returns ErrAccountConflict.
func (r *GormBankAccountRepository) Save(ctx context.Context, a *bank.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var storedIDs []uuid.UUID
		if err := tx.Model(&models.BankMovementModel{}).Where("account_id = ?", a.ID).
			Order("seq").Pluck("id", &storedIDs).Error; err != nil {
			return err
		}
		if len(storedIDs) > len(a.Movements) {
			return ErrAccountConflict
		}
		// the stored ledger must be a prefix of the one being saved
		for i, id := range storedIDs {
			if a.Movements[i].ID != id {
				return ErrAccountConflict
			}
		}
		stored := len(storedIDs)
		fresh := a.Movements[stored:]
		expected := a.Version - len(fresh)

		var header models.BankAccountModel
		header.FromDomain(a)
		res := tx.Model(&models.BankAccountModel{}).
			Where("id = ? AND version = ?", a.ID, expected).
			Updates(map[string]any{
				"name":        header.Name,
				"bank":        header.Bank,
				"balance":     header.Balance,
				"fee_percent": header.FeePercent,
				"version":     header.Version,
				"updated_at":  header.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.BankAccountModel{}).Where("id = ?", a.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				return ErrAccountConflict
			}
			if err := tx.Create(&header).Error; err != nil {
				return fmt.Errorf("create bank account: %w", err)
			}
		}

		for i, mv := range fresh {
			if err := tx.Create(models.BankMovementModelFromDomain(mv, stored+i+1)).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					if mv.IdempotencyKey == "" {
						return ErrAccountConflict
					}
					return shared.NewDomainError(shared.CodeDuplicateMovement,
						fmt.Sprintf("movement %q was already applied", mv.IdempotencyKey))
				}
				return fmt.Errorf("append bank movement: %w", err)
			}
		}
		return nil
	})
}

// Ensure GormBankAccountRepository implements AccountRepository
var _ bank.AccountRepository = (*GormBankAccountRepository)(nil)
