package persistence

import (
	"errors"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleRecord is returned when a row changed between being loaded and being saved
var ErrStaleRecord = shared.NewDomainError(shared.CodeInvalidState, "Record has been modified concurrently")

// saveVersioned inserts a new aggregate row or updates a stored one with
// optimistic locking. Every domain transition bumps the version once, so the
// stored row must be exactly one version behind the model being saved.
func saveVersioned(db *gorm.DB, model any, id uuid.UUID, version int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).
			Where("id = ? AND version = ?", id, version-1).
			Select("*").
			Updates(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var exists int64
		if err := tx.Model(model).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return ErrStaleRecord
		}
		if err := tx.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrStaleRecord
			}
			return err
		}
		return nil
	})
}
