package persistence

import (
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// dayRange restricts column to the inclusive range. Days are stored as
// YYYY-MM-DD text, so string comparison orders them correctly.
func dayRange(column string, r valueobject.DateRange) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.From != nil {
			db = db.Where(column+" >= ?", r.From.String())
		}
		if r.To != nil {
			db = db.Where(column+" <= ?", r.To.String())
		}
		return db
	}
}

// branchScope restricts to one branch; the empty branch matches all
func branchScope(branchID shared.BranchID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if branchID.IsZero() {
			return db
		}
		return db.Where("branch_id = ?", string(branchID))
	}
}
