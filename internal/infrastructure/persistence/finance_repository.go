package persistence

import (
	"context"
	"errors"

	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Find returns the branch's expenses dated inside the range
func (r *GormExpenseRepository) Find(ctx context.Context, q finance.Query) ([]*finance.Expense, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Scopes(branchScope(q.BranchID), dayRange("date", q.Range)).
		Order("date, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*finance.Expense, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates an expense with optimistic locking
func (r *GormExpenseRepository) Save(ctx context.Context, e *finance.Expense) error {
	var model models.ExpenseModel
	model.FromDomain(e)
	return saveVersioned(r.db.WithContext(ctx), &model, e.ID, e.Version)
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Find returns the branch's invoices issued inside the range
func (r *GormInvoiceRepository) Find(ctx context.Context, q finance.Query) ([]*finance.Invoice, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Scopes(branchScope(q.BranchID), dayRange("issue_date", q.Range)).
		Order("issue_date, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*finance.Invoice, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates an invoice with optimistic locking
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *finance.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(inv)
	return saveVersioned(r.db.WithContext(ctx), &model, inv.ID, inv.Version)
}

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Find returns the branch's payments dated inside the range
func (r *GormPaymentRepository) Find(ctx context.Context, q finance.Query) ([]*finance.Payment, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(branchScope(q.BranchID), dayRange("date", q.Range)).
		Order("date, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindByInvoice returns every payment made against an invoice
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("date, created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *finance.Payment) error {
	var model models.PaymentModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&model).Error
}

func paymentsToDomain(rows []models.PaymentModel) []*finance.Payment {
	out := make([]*finance.Payment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var (
	_ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
	_ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
	_ finance.PaymentRepository = (*GormPaymentRepository)(nil)
)
