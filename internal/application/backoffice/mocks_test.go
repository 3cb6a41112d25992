package backoffice

import (
	"context"

	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockReconciliationRepository is a mock implementation of till.ReconciliationRepository
type MockReconciliationRepository struct {
	mock.Mock
}

func (m *MockReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*till.Reconciliation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*till.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) Find(ctx context.Context, q till.Query) ([]*till.Reconciliation, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*till.Reconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) Save(ctx context.Context, r *till.Reconciliation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockExpenseRepository is a mock implementation of finance.ExpenseRepository
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Find(ctx context.Context, q finance.Query) ([]*finance.Expense, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Save(ctx context.Context, e *finance.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of finance.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Find(ctx context.Context, q finance.Query) ([]*finance.Invoice, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *finance.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of finance.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Find(ctx context.Context, q finance.Query) ([]*finance.Payment, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *finance.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockProfileRepository is a mock implementation of commission.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByCashier(ctx context.Context, cashierID shared.CashierID) (*commission.Profile, error) {
	args := m.Called(ctx, cashierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Profile), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, p *commission.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockAccountRepository is a mock implementation of bank.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*bank.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bank.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context) ([]*bank.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bank.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, a *bank.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type mocks struct {
	recs     *MockReconciliationRepository
	expenses *MockExpenseRepository
	invoices *MockInvoiceRepository
	payments *MockPaymentRepository
	profiles *MockProfileRepository
	accounts *MockAccountRepository
	events   *MockEventPublisher
}

func newMocks() *mocks {
	return &mocks{
		recs:     new(MockReconciliationRepository),
		expenses: new(MockExpenseRepository),
		invoices: new(MockInvoiceRepository),
		payments: new(MockPaymentRepository),
		profiles: new(MockProfileRepository),
		accounts: new(MockAccountRepository),
		events:   new(MockEventPublisher),
	}
}

func (m *mocks) repositories() Repositories {
	return Repositories{
		Reconciliations: m.recs,
		Expenses:        m.expenses,
		Invoices:        m.invoices,
		Payments:        m.payments,
		Profiles:        m.profiles,
		Accounts:        m.accounts,
	}
}

func (m *mocks) service(opts Options) *Service {
	return NewService(m.repositories(), nil, m.events, nil, nil, opts)
}
