package persistence

import (
	"context"
	"testing"

	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormExpenseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormExpenseRepository(newTestDB(t))

	rate := valueobject.NewExchangeRate(decimal.NewFromInt(40))
	bs, err := finance.NewExpense("b1", "2024-03-02", valueobject.NewBs(decimal.NewFromInt(800)), rate, "limpieza")
	require.NoError(t, err)
	usd, err := finance.NewExpense("b2", "2024-03-03", valueobject.NewUSD(decimal.NewFromInt(25)), valueobject.NoRate(), "flete")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, bs))
	require.NoError(t, repo.Save(ctx, usd))

	loaded, err := repo.FindByID(ctx, bs.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.Bs, loaded.Currency)
	assert.True(t, loaded.USDEquivalent().Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, finance.ExpenseStatusPending, loaded.Status)

	require.NoError(t, loaded.Verify("admin"))
	require.NoError(t, repo.Save(ctx, loaded))

	all, err := repo.Find(ctx, finance.Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, finance.ExpenseStatusVerified, all[0].Status)

	onlyB2, err := repo.Find(ctx, finance.Query{BranchID: "b2"})
	require.NoError(t, err)
	require.Len(t, onlyB2, 1)
	assert.False(t, onlyB2[0].ExchangeRate.IsUsable())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceAndPaymentRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	invoices := NewGormInvoiceRepository(db)
	payments := NewGormPaymentRepository(db)

	rate := valueobject.NewExchangeRate(decimal.NewFromInt(36))
	inv, err := finance.NewInvoice("b1", "Drogueria Central", valueobject.NewBs(decimal.NewFromInt(3600)), rate, "2024-02-10")
	require.NoError(t, err)
	inv.DueDate = "2024-03-10"
	require.NoError(t, invoices.Save(ctx, inv))

	p1, err := finance.NewPayment(&inv.ID, "b1", valueobject.NewUSD(decimal.NewFromInt(60)), valueobject.NoRate(), finance.PaymentStatusPartial, "2024-02-20")
	require.NoError(t, err)
	p2, err := finance.NewPayment(&inv.ID, "b1", valueobject.NewBs(decimal.NewFromInt(1600)), valueobject.NewExchangeRate(decimal.NewFromInt(40)), finance.PaymentStatusPaid, "2024-03-01")
	require.NoError(t, err)
	loose, err := finance.NewPayment(nil, "b1", valueobject.NewUSD(decimal.NewFromInt(5)), valueobject.NoRate(), finance.PaymentStatusPaid, "2024-03-02")
	require.NoError(t, err)
	for _, p := range []*finance.Payment{p1, p2, loose} {
		require.NoError(t, payments.Save(ctx, p))
	}

	require.NoError(t, inv.MarkPaid())
	require.NoError(t, invoices.Save(ctx, inv))

	loaded, err := invoices.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.InvoiceStatusPaid, loaded.Status)
	assert.Equal(t, valueobject.Day("2024-03-10"), loaded.DueDate)
	assert.True(t, loaded.OriginalAmountUSD().Amount.Equal(decimal.NewFromInt(100)))

	linked, err := payments.FindByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, p1.ID, linked[0].ID)

	march, err := valueobject.NewDateRange("2024-03-01", "")
	require.NoError(t, err)
	recent, err := payments.Find(ctx, finance.Query{BranchID: "b1", Range: march})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Nil(t, recent[1].InvoiceID)

	all, err := payments.Find(ctx, finance.Query{})
	require.NoError(t, err)
	sum := finance.PaymentsTotals([]*finance.Invoice{loaded}, all, "")
	assert.True(t, sum.FacturadoUSD.Equal(decimal.NewFromInt(100)))
	assert.True(t, sum.PagosGeneralUSD.Equal(decimal.NewFromInt(100)))
	assert.True(t, sum.UnlinkedPaymentsUSD.Equal(decimal.NewFromInt(5)))
}

func TestGormInvoiceRepository_StaleSave(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(newTestDB(t))

	inv, err := finance.NewInvoice("b1", "Drogueria Central", valueobject.NewUSD(decimal.NewFromInt(90)), valueobject.NoRate(), "2024-02-10")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inv))

	paying, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	voiding, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)

	require.NoError(t, paying.MarkPaid())
	require.NoError(t, repo.Save(ctx, paying))

	require.NoError(t, voiding.Void())
	assert.ErrorIs(t, repo.Save(ctx, voiding), shared.ErrInvalidState)

	stored, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.InvoiceStatusPaid, stored.Status)
}

func TestGormExpenseRepository_StaleSave(t *testing.T) {
	ctx := context.Background()
	repo := NewGormExpenseRepository(newTestDB(t))

	e, err := finance.NewExpense("b1", "2024-03-02", valueobject.NewUSD(decimal.NewFromInt(25)), valueobject.NoRate(), "flete")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, e))

	a, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	b, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)

	require.NoError(t, a.Deny("admin"))
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, b.Verify("admin"))
	assert.ErrorIs(t, repo.Save(ctx, b), ErrStaleRecord)

	stored, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.ExpenseStatusDenied, stored.Status)
}
