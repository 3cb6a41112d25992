package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockReconciliationRepository creates a repository over a mocked postgres connection
func newMockReconciliationRepository(t *testing.T) (*GormReconciliationRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormReconciliationRepository(gormDB), mock, mockDB
}

func sampleInput(branch, cashier, day string) till.Input {
	return till.Input{
		BranchID:        shared.BranchID(branch),
		CashierID:       shared.CashierID(cashier),
		CashierName:     "Ana",
		Day:             valueobject.Day(day),
		TillNumber:      2,
		Shift:           till.ShiftMorning,
		ExchangeRate:    decimal.NewFromInt(40),
		SystemTotalBs:   decimal.NewFromInt(4000),
		CashBs:          decimal.NewFromInt(2000),
		MobilePaymentBs: decimal.NewFromInt(1200),
		CashUSD:         decimal.NewFromInt(15),
		CardPoints: []till.CardPoint{
			{Bank: "Banesco", DebitBs: decimal.NewFromInt(600), CreditBs: decimal.NewFromInt(200)},
		},
	}
}

func TestGormReconciliationRepository_Find_SQL(t *testing.T) {
	t.Run("filters by branch, cashier, range and status", func(t *testing.T) {
		repo, mock, mockDB := newMockReconciliationRepository(t)
		defer mockDB.Close()

		rng, err := valueobject.NewDateRange("2024-03-01", "2024-03-31")
		require.NoError(t, err)
		status := till.StatusVerified

		rows := sqlmock.NewRows([]string{"id", "branch_id", "cashier_id", "day", "status", "exchange_rate", "cash_usd"}).
			AddRow(uuid.New().String(), "b1", "c1", "2024-03-05", "verified", "40", "10")

		mock.ExpectQuery(`SELECT \* FROM "reconciliations" WHERE branch_id = \$1 AND cashier_id = \$2 AND status = \$3 AND day >= \$4 AND day <= \$5 ORDER BY day, created_at`).
			WithArgs("b1", "c1", "verified", "2024-03-01", "2024-03-31").
			WillReturnRows(rows)

		got, err := repo.Find(context.Background(), till.Query{BranchID: "b1", CashierID: "c1", Range: rng, Status: &status})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, till.StatusVerified, got[0].Status)
		assert.True(t, got[0].TotalUSD.Equal(decimal.NewFromInt(10)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open query has no where clause", func(t *testing.T) {
		repo, mock, mockDB := newMockReconciliationRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "reconciliations" ORDER BY day, created_at`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		got, err := repo.Find(context.Background(), till.Query{})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inverted range never reaches the database", func(t *testing.T) {
		repo, mock, mockDB := newMockReconciliationRepository(t)
		defer mockDB.Close()

		from, to := valueobject.Day("2024-03-10"), valueobject.Day("2024-03-01")
		_, err := repo.Find(context.Background(), till.Query{Range: valueobject.DateRange{From: &from, To: &to}})
		assert.ErrorIs(t, err, shared.ErrInvalidDateRange)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReconciliationRepository_FindByID_NotFound(t *testing.T) {
	repo, mock, mockDB := newMockReconciliationRepository(t)
	defer mockDB.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "reconciliations" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(id, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReconciliationRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReconciliationRepository(newTestDB(t))

	rec, err := till.NewReconciliation(sampleInput("b1", "c1", "2024-03-05"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rec))

	loaded, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, till.StatusPending, loaded.Status)
	assert.Equal(t, valueobject.Day("2024-03-05"), loaded.Day)
	require.Len(t, loaded.CardPoints, 1)
	assert.Equal(t, "Banesco", loaded.CardPoints[0].Bank)
	assert.True(t, loaded.TotalUSD.Equal(rec.TotalUSD), "figures are recomputed on read")
	assert.True(t, loaded.ShortageUSD.Equal(rec.ShortageUSD))

	require.NoError(t, loaded.Verify("supervisor"))
	require.NoError(t, repo.Save(ctx, loaded))

	again, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, till.StatusVerified, again.Status)
	assert.Equal(t, "supervisor", again.DecidedBy)
	require.NotNil(t, again.DecidedAt)
	assert.Equal(t, loaded.Version, again.Version)
}

func TestGormReconciliationRepository_FindFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReconciliationRepository(newTestDB(t))

	for _, in := range []till.Input{
		sampleInput("b1", "c1", "2024-03-01"),
		sampleInput("b1", "c2", "2024-03-15"),
		sampleInput("b2", "c1", "2024-03-20"),
		sampleInput("b1", "c1", "2024-04-02"),
	} {
		rec, err := till.NewReconciliation(in)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, rec))
	}

	march, err := valueobject.NewDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)

	got, err := repo.Find(ctx, till.Query{BranchID: "b1", Range: march})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, valueobject.Day("2024-03-01"), got[0].Day)
	assert.Equal(t, valueobject.Day("2024-03-15"), got[1].Day)

	got, err = repo.Find(ctx, till.Query{CashierID: "c1"})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	pending := till.StatusPending
	got, err = repo.Find(ctx, till.Query{Status: &pending, Range: march})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestGormReconciliationRepository_StaleDecision(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReconciliationRepository(newTestDB(t))

	rec, err := till.NewReconciliation(sampleInput("b1", "c1", "2024-03-05"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rec))

	first, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)

	require.NoError(t, first.Verify("supervisor"))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Deny("auditor", "faltante"))
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, ErrStaleRecord)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	stored, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, till.StatusVerified, stored.Status)
	assert.Equal(t, "supervisor", stored.DecidedBy)
	assert.Equal(t, 2, stored.Version)
}

func TestGormReconciliationRepository_SaveExistingIDAsNew(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReconciliationRepository(newTestDB(t))

	in := sampleInput("b1", "c1", "2024-03-05")
	in.ID = uuid.New()
	original := till.FromInput(in)
	require.NoError(t, repo.Save(ctx, original))

	in.Status = till.StatusDenied
	err := repo.Save(ctx, till.FromInput(in))
	assert.ErrorIs(t, err, ErrStaleRecord)

	stored, err := repo.FindByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, till.StatusPending, stored.Status)
}
