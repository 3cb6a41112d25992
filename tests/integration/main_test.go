package integration

import (
	"os"
	"testing"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/shopspring/decimal"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func closing(branch, cashier, day string) till.Input {
	return till.Input{
		BranchID:        shared.BranchID(branch),
		CashierID:       shared.CashierID(cashier),
		CashierName:     "Ana",
		Day:             valueobject.Day(day),
		TillNumber:      1,
		Shift:           till.ShiftMorning,
		ExchangeRate:    d("40"),
		SystemTotalBs:   d("4000"),
		RechargeBs:      d("400"),
		CashBs:          d("2000"),
		MobilePaymentBs: d("1200"),
		CashUSD:         d("15"),
		CardPoints: []till.CardPoint{
			{Bank: "Banesco", DebitBs: d("600"), CreditBs: d("200")},
		},
	}
}
