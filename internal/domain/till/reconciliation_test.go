package till

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validInput() Input {
	return Input{
		BranchID:        "centro",
		CashierID:       "maria",
		CashierName:     "María",
		Day:             "2024-03-05",
		TillNumber:      2,
		Shift:           ShiftMorning,
		ExchangeRate:    d("40.5"),
		SystemTotalBs:   d("69000"),
		ReturnsBs:       d("500"),
		RechargeBs:      d("1000"),
		MobilePaymentBs: d("5000"),
		CashBs:          d("24000"),
		CashUSD:         d("200"),
		ZelleUSD:        d("800"),
		VoucherUSD:      d("15"),
		CardPoints: []CardPoint{
			{Bank: "Banesco", DebitBs: d("3000"), CreditBs: d("500")},
			{Bank: "Mercantil", DebitBs: d("1000")},
		},
	}
}

func TestFromInput_DerivedFigures(t *testing.T) {
	r := FromInput(validInput())

	assert.True(t, r.CardBs.Equal(d("4500")))
	// 1000 + 5000 + 24000 + 4500 - 500
	assert.True(t, r.BsSubtotal.Equal(d("34000")))
	assert.True(t, r.PendingBsSubtotal.Equal(d("34500")))
	assert.True(t, r.USDSubtotal.Equal(d("1000")))
	assert.Equal(t, "1839.51", r.TotalUSD.StringFixed(2))
	// (34000 - 1000) / 40.5 = 814.81
	assert.Equal(t, "1814.81", r.TotalUSDExclRecharge.StringFixed(2))
	assert.Equal(t, "1851.85", r.PendingUSD.StringFixed(2))
	assert.Equal(t, "1703.70", r.ExpectedUSD.StringFixed(2))
	assert.Equal(t, "135.80", r.OverageUSD.StringFixed(2))
	assert.True(t, r.ShortageUSD.IsZero())
	assert.False(t, r.RateMissing)
}

func TestFromInput_Scenario(t *testing.T) {
	r := FromInput(Input{
		CashBs:          d("24000"),
		MobilePaymentBs: d("5000"),
		ExchangeRate:    d("40.5"),
		CashUSD:         d("200"),
		ZelleUSD:        d("800"),
		ReturnsBs:       d("500"),
		Status:          StatusVerified,
	})
	assert.True(t, r.BsSubtotal.Equal(d("28500")))
	assert.Equal(t, "1703.70", r.TotalUSD.StringFixed(2))
}

func TestFromInput_Shortage(t *testing.T) {
	in := validInput()
	in.SystemTotalBs = d("81000") // expects 2000 USD
	r := FromInput(in)

	assert.Equal(t, "160.49", r.ShortageUSD.StringFixed(2))
	assert.True(t, r.OverageUSD.IsZero())
	assert.True(t, r.DiscrepancyUSD().IsNegative())
}

func TestFromInput_MissingRate(t *testing.T) {
	in := validInput()
	in.ExchangeRate = decimal.Zero
	r := FromInput(in)

	assert.True(t, r.RateMissing)
	assert.True(t, r.TotalUSD.Equal(d("1000")), "Bs portion contributes 0")
	assert.True(t, r.ShortageUSD.IsZero())
	assert.True(t, r.OverageUSD.IsZero())
}

func TestFromInput_DefaultsUnknownEnums(t *testing.T) {
	r := FromInput(Input{Status: "weird", Shift: "graveyard"})
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, ShiftUnknown, r.Shift)
}

func TestShortageOverageExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		in := Input{
			ExchangeRate:    decimal.NewFromFloat(rng.Float64() * 60).Round(2),
			SystemTotalBs:   decimal.NewFromFloat(rng.Float64() * 100000).Round(2),
			ReturnsBs:       decimal.NewFromFloat(rng.Float64() * 1000).Round(2),
			RechargeBs:      decimal.NewFromFloat(rng.Float64() * 5000).Round(2),
			MobilePaymentBs: decimal.NewFromFloat(rng.Float64() * 20000).Round(2),
			CashBs:          decimal.NewFromFloat(rng.Float64() * 30000).Round(2),
			CashUSD:         decimal.NewFromFloat(rng.Float64() * 500).Round(2),
			ZelleUSD:        decimal.NewFromFloat(rng.Float64() * 500).Round(2),
		}
		if rng.Intn(10) == 0 {
			in.ExchangeRate = decimal.Zero
		}
		r := FromInput(in)
		assert.True(t, r.ShortageUSD.Mul(r.OverageUSD).IsZero(), "record %d", i)
		assert.False(t, r.ShortageUSD.IsNegative())
		assert.False(t, r.OverageUSD.IsNegative())
	}
}

func TestNewReconciliation(t *testing.T) {
	t.Run("creates pending record and raises event", func(t *testing.T) {
		in := validInput()
		in.Status = StatusVerified
		r, err := NewReconciliation(in)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, r.Status)
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", r.ID.String())
		require.Len(t, r.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeReconciliationRecorded, r.GetDomainEvents()[0].EventType())
	})

	tests := []struct {
		name   string
		mutate func(*Input)
		code   string
	}{
		{"missing branch", func(in *Input) { in.BranchID = "" }, shared.CodeInvalidInput},
		{"missing cashier", func(in *Input) { in.CashierID = " " }, shared.CodeInvalidInput},
		{"missing day", func(in *Input) { in.Day = "" }, shared.CodeInvalidInput},
		{"negative till", func(in *Input) { in.TillNumber = -1 }, shared.CodeInvalidInput},
		{"negative cash", func(in *Input) { in.CashBs = d("-1") }, shared.CodeInvalidInput},
		{"negative card", func(in *Input) { in.CardPoints[0].DebitBs = d("-1") }, shared.CodeInvalidInput},
		{"bs without rate", func(in *Input) { in.ExchangeRate = decimal.Zero }, shared.CodeRateMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := NewReconciliation(in)
			require.Error(t, err)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.code, de.Code)
		})
	}

	t.Run("usd-only record needs no rate", func(t *testing.T) {
		_, err := NewReconciliation(Input{
			BranchID: "centro", CashierID: "ana", Day: "2024-03-05", CashUSD: d("50"),
		})
		assert.NoError(t, err)
	})
}

func TestReconciliation_Lifecycle(t *testing.T) {
	newPending := func(t *testing.T) *Reconciliation {
		r, err := NewReconciliation(validInput())
		require.NoError(t, err)
		r.ClearDomainEvents()
		return r
	}

	t.Run("verify once then no-op", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Verify("supervisor"))
		assert.Equal(t, StatusVerified, r.Status)
		assert.NotNil(t, r.DecidedAt)
		version := r.GetVersion()

		require.NoError(t, r.Verify("someone else"))
		assert.Equal(t, "supervisor", r.DecidedBy)
		assert.Equal(t, version, r.GetVersion())
		assert.Len(t, r.GetDomainEvents(), 1)
	})

	t.Run("deny after verify is rejected", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Verify("supervisor"))
		err := r.Deny("supervisor", "typo")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, StatusVerified, r.Status)
	})

	t.Run("deny records the reason", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Deny("supervisor", "missing receipts"))
		assert.Equal(t, StatusDenied, r.Status)
		assert.Equal(t, "missing receipts", r.DenialReason)
		require.NoError(t, r.Deny("supervisor", "again"))
		assert.Equal(t, "missing receipts", r.DenialReason)
		assert.True(t, errors.Is(r.Verify("x"), shared.ErrInvalidState))
	})

	t.Run("verifier is required", func(t *testing.T) {
		r := newPending(t)
		assert.True(t, errors.Is(r.Verify(""), shared.ErrValidation))
	})

	t.Run("void is irreversible and idempotent", func(t *testing.T) {
		r := newPending(t)
		r.Void("duplicate entry")
		r.Void("second call")
		assert.True(t, r.Voided)
		assert.Equal(t, "duplicate entry", r.VoidReason)
		assert.Len(t, r.GetDomainEvents(), 1)
		assert.False(t, r.IsAwaitingVerification())
		assert.True(t, errors.Is(r.Verify("supervisor"), shared.ErrInvalidState))
	})

	t.Run("verified records can still be voided", func(t *testing.T) {
		r := newPending(t)
		require.NoError(t, r.Verify("supervisor"))
		assert.True(t, r.IsVerified())
		r.Void("wrong branch")
		assert.False(t, r.IsVerified())
	})
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()
	mk := func(system string) *Reconciliation {
		return FromInput(Input{ExchangeRate: d("10"), SystemTotalBs: d(system), CashUSD: d("100")})
	}

	assert.Equal(t, SeverityNormal, th.Classify(mk("1000")))   // exact
	assert.Equal(t, SeverityNormal, th.Classify(mk("1010")))   // ~0.99%
	assert.Equal(t, SeverityWarning, th.Classify(mk("1040")))  // ~3.85%
	assert.Equal(t, SeverityCritical, th.Classify(mk("1200"))) // ~16.7%
	assert.Equal(t, SeverityCritical, th.Classify(mk("0")))    // nothing expected
	assert.True(t, DiscrepancyPct(mk("1000")).IsZero())
}

func TestParseLabels(t *testing.T) {
	assert.Equal(t, ShiftMorning, ParseShift("Mañana"))
	assert.Equal(t, ShiftAfternoon, ParseShift("TARDE"))
	assert.Equal(t, ShiftNight, ParseShift(" noche "))
	assert.Equal(t, ShiftOnDuty, ParseShift("De Guardia"))
	assert.Equal(t, ShiftOnDuty, ParseShift("on_duty"))
	assert.Equal(t, ShiftUnknown, ParseShift("madrugada"))

	assert.Equal(t, StatusVerified, ParseStatus("Verificado"))
	assert.Equal(t, StatusDenied, ParseStatus("denegado"))
	assert.Equal(t, StatusPending, ParseStatus(""))
	assert.True(t, StatusDenied.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}
