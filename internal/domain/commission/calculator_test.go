package commission

import (
	"errors"
	"testing"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// sale builds a verified USD-only record worth usd at the branch
func sale(branch shared.BranchID, shift till.Shift, usd string) *till.Reconciliation {
	return till.FromInput(till.Input{
		BranchID:  branch,
		CashierID: "ana",
		Day:       "2024-03-01",
		Shift:     shift,
		CashUSD:   d(usd),
		Status:    till.StatusVerified,
	})
}

var names = shared.NewNameTable(map[shared.BranchID]string{"A": "Farmacia A", "B": "Farmacia B"})

func TestCalculate_PerBranchRatesAreNotBlended(t *testing.T) {
	p := NewSpecialProfile("ana", map[shared.BranchID]decimal.Decimal{"A": d("5"), "B": d("3")})
	records := []*till.Reconciliation{
		sale("A", till.ShiftMorning, "600"),
		sale("B", till.ShiftMorning, "500"),
		sale("A", till.ShiftNight, "400"),
	}

	res, err := Calculate(p, records, names)
	require.NoError(t, err)
	assert.True(t, res.TotalCommissionUSD.Equal(d("65")), "got %s", res.TotalCommissionUSD)
	assert.True(t, res.TotalSalesUSD.Equal(d("1500")))
	assert.Equal(t, 3, res.RecordCount)

	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, "Farmacia A", res.Breakdown[0].BranchName)
	assert.True(t, res.Breakdown[0].SalesUSD.Equal(d("1000")))
	assert.True(t, res.Breakdown[0].CommissionUSD.Equal(d("50")))
	assert.True(t, res.Breakdown[1].CommissionUSD.Equal(d("15")))

	blended := res.TotalSalesUSD.Mul(d("4")).Div(d("100"))
	assert.False(t, blended.Equal(res.TotalCommissionUSD))
}

func TestFromBranchSales(t *testing.T) {
	res := FromBranchSales("ana", []BranchSales{
		{BranchID: "B", SalesUSD: d("500"), Percent: d("3")},
		{BranchID: "A", SalesUSD: d("1000"), Percent: d("5")},
	}, names)
	assert.True(t, res.TotalCommissionUSD.Equal(d("65")))
	assert.Equal(t, shared.BranchID("A"), res.Breakdown[0].BranchID)
}

func TestCalculate_SpecialBranchNotConfiguredEarnsZero(t *testing.T) {
	p := NewSpecialProfile("ana", map[shared.BranchID]decimal.Decimal{"A": d("5")})
	res, err := Calculate(p, []*till.Reconciliation{
		sale("A", till.ShiftMorning, "100"),
		sale("C", till.ShiftMorning, "100"),
	}, names)
	require.NoError(t, err)
	assert.True(t, res.TotalCommissionUSD.Equal(d("5")))
	assert.Equal(t, 1, res.UnpaidRecordCount)
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, "C", res.Breakdown[1].BranchName, "unknown branches show their id")
	assert.True(t, res.Breakdown[1].CommissionUSD.IsZero())
}

func TestCalculate_Flat(t *testing.T) {
	p := NewFlatProfile("ana", d("2.5"))
	res, err := Calculate(p, []*till.Reconciliation{
		sale("A", till.ShiftMorning, "100"),
		sale("B", till.ShiftUnknown, "300"),
	}, shared.NameTable[shared.BranchID]{})
	require.NoError(t, err)
	assert.True(t, res.TotalCommissionUSD.Equal(d("10")))
	assert.Equal(t, 0, res.UnpaidRecordCount)
}

func TestCalculate_Tagged(t *testing.T) {
	p := NewTaggedProfile("ana", map[Tag]decimal.Decimal{
		TagShift:   d("1"),
		TagExtra:   d("4"),
		TagSpecial: d("10"),
	}, "B")

	records := []*till.Reconciliation{
		sale("A", till.ShiftMorning, "100"),  // shift 1%
		sale("A", till.ShiftOnDuty, "100"),   // extra 4%
		sale("B", till.ShiftOnDuty, "100"),   // special branch wins 10%
		sale("A", till.ShiftUnknown, "1000"), // no tag, 0
	}
	res, err := Calculate(p, records, names)
	require.NoError(t, err)
	assert.True(t, res.TotalCommissionUSD.Equal(d("15")), "got %s", res.TotalCommissionUSD)
	assert.Equal(t, 1, res.UnpaidRecordCount)
	require.Len(t, res.Breakdown, 4)
	assert.Equal(t, Tag(""), res.Breakdown[0].Tag)
	assert.Equal(t, TagExtra, res.Breakdown[1].Tag)
	assert.Equal(t, TagShift, res.Breakdown[2].Tag)
	assert.Equal(t, TagSpecial, res.Breakdown[3].Tag)
}

func TestCalculate_TagWithoutPercentEarnsZero(t *testing.T) {
	p := NewTaggedProfile("ana", map[Tag]decimal.Decimal{TagShift: d("1")})
	res, err := Calculate(p, []*till.Reconciliation{sale("A", till.ShiftOnDuty, "100")}, names)
	require.NoError(t, err)
	assert.True(t, res.TotalCommissionUSD.IsZero())
	assert.Equal(t, 1, res.UnpaidRecordCount)
}

func TestCalculate_OnlyVerifiedRecordsOfTheCashier(t *testing.T) {
	p := NewFlatProfile("ana", d("10"))
	pending := sale("A", till.ShiftMorning, "100")
	pending.Status = till.StatusPending
	denied := sale("A", till.ShiftMorning, "100")
	denied.Status = till.StatusDenied
	voided := sale("A", till.ShiftMorning, "100")
	voided.Void("dup")
	other := sale("A", till.ShiftMorning, "100")
	other.CashierID = "luis"

	res, err := Calculate(p, []*till.Reconciliation{pending, denied, voided, other, nil}, names)
	require.NoError(t, err)
	assert.True(t, res.TotalCommissionUSD.IsZero())
	assert.Equal(t, 0, res.RecordCount)
	assert.Empty(t, res.Breakdown)
}

func TestCalculate_Base(t *testing.T) {
	r := till.FromInput(till.Input{
		BranchID: "A", CashierID: "ana", Day: "2024-03-01", Status: till.StatusVerified,
		ExchangeRate: d("10"), RechargeBs: d("1000"), CashBs: d("1000"),
	})
	p := NewFlatProfile("ana", d("10"))

	res, err := Calculate(p, []*till.Reconciliation{r}, names)
	require.NoError(t, err)
	assert.True(t, res.TotalSalesUSD.Equal(d("100")), "recharges excluded by default")

	p.Base = BaseTotal
	res, err = Calculate(p, []*till.Reconciliation{r}, names)
	require.NoError(t, err)
	assert.True(t, res.TotalSalesUSD.Equal(d("200")))
	assert.True(t, res.TotalCommissionUSD.Equal(d("20")))
}

func TestProfile_Validate(t *testing.T) {
	assert.NoError(t, NewFlatProfile("ana", d("100")).Validate())
	assert.True(t, errors.Is(NewFlatProfile("ana", d("100.01")).Validate(), shared.ErrValidation))
	assert.True(t, errors.Is(NewFlatProfile("ana", d("-1")).Validate(), shared.ErrValidation))
	assert.Error(t, Profile{Mode: "tiered"}.Validate())
	assert.Error(t, Profile{Mode: ModeFlat, Base: "gross"}.Validate())
	assert.Error(t, NewTaggedProfile("ana", map[Tag]decimal.Decimal{"bonus": d("1")}).Validate())
	assert.Error(t, NewSpecialProfile("ana", map[shared.BranchID]decimal.Decimal{"A": d("101")}).Validate())

	_, err := Calculate(Profile{Mode: "tiered"}, nil, names)
	assert.Error(t, err)
}

func TestParseTag(t *testing.T) {
	tag, ok := ParseTag("Especial")
	assert.True(t, ok)
	assert.Equal(t, TagSpecial, tag)
	tag, ok = ParseTag("TURNO")
	assert.True(t, ok)
	assert.Equal(t, TagShift, tag)
	_, ok = ParseTag("bono")
	assert.False(t, ok)
}

func TestResult_Rounded(t *testing.T) {
	res := FromBranchSales("ana", []BranchSales{{BranchID: "A", SalesUSD: d("33.333"), Percent: d("3")}}, names)
	r := res.Rounded()
	assert.Equal(t, "1", r.TotalCommissionUSD.String())
	assert.Equal(t, "33.33", r.Breakdown[0].SalesUSD.String())
}
