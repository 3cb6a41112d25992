package handler

import (
	"net/http"
	"testing"

	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommissionHandler_Compute(t *testing.T) {
	api := newTestAPI(backoffice.Options{
		Branches: shared.NewNameTable(map[shared.BranchID]string{"centro": "Farmacia Centro"}),
	})
	profile := commission.NewSpecialProfile("c1", map[shared.BranchID]decimal.Decimal{
		"centro": d("2"),
		"norte":  d("3"),
	})
	api.profiles.On("FindByCashier", mock.Anything, shared.CashierID("c1")).Return(&profile, nil)
	api.recs.On("Find", mock.Anything, mock.MatchedBy(func(q till.Query) bool {
		return q.CashierID == "c1" && q.Status != nil && *q.Status == till.StatusVerified
	})).Return([]*till.Reconciliation{
		record("centro", "c1", "2024-03-01", till.StatusVerified, "40", "4000", "20", "4800"),
		record("norte", "c1", "2024-03-02", till.StatusVerified, "40", "2000", "0", "2000"),
	}, nil)

	var res commission.Result
	decode(t, api.do(http.MethodGet, "/api/v1/commissions/c1?date_from=2024-03-01&date_to=2024-03-31", nil),
		http.StatusOK, &res)
	assert.True(t, res.TotalSalesUSD.Equal(d("170")))
	// 120 at 2% plus 50 at 3%
	assert.True(t, res.TotalCommissionUSD.Equal(d("3.9")), res.TotalCommissionUSD.String())
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, "Farmacia Centro", res.Breakdown[0].BranchName)
	assert.Zero(t, res.UnpaidRecordCount)
}

func TestCommissionHandler_Compute_Errors(t *testing.T) {
	api := newTestAPI(backoffice.Options{})
	api.profiles.On("FindByCashier", mock.Anything, shared.CashierID("ghost")).Return(nil, shared.ErrNotFound)

	env := decode(t, api.do(http.MethodGet, "/api/v1/commissions/ghost", nil), http.StatusNotFound, nil)
	assert.Equal(t, shared.CodeNotFound, env.Error.Code)
	assert.Contains(t, env.Error.Message, "ghost")

	env = decode(t, api.do(http.MethodGet, "/api/v1/commissions/c1?date_from=2024-03-31&date_to=2024-03-01", nil),
		http.StatusBadRequest, nil)
	assert.Equal(t, shared.CodeInvalidDateRange, env.Error.Code)
}

func TestCommissionHandler_SaveProfile(t *testing.T) {
	api := newTestAPI(backoffice.Options{})
	api.profiles.On("Save", mock.Anything, mock.MatchedBy(func(p *commission.Profile) bool {
		return p.CashierID == "c1" && p.Mode == commission.ModeTagged &&
			p.TagPercents[commission.TagSpecial].Equal(d("4"))
	})).Return(nil)

	var got CommissionProfileResponse
	w := api.do(http.MethodPut, "/api/v1/commissions/c1/profile", map[string]any{
		"mode":             "tagged",
		"tag_percents":     map[string]string{"Especial": "4", "turno": "1.5"},
		"special_branches": []string{"norte", "centro"},
	})
	decode(t, w, http.StatusOK, &got)
	assert.Equal(t, commission.ModeTagged, got.Mode)
	assert.Equal(t, []string{"centro", "norte"}, got.SpecialBranches)
	assert.True(t, got.TagPercents["shift"].Equal(d("1.5")))
	api.profiles.AssertExpectations(t)
}

func TestCommissionHandler_SaveProfile_Rejected(t *testing.T) {
	api := newTestAPI(backoffice.Options{})

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"unknown mode", map[string]any{"mode": "bonus"}, dto.ErrCodeValidation},
		{"unknown tag", map[string]any{"mode": "tagged", "tag_percents": map[string]string{"feriado": "2"}}, shared.CodeInvalidInput},
		{"percent above 100", map[string]any{"mode": "flat", "flat_percent": "120"}, shared.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := decode(t, api.do(http.MethodPut, "/api/v1/commissions/c1/profile", tt.body), http.StatusBadRequest, nil)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
	api.profiles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCommissionHandler_GetProfile(t *testing.T) {
	api := newTestAPI(backoffice.Options{})
	profile := commission.NewFlatProfile("c1", d("2.5"))
	api.profiles.On("FindByCashier", mock.Anything, shared.CashierID("c1")).Return(&profile, nil)

	var got CommissionProfileResponse
	decode(t, api.do(http.MethodGet, "/api/v1/commissions/c1/profile", nil), http.StatusOK, &got)
	assert.Equal(t, shared.CashierID("c1"), got.CashierID)
	assert.Equal(t, commission.BaseExclRecharge, got.Base)
	assert.True(t, got.FlatPercent.Equal(d("2.5")))
}
