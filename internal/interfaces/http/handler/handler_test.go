package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/interfaces/http/dto"
	"github.com/farmacia/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// envelope keeps data raw so each test decodes it into the type it expects
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

type testAPI struct {
	engine   *gin.Engine
	recs     *MockReconciliationRepository
	expenses *MockExpenseRepository
	invoices *MockInvoiceRepository
	payments *MockPaymentRepository
	profiles *MockProfileRepository
	accounts *MockAccountRepository
}

// newTestAPI mounts every handler on a service backed by mock repositories
func newTestAPI(opts backoffice.Options) *testAPI {
	api := &testAPI{
		recs:     new(MockReconciliationRepository),
		expenses: new(MockExpenseRepository),
		invoices: new(MockInvoiceRepository),
		payments: new(MockPaymentRepository),
		profiles: new(MockProfileRepository),
		accounts: new(MockAccountRepository),
	}
	svc := backoffice.NewService(backoffice.Repositories{
		Reconciliations: api.recs,
		Expenses:        api.expenses,
		Invoices:        api.invoices,
		Payments:        api.payments,
		Profiles:        api.profiles,
		Accounts:        api.accounts,
	}, nil, nil, nil, nil, opts)

	api.engine = gin.New()
	api.engine.Use(middleware.RequestID())
	group := api.engine.Group("/api/v1")
	for _, h := range []interface{ RegisterRoutes(*gin.RouterGroup) }{
		NewReconciliationHandler(svc),
		NewReportHandler(svc),
		NewCommissionHandler(svc),
		NewBankHandler(svc),
		NewPayablesHandler(svc),
	} {
		h.RegisterRoutes(group)
	}
	return api
}

func (api *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	return w
}

// decode checks the status and unpacks the data into out when given
func decode(t *testing.T, w *httptest.ResponseRecorder, status int, out any) envelope {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

// record builds a stored reconciliation paid with cashBs at rate plus cashUSD
func record(branch, cashier string, day valueobject.Day, status till.Status, rate, cashBs, cashUSD, systemBs string) *till.Reconciliation {
	return till.FromInput(till.Input{
		ID:            uuid.New(),
		BranchID:      shared.BranchID(branch),
		CashierID:     shared.CashierID(cashier),
		Day:           day,
		Shift:         till.ShiftMorning,
		ExchangeRate:  d(rate),
		CashBs:        d(cashBs),
		CashUSD:       d(cashUSD),
		SystemTotalBs: d(systemBs),
		Status:        status,
	})
}

func TestHandleError_Statuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{shared.ErrNotFound, http.StatusNotFound},
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrInvalidDateRange, http.StatusBadRequest},
		{shared.ErrInvalidState, http.StatusConflict},
		{shared.ErrDuplicateMovement, http.StatusConflict},
		{shared.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			new(BaseHandler).HandleError(c, tt.err)

			env := decode(t, w, tt.status, nil)
			require.False(t, env.Success)
			require.Equal(t, "req-1", env.Error.RequestID)
		})
	}
}
