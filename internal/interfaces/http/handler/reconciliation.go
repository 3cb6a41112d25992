package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/infrastructure/csvimport"
	"github.com/farmacia/backoffice/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationHandler handles till reconciliations ("cuadres")
type ReconciliationHandler struct {
	BaseHandler
	svc *backoffice.Service
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(svc *backoffice.Service) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// RecordReconciliationRequest is a till-closing entry
type RecordReconciliationRequest struct {
	BranchID        string           `json:"branch_id" binding:"required,max=64"`
	CashierID       string           `json:"cashier_id" binding:"required,max=64"`
	CashierName     string           `json:"cashier_name" binding:"max=128"`
	Day             string           `json:"day" binding:"required,day"`
	TillNumber      int              `json:"till_number" binding:"gte=0"`
	Shift           string           `json:"shift"`
	ExchangeRate    decimal.Decimal  `json:"exchange_rate"`
	SystemTotalBs   decimal.Decimal  `json:"system_total_bs"`
	ReturnsBs       decimal.Decimal  `json:"returns_bs"`
	RechargeBs      decimal.Decimal  `json:"recharge_bs"`
	MobilePaymentBs decimal.Decimal  `json:"mobile_payment_bs"`
	CashBs          decimal.Decimal  `json:"cash_bs"`
	CashUSD         decimal.Decimal  `json:"cash_usd"`
	ZelleUSD        decimal.Decimal  `json:"zelle_usd"`
	VoucherUSD      decimal.Decimal  `json:"voucher_usd"`
	CardPoints      []till.CardPoint `json:"card_points"`
}

// ImportReconciliationsRequest carries raw upstream records, normalized on ingest
type ImportReconciliationsRequest struct {
	Records []map[string]any `json:"records" binding:"required,min=1,max=5000"`
}

// ListReconciliationsRequest filters the reconciliation list
type ListReconciliationsRequest struct {
	BranchID  string `form:"branch_id" binding:"max=64"`
	CashierID string `form:"cashier_id" binding:"max=64"`
	DateFrom  string `form:"date_from" binding:"omitempty,day"`
	DateTo    string `form:"date_to" binding:"omitempty,day"`
	Status    string `form:"status" binding:"omitempty,oneof=pending verified denied"`
}

// DecisionRequest names the verifier of a verify or deny
type DecisionRequest struct {
	By     string `json:"by" binding:"required,max=128"`
	Reason string `json:"reason" binding:"max=512"`
}

// VoidRequest carries the reason a record is voided
type VoidRequest struct {
	Reason string `json:"reason" binding:"required,max=512"`
}

// ReconciliationResponse is a reconciliation with its derived figures rounded for display
type ReconciliationResponse struct {
	ID              uuid.UUID        `json:"id"`
	BranchID        shared.BranchID  `json:"branch_id"`
	CashierID       shared.CashierID `json:"cashier_id"`
	CashierName     string           `json:"cashier_name"`
	Day             valueobject.Day  `json:"day"`
	TillNumber      int              `json:"till_number"`
	Shift           till.Shift       `json:"shift"`
	ExchangeRate    decimal.Decimal  `json:"exchange_rate"`
	SystemTotalBs   decimal.Decimal  `json:"system_total_bs"`
	ReturnsBs       decimal.Decimal  `json:"returns_bs"`
	RechargeBs      decimal.Decimal  `json:"recharge_bs"`
	MobilePaymentBs decimal.Decimal  `json:"mobile_payment_bs"`
	CashBs          decimal.Decimal  `json:"cash_bs"`
	CashUSD         decimal.Decimal  `json:"cash_usd"`
	ZelleUSD        decimal.Decimal  `json:"zelle_usd"`
	VoucherUSD      decimal.Decimal  `json:"voucher_usd"`
	CardPoints      []till.CardPoint `json:"card_points"`
	Status          till.Status      `json:"status"`
	DecidedBy       string           `json:"decided_by,omitempty"`
	DecidedAt       *time.Time       `json:"decided_at,omitempty"`
	DenialReason    string           `json:"denial_reason,omitempty"`
	Voided          bool             `json:"voided"`
	VoidReason      string           `json:"void_reason,omitempty"`
	Figures         FiguresResponse  `json:"figures"`
	Version         int              `json:"version"`
}

// FiguresResponse are the derived USD figures of one reconciliation
type FiguresResponse struct {
	TotalUSD             decimal.Decimal `json:"total_usd"`
	TotalUSDExclRecharge decimal.Decimal `json:"total_usd_excl_recharge"`
	ExpectedUSD          decimal.Decimal `json:"expected_usd"`
	PendingUSD           decimal.Decimal `json:"pending_usd"`
	ShortageUSD          decimal.Decimal `json:"shortage_usd"`
	OverageUSD           decimal.Decimal `json:"overage_usd"`
	DiscrepancyPct       decimal.Decimal `json:"discrepancy_pct"`
	Severity             till.Severity   `json:"severity"`
	RateMissing          bool            `json:"rate_missing"`
}

func (h *ReconciliationHandler) toResponse(r *till.Reconciliation) ReconciliationResponse {
	p := valueobject.DisplayPlaces
	return ReconciliationResponse{
		ID:              r.ID,
		BranchID:        r.BranchID,
		CashierID:       r.CashierID,
		CashierName:     r.CashierName,
		Day:             r.Day,
		TillNumber:      r.TillNumber,
		Shift:           r.Shift,
		ExchangeRate:    r.ExchangeRate.Decimal(),
		SystemTotalBs:   r.SystemTotalBs,
		ReturnsBs:       r.ReturnsBs,
		RechargeBs:      r.RechargeBs,
		MobilePaymentBs: r.MobilePaymentBs,
		CashBs:          r.CashBs,
		CashUSD:         r.CashUSD,
		ZelleUSD:        r.ZelleUSD,
		VoucherUSD:      r.VoucherUSD,
		CardPoints:      r.CardPoints,
		Status:          r.Status,
		DecidedBy:       r.DecidedBy,
		DecidedAt:       r.DecidedAt,
		DenialReason:    r.DenialReason,
		Voided:          r.Voided,
		VoidReason:      r.VoidReason,
		Version:         r.Version,
		Figures: FiguresResponse{
			TotalUSD:             r.TotalUSD.Round(p),
			TotalUSDExclRecharge: r.TotalUSDExclRecharge.Round(p),
			ExpectedUSD:          r.ExpectedUSD.Round(p),
			PendingUSD:           r.PendingUSD.Round(p),
			ShortageUSD:          r.ShortageUSD.Round(p),
			OverageUSD:           r.OverageUSD.Round(p),
			DiscrepancyPct:       till.DiscrepancyPct(r).Round(p),
			Severity:             h.svc.Thresholds().Classify(r),
			RateMissing:          r.RateMissing,
		},
	}
}

// Record creates a pending reconciliation
func (h *ReconciliationHandler) Record(c *gin.Context) {
	var req RecordReconciliationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	r, err := h.svc.RecordReconciliation(c.Request.Context(), till.Input{
		BranchID:        shared.BranchID(req.BranchID),
		CashierID:       shared.CashierID(req.CashierID),
		CashierName:     req.CashierName,
		Day:             valueobject.Day(req.Day),
		TillNumber:      req.TillNumber,
		Shift:           till.ParseShift(req.Shift),
		ExchangeRate:    req.ExchangeRate,
		SystemTotalBs:   req.SystemTotalBs,
		ReturnsBs:       req.ReturnsBs,
		RechargeBs:      req.RechargeBs,
		MobilePaymentBs: req.MobilePaymentBs,
		CashBs:          req.CashBs,
		CashUSD:         req.CashUSD,
		ZelleUSD:        req.ZelleUSD,
		VoucherUSD:      req.VoucherUSD,
		CardPoints:      req.CardPoints,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, h.toResponse(r))
}

// Import normalizes and stores raw upstream records
func (h *ReconciliationHandler) Import(c *gin.Context) {
	var req ImportReconciliationsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.IngestRecords(c.Request.Context(), req.Records)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// maxImportRecords caps one import, whatever its format
const maxImportRecords = 5000

// ImportCSV normalizes and stores a spreadsheet export of till closings. The
// file comes as the multipart field "file" or as a text/csv body; the
// "delimiter" and "decimal_comma" query parameters override detection.
func (h *ReconciliationHandler) ImportCSV(c *gin.Context) {
	body := c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			h.BadRequest(c, "multipart field \"file\" is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		defer f.Close()
		body = f
	}

	var opts []csvimport.ParserOption
	if d := c.Query("delimiter"); d != "" {
		r := []rune(d)
		if len(r) != 1 {
			h.BadRequest(c, "delimiter must be a single character")
			return
		}
		opts = append(opts, csvimport.WithDelimiter(r[0]))
	}
	if dc := c.Query("decimal_comma"); dc != "" {
		on, err := strconv.ParseBool(dc)
		if err != nil {
			h.BadRequest(c, "decimal_comma must be true or false")
			return
		}
		opts = append(opts, csvimport.WithDecimalComma(on))
	}

	records, err := csvimport.ReadRecords(body, opts...)
	if err != nil {
		if isBodyTooLarge(err) {
			h.HandleError(c, err)
			return
		}
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidInput, err.Error()))
		return
	}
	if len(records) > maxImportRecords {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("at most %d rows can be imported at once", maxImportRecords)))
		return
	}

	res, err := h.svc.IngestRecords(c.Request.Context(), records)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// Get returns one reconciliation
func (h *ReconciliationHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	r, err := h.svc.GetReconciliation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.toResponse(r))
}

// List returns the reconciliations matching the query
func (h *ReconciliationHandler) List(c *gin.Context) {
	var req ListReconciliationsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	dates, err := valueobject.NewDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	q := till.Query{
		BranchID:  shared.BranchID(req.BranchID),
		CashierID: shared.CashierID(req.CashierID),
		Range:     dates,
	}
	if req.Status != "" {
		st := till.Status(req.Status)
		q.Status = &st
	}

	records, err := h.svc.ListReconciliations(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]ReconciliationResponse, 0, len(records))
	for _, r := range records {
		out = append(out, h.toResponse(r))
	}
	h.Success(c, out)
}

// Verify approves a pending reconciliation
func (h *ReconciliationHandler) Verify(c *gin.Context) {
	h.decide(c, func(c *gin.Context, id uuid.UUID, req DecisionRequest) (*till.Reconciliation, error) {
		return h.svc.VerifyReconciliation(c.Request.Context(), id, req.By)
	})
}

// Deny rejects a pending reconciliation
func (h *ReconciliationHandler) Deny(c *gin.Context) {
	h.decide(c, func(c *gin.Context, id uuid.UUID, req DecisionRequest) (*till.Reconciliation, error) {
		return h.svc.DenyReconciliation(c.Request.Context(), id, req.By, req.Reason)
	})
}

func (h *ReconciliationHandler) decide(c *gin.Context, apply func(*gin.Context, uuid.UUID, DecisionRequest) (*till.Reconciliation, error)) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req DecisionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), req.By))

	r, err := apply(c, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.toResponse(r))
}

// Void excludes a reconciliation from every aggregate
func (h *ReconciliationHandler) Void(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req VoidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.svc.VoidReconciliation(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.toResponse(r))
}

// RegisterRoutes mounts the reconciliation endpoints
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/reconciliations")
	g.POST("", h.Record)
	g.POST("/import", h.Import)
	g.POST("/import/csv", h.ImportCSV)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/verify", h.Verify)
	g.POST("/:id/deny", h.Deny)
	g.POST("/:id/void", h.Void)
}
