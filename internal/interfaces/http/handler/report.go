package handler

import (
	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the aggregation endpoints
type ReportHandler struct {
	BaseHandler
	svc *backoffice.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(svc *backoffice.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// ReportFilterRequest is the common filter of every report. Empty fields match everything.
type ReportFilterRequest struct {
	BranchID  string `form:"branch_id" binding:"max=64"`
	CashierID string `form:"cashier_id" binding:"max=64"`
	DateFrom  string `form:"date_from" binding:"omitempty,day"`
	DateTo    string `form:"date_to" binding:"omitempty,day"`
}

// DashboardRequest adds the branch list and the rate used to value bank balances
type DashboardRequest struct {
	ReportFilterRequest
	BranchIDs string `form:"branch_ids"`
	Rate      string `form:"rate" binding:"omitempty,numeric"`
}

func (h *ReportHandler) filter(c *gin.Context, req ReportFilterRequest) (report.Filter, bool) {
	f, err := report.NewFilter(req.BranchID, req.CashierID, req.DateFrom, req.DateTo)
	if err != nil {
		h.HandleError(c, err)
		return report.Filter{}, false
	}
	return f, true
}

// Sales aggregates reconciliations into a sales summary
func (h *ReportHandler) Sales(c *gin.Context) {
	var req ReportFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}
	f, ok := h.filter(c, req)
	if !ok {
		return
	}
	sum, err := h.svc.Aggregate(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sum)
}

// Cashiers returns one sales summary per cashier
func (h *ReportHandler) Cashiers(c *gin.Context) {
	var req ReportFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}
	f, ok := h.filter(c, req)
	if !ok {
		return
	}
	groups, err := h.svc.CashierBreakdown(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, groups)
}

// Expenses summarizes expenses by status and branch
func (h *ReportHandler) Expenses(c *gin.Context) {
	var req ReportFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}
	f, ok := h.filter(c, req)
	if !ok {
		return
	}
	sum, err := h.svc.ExpenseSummary(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sum)
}

// Dashboard returns the per-branch dashboard with the bank position
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var req DashboardRequest
	if !h.BindQuery(c, &req) {
		return
	}
	f, ok := h.filter(c, req.ReportFilterRequest)
	if !ok {
		return
	}
	dash, err := h.svc.Dashboard(c.Request.Context(), f, splitBranches(req.BranchIDs), queryRate(req.Rate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dash)
}

// RegisterRoutes mounts the report endpoints
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/reports")
	g.GET("/sales", h.Sales)
	g.GET("/cashiers", h.Cashiers)
	g.GET("/expenses", h.Expenses)
	g.GET("/dashboard", h.Dashboard)
}
