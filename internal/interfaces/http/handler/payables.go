package handler

import (
	"context"
	"time"

	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayablesHandler serves expenses, provider invoices and payments
type PayablesHandler struct {
	BaseHandler
	svc *backoffice.Service
}

// NewPayablesHandler creates a new PayablesHandler
func NewPayablesHandler(svc *backoffice.Service) *PayablesHandler {
	return &PayablesHandler{svc: svc}
}

// RecordExpenseRequest is a branch expense ("gasto")
type RecordExpenseRequest struct {
	BranchID     string           `json:"branch_id" binding:"required,max=64"`
	Date         string           `json:"date" binding:"required,day"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency" binding:"required,currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	Category     string           `json:"category" binding:"max=64"`
	Description  string           `json:"description" binding:"max=512"`
}

// ExpenseDecisionRequest names who verifies or denies an expense
type ExpenseDecisionRequest struct {
	By string `json:"by" binding:"required,max=128"`
}

// RecordInvoiceRequest is a provider invoice ("factura")
type RecordInvoiceRequest struct {
	BranchID     string           `json:"branch_id" binding:"required,max=64"`
	Provider     string           `json:"provider" binding:"required,max=128"`
	Number       string           `json:"number" binding:"max=64"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency" binding:"required,currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	IssueDate    string           `json:"issue_date" binding:"required,day"`
	DueDate      string           `json:"due_date" binding:"omitempty,day"`
}

// RecordPaymentRequest is a payment to a provider. Branch and provider
// default to the invoice's when invoice_id is set.
type RecordPaymentRequest struct {
	InvoiceID    string           `json:"invoice_id" binding:"omitempty,uuid"`
	BranchID     string           `json:"branch_id" binding:"required_without=InvoiceID,max=64"`
	Provider     string           `json:"provider" binding:"max=128"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency" binding:"required,currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	Status       string           `json:"status" binding:"required,oneof=partial paid"`
	Date         string           `json:"date" binding:"required,day"`
	Reference    string           `json:"reference" binding:"max=128"`
}

// ExposureRequest selects the invoices an exposure is computed over
type ExposureRequest struct {
	BranchID string `form:"branch_id" binding:"max=64"`
	Status   string `form:"status" binding:"required"`
	DateFrom string `form:"date_from" binding:"omitempty,day"`
	DateTo   string `form:"date_to" binding:"omitempty,day"`
}

// PaymentTotalsRequest scopes the payment reconciliation to a branch
type PaymentTotalsRequest struct {
	BranchID string `form:"branch_id" binding:"max=64"`
}

// ExpenseResponse is a stored expense
type ExpenseResponse struct {
	ID           uuid.UUID             `json:"id"`
	BranchID     shared.BranchID       `json:"branch_id"`
	Date         valueobject.Day       `json:"date"`
	Amount       valueobject.Money     `json:"amount"`
	ExchangeRate decimal.Decimal       `json:"exchange_rate"`
	AmountUSD    decimal.Decimal       `json:"amount_usd"`
	RateMissing  bool                  `json:"rate_missing"`
	Status       finance.ExpenseStatus `json:"status"`
	Category     string                `json:"category,omitempty"`
	Description  string                `json:"description,omitempty"`
	DecidedBy    string                `json:"decided_by,omitempty"`
	DecidedAt    *time.Time            `json:"decided_at,omitempty"`
}

// InvoiceResponse is a stored invoice
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	BranchID          shared.BranchID       `json:"branch_id"`
	Provider          string                `json:"provider"`
	Number            string                `json:"number,omitempty"`
	OriginalAmount    decimal.Decimal       `json:"original_amount"`
	OriginalCurrency  valueobject.Currency  `json:"original_currency"`
	ExchangeRate      decimal.Decimal       `json:"exchange_rate"`
	OriginalAmountUSD decimal.Decimal       `json:"original_amount_usd"`
	RateMissing       bool                  `json:"rate_missing"`
	Status            finance.InvoiceStatus `json:"status"`
	IssueDate         valueobject.Day       `json:"issue_date"`
	DueDate           valueobject.Day       `json:"due_date,omitempty"`
}

// PaymentResponse is a stored payment
type PaymentResponse struct {
	ID           uuid.UUID             `json:"id"`
	InvoiceID    *uuid.UUID            `json:"invoice_id,omitempty"`
	BranchID     shared.BranchID       `json:"branch_id"`
	Provider     string                `json:"provider,omitempty"`
	Amount       decimal.Decimal       `json:"amount"`
	Currency     valueobject.Currency  `json:"currency"`
	ExchangeRate decimal.Decimal       `json:"exchange_rate"`
	AmountUSD    decimal.Decimal       `json:"amount_usd"`
	RateMissing  bool                  `json:"rate_missing"`
	Status       finance.PaymentStatus `json:"status"`
	Date         valueobject.Day       `json:"date"`
	Reference    string                `json:"reference,omitempty"`
}

func toExpenseResponse(e *finance.Expense) ExpenseResponse {
	usd := e.USDEquivalent()
	return ExpenseResponse{
		ID:           e.ID,
		BranchID:     e.BranchID,
		Date:         e.Date,
		Amount:       e.Money(),
		ExchangeRate: e.ExchangeRate.Decimal(),
		AmountUSD:    usd.Amount.Round(valueobject.DisplayPlaces),
		RateMissing:  usd.RateMissing,
		Status:       e.Status,
		Category:     e.Category,
		Description:  e.Description,
		DecidedBy:    e.DecidedBy,
		DecidedAt:    e.DecidedAt,
	}
}

func toInvoiceResponse(i *finance.Invoice) InvoiceResponse {
	usd := i.OriginalAmountUSD()
	return InvoiceResponse{
		ID:                i.ID,
		BranchID:          i.BranchID,
		Provider:          i.Provider,
		Number:            i.Number,
		OriginalAmount:    i.OriginalAmount,
		OriginalCurrency:  i.OriginalCurrency,
		ExchangeRate:      i.OriginalExchangeRate.Decimal(),
		OriginalAmountUSD: usd.Amount.Round(valueobject.DisplayPlaces),
		RateMissing:       usd.RateMissing,
		Status:            i.Status,
		IssueDate:         i.IssueDate,
		DueDate:           i.DueDate,
	}
}

func toPaymentResponse(p *finance.Payment) PaymentResponse {
	usd := p.AmountUSD()
	return PaymentResponse{
		ID:           p.ID,
		InvoiceID:    p.InvoiceID,
		BranchID:     p.BranchID,
		Provider:     p.Provider,
		Amount:       p.Amount,
		Currency:     p.Currency,
		ExchangeRate: p.ExchangeRateAtPayment.Decimal(),
		AmountUSD:    usd.Amount.Round(valueobject.DisplayPlaces),
		RateMissing:  usd.RateMissing,
		Status:       p.Status,
		Date:         p.Date,
		Reference:    p.Reference,
	}
}

// RecordExpense stores a pending expense
func (h *PayablesHandler) RecordExpense(c *gin.Context) {
	var req RecordExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	e, err := h.svc.RecordExpense(c.Request.Context(), backoffice.RecordExpenseCommand{
		BranchID:     shared.BranchID(req.BranchID),
		Date:         valueobject.Day(req.Date),
		Amount:       amount,
		ExchangeRate: optionalRate(req.ExchangeRate),
		Category:     req.Category,
		Description:  req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toExpenseResponse(e))
}

// VerifyExpense approves a pending expense
func (h *PayablesHandler) VerifyExpense(c *gin.Context) {
	h.decideExpense(c, h.svc.VerifyExpense)
}

// DenyExpense rejects a pending expense
func (h *PayablesHandler) DenyExpense(c *gin.Context) {
	h.decideExpense(c, h.svc.DenyExpense)
}

func (h *PayablesHandler) decideExpense(c *gin.Context, apply func(ctx context.Context, id uuid.UUID, by string) (*finance.Expense, error)) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req ExpenseDecisionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := logger.WithActor(c.Request.Context(), req.By)
	e, err := apply(ctx, id, req.By)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toExpenseResponse(e))
}

// RecordInvoice stores an active invoice
func (h *PayablesHandler) RecordInvoice(c *gin.Context) {
	var req RecordInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	inv, err := h.svc.RecordInvoice(c.Request.Context(), backoffice.RecordInvoiceCommand{
		BranchID:     shared.BranchID(req.BranchID),
		Provider:     req.Provider,
		Number:       req.Number,
		Amount:       amount,
		ExchangeRate: optionalRate(req.ExchangeRate),
		IssueDate:    valueobject.Day(req.IssueDate),
		DueDate:      valueobject.Day(req.DueDate),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(inv))
}

// VoidInvoice removes an invoice from every exposure
func (h *PayablesHandler) VoidInvoice(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	inv, err := h.svc.VoidInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// RecordPayment stores a payment, closing its invoice when marked paid
func (h *PayablesHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	amount, err := parseMoney(req.Amount, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	cmd := backoffice.RecordPaymentCommand{
		BranchID:     shared.BranchID(req.BranchID),
		Provider:     req.Provider,
		Amount:       amount,
		ExchangeRate: optionalRate(req.ExchangeRate),
		Status:       finance.PaymentStatus(req.Status),
		Date:         valueobject.Day(req.Date),
		Reference:    req.Reference,
	}
	if req.InvoiceID != "" {
		id := uuid.MustParse(req.InvoiceID)
		cmd.InvoiceID = &id
	}
	p, err := h.svc.RecordPayment(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResponse(p))
}

// Exposure sums the USD value of the invoices in a status
func (h *PayablesHandler) Exposure(c *gin.Context) {
	var req ExposureRequest
	if !h.BindQuery(c, &req) {
		return
	}
	status, err := finance.ParseInvoiceStatus(req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	dates, err := valueobject.NewDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	res, err := h.svc.InvoiceExposure(c.Request.Context(), shared.BranchID(req.BranchID), status, dates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// PaymentTotals compares invoiced and paid amounts per invoice
func (h *PayablesHandler) PaymentTotals(c *gin.Context) {
	var req PaymentTotalsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	sum, err := h.svc.PaymentsTotals(c.Request.Context(), shared.BranchID(req.BranchID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sum)
}

// RegisterRoutes mounts the payables endpoints
func (h *PayablesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	expenses := rg.Group("/expenses")
	expenses.POST("", h.RecordExpense)
	expenses.POST("/:id/verify", h.VerifyExpense)
	expenses.POST("/:id/deny", h.DenyExpense)

	invoices := rg.Group("/invoices")
	invoices.POST("", h.RecordInvoice)
	invoices.GET("/exposure", h.Exposure)
	invoices.POST("/:id/void", h.VoidInvoice)

	payments := rg.Group("/payments")
	payments.POST("", h.RecordPayment)
	payments.GET("/totals", h.PaymentTotals)
}
