package handler

import (
	"time"

	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader may carry the movement's idempotency key instead of the body
const IdempotencyKeyHeader = "Idempotency-Key"

// BankHandler serves bank accounts and their ledger
type BankHandler struct {
	BaseHandler
	svc *backoffice.Service
}

// NewBankHandler creates a new BankHandler
func NewBankHandler(svc *backoffice.Service) *BankHandler {
	return &BankHandler{svc: svc}
}

// OpenAccountRequest opens a bank account
type OpenAccountRequest struct {
	Name           string          `json:"name" binding:"required,max=128"`
	Bank           string          `json:"bank" binding:"max=128"`
	Currency       string          `json:"currency" binding:"required,currency"`
	FeePercent     decimal.Decimal `json:"fee_percent"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// MovementRequest is one deposit, transfer, cheque or withdrawal.
// A nil fee_percent applies the account's default fee.
type MovementRequest struct {
	Type           string           `json:"type" binding:"required"`
	Amount         decimal.Decimal  `json:"amount"`
	Currency       string           `json:"currency" binding:"omitempty,currency"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate"`
	FeePercent     *decimal.Decimal `json:"fee_percent"`
	Concept        string           `json:"concept" binding:"max=256"`
	Reference      string           `json:"reference" binding:"max=128"`
	IdempotencyKey string           `json:"idempotency_key" binding:"max=128"`
}

// PositionRequest carries the rate Bs balances are valued at
type PositionRequest struct {
	Rate string `form:"rate" binding:"omitempty,numeric"`
}

// AccountResponse is an account with its movements
type AccountResponse struct {
	ID         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	Bank       string               `json:"bank"`
	Currency   valueobject.Currency `json:"currency"`
	Balance    decimal.Decimal      `json:"balance"`
	FeePercent decimal.Decimal      `json:"fee_percent"`
	Movements  []MovementResponse   `json:"movements"`
	Version    int                  `json:"version"`
}

// MovementResponse is one ledger entry
type MovementResponse struct {
	ID               uuid.UUID            `json:"id"`
	Type             bank.MovementType    `json:"type"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         valueobject.Currency `json:"currency"`
	ExchangeRateUsed decimal.Decimal      `json:"exchange_rate_used"`
	AccountAmount    decimal.Decimal      `json:"account_amount"`
	FeePercent       decimal.Decimal      `json:"fee_percent"`
	FeeAmount        decimal.Decimal      `json:"fee_amount"`
	NetAmount        decimal.Decimal      `json:"net_amount"`
	USDEquivalent    decimal.Decimal      `json:"usd_equivalent"`
	RateMissing      bool                 `json:"rate_missing"`
	BalanceAfter     decimal.Decimal      `json:"balance_after"`
	Concept          string               `json:"concept,omitempty"`
	Reference        string               `json:"reference,omitempty"`
	IdempotencyKey   string               `json:"idempotency_key,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// MovementResultResponse is an applied movement with the balance it left
type MovementResultResponse struct {
	Movement   MovementResponse  `json:"movement"`
	NewBalance valueobject.Money `json:"new_balance"`
}

func toMovementResponse(m bank.Movement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		Type:             m.Type,
		Amount:           m.Amount,
		Currency:         m.Currency,
		ExchangeRateUsed: m.ExchangeRateUsed.Decimal(),
		AccountAmount:    m.AccountAmount,
		FeePercent:       m.FeePercent,
		FeeAmount:        m.FeeAmount,
		NetAmount:        m.NetAmount,
		USDEquivalent:    m.USDEquivalent.Round(valueobject.DisplayPlaces),
		RateMissing:      m.RateMissing,
		BalanceAfter:     m.BalanceAfter,
		Concept:          m.Concept,
		Reference:        m.Reference,
		IdempotencyKey:   m.IdempotencyKey,
		CreatedAt:        m.CreatedAt,
	}
}

func toAccountResponse(a *bank.Account) AccountResponse {
	movements := make([]MovementResponse, 0, len(a.Movements))
	for _, m := range a.Movements {
		movements = append(movements, toMovementResponse(m))
	}
	return AccountResponse{
		ID:         a.ID,
		Name:       a.Name,
		Bank:       a.Bank,
		Currency:   a.Currency,
		Balance:    a.Balance,
		FeePercent: a.FeePercent,
		Movements:  movements,
		Version:    a.Version,
	}
}

// OpenAccount creates an account, booking any opening balance as a deposit
func (h *BankHandler) OpenAccount(c *gin.Context) {
	var req OpenAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	a, err := h.svc.OpenAccount(c.Request.Context(), backoffice.OpenAccountCommand{
		Name:           req.Name,
		Bank:           req.Bank,
		Currency:       currency,
		FeePercent:     req.FeePercent,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAccountResponse(a))
}

// GetAccount returns an account with its movements
func (h *BankHandler) GetAccount(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	a, err := h.svc.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAccountResponse(a))
}

// ApplyMovement books a movement on the account
func (h *BankHandler) ApplyMovement(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req MovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	typ, err := bank.ParseMovementType(req.Type)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	cmd := bank.MovementCommand{
		Type:           typ,
		Amount:         req.Amount,
		ExchangeRate:   optionalRate(req.ExchangeRate),
		FeePercent:     req.FeePercent,
		Concept:        req.Concept,
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
	}
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" && cmd.IdempotencyKey == "" {
		cmd.IdempotencyKey = key
	}
	if req.Currency != "" {
		if cmd.Currency, err = valueobject.ParseCurrency(req.Currency); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	res, err := h.svc.ApplyMovement(c.Request.Context(), id, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, MovementResultResponse{
		Movement:   toMovementResponse(res.Movement),
		NewBalance: res.NewBalance,
	})
}

// Position reports every account's balance and USD value at the given rate
func (h *BankHandler) Position(c *gin.Context) {
	var req PositionRequest
	if !h.BindQuery(c, &req) {
		return
	}
	pos, err := h.svc.BankPosition(c.Request.Context(), queryRate(req.Rate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pos)
}

// RegisterRoutes mounts the bank endpoints
func (h *BankHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/bank")
	g.POST("/accounts", h.OpenAccount)
	g.GET("/accounts/:id", h.GetAccount)
	g.POST("/accounts/:id/movements", h.ApplyMovement)
	g.GET("/position", h.Position)
}
