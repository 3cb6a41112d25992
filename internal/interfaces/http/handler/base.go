// Package handler holds the gin handlers of the back-office API. Handlers
// bind and validate the request, call the application service and wrap the
// result in the standard response envelope.
package handler

import (
	"net/http"
	"strings"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/infrastructure/logger"
	"github.com/farmacia/backoffice/internal/interfaces/http/dto"
	"github.com/farmacia/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message, middleware.GetRequestID(c)))
}

// HandleError converts an error from the service into an HTTP response.
// Server-side failures are logged with the request's logger.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, code, message := dto.FromError(err)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BindJSON binds the body into req, answering 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into req, answering 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// PathID parses the :id path parameter
func (h *BaseHandler) PathID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

// optionalRate turns an optional rate into an ExchangeRate; nil is the missing rate
func optionalRate(d *decimal.Decimal) valueobject.ExchangeRate {
	if d == nil {
		return valueobject.NoRate()
	}
	return valueobject.NewExchangeRate(*d)
}

// queryRate parses a rate query parameter already checked as numeric.
// An empty value is the missing rate.
func queryRate(s string) valueobject.ExchangeRate {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return valueobject.NoRate()
	}
	return valueobject.NewExchangeRate(d)
}

// parseMoney pairs an amount with a currency label already checked by the validator
func parseMoney(amount decimal.Decimal, currency string) (valueobject.Money, error) {
	cur, err := valueobject.ParseCurrency(currency)
	if err != nil {
		return valueobject.Money{}, err
	}
	return valueobject.NewMoney(amount, cur)
}

// splitBranches reads a comma-separated branch list, skipping blanks
func splitBranches(s string) []shared.BranchID {
	var ids []shared.BranchID
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, shared.BranchID(part))
		}
	}
	return ids
}
