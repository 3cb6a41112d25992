package handler

import (
	"fmt"
	"sort"

	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CommissionHandler serves cashier commissions and their profiles
type CommissionHandler struct {
	BaseHandler
	svc *backoffice.Service
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(svc *backoffice.Service) *CommissionHandler {
	return &CommissionHandler{svc: svc}
}

// CommissionRequest is the period a commission is computed for
type CommissionRequest struct {
	DateFrom string `form:"date_from" binding:"omitempty,day"`
	DateTo   string `form:"date_to" binding:"omitempty,day"`
}

// CommissionProfileRequest configures how a cashier is paid
type CommissionProfileRequest struct {
	Mode            string                     `json:"mode" binding:"required,oneof=flat special tagged"`
	Base            string                     `json:"base" binding:"omitempty,oneof=excl_recharge total"`
	FlatPercent     decimal.Decimal            `json:"flat_percent"`
	BranchPercents  map[string]decimal.Decimal `json:"branch_percents"`
	TagPercents     map[string]decimal.Decimal `json:"tag_percents"`
	SpecialBranches []string                   `json:"special_branches"`
}

// CommissionProfileResponse is a stored commission profile
type CommissionProfileResponse struct {
	CashierID       shared.CashierID           `json:"cashier_id"`
	Mode            commission.Mode            `json:"mode"`
	Base            commission.Base            `json:"base"`
	FlatPercent     decimal.Decimal            `json:"flat_percent"`
	BranchPercents  map[string]decimal.Decimal `json:"branch_percents,omitempty"`
	TagPercents     map[string]decimal.Decimal `json:"tag_percents,omitempty"`
	SpecialBranches []string                   `json:"special_branches,omitempty"`
}

func (req CommissionProfileRequest) toProfile(cashierID shared.CashierID) (commission.Profile, error) {
	p := commission.Profile{
		CashierID:   cashierID,
		Mode:        commission.Mode(req.Mode),
		Base:        commission.Base(req.Base),
		FlatPercent: req.FlatPercent,
	}
	if len(req.BranchPercents) > 0 {
		p.BranchPercents = make(map[shared.BranchID]decimal.Decimal, len(req.BranchPercents))
		for b, pct := range req.BranchPercents {
			p.BranchPercents[shared.BranchID(b)] = pct
		}
	}
	if len(req.TagPercents) > 0 {
		p.TagPercents = make(map[commission.Tag]decimal.Decimal, len(req.TagPercents))
		for label, pct := range req.TagPercents {
			tag, ok := commission.ParseTag(label)
			if !ok {
				return commission.Profile{}, shared.NewDomainError(shared.CodeInvalidInput,
					fmt.Sprintf("unknown commission tag %q", label))
			}
			p.TagPercents[tag] = pct
		}
	}
	if len(req.SpecialBranches) > 0 {
		p.SpecialBranches = make(map[shared.BranchID]struct{}, len(req.SpecialBranches))
		for _, b := range req.SpecialBranches {
			p.SpecialBranches[shared.BranchID(b)] = struct{}{}
		}
	}
	return p, nil
}

func toProfileResponse(p *commission.Profile) CommissionProfileResponse {
	resp := CommissionProfileResponse{
		CashierID:   p.CashierID,
		Mode:        p.Mode,
		Base:        p.Base,
		FlatPercent: p.FlatPercent,
	}
	if len(p.BranchPercents) > 0 {
		resp.BranchPercents = make(map[string]decimal.Decimal, len(p.BranchPercents))
		for b, pct := range p.BranchPercents {
			resp.BranchPercents[string(b)] = pct
		}
	}
	if len(p.TagPercents) > 0 {
		resp.TagPercents = make(map[string]decimal.Decimal, len(p.TagPercents))
		for tag, pct := range p.TagPercents {
			resp.TagPercents[string(tag)] = pct
		}
	}
	for b := range p.SpecialBranches {
		resp.SpecialBranches = append(resp.SpecialBranches, string(b))
	}
	sort.Strings(resp.SpecialBranches)
	return resp
}

// Compute returns the cashier's commission over verified sales in the period
func (h *CommissionHandler) Compute(c *gin.Context) {
	var req CommissionRequest
	if !h.BindQuery(c, &req) {
		return
	}
	dates, err := valueobject.NewDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	res, err := h.svc.ComputeCommissions(c.Request.Context(), shared.CashierID(c.Param("cashier_id")), dates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// GetProfile returns the cashier's commission profile
func (h *CommissionHandler) GetProfile(c *gin.Context) {
	p, err := h.svc.GetCommissionProfile(c.Request.Context(), shared.CashierID(c.Param("cashier_id")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProfileResponse(p))
}

// SaveProfile creates or replaces the cashier's commission profile
func (h *CommissionHandler) SaveProfile(c *gin.Context) {
	var req CommissionProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := req.toProfile(shared.CashierID(c.Param("cashier_id")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.svc.SaveCommissionProfile(c.Request.Context(), p); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProfileResponse(&p))
}

// RegisterRoutes mounts the commission endpoints
func (h *CommissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/commissions/:cashier_id")
	g.GET("", h.Compute)
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.SaveProfile)
}
