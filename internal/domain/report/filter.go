package report

import (
	"strings"

	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
)

// Filter restricts an aggregation. Empty ids and open bounds match everything.
type Filter struct {
	BranchID  shared.BranchID
	CashierID shared.CashierID
	Range     valueobject.DateRange
}

// NewFilter parses the optional filter fields; dates must be YYYY-MM-DD
func NewFilter(branchID, cashierID, dateFrom, dateTo string) (Filter, error) {
	r, err := valueobject.NewDateRange(dateFrom, dateTo)
	if err != nil {
		return Filter{}, err
	}
	return Filter{
		BranchID:  shared.BranchID(strings.TrimSpace(branchID)),
		CashierID: shared.CashierID(strings.TrimSpace(cashierID)),
		Range:     r,
	}, nil
}

// Validate rejects a range whose start is after its end
func (f Filter) Validate() error {
	return f.Range.Validate()
}

// WithBranch returns a copy scoped to one branch
func (f Filter) WithBranch(id shared.BranchID) Filter {
	f.BranchID = id
	return f
}

// WithCashier returns a copy scoped to one cashier
func (f Filter) WithCashier(id shared.CashierID) Filter {
	f.CashierID = id
	return f
}

// Matches reports whether a reconciliation falls under the filter, whatever its status
func (f Filter) Matches(r *till.Reconciliation) bool {
	return f.TillQuery().Matches(r)
}

// TillQuery converts the filter into a reconciliation repository query
func (f Filter) TillQuery() till.Query {
	return till.Query{BranchID: f.BranchID, CashierID: f.CashierID, Range: f.Range}
}

// FinanceQuery converts the filter into a finance repository query; the cashier is ignored
func (f Filter) FinanceQuery() finance.Query {
	return finance.Query{BranchID: f.BranchID, Range: f.Range}
}
