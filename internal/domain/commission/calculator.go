package commission

import (
	"sort"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BranchSales is a sales base earned at one branch under one percentage
type BranchSales struct {
	BranchID shared.BranchID
	Tag      Tag
	SalesUSD decimal.Decimal
	Percent  decimal.Decimal
	// Unpaid marks sales for which no percentage is configured
	Unpaid bool
}

// BranchCommission is one line of a commission breakdown
type BranchCommission struct {
	BranchID      shared.BranchID `json:"branch_id"`
	BranchName    string          `json:"branch_name"`
	Tag           Tag             `json:"tag,omitempty"`
	SalesUSD      decimal.Decimal `json:"sales_usd"`
	Percent       decimal.Decimal `json:"percent"`
	CommissionUSD decimal.Decimal `json:"commission_usd"`
}

// Result is a cashier's commission over a set of records
type Result struct {
	CashierID          shared.CashierID   `json:"cashier_id"`
	TotalSalesUSD      decimal.Decimal    `json:"total_sales_usd"`
	TotalCommissionUSD decimal.Decimal    `json:"total_commission_usd"`
	Breakdown          []BranchCommission `json:"breakdown"`
	RecordCount        int                `json:"record_count"`
	UnpaidRecordCount  int                `json:"unpaid_record_count"`
}

// Rounded returns a copy with every amount rounded for display
func (r Result) Rounded() Result {
	p := valueobject.DisplayPlaces
	r.TotalSalesUSD = r.TotalSalesUSD.Round(p)
	r.TotalCommissionUSD = r.TotalCommissionUSD.Round(p)
	lines := make([]BranchCommission, len(r.Breakdown))
	for i, l := range r.Breakdown {
		l.SalesUSD = l.SalesUSD.Round(p)
		l.CommissionUSD = l.CommissionUSD.Round(p)
		lines[i] = l
	}
	r.Breakdown = lines
	return r
}

type lineKey struct {
	branch shared.BranchID
	tag    Tag
}

// Calculate computes the commission a profile earns on the cashier's verified,
// non-voided records. Each branch (and tag) is paid at its own percentage and
// the total is the sum of the lines, never total sales times a blended rate.
func Calculate(p Profile, records []*till.Reconciliation, branches shared.NameTable[shared.BranchID]) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	lines := make(map[lineKey]*BranchSales)
	var order []lineKey
	count, unpaid := 0, 0
	for _, r := range records {
		if r == nil || !r.IsVerified() {
			continue
		}
		if !p.CashierID.IsZero() && r.CashierID != p.CashierID {
			continue
		}
		count++
		pct, tag, ok := p.PercentFor(r)
		if !ok {
			unpaid++
			pct = decimal.Zero
		}
		key := lineKey{branch: r.BranchID, tag: tag}
		line, exists := lines[key]
		if !exists {
			line = &BranchSales{BranchID: r.BranchID, Tag: tag, Percent: pct, Unpaid: !ok}
			lines[key] = line
			order = append(order, key)
		}
		line.SalesUSD = line.SalesUSD.Add(p.SalesBase(r))
	}

	sales := make([]BranchSales, 0, len(order))
	for _, k := range order {
		sales = append(sales, *lines[k])
	}
	res := FromBranchSales(p.CashierID, sales, branches)
	res.RecordCount = count
	res.UnpaidRecordCount = unpaid
	return res, nil
}

// FromBranchSales turns pre-aggregated sales into a commission result.
// Lines are sorted by branch then tag.
func FromBranchSales(cashierID shared.CashierID, sales []BranchSales, branches shared.NameTable[shared.BranchID]) Result {
	res := Result{CashierID: cashierID, Breakdown: make([]BranchCommission, 0, len(sales))}
	for _, s := range sales {
		pct := s.Percent
		if s.Unpaid {
			pct = decimal.Zero
		}
		commission := s.SalesUSD.Mul(pct).Div(hundred)
		res.Breakdown = append(res.Breakdown, BranchCommission{
			BranchID:      s.BranchID,
			BranchName:    branches.Name(s.BranchID),
			Tag:           s.Tag,
			SalesUSD:      s.SalesUSD,
			Percent:       pct,
			CommissionUSD: commission,
		})
		res.TotalSalesUSD = res.TotalSalesUSD.Add(s.SalesUSD)
		res.TotalCommissionUSD = res.TotalCommissionUSD.Add(commission)
	}
	sort.SliceStable(res.Breakdown, func(i, j int) bool {
		a, b := res.Breakdown[i], res.Breakdown[j]
		if a.BranchID != b.BranchID {
			return a.BranchID < b.BranchID
		}
		return a.Tag < b.Tag
	})
	return res
}
