package report

import (
	"sort"

	"github.com/farmacia/backoffice/internal/domain/finance"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExpenseSummary totals expenses in USD by verification state
type ExpenseSummary struct {
	VerifiedUSD      decimal.Decimal        `json:"verified_usd"`
	PendingUSD       decimal.Decimal        `json:"pending_usd"`
	VerifiedCount    int                    `json:"verified_count"`
	PendingCount     int                    `json:"pending_count"`
	DeniedCount      int                    `json:"denied_count"`
	RateMissingCount int                    `json:"rate_missing_count"`
	ByBranch         []BranchExpenseSummary `json:"by_branch"`
}

// BranchExpenseSummary is one branch's verified and pending expenses
type BranchExpenseSummary struct {
	BranchID    shared.BranchID `json:"branch_id"`
	VerifiedUSD decimal.Decimal `json:"verified_usd"`
	PendingUSD  decimal.Decimal `json:"pending_usd"`
}

// Rounded returns a copy with every amount rounded for display
func (s ExpenseSummary) Rounded() ExpenseSummary {
	p := valueobject.DisplayPlaces
	s.VerifiedUSD = s.VerifiedUSD.Round(p)
	s.PendingUSD = s.PendingUSD.Round(p)
	branches := make([]BranchExpenseSummary, len(s.ByBranch))
	for i, b := range s.ByBranch {
		b.VerifiedUSD = b.VerifiedUSD.Round(p)
		b.PendingUSD = b.PendingUSD.Round(p)
		branches[i] = b
	}
	s.ByBranch = branches
	return s
}

// Merge adds o into s. Branch lines are combined by branch id.
func (s ExpenseSummary) Merge(o ExpenseSummary) ExpenseSummary {
	s.VerifiedUSD = s.VerifiedUSD.Add(o.VerifiedUSD)
	s.PendingUSD = s.PendingUSD.Add(o.PendingUSD)
	s.VerifiedCount += o.VerifiedCount
	s.PendingCount += o.PendingCount
	s.DeniedCount += o.DeniedCount
	s.RateMissingCount += o.RateMissingCount

	byID := make(map[shared.BranchID]BranchExpenseSummary, len(s.ByBranch)+len(o.ByBranch))
	for _, lines := range [][]BranchExpenseSummary{s.ByBranch, o.ByBranch} {
		for _, b := range lines {
			cur := byID[b.BranchID]
			cur.BranchID = b.BranchID
			cur.VerifiedUSD = cur.VerifiedUSD.Add(b.VerifiedUSD)
			cur.PendingUSD = cur.PendingUSD.Add(b.PendingUSD)
			byID[b.BranchID] = cur
		}
	}
	s.ByBranch = make([]BranchExpenseSummary, 0, len(byID))
	for _, b := range byID {
		s.ByBranch = append(s.ByBranch, b)
	}
	sort.Slice(s.ByBranch, func(i, j int) bool { return s.ByBranch[i].BranchID < s.ByBranch[j].BranchID })
	return s
}

// AggregateExpenses folds expenses matching the filter's branch and range.
// Denied expenses contribute nothing but are counted.
func AggregateExpenses(expenses []*finance.Expense, filter Filter) (ExpenseSummary, error) {
	if err := filter.Validate(); err != nil {
		return ExpenseSummary{}, err
	}

	var s ExpenseSummary
	branches := make(map[shared.BranchID]*BranchExpenseSummary)
	for _, e := range expenses {
		if e == nil {
			continue
		}
		if !filter.BranchID.IsZero() && e.BranchID != filter.BranchID {
			continue
		}
		if !filter.Range.Contains(e.Date) {
			continue
		}
		if e.Status == finance.ExpenseStatusDenied {
			s.DeniedCount++
			continue
		}

		usd := e.USDEquivalent()
		if usd.RateMissing {
			s.RateMissingCount++
		}
		b, ok := branches[e.BranchID]
		if !ok {
			b = &BranchExpenseSummary{BranchID: e.BranchID}
			branches[e.BranchID] = b
		}
		if e.Status == finance.ExpenseStatusVerified {
			s.VerifiedCount++
			s.VerifiedUSD = s.VerifiedUSD.Add(usd.Amount)
			b.VerifiedUSD = b.VerifiedUSD.Add(usd.Amount)
		} else {
			s.PendingCount++
			s.PendingUSD = s.PendingUSD.Add(usd.Amount)
			b.PendingUSD = b.PendingUSD.Add(usd.Amount)
		}
	}

	s.ByBranch = make([]BranchExpenseSummary, 0, len(branches))
	for _, b := range branches {
		s.ByBranch = append(s.ByBranch, *b)
	}
	sort.Slice(s.ByBranch, func(i, j int) bool { return s.ByBranch[i].BranchID < s.ByBranch[j].BranchID })
	return s, nil
}
