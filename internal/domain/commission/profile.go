package commission

import (
	"fmt"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/shopspring/decimal"
)

// Mode selects where a cashier's commission percentage comes from
type Mode string

const (
	ModeFlat    Mode = "flat"    // one percentage everywhere
	ModeSpecial Mode = "special" // a percentage per branch
	ModeTagged  Mode = "tagged"  // a percentage per commission tag
)

// IsValid checks if the mode is valid
func (m Mode) IsValid() bool {
	return m == ModeFlat || m == ModeSpecial || m == ModeTagged
}

// Base selects which sales figure commissions are computed on
type Base string

const (
	BaseExclRecharge Base = "excl_recharge"
	BaseTotal        Base = "total"
)

// IsValid checks if the base is valid
func (b Base) IsValid() bool {
	return b == BaseExclRecharge || b == BaseTotal
}

// Tag is a commission type ("tipo comisión")
type Tag string

const (
	TagExtra   Tag = "extra"
	TagSpecial Tag = "special"
	TagShift   Tag = "shift"
)

// IsValid checks if the tag is valid
func (t Tag) IsValid() bool {
	return t == TagExtra || t == TagSpecial || t == TagShift
}

// ParseTag folds an upstream label ("Extra", "Especial", "Turno") into a Tag
func ParseTag(label string) (Tag, bool) {
	switch shared.FoldLabel(label) {
	case "extra":
		return TagExtra, true
	case "special", "especial":
		return TagSpecial, true
	case "shift", "turno":
		return TagShift, true
	}
	return "", false
}

// Profile is a cashier's commission configuration
type Profile struct {
	CashierID       shared.CashierID
	Mode            Mode
	Base            Base
	FlatPercent     decimal.Decimal
	BranchPercents  map[shared.BranchID]decimal.Decimal
	TagPercents     map[Tag]decimal.Decimal
	SpecialBranches map[shared.BranchID]struct{}
}

// NewFlatProfile creates a profile paying pct of sales at every branch
func NewFlatProfile(cashierID shared.CashierID, pct decimal.Decimal) Profile {
	return Profile{CashierID: cashierID, Mode: ModeFlat, Base: BaseExclRecharge, FlatPercent: pct}
}

// NewSpecialProfile creates a profile with a percentage per branch
func NewSpecialProfile(cashierID shared.CashierID, percents map[shared.BranchID]decimal.Decimal) Profile {
	return Profile{CashierID: cashierID, Mode: ModeSpecial, Base: BaseExclRecharge, BranchPercents: percents}
}

// NewTaggedProfile creates a profile with a percentage per tag.
// Records from specialBranches carry the Special tag.
func NewTaggedProfile(cashierID shared.CashierID, percents map[Tag]decimal.Decimal, specialBranches ...shared.BranchID) Profile {
	set := make(map[shared.BranchID]struct{}, len(specialBranches))
	for _, b := range specialBranches {
		set[b] = struct{}{}
	}
	return Profile{CashierID: cashierID, Mode: ModeTagged, Base: BaseExclRecharge, TagPercents: percents, SpecialBranches: set}
}

// Validate checks the mode, base and that every percentage is within 0-100
func (p Profile) Validate() error {
	if !p.Mode.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown commission mode %q", p.Mode))
	}
	if p.Base != "" && !p.Base.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown commission base %q", p.Base))
	}
	if err := checkPercent("flat", p.FlatPercent); err != nil {
		return err
	}
	for b, pct := range p.BranchPercents {
		if err := checkPercent("branch "+string(b), pct); err != nil {
			return err
		}
	}
	for tag, pct := range p.TagPercents {
		if !tag.IsValid() {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown commission tag %q", tag))
		}
		if err := checkPercent("tag "+string(tag), pct); err != nil {
			return err
		}
	}
	return nil
}

func checkPercent(what string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("%s percentage %s is outside 0-100", what, pct))
	}
	return nil
}

// SalesBase returns the record's sales figure this profile pays on.
// The default base excludes phone recharges.
func (p Profile) SalesBase(r *till.Reconciliation) decimal.Decimal {
	if p.Base == BaseTotal {
		return r.TotalUSD
	}
	return r.TotalUSDExclRecharge
}

// TagFor selects the commission tag of a record: Special at a special branch,
// otherwise Extra for on-duty shifts and Shift for regular shifts.
// Records with an unknown shift get no tag.
func (p Profile) TagFor(r *till.Reconciliation) (Tag, bool) {
	if _, ok := p.SpecialBranches[r.BranchID]; ok {
		return TagSpecial, true
	}
	switch r.Shift {
	case till.ShiftOnDuty:
		return TagExtra, true
	case till.ShiftMorning, till.ShiftAfternoon, till.ShiftNight:
		return TagShift, true
	}
	return "", false
}

// PercentFor returns the percentage paid on a record and its tag (tagged mode only).
// ok is false when no percentage applies; such records earn nothing.
func (p Profile) PercentFor(r *till.Reconciliation) (pct decimal.Decimal, tag Tag, ok bool) {
	switch p.Mode {
	case ModeFlat:
		return p.FlatPercent, "", true
	case ModeSpecial:
		pct, ok = p.BranchPercents[r.BranchID]
		return pct, "", ok
	case ModeTagged:
		tag, ok = p.TagFor(r)
		if !ok {
			return decimal.Zero, "", false
		}
		pct, ok = p.TagPercents[tag]
		return pct, tag, ok
	}
	return decimal.Zero, "", false
}
