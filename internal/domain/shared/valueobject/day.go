package valueobject

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
)

// Day is a calendar date in canonical YYYY-MM-DD form.
// Canonical days compare correctly as strings; the empty Day means "no valid date".
type Day string

// ParseDay parses a canonical YYYY-MM-DD date
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return DayOf(t), nil
}

// LenientDay accepts YYYY-MM-DD or an RFC3339 timestamp (keeping its date part).
// Anything else yields the empty Day.
func LenientDay(s string) Day {
	s = strings.TrimSpace(s)
	if d, err := ParseDay(s); err == nil {
		return d
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Day(t.Format(time.DateOnly))
	}
	return ""
}

// DayOf returns the calendar day of t in its own location
func DayOf(t time.Time) Day {
	return Day(t.Format(time.DateOnly))
}

// IsZero reports whether the day is empty
func (d Day) IsZero() bool { return d == "" }

// String returns the canonical representation
func (d Day) String() string { return string(d) }

// Time returns midnight UTC of the day
func (d Day) Time() time.Time {
	t, _ := time.Parse(time.DateOnly, string(d))
	return t
}

// Before reports whether d is strictly before other
func (d Day) Before(other Day) bool { return d < other }

// DateRange is an inclusive [From, To] range; nil bounds are open
type DateRange struct {
	From *Day
	To   *Day
}

// NewDateRange parses optional bounds. Empty strings mean an open bound.
// A malformed bound or From after To is a validation error.
func NewDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if strings.TrimSpace(from) != "" {
		d, err := ParseDay(from)
		if err != nil {
			return DateRange{}, err
		}
		r.From = &d
	}
	if strings.TrimSpace(to) != "" {
		d, err := ParseDay(to)
		if err != nil {
			return DateRange{}, err
		}
		r.To = &d
	}
	return r, r.Validate()
}

// Between builds a closed range
func Between(from, to Day) DateRange {
	return DateRange{From: &from, To: &to}
}

// Validate rejects ranges whose start is after their end
func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return shared.NewDomainError(shared.CodeInvalidDateRange,
			fmt.Sprintf("dateFrom %s is after dateTo %s", *r.From, *r.To))
	}
	return nil
}

// IsOpen reports whether neither bound is set
func (r DateRange) IsOpen() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether d lies within the range, bounds included.
// The empty Day only matches a fully open range.
func (r DateRange) Contains(d Day) bool {
	if r.IsOpen() {
		return true
	}
	if d.IsZero() {
		return false
	}
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && r.To.Before(d) {
		return false
	}
	return true
}
