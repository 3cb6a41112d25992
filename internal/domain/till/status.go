package till

import "github.com/farmacia/backoffice/internal/domain/shared"

// Shift is the till shift a reconciliation covers
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftNight     Shift = "night"
	ShiftOnDuty    Shift = "on_duty" // guardia
	ShiftUnknown   Shift = "unknown"
)

// IsValid checks if the shift is one of the known shifts
func (s Shift) IsValid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight, ShiftOnDuty, ShiftUnknown:
		return true
	}
	return false
}

// String returns the string representation of Shift
func (s Shift) String() string {
	return string(s)
}

var shiftLabels = map[string]Shift{
	"morning":    ShiftMorning,
	"manana":     ShiftMorning,
	"diurno":     ShiftMorning,
	"am":         ShiftMorning,
	"afternoon":  ShiftAfternoon,
	"tarde":      ShiftAfternoon,
	"vespertino": ShiftAfternoon,
	"pm":         ShiftAfternoon,
	"night":      ShiftNight,
	"noche":      ShiftNight,
	"nocturno":   ShiftNight,
	"onduty":     ShiftOnDuty,
	"guardia":    ShiftOnDuty,
	"deguardia":  ShiftOnDuty,
	"24h":        ShiftOnDuty,
}

// ParseShift maps a free-text shift label onto the closed set.
// Unrecognized labels become ShiftUnknown.
func ParseShift(label string) Shift {
	if s, ok := shiftLabels[shared.FoldLabel(label)]; ok {
		return s
	}
	return ShiftUnknown
}

// Status is the verification state of a reconciliation
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusDenied   Status = "denied"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusDenied:
		return true
	}
	return false
}

// IsTerminal returns true once a verifier has decided
func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusDenied
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

var statusLabels = map[string]Status{
	"pending":    StatusPending,
	"pendiente":  StatusPending,
	"verified":   StatusVerified,
	"verificado": StatusVerified,
	"aprobado":   StatusVerified,
	"approved":   StatusVerified,
	"denied":     StatusDenied,
	"denegado":   StatusDenied,
	"rechazado":  StatusDenied,
	"rejected":   StatusDenied,
}

// ParseStatus maps a free-text status label onto the closed set.
// Missing or unrecognized labels are treated as pending, i.e. not yet verified.
func ParseStatus(label string) Status {
	if s, ok := statusLabels[shared.FoldLabel(label)]; ok {
		return s
	}
	return StatusPending
}
