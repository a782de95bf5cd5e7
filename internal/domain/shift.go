package domain

import "time"

// DateLayout calendar dates in snapshots and filters
const DateLayout = "2006-01-02"

// Shift a single scheduled visit.
// StaffID != nil exactly when Status is Confirmed.
type Shift struct {
	ID        string      `json:"id"`
	StaffID   *string     `json:"staffId"`
	ClientID  *string     `json:"clientId"`
	Date      string      `json:"date"`
	Type      ShiftType   `json:"type"`
	StartTime string      `json:"startTime"`
	Duration  int         `json:"duration"`
	Status    ShiftStatus `json:"status"`
}

// Hours duration in hours
func (s Shift) Hours() float64 {
	return float64(s.Duration) / 60
}

// AssignedTo returns the staff id or "" when unassigned.
func (s Shift) AssignedTo() string {
	if s.StaffID == nil {
		return ""
	}
	return *s.StaffID
}

// ForClient returns the client id or "".
func (s Shift) ForClient() string {
	if s.ClientID == nil {
		return ""
	}
	return *s.ClientID
}

// ShiftDraft fields a caller supplies when creating or editing a shift.
type ShiftDraft struct {
	Date      string    `json:"date"`
	Type      ShiftType `json:"type"`
	StartTime string    `json:"startTime"`
	Duration  int       `json:"duration"`
	StaffID   *string   `json:"staffId,omitempty"`
	ClientID  *string   `json:"clientId,omitempty"`
}

// Build turns the draft into a shift with the given id. Status follows the
// staff assignment; an empty staff id counts as unassigned.
func (d ShiftDraft) Build(id string) Shift {
	s := Shift{
		ID:        id,
		StaffID:   nonEmpty(d.StaffID),
		ClientID:  nonEmpty(d.ClientID),
		Date:      d.Date,
		Type:      d.Type,
		StartTime: d.StartTime,
		Duration:  d.Duration,
		Status:    ShiftUnassigned,
	}
	if s.StaffID != nil {
		s.Status = ShiftConfirmed
	}
	return s
}

// VisitTemplate a daily visit slot used by client auto-scheduling.
type VisitTemplate struct {
	Label           string `json:"label"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"durationMinutes"`
	Active          bool   `json:"active"`
}

// DefaultVisitTemplates the standard domiciliary call pattern.
func DefaultVisitTemplates() []VisitTemplate {
	return []VisitTemplate{
		{Label: "Morning Call", Time: "08:00", DurationMinutes: 45, Active: true},
		{Label: "Lunch Call", Time: "12:30", DurationMinutes: 30, Active: true},
		{Label: "Tea Call", Time: "17:00", DurationMinutes: 30, Active: false},
		{Label: "Bedtime Call", Time: "20:30", DurationMinutes: 30, Active: false},
	}
}

// BandForHour maps a start hour onto a shift band. Long Day is never derived.
func BandForHour(hour int) ShiftType {
	switch {
	case hour < 12:
		return ShiftMorning
	case hour < 17:
		return ShiftAfternoon
	default:
		return ShiftNight
	}
}

// ParseDate parses YYYY-MM-DD in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// StringPtr returns &s, or nil for "".
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	v := *p
	return &v
}
