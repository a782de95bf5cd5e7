package domain

import (
	"strconv"
	"strings"
)

type Medication struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage"`
	Frequency    string   `json:"frequency"`
	Times        []string `json:"times"`
	Instructions string   `json:"instructions,omitempty"`
	StockLevel   int      `json:"stockLevel"`
}

// DueAt reports whether any scheduled time falls in the given round.
func (m Medication) DueAt(t TimeOfDay) bool {
	for _, hhmm := range m.Times {
		h, ok := HourOf(hhmm)
		if !ok {
			continue
		}
		if TimeOfDayForHour(h) == t {
			return true
		}
	}
	return false
}

// LowStock matches the dashboard warning threshold (under a week of daily doses).
func (m Medication) LowStock() bool {
	return m.StockLevel < 7
}

// MedicationLog one administration event. Logs are append-only.
type MedicationLog struct {
	ID           string           `json:"id"`
	MedicationID string           `json:"medicationId"`
	ClientID     string           `json:"clientId"`
	StaffID      string           `json:"staffId"`
	Timestamp    string           `json:"timestamp"`
	Status       MedicationStatus `json:"status"`
	Notes        string           `json:"notes,omitempty"`
}

// HourOf parses the hour component of "HH:MM". Minutes are ignored.
func HourOf(hhmm string) (int, bool) {
	part := hhmm
	if i := strings.IndexByte(hhmm, ':'); i >= 0 {
		part = hhmm[:i]
	}
	h, err := strconv.Atoi(strings.TrimSpace(part))
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// TimeOfDayForHour splits the day at 12 and 17.
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour < 12:
		return TimeMorning
	case hour < 17:
		return TimeAfternoon
	default:
		return TimeEvening
	}
}
