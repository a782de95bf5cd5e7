package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/state"
)

// DirectoryService read-side listings for staff, clients and the rota.
type DirectoryService struct {
	st *state.State
}

func NewDirectoryService(st *state.State) *DirectoryService {
	return &DirectoryService{st: st}
}

// ListStaff filters by case-insensitive name and exact role ("" or "all" for any).
func (s *DirectoryService) ListStaff(search, role string) []domain.Staff {
	q := strings.ToLower(strings.TrimSpace(search))
	out := []domain.Staff{}
	for _, m := range s.st.Snapshot().Staff {
		if !strings.Contains(strings.ToLower(m.Name), q) {
			continue
		}
		if role != "" && role != FilterAll && string(m.Role) != role {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ListClients search matches name, room number or postcode.
func (s *DirectoryService) ListClients(search, careLevel, careType string) []domain.Client {
	q := strings.ToLower(strings.TrimSpace(search))
	out := []domain.Client{}
	for _, c := range s.st.Snapshot().Clients {
		if q != "" &&
			!strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.RoomNumber()), q) &&
			!strings.Contains(strings.ToLower(c.Postcode()), q) {
			continue
		}
		if careLevel != "" && careLevel != FilterAll && string(c.CareLevel) != careLevel {
			continue
		}
		if careType != "" && careType != FilterAll && string(c.CareType()) != careType {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DashboardStats headline numbers for managers.
type DashboardStats struct {
	ActiveStaff      int     `json:"activeStaff"`
	ComplianceAlerts int     `json:"complianceAlerts"`
	OvertimeStaff    int     `json:"overtimeStaff"`
	Clients          int     `json:"clients"`
	UnassignedShifts int     `json:"unassignedShifts"`
	ConfirmedHours   float64 `json:"confirmedHours"`
}

func (s *DirectoryService) Dashboard() DashboardStats {
	v := s.st.Snapshot()
	stats := DashboardStats{ActiveStaff: len(v.Staff), Clients: len(v.Clients)}
	for _, m := range v.Staff {
		if m.ComplianceStatus == domain.ComplianceRed {
			stats.ComplianceAlerts++
		}
		if m.IsOvertime() {
			stats.OvertimeStaff++
		}
	}
	for _, sh := range v.Shifts {
		switch sh.Status {
		case domain.ShiftUnassigned:
			stats.UnassignedShifts++
		case domain.ShiftConfirmed:
			stats.ConfirmedHours += sh.Hours()
		}
	}
	return stats
}

// RotaDay one day of the weekly rota grouped by band.
type RotaDay struct {
	Date  string                              `json:"date"`
	Bands map[domain.ShiftType][]domain.Shift `json:"bands"`
	Count int                                 `json:"count"`
}

// RotaWeek Monday-start week
type RotaWeek struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	Days  []RotaDay `json:"days"`
}

// MondayOf the Monday on or before date.
func MondayOf(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// WeekShifts the Monday-start week containing anchor, shifts sorted by start time.
func (s *DirectoryService) WeekShifts(anchor string) (RotaWeek, error) {
	d, err := domain.ParseDate(anchor)
	if err != nil {
		return RotaWeek{}, fmt.Errorf("%w: week must be YYYY-MM-DD", ErrInvalidInput)
	}
	start := MondayOf(d)
	week := RotaWeek{
		Start: start.Format(domain.DateLayout),
		End:   start.AddDate(0, 0, 6).Format(domain.DateLayout),
	}
	index := map[string]int{}
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i).Format(domain.DateLayout)
		index[date] = i
		week.Days = append(week.Days, RotaDay{Date: date, Bands: map[domain.ShiftType][]domain.Shift{}})
	}

	for _, sh := range s.st.Snapshot().Shifts {
		i, ok := index[sh.Date]
		if !ok {
			continue
		}
		day := &week.Days[i]
		day.Bands[sh.Type] = append(day.Bands[sh.Type], sh)
		day.Count++
	}
	for i := range week.Days {
		for _, list := range week.Days[i].Bands {
			sort.SliceStable(list, func(a, b int) bool { return list[a].StartTime < list[b].StartTime })
		}
	}
	return week, nil
}
