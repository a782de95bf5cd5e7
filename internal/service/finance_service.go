package service

import (
	"fmt"
	"math"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/state"
)

// FilterAll matches every staff member or client.
const FilterAll = "all"

// ReportFilter financial report selection. Dates are inclusive YYYY-MM-DD.
type ReportFilter struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	StaffID  string `json:"staffId"`
	ClientID string `json:"clientId"`
}

func (f ReportFilter) Validate() error {
	start, err := domain.ParseDate(f.Start)
	if err != nil {
		return fmt.Errorf("%w: start must be YYYY-MM-DD", ErrInvalidInput)
	}
	end, err := domain.ParseDate(f.End)
	if err != nil {
		return fmt.Errorf("%w: end must be YYYY-MM-DD", ErrInvalidInput)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end is before start", ErrInvalidInput)
	}
	return nil
}

func matchesID(filter string, id *string) bool {
	if filter == "" || filter == FilterAll {
		return true
	}
	return id != nil && *id == filter
}

// Matches only Confirmed shifts count toward money.
func (f ReportFilter) Matches(s domain.Shift) bool {
	return s.Date >= f.Start && s.Date <= f.End &&
		matchesID(f.StaffID, s.StaffID) &&
		matchesID(f.ClientID, s.ClientID) &&
		s.Status == domain.ShiftConfirmed
}

// FilterShifts applies f preserving order.
func FilterShifts(shifts []domain.Shift, f ReportFilter) []domain.Shift {
	out := []domain.Shift{}
	for _, s := range shifts {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// FinancialSummary totals over unrounded per-shift figures.
type FinancialSummary struct {
	ShiftCount     int     `json:"shiftCount"`
	TotalHours     float64 `json:"totalHours"`
	TotalStaffCost float64 `json:"totalStaffCost"`
	TotalRevenue   float64 `json:"totalRevenue"`
	Margin         float64 `json:"margin"`
}

// ReportRow one exported shift; money is rounded to 2 dp.
type ReportRow struct {
	ShiftID      string             `json:"shiftId"`
	Date         string             `json:"date"`
	Time         string             `json:"time"`
	Client       string             `json:"client"`
	Staff        string             `json:"staff"`
	Duration     int                `json:"duration"`
	StaffPay     float64            `json:"staffPay"`
	ClientCharge float64            `json:"clientCharge"`
	Status       domain.ShiftStatus `json:"status"`
}

// FinancialReport summary plus rows for one filter.
type FinancialReport struct {
	Filter  ReportFilter     `json:"filter"`
	Summary FinancialSummary `json:"summary"`
	Rows    []ReportRow      `json:"rows"`
}

type rateBook struct {
	staff   map[string]domain.Staff
	clients map[string]domain.Client
}

func newRateBook(staff []domain.Staff, clients []domain.Client) rateBook {
	b := rateBook{
		staff:   make(map[string]domain.Staff, len(staff)),
		clients: make(map[string]domain.Client, len(clients)),
	}
	for _, s := range staff {
		b.staff[s.ID] = s
	}
	for _, c := range clients {
		b.clients[c.ID] = c
	}
	return b
}

// pay and charge for one shift; unresolved references give 0.
func (b rateBook) money(s domain.Shift) (pay, charge float64) {
	h := s.Hours()
	if st, ok := b.staff[s.AssignedTo()]; ok {
		pay = h * st.HourlyRate
	}
	if c, ok := b.clients[s.ForClient()]; ok {
		charge = h * c.HourlyRate
	}
	return pay, charge
}

// Summarize totals already-filtered shifts.
func Summarize(shifts []domain.Shift, staff []domain.Staff, clients []domain.Client) FinancialSummary {
	book := newRateBook(staff, clients)
	var sum FinancialSummary
	for _, s := range shifts {
		pay, charge := book.money(s)
		sum.ShiftCount++
		sum.TotalHours += s.Hours()
		sum.TotalStaffCost += pay
		sum.TotalRevenue += charge
	}
	sum.Margin = sum.TotalRevenue - sum.TotalStaffCost
	return sum
}

// Rows one row per shift. Unknown clients read "Unknown", unknown or missing
// staff "Unassigned".
func Rows(shifts []domain.Shift, staff []domain.Staff, clients []domain.Client) []ReportRow {
	book := newRateBook(staff, clients)
	rows := make([]ReportRow, 0, len(shifts))
	for _, s := range shifts {
		pay, charge := book.money(s)
		clientName, staffName := "Unknown", "Unassigned"
		if c, ok := book.clients[s.ForClient()]; ok {
			clientName = c.Name
		}
		if st, ok := book.staff[s.AssignedTo()]; ok {
			staffName = st.Name
		}
		rows = append(rows, ReportRow{
			ShiftID:      s.ID,
			Date:         s.Date,
			Time:         s.StartTime,
			Client:       clientName,
			Staff:        staffName,
			Duration:     s.Duration,
			StaffPay:     round2(pay),
			ClientCharge: round2(charge),
			Status:       s.Status,
		})
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FinanceService read-side reports over the current snapshot.
type FinanceService struct {
	st *state.State
}

func NewFinanceService(st *state.State) *FinanceService {
	return &FinanceService{st: st}
}

func (s *FinanceService) Report(f ReportFilter) (FinancialReport, error) {
	if err := f.Validate(); err != nil {
		return FinancialReport{}, err
	}
	v := s.st.Snapshot()
	shifts := FilterShifts(v.Shifts, f)
	return FinancialReport{
		Filter:  f,
		Summary: Summarize(shifts, v.Staff, v.Clients),
		Rows:    Rows(shifts, v.Staff, v.Clients),
	}, nil
}
