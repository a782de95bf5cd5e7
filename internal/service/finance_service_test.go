package service

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/djval79/caresync1/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func financeFixture() ([]domain.Shift, []domain.Staff, []domain.Client) {
	staff := []domain.Staff{
		{ID: "a", Name: "Ann", HourlyRate: 12.34},
		{ID: "b", Name: "Ben", HourlyRate: 10},
	}
	clients := []domain.Client{
		{ID: "c", Name: "Cara", HourlyRate: 35},
	}
	p := domain.StringPtr
	shifts := []domain.Shift{
		{ID: "1", StaffID: p("a"), ClientID: p("c"), Date: "2024-05-01", StartTime: "08:00", Duration: 20, Status: domain.ShiftConfirmed},
		{ID: "2", StaffID: p("a"), ClientID: p("c"), Date: "2024-05-02", StartTime: "08:00", Duration: 20, Status: domain.ShiftConfirmed},
		{ID: "3", StaffID: p("a"), ClientID: p("c"), Date: "2024-05-03", StartTime: "08:00", Duration: 20, Status: domain.ShiftConfirmed},
		{ID: "4", StaffID: nil, ClientID: p("c"), Date: "2024-05-03", StartTime: "12:00", Duration: 60, Status: domain.ShiftUnassigned},
		{ID: "5", StaffID: p("b"), ClientID: p("c"), Date: "2024-05-04", StartTime: "12:00", Duration: 60, Status: domain.ShiftAssigned},
		{ID: "6", StaffID: p("ghost"), ClientID: p("gone"), Date: "2024-05-05", StartTime: "12:00", Duration: 30, Status: domain.ShiftConfirmed},
		{ID: "7", StaffID: p("b"), ClientID: p("c"), Date: "2024-06-01", StartTime: "12:00", Duration: 60, Status: domain.ShiftConfirmed},
	}
	return shifts, staff, clients
}

func TestFilterShifts_ConfirmedOnly(t *testing.T) {
	shifts, _, _ := financeFixture()
	got := FilterShifts(shifts, ReportFilter{Start: "2024-05-01", End: "2024-05-31", StaffID: FilterAll, ClientID: FilterAll})
	ids := []string{}
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "6"}, ids)

	byStaff := FilterShifts(shifts, ReportFilter{Start: "2024-05-01", End: "2024-06-30", StaffID: "b"})
	require.Len(t, byStaff, 1)
	assert.Equal(t, "7", byStaff[0].ID)

	byClient := FilterShifts(shifts, ReportFilter{Start: "2024-05-01", End: "2024-05-01", ClientID: "c"})
	assert.Len(t, byClient, 1)
}

func TestSummarize_UsesUnroundedFigures(t *testing.T) {
	shifts, staff, clients := financeFixture()
	filtered := FilterShifts(shifts, ReportFilter{Start: "2024-05-01", End: "2024-05-03"})

	sum := Summarize(filtered, staff, clients)
	assert.Equal(t, 3, sum.ShiftCount)
	assert.InDelta(t, 1.0, sum.TotalHours, 1e-9)
	// 3 x (20/60 x 12.34) = 12.34 exactly; the rounded rows sum to 12.33
	assert.InDelta(t, 12.34, sum.TotalStaffCost, 1e-9)
	assert.InDelta(t, 35.0, sum.TotalRevenue, 1e-9)
	assert.InDelta(t, 35.0-12.34, sum.Margin, 1e-9)

	rows := Rows(filtered, staff, clients)
	var rowPay float64
	for _, r := range rows {
		assert.Equal(t, 4.11, r.StaffPay)
		rowPay += r.StaffPay
	}
	assert.InDelta(t, 12.33, rowPay, 1e-9)
}

func TestRows_UnknownReferences(t *testing.T) {
	shifts, staff, clients := financeFixture()
	filtered := FilterShifts(shifts, ReportFilter{Start: "2024-05-05", End: "2024-05-05"})
	rows := Rows(filtered, staff, clients)
	require.Len(t, rows, 1)
	assert.Equal(t, "Unknown", rows[0].Client)
	assert.Equal(t, "Unassigned", rows[0].Staff)
	assert.Zero(t, rows[0].StaffPay)
	assert.Zero(t, rows[0].ClientCharge)

	sum := Summarize(filtered, staff, clients)
	assert.Equal(t, 0.5, sum.TotalHours)
	assert.Zero(t, sum.TotalRevenue)
}

func TestReportFilterValidate(t *testing.T) {
	assert.NoError(t, ReportFilter{Start: "2024-05-01", End: "2024-05-01"}.Validate())
	assert.ErrorIs(t, ReportFilter{Start: "2024-05-02", End: "2024-05-01"}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, ReportFilter{Start: "May", End: "2024-05-01"}.Validate(), ErrInvalidInput)
}

func TestWriteFinancialCSV(t *testing.T) {
	shifts, staff, clients := financeFixture()
	clients[0].Name = `Cara "CJ" Jones`
	filtered := FilterShifts(shifts, ReportFilter{Start: "2024-05-01", End: "2024-05-31"})
	rows := Rows(filtered, staff, clients)

	var buf bytes.Buffer
	require.NoError(t, WriteFinancialCSV(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(filtered)+1)
	assert.Equal(t, `"Date","Time","Client","Staff","Duration (mins)","Staff Pay","Client Charge","Status"`, lines[0])
	assert.Equal(t, `"2024-05-01","08:00","Cara ""CJ"" Jones","Ann","20","4.11","11.67","Confirmed"`, lines[1])
	assert.Equal(t, `"2024-05-05","12:00","Unknown","Unassigned","30","0.00","0.00","Confirmed"`, lines[4])

	// still valid CSV
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, FinancialCSVHeader, records[0])
	assert.Equal(t, `Cara "CJ" Jones`, records[1][2])
}

func TestFinancialReportFilename(t *testing.T) {
	f := ReportFilter{Start: "2024-05-01", End: "2024-05-31"}
	assert.Equal(t, "financial_report_2024-05-01_to_2024-05-31.csv", FinancialReportFilename(f, "csv"))
}

func TestGenerateFinancialReportXLSX(t *testing.T) {
	shifts, staff, clients := financeFixture()
	f := ReportFilter{Start: "2024-05-01", End: "2024-05-31"}
	filtered := FilterShifts(shifts, f)
	report := FinancialReport{Filter: f, Summary: Summarize(filtered, staff, clients), Rows: Rows(filtered, staff, clients)}

	buf, err := GenerateFinancialReportXLSX(report)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Shifts")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, FinancialCSVHeader, rows[0])
	assert.Equal(t, "Ann", rows[1][3])

	period, err := wb.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 to 2024-05-31", period)
}

func TestGenerateFinancialReportXLSX_CellWriteFails(t *testing.T) {
	// excelize caps a cell at 32767 characters
	report := FinancialReport{
		Filter: ReportFilter{Start: "2024-05-01", End: "2024-05-31"},
		Rows: []ReportRow{{
			Date:   "2024-05-20",
			Time:   "08:00",
			Client: strings.Repeat("x", 32768),
			Staff:  "Ann",
			Status: domain.ShiftConfirmed,
		}},
	}

	buf, err := GenerateFinancialReportXLSX(report)
	require.Error(t, err)
	assert.Nil(t, buf)
	assert.Contains(t, err.Error(), "Shifts!C2")
}

func TestFinanceService_Report(t *testing.T) {
	st, _ := newTestState(t)
	svc := NewFinanceService(st)

	report, err := svc.Report(ReportFilter{Start: "2024-05-20", End: "2024-05-20", StaffID: FilterAll, ClientID: FilterAll})
	require.NoError(t, err)
	// s4 is unassigned and excluded
	assert.Equal(t, 3, report.Summary.ShiftCount)
	assert.Len(t, report.Rows, 3)
	assert.InDelta(t, 11.75, report.Summary.TotalHours, 1e-9)

	_, err = svc.Report(ReportFilter{Start: "bad", End: "2024-05-20"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
