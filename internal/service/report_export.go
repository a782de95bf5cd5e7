package service

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FinancialCSVHeader column order of the CSV export
var FinancialCSVHeader = []string{"Date", "Time", "Client", "Staff", "Duration (mins)", "Staff Pay", "Client Charge", "Status"}

// FinancialReportFilename e.g. financial_report_2024-05-01_to_2024-05-31.csv
func FinancialReportFilename(f ReportFilter, ext string) string {
	return fmt.Sprintf("financial_report_%s_to_%s.%s", f.Start, f.End, ext)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// quoteCell wraps every cell in double quotes; encoding/csv only quotes on demand.
func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeCSVLine(w io.Writer, cells []string) error {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = quoteCell(c)
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// WriteFinancialCSV writes the header and one line per row.
func WriteFinancialCSV(w io.Writer, rows []ReportRow) error {
	if err := writeCSVLine(w, FinancialCSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeCSVLine(w, []string{
			r.Date,
			r.Time,
			r.Client,
			r.Staff,
			strconv.Itoa(r.Duration),
			money(r.StaffPay),
			money(r.ClientCharge),
			string(r.Status),
		}); err != nil {
			return err
		}
	}
	return nil
}

// GenerateFinancialReportXLSX renders the report as a workbook with a
// "Shifts" sheet and a "Summary" sheet.
func GenerateFinancialReportXLSX(report FinancialReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Shifts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4F46E5"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}

	if err := setRow(f, sheet, 1, toAny(FinancialCSVHeader)); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range report.Rows {
		values := []any{r.Date, r.Time, r.Client, r.Staff, r.Duration, r.StaffPay, r.ClientCharge, string(r.Status)}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}
	if n := len(report.Rows); n > 0 {
		if err := f.SetCellStyle(sheet, "F2", fmt.Sprintf("G%d", n+1), moneyStyle); err != nil {
			return nil, fmt.Errorf("failed to style money columns: %w", err)
		}
	}

	widths := map[string]float64{"A": 12, "B": 8, "C": 22, "D": 22, "E": 16, "F": 12, "G": 14, "H": 12}
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header row: %w", err)
	}

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	lines := [][]any{
		{"Period", report.Filter.Start + " to " + report.Filter.End},
		{"Confirmed shifts", report.Summary.ShiftCount},
		{"Total hours", report.Summary.TotalHours},
		{"Total staff cost", round2(report.Summary.TotalStaffCost)},
		{"Total revenue", round2(report.Summary.TotalRevenue)},
		{"Margin", round2(report.Summary.Margin)},
	}
	for i, l := range lines {
		if err := setRow(f, summary, i+1, l); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summary, "A", "A", 20); err != nil {
		return nil, fmt.Errorf("failed to set summary width: %w", err)
	}
	if err := f.SetColWidth(summary, "B", "B", 28); err != nil {
		return nil, fmt.Errorf("failed to set summary width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &buf, nil
}

// setRow writes values left to right starting at column A.
func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("invalid cell (%d,%d): %w", col+1, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
