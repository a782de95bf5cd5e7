package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/djval79/caresync1/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func reportCmd() *cobra.Command {
	var (
		filter service.ReportFilter
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the financial report for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unknown format %q (csv or xlsx)", format)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := service.NewFinanceService(a.state).Report(filter)
			if err != nil {
				return err
			}
			if out == "" {
				out = service.FinancialReportFilename(filter, format)
			} else if info, err := os.Stat(out); err == nil && info.IsDir() {
				out = filepath.Join(out, service.FinancialReportFilename(filter, format))
			}
			if err := writeReport(out, format, report); err != nil {
				return err
			}
			a.logger.Info("financial report written",
				zap.String("file", out),
				zap.Int("shifts", report.Summary.ShiftCount),
				zap.Float64("margin", report.Summary.Margin),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d shifts, %.2f hours, margin %.2f\n",
				out, report.Summary.ShiftCount, report.Summary.TotalHours, report.Summary.Margin)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Start, "start", "", "First date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.End, "end", "", "Last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.StaffID, "staff", service.FilterAll, "Staff id or 'all'")
	cmd.Flags().StringVar(&filter.ClientID, "client", service.FilterAll, "Client id or 'all'")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "Output file or directory")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func writeReport(path, format string, report service.FinancialReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return exportReport(f, path, format, report)
}

// exportReport writes the report to w and closes it. A failed close means the
// file may be truncated, so it is returned like any write error.
func exportReport(w io.WriteCloser, name, format string, report service.FinancialReport) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", name, cerr)
		}
	}()

	if format == "xlsx" {
		buf, err := service.GenerateFinancialReportXLSX(report)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, buf); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		return nil
	}
	return service.WriteFinancialCSV(w, report.Rows)
}
