package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/service"

	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler financial reports (JSON, CSV and Excel)
type ReportHandler struct {
	finance *service.FinanceService
	today   func() string
	logger  *zap.Logger
}

func NewReportHandler(finance *service.FinanceService, gen *service.ShiftGenerator, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{finance: finance, today: gen.Today, logger: logger}
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !requireAdmin(w, r) {
		return
	}
	switch r.URL.Path {
	case "/api/v1/reports/financial":
		h.Financial(w, r)
	case "/api/v1/reports/financial.csv":
		h.FinancialCSV(w, r)
	case "/api/v1/reports/financial.xlsx":
		h.FinancialXLSX(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// filter reads start/end/staffId/clientId; a missing bound falls back to the
// current calendar month.
func (h *ReportHandler) filter(r *http.Request) service.ReportFilter {
	q := r.URL.Query()
	f := service.ReportFilter{
		Start:    q.Get("start"),
		End:      q.Get("end"),
		StaffID:  q.Get("staffId"),
		ClientID: q.Get("clientId"),
	}
	start, end := monthRange(h.today())
	if f.Start == "" {
		f.Start = start
	}
	if f.End == "" {
		f.End = end
	}
	return f
}

// monthRange first and last day of the month holding day. An unparseable day
// yields empty bounds, which the finance service rejects.
func monthRange(day string) (string, string) {
	d, err := domain.ParseDate(day)
	if err != nil {
		return "", ""
	}
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.Format(domain.DateLayout), first.AddDate(0, 1, -1).Format(domain.DateLayout)
}

func (h *ReportHandler) Financial(w http.ResponseWriter, r *http.Request) {
	report, err := h.finance.Report(h.filter(r))
	respond(w, h.logger, report, err)
}

func (h *ReportHandler) FinancialCSV(w http.ResponseWriter, r *http.Request) {
	f := h.filter(r)
	report, err := h.finance.Report(f)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	var buf bytes.Buffer
	if err := service.WriteFinancialCSV(&buf, report.Rows); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.attachment(w, "text/csv; charset=utf-8", service.FinancialReportFilename(f, "csv"), buf.Bytes())
}

func (h *ReportHandler) FinancialXLSX(w http.ResponseWriter, r *http.Request) {
	f := h.filter(r)
	report, err := h.finance.Report(f)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	buf, err := service.GenerateFinancialReportXLSX(report)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.attachment(w, xlsxContentType, service.FinancialReportFilename(f, "xlsx"), buf.Bytes())
}

func (h *ReportHandler) attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("failed to write report download", zap.String("file", filename), zap.Error(err))
	}
}
