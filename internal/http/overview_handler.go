package httpapi

import (
	"net/http"

	"github.com/djval79/caresync1/internal/service"

	"go.uber.org/zap"
)

// OverviewHandler manager dashboard and rota insights
type OverviewHandler struct {
	directory *service.DirectoryService
	insights  *service.InsightService
	metrics   *Metrics
	logger    *zap.Logger
}

func NewOverviewHandler(directory *service.DirectoryService, insights *service.InsightService, metrics *Metrics, logger *zap.Logger) *OverviewHandler {
	return &OverviewHandler{directory: directory, insights: insights, metrics: metrics, logger: logger}
}

func (h *OverviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if !requireAdmin(w, r) {
		return
	}
	switch r.URL.Path {
	case "/api/v1/dashboard":
		writeJSON(w, http.StatusOK, Ok(h.directory.Dashboard()))
	case "/api/v1/insights":
		h.Insights(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Insights always answers Ok; Fallback marks the canned set. Concurrent
// callers share one provider request.
func (h *OverviewHandler) Insights(w http.ResponseWriter, r *http.Request) {
	res := h.insights.Insights(r.Context(), "rota")
	if res.Fallback && h.metrics != nil {
		h.metrics.insightFallbacks.Inc()
	}
	writeJSON(w, http.StatusOK, Ok(res))
}
