package httpapi

import (
	"net/http"

	"github.com/djval79/caresync1/internal/service"

	"go.uber.org/zap"
)

// Router stdlib http.ServeMux; route patterns are few and prefix-shaped.
type Router struct {
	mux     *http.ServeMux
	auth    *Authenticator
	metrics *Metrics
	logger  *zap.Logger
}

func NewRouter(auth *Authenticator, metrics *Metrics, logger *zap.Logger) *Router {
	return &Router{
		mux:     http.NewServeMux(),
		auth:    auth,
		metrics: metrics,
		logger:  logger,
	}
}

// Handle registers an instrumented public route.
func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	if r.metrics != nil {
		h = r.metrics.instrument(pattern, h)
	}
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler plain http.Handler, used for /metrics.
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// Protected registers a route that needs a bearer token; the handler decides
// per method which roles may proceed.
func (r *Router) Protected(pattern string, h http.HandlerFunc) {
	r.Handle(pattern, r.auth.Require(h))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
	if r.metrics != nil {
		r.HandleHandler("/metrics", r.metrics.Handler())
	}
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/auth/api/v1/login", h.ServeHTTP)
	r.Handle("/auth/api/v1/signup", h.ServeHTTP)
}

func (r *Router) RegisterStaffRoutes(h *StaffHandler) {
	r.Protected("/api/v1/staff", h.ServeHTTP)
	r.Protected("/api/v1/staff/", h.ServeHTTP)
}

func (r *Router) RegisterClientRoutes(h *ClientHandler) {
	r.Protected("/api/v1/clients", h.ServeHTTP)
	r.Protected("/api/v1/clients/", h.ServeHTTP)
}

func (r *Router) RegisterShiftRoutes(h *ShiftHandler) {
	r.Protected("/api/v1/shifts", h.ServeHTTP)
	r.Protected("/api/v1/shifts/", h.ServeHTTP)
}

func (r *Router) RegisterEmarRoutes(h *EmarHandler) {
	r.Protected("/api/v1/emar/", h.ServeHTTP)
}

func (r *Router) RegisterReportRoutes(h *ReportHandler) {
	r.Protected("/api/v1/reports/", h.ServeHTTP)
}

func (r *Router) RegisterOverviewRoutes(h *OverviewHandler) {
	r.Protected("/api/v1/insights", h.ServeHTTP)
	r.Protected("/api/v1/dashboard", h.ServeHTTP)
}

// Handlers bundles everything NewAPI mounts.
type Handlers struct {
	Auth     *AuthHandler
	Staff    *StaffHandler
	Clients  *ClientHandler
	Shifts   *ShiftHandler
	Emar     *EmarHandler
	Reports  *ReportHandler
	Overview *OverviewHandler
}

// NewAPI wires the full route table.
func NewAPI(tokens *service.TokenIssuer, metrics *Metrics, h Handlers, logger *zap.Logger) *Router {
	r := NewRouter(NewAuthenticator(tokens, logger), metrics, logger)
	r.RegisterHealthRoutes()
	r.RegisterAuthRoutes(h.Auth)
	r.RegisterStaffRoutes(h.Staff)
	r.RegisterClientRoutes(h.Clients)
	r.RegisterShiftRoutes(h.Shifts)
	r.RegisterEmarRoutes(h.Emar)
	r.RegisterReportRoutes(h.Reports)
	r.RegisterOverviewRoutes(h.Overview)
	return r
}
