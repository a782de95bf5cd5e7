package httpapi

import (
	"net/http"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/service"

	"go.uber.org/zap"
)

// EmarHandler medication rounds and administration
type EmarHandler struct {
	emar   *service.EmarService
	logger *zap.Logger
}

func NewEmarHandler(emar *service.EmarService, logger *zap.Logger) *EmarHandler {
	return &EmarHandler{emar: emar, logger: logger}
}

func (h *EmarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/emar/due":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Due(w, r)
	case "/api/v1/emar/administer":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Administer(w, r)
	case "/api/v1/emar/logs":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, Ok(h.emar.Logs(r.URL.Query().Get("clientId"))))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Due the round for ?time=Morning|Afternoon|Evening, Morning when omitted.
func (h *EmarHandler) Due(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := domain.TimeOfDay(q.Get("time"))
	if t == "" {
		t = domain.TimeMorning
	}
	round, err := h.emar.Round(t, q.Get("search"))
	respond(w, h.logger, round, err)
}

// Administer records a dose outcome. A Taken dose is refused while stock is
// empty. Carers always record as themselves; a manager may name another
// staff member and defaults to their own id.
func (h *EmarHandler) Administer(w http.ResponseWriter, r *http.Request) {
	var req service.AdministerRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, TokenExpired("no session"))
		return
	}
	if !sess.Role.IsAdmin() || req.StaffID == "" {
		req.StaffID = sess.UserID
	}
	if req.Status == domain.MedTaken {
		stock, err := h.emar.StockLevel(req.ClientID, req.MedicationID)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		if stock <= 0 {
			writeJSON(w, http.StatusOK, Fail("Cannot administer: Out of stock!"))
			return
		}
	}
	entry, err := h.emar.Administer(r.Context(), req)
	respond(w, h.logger, entry, err)
}
