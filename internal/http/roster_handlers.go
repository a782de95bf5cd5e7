package httpapi

import (
	"net/http"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/service"

	"go.uber.org/zap"
)

// StaffHandler /api/v1/staff
type StaffHandler struct {
	roster    *service.RosterService
	directory *service.DirectoryService
	logger    *zap.Logger
}

func NewStaffHandler(roster *service.RosterService, directory *service.DirectoryService, logger *zap.Logger) *StaffHandler {
	return &StaffHandler{roster: roster, directory: directory, logger: logger}
}

func (h *StaffHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, "/api/v1/staff")
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, Ok(h.directory.ListStaff(q.Get("search"), q.Get("role"))))
	case len(seg) == 0 && r.Method == http.MethodPost:
		if requireAdmin(w, r) {
			h.create(w, r)
		}
	case len(seg) == 1 && r.Method == http.MethodPut:
		if requireAdmin(w, r) {
			h.update(w, r, seg[0])
		}
	case len(seg) <= 1:
		methodNotAllowed(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *StaffHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.NewStaffRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	member, err := h.roster.AddStaff(r.Context(), req)
	respond(w, h.logger, member, err)
}

func (h *StaffHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req service.StaffUpdate
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	member, err := h.roster.UpdateStaff(r.Context(), id, req)
	respond(w, h.logger, member, err)
}

// ClientHandler /api/v1/clients and client medication charts
type ClientHandler struct {
	roster    *service.RosterService
	emar      *service.EmarService
	directory *service.DirectoryService
	logger    *zap.Logger
}

func NewClientHandler(roster *service.RosterService, emar *service.EmarService, directory *service.DirectoryService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{roster: roster, emar: emar, directory: directory, logger: logger}
}

// ClientCreated new client plus its auto-scheduled visits
type ClientCreated struct {
	Client domain.Client  `json:"client"`
	Shifts []domain.Shift `json:"shifts"`
}

func (h *ClientHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, "/api/v1/clients")
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, Ok(h.directory.ListClients(q.Get("search"), q.Get("careLevel"), q.Get("careType"))))
	case len(seg) == 0 && r.Method == http.MethodPost:
		if requireAdmin(w, r) {
			h.create(w, r)
		}
	case len(seg) == 1 && r.Method == http.MethodPut:
		if requireAdmin(w, r) {
			h.update(w, r, seg[0])
		}
	case len(seg) == 2 && seg[1] == "medications" && r.Method == http.MethodPost:
		if requireAdmin(w, r) {
			h.addMedication(w, r, seg[0])
		}
	case len(seg) <= 1, len(seg) == 2 && seg[1] == "medications":
		methodNotAllowed(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ClientHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.ClientRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	c, shifts, err := h.roster.AddClient(r.Context(), req)
	respond(w, h.logger, ClientCreated{Client: c, Shifts: shifts}, err)
}

func (h *ClientHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req service.ClientRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	c, err := h.roster.UpdateClient(r.Context(), id, req)
	respond(w, h.logger, c, err)
}

func (h *ClientHandler) addMedication(w http.ResponseWriter, r *http.Request, clientID string) {
	var med domain.Medication
	if err := readBodyJSON(r, maxBody, &med); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	out, err := h.emar.AddMedication(r.Context(), clientID, med)
	respond(w, h.logger, out, err)
}

// ShiftHandler /api/v1/shifts
type ShiftHandler struct {
	roster    *service.RosterService
	directory *service.DirectoryService
	today     func() string
	logger    *zap.Logger
}

func NewShiftHandler(roster *service.RosterService, directory *service.DirectoryService, gen *service.ShiftGenerator, logger *zap.Logger) *ShiftHandler {
	return &ShiftHandler{roster: roster, directory: directory, today: gen.Today, logger: logger}
}

// RecurringRequest one visit repeated until EndDate
type RecurringRequest struct {
	Shift      domain.ShiftDraft     `json:"shift"`
	Recurrence domain.RecurrenceKind `json:"recurrence"`
	EndDate    string                `json:"endDate"`
}

type assignRequest struct {
	StaffID string `json:"staffId"`
}

func (h *ShiftHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, "/api/v1/shifts")
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		h.week(w, r)
	case len(seg) == 0 && r.Method == http.MethodPost:
		if requireAdmin(w, r) {
			h.create(w, r)
		}
	case len(seg) == 1 && seg[0] == "batch" && r.Method == http.MethodPost:
		if requireAdmin(w, r) {
			h.batch(w, r)
		}
	case len(seg) == 1 && seg[0] == "recurring" && r.Method == http.MethodPost:
		if requireAdmin(w, r) {
			h.recurring(w, r)
		}
	case len(seg) == 1 && r.Method == http.MethodPut:
		if requireAdmin(w, r) {
			h.update(w, r, seg[0])
		}
	case len(seg) == 2 && seg[1] == "assign" && r.Method == http.MethodPost:
		if requireAdmin(w, r) {
			h.assign(w, r, seg[0])
		}
	case len(seg) <= 1, len(seg) == 2 && seg[1] == "assign":
		methodNotAllowed(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ShiftHandler) week(w http.ResponseWriter, r *http.Request) {
	anchor := r.URL.Query().Get("week")
	if anchor == "" {
		anchor = h.today()
	}
	week, err := h.directory.WeekShifts(anchor)
	respond(w, h.logger, week, err)
}

func (h *ShiftHandler) create(w http.ResponseWriter, r *http.Request) {
	var draft domain.ShiftDraft
	if err := readBodyJSON(r, maxBody, &draft); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	sh, err := h.roster.CreateOne(r.Context(), draft)
	respond(w, h.logger, sh, err)
}

func (h *ShiftHandler) batch(w http.ResponseWriter, r *http.Request) {
	var drafts []domain.ShiftDraft
	if err := readBodyJSON(r, maxBody, &drafts); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if len(drafts) == 0 {
		writeJSON(w, http.StatusOK, Fail("no shifts in batch"))
		return
	}
	shifts, err := h.roster.CreateMany(r.Context(), drafts)
	respond(w, h.logger, shifts, err)
}

func (h *ShiftHandler) recurring(w http.ResponseWriter, r *http.Request) {
	var req RecurringRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	shifts, err := h.roster.CreateRecurring(r.Context(), req.Shift, req.Recurrence, req.EndDate)
	respond(w, h.logger, shifts, err)
}

func (h *ShiftHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var draft domain.ShiftDraft
	if err := readBodyJSON(r, maxBody, &draft); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	sh, err := h.roster.Update(r.Context(), id, draft)
	respond(w, h.logger, sh, err)
}

func (h *ShiftHandler) assign(w http.ResponseWriter, r *http.Request, id string) {
	var req assignRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil || req.StaffID == "" {
		writeJSON(w, http.StatusOK, Fail("staffId is required"))
		return
	}
	sh, err := h.roster.Assign(r.Context(), id, req.StaffID)
	respond(w, h.logger, sh, err)
}
