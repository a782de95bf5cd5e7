package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmarService electronic medication administration record.
type EmarService struct {
	st     *state.State
	events emitter
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func NewEmarService(st *state.State, pub EventPublisher, loc *time.Location, logger *zap.Logger) *EmarService {
	if loc == nil {
		loc = time.UTC
	}
	return &EmarService{
		st:     st,
		events: newEmitter(pub, logger),
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// AdministerRequest one administration event
type AdministerRequest struct {
	ClientID     string                  `json:"clientId"`
	MedicationID string                  `json:"medicationId"`
	StaffID      string                  `json:"staffId"`
	Status       domain.MedicationStatus `json:"status"`
	Notes        string                  `json:"notes"`
}

// Administer prepends a log entry. Only Taken touches stock: it drops by one
// and stops at zero. Callers are expected to block Taken on empty stock.
func (s *EmarService) Administer(ctx context.Context, req AdministerRequest) (domain.MedicationLog, error) {
	if !req.Status.Valid() {
		return domain.MedicationLog{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}
	entry := domain.MedicationLog{
		ID:           uuid.NewString(),
		MedicationID: req.MedicationID,
		ClientID:     req.ClientID,
		StaffID:      req.StaffID,
		Timestamp:    s.now().UTC().Format(time.RFC3339),
		Status:       req.Status,
		Notes:        req.Notes,
	}

	stock := -1
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		c := tx.ClientByID(req.ClientID)
		if c == nil {
			return ErrClientNotFound
		}
		med, ok := c.Medication(req.MedicationID)
		if !ok {
			return ErrMedicationNotFound
		}
		if tx.StaffByID(req.StaffID) == nil {
			return fmt.Errorf("%w: recorder %q", ErrStaffNotFound, req.StaffID)
		}

		tx.MedLogs = append([]domain.MedicationLog{entry}, tx.MedLogs...)
		tx.TouchMedLogs()

		if req.Status == domain.MedTaken {
			med.StockLevel--
			if med.StockLevel < 0 {
				med.StockLevel = 0
			}
			tx.TouchClients()
		}
		stock = med.StockLevel
		return nil
	})
	if !committed(err) {
		return domain.MedicationLog{}, err
	}
	s.events.emit(ctx, EventMedicationAdministered, entry.ID, entry)
	s.logger.Info("medication recorded",
		zap.String("client_id", entry.ClientID),
		zap.String("medication_id", entry.MedicationID),
		zap.String("status", string(entry.Status)),
		zap.Int("stock_level", stock),
	)
	return entry, err
}

// AddMedication attaches a medication to a client's chart.
func (s *EmarService) AddMedication(ctx context.Context, clientID string, med domain.Medication) (domain.Medication, error) {
	if strings.TrimSpace(med.Name) == "" || med.StockLevel < 0 {
		return domain.Medication{}, fmt.Errorf("%w: name and non-negative stock are required", ErrInvalidInput)
	}
	for _, t := range med.Times {
		if _, ok := domain.HourOf(t); !ok {
			return domain.Medication{}, fmt.Errorf("%w: bad time %q", ErrInvalidInput, t)
		}
	}
	med = med.Clone()
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		c := tx.ClientByID(clientID)
		if c == nil {
			return ErrClientNotFound
		}
		if _, dup := c.Medication(med.ID); dup {
			return fmt.Errorf("%w: medication %s already on chart", ErrInvalidInput, med.ID)
		}
		c.Medications = append(c.Medications, med.Clone())
		tx.TouchClients()
		return nil
	})
	if !committed(err) {
		return domain.Medication{}, err
	}
	s.events.emit(ctx, EventMedicationAdded, med.ID, map[string]any{"clientId": clientID, "medication": med})
	return med, err
}

// DueMedications the client's medications scheduled in the given round.
func DueMedications(c domain.Client, t domain.TimeOfDay) []domain.Medication {
	var out []domain.Medication
	for _, m := range c.Medications {
		if m.DueAt(t) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// SessionLog the most recent log for medID on day (YYYY-MM-DD in loc) whose
// hour falls in the given round, or nil. Logs are most-recent-first.
func SessionLog(logs []domain.MedicationLog, medID, day string, t domain.TimeOfDay, loc *time.Location) *domain.MedicationLog {
	for i := range logs {
		l := logs[i]
		if l.MedicationID != medID {
			continue
		}
		ts, err := time.Parse(time.RFC3339, l.Timestamp)
		if err != nil {
			continue
		}
		ts = ts.In(loc)
		if ts.Format(domain.DateLayout) != day {
			continue
		}
		if domain.TimeOfDayForHour(ts.Hour()) == t {
			return &l
		}
	}
	return nil
}

// DueItem one medication on a round with what has already been recorded.
type DueItem struct {
	Medication domain.Medication     `json:"medication"`
	LowStock   bool                  `json:"lowStock"`
	Recorded   *domain.MedicationLog `json:"recorded,omitempty"`
}

// ClientRound a client's medications due in a round.
type ClientRound struct {
	ClientID   string    `json:"clientId"`
	ClientName string    `json:"clientName"`
	RoomNumber string    `json:"roomNumber,omitempty"`
	Items      []DueItem `json:"items"`
}

// Round lists every client with medications due at t today, filtered by a
// case-insensitive name search.
func (s *EmarService) Round(t domain.TimeOfDay, search string) ([]ClientRound, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown round %q", ErrInvalidInput, t)
	}
	v := s.st.Snapshot()
	today := s.now().In(s.loc).Format(domain.DateLayout)
	q := strings.ToLower(strings.TrimSpace(search))

	out := []ClientRound{}
	for _, c := range v.Clients {
		if len(c.Medications) == 0 || !strings.Contains(strings.ToLower(c.Name), q) {
			continue
		}
		due := DueMedications(c, t)
		if len(due) == 0 {
			continue
		}
		round := ClientRound{ClientID: c.ID, ClientName: c.Name, RoomNumber: c.RoomNumber()}
		for _, m := range due {
			round.Items = append(round.Items, DueItem{
				Medication: m,
				LowStock:   m.LowStock(),
				Recorded:   SessionLog(v.MedLogs, m.ID, today, t, s.loc),
			})
		}
		out = append(out, round)
	}
	return out, nil
}

// Logs administration history, newest first; clientID "" returns all.
func (s *EmarService) Logs(clientID string) []domain.MedicationLog {
	v := s.st.Snapshot()
	out := []domain.MedicationLog{}
	for _, l := range v.MedLogs {
		if clientID == "" || l.ClientID == clientID {
			out = append(out, l)
		}
	}
	return out
}

// StockLevel current stock for a client's medication.
func (s *EmarService) StockLevel(clientID, medID string) (int, error) {
	v := s.st.Snapshot()
	for i := range v.Clients {
		if v.Clients[i].ID != clientID {
			continue
		}
		m, ok := v.Clients[i].Medication(medID)
		if !ok {
			return 0, ErrMedicationNotFound
		}
		return m.StockLevel, nil
	}
	return 0, ErrClientNotFound
}
