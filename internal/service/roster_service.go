package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RosterService shift and staff/client writes. Every operation keeps each
// staff member's CurrentHours equal to their Confirmed shift hours.
type RosterService struct {
	st     *state.State
	gen    *ShiftGenerator
	events emitter
	logger *zap.Logger
}

func NewRosterService(st *state.State, gen *ShiftGenerator, pub EventPublisher, logger *zap.Logger) *RosterService {
	return &RosterService{
		st:     st,
		gen:    gen,
		events: newEmitter(pub, logger),
		logger: logger,
	}
}

// Assign sets the shift's staff member and confirms it. Hours move from the
// previous assignee to the new one; re-assigning the same member is a no-op
// for hours.
func (s *RosterService) Assign(ctx context.Context, shiftID, staffID string) (domain.Shift, error) {
	var out domain.Shift
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		sh := tx.ShiftByID(shiftID)
		if sh == nil {
			return ErrShiftNotFound
		}
		if tx.StaffByID(staffID) == nil {
			return ErrStaffNotFound
		}

		deltas := map[string]float64{}
		if prev := contribution(*sh); prev != "" {
			deltas[prev] -= sh.Hours()
		}
		sh.StaffID = domain.StringPtr(staffID)
		sh.Status = domain.ShiftConfirmed
		deltas[staffID] += sh.Hours()

		tx.ApplyHours(deltas)
		tx.TouchShifts()
		out = sh.Clone()
		return nil
	})
	if !committed(err) {
		return domain.Shift{}, err
	}
	s.events.emit(ctx, EventShiftAssigned, out.ID, out)
	return out, err
}

// CreateOne adds a single shift.
func (s *RosterService) CreateOne(ctx context.Context, draft domain.ShiftDraft) (domain.Shift, error) {
	out, err := s.CreateMany(ctx, []domain.ShiftDraft{draft})
	if len(out) == 0 {
		return domain.Shift{}, err
	}
	return out[0], err
}

// CreateMany adds a batch of shifts in one commit.
func (s *RosterService) CreateMany(ctx context.Context, drafts []domain.ShiftDraft) ([]domain.Shift, error) {
	for i := range drafts {
		if err := normalizeDraft(&drafts[i]); err != nil {
			return nil, err
		}
	}
	return s.insert(ctx, s.gen.Build(drafts))
}

// CreateRecurring expands the draft and adds the series as one batch.
func (s *RosterService) CreateRecurring(ctx context.Context, draft domain.ShiftDraft, kind domain.RecurrenceKind, endDate string) ([]domain.Shift, error) {
	if err := normalizeDraft(&draft); err != nil {
		return nil, err
	}
	shifts, err := s.gen.ExpandRecurring(draft, kind, endDate)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, shifts)
}

// insert appends shifts and applies one aggregated hours delta per member.
func (s *RosterService) insert(ctx context.Context, shifts []domain.Shift) ([]domain.Shift, error) {
	if len(shifts) == 0 {
		return []domain.Shift{}, nil
	}
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		deltas := map[string]float64{}
		for _, sh := range shifts {
			if err := checkRefs(tx, sh); err != nil {
				return err
			}
			if id := contribution(sh); id != "" {
				deltas[id] += sh.Hours()
			}
		}
		tx.Shifts = append(tx.Shifts, domain.CloneShifts(shifts)...)
		tx.TouchShifts()
		tx.ApplyHours(deltas)
		return nil
	})
	if !committed(err) {
		return nil, err
	}
	for _, sh := range shifts {
		s.events.emit(ctx, EventShiftCreated, sh.ID, sh)
	}
	s.logger.Info("shifts created", zap.Int("count", len(shifts)))
	return shifts, err
}

// Update replaces an existing shift's fields. The old contribution is
// reversed and the new one applied as a single delta per member, so a
// duration change on an assigned shift moves hours too.
func (s *RosterService) Update(ctx context.Context, shiftID string, draft domain.ShiftDraft) (domain.Shift, error) {
	if err := normalizeDraft(&draft); err != nil {
		return domain.Shift{}, err
	}
	var out domain.Shift
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		sh := tx.ShiftByID(shiftID)
		if sh == nil {
			return ErrShiftNotFound
		}
		next := draft.Build(sh.ID)
		if err := checkRefs(tx, next); err != nil {
			return err
		}

		deltas := map[string]float64{}
		if prev := contribution(*sh); prev != "" {
			deltas[prev] -= sh.Hours()
		}
		if id := contribution(next); id != "" {
			deltas[id] += next.Hours()
		}

		*sh = next
		tx.ApplyHours(deltas)
		tx.TouchShifts()
		out = next.Clone()
		return nil
	})
	if !committed(err) {
		return domain.Shift{}, err
	}
	s.events.emit(ctx, EventShiftUpdated, out.ID, out)
	return out, err
}

// ReconcileHours rebuilds every member's hours from Confirmed shifts.
func (s *RosterService) ReconcileHours(ctx context.Context) ([]string, error) {
	var changed []string
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		changed = domain.ReconcileHours(tx.Staff, tx.Shifts)
		if len(changed) > 0 {
			tx.TouchStaff()
		}
		return nil
	})
	if !committed(err) {
		return nil, err
	}
	if len(changed) > 0 {
		s.logger.Warn("staff hours reconciled", zap.Strings("staff_ids", changed))
		s.events.emit(ctx, EventHoursReconciled, "", changed)
	}
	return changed, err
}

// NewStaffRequest staff intake
type NewStaffRequest struct {
	Name            string           `json:"name"`
	Role            domain.StaffRole `json:"role"`
	ContractedHours float64          `json:"contractedHours"`
	HourlyRate      float64          `json:"hourlyRate"`
}

// StaffUpdate full replacement of editable staff fields
type StaffUpdate struct {
	Name             string                  `json:"name"`
	Role             domain.StaffRole        `json:"role"`
	ContractedHours  float64                 `json:"contractedHours"`
	Rating           float64                 `json:"rating"`
	ComplianceStatus domain.ComplianceStatus `json:"complianceStatus"`
	HourlyRate       float64                 `json:"hourlyRate"`
}

func (s *RosterService) AddStaff(ctx context.Context, req NewStaffRequest) (domain.Staff, error) {
	if strings.TrimSpace(req.Name) == "" || !req.Role.Valid() || req.ContractedHours < 0 || req.HourlyRate < 0 {
		return domain.Staff{}, fmt.Errorf("%w: name, role and non-negative hours are required", ErrInvalidInput)
	}
	rate := req.HourlyRate
	if rate == 0 {
		rate = domain.DefaultPayRate(req.Role)
	}
	member := domain.Staff{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(req.Name),
		Role:             req.Role,
		ContractedHours:  req.ContractedHours,
		CurrentHours:     0,
		Rating:           5.0,
		ComplianceStatus: domain.ComplianceGreen,
		HourlyRate:       rate,
	}
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		tx.Staff = append(tx.Staff, member)
		tx.TouchStaff()
		return nil
	})
	if !committed(err) {
		return domain.Staff{}, err
	}
	s.events.emit(ctx, EventStaffCreated, member.ID, member)
	return member, err
}

// UpdateStaff replaces everything except id and CurrentHours.
func (s *RosterService) UpdateStaff(ctx context.Context, id string, req StaffUpdate) (domain.Staff, error) {
	if strings.TrimSpace(req.Name) == "" || !req.Role.Valid() || req.ContractedHours < 0 || req.HourlyRate < 0 {
		return domain.Staff{}, fmt.Errorf("%w: name, role and non-negative hours are required", ErrInvalidInput)
	}
	var out domain.Staff
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		st := tx.StaffByID(id)
		if st == nil {
			return ErrStaffNotFound
		}
		st.Name = strings.TrimSpace(req.Name)
		st.Role = req.Role
		st.ContractedHours = req.ContractedHours
		st.Rating = req.Rating
		st.ComplianceStatus = req.ComplianceStatus
		st.HourlyRate = req.HourlyRate
		tx.TouchStaff()
		out = *st
		return nil
	})
	if !committed(err) {
		return domain.Staff{}, err
	}
	s.events.emit(ctx, EventStaffUpdated, out.ID, out)
	return out, err
}

// ClientRequest client intake or edit. Placement fields follow CareType.
type ClientRequest struct {
	Name        string                 `json:"name"`
	CareType    domain.CareType        `json:"careType"`
	RoomNumber  string                 `json:"roomNumber"`
	Address     string                 `json:"address"`
	Postcode    string                 `json:"postcode"`
	CareLevel   domain.CareLevel       `json:"careLevel"`
	Medications []domain.Medication    `json:"medications"`
	Templates   []domain.VisitTemplate `json:"visitTemplates"`
}

func (r ClientRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" || !r.CareLevel.Valid() {
		return fmt.Errorf("%w: name and care level are required", ErrInvalidInput)
	}
	switch r.CareType {
	case domain.CareResidential:
		if r.RoomNumber == "" {
			return fmt.Errorf("%w: residential clients need a room number", ErrInvalidInput)
		}
	case domain.CareDomiciliary:
		if r.Address == "" || r.Postcode == "" {
			return fmt.Errorf("%w: domiciliary clients need an address and postcode", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown care type %q", ErrInvalidInput, r.CareType)
	}
	for _, m := range r.Medications {
		if m.StockLevel < 0 {
			return fmt.Errorf("%w: stock level cannot be negative", ErrInvalidInput)
		}
	}
	for _, t := range r.Templates {
		if _, ok := domain.HourOf(t.Time); !ok || t.DurationMinutes <= 0 {
			return fmt.Errorf("%w: visit template %q needs a time and duration", ErrInvalidInput, t.Label)
		}
	}
	return nil
}

func (r ClientRequest) placement() domain.Placement {
	return domain.PlacementFor(r.CareType, r.RoomNumber, r.Address, r.Postcode)
}

// AddClient registers a client and auto-schedules its visits in the same
// commit. Nil templates fall back to the default call pattern.
func (s *RosterService) AddClient(ctx context.Context, req ClientRequest) (domain.Client, []domain.Shift, error) {
	if err := req.validate(); err != nil {
		return domain.Client{}, nil, err
	}
	client := domain.Client{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Placement:   req.placement(),
		CareLevel:   req.CareLevel,
		HourlyRate:  domain.RateForLevel(req.CareLevel),
		Medications: withMedicationIDs(req.Medications),
	}
	templates := req.Templates
	if templates == nil {
		templates = domain.DefaultVisitTemplates()
	}
	shifts := s.gen.AutoSchedule(client.ID, templates)

	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		tx.Clients = append(tx.Clients, client.Clone())
		tx.TouchClients()
		if len(shifts) > 0 {
			tx.Shifts = append(tx.Shifts, domain.CloneShifts(shifts)...)
			tx.TouchShifts()
		}
		return nil
	})
	if !committed(err) {
		return domain.Client{}, nil, err
	}
	s.events.emit(ctx, EventClientCreated, client.ID, client)
	s.logger.Info("client added",
		zap.String("client_id", client.ID),
		zap.Int("scheduled_shifts", len(shifts)),
	)
	return client, shifts, err
}

// UpdateClient replaces everything except id. The billing rate is re-derived
// from the care level; medications are replaced only when provided.
func (s *RosterService) UpdateClient(ctx context.Context, id string, req ClientRequest) (domain.Client, error) {
	if err := req.validate(); err != nil {
		return domain.Client{}, err
	}
	var out domain.Client
	err := s.st.Mutate(ctx, func(tx *state.Tx) error {
		c := tx.ClientByID(id)
		if c == nil {
			return ErrClientNotFound
		}
		c.Name = strings.TrimSpace(req.Name)
		c.Placement = req.placement()
		c.CareLevel = req.CareLevel
		c.HourlyRate = domain.RateForLevel(req.CareLevel)
		if req.Medications != nil {
			c.Medications = withMedicationIDs(req.Medications)
		}
		tx.TouchClients()
		out = c.Clone()
		return nil
	})
	if !committed(err) {
		return domain.Client{}, err
	}
	s.events.emit(ctx, EventClientUpdated, out.ID, out)
	return out, err
}

// contribution the staff id a shift currently counts hours for, or "".
func contribution(sh domain.Shift) string {
	if sh.Status != domain.ShiftConfirmed {
		return ""
	}
	return sh.AssignedTo()
}

func checkRefs(tx *state.Tx, sh domain.Shift) error {
	if id := sh.AssignedTo(); id != "" && tx.StaffByID(id) == nil {
		return fmt.Errorf("%w: %s", ErrStaffNotFound, id)
	}
	if id := sh.ForClient(); id != "" && tx.ClientByID(id) == nil {
		return fmt.Errorf("%w: %s", ErrClientNotFound, id)
	}
	return nil
}

// normalizeDraft validates a draft and derives a missing band from the start hour.
func normalizeDraft(d *domain.ShiftDraft) error {
	if _, err := domain.ParseDate(d.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if d.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	hour, ok := domain.HourOf(d.StartTime)
	if !ok {
		return fmt.Errorf("%w: start time must be HH:MM", ErrInvalidInput)
	}
	if d.Type == "" {
		d.Type = domain.BandForHour(hour)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown shift type %q", ErrInvalidInput, d.Type)
	}
	return nil
}

func withMedicationIDs(in []domain.Medication) []domain.Medication {
	if in == nil {
		return nil
	}
	out := make([]domain.Medication, len(in))
	for i, m := range in {
		out[i] = m.Clone()
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return out
}
