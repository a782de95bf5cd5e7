package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/store"

	"go.uber.org/zap"
)

// ErrPersist marks a Mutate error raised after the in-memory commit.
var ErrPersist = errors.New("persist failed")

// Persister writes whole-collection snapshots. *store.Collections satisfies it.
type Persister interface {
	SaveStaff(ctx context.Context, items []domain.Staff) error
	SaveShifts(ctx context.Context, items []domain.Shift) error
	SaveClients(ctx context.Context, items []domain.Client) error
	SaveMedLogs(ctx context.Context, items []domain.MedicationLog) error
}

// State owns the four collections for the process. Every write goes through
// Mutate, which serialises writers and persists what changed.
type State struct {
	mu      sync.RWMutex
	data    View
	persist Persister
	logger  *zap.Logger
}

// View a read-only copy of all collections.
type View struct {
	Staff   []domain.Staff
	Shifts  []domain.Shift
	Clients []domain.Client
	MedLogs []domain.MedicationLog
}

func (v View) clone() View {
	return View{
		Staff:   domain.CloneStaff(v.Staff),
		Shifts:  domain.CloneShifts(v.Shifts),
		Clients: domain.CloneClients(v.Clients),
		MedLogs: domain.CloneLogs(v.MedLogs),
	}
}

// New builds state from a loaded snapshot. When the staff collection came
// from seed data its hours are reconciled against the shifts; otherwise
// drift is only logged.
func New(snap *store.Snapshot, persist Persister, logger *zap.Logger) *State {
	s := &State{
		data: View{
			Staff:   snap.Staff,
			Shifts:  snap.Shifts,
			Clients: snap.Clients,
			MedLogs: snap.MedLogs,
		},
		persist: persist,
		logger:  logger,
	}

	staffSeeded := false
	for _, k := range snap.Seeded {
		if k == store.KeyStaff {
			staffSeeded = true
		}
	}
	if staffSeeded {
		domain.ReconcileHours(s.data.Staff, s.data.Shifts)
	} else {
		probe := domain.CloneStaff(s.data.Staff)
		if drift := domain.ReconcileHours(probe, s.data.Shifts); len(drift) > 0 {
			logger.Warn("staff hours do not match confirmed shifts",
				zap.Strings("staff_ids", drift),
			)
		}
	}
	return s
}

// Load reads the collections from the store and builds state.
func Load(ctx context.Context, coll *store.Collections, logger *zap.Logger) (*State, error) {
	snap, err := coll.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	if len(snap.Seeded) > 0 {
		logger.Info("using seed data", zap.Strings("keys", snap.Seeded))
	}
	return New(snap, coll, logger), nil
}

// Snapshot returns deep copies of all collections.
func (s *State) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// Mutate runs fn against a working copy. If fn returns an error nothing is
// committed. On success the copy replaces the current data and each collection
// fn touched is persisted. A persistence error is returned after the in-memory
// commit; there is no rollback across collections.
func (s *State) Mutate(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{View: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.View
	if !tx.dirty.any() {
		return nil
	}
	return s.flush(ctx, tx.dirty)
}

// Flush persists all four collections regardless of changes.
func (s *State) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(ctx, dirtySet{staff: true, shifts: true, clients: true, medLogs: true})
}

func (s *State) flush(ctx context.Context, d dirtySet) error {
	var errs []error
	if d.shifts {
		errs = append(errs, s.persist.SaveShifts(ctx, s.data.Shifts))
	}
	if d.staff {
		errs = append(errs, s.persist.SaveStaff(ctx, s.data.Staff))
	}
	if d.clients {
		errs = append(errs, s.persist.SaveClients(ctx, s.data.Clients))
	}
	if d.medLogs {
		errs = append(errs, s.persist.SaveMedLogs(ctx, s.data.MedLogs))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("failed to persist collections", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
