package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/djval79/caresync1/internal/domain"
	"github.com/djval79/caresync1/internal/state"
	"github.com/djval79/caresync1/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// newTestState loads seed data through an in-memory KV.
func newTestState(t *testing.T) (*state.State, *store.Collections) {
	t.Helper()
	coll := store.NewCollections(store.NewMemoryKV(), zap.NewNop())
	st, err := state.Load(context.Background(), coll, zap.NewNop())
	require.NoError(t, err)
	return st, coll
}

func newTestRoster(t *testing.T) (*RosterService, *state.State, *recordingPublisher) {
	t.Helper()
	st, _ := newTestState(t)
	pub := &recordingPublisher{}
	gen := NewShiftGenerator(time.UTC)
	gen.now = func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) }
	return NewRosterService(st, gen, pub, zap.NewNop()), st, pub
}

func staffHours(v state.View, id string) float64 {
	for _, s := range v.Staff {
		if s.ID == id {
			return s.CurrentHours
		}
	}
	return -1
}

// requireHoursInvariant every member's hours equal their Confirmed shift hours.
func requireHoursInvariant(t *testing.T, st *state.State) {
	t.Helper()
	v := st.Snapshot()
	want := map[string]float64{}
	for _, sh := range v.Shifts {
		if sh.Status == domain.ShiftConfirmed && sh.StaffID != nil {
			want[*sh.StaffID] += sh.Hours()
		}
		if (sh.StaffID != nil) != (sh.Status == domain.ShiftConfirmed) {
			t.Fatalf("shift %s: staff/status mismatch", sh.ID)
		}
	}
	for _, s := range v.Staff {
		require.GreaterOrEqual(t, s.CurrentHours, 0.0)
		if math.Abs(s.CurrentHours-want[s.ID]) > 1e-9 {
			t.Fatalf("staff %s hours %.4f, confirmed shifts %.4f", s.ID, s.CurrentHours, want[s.ID])
		}
	}
}
