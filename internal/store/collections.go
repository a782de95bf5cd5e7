package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/djval79/caresync1/internal/domain"

	"go.uber.org/zap"
)

// Fixed storage keys, one JSON array each.
const (
	KeyStaff   = "caresync_staff_v1"
	KeyShifts  = "caresync_shifts_v1"
	KeyClients = "caresync_clients_v1"
	KeyMedLogs = "caresync_medlogs_v1"
)

// Snapshot the four collections as loaded from the store.
type Snapshot struct {
	Staff   []domain.Staff
	Shifts  []domain.Shift
	Clients []domain.Client
	MedLogs []domain.MedicationLog

	// Seeded lists the keys that fell back to seed data.
	Seeded []string
}

// Collections reads and writes whole-collection snapshots through a KV.
type Collections struct {
	kv     KV
	logger *zap.Logger
}

func NewCollections(kv KV, logger *zap.Logger) *Collections {
	return &Collections{kv: kv, logger: logger}
}

// Load reads every collection. A missing or unparsable key falls back to the
// seed collection for that key; only transport errors are returned.
func (c *Collections) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	seeded, err := loadKey(ctx, c, KeyStaff, &snap.Staff, domain.SeedStaff)
	if err != nil {
		return nil, err
	}
	if seeded {
		snap.Seeded = append(snap.Seeded, KeyStaff)
	}
	if seeded, err = loadKey(ctx, c, KeyShifts, &snap.Shifts, domain.SeedShifts); err != nil {
		return nil, err
	}
	if seeded {
		snap.Seeded = append(snap.Seeded, KeyShifts)
	}
	if seeded, err = loadKey(ctx, c, KeyClients, &snap.Clients, domain.SeedClients); err != nil {
		return nil, err
	}
	if seeded {
		snap.Seeded = append(snap.Seeded, KeyClients)
	}
	if seeded, err = loadKey(ctx, c, KeyMedLogs, &snap.MedLogs, domain.SeedMedicationLogs); err != nil {
		return nil, err
	}
	if seeded {
		snap.Seeded = append(snap.Seeded, KeyMedLogs)
	}
	return snap, nil
}

func loadKey[T any](ctx context.Context, c *Collections, key string, out *[]T, seed func() []T) (bool, error) {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			*out = seed()
			return true, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		c.logger.Warn("stored collection unreadable, using seed data",
			zap.String("key", key),
			zap.Error(err),
		)
		*out = seed()
		return true, nil
	}
	*out = items
	return false, nil
}

func (c *Collections) SaveStaff(ctx context.Context, items []domain.Staff) error {
	if items == nil {
		items = []domain.Staff{}
	}
	return c.save(ctx, KeyStaff, items)
}

func (c *Collections) SaveShifts(ctx context.Context, items []domain.Shift) error {
	if items == nil {
		items = []domain.Shift{}
	}
	return c.save(ctx, KeyShifts, items)
}

func (c *Collections) SaveClients(ctx context.Context, items []domain.Client) error {
	if items == nil {
		items = []domain.Client{}
	}
	return c.save(ctx, KeyClients, items)
}

func (c *Collections) SaveMedLogs(ctx context.Context, items []domain.MedicationLog) error {
	if items == nil {
		items = []domain.MedicationLog{}
	}
	return c.save(ctx, KeyMedLogs, items)
}

// Keys lists the collection keys currently present in the store.
func (c *Collections) Keys(ctx context.Context) ([]string, error) {
	return c.kv.ScanKeys(ctx, "caresync_*")
}

func (c *Collections) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, key, string(b), 0); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
