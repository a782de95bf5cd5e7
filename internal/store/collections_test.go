package store

import (
	"context"
	"testing"

	"github.com/djval79/caresync1/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollections_LoadFallsBackToSeed(t *testing.T) {
	kv := NewMemoryKV()
	c := NewCollections(kv, zap.NewNop())

	snap, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Staff, len(domain.SeedStaff()))
	assert.Len(t, snap.Shifts, 4)
	assert.Len(t, snap.Clients, 5)
	assert.Empty(t, snap.MedLogs)
	assert.ElementsMatch(t, []string{KeyStaff, KeyShifts, KeyClients, KeyMedLogs}, snap.Seeded)
}

func TestCollections_UnparsableKeyUsesSeed(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeyStaff, `{not json`, 0))
	require.NoError(t, kv.Set(ctx, KeyShifts, `[]`, 0))

	snap, err := NewCollections(kv, zap.NewNop()).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Staff, 6)
	assert.Empty(t, snap.Shifts)
	assert.NotContains(t, snap.Seeded, KeyShifts)
	assert.Contains(t, snap.Seeded, KeyStaff)
}

func TestCollections_SaveAndReload(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	c := NewCollections(kv, zap.NewNop())

	clients := []domain.Client{{
		ID:        "c9",
		Name:      "Ada",
		Placement: domain.Domiciliary{Address: "1 Mill Lane", Postcode: "BS1 1AA"},
		CareLevel: domain.CareMedium,
	}}
	require.NoError(t, c.SaveClients(ctx, clients))
	require.NoError(t, c.SaveMedLogs(ctx, nil))

	raw, err := kv.Get(ctx, KeyMedLogs)
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Clients, 1)
	assert.Equal(t, domain.Domiciliary{Address: "1 Mill Lane", Postcode: "BS1 1AA"}, snap.Clients[0].Placement)
	assert.Empty(t, snap.MedLogs)

	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyClients, KeyMedLogs}, keys)
}
