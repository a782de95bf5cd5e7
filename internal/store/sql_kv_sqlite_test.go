package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/djval79/caresync1/common/database"
	"github.com/djval79/caresync1/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteKV(t *testing.T) *SQLKV {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "data", "caresync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	kv := NewSQLKV(db, DialectSQLite)
	require.NoError(t, kv.EnsureSchema(context.Background()))
	// idempotent
	require.NoError(t, kv.EnsureSchema(context.Background()))
	return kv
}

func TestSQLKV_SQLiteRoundTrip(t *testing.T) {
	kv := newSQLiteKV(t)
	now := fixedNow()
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := kv.Get(ctx, KeyStaff)
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, KeyStaff, `[1]`, 0))
	require.NoError(t, kv.Set(ctx, KeyStaff, `[2]`, 0))
	require.NoError(t, kv.Set(ctx, KeyShifts, `[]`, time.Minute))
	require.NoError(t, kv.Set(ctx, "caresyncXstaff", `x`, 0))

	v, err := kv.Get(ctx, KeyStaff)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, v)

	// '_' is literal, so caresyncXstaff does not match
	keys, err := kv.ScanKeys(ctx, "caresync_*")
	require.NoError(t, err)
	assert.Equal(t, []string{KeyShifts, KeyStaff}, keys)

	now = now.Add(2 * time.Minute)
	_, err = kv.Get(ctx, KeyShifts)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCollections_SQLiteBackend(t *testing.T) {
	kv := newSQLiteKV(t)
	ctx := context.Background()
	coll := NewCollections(kv, zap.NewNop())

	snap, err := coll.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Seeded, 4)

	snap.Shifts = append(snap.Shifts, domain.Shift{
		ID: "s9", Date: "2024-05-21", Type: domain.ShiftMorning, StartTime: "10:00", Duration: 30, Status: domain.ShiftUnassigned,
	})
	require.NoError(t, coll.SaveShifts(ctx, snap.Shifts))

	again, err := coll.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, again.Seeded, KeyShifts)
	assert.Len(t, again.Shifts, len(domain.SeedShifts())+1)
}
