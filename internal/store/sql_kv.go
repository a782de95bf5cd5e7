package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Dialect SQL placeholder flavour
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

const kvTable = "caresync_kv"

// SQLKV stores keys in a single table. Works on PostgreSQL (lib/pq) and
// SQLite (modernc.org/sqlite); both accept ON CONFLICT upserts.
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQLKV(db *sql.DB, dialect Dialect) *SQLKV {
	return &SQLKV{db: db, dialect: dialect, now: time.Now}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *SQLKV) EnsureSchema(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS ` + kvTable + ` (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at BIGINT,
		updated_at BIGINT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to create %s: %w", kvTable, err)
	}
	return nil
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, error) {
	q := s.rebind(`SELECT value FROM ` + kvTable + ` WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`)
	var v string
	err := s.db.QueryRowContext(ctx, q, key, s.now().Unix()).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, nil
}

func (s *SQLKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	now := s.now()
	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: now.Add(ttl).Unix(), Valid: true}
	}
	q := s.rebind(`INSERT INTO ` + kvTable + ` (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, key, value, expires, now.Unix()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// ScanKeys supports the '*' wildcard only.
func (s *SQLKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	like := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`).Replace(pattern)
	q := s.rebind(`SELECT key FROM ` + kvTable + ` WHERE key LIKE ? ESCAPE '\' AND (expires_at IS NULL OR expires_at > ?) ORDER BY key`)
	rows, err := s.db.QueryContext(ctx, q, like, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// rebind rewrites '?' placeholders to $n for PostgreSQL.
func (s *SQLKV) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
