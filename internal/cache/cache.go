// Package cache holds short-lived copies of read-only RPC views (access key
// lists) so repeated lookups survive brief endpoint outages.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const lockWait = 5 * time.Second

type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

type Entry struct {
	Hit      bool
	Value    []byte
	Age      time.Duration
	Stale    bool
	TooStale bool
}

// Key scopes a view by RPC endpoint and subject, e.g. Key(url, "keys", "alice.near").
func Key(endpoint, view string, subject ...string) string {
	parts := append([]string{strings.TrimRight(strings.TrimSpace(endpoint), "/"), view}, subject...)
	return strings.Join(parts, "|")
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"CREATE TABLE IF NOT EXISTS rpc_views (view_key TEXT PRIMARY KEY, body BLOB NOT NULL, fetched_at INTEGER NOT NULL, ttl_ms INTEGER NOT NULL);",
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init cache schema: %w", err)
		}
	}

	store := &Store{db: db, lock: flock.New(lockPath), now: time.Now}
	_ = store.Prune(context.Background(), 24*time.Hour)
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Prune drops entries that expired more than grace ago.
func (s *Store) Prune(ctx context.Context, grace time.Duration) error {
	if s == nil || s.db == nil {
		return nil
	}
	cutoff := s.now().Add(-grace).UnixMilli()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM rpc_views WHERE fetched_at + ttl_ms < ?", cutoff); err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

// Get reads an entry. A negative maxStale accepts any stale age.
func (s *Store) Get(ctx context.Context, key string, maxStale time.Duration) (Entry, error) {
	var body []byte
	var fetchedMS, ttlMS int64
	err := s.db.QueryRowContext(ctx, "SELECT body, fetched_at, ttl_ms FROM rpc_views WHERE view_key = ?", key).Scan(&body, &fetchedMS, &ttlMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, nil
		}
		return Entry{}, fmt.Errorf("cache read: %w", err)
	}

	age := s.now().Sub(time.UnixMilli(fetchedMS))
	if age < 0 {
		age = 0
	}
	ttl := time.Duration(ttlMS) * time.Millisecond
	stale := age > ttl
	return Entry{
		Hit:      true,
		Value:    body,
		Age:      age,
		Stale:    stale,
		TooStale: stale && maxStale >= 0 && age > ttl+maxStale,
	}, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	locked, err := s.lock.TryLockContext(ctx, lockWait)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	ttlMS := ttl.Milliseconds()
	if ttlMS <= 0 {
		ttlMS = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rpc_views (view_key, body, fetched_at, ttl_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(view_key) DO UPDATE SET
			body=excluded.body,
			fetched_at=excluded.fetched_at,
			ttl_ms=excluded.ttl_ms
	`, key, value, s.now().UnixMilli(), ttlMS)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// GetJSON decodes a hit into out. It reports false on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, maxStale time.Duration, out any) (Entry, bool, error) {
	entry, err := s.Get(ctx, key, maxStale)
	if err != nil || !entry.Hit {
		return entry, false, err
	}
	if err := json.Unmarshal(entry.Value, out); err != nil {
		return entry, false, fmt.Errorf("decode cached view: %w", err)
	}
	return entry, true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached view: %w", err)
	}
	return s.Set(ctx, key, buf, ttl)
}
