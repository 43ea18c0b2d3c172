// Package store persists all shared state in a SQLite-backed key-value
// store and fans change notifications out to subscribers. No process
// holds an authoritative in-memory copy; every mutation goes through
// Set/SetMany and every observer learns of it through Subscribe.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Region is an independent storage namespace. Local is the primary
// store; Sync is the replicated region used only to mirror settings
// across machines. Local always wins on read.
type Region string

const (
	RegionLocal Region = "local"
	RegionSync  Region = "sync"
)

// Persisted keys, all under the local region unless noted.
const (
	KeySettings       = "settings" // mirrored to RegionSync
	KeyTimerState     = "timerState"
	KeyLastCompletion = "lastCompletion"
	KeyHistory        = "history"
	KeyAchievements   = "achievements"
	KeyTasks          = "tasks"
	KeyLocale         = "locale"
)

// Change describes one mutated key, delivered to every subscriber.
// Old is nil for the first write of a key.
type Change struct {
	Region Region
	Key    string
	Old    json.RawMessage
	New    json.RawMessage
}

// Store is a two-region key-value store over SQLite with JSON values
// and change notification.
type Store struct {
	db   *sql.DB
	path string

	mu       sync.Mutex
	snapshot map[string]json.RawMessage // region/key -> raw value
	subs     map[int]func(Change)
	nextSub  int

	watcher *dbWatcher
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		snapshot: make(map[string]json.RawMessage),
		subs:     make(map[int]func(Change)),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.loadSnapshot(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	if s.watcher != nil {
		s.watcher.stop()
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS kv (
		region      TEXT NOT NULL,
		key         TEXT NOT NULL,
		value       TEXT NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		PRIMARY KEY (region, key)
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *Store) loadSnapshot() error {
	rows, err := s.db.Query(`SELECT region, key, value FROM kv`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var region, key, value string
		if err := rows.Scan(&region, &key, &value); err != nil {
			return err
		}
		s.snapshot[snapKey(Region(region), key)] = json.RawMessage(value)
	}
	return rows.Err()
}

func snapKey(region Region, key string) string {
	return string(region) + "/" + key
}

// Get unmarshals the value stored under key into dest. It returns
// false with a nil error when the key is absent; callers default.
func (s *Store) Get(region Region, key string, dest any) (bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM kv WHERE region = ? AND key = ?`, string(region), key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s/%s: %w", region, key, err)
	}
	if value == "null" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		// Malformed persisted records are treated as absent, not fatal.
		return false, nil
	}
	return true, nil
}

// GetRaw returns the raw JSON stored under key, or nil when absent.
func (s *Store) GetRaw(region Region, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM kv WHERE region = ? AND key = ?`, string(region), key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", region, key, err)
	}
	return json.RawMessage(value), nil
}

// Set marshals value as JSON and writes it under key, notifying
// subscribers. A nil value is stored as JSON null.
func (s *Store) Set(region Region, key string, value any) error {
	return s.SetMany(region, map[string]any{key: value})
}

// SetMany writes several keys in one transaction so observers never
// see a torn multi-key update, then notifies subscribers per key.
func (s *Store) SetMany(region Region, values map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(values))
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", region, key, err)
		}
		encoded[key] = raw
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for key, raw := range encoded {
		_, err := tx.Exec(
			`INSERT INTO kv (region, key, value, updated_at)
			 VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'))
			 ON CONFLICT(region, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			string(region), key, string(raw),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("set %s/%s: %w", region, key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	var changes []Change
	s.mu.Lock()
	for key, raw := range encoded {
		sk := snapKey(region, key)
		old := s.snapshot[sk]
		s.snapshot[sk] = raw
		changes = append(changes, Change{Region: region, Key: key, Old: old, New: raw})
	}
	s.mu.Unlock()

	for _, c := range changes {
		s.notify(c)
	}
	return nil
}

// Subscribe registers fn to be called for every mutation. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// DefaultDBPath returns ~/.config/tomato/tomato.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tomato", "tomato.db"), nil
}
