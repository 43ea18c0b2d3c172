package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"

	"tomato/internal/debug"
)

// watchDebounce coalesces bursts of filesystem events; SQLite touches
// the WAL several times per transaction.
const watchDebounce = 150 * time.Millisecond

// dbWatcher watches the database file for writes made by another
// process and replays them as ordinary change notifications, so
// observers cannot tell a remote mutation from a local one.
type dbWatcher struct {
	store   *Store
	fsw     *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

// Watch starts delivering change notifications for mutations made by
// other processes sharing the same database file. It is a no-op for
// in-memory stores.
func (s *Store) Watch() error {
	if s.path == ":memory:" || s.watcher != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: the -wal file appears and disappears.
	if err := fsw.Add(filepath.Dir(s.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", s.path, err)
	}

	w := &dbWatcher{
		store:   s,
		fsw:     fsw,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.watcher = w
	go w.run()
	return nil
}

func (w *dbWatcher) stop() {
	close(w.done)
	w.fsw.Close()
	<-w.stopped
}

func (w *dbWatcher) run() {
	defer close(w.stopped)

	base := filepath.Base(w.store.path)
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if name != base && name != base+"-wal" {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.Errorf("store watcher", err)
		case <-timerC:
			timerC = nil
			w.store.reconcileExternal()
		}
	}
}

// reconcileExternal re-reads the whole table, diffs it against the
// in-memory snapshot, and emits a change per key that differs. Writes
// made by this process are already in the snapshot and stay silent.
func (s *Store) reconcileExternal() {
	rows, err := s.db.Query(`SELECT region, key, value FROM kv`)
	if err != nil {
		debug.Errorf("reconcile external writes", err)
		return
	}
	defer rows.Close()

	current := make(map[string]json.RawMessage)
	type entry struct {
		region Region
		key    string
	}
	keys := make(map[string]entry)
	for rows.Next() {
		var region, key, value string
		if err := rows.Scan(&region, &key, &value); err != nil {
			debug.Errorf("reconcile external writes", err)
			return
		}
		sk := snapKey(Region(region), key)
		current[sk] = json.RawMessage(value)
		keys[sk] = entry{region: Region(region), key: key}
	}
	if err := rows.Err(); err != nil {
		debug.Errorf("reconcile external writes", err)
		return
	}

	var changes []Change
	s.mu.Lock()
	for sk, raw := range current {
		old, seen := s.snapshot[sk]
		if seen && string(old) == string(raw) {
			continue
		}
		s.snapshot[sk] = raw
		changes = append(changes, Change{
			Region: keys[sk].region,
			Key:    keys[sk].key,
			Old:    old,
			New:    raw,
		})
	}
	s.mu.Unlock()

	for _, c := range changes {
		debug.Logf("external change %s/%s", c.Region, c.Key)
		s.notify(c)
	}
}
