package store

import (
	"testing"
	"time"
)

// ============================================================
// External-write watcher
// ============================================================

func TestWatchDeliversExternalWrites(t *testing.T) {
	path := t.TempDir() + "/tomato.db"

	observer, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer observer.Close()
	if err := observer.Watch(); err != nil {
		t.Fatal(err)
	}

	seen := make(chan Change, 8)
	unsubscribe := observer.Subscribe(func(c Change) { seen <- c })
	defer unsubscribe()

	writer, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()
	if err := writer.Set(RegionLocal, KeyLocale, "zh_CN"); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-seen:
		if c.Key != KeyLocale || string(c.New) != `"zh_CN"` {
			t.Fatalf("unexpected change %+v", c)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("external write never reached the observer")
	}
}

func TestWatchIsNoopForMemoryStore(t *testing.T) {
	s := newTestStore(t)
	if err := s.Watch(); err != nil {
		t.Fatal(err)
	}
	if s.watcher != nil {
		t.Fatal("in-memory store must not start a watcher")
	}
}

func TestWatchCloseWithPendingDebounce(t *testing.T) {
	path := t.TempDir() + "/tomato.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Watch(); err != nil {
		t.Fatal(err)
	}

	// Arm the debounce timer with a fresh write, then shut down
	// before it fires.
	if err := s.Set(RegionLocal, KeyLocale, "en"); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("close did not return with a debounce pending")
	}
}
