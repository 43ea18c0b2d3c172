package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// MsgSender is the part of tea.Program the relay delivers to.
type MsgSender interface {
	Send(tea.Msg)
}

// Relay forwards hook messages to the running program. Alarm and
// achievement callbacks can fire from their own goroutines before the
// program exists, so the relay buffers until Attach and then replays
// in order. All methods are safe for concurrent use.
type Relay struct {
	mu      sync.Mutex
	target  MsgSender
	pending []tea.Msg
}

func NewRelay() *Relay {
	return &Relay{}
}

// Send delivers msg to the attached target, or queues it when no
// target is attached yet.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.Lock()
	target := r.target
	if target == nil {
		r.pending = append(r.pending, msg)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	target.Send(msg)
}

// Attach binds the target and replays anything queued before it
// existed. The replay runs on its own goroutine: tea.Program.Send
// blocks until the event loop is consuming, and Attach is called
// right before Run.
func (r *Relay) Attach(target MsgSender) {
	r.mu.Lock()
	r.target = target
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	go func() {
		for _, msg := range pending {
			target.Send(msg)
		}
	}()
}
