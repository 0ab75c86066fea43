package pomodoro

import (
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// EventKind identifies the type of an engine event.
type EventKind int

const (
	EventTick         EventKind = iota // Remaining time changed
	EventStateChanged                  // Idle, Running, Paused or Finalizing entered
	EventModeChanged                   // Current or upcoming mode changed
	EventFinalized                     // Session completed or skipped and persisted
	EventError                         // Start or finalize could not persist
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventStateChanged:
		return "state"
	case EventModeChanged:
		return "mode"
	case EventFinalized:
		return "finalized"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is emitted to subscribers after the engine lock is released.
type Event struct {
	Kind      EventKind
	Timestamp time.Time

	State     State
	Mode      store.Mode
	Remaining time.Duration

	// Finalized fields
	Completed bool
	Session   *store.Session
	Unlocked  []store.Achievement

	Err error
}
