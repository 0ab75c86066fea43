// Package pomodoro runs the focus/break session lifecycle: it picks the next
// mode from the completed-focus cycle, counts down one second per tick and
// persists each session when it completes or is skipped.
package pomodoro

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

var (
	// ErrIdle is returned by operations that need an open session.
	ErrIdle = errors.New("pomodoro: no session in progress")
	// ErrPersist wraps a session that could not be saved after a retry.
	ErrPersist = errors.New("pomodoro: session not saved")
)

// State is the lifecycle state of the engine.
type State int

const (
	Idle State = iota
	Running
	Paused
	Finalizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finalizing:
		return "finalizing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Settings are the durations and toggles the engine runs with.
type Settings struct {
	Focus           time.Duration
	ShortBreak      time.Duration
	LongBreak       time.Duration
	CycleLength     int
	AutoStartBreaks bool
	AutoStartFocus  bool
}

// SettingsFrom converts the stored user settings.
func SettingsFrom(s store.AppSettings) Settings {
	return Settings{
		Focus:           time.Duration(s.FocusMinutes) * time.Minute,
		ShortBreak:      time.Duration(s.ShortBreakMinutes) * time.Minute,
		LongBreak:       time.Duration(s.LongBreakMinutes) * time.Minute,
		CycleLength:     s.CycleLength,
		AutoStartBreaks: s.AutoStartBreaks,
		AutoStartFocus:  s.AutoStartFocus,
	}
}

func (s Settings) Duration(m store.Mode) time.Duration {
	switch m {
	case store.ModeShortBreak:
		return s.ShortBreak
	case store.ModeLongBreak:
		return s.LongBreak
	}
	return s.Focus
}

func (s Settings) validate() error {
	var errs []error
	if s.Focus < time.Second || s.ShortBreak < time.Second || s.LongBreak < time.Second {
		errs = append(errs, errors.New("durations must be at least one second"))
	}
	if s.CycleLength < 1 {
		errs = append(errs, fmt.Errorf("cycle length must be at least 1, got %d", s.CycleLength))
	}
	return errors.Join(errs...)
}

// SessionStore persists sessions. *store.SessionRepository satisfies it.
type SessionStore interface {
	Create(s *store.Session) error
	Update(s store.Session) error
}

// ProgressRefresher recomputes achievement progress after a session is saved
// and returns the achievements that unlocked.
type ProgressRefresher func() ([]store.Achievement, error)

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	State            State
	Mode             store.Mode // current mode, or the next one while idle
	Remaining        time.Duration
	Total            time.Duration
	CompletedInCycle int
	CycleLength      int
	Session          *store.Session
}

// Progress is the elapsed fraction of the current session, 0 to 1.
func (s Snapshot) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	p := 1 - float64(s.Remaining)/float64(s.Total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

type observer struct {
	id int
	fn func(Event)
}

// Engine is the session lifecycle state machine. Its methods are safe to call
// from several goroutines, but the lifecycle is meant to be driven from one
// place (the UI) with ticks arriving from the Scheduler.
type Engine struct {
	mu sync.Mutex

	sessions SessionStore
	sched    Scheduler
	refresh  ProgressRefresher
	now      func() time.Time
	settings Settings

	state      State
	mode       store.Mode
	lastMode   store.Mode // mode of the last finalized session, "" before the first
	cycleCount int        // completed focus sessions since the last completed long break
	remaining  time.Duration
	current    *store.Session
	gen        int // invalidates ticks from a previous arming
	unsaved    []store.Session

	observers []observer
	nextID    int
	pending   []Event
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler replaces the default one-second TickerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithRefresher sets the function called after every persisted session.
func WithRefresher(r ProgressRefresher) Option {
	return func(e *Engine) { e.refresh = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(sessions SessionStore, settings Settings, opts ...Option) (*Engine, error) {
	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("pomodoro settings: %w", err)
	}
	e := &Engine{
		sessions: sessions,
		settings: settings,
		now:      time.Now,
		state:    Idle,
		mode:     store.ModeFocus,
	}
	for _, o := range opts {
		o(e)
	}
	if e.sched == nil {
		e.sched = NewTickerScheduler(time.Second)
	}
	e.remaining = settings.Duration(e.mode)
	return e, nil
}

// Subscribe registers fn for every event and returns a function that removes
// it. fn runs outside the engine lock and may call back into the engine.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.observers = append(e.observers, observer{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

// do runs fn under the lock, then delivers the events it queued.
func (e *Engine) do(fn func() error) error {
	e.mu.Lock()
	err := fn()
	events := e.pending
	e.pending = nil
	observers := make([]observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, ev := range events {
		for _, o := range observers {
			o.fn(ev)
		}
	}
	return err
}

func (e *Engine) emit(ev Event) {
	ev.Timestamp = e.now()
	ev.State = e.state
	if ev.Mode == "" {
		ev.Mode = e.mode
	}
	e.pending = append(e.pending, ev)
}

func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	e.state = s
	e.emit(Event{Kind: EventStateChanged, State: s, Remaining: e.remaining})
}

func (e *Engine) setMode(m store.Mode) {
	if e.mode == m {
		return
	}
	e.mode = m
	e.emit(Event{Kind: EventModeChanged, Mode: m, Remaining: e.remaining})
}

// nextMode applies the cycle rule: focus first, a break after every focus
// (long once the cycle is full) and focus after every break.
func (e *Engine) nextMode() store.Mode {
	if e.lastMode != store.ModeFocus {
		return store.ModeFocus
	}
	if e.cycleCount >= e.settings.CycleLength {
		return store.ModeLongBreak
	}
	return store.ModeShortBreak
}

// Start opens a session in the next mode and arms the tick. It is a no-op
// unless the engine is idle.
func (e *Engine) Start() error {
	return e.do(e.startLocked)
}

func (e *Engine) startLocked() error {
	if e.state != Idle {
		return nil
	}
	mode := e.nextMode()
	dur := e.settings.Duration(mode)
	s := &store.Session{
		StartedAt:       e.now(),
		DurationSeconds: int64(dur / time.Second),
		Mode:            mode,
	}
	if err := e.sessions.Create(s); err != nil {
		err = fmt.Errorf("start %s session: %w", mode, err)
		e.emit(Event{Kind: EventError, Err: err})
		return err
	}

	e.current = s
	e.remaining = dur
	e.setMode(mode)
	e.arm()
	e.setState(Running)
	log.Printf("pomodoro: started %s session %s (%s)", mode, s.ID, dur)
	return nil
}

func (e *Engine) arm() {
	e.gen++
	gen := e.gen
	e.sched.Start(func() { e.tick(gen) })
}

func (e *Engine) disarm() {
	e.gen++
	e.sched.Stop()
}

// Pause stops the countdown, keeping the remaining time. It is a no-op unless
// running.
func (e *Engine) Pause() {
	e.do(func() error {
		if e.state != Running {
			return nil
		}
		e.disarm()
		e.setState(Paused)
		return nil
	})
}

// Resume re-arms the countdown. It is a no-op unless paused.
func (e *Engine) Resume() {
	e.do(func() error {
		if e.state != Paused {
			return nil
		}
		e.arm()
		e.setState(Running)
		return nil
	})
}

// Toggle starts, pauses or resumes depending on the state.
func (e *Engine) Toggle() error {
	switch e.Snapshot().State {
	case Idle:
		return e.Start()
	case Running:
		e.Pause()
	case Paused:
		e.Resume()
	}
	return nil
}

// Tick counts one second down and completes the session at zero. Ticks while
// not running are ignored.
func (e *Engine) Tick() error {
	return e.do(func() error { return e.tickLocked() })
}

func (e *Engine) tick(gen int) {
	e.do(func() error {
		if gen != e.gen {
			return nil
		}
		return e.tickLocked()
	})
}

func (e *Engine) tickLocked() error {
	if e.state != Running {
		return nil
	}
	e.remaining -= time.Second
	if e.remaining < 0 {
		e.remaining = 0
	}
	e.emit(Event{Kind: EventTick, Remaining: e.remaining})
	if e.remaining == 0 {
		return e.finalizeLocked(true)
	}
	return nil
}

// Skip ends the current session now without completing it.
func (e *Engine) Skip() error {
	return e.do(func() error {
		if e.state != Running && e.state != Paused {
			return ErrIdle
		}
		return e.finalizeLocked(false)
	})
}

// Reset restarts the countdown of the current session at its full duration
// without finalizing it.
func (e *Engine) Reset() error {
	return e.do(func() error {
		if e.state != Running && e.state != Paused {
			return ErrIdle
		}
		e.remaining = time.Duration(e.current.DurationSeconds) * time.Second
		e.emit(Event{Kind: EventTick, Remaining: e.remaining})
		return nil
	})
}

func (e *Engine) finalizeLocked(completed bool) error {
	e.disarm()
	e.setState(Finalizing)

	s := *e.current
	ended := e.now()
	if ended.Before(s.StartedAt) {
		ended = s.StartedAt
	}
	s.EndedAt = &ended
	s.Completed = completed

	err := e.persist(s)
	if completed {
		switch s.Mode {
		case store.ModeFocus:
			e.cycleCount++
		case store.ModeLongBreak:
			e.cycleCount = 0
		}
	}
	e.lastMode = s.Mode
	e.current = nil

	var unlocked []store.Achievement
	if err == nil && e.refresh != nil {
		var rerr error
		if unlocked, rerr = e.refresh(); rerr != nil {
			log.Printf("pomodoro: refresh achievements: %v", rerr)
		}
	}

	next := e.nextMode()
	e.remaining = e.settings.Duration(next)
	e.setState(Idle)
	e.emit(Event{
		Kind:      EventFinalized,
		Mode:      s.Mode,
		Completed: completed,
		Session:   &s,
		Unlocked:  unlocked,
		Remaining: e.remaining,
	})
	e.setMode(next)
	log.Printf("pomodoro: finalized %s session %s (completed=%t)", s.Mode, s.ID, completed)

	if err != nil {
		return err
	}
	if e.autoContinue(next) {
		return e.startLocked()
	}
	return nil
}

// persist saves s, retrying once. Sessions that still fail are kept and
// retried before the next save.
func (e *Engine) persist(s store.Session) error {
	e.flushUnsaved()

	err := e.sessions.Update(s)
	if err != nil {
		log.Printf("pomodoro: save session %s failed, retrying: %v", s.ID, err)
		err = e.sessions.Update(s)
	}
	if err != nil {
		e.unsaved = append(e.unsaved, s)
		err = fmt.Errorf("%w: %s: %w", ErrPersist, s.ID, err)
		e.emit(Event{Kind: EventError, Err: err, Session: &s, Mode: s.Mode})
		return err
	}
	return nil
}

func (e *Engine) flushUnsaved() {
	kept := e.unsaved[:0]
	for _, s := range e.unsaved {
		if err := e.sessions.Update(s); err != nil {
			kept = append(kept, s)
		}
	}
	e.unsaved = kept
}

// Unsaved returns finalized sessions that could not be persisted yet.
func (e *Engine) Unsaved() []store.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]store.Session, len(e.unsaved))
	copy(out, e.unsaved)
	return out
}

func (e *Engine) autoContinue(next store.Mode) bool {
	if next == store.ModeFocus {
		return e.settings.AutoStartFocus
	}
	return e.settings.AutoStartBreaks
}

// Configure replaces the settings. An open session keeps its duration; the
// idle countdown shows the new duration of the next mode.
func (e *Engine) Configure(settings Settings) error {
	if err := settings.validate(); err != nil {
		return fmt.Errorf("pomodoro settings: %w", err)
	}
	return e.do(func() error {
		e.settings = settings
		if e.state == Idle {
			e.remaining = settings.Duration(e.nextMode())
			e.emit(Event{Kind: EventTick, Remaining: e.remaining})
		}
		return nil
	})
}

// Restore rebuilds the last mode and the cycle count from persisted history,
// newest first, so a restart continues the cycle. It only applies while idle.
func (e *Engine) Restore(history []store.Session) {
	e.do(func() error {
		if e.state != Idle {
			return nil
		}
		e.lastMode = ""
		e.cycleCount = 0
		for _, s := range history {
			if s.EndedAt == nil {
				continue
			}
			if e.lastMode == "" {
				e.lastMode = s.Mode
			}
			if !s.Completed {
				continue
			}
			if s.Mode == store.ModeLongBreak {
				break
			}
			if s.Mode == store.ModeFocus {
				e.cycleCount++
			}
		}
		next := e.nextMode()
		e.remaining = e.settings.Duration(next)
		e.setMode(next)
		return nil
	})
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		State:            e.state,
		Mode:             e.mode,
		Remaining:        e.remaining,
		Total:            e.settings.Duration(e.mode),
		CompletedInCycle: e.cycleCount,
		CycleLength:      e.settings.CycleLength,
	}
	if e.current != nil {
		s := *e.current
		snap.Session = &s
		snap.Total = time.Duration(s.DurationSeconds) * time.Second
	}
	return snap
}

// Close disarms the tick. An open session stays open in storage.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disarm()
}
