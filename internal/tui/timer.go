package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/pomodoro"
)

// timerModel caches the engine state for display and maps keys onto engine
// commands. The countdown itself lives in the engine.
type timerModel struct {
	engine *pomodoro.Engine
	snap   pomodoro.Snapshot
}

func newTimerModel(e *pomodoro.Engine) timerModel {
	return timerModel{engine: e, snap: e.Snapshot()}
}

func (t timerModel) running() bool { return t.snap.State == pomodoro.Running }
func (t timerModel) paused() bool { return t.snap.State == pomodoro.Paused }
func (t timerModel) idle() bool { return t.snap.State == pomodoro.Idle }

func (t *timerModel) sync() {
	t.snap = t.engine.Snapshot()
}

// handleKey runs the engine command bound to msg. handled is false for keys
// the timer does not own.
func (t *timerModel) handleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	var err error
	switch {
	case key.Matches(msg, keys.Start):
		err = t.engine.Start()
	case key.Matches(msg, keys.Pause):
		err = t.engine.Toggle()
	case key.Matches(msg, keys.Skip):
		err = t.engine.Skip()
	case key.Matches(msg, keys.Reset):
		err = t.engine.Reset()
	default:
		return nil, false
	}
	t.sync()

	switch {
	case err == nil:
		return nil, true
	case errors.Is(err, pomodoro.ErrIdle):
		return func() tea.Msg { return statusMsg{text: "No session running"} }, true
	default:
		return func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}, true
	}
}
