package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/pomodoro"
	"github.com/sadopc/tempo/internal/store"
)

// eventBuffer bounds the engine-to-UI queue. Events that find it full are
// dropped; the next snapshot catches the view up.
const eventBuffer = 64

// subscribeEngine forwards engine events into a channel drained by
// waitForEvent. The send never blocks, so the engine can be driven from
// inside Update without deadlocking on the channel.
func subscribeEngine(e *pomodoro.Engine) (<-chan pomodoro.Event, func()) {
	ch := make(chan pomodoro.Event, eventBuffer)
	unsubscribe := e.Subscribe(func(ev pomodoro.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch, unsubscribe
}

// waitForEvent blocks on the event channel and returns the next message.
func waitForEvent(ch <-chan pomodoro.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return engineEventMsg(<-ch)
	}
}

// renderCycle draws one dot per focus session in the cycle.
func renderCycle(snap pomodoro.Snapshot) string {
	var parts []string
	for i := 0; i < snap.CycleLength; i++ {
		switch {
		case i < snap.CompletedInCycle:
			parts = append(parts, successStyle.Render("●"))
		case i == snap.CompletedInCycle && snap.State != pomodoro.Idle && snap.Mode == store.ModeFocus:
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", snap.CompletedInCycle, snap.CycleLength))
	return strings.Join(parts, " ") + counter
}

// renderBar draws the elapsed fraction of the session as a fixed-width bar.
func renderBar(progress float64, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(progress * float64(width))
	filled = min(max(filled, 0), width)
	return timerStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}
