package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/tempo/internal/pomodoro"
	"github.com/sadopc/tempo/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewStats
	viewAchievements
	viewHistory
	viewSettings
)

var viewNames = []string{"Timer", "Stats", "Achievements", "History", "Settings"}

// --- Messages ---

// engineEventMsg carries one engine event into the update loop.
type engineEventMsg pomodoro.Event

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type settingsSavedMsg struct {
	settings store.AppSettings
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// formatMinutes renders a minute total as "1h 05m" or "25m".
func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

func formatPomodoroTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
