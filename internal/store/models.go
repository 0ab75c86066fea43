package store

import (
	"errors"
	"fmt"
	"time"
)

// Mode is the purpose of a session.
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

// Label is the human-readable mode name.
func (m Mode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	}
	return string(m)
}

// Session is one focus or break interval. EndedAt stays nil while the
// session is open and is set once, on completion or skip.
type Session struct {
	ID              string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds int64 // target length
	Completed       bool
	Mode            Mode
	Notes           *string
}

// AchievementType is the metric an achievement tracks.
type AchievementType string

const (
	AchievementSessions   AchievementType = "sessions_completed"
	AchievementFocusTime  AchievementType = "focus_minutes"
	AchievementStreak     AchievementType = "streak_days"
	AchievementLongBreaks AchievementType = "long_breaks"
)

type Achievement struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Type        AchievementType
	Progress    float64
	Target      float64
	Unlocked    bool
	UnlockedAt  *time.Time
}

// Percent is progress towards the target, capped at 100.
func (a Achievement) Percent() float64 {
	if a.Target <= 0 {
		return 100
	}
	p := a.Progress / a.Target * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// AppSettings is the user configuration aggregate, stored whole under
// AppSettingsKey.
type AppSettings struct {
	FocusMinutes      int      `json:"focus_minutes"`
	ShortBreakMinutes int      `json:"short_break_minutes"`
	LongBreakMinutes  int      `json:"long_break_minutes"`
	CycleLength       int      `json:"cycle_length"`
	AutoStartBreaks   bool     `json:"auto_start_breaks"`
	AutoStartFocus    bool     `json:"auto_start_focus"`
	Volume            float64  `json:"volume"`
	SoundCategories   []string `json:"sound_categories"`
	Notifications     bool     `json:"notifications"`
	DailyGoal         int      `json:"daily_goal"` // focus sessions per day
}

// Validate reports every out-of-range field at once.
func (s AppSettings) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("focus_minutes", s.FocusMinutes)
	positive("short_break_minutes", s.ShortBreakMinutes)
	positive("long_break_minutes", s.LongBreakMinutes)
	positive("cycle_length", s.CycleLength)
	if s.Volume < 0 || s.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume must be between 0 and 1, got %g", s.Volume))
	}
	if s.DailyGoal < 0 {
		errs = append(errs, fmt.Errorf("daily_goal must not be negative, got %d", s.DailyGoal))
	}
	return errors.Join(errs...)
}

// StatsSummary is derived from a set of sessions; it is never stored.
type StatsSummary struct {
	TotalSessions        int
	TotalFocusTime       int // minutes, focus sessions only
	CompletedSessions    int
	CompletionRate       float64 // percent
	AverageSessionLength float64 // minutes
	CurrentStreak        int
	BestStreak           int
}

// ChartData is one calendar day of activity.
type ChartData struct {
	DayLabel     string
	FocusMinutes int
	SessionCount int
	Date         time.Time
}
