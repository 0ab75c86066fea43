// Package app wires storage, the session engine and notifications into one
// explicitly owned Core that lives as long as the process.
package app

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/notify"
	"github.com/sadopc/tempo/internal/pomodoro"
	"github.com/sadopc/tempo/internal/store"
)

// restoreWindow bounds the history read to rebuild the cycle on startup.
const restoreWindow = 200

// Core owns the database connection, the repositories and the engine. Hosts
// (the TUI and CLI commands) receive it explicitly.
type Core struct {
	conn *store.Conn

	Sessions     *store.SessionRepository
	Achievements *store.AchievementRepository
	Settings     *store.SettingsRepository
	Engine       *pomodoro.Engine

	mu       sync.Mutex
	settings store.AppSettings
	now      func() time.Time
}

// New opens the database named by cfg, seeds achievements, loads settings and
// builds an engine that continues the cycle found in history. opts are passed
// to the engine.
func New(cfg *config.Config, opts ...pomodoro.Option) (*Core, error) {
	path := cfg.Storage.Path
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	conn, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	c := &Core{
		conn:         conn,
		Sessions:     store.NewSessionRepository(conn),
		Achievements: store.NewAchievementRepository(conn),
		Settings:     store.NewSettingsRepository(conn),
		now:          time.Now,
	}
	if err := c.init(opts); err != nil {
		conn.Close()
		return nil, err
	}

	if cfg.Notifications.URL != "" {
		n := notify.New(cfg.Notifications.URL, cfg.Notifications.OnComplete, cfg.Notifications.OnSkip)
		c.Engine.Subscribe(n.Hook)
	}
	return c, nil
}

func (c *Core) init(opts []pomodoro.Option) error {
	if err := c.Achievements.Seed(); err != nil {
		return err
	}

	keys, err := c.Settings.Keys()
	if err != nil {
		return err
	}
	c.settings, err = c.Settings.LoadAppSettings()
	switch {
	case err != nil:
		// Leave the unreadable row in place; the next save replaces it.
		log.Printf("app: load settings, using defaults: %v", err)
	case !slices.Contains(keys, store.AppSettingsKey):
		if err := c.Settings.SaveAppSettings(c.settings); err != nil {
			return err
		}
	}
	if err := c.settings.Validate(); err != nil {
		log.Printf("app: stored settings invalid, using defaults: %v", err)
		c.settings = store.DefaultAppSettings()
	}

	opts = append(opts, pomodoro.WithRefresher(c.RefreshAchievements))
	c.Engine, err = pomodoro.New(c.Sessions, pomodoro.SettingsFrom(c.settings), opts...)
	if err != nil {
		return err
	}

	history, err := c.Sessions.Recent(restoreWindow)
	if err != nil {
		return err
	}
	c.Engine.Restore(history)
	return nil
}

// Stats returns the summary and chart for period. Storage failures degrade to
// an empty result.
func (c *Core) Stats(period store.Period) (store.StatsSummary, []store.ChartData) {
	sessions, err := c.Sessions.GetSessions(period)
	if err != nil {
		log.Printf("app: stats for %s: %v", period, err)
		return store.StatsSummary{}, store.GenerateChartData(nil, period, c.now())
	}
	now := c.now()
	return store.CalculateSummary(sessions, now), store.GenerateChartData(sessions, period, now)
}

// RecentSessions returns up to limit sessions, newest first, or none on error.
func (c *Core) RecentSessions(limit int) []store.Session {
	sessions, err := c.Sessions.Recent(limit)
	if err != nil {
		log.Printf("app: recent sessions: %v", err)
		return nil
	}
	return sessions
}

// SessionsFor returns every session in period, or none on error.
func (c *Core) SessionsFor(period store.Period) []store.Session {
	sessions, err := c.Sessions.GetSessions(period)
	if err != nil {
		log.Printf("app: sessions for %s: %v", period, err)
		return nil
	}
	return sessions
}

func (c *Core) AchievementList() []store.Achievement {
	all, err := c.Achievements.GetAll()
	if err != nil {
		log.Printf("app: achievements: %v", err)
		return nil
	}
	return all
}

// TodayProgress returns completed focus sessions today against the daily goal.
func (c *Core) TodayProgress() (done, goal int) {
	goal = c.CurrentSettings().DailyGoal
	sessions, err := c.Sessions.GetSessions(store.PeriodToday)
	if err != nil {
		log.Printf("app: today progress: %v", err)
		return 0, goal
	}
	for _, s := range sessions {
		if s.Completed && s.Mode == store.ModeFocus {
			done++
		}
	}
	return done, goal
}

// RefreshAchievements recomputes achievement progress over all history and
// returns newly unlocked achievements.
func (c *Core) RefreshAchievements() ([]store.Achievement, error) {
	sessions, err := c.Sessions.GetSessions(store.PeriodAll)
	if err != nil {
		return nil, err
	}
	unlocked, err := c.Achievements.Refresh(sessions)
	for _, a := range unlocked {
		log.Printf("app: unlocked achievement %q", a.Title)
	}
	return unlocked, err
}

func (c *Core) CurrentSettings() store.AppSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings persists s and applies it to the engine.
func (c *Core) UpdateSettings(s store.AppSettings) error {
	if err := c.Settings.SaveAppSettings(s); err != nil {
		return err
	}
	if err := c.Engine.Configure(pomodoro.SettingsFrom(s)); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	return nil
}

// ClearData deletes every session and resets achievement progress. The
// engine restarts its cycle. It fails while a session is open.
func (c *Core) ClearData() (int64, error) {
	if st := c.Engine.Snapshot().State; st != pomodoro.Idle {
		return 0, fmt.Errorf("clear data: session is %s", st)
	}
	n, err := store.ClearHistory(c.conn)
	if err != nil {
		return 0, err
	}
	c.Engine.Restore(nil)
	log.Printf("app: cleared %d sessions", n)
	return n, nil
}

// Close stops the engine and closes the database.
func (c *Core) Close() error {
	if c.Engine != nil {
		c.Engine.Close()
	}
	return c.conn.Close()
}
