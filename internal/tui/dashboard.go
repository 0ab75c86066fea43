package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/tempo/internal/app"
	"github.com/sadopc/tempo/internal/pomodoro"
	"github.com/sadopc/tempo/internal/store"
)

const recentLimit = 5

type dashboardModel struct {
	core   *app.Core
	timer  timerModel
	width  int
	height int

	todayDone int
	dailyGoal int
	recent    []store.Session
	unlocked  []store.Achievement // from the latest finalized session
}

func newDashboardModel(c *app.Core) dashboardModel {
	return dashboardModel{
		core:  c,
		timer: newTimerModel(c.Engine),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	todayDone int
	dailyGoal int
	recent    []store.Session
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		done, goal := d.core.TodayProgress()
		return dashboardDataMsg{
			todayDone: done,
			dailyGoal: goal,
			recent:    d.core.RecentSessions(recentLimit),
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.todayDone = msg.todayDone
		d.dailyGoal = msg.dailyGoal
		d.recent = msg.recent
		return d, nil

	case engineEventMsg:
		d.timer.sync()
		switch msg.Kind {
		case pomodoro.EventFinalized:
			d.unlocked = msg.Unlocked
			return d, d.loadData()
		case pomodoro.EventStateChanged:
			if msg.State == pomodoro.Running {
				d.unlocked = nil
			}
			return d, d.loadData()
		}
		return d, nil

	case tea.KeyMsg:
		cmd, _ := d.timer.handleKey(msg)
		return d, cmd
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderTodayPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	snap := d.timer.snap
	timeStr := formatPomodoroTime(snap.Remaining)

	var timeDisplay, indicator, hint string
	switch snap.State {
	case pomodoro.Running:
		timeDisplay = modeStyle(snap.Mode).Bold(true).Width(w - 6).Align(lipgloss.Center).Render(timeStr)
		indicator = successStyle.Render("●  " + strings.ToUpper(snap.Mode.Label()))
		hint = mutedStyle.Render("space: pause  n: skip  x: reset")
	case pomodoro.Paused:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
		indicator = warningStyle.Render("⏸  PAUSED " + strings.ToUpper(snap.Mode.Label()))
		hint = mutedStyle.Render("space: resume  n: skip  x: reset")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(timeStr)
		indicator = mutedStyle.Render("■  NEXT: " + strings.ToUpper(snap.Mode.Label()))
		hint = mutedStyle.Render("Press s to start")
	}

	rows := []string{timeDisplay, indicator, ""}
	if snap.State != pomodoro.Idle {
		rows = append(rows, renderBar(snap.Progress(), min(w-10, 40)))
	}
	rows = append(rows, renderCycle(snap), hint)

	content := lipgloss.JoinVertical(lipgloss.Center, rows...)
	if snap.State == pomodoro.Idle {
		return panelStyle.Width(w).Render(content)
	}
	return activePanelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderTodayPanel(w int) string {
	title := titleStyle.Render("Today")
	goal := highlightStyle.Render(fmt.Sprintf("%d / %d focus sessions", d.todayDone, d.dailyGoal))
	rows := []string{fmt.Sprintf("%s  %s", title, goal)}

	if d.dailyGoal > 0 && d.todayDone >= d.dailyGoal {
		rows = append(rows, successStyle.Render("  Daily goal reached"))
	}
	for _, a := range d.unlocked {
		rows = append(rows, accentStyle.Render(fmt.Sprintf("  %s Unlocked: %s", a.Icon, a.Title)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, s := range d.recent {
		rows = append(rows, "  "+sessionRow(s))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// sessionRow renders one session as "✓ Focus  25m  3 minutes ago".
func sessionRow(s store.Session) string {
	status := successStyle.Render("✓")
	switch {
	case s.EndedAt == nil:
		status = accentStyle.Render("●")
	case !s.Completed:
		status = warningStyle.Render("↷")
	}
	dur := formatMinutes(int(s.DurationSeconds / 60))
	return fmt.Sprintf("%s %-12s %6s  %s", status, s.Mode.Label(), dur, mutedStyle.Render(humanize.Time(s.StartedAt)))
}
