package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tempo/internal/app"
	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/export"
	"github.com/sadopc/tempo/internal/pomodoro"
	"github.com/sadopc/tempo/internal/store"
)

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON, export.FormatYAML}

// App is the root Bubble Tea model.
type App struct {
	core   *app.Core
	width  int
	height int

	events      <-chan pomodoro.Event
	unsubscribe func()
	bell        bool
	exportDir   string

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard    dashboardModel
	stats        statsModel
	achievements achievementsModel
	history      historyModel
	settings     settingsModel

	help   help.Model
	status string
}

// NewApp builds the root model around c. The TUI section of cfg picks the
// accent color and the bell.
func NewApp(c *app.Core, cfg *config.Config) App {
	setAccent(cfg.TUI.AccentColor)

	h := help.New()
	h.ShowAll = false

	exportDir, err := os.UserHomeDir()
	if err != nil {
		exportDir = "."
	}

	events, unsubscribe := subscribeEngine(c.Engine)
	return App{
		core:         c,
		events:       events,
		unsubscribe:  unsubscribe,
		bell:         cfg.TUI.Bell,
		exportDir:    exportDir,
		activeView:   viewTimer,
		dashboard:    newDashboardModel(c),
		stats:        newStatsModel(c),
		achievements: newAchievementsModel(c),
		history:      newHistoryModel(c),
		settings:     newSettingsModel(c),
		help:         h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		waitForEvent(a.events),
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.achievements.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.unsubscribe()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewTimer)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewStats)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewAchievements)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewHistory)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

		// Timer keys work from every view.
		if cmd, ok := a.dashboard.timer.handleKey(msg); ok {
			return a, cmd
		}

	case engineEventMsg:
		return a.handleEngineEvent(msg)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case settingsSavedMsg:
		a.status = "Settings saved"
		a.dashboard.timer.sync()
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, tea.Batch(cmd, a.dashboard.loadData())

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// handleEngineEvent updates every view that mirrors engine state and
// re-arms the event listener.
func (a App) handleEngineEvent(msg engineEventMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForEvent(a.events)}

	var cmd tea.Cmd
	a.dashboard, cmd = a.dashboard.update(msg)
	cmds = append(cmds, cmd)

	switch msg.Kind {
	case pomodoro.EventFinalized:
		a.status = finalizedStatus(pomodoro.Event(msg))
		if a.bell {
			a.status += "\a"
		}
		cmds = append(cmds, a.refreshCurrentView())
	case pomodoro.EventError:
		a.status = fmt.Sprintf("Error: %v", msg.Err)
	}
	return a, tea.Batch(cmds...)
}

func finalizedStatus(ev pomodoro.Event) string {
	verb := "complete"
	if !ev.Completed {
		verb = "skipped"
	}
	text := fmt.Sprintf("%s %s", ev.Mode.Label(), verb)
	if len(ev.Unlocked) > 0 {
		var titles []string
		for _, u := range ev.Unlocked {
			titles = append(titles, u.Title)
		}
		text += ". Unlocked: " + strings.Join(titles, ", ")
	}
	return text
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewAchievements:
		a.achievements, cmd = a.achievements.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewSettings && a.settings.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTimer:
		return a.dashboard.loadData()
	case viewStats:
		return a.stats.refresh()
	case viewAchievements:
		return a.achievements.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.dashboard.view()
	case viewStats:
		content = a.stats.view()
	case viewAchievements:
		content = a.achievements.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tempo")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	t := a.dashboard.timer
	switch {
	case t.running():
		timerInfo = successStyle.Render(fmt.Sprintf(" ● %s %s", formatPomodoroTime(t.snap.Remaining), t.snap.Mode.Label()))
	case t.paused():
		timerInfo = warningStyle.Render(fmt.Sprintf(" ⏸ %s %s", formatPomodoroTime(t.snap.Remaining), t.snap.Mode.Label()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Sessions"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(string(f))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	return func() tea.Msg {
		sessions := a.core.SessionsFor(store.PeriodAll)
		name := fmt.Sprintf("tempo-export-%s.%s", time.Now().Format("2006-01-02"), f)
		path := filepath.Join(a.exportDir, name)
		if err := export.Write(f, sessions, path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
