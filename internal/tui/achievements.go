package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/tempo/internal/app"
	"github.com/sadopc/tempo/internal/store"
)

type achievementsModel struct {
	core   *app.Core
	width  int
	height int

	achievements []store.Achievement
	cursor       int
}

func newAchievementsModel(c *app.Core) achievementsModel {
	return achievementsModel{core: c}
}

func (a *achievementsModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

type achievementsDataMsg struct {
	achievements []store.Achievement
}

func (a achievementsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return achievementsDataMsg{achievements: a.core.AchievementList()}
	}
}

func (a achievementsModel) update(msg tea.Msg) (achievementsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case achievementsDataMsg:
		a.achievements = msg.achievements
		if a.cursor >= len(a.achievements) {
			a.cursor = max(0, len(a.achievements)-1)
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
		case key.Matches(msg, keys.Down):
			if a.cursor < len(a.achievements)-1 {
				a.cursor++
			}
		}
	}
	return a, nil
}

func (a achievementsModel) unlockedCount() int {
	n := 0
	for _, ach := range a.achievements {
		if ach.Unlocked {
			n++
		}
	}
	return n
}

func (a achievementsModel) view() string {
	w := a.width - 4
	title := titleStyle.Render("Achievements")

	if len(a.achievements) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No achievements available"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%s  %s", title,
		highlightStyle.Render(fmt.Sprintf("%d / %d unlocked", a.unlockedCount(), len(a.achievements)))))
	rows = append(rows, "")

	for i, ach := range a.achievements {
		cursor := "  "
		style := normalItemStyle
		if i == a.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		icon := mutedStyle.Render("○")
		if ach.Unlocked {
			icon = successStyle.Render(ach.Icon)
		}
		pct := mutedStyle.Render(fmt.Sprintf("%3.0f%%", ach.Percent()))
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-24s", cursor, icon, ach.Title))+" "+pct)
	}

	rows = append(rows, "", a.renderDetail())
	rows = append(rows, "", mutedStyle.Render("  ↑/↓: select"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (a achievementsModel) renderDetail() string {
	if a.cursor >= len(a.achievements) {
		return ""
	}
	ach := a.achievements[a.cursor]
	lines := []string{
		"  " + titleStyle.Render(ach.Title),
		"  " + mutedStyle.Render(ach.Description),
		fmt.Sprintf("  %s %s", renderBar(ach.Percent()/100, 30),
			mutedStyle.Render(fmt.Sprintf("%s / %s", humanize.Ftoa(ach.Progress), humanize.Ftoa(ach.Target)))),
	}
	if ach.Unlocked && ach.UnlockedAt != nil {
		lines = append(lines, "  "+successStyle.Render("Unlocked "+humanize.Time(*ach.UnlockedAt)))
	}
	return strings.Join(lines, "\n")
}
