package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tempo/internal/app"
	"github.com/sadopc/tempo/internal/store"
)

const historyLimit = 200

type historyModel struct {
	core   *app.Core
	width  int
	height int

	sessions []store.Session
	offset   int
}

func newHistoryModel(c *app.Core) historyModel {
	return historyModel{core: c}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	sessions []store.Session
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return historyDataMsg{sessions: h.core.RecentSessions(historyLimit)}
	}
}

// pageSize is the number of rows that fit inside the panel.
func (h historyModel) pageSize() int {
	return max(h.height-8, 1)
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.sessions = msg.sessions
		h.offset = min(h.offset, max(0, len(h.sessions)-1))
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.offset > 0 {
				h.offset--
			}
		case key.Matches(msg, keys.Down):
			if h.offset < len(h.sessions)-h.pageSize() {
				h.offset++
			}
		}
	}
	return h, nil
}

func (h historyModel) view() string {
	w := h.width - 4
	title := titleStyle.Render("History")

	if len(h.sessions) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No sessions yet. Press 1 and s to start one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	end := min(h.offset+h.pageSize(), len(h.sessions))
	var rows []string
	rows = append(rows, title, "")
	for _, s := range h.sessions[h.offset:end] {
		rows = append(rows, "  "+s.StartedAt.Local().Format("Jan 02 15:04")+"  "+sessionRow(s))
	}
	rows = append(rows, "", mutedStyle.Render("  ↑/↓: scroll  e: export"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
