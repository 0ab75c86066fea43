package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/tempo/internal/app"
	"github.com/sadopc/tempo/internal/store"
)

var statsPeriods = store.Periods

// maxBars caps the chart so long periods stay readable; older days are cut.
const maxBars = 31

type statsModel struct {
	core   *app.Core
	width  int
	height int

	period  int // index into statsPeriods
	summary store.StatsSummary
	days    []store.ChartData

	chart barchart.Model
}

func newStatsModel(c *app.Core) statsModel {
	return statsModel{
		core:   c,
		period: 1,
		chart:  barchart.New(60, 12),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.buildChart()
}

type statsDataMsg struct {
	period  store.Period
	summary store.StatsSummary
	days    []store.ChartData
}

func (s statsModel) refresh() tea.Cmd {
	period := statsPeriods[s.period]
	return func() tea.Msg {
		summary, days := s.core.Stats(period)
		return statsDataMsg{period: period, summary: summary, days: days}
	}
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		if msg.period != statsPeriods[s.period] {
			return s, nil // stale
		}
		s.summary = msg.summary
		s.days = msg.days
		s.buildChart()
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if s.period > 0 {
				s.period--
				return s, s.refresh()
			}
		case key.Matches(msg, keys.Right):
			if s.period < len(statsPeriods)-1 {
				s.period++
				return s, s.refresh()
			}
		}
	}
	return s, nil
}

func (s *statsModel) buildChart() {
	chartWidth := max(s.width-8, 20)
	chartHeight := 12
	if s.height > 30 {
		chartHeight = 16
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	days := s.days
	if len(days) > maxBars {
		days = days[len(days)-maxBars:]
	}

	var bars []barchart.BarData
	for _, d := range days {
		bars = append(bars, barchart.BarData{
			Label: d.DayLabel,
			Values: []barchart.BarValue{{
				Name:  "focus",
				Value: float64(d.FocusMinutes),
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}},
		})
	}
	if len(bars) == 0 {
		return
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s statsModel) view() string {
	w := s.width - 4

	var tabs []string
	for i, p := range statsPeriods {
		label := strings.ToUpper(p.String()[:1]) + p.String()[1:]
		if i == s.period {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
	)

	var body string
	if s.summary.TotalSessions == 0 {
		body = mutedStyle.Render("  No sessions in this period")
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			s.chart.View(),
			mutedStyle.Render("  focus minutes per day"),
			"",
			s.renderSummary(),
		)
	}

	nav := mutedStyle.Render("  ←/→: change period")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", nav),
	)
}

func (s statsModel) renderSummary() string {
	sum := s.summary
	rows := []struct{ label, value string }{
		{"Sessions", humanize.Comma(int64(sum.TotalSessions))},
		{"Completed", fmt.Sprintf("%s (%.0f%%)", humanize.Comma(int64(sum.CompletedSessions)), sum.CompletionRate)},
		{"Focus time", formatMinutes(sum.TotalFocusTime)},
		{"Average length", fmt.Sprintf("%.1f min", sum.AverageSessionLength)},
		{"Current streak", pluralDays(sum.CurrentStreak)},
		{"Best streak", pluralDays(sum.BestStreak)},
	}
	var out []string
	for _, r := range rows {
		label := lipgloss.NewStyle().Width(18).Render(r.label)
		out = append(out, fmt.Sprintf("  %s %s", label, highlightStyle.Render(r.value)))
	}
	return strings.Join(out, "\n")
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
