package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tempo/internal/app"
	"github.com/sadopc/tempo/internal/store"
)

var soundCategories = []string{"bell", "chime", "digital", "nature"}

// settingsForm holds the form values behind pointers so they survive the
// value copies Bubble Tea makes of the model.
type settingsForm struct {
	focus         string
	shortBreak    string
	longBreak     string
	cycleLength   string
	dailyGoal     string
	volume        string
	autoBreaks    bool
	autoFocus     bool
	notifications bool
	sounds        []string
}

type settingsModel struct {
	core   *app.Core
	width  int
	height int

	current    store.AppSettings
	formActive bool
	form       *huh.Form
	values     *settingsForm
}

func newSettingsModel(c *app.Core) settingsModel {
	return settingsModel{
		core:    c,
		current: c.CurrentSettings(),
		values:  &settingsForm{},
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings store.AppSettings
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return settingsDataMsg{settings: s.core.CurrentSettings()}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.current = msg.settings
		return s, nil

	case settingsSavedMsg:
		s.current = msg.settings
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.current
	*s.values = settingsForm{
		focus:         strconv.Itoa(cur.FocusMinutes),
		shortBreak:    strconv.Itoa(cur.ShortBreakMinutes),
		longBreak:     strconv.Itoa(cur.LongBreakMinutes),
		cycleLength:   strconv.Itoa(cur.CycleLength),
		dailyGoal:     strconv.Itoa(cur.DailyGoal),
		volume:        strconv.FormatFloat(cur.Volume, 'f', -1, 64),
		autoBreaks:    cur.AutoStartBreaks,
		autoFocus:     cur.AutoStartFocus,
		notifications: cur.Notifications,
		sounds:        append([]string(nil), cur.SoundCategories...),
	}
	v := s.values

	var soundOptions []huh.Option[string]
	for _, c := range soundCategories {
		soundOptions = append(soundOptions, huh.NewOption(strings.ToUpper(c[:1])+c[1:], c))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(&v.focus).Validate(positiveInt),
			huh.NewInput().Title("Short break (min)").Value(&v.shortBreak).Validate(positiveInt),
			huh.NewInput().Title("Long break (min)").Value(&v.longBreak).Validate(positiveInt),
			huh.NewInput().Title("Focus sessions before long break").Value(&v.cycleLength).Validate(positiveInt),
			huh.NewConfirm().Title("Start breaks automatically").Value(&v.autoBreaks),
			huh.NewConfirm().Title("Start focus automatically").Value(&v.autoFocus),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (focus sessions)").Value(&v.dailyGoal).Validate(nonNegativeInt),
			huh.NewInput().Title("Volume (0-1)").Value(&v.volume).Validate(unitFloat),
			huh.NewMultiSelect[string]().Title("Sounds").Options(soundOptions...).Value(&v.sounds),
			huh.NewConfirm().Title("Notifications").Value(&v.notifications),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.save(s.values.settings(s.current))
	}

	return s, cmd
}

// settings applies the form values over base. Fields were validated by the
// form, so parse errors cannot occur here.
func (f settingsForm) settings(base store.AppSettings) store.AppSettings {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(s))
		return n
	}
	out := base
	out.FocusMinutes = atoi(f.focus)
	out.ShortBreakMinutes = atoi(f.shortBreak)
	out.LongBreakMinutes = atoi(f.longBreak)
	out.CycleLength = atoi(f.cycleLength)
	out.DailyGoal = atoi(f.dailyGoal)
	out.Volume, _ = strconv.ParseFloat(strings.TrimSpace(f.volume), 64)
	out.AutoStartBreaks = f.autoBreaks
	out.AutoStartFocus = f.autoFocus
	out.Notifications = f.notifications
	out.SoundCategories = append([]string(nil), f.sounds...)
	return out
}

func (s settingsModel) save(next store.AppSettings) tea.Cmd {
	return func() tea.Msg {
		if err := s.core.UpdateSettings(next); err != nil {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		return settingsSavedMsg{settings: next}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	cur := s.current
	items := []struct{ label, value string }{
		{"Focus", fmt.Sprintf("%d min", cur.FocusMinutes)},
		{"Short break", fmt.Sprintf("%d min", cur.ShortBreakMinutes)},
		{"Long break", fmt.Sprintf("%d min", cur.LongBreakMinutes)},
		{"Cycle length", fmt.Sprintf("%d focus sessions", cur.CycleLength)},
		{"Auto-start breaks", onOff(cur.AutoStartBreaks)},
		{"Auto-start focus", onOff(cur.AutoStartFocus)},
		{"Daily goal", fmt.Sprintf("%d focus sessions", cur.DailyGoal)},
		{"Volume", fmt.Sprintf("%.0f%%", cur.Volume*100)},
		{"Sounds", strings.Join(cur.SoundCategories, ", ")},
		{"Notifications", onOff(cur.Notifications)},
	}

	rows := []string{title, ""}
	for _, it := range items {
		label := lipgloss.NewStyle().Width(24).Render(it.label)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(it.value)))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a whole number above 0")
	}
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number, 0 or more")
	}
	return nil
}

func unitFloat(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || f > 1 {
		return fmt.Errorf("enter a number between 0 and 1")
	}
	return nil
}
