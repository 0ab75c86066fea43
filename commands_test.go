package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// runRoot executes the root command with args against an isolated config
// dir and returns its output.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStatsCommandEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tempo.db")
	out, err := runRoot(t, "--db", db, "stats", "--period", "today")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Stats (today)") || !strings.Contains(out, "No sessions") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStatsCommandBadPeriod(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tempo.db")
	if _, err := runRoot(t, "--db", db, "stats", "--period", "decade"); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestAchievementsCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tempo.db")
	out, err := runRoot(t, "--db", db, "achievements")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[ ]") {
		t.Fatalf("expected locked achievements:\n%s", out)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "tempo.db")
	path := filepath.Join(dir, "out.json")

	out, err := runRoot(t, "--db", db, "export", "--format", "json", "--out", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Exported 0 sessions") {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	if _, err := runRoot(t, "--db", db, "export", "--format", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tempo.db")
	if _, err := runRoot(t, "--db", db, "clear"); err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	out, err := runRoot(t, "--db", db, "clear", "--yes")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Deleted 0 sessions") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestInitCommand(t *testing.T) {
	out, err := runRoot(t, "init")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tempo.toml") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestExplicitMissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	if _, err := runRoot(t, "--config", missing, "stats"); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

// ============================================================
// Writers
// ============================================================

func TestWriteStats(t *testing.T) {
	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.Local)
	summary := store.StatsSummary{
		TotalSessions:     3,
		TotalFocusTime:    50,
		CompletedSessions: 2,
		CompletionRate:    66.67,
		CurrentStreak:     1,
		BestStreak:        4,
	}
	days := []store.ChartData{
		{DayLabel: "Wed", Date: day.AddDate(0, 0, -1), FocusMinutes: 0},
		{DayLabel: "Thu", Date: day, FocusMinutes: 50},
	}
	var buf bytes.Buffer
	writeStats(&buf, store.PeriodWeek, summary, days)
	out := buf.String()

	for _, want := range []string{"Stats (week)", "2 (67%)", "50 min", "1 day", "4 days", "2024-06-20 Thu"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "█") != 30 {
		t.Fatalf("peak day should fill the bar, got %d blocks", strings.Count(out, "█"))
	}
}

func TestWriteHistory(t *testing.T) {
	end := time.Now()
	sessions := []store.Session{
		{Mode: store.ModeFocus, StartedAt: end.Add(-25 * time.Minute), EndedAt: &end, DurationSeconds: 1500, Completed: true},
		{Mode: store.ModeShortBreak, StartedAt: end.Add(-time.Hour), EndedAt: &end, DurationSeconds: 300},
		{Mode: store.ModeFocus, StartedAt: end, DurationSeconds: 1500},
	}
	var buf bytes.Buffer
	writeHistory(&buf, sessions)
	out := buf.String()
	for _, want := range []string{"done", "skipped", "open", "25 min", "Short Break"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	writeHistory(&buf, nil)
	if !strings.Contains(buf.String(), "No sessions") {
		t.Fatal("expected empty message")
	}
}

func TestWriteAchievements(t *testing.T) {
	at := time.Now().Add(-2 * time.Hour)
	var buf bytes.Buffer
	writeAchievements(&buf, []store.Achievement{
		{Title: "First Focus", Progress: 1, Target: 1, Unlocked: true, UnlockedAt: &at},
		{Title: "Ten", Progress: 5, Target: 10},
	})
	out := buf.String()
	if !strings.Contains(out, "[x] First Focus") || !strings.Contains(out, "2 hours ago") {
		t.Fatalf("unexpected unlocked row:\n%s", out)
	}
	if !strings.Contains(out, "[ ] Ten") || !strings.Contains(out, " 50%") {
		t.Fatalf("unexpected locked row:\n%s", out)
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 sessions"},
		{1, "1 session"},
		{1200, "1,200 sessions"},
	}
	for _, tt := range tests {
		if got := pluralize(tt.n, "session"); got != tt.want {
			t.Errorf("pluralize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
