package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"storage.path", cfg.Storage.Path, ""},
		{"log.file", cfg.Log.File, ""},
		{"tui.accent_color", cfg.TUI.AccentColor, DefaultAccentColor},
		{"tui.bell", cfg.TUI.Bell, true},
		{"notifications.url", cfg.Notifications.URL, ""},
		{"notifications.on_complete", cfg.Notifications.OnComplete, true},
		{"notifications.on_skip", cfg.Notifications.OnSkip, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := writeConfig(t, `
[storage]
path = "/tmp/tempo-test.db"

[tui]
accent_color = "#112233"

[notifications]
url = "https://ntfy.sh/focus"
on_skip = true
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Storage.Path != "/tmp/tempo-test.db" {
			t.Errorf("storage.path = %q", cfg.Storage.Path)
		}
		if cfg.TUI.AccentColor != "#112233" {
			t.Errorf("tui.accent_color = %q", cfg.TUI.AccentColor)
		}
		if !cfg.Notifications.OnSkip || !cfg.Notifications.OnComplete {
			t.Errorf("notifications = %+v", cfg.Notifications)
		}
		// Unset keys keep their defaults.
		if !cfg.TUI.Bell {
			t.Error("tui.bell should default to true")
		}
	})

	t.Run("unknown keys", func(t *testing.T) {
		path := writeConfig(t, `
[storage]
pth = "typo.db"
`)
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "storage.pth") {
			t.Fatalf("expected unknown key error, got %v", err)
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := writeConfig(t, `[storage`)
		if _, err := Load(path); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("explicit missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Fatal("expected error for missing explicit path")
		}
	})

	t.Run("default path missing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.TUI.AccentColor != DefaultAccentColor {
			t.Fatalf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, `
[tui]
accent_color = "purple"

[notifications]
url = "ftp://example.com"
`)
		_, err := Load(path)
		if err == nil {
			t.Fatal("expected validation error")
		}
		for _, want := range []string{"tui.accent_color", "notifications.url"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error should mention %s: %v", want, err)
			}
		}
	})
}

func TestInitFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tempo")
	path, err := InitFile(dir)
	if err != nil {
		t.Fatal(err)
	}

	// The template must load cleanly.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if cfg.TUI.AccentColor != DefaultAccentColor {
		t.Errorf("accent color = %q", cfg.TUI.AccentColor)
	}

	if _, err := InitFile(dir); err == nil {
		t.Fatal("expected error when file exists")
	}
}
