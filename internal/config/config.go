// Package config parses the tempo.toml bootstrap configuration. Timer
// durations and other user settings live in the database, not here.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up in the config directory.
const FileName = "tempo.toml"

// DefaultAccentColor is the default TUI accent color (purple).
const DefaultAccentColor = "#7C3AED"

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Config is the top-level tempo.toml configuration.
type Config struct {
	Storage       StorageConfig       `toml:"storage"`
	Log           LogConfig           `toml:"log"`
	TUI           TUIConfig           `toml:"tui"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// StorageConfig locates the database file.
type StorageConfig struct {
	Path string `toml:"path"` // empty = ~/.config/tempo/tempo.db
}

// LogConfig controls where the TUI writes its log.
type LogConfig struct {
	File string `toml:"file"` // empty = no log while the TUI runs
}

// TUIConfig controls the terminal UI appearance.
type TUIConfig struct {
	AccentColor string `toml:"accent_color"`
	Bell        bool   `toml:"bell"` // ring the terminal bell when a session ends
}

// NotificationsConfig controls the webhook fired when a session ends.
type NotificationsConfig struct {
	URL        string `toml:"url"`
	OnComplete bool   `toml:"on_complete"`
	OnSkip     bool   `toml:"on_skip"`
}

func Defaults() Config {
	return Config{
		TUI: TUIConfig{
			AccentColor: DefaultAccentColor,
			Bell:        true,
		},
		Notifications: NotificationsConfig{
			OnComplete: true,
		},
	}
}

// Validate returns every issue found, joined together.
func (c *Config) Validate() error {
	var errs []error

	if c.TUI.AccentColor != "" && !hexColorRe.MatchString(c.TUI.AccentColor) {
		errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. %q)", DefaultAccentColor))
	}
	if c.Notifications.URL != "" {
		u, err := url.ParseRequestURI(c.Notifications.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
		}
	}
	if c.Storage.Path != "" && c.Storage.Path != ":memory:" && strings.HasSuffix(c.Storage.Path, string(filepath.Separator)) {
		errs = append(errs, fmt.Errorf("storage.path must be a file, not a directory"))
	}

	return errors.Join(errs...)
}

// DefaultDir returns ~/.config/tempo.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate config dir: %w", err)
	}
	return filepath.Join(dir, "tempo"), nil
}

// Load reads the config at path, or tempo.toml in DefaultDir when path is
// empty. A missing file yields the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, FileName)
	}

	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// InitFile writes a default tempo.toml template to dir.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create %s: %w", dir, err)
	}

	content := `# tempo.toml - tempo bootstrap configuration
# Timer lengths, cycle length and daily goal are edited in the app (settings tab).

[storage]
path = ""  # database file; empty = ~/.config/tempo/tempo.db

[log]
file = ""  # log file while the TUI runs; empty = discard

[tui]
accent_color = "#7C3AED"
bell = true  # ring the terminal bell when a session ends

[notifications]
url = ""            # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_complete = true  # notify when a session completes
on_skip = false     # notify when a session is skipped
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}
