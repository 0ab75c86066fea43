package store

import (
	"encoding/json"
	"fmt"
)

// AppSettingsKey is the settings row holding the AppSettings aggregate.
const AppSettingsKey = "app_settings"

// SettingsRepository stores whole JSON values by key. Writes replace the
// stored value; there are no partial updates.
type SettingsRepository struct {
	repo *Repository[[]byte]
}

func NewSettingsRepository(conn *Conn) *SettingsRepository {
	return &SettingsRepository{repo: NewRepository(conn, func(row Row) ([]byte, error) {
		return row.Bytes("value")
	})}
}

// GetValue decodes the value stored under key. It returns nil, nil when the
// key is absent.
func GetValue[T any](r *SettingsRepository, key string) (*T, error) {
	values, err := r.repo.QueryAll(`SELECT value FROM settings WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(values[0], &v); err != nil {
		return nil, InvalidData("value", fmt.Sprintf("setting %q: %v", key, err))
	}
	return &v, nil
}

// SetValue stores value under key, replacing any previous value.
func SetValue[T any](r *SettingsRepository, value T, key string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	_, err = r.repo.ExecuteUpdate(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, data)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) Delete(key string) error {
	if _, err := r.repo.ExecuteUpdate(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

// Keys lists the stored setting keys in order.
func (r *SettingsRepository) Keys() ([]string, error) {
	rows, err := r.repo.ExecuteQuery(`SELECT key FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		k, err := row.Text("key")
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func DefaultAppSettings() AppSettings {
	return AppSettings{
		FocusMinutes:      25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		CycleLength:       4,
		Volume:            0.7,
		SoundCategories:   []string{"bell"},
		Notifications:     true,
		DailyGoal:         8,
	}
}

// LoadAppSettings returns the stored aggregate, or the defaults when none
// has been saved yet.
func (r *SettingsRepository) LoadAppSettings() (AppSettings, error) {
	s, err := GetValue[AppSettings](r, AppSettingsKey)
	if err != nil {
		return DefaultAppSettings(), err
	}
	if s == nil {
		return DefaultAppSettings(), nil
	}
	return *s, nil
}

func (r *SettingsRepository) SaveAppSettings(s AppSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return SetValue(r, s, AppSettingsKey)
}
