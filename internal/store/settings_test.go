package store

import (
	"strings"
	"testing"
)

func newTestSettings(t *testing.T) *SettingsRepository {
	t.Helper()
	return NewSettingsRepository(newTestConn(t))
}

func TestGetValueAbsent(t *testing.T) {
	r := newTestSettings(t)
	v, err := GetValue[AppSettings](r, "nothing")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("expected nil for absent key, got %+v", v)
	}
}

func TestSetValueReplaces(t *testing.T) {
	r := newTestSettings(t)
	if err := SetValue(r, map[string]int{"a": 1, "b": 2}, "counts"); err != nil {
		t.Fatal(err)
	}
	if err := SetValue(r, map[string]int{"c": 3}, "counts"); err != nil {
		t.Fatal(err)
	}
	got, err := GetValue[map[string]int](r, "counts")
	if err != nil {
		t.Fatal(err)
	}
	if len(*got) != 1 || (*got)["c"] != 3 {
		t.Fatalf("expected whole-value replace, got %v", *got)
	}

	keys, err := r.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "counts" {
		t.Fatalf("expected one row per key, got %v", keys)
	}
}

func TestGetValueUndecodable(t *testing.T) {
	r := newTestSettings(t)
	SetValue(r, "just a string", "volume")
	if _, err := GetValue[float64](r, "volume"); !IsInvalidData(err) {
		t.Fatalf("expected invalid data, got %v", err)
	}
}

func TestDeleteSetting(t *testing.T) {
	r := newTestSettings(t)
	SetValue(r, 1, "x")
	if err := r.Delete("x"); err != nil {
		t.Fatal(err)
	}
	if v, _ := GetValue[int](r, "x"); v != nil {
		t.Fatalf("expected deleted key to be absent, got %v", *v)
	}
	// Deleting a missing key is not an error.
	if err := r.Delete("x"); err != nil {
		t.Fatal(err)
	}
}

func TestAppSettingsDefaults(t *testing.T) {
	r := newTestSettings(t)
	s, err := r.LoadAppSettings()
	if err != nil {
		t.Fatal(err)
	}
	d := DefaultAppSettings()
	if s.FocusMinutes != d.FocusMinutes || s.CycleLength != d.CycleLength {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestAppSettingsRoundTrip(t *testing.T) {
	r := newTestSettings(t)
	s := DefaultAppSettings()
	s.FocusMinutes = 50
	s.AutoStartBreaks = true
	s.SoundCategories = []string{"rain", "cafe"}
	if err := r.SaveAppSettings(s); err != nil {
		t.Fatal(err)
	}
	got, err := r.LoadAppSettings()
	if err != nil {
		t.Fatal(err)
	}
	if got.FocusMinutes != 50 || !got.AutoStartBreaks || len(got.SoundCategories) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSaveAppSettingsValidates(t *testing.T) {
	r := newTestSettings(t)
	s := DefaultAppSettings()
	s.FocusMinutes = 0
	s.Volume = 3
	err := r.SaveAppSettings(s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"focus_minutes", "volume"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s: %v", want, err)
		}
	}
	if v, _ := GetValue[AppSettings](r, AppSettingsKey); v != nil {
		t.Fatal("invalid settings were stored")
	}
}
