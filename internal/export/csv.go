package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

func ToCSV(sessions []store.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Mode", "Start", "End", "Duration (s)", "Duration", "Completed", "Notes"}); err != nil {
		return err
	}

	for _, s := range sessions {
		r := newRecord(s)
		row := []string{
			r.ID,
			r.Mode,
			r.StartedAt,
			r.EndedAt,
			strconv.FormatInt(r.DurationSec, 10),
			r.Duration,
			strconv.FormatBool(r.Completed),
			r.Notes,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// record is the flat, format-neutral shape of one exported session.
type record struct {
	ID          string `json:"id" yaml:"id"`
	Mode        string `json:"mode" yaml:"mode"`
	StartedAt   string `json:"started_at" yaml:"started_at"`
	EndedAt     string `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
	DurationSec int64  `json:"duration_seconds" yaml:"duration_seconds"`
	Duration    string `json:"duration" yaml:"duration"`
	Completed   bool   `json:"completed" yaml:"completed"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

func newRecord(s store.Session) record {
	r := record{
		ID:          s.ID,
		Mode:        string(s.Mode),
		StartedAt:   s.StartedAt.Local().Format(time.RFC3339),
		DurationSec: s.DurationSeconds,
		Duration:    formatDuration(s.DurationSeconds),
		Completed:   s.Completed,
	}
	if s.EndedAt != nil {
		r.EndedAt = s.EndedAt.Local().Format(time.RFC3339)
	}
	if s.Notes != nil {
		r.Notes = *s.Notes
	}
	return r
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
