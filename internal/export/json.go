package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// document is the envelope shared by the JSON and YAML exports.
type document struct {
	ExportedAt string   `json:"exported_at" yaml:"exported_at"`
	Count      int      `json:"count" yaml:"count"`
	Sessions   []record `json:"sessions" yaml:"sessions"`
}

func newDocument(sessions []store.Session) document {
	doc := document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}
	for _, s := range sessions {
		doc.Sessions = append(doc.Sessions, newRecord(s))
	}
	return doc
}

func ToJSON(sessions []store.Session, path string) error {
	data, err := json.MarshalIndent(newDocument(sessions), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
