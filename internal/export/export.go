// Package export writes session history to CSV, JSON or YAML files.
package export

import (
	"fmt"
	"strings"

	"github.com/sadopc/tempo/internal/store"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name case-insensitively; "yml" means YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or yaml)", s)
}

// Write exports sessions to path in format f.
func Write(f Format, sessions []store.Session, path string) error {
	switch f {
	case FormatCSV:
		return ToCSV(sessions, path)
	case FormatJSON:
		return ToJSON(sessions, path)
	case FormatYAML:
		return ToYAML(sessions, path)
	}
	return fmt.Errorf("unknown export format %q", f)
}
