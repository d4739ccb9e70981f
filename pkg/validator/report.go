package validator

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Report formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat reports whether format is a supported report format
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// WriteSummary renders the summary in the requested format
func WriteSummary(w io.Writer, s *Summary, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(s), "failed to encode summary")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return errors.Wrap(err, "failed to encode summary")
		}
		return enc.Close()
	case FormatText, "":
		if _, err := fmt.Fprintf(w, "  Total:  %d\n  Passed: %d\n  Failed: %d\n", s.Total, s.Passed, s.Failed); err != nil {
			return err
		}
		if s.Warnings > 0 {
			_, err := fmt.Fprintf(w, "  Warnings: %d\n", s.Warnings)
			return err
		}
		return nil
	default:
		return errors.Errorf("unknown report format %q", format)
	}
}
