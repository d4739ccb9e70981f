package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Checker is a Validator that also reports non-fatal warnings. Warnings never
// fail a skill.
type Checker interface {
	Validator
	Check(ctx context.Context, dir string) (warnings []string, err error)
}

// knownTools are the tool names accepted in allowed-tools and tools fields
var knownTools = map[string]bool{
	"Read":         true,
	"Write":        true,
	"Edit":         true,
	"MultiEdit":    true,
	"Bash":         true,
	"LS":           true,
	"Glob":         true,
	"Grep":         true,
	"WebSearch":    true,
	"WebFetch":     true,
	"Task":         true,
	"SlashCommand": true,
}

// findings collects every problem in a file: errors fail it, warnings don't.
type findings struct {
	errs     *multierror.Error
	warnings []string
}

func (f *findings) errorf(format string, args ...any) {
	f.errs = multierror.Append(f.errs, errors.Errorf(format, args...))
}

func (f *findings) warnf(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

func (f *findings) result() ([]string, error) {
	return f.warnings, f.errs.ErrorOrNil()
}

// unknownFields warns about frontmatter keys outside known, in sorted order.
func (f *findings) unknownFields(metadata map[string]any, known map[string]bool) {
	var unknown []string
	for field := range metadata {
		if !known[field] {
			unknown = append(unknown, field)
		}
	}
	sort.Strings(unknown)
	for _, field := range unknown {
		f.warnf("unknown frontmatter field '%s'", field)
	}
}

// tools checks a tool list given either as a comma separated string or a
// YAML list. Scoped entries like Bash(git add:*) are checked by base name.
func (f *findings) tools(field string, value any) {
	var names []string
	switch v := value.(type) {
	case string:
		names = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				f.errorf("'%s' entries must be strings, got %v", field, item)
				return
			}
			names = append(names, s)
		}
	default:
		f.errorf("'%s' must be a string or a list, got %T", field, value)
		return
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		base, _, _ := strings.Cut(name, "(")
		if !knownTools[base] {
			f.warnf("unknown tool '%s' in '%s'", base, field)
		}
	}
}

// hasHeading reports whether a markdown body has a top-level heading
func hasHeading(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "# ") {
			return true
		}
	}
	return false
}
