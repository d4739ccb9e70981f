package validator

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/jingkaihe/pluginkit/pkg/skills"
	"github.com/pkg/errors"
)

const (
	maxNameLength        = 64
	maxDescriptionLength = 1024
	minDescriptionLength = 10
)

var (
	skillNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	knownFields = map[string]bool{
		"name":          true,
		"description":   true,
		"allowed-tools": true,
		"model":         true,
		"license":       true,
		"metadata":      true,
	}
)

// BuiltinValidator checks SKILL.md in-process without an external tool.
// Every problem found is reported, not just the first. Style issues such as
// unknown fields or a vague description are warnings.
type BuiltinValidator struct {
	sentinel string
}

// NewBuiltinValidator creates a validator reading the given sentinel file name
func NewBuiltinValidator(sentinel string) *BuiltinValidator {
	if sentinel == "" {
		sentinel = skills.DefaultSentinel
	}
	return &BuiltinValidator{sentinel: sentinel}
}

// Validate checks the sentinel in dir
func (b *BuiltinValidator) Validate(ctx context.Context, dir string) error {
	_, err := b.Check(ctx, dir)
	return err
}

// Check validates the sentinel in dir and returns its warnings
func (b *BuiltinValidator) Check(ctx context.Context, dir string) ([]string, error) {
	content, err := os.ReadFile(filepath.Join(dir, b.sentinel))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", b.sentinel)
	}

	skill, err := skills.Parse(content)
	if err != nil {
		if errors.Is(err, skills.ErrNoFrontmatter) {
			return nil, errors.Errorf("%s must start with YAML frontmatter (---)", b.sentinel)
		}
		return nil, err
	}

	var f findings

	switch name, ok := skill.Metadata["name"]; {
	case !ok:
		f.errorf("missing required frontmatter field: name")
	case skill.Name == "":
		f.errorf("frontmatter field 'name' must be a non-empty string, got %v", name)
	default:
		if len(skill.Name) > maxNameLength {
			f.errorf("name %q exceeds %d characters", skill.Name, maxNameLength)
		}
		if !skillNamePattern.MatchString(skill.Name) {
			f.errorf("name %q must use lowercase letters, digits and hyphens", skill.Name)
		}
		if base := filepath.Base(dir); skill.Name != base {
			f.errorf("name %q does not match directory %q", skill.Name, base)
		}
	}

	switch description, ok := skill.Metadata["description"]; {
	case !ok:
		f.errorf("missing required frontmatter field: description")
	case strings.TrimSpace(skill.Description) == "":
		f.errorf("frontmatter field 'description' must be a non-empty string, got %v", description)
	case len(skill.Description) > maxDescriptionLength:
		f.errorf("description exceeds %d characters", maxDescriptionLength)
	default:
		if len(strings.TrimSpace(skill.Description)) < minDescriptionLength {
			f.warnf("description is very short (%d characters)", len(strings.TrimSpace(skill.Description)))
		}
		if !strings.Contains(strings.ToLower(skill.Description), "use when") {
			f.warnf("description should say when to use the skill (\"Use when ...\")")
		}
	}

	if tools, ok := skill.Metadata["allowed-tools"]; ok {
		f.tools("allowed-tools", tools)
	}

	if strings.TrimSpace(skill.Content) == "" {
		f.errorf("%s has no instructions after the frontmatter", b.sentinel)
	} else if !hasHeading(skill.Content) {
		f.warnf("%s has no top-level heading (# Title)", b.sentinel)
	}

	f.unknownFields(skill.Metadata, knownFields)

	warnings, err := f.result()
	if len(warnings) > 0 {
		logger.G(ctx).WithField("dir", dir).WithField("warnings", len(warnings)).Debug("skill has warnings")
	}
	return warnings, err
}
