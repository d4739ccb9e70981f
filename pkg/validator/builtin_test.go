package validator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinValidator(t *testing.T) {
	tests := []struct {
		name     string
		dirName  string
		content  string
		wantErrs []string
	}{
		{
			name:    "valid skill",
			dirName: "go-koanf",
			content: "---\nname: go-koanf\ndescription: Layered configuration with koanf. Use when loading config.\nallowed-tools: Read\n---\n\n# Koanf\n\nInstructions.\n",
		},
		{
			name:     "no frontmatter",
			dirName:  "plain",
			content:  "# Plain\n",
			wantErrs: []string{"must start with YAML frontmatter"},
		},
		{
			name:     "missing name and description",
			dirName:  "empty-meta",
			content:  "---\nmodel: sonnet\n---\n\nBody\n",
			wantErrs: []string{"missing required frontmatter field: name", "missing required frontmatter field: description"},
		},
		{
			name:     "bad name",
			dirName:  "beets",
			content:  "---\nname: Beets_Manager\ndescription: Manage music.\n---\n\nBody\n",
			wantErrs: []string{"lowercase letters", `does not match directory "beets"`},
		},
		{
			name:     "non string description",
			dirName:  "tool",
			content:  "---\nname: tool\ndescription: 42\n---\n\nBody\n",
			wantErrs: []string{"'description' must be a non-empty string"},
		},
		{
			name:     "empty body",
			dirName:  "hollow",
			content:  "---\nname: hollow\ndescription: Nothing inside.\n---\n",
			wantErrs: []string{"no instructions after the frontmatter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := writeSkill(t, root, tt.dirName, tt.content)

			err := NewBuiltinValidator("").Validate(context.Background(), dir)
			if len(tt.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErrs {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestBuiltinValidatorAggregatesAllProblems(t *testing.T) {
	dir := writeSkill(t, t.TempDir(), "x", "---\nmodel: opus\n---\n")

	err := NewBuiltinValidator("").Validate(context.Background(), dir)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
}

func TestBuiltinValidatorMissingSentinel(t *testing.T) {
	err := NewBuiltinValidator("").Validate(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read SKILL.md")
}
