package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/pluginkit/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func componentTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	plugin := filepath.Join(root, "plugins", "go")
	writeFile(t, filepath.Join(plugin, ".claude-plugin", "plugin.json"),
		`{"name": "go", "version": "0.1", "description": "Go helpers", "license": "MIT", "author": {"name": "me"}}`)
	writeFile(t, filepath.Join(plugin, "agents", "reviewer.md"),
		"---\nname: reviewer\ndescription: Reviews Go changes.\n---\n\n# Reviewer\n\nReview.\n")
	writeFile(t, filepath.Join(plugin, "commands", "broken.md"), "---\ndescription: Nothing\n---\n")
	writeFile(t, filepath.Join(plugin, "hooks", "hooks.json"), `{"hooks": {}}`)
	return root
}

func TestRunValidateComponents(t *testing.T) {
	c := testConfig(t)
	c.Validate.Root = componentTree(t)
	p, out, _ := testPresenter()

	code := runValidateComponents(context.Background(), c, p, &bytes.Buffer{})
	assert.Equal(t, 1, code)

	output := out.String()
	assert.Contains(t, output, "✓ PASSED plugins/go/agents/reviewer.md")
	assert.Contains(t, output, "✓ PASSED plugins/go/hooks/hooks.json")
	assert.Contains(t, output, `⚠ WARNING plugins/go/.claude-plugin/plugin.json: version "0.1" does not follow semantic versioning`)
	assert.Contains(t, output, "✓ PASSED plugins/go/.claude-plugin/plugin.json")
	assert.Contains(t, output, "✗ FAILED plugins/go/commands/broken.md")
	assert.Contains(t, output, "  Total:  4\n  Passed: 3\n  Failed: 1\n  Warnings: 1\n")
	assert.Contains(t, output, "1 of 4 components failed validation")
	assert.Contains(t, output, "  - "+filepath.Join(c.Validate.Root, "plugins", "go", "commands", "broken.md"))
}

func TestRunValidateComponentsJSON(t *testing.T) {
	c := testConfig(t)
	c.Validate.Root = componentTree(t)
	c.Validate.Format = validator.FormatJSON
	p, out, _ := testPresenter()

	var stdout bytes.Buffer
	code := runValidateComponents(context.Background(), c, p, &stdout)
	assert.Equal(t, 1, code)
	assert.Empty(t, out.String())

	var summary validator.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Warnings)
	assert.Equal(t, validator.KindCommand, summary.FailedResults()[0].Kind)
}

func TestRunValidateComponentsEmpty(t *testing.T) {
	c := testConfig(t)
	c.Validate.Root = t.TempDir()
	p, out, _ := testPresenter()

	code := runValidateComponents(context.Background(), c, p, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "⚠ No plugin components found under "+c.Validate.Root)
}

func TestRunValidateBuiltinWarnings(t *testing.T) {
	c := testConfig(t)
	c.Validate.Root = t.TempDir()
	c.Validate.Builtin = true
	writeFile(t, filepath.Join(c.Validate.Root, "skills", "koanf", "SKILL.md"),
		"---\nname: koanf\ndescription: Layered configuration. Use when loading config.\nversion: 2\n---\n\n# Koanf\n")
	p, out, _ := testPresenter()

	code := runValidate(context.Background(), c, p, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "⚠ WARNING skills/koanf: unknown frontmatter field 'version'")
	assert.Contains(t, out.String(), "✓ PASSED skills/koanf")
	assert.Contains(t, out.String(), "  Warnings: 1\n")
}
