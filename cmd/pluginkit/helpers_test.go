package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/pluginkit/pkg/config"
	"github.com/jingkaihe/pluginkit/pkg/presenter"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	c, err := config.Load(v)
	require.NoError(t, err)
	return c
}

func testPresenter() (*presenter.TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return presenter.NewWithOptions(&out, &errOut, presenter.ColorNever), &out, &errOut
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func skillContent(name, description string) string {
	return "---\nname: " + name + "\ndescription: " + description + "\n---\n\n# " + name + "\n\nInstructions.\n"
}
