package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("---\nname: x\n---\n"), 0o644))
	}
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestNewFinder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f, err := NewFinder()
		require.NoError(t, err)
		assert.Equal(t, DefaultSentinel, f.Sentinel())
		assert.Equal(t, DefaultExcludes, f.Excludes())
		assert.Nil(t, f.filter)
	})

	t.Run("invalid sentinel", func(t *testing.T) {
		_, err := NewFinder(WithSentinel("nested/SKILL.md"))
		assert.Error(t, err)
	})

	t.Run("invalid exclude", func(t *testing.T) {
		_, err := NewFinder(WithExcludes("[unclosed"))
		assert.Error(t, err)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := NewFinder(WithFilter("[unclosed"))
		assert.Error(t, err)
	})
}

func TestFindAtArbitraryDepths(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"SKILL.md",
		"plugins/go-development/skills/go-koanf/SKILL.md",
		"plugins/music/skills/beets/SKILL.md",
		".claude/skills/bash-scripting/SKILL.md",
		"a/b/c/d/e/SKILL.md",
	)
	touch(t, root, "plugins/music/skills/beets/README.md", "skill.md", "notes/SKILL.md.bak")

	found, err := FindSentinels(root)
	require.NoError(t, err)
	assert.Len(t, found, 5)
}

func TestFindLexicographicOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a/b/SKILL.md", "a-b/SKILL.md", "B/SKILL.md", "a/SKILL.md")

	found, err := FindSentinels(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"B/SKILL.md", "a-b/SKILL.md", "a/SKILL.md", "a/b/SKILL.md"}, rels(t, root, found))
}

func TestFindExcludes(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"skills/one/SKILL.md",
		".git/skills/hidden/SKILL.md",
		"web/node_modules/pkg/SKILL.md",
		"build/out/SKILL.md",
	)

	found, err := FindSentinels(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"build/out/SKILL.md", "skills/one/SKILL.md"}, rels(t, root, found))

	found, err = FindSentinels(root, WithExcludes("build"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		".git/skills/hidden/SKILL.md",
		"skills/one/SKILL.md",
		"web/node_modules/pkg/SKILL.md",
	}, rels(t, root, found))
}

func TestFindFilter(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"plugins/go-development/skills/go-koanf/SKILL.md",
		"plugins/go-development/skills/gopsutil/SKILL.md",
		"plugins/music/skills/beets/SKILL.md",
	)

	found, err := FindSentinels(root, WithFilter("plugins/go-*/skills/*"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"plugins/go-development/skills/go-koanf/SKILL.md",
		"plugins/go-development/skills/gopsutil/SKILL.md",
	}, rels(t, root, found))

	found, err = FindSentinels(root, WithFilter("**/beets"))
	require.NoError(t, err)
	assert.Equal(t, []string{"plugins/music/skills/beets/SKILL.md"}, rels(t, root, found))
}

func TestFindIgnoresNonRegularSentinels(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "real/SKILL.md")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir", "SKILL.md"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "link"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "real", "SKILL.md"), filepath.Join(root, "link", "SKILL.md")))

	found, err := FindSentinels(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"real/SKILL.md"}, rels(t, root, found))
}

func TestFindCustomSentinel(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "agents/reviewer/AGENT.md", "skills/x/SKILL.md")

	found, err := FindSentinels(root, WithSentinel("AGENT.md"))
	require.NoError(t, err)
	assert.Equal(t, []string{"agents/reviewer/AGENT.md"}, rels(t, root, found))
}

func TestFindEmptyAndMissingRoot(t *testing.T) {
	found, err := FindSentinels(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = FindSentinels(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
