package validator

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Kind names the type of a validated plugin file
type Kind string

// Component kinds
const (
	KindSkill    Kind = "skill"
	KindAgent    Kind = "agent"
	KindCommand  Kind = "command"
	KindHooks    Kind = "hooks"
	KindManifest Kind = "manifest"
)

// Component is a single plugin file to validate
type Component struct {
	Kind Kind
	Path string
}

// componentPatterns map slash separated paths relative to the root onto a
// component kind. The first match wins.
var componentPatterns = []struct {
	pattern string
	kind    Kind
}{
	{"**/.claude-plugin/plugin.json", KindManifest},
	{"**/agents/*.md", KindAgent},
	{"**/commands/*.md", KindCommand},
	{"**/hooks/*.json", KindHooks},
}

// FindComponents walks root and returns every agent, command, hooks file and
// plugin manifest, ordered by path. Directories matching an exclude pattern
// are skipped.
func FindComponents(root string, excludes []string) ([]Component, error) {
	var found []Component

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && matchAny(excludes, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		for _, p := range componentPatterns {
			if ok, _ := doublestar.Match(p.pattern, rel); ok {
				found = append(found, Component{Kind: p.kind, Path: path})
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search %s", root)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// CheckComponent validates one component file and returns its warnings
func CheckComponent(c Component) ([]string, error) {
	content, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filepath.Base(c.Path))
	}

	switch c.Kind {
	case KindAgent:
		return checkAgent(content)
	case KindCommand:
		return checkCommand(content)
	case KindHooks:
		return checkHooks(content)
	case KindManifest:
		return checkManifest(content)
	default:
		return nil, errors.Errorf("unsupported component kind %q", c.Kind)
	}
}
