package skills

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// DefaultExcludes are directory patterns never descended into
var DefaultExcludes = []string{"**/.git", "**/node_modules"}

// Finder discovers sentinel files below a root directory
type Finder struct {
	sentinel string
	excludes []string
	filter   glob.Glob
}

// Option configures a Finder
type Option func(*Finder) error

// WithSentinel overrides the sentinel file name
func WithSentinel(name string) Option {
	return func(f *Finder) error {
		if name == "" || filepath.Base(name) != name {
			return errors.Errorf("invalid sentinel file name %q", name)
		}
		f.sentinel = name
		return nil
	}
}

// WithExcludes replaces the directory exclude patterns (doublestar syntax,
// matched against slash separated paths relative to the root)
func WithExcludes(patterns ...string) Option {
	return func(f *Finder) error {
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return errors.Errorf("invalid exclude pattern %q", p)
			}
		}
		f.excludes = patterns
		return nil
	}
}

// WithFilter keeps only skills whose directory, relative to the root, matches
// the glob pattern. An empty pattern keeps everything.
func WithFilter(pattern string) Option {
	return func(f *Finder) error {
		if pattern == "" {
			f.filter = nil
			return nil
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return errors.Wrapf(err, "invalid filter pattern %q", pattern)
		}
		f.filter = g
		return nil
	}
}

// NewFinder creates a Finder looking for SKILL.md outside .git and node_modules
func NewFinder(opts ...Option) (*Finder, error) {
	f := &Finder{
		sentinel: DefaultSentinel,
		excludes: DefaultExcludes,
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Sentinel returns the file name the finder looks for
func (f *Finder) Sentinel() string { return f.sentinel }

// Excludes returns the directory patterns the finder skips
func (f *Finder) Excludes() []string { return f.excludes }

// Find walks root and returns the path of every regular file named exactly
// like the sentinel, in lexicographic order.
func (f *Finder) Find(root string) ([]string, error) {
	var found []string

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
			if rel != "." && f.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() != f.sentinel || !d.Type().IsRegular() {
			return nil
		}

		if f.filter != nil && !f.filter.Match(filepath.ToSlash(filepath.Dir(rel))) {
			return nil
		}

		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search %s", root)
	}

	sort.Strings(found)
	return found, nil
}

func (f *Finder) excluded(rel string) bool {
	for _, pattern := range f.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// FindSentinels is a shorthand for NewFinder(opts...).Find(root)
func FindSentinels(root string, opts ...Option) ([]string, error) {
	f, err := NewFinder(opts...)
	if err != nil {
		return nil, err
	}
	return f.Find(root)
}
