// Package dirsync mirrors a fixed set of subdirectories from a canonical source
// root into differently named subdirectories under a destination root. Each
// mapped destination is deleted and recreated from its source so stale files
// never survive a run. A run is not atomic: a failed copy leaves whatever was
// already removed or copied in place.
package dirsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/jingkaihe/pluginkit/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultSourceRoot is the canonical source of truth for plugin content
	DefaultSourceRoot = ".claude"
	// DefaultDestRoot receives the mirrored content
	DefaultDestRoot = ".opencode"

	lockFileName = ".pluginkit.lock"
)

// ErrSourceRootMissing is returned when the source root does not exist or is
// not a directory.
var ErrSourceRootMissing = errors.New("source root does not exist")

// Mapping pairs a source subdirectory name with its destination name.
type Mapping struct {
	Source      string `mapstructure:"source" yaml:"source" json:"source"`
	Destination string `mapstructure:"destination" yaml:"destination" json:"destination"`
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s → %s", m.Source, m.Destination)
}

// DefaultMappings is the static mapping table used when none is configured.
var DefaultMappings = []Mapping{
	{Source: "commands", Destination: "command"},
	{Source: "agents", Destination: "agent"},
	{Source: "skills", Destination: "skill"},
}

// ValidateMappings rejects empty names, names that escape their root, and
// duplicate destinations.
func ValidateMappings(mappings []Mapping) error {
	if len(mappings) == 0 {
		return errors.New("at least one mapping is required")
	}

	seen := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		if m.Source == "" || m.Destination == "" {
			return errors.Errorf("invalid mapping %q: source and destination are required", m.String())
		}
		if !filepath.IsLocal(m.Source) {
			return errors.Errorf("invalid mapping %q: source must stay inside the source root", m.String())
		}
		if !filepath.IsLocal(m.Destination) {
			return errors.Errorf("invalid mapping %q: destination must stay inside the destination root", m.String())
		}
		dest := filepath.Clean(m.Destination)
		if _, dup := seen[dest]; dup {
			return errors.Errorf("duplicate destination %q", m.Destination)
		}
		seen[dest] = struct{}{}
	}
	return nil
}

// Status describes what happened to a single mapping
type Status string

// Mapping statuses
const (
	StatusSynced  Status = "synced"
	StatusSkipped Status = "skipped"
)

// MappingResult records the outcome of one mapping
type MappingResult struct {
	Mapping
	Status Status
	Files  int
	Reason string
}

// Result is the outcome of a full synchronizer run
type Result struct {
	Mappings []MappingResult
	Listing  []Entry
}

// Synced returns the number of mappings that were copied
func (r *Result) Synced() int {
	n := 0
	for _, m := range r.Mappings {
		if m.Status == StatusSynced {
			n++
		}
	}
	return n
}

// Reporter receives human-readable status lines while a run progresses.
// *presenter.TerminalPresenter satisfies it.
type Reporter interface {
	Success(message string)
	Warning(message string)
	Info(message string)
}

type nopReporter struct{}

func (nopReporter) Success(string) {}
func (nopReporter) Warning(string) {}
func (nopReporter) Info(string)    {}

// Syncer performs synchronizer runs
type Syncer struct {
	sourceRoot string
	destRoot   string
	mappings   []Mapping
	lock       bool
	reporter   Reporter
}

// Option configures a Syncer
type Option func(*Syncer) error

// WithSourceRoot sets the source root directory
func WithSourceRoot(dir string) Option {
	return func(s *Syncer) error {
		if dir == "" {
			return errors.New("source root cannot be empty")
		}
		s.sourceRoot = dir
		return nil
	}
}

// WithDestRoot sets the destination root directory
func WithDestRoot(dir string) Option {
	return func(s *Syncer) error {
		if dir == "" {
			return errors.New("destination root cannot be empty")
		}
		s.destRoot = dir
		return nil
	}
}

// WithMappings replaces the default mapping table
func WithMappings(mappings ...Mapping) Option {
	return func(s *Syncer) error {
		if err := ValidateMappings(mappings); err != nil {
			return err
		}
		s.mappings = mappings
		return nil
	}
}

// WithLock toggles the exclusive run lock in the destination root
func WithLock(enabled bool) Option {
	return func(s *Syncer) error {
		s.lock = enabled
		return nil
	}
}

// WithReporter sets where status lines are sent
func WithReporter(r Reporter) Option {
	return func(s *Syncer) error {
		if r == nil {
			r = nopReporter{}
		}
		s.reporter = r
		return nil
	}
}

// New creates a Syncer with the default roots and mapping table
func New(opts ...Option) (*Syncer, error) {
	s := &Syncer{
		sourceRoot: DefaultSourceRoot,
		destRoot:   DefaultDestRoot,
		mappings:   DefaultMappings,
		lock:       true,
		reporter:   nopReporter{},
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if filepath.Clean(s.sourceRoot) == filepath.Clean(s.destRoot) {
		return nil, errors.Errorf("source and destination roots must differ (both %q)", s.sourceRoot)
	}

	return s, nil
}

// SourceRoot returns the configured source root
func (s *Syncer) SourceRoot() string { return s.sourceRoot }

// DestRoot returns the configured destination root
func (s *Syncer) DestRoot() string { return s.destRoot }

// Mappings returns the mapping table in run order
func (s *Syncer) Mappings() []Mapping { return s.mappings }

// Sync mirrors every mapping in table order and lists the destination root.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	var result *Result
	err := telemetry.WithSpan(ctx, "dirsync.sync", func(ctx context.Context) error {
		var err error
		result, err = s.sync(ctx)
		return err
	},
		attribute.String("dirsync.source_root", s.sourceRoot),
		attribute.String("dirsync.dest_root", s.destRoot),
	)
	return result, err
}

func (s *Syncer) sync(ctx context.Context) (*Result, error) {
	log := logger.G(ctx).WithFields(logrus.Fields{
		"source_root": s.sourceRoot,
		"dest_root":   s.destRoot,
	})

	info, err := os.Stat(s.sourceRoot)
	switch {
	case os.IsNotExist(err):
		return nil, errors.Wrapf(ErrSourceRootMissing, "%s", s.sourceRoot)
	case err != nil:
		return nil, errors.Wrapf(err, "failed to stat source root %s", s.sourceRoot)
	case !info.IsDir():
		return nil, errors.Wrapf(ErrSourceRootMissing, "%s is not a directory", s.sourceRoot)
	}

	if err := os.MkdirAll(s.destRoot, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create destination root")
	}

	if s.lock {
		unlock, err := lockedfile.MutexAt(filepath.Join(s.destRoot, lockFileName)).Lock()
		if err != nil {
			return nil, errors.Wrap(err, "failed to acquire sync lock")
		}
		defer unlock()
	}

	result := &Result{}
	for _, m := range s.mappings {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "sync interrupted")
		}

		var mr MappingResult
		err := telemetry.WithSpan(ctx, "dirsync.mapping", func(ctx context.Context) error {
			var err error
			mr, err = s.syncMapping(ctx, m)
			telemetry.SetAttributes(ctx,
				attribute.String("dirsync.status", string(mr.Status)),
				attribute.Int("dirsync.files", mr.Files),
			)
			return err
		},
			attribute.String("mapping.source", m.Source),
			attribute.String("mapping.destination", m.Destination),
		)
		if err != nil {
			return result, errors.Wrapf(err, "failed to sync %s", m.String())
		}
		result.Mappings = append(result.Mappings, mr)

		switch mr.Status {
		case StatusSkipped:
			log.WithField("mapping", m.String()).Warn(mr.Reason)
			telemetry.AddEvent(ctx, "dirsync.mapping_skipped",
				attribute.String("mapping.source", m.Source),
				attribute.String("dirsync.reason", mr.Reason),
			)
			s.reporter.Warning(fmt.Sprintf("%s, skipping %s", mr.Reason, m.String()))
		case StatusSynced:
			log.WithFields(logrus.Fields{"mapping": m.String(), "files": mr.Files}).Debug("mapping synced")
			s.reporter.Success(fmt.Sprintf("Synced %s (%d files)", m.String(), mr.Files))
		}
	}

	listing, err := List(s.destRoot)
	if err != nil {
		return result, errors.Wrap(err, "failed to list destination root")
	}
	result.Listing = listing

	log.WithField("synced", result.Synced()).Info("sync complete")
	return result, nil
}

func (s *Syncer) syncMapping(ctx context.Context, m Mapping) (MappingResult, error) {
	mr := MappingResult{Mapping: m}

	src, err := resolveLeaf(s.sourceRoot, m.Source)
	if err != nil {
		return mr, errors.Wrap(err, "failed to resolve source directory")
	}
	dst, err := resolveLeaf(s.destRoot, m.Destination)
	if err != nil {
		return mr, errors.Wrap(err, "failed to resolve destination directory")
	}

	// a symlinked source is followed, wherever it points
	info, err := os.Stat(src)
	switch {
	case os.IsNotExist(err):
		mr.Status = StatusSkipped
		if _, lerr := os.Lstat(src); lerr == nil {
			mr.Reason = fmt.Sprintf("source directory %s is a dangling symlink", src)
		} else {
			mr.Reason = fmt.Sprintf("source directory %s not found", src)
		}
		return mr, nil
	case err != nil:
		return mr, errors.Wrap(err, "failed to stat source directory")
	case !info.IsDir():
		mr.Status = StatusSkipped
		mr.Reason = fmt.Sprintf("source %s is not a directory", src)
		return mr, nil
	}

	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return mr, errors.Wrap(err, "failed to resolve source directory")
	}

	// dst is never followed: a symlinked destination is replaced, not its target
	if _, err := os.Lstat(dst); err == nil {
		logger.G(ctx).WithField("path", dst).Debug("removing existing destination")
		if err := os.RemoveAll(dst); err != nil {
			return mr, errors.Wrap(err, "failed to remove existing destination")
		}
	}

	files, err := copyTree(ctx, resolved, dst)
	if err != nil {
		return mr, err
	}

	mr.Status = StatusSynced
	mr.Files = files
	return mr, nil
}

// resolveLeaf joins name onto root, resolving symlinks in the parent
// components within root but leaving the final component untouched.
func resolveLeaf(root, name string) (string, error) {
	name = filepath.Clean(name)
	parent := root
	if dir := filepath.Dir(name); dir != "." {
		var err error
		parent, err = securejoin.SecureJoin(root, dir)
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(parent, filepath.Base(name)), nil
}
