// Package validator runs a validation over every skill directory discovered in
// a plugin tree and aggregates the outcome. Per-skill failures never stop a
// run; the aggregate exit code reflects any failure. The same runner checks
// agents, commands, hooks and plugin manifests in-process.
package validator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/jingkaihe/pluginkit/pkg/skills"
	"github.com/jingkaihe/pluginkit/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Validator checks a single skill directory. A nil error means it passed.
type Validator interface {
	Validate(ctx context.Context, dir string) error
}

// Func adapts a function to the Validator interface
type Func func(ctx context.Context, dir string) error

// Validate calls f(ctx, dir)
func (f Func) Validate(ctx context.Context, dir string) error {
	return f(ctx, dir)
}

// Reporter receives per-skill progress lines.
// *presenter.TerminalPresenter satisfies it.
type Reporter interface {
	Info(message string)
	Success(message string)
	Failure(message string)
	Warning(message string)
}

type nopReporter struct{}

func (nopReporter) Info(string)    {}
func (nopReporter) Success(string) {}
func (nopReporter) Failure(string) {}
func (nopReporter) Warning(string) {}

// Result is the outcome for one skill or component
type Result struct {
	Kind     Kind          `json:"kind" yaml:"kind"`
	Path     string        `json:"path" yaml:"path"`
	Dir      string        `json:"dir" yaml:"dir"`
	Passed   bool          `json:"passed" yaml:"passed"`
	Message  string        `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration time.Duration `json:"durationNs" yaml:"duration"`
	Err      error         `json:"-" yaml:"-"`
}

// Summary aggregates every result of a run
type Summary struct {
	Root     string   `json:"root" yaml:"root"`
	Total    int      `json:"total" yaml:"total"`
	Passed   int      `json:"passed" yaml:"passed"`
	Failed   int      `json:"failed" yaml:"failed"`
	Warnings int      `json:"warnings" yaml:"warnings"`
	Results  []Result `json:"results" yaml:"results"`
}

// ExitCode is 0 when nothing failed and 1 otherwise
func (s *Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// FailedResults returns only the failing results
func (s *Summary) FailedResults() []Result {
	var failed []Result
	for _, r := range s.Results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Runner discovers skills, or plugin components, and validates each one in
// order
type Runner struct {
	finder     *skills.Finder
	validator  Validator
	reporter   Reporter
	components bool
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithFinder replaces the default SKILL.md finder
func WithFinder(f *skills.Finder) RunnerOption {
	return func(r *Runner) {
		r.finder = f
	}
}

// WithReporter sets where progress lines go
func WithReporter(rep Reporter) RunnerOption {
	return func(r *Runner) {
		if rep == nil {
			rep = nopReporter{}
		}
		r.reporter = rep
	}
}

// NewRunner creates a Runner using v for every discovered skill
func NewRunner(v Validator, opts ...RunnerOption) (*Runner, error) {
	if v == nil {
		return nil, errors.New("validator is required")
	}
	return newRunner(v, false, opts...)
}

// NewComponentRunner creates a Runner that checks every agent, command, hooks
// file and plugin manifest in-process. The finder only contributes excludes.
func NewComponentRunner(opts ...RunnerOption) (*Runner, error) {
	return newRunner(nil, true, opts...)
}

func newRunner(v Validator, components bool, opts ...RunnerOption) (*Runner, error) {
	finder, err := skills.NewFinder()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		finder:     finder,
		validator:  v,
		reporter:   nopReporter{},
		components: components,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run validates every skill below root. Only a discovery failure or
// cancellation returns an error; validation failures are counted.
func (r *Runner) Run(ctx context.Context, root string) (*Summary, error) {
	var summary *Summary
	err := telemetry.WithSpan(ctx, "validator.run", func(ctx context.Context) error {
		var err error
		summary, err = r.run(ctx, root)
		if summary != nil {
			telemetry.SetAttributes(ctx,
				attribute.Int("validator.total", summary.Total),
				attribute.Int("validator.failed", summary.Failed),
			)
		}
		return err
	}, attribute.String("validator.root", root))
	return summary, err
}

func (r *Runner) run(ctx context.Context, root string) (*Summary, error) {
	log := logger.G(ctx).WithField("root", root)

	targets, err := r.discover(root)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(targets)).Debug("discovered targets")

	summary := &Summary{Root: root}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return summary, errors.Wrap(err, "validation interrupted")
		}

		result := r.validateOne(ctx, root, target)
		summary.Total++
		if result.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.Warnings += len(result.Warnings)
		summary.Results = append(summary.Results, result)
	}

	log.WithFields(logrus.Fields{
		"total":    summary.Total,
		"passed":   summary.Passed,
		"failed":   summary.Failed,
		"warnings": summary.Warnings,
	}).Info("validation complete")
	return summary, nil
}

func (r *Runner) discover(root string) ([]Component, error) {
	if r.components {
		components, err := FindComponents(root, r.finder.Excludes())
		if err != nil {
			return nil, errors.Wrap(err, "failed to discover components")
		}
		return components, nil
	}

	sentinels, err := r.finder.Find(root)
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover skills")
	}
	targets := make([]Component, 0, len(sentinels))
	for _, sentinel := range sentinels {
		targets = append(targets, Component{Kind: KindSkill, Path: sentinel})
	}
	return targets, nil
}

func (r *Runner) check(ctx context.Context, target Component) ([]string, error) {
	if target.Kind != KindSkill {
		return CheckComponent(target)
	}
	dir := filepath.Dir(target.Path)
	if c, ok := r.validator.(Checker); ok {
		return c.Check(ctx, dir)
	}
	return nil, r.validator.Validate(ctx, dir)
}

func (r *Runner) validateOne(ctx context.Context, root string, target Component) Result {
	dir := filepath.Dir(target.Path)
	name := displayName(root, dir)
	if target.Kind != KindSkill {
		name = displayName(root, target.Path)
	}
	result := Result{Kind: target.Kind, Path: target.Path, Dir: dir}

	r.reporter.Info(fmt.Sprintf("Validating: %s", name))

	start := time.Now()
	err := telemetry.WithSpan(ctx, "validator."+string(target.Kind), func(ctx context.Context) error {
		warnings, err := r.check(ctx, target)
		result.Warnings = warnings
		for _, w := range warnings {
			telemetry.AddEvent(ctx, "validator.warning", attribute.String("validator.message", w))
		}
		return err
	}, attribute.String("validator.path", target.Path))
	result.Duration = time.Since(start)

	for _, w := range result.Warnings {
		r.reporter.Warning(fmt.Sprintf("WARNING %s: %s", name, w))
	}

	if err != nil {
		result.Err = err
		result.Message = err.Error()
		logger.G(ctx).WithError(err).WithField("target", name).Warn("validation failed")
		r.reporter.Failure(fmt.Sprintf("FAILED %s: %v", name, err))
		return result
	}

	result.Passed = true
	r.reporter.Success(fmt.Sprintf("PASSED %s", name))
	return result
}

func displayName(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}
