package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jingkaihe/pluginkit/pkg/config"
	"github.com/jingkaihe/pluginkit/pkg/presenter"
	"github.com/jingkaihe/pluginkit/pkg/skills"
	"github.com/jingkaihe/pluginkit/pkg/validator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateCmd = withTracing(&cobra.Command{
	Use:   "validate",
	Short: "Validate every skill below a root",
	Long: `Find every SKILL.md below the root and validate its directory.

By default each skill directory is passed to an external validator command
({dir} is replaced by the directory, or appended when absent). With --builtin
the SKILL.md frontmatter is checked in-process instead.

Every skill is validated even when some fail; the exit code is 1 if any failed.
Warnings are reported but never fail a skill.

Examples:
  pluginkit validate
  pluginkit validate --builtin --filter 'plugins/go/**'
  pluginkit validate --command "skill-check {dir}" --timeout 30s
  pluginkit validate --format json > report.json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		exitCode = runValidate(cmd.Context(), cfg, presenter.Default(), os.Stdout, os.Stderr)
	},
})

func init() {
	// shared with validate components
	shared := validateCmd.PersistentFlags()
	shared.String("root", ".", "Directory to search")
	shared.StringSlice("exclude", skills.DefaultExcludes, "Directory patterns to skip during discovery")
	shared.StringP("format", "o", validator.FormatText, "Report format (text, json, yaml)")

	flags := validateCmd.Flags()
	flags.String("sentinel", skills.DefaultSentinel, "File name that marks a skill directory")
	flags.String("command", validator.DefaultCommand, "Validator command template")
	flags.Bool("builtin", false, "Validate SKILL.md in-process instead of running a command")
	flags.String("filter", "", "Only validate skills whose relative directory matches this glob")
	flags.Duration("timeout", 0, "Per-skill timeout for the validator command (0 disables)")

	viper.BindPFlag("validate.root", shared.Lookup("root"))
	viper.BindPFlag("validate.sentinel", flags.Lookup("sentinel"))
	viper.BindPFlag("validate.command", flags.Lookup("command"))
	viper.BindPFlag("validate.builtin", flags.Lookup("builtin"))
	viper.BindPFlag("validate.filter", flags.Lookup("filter"))
	viper.BindPFlag("validate.exclude", shared.Lookup("exclude"))
	viper.BindPFlag("validate.timeout", flags.Lookup("timeout"))
	viper.BindPFlag("validate.format", shared.Lookup("format"))

	rootCmd.AddCommand(validateCmd)
}

func finderFromConfig(c config.ValidateConfig) (*skills.Finder, error) {
	opts := []skills.Option{
		skills.WithSentinel(c.Sentinel),
		skills.WithExcludes(c.Exclude...),
	}
	if c.Filter != "" {
		opts = append(opts, skills.WithFilter(c.Filter))
	}
	return skills.NewFinder(opts...)
}

func validatorFromConfig(c config.ValidateConfig, stdout, stderr io.Writer) (validator.Validator, error) {
	if c.Builtin {
		return validator.NewBuiltinValidator(c.Sentinel), nil
	}
	return validator.NewCommandValidator(c.Command,
		validator.WithTimeout(c.Timeout),
		validator.WithOutput(stdout, stderr),
	)
}

// runValidate validates every discovered skill and returns the exit code.
// Structured formats write only the report to stdout; the validator's own
// output is moved to stderr so the report stays parseable.
func runValidate(ctx context.Context, c *config.Config, p *presenter.TerminalPresenter, stdout, stderr io.Writer) int {
	vc := c.Validate
	structured := vc.Format == validator.FormatJSON || vc.Format == validator.FormatYAML
	if structured {
		p.SetQuiet(true)
	}

	finder, err := finderFromConfig(vc)
	if err != nil {
		p.Error(err, "Invalid discovery options")
		return 1
	}

	toolOut := stdout
	if structured {
		toolOut = stderr
	}
	v, err := validatorFromConfig(vc, toolOut, stderr)
	if err != nil {
		p.Error(err, "Invalid validator")
		return 1
	}

	runner, err := validator.NewRunner(v,
		validator.WithFinder(finder),
		validator.WithReporter(p),
	)
	if err != nil {
		p.Error(err, "Failed to create validator runner")
		return 1
	}

	p.Info(fmt.Sprintf("Discovering %s files in %s", finder.Sentinel(), vc.Root))

	summary, err := runner.Run(ctx, vc.Root)
	if err != nil {
		p.Error(err, "Validation aborted")
		return 1
	}

	return reportSummary(p, summary, vc.Format, stdout, finder.Sentinel()+" files", "skills")
}

// reportSummary writes a structured report to stdout, or a text summary
// through the presenter, and returns the run's exit code.
func reportSummary(p *presenter.TerminalPresenter, summary *validator.Summary, format string, stdout io.Writer, what, noun string) int {
	if format == validator.FormatJSON || format == validator.FormatYAML {
		if err := validator.WriteSummary(stdout, summary, format); err != nil {
			p.Error(err, "Failed to write report")
			return 1
		}
		return summary.ExitCode()
	}

	if summary.Total == 0 {
		p.Warning(fmt.Sprintf("No %s found under %s", what, summary.Root))
		return 0
	}

	p.Separator()
	p.Section("Validation Summary")
	if err := validator.WriteSummary(p.Output(), summary, validator.FormatText); err != nil {
		p.Error(err, "Failed to write summary")
		return 1
	}

	if summary.Failed > 0 {
		p.Failure(fmt.Sprintf("%d of %d %s failed validation", summary.Failed, summary.Total, noun))
		for _, r := range summary.FailedResults() {
			target := r.Path
			if r.Kind == validator.KindSkill {
				target = r.Dir
			}
			p.Info(fmt.Sprintf("  - %s", target))
		}
	} else {
		p.Success(fmt.Sprintf("All %s passed validation", noun))
	}
	return summary.ExitCode()
}
