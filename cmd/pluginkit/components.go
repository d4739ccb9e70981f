package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jingkaihe/pluginkit/pkg/config"
	"github.com/jingkaihe/pluginkit/pkg/presenter"
	"github.com/jingkaihe/pluginkit/pkg/skills"
	"github.com/jingkaihe/pluginkit/pkg/validator"
	"github.com/spf13/cobra"
)

var validateComponentsCmd = withTracing(&cobra.Command{
	Use:   "components",
	Short: "Validate agents, commands, hooks and plugin manifests",
	Long: `Check every agents/*.md, commands/*.md, hooks/*.json and
.claude-plugin/plugin.json below the root in-process.

Every file is checked even when some fail; the exit code is 1 if any failed.
Warnings are reported but never fail a file.

Examples:
  pluginkit validate components
  pluginkit validate components --root plugins -o json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		exitCode = runValidateComponents(cmd.Context(), cfg, presenter.Default(), cmd.OutOrStdout())
	},
})

func init() {
	validateCmd.AddCommand(validateComponentsCmd)
}

func runValidateComponents(ctx context.Context, c *config.Config, p *presenter.TerminalPresenter, stdout io.Writer) int {
	vc := c.Validate
	if vc.Format == validator.FormatJSON || vc.Format == validator.FormatYAML {
		p.SetQuiet(true)
	}

	finder, err := skills.NewFinder(skills.WithExcludes(vc.Exclude...))
	if err != nil {
		p.Error(err, "Invalid discovery options")
		return 1
	}

	runner, err := validator.NewComponentRunner(
		validator.WithFinder(finder),
		validator.WithReporter(p),
	)
	if err != nil {
		p.Error(err, "Failed to create validator runner")
		return 1
	}

	p.Info(fmt.Sprintf("Discovering plugin components in %s", vc.Root))

	summary, err := runner.Run(ctx, vc.Root)
	if err != nil {
		p.Error(err, "Validation aborted")
		return 1
	}

	return reportSummary(p, summary, vc.Format, stdout, "plugin components", "components")
}
