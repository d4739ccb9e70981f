package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/jingkaihe/pluginkit/pkg/config"
	"github.com/jingkaihe/pluginkit/pkg/presenter"
	"github.com/jingkaihe/pluginkit/pkg/skills"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const maxDescriptionWidth = 60

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect skills in the plugin tree",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillsListCmd = withTracing(&cobra.Command{
	Use:   "list",
	Short: "List discovered skills",
	Long:  `List every skill below the root with its name, directory and description.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		exitCode = runSkillsList(cmd.Context(), cfg, skillsRoot(cmd.Flags(), cfg), presenter.Default(), cmd.OutOrStdout())
	},
})

func init() {
	skillsListCmd.Flags().String("root", "", "Directory to search for skills (defaults to validate.root)")

	skillsCmd.AddCommand(skillsListCmd)
	rootCmd.AddCommand(skillsCmd)
}

// skillsRoot prefers an explicit --root and otherwise shares the configured
// validation root.
func skillsRoot(flags *pflag.FlagSet, c *config.Config) string {
	if flags.Changed("root") {
		root, _ := flags.GetString("root")
		return root
	}
	return c.Validate.Root
}

type skillRow struct {
	name        string
	directory   string
	description string
}

func runSkillsList(_ context.Context, c *config.Config, root string, p *presenter.TerminalPresenter, w io.Writer) int {
	found, failed, err := skills.Discover(root,
		skills.WithSentinel(c.Validate.Sentinel),
		skills.WithExcludes(c.Validate.Exclude...),
	)
	if err != nil {
		p.Error(err, "Failed to discover skills")
		return 1
	}

	if len(found) == 0 && len(failed) == 0 {
		p.Info("No skills found")
		return 0
	}

	rows := make([]skillRow, 0, len(found)+len(failed))
	for _, s := range found {
		name := s.Name
		if name == "" {
			name = filepath.Base(s.Directory)
		}
		rows = append(rows, skillRow{name: name, directory: s.Directory, description: truncate(s.Description)})
	}
	for _, f := range failed {
		p.Warning(fmt.Sprintf("Could not parse %s: %v", f.Path, f.Err))
		dir := filepath.Dir(f.Path)
		rows = append(rows, skillRow{name: filepath.Base(dir), directory: dir})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].directory < rows[j].directory })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIRECTORY\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t---------\t-----------")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.name, r.directory, r.description)
	}
	if err := tw.Flush(); err != nil {
		p.Error(err, "Failed to write skill list")
		return 1
	}
	return 0
}

func truncate(description string) string {
	runes := []rune(description)
	if len(runes) > maxDescriptionWidth {
		return string(runes[:maxDescriptionWidth-3]) + "..."
	}
	return description
}
