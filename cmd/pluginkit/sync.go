package main

import (
	"context"
	"fmt"

	"github.com/jingkaihe/pluginkit/pkg/config"
	"github.com/jingkaihe/pluginkit/pkg/dirsync"
	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/jingkaihe/pluginkit/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var syncCmd = withTracing(&cobra.Command{
	Use:   "sync",
	Short: "Mirror the canonical plugin tree into the destination tree",
	Long: `Mirror commands, agents and skills from the canonical source root into the
destination root.

Each mapped destination directory is deleted and recreated from its source so
files removed from the source disappear from the destination. A missing source
subdirectory is skipped with a warning; a missing source root is an error.

Default mappings:
  .claude/commands -> .opencode/command
  .claude/agents   -> .opencode/agent
  .claude/skills   -> .opencode/skill

Examples:
  pluginkit sync
  pluginkit sync --watch
  pluginkit sync --source .claude --dest .opencode --mapping commands:command`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		if noLock, _ := cmd.Flags().GetBool("no-lock"); noLock {
			cfg.Sync.Lock = false
		}
		exitCode = runSync(cmd.Context(), cfg, watch, presenter.Default())
	},
})

func init() {
	flags := syncCmd.Flags()
	flags.String("source", dirsync.DefaultSourceRoot, "Canonical source root")
	flags.String("dest", dirsync.DefaultDestRoot, "Destination root")
	flags.StringSlice("mapping", nil, "Mapping as source:destination, repeatable (replaces the default table)")
	flags.Duration("debounce", dirsync.DefaultDebounce, "Quiet period before a watched change triggers a sync")
	flags.Bool("no-lock", false, "Do not take the destination lock file")
	flags.BoolP("watch", "w", false, "Keep running and re-sync whenever the source changes")

	viper.BindPFlag("sync.source", flags.Lookup("source"))
	viper.BindPFlag("sync.dest", flags.Lookup("dest"))
	viper.BindPFlag("sync.mappings", flags.Lookup("mapping"))
	viper.BindPFlag("sync.debounce", flags.Lookup("debounce"))

	rootCmd.AddCommand(syncCmd)
}

func newSyncer(c *config.Config, p presenter.Presenter) (*dirsync.Syncer, error) {
	return dirsync.New(
		dirsync.WithSourceRoot(c.Sync.Source),
		dirsync.WithDestRoot(c.Sync.Dest),
		dirsync.WithMappings(c.Sync.Mappings...),
		dirsync.WithLock(c.Sync.Lock),
		dirsync.WithReporter(p),
	)
}

// runSync performs one sync, or keeps syncing until ctx is done in watch
// mode, and returns the process exit code.
func runSync(ctx context.Context, c *config.Config, watch bool, p *presenter.TerminalPresenter) int {
	syncer, err := newSyncer(c, p)
	if err != nil {
		p.Error(err, "Invalid sync configuration")
		return 1
	}

	p.Info(fmt.Sprintf("Syncing %s -> %s", syncer.SourceRoot(), syncer.DestRoot()))

	if !watch {
		result, err := syncer.Sync(ctx)
		return reportSync(p, syncer, result, err)
	}

	err = syncer.Watch(ctx, c.Sync.Debounce, func(result *dirsync.Result, err error) {
		reportSync(p, syncer, result, err)
		if err == nil {
			p.Info("Waiting for changes (Ctrl-C to stop)")
		}
	})
	if err != nil {
		p.Error(err, "Watch failed")
		return 1
	}
	logger.G(ctx).Info("watch stopped")
	return 0
}

func reportSync(p *presenter.TerminalPresenter, syncer *dirsync.Syncer, result *dirsync.Result, err error) int {
	if err != nil {
		if errors.Is(err, dirsync.ErrSourceRootMissing) {
			p.Error(err, "Source root not found")
		} else {
			p.Error(err, "Sync failed")
		}
		return 1
	}

	p.Success(fmt.Sprintf("Synced %d of %d mappings", result.Synced(), len(result.Mappings)))
	p.Separator()
	p.Section(fmt.Sprintf("Contents of %s", syncer.DestRoot()))
	if err := dirsync.WriteListing(p.Output(), result.Listing); err != nil {
		p.Error(err, "Failed to list destination root")
		return 1
	}
	return 0
}
