package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jingkaihe/pluginkit/pkg/config"
	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/jingkaihe/pluginkit/pkg/presenter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// exitCode is set by a command's Run and returned from main once tracing
	// has been flushed.
	exitCode int

	// cfg is loaded in PersistentPreRunE after flags have been parsed
	cfg *config.Config

	shutdownTracing = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "pluginkit",
	Short: "Keep an AI assistant plugin tree in sync and valid",
	Long: `pluginkit maintains a plugin tree shared by several AI coding assistants.

It mirrors the canonical .claude tree into .opencode and validates every
skill directory (a directory holding a SKILL.md file) below a root.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.SetLogLevel(cfg.LogLevel); err != nil {
			return err
		}
		logger.SetLogFormat(cfg.LogFormat)

		ctx, runID := logger.WithRunID(cmd.Context(), cmd.CommandPath())
		cmd.SetContext(ctx)

		shutdown, err := initTracing(ctx)
		if err != nil {
			logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
		} else {
			shutdownTracing = shutdown
		}

		logger.G(ctx).WithField("run_id", runID).Debug("starting command")
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := config.Init(viper.GetViper()); err != nil {
		presenter.Error(err, "Failed to load configuration")
		stop()
		os.Exit(1)
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	if err := shutdownTracing(context.Background()); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to flush traces")
	}
	stop()
	os.Exit(exitCode)
}
