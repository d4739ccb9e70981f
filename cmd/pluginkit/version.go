package main

import (
	"fmt"

	"github.com/jingkaihe/pluginkit/pkg/presenter"
	"github.com/jingkaihe/pluginkit/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of pluginkit in JSON format.`,
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), info.Version)
			return
		}

		out, err := info.JSON()
		if err != nil {
			presenter.Error(err, "Failed to format version info")
			exitCode = 1
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}
