// Command tsdash serves, renders and inspects time-series dashboards.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"tsdash/internal/config"
	"tsdash/internal/logger"
)

var dashboardFile string

func main() {
	if err := createRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tsdash",
		Short:        "Time-series dashboard renderer",
		Version:      config.GetVersion(),
		SilenceUsage: true,
		// logs go to stderr so rendered file lists and tables stay clean on stdout
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.GetGlobalLogger().SetOutput(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&dashboardFile, "dashboard", "d", "", "Dashboard layout file (default: DASHBOARD_FILE)")

	rootCmd.AddCommand(createServeCommand())
	rootCmd.AddCommand(createRenderCommand())
	rootCmd.AddCommand(createInspectCommand())
	return rootCmd
}
