package commands

import (
	"log/slog"

	"github.com/KnottyDyes/cribl-hc-sub001/internal/config"
	"github.com/KnottyDyes/cribl-hc-sub001/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	version string
	commit  string
	date    string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cribl-hc",
	Short: "cribl-hc — deployment health analyzer for Cribl products",
	Long: `cribl-hc analyzes the health of a Cribl Stream, Edge, Search, or Lake
deployment through its REST API. It checks worker fleet health, pipeline and
routing configuration, and system resource pressure, then produces a weighted
health score with remediation steps for every serious finding.

All access is read-only and rate limited; the target deployment is never
modified.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with injected build info.
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
