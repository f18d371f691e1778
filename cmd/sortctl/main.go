package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kh4i-dev/sortx/internal/logging"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sortctl",
	Short: "Drive the sort coordination engine against simulated hardware",
	Long: `sortctl exercises the sort coordination engine end to end without a
belt, a camera or a single relay: the GPIO backend is simulated, frames
are injected from a scenario file, and every event the engine emits is
printed to stdout.

Commands:
  run          Replay a YAML scenario through the engine
  version      Show version information`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := logging.DefaultConfig()
		if verbose {
			cfg.Level = logging.LevelDebug
		}
		logging.SetDefault(logging.NewLogger(cfg))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("sortctl %s\n", version)
	},
}
