// Package cli implements the audiomanifest command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Marcus8009/languageapp/internal/log"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity int
	logFormat string
}

// rootCmd generates the manifest when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "audiomanifest",
	Short: "Generate the audio manifest module for the app bundler",
	Long: `audiomanifest scans an audio directory and writes a JavaScript module
mapping every clip's name to a require() of its file:

  export const audioManifest = {
    'L1-0001eng': require('./assets/audio/L1-0001eng.mp3'),
  };

Running audiomanifest without a subcommand is the same as
'audiomanifest generate'.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runGenerate,
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "audiomanifest %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	pf.StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	registerConfigFlags(pf)

	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution.
func initLogging() {
	log.Init(globalFlags.verbosity, globalFlags.logFormat)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ErrStale) {
			log.Debug("command failed", "error", err)
		}
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
