package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/incremental"
	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/watch"
)

var watchFlags struct {
	debounce int
	verbose  bool
	json     bool
	noColor  bool
	loader   bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the manifest whenever audio files change",
	Long: `Watches the source directory and regenerates the manifest (and the
batch loader, when enabled) after audio files are added, changed or removed.

Example output:

  $ audiomanifest watch

  audiomanifest: watching 1532 .mp3 files in ./assets/audio
  audiomanifest: ready

  [14:32:15] regenerating (changes in HSK1/batch03)...
  [14:32:15] ✓ audioManifest.js updated (1533 entries)

Press Ctrl+C to stop watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 0,
		"Debounce window in milliseconds (default from config, 500)")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")
	watchCmd.Flags().BoolVar(&watchFlags.loader, "loader", false,
		"Also regenerate the batch loader module")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if watchFlags.loader {
		enabled := true
		cfg.Loader.Enabled = &enabled
	}
	if watchFlags.debounce > 0 {
		cfg.Watch.Debounce = watchFlags.debounce
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Root:       cfg.Manifest.SourceDir,
		Extension:  cfg.Manifest.Extension,
		Exclude:    cfg.Manifest.Exclude,
		Debounce:   cfg.Watch.Debounce,
		Regenerate: regenerateFunc(cfg),
		Tracker:    incremental.NewTrackerFromConfig(cfg),
		Writer:     cmd.OutOrStdout(),
		Verbose:    watchFlags.verbose,
		NoColor:    watchFlags.noColor,
		JSON:       watchFlags.json,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
