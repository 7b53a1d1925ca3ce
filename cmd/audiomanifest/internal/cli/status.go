package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/incremental"
)

var statusFlags struct {
	verbose bool
	json    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show audio files changed since the last generate",
	Long: `Compares the audio tree against the snapshot taken by the last
'audiomanifest generate' (kept in .audiomanifest/state.json).

Only files that the manifest would pick up are tracked: the configured
extension, case-sensitive, minus --exclude patterns.

The --verbose flag lists the individual files (new, modified, deleted).
The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.verbose, "verbose", false,
		"Show individual file changes")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the JSON output format for audiomanifest status.
type StatusOutput struct {
	Stale         bool     `json:"stale"`
	StaleDirs     []string `json:"stale_dirs"`
	StaleKeys     []string `json:"stale_keys,omitempty"`
	NewFiles      []string `json:"new_files,omitempty"`
	ModifiedFiles []string `json:"modified_files,omitempty"`
	DeletedFiles  []string `json:"deleted_files,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	tracker := incremental.NewTrackerFromConfig(cfg)

	if !tracker.HasState() {
		if statusFlags.json {
			return outputJSON(out, StatusOutput{
				Stale:     true,
				StaleDirs: []string{"."},
				Error:     "no state found",
			})
		}
		_, _ = fmt.Fprintln(out, "No state found. Run 'audiomanifest generate' to create initial state.")
		return nil
	}

	cs, err := tracker.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect changes: %w", err)
	}

	if statusFlags.json {
		return outputJSON(out, StatusOutput{
			Stale:         !cs.IsEmpty(),
			StaleDirs:     cs.AffectedDirs(),
			StaleKeys:     cs.AffectedKeys(cfg.Manifest.Extension),
			NewFiles:      cs.Added,
			ModifiedFiles: cs.Modified,
			DeletedFiles:  cs.Deleted,
		})
	}

	if cs.IsEmpty() {
		_, _ = fmt.Fprintln(out, "Audio files unchanged since last generate")
		return nil
	}

	dirs := cs.AffectedDirs()
	_, _ = fmt.Fprintf(out, "Changed directories (%d):\n", len(dirs))
	for _, dir := range dirs {
		_, _ = fmt.Fprintf(out, "  %s\n", dir)
	}

	if statusFlags.verbose {
		printList(out, "New files", "+", cs.Added)
		printList(out, "Modified files", "~", cs.Modified)
		printList(out, "Deleted files", "-", cs.Deleted)
	}

	_, _ = fmt.Fprintln(out, "\nRun 'audiomanifest generate' to update the manifest")
	return nil
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
