package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/incremental"
	"github.com/Marcus8009/languageapp/pkg/loader"
	"github.com/Marcus8009/languageapp/pkg/manifest"
)

// ErrStale is returned by check when a generated file is out of date.
var ErrStale = errors.New("generated files are out of date")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the generated manifest is up to date (exit 1 if not)",
	Long: `Renders the manifest in memory and compares it with the file on disk
without writing anything. Intended for CI and pre-commit hooks.

A missing output file counts as out of date. When the batch loader is
enabled it is checked as well.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	m, err := manifest.Build(ctx, cfg.ManifestOptions())
	if err != nil {
		return err
	}
	stale := !upToDate(out, m.OutputFile, m.Content, fmt.Sprintf("%d entries", len(m.Entries)))

	if cfg.LoaderEnabled() {
		lr, err := loader.Build(ctx, cfg.LoaderOptions())
		if err != nil {
			return fmt.Errorf("failed to build loader: %w", err)
		}
		if !upToDate(out, lr.OutputFile, lr.Content, fmt.Sprintf("%d batches", len(lr.Batches))) {
			stale = true
		}
	}

	if stale {
		_, _ = fmt.Fprintln(out, "\nRun 'audiomanifest generate' to update")
		return ErrStale
	}
	_, _ = fmt.Fprintln(out, "Manifest is up to date")
	return nil
}

// upToDate compares the xxHash64 of want with the file at path and reports
// a stale file on w.
func upToDate(w io.Writer, path string, want []byte, summary string) bool {
	have, err := incremental.HashFile(path)
	if err == nil && have == incremental.HashBytes(want) {
		return true
	}

	if err != nil {
		_, _ = fmt.Fprintf(w, "%s is missing or unreadable (would write %s)\n", path, summary)
	} else {
		_, _ = fmt.Fprintf(w, "%s is out of date (would write %s)\n", path, summary)
	}
	return false
}
