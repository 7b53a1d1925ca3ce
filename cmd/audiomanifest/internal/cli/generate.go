package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/formats"
	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/incremental"
	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/watch"
	"github.com/Marcus8009/languageapp/internal/log"
	"github.com/Marcus8009/languageapp/pkg/config"
	"github.com/Marcus8009/languageapp/pkg/loader"
	"github.com/Marcus8009/languageapp/pkg/manifest"
	"github.com/Marcus8009/languageapp/pkg/util"
)

var generateFlags struct {
	loader bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the audio manifest module",
	Long: `Scans the source directory for files with the configured extension and
writes the manifest module to the output file.

The extension match is case-sensitive: with the default .mp3, a file named
intro.MP3 is left out. Files that share a name in different directories
collapse to one key; the last one in key/path order wins unless
--duplicates=error is set.

With loader.enabled = true in audiomanifest.toml (or --loader), the batch
loader module is written as well.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateFlags.loader, "loader", false,
		"Also write the batch loader module")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if generateFlags.loader {
		enabled := true
		cfg.Loader.Enabled = &enabled
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	m, lr, err := generateAll(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Manifest generated: %s\n", m.OutputFile)
	if lr != nil {
		_, _ = fmt.Fprintf(out, "Loader generated: %s\n", lr.OutputFile)
	}

	reportUnmatched(cfg)
	refreshState(ctx, cfg)
	return nil
}

// generateAll writes the manifest and, when enabled, the batch loader.
func generateAll(ctx context.Context, cfg *config.Config) (*manifest.Manifest, *loader.Result, error) {
	m, err := manifest.Generate(ctx, cfg.ManifestOptions())
	if err != nil {
		return nil, nil, err
	}
	if !cfg.LoaderEnabled() {
		return m, nil, nil
	}

	lr, err := loader.Generate(ctx, cfg.LoaderOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate loader: %w", err)
	}
	return m, lr, nil
}

// regenerateFunc adapts generateAll to the watcher.
func regenerateFunc(cfg *config.Config) watch.RegenerateFunc {
	return func(ctx context.Context) ([]watch.Output, error) {
		m, lr, err := generateAll(ctx, cfg)
		if err != nil {
			return nil, err
		}
		outputs := []watch.Output{{Path: m.OutputFile, Count: len(m.Entries), Unit: "entries"}}
		if lr != nil {
			outputs = append(outputs, watch.Output{Path: lr.OutputFile, Count: len(lr.Batches), Unit: "batches"})
		}
		return outputs, nil
	}
}

// refreshState records the audio tree for 'audiomanifest status'. Failing to
// do so never fails the command.
func refreshState(ctx context.Context, cfg *config.Config) {
	tracker := incremental.NewTrackerFromConfig(cfg)
	if err := tracker.Refresh(ctx); err != nil {
		log.Warn("failed to update state", "dir", cfg.State.Dir, "error", err)
	}
}

// reportUnmatched logs audio files the exact-case extension match skipped.
func reportUnmatched(cfg *config.Config) {
	missed, err := formats.Unmatched(cfg.Manifest.SourceDir, cfg.Manifest.Extension)
	if err != nil {
		log.Debug("format detection failed", "error", err)
		return
	}
	if len(missed) == 0 {
		return
	}
	log.Info("audio files not matching the configured extension were skipped",
		"extension", cfg.Manifest.Extension,
		"skipped", formatCounts(missed))
}

// formatCounts renders {".MP3": 2, ".wav": 1} as ".MP3=2 .wav=1".
func formatCounts(counts map[string]int) string {
	keys := util.SortedKeys(counts)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

// printList writes a titled list, skipping empty ones.
func printList(w io.Writer, title, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  %s %s\n", marker, item)
	}
}
