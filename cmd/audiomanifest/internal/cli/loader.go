package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Marcus8009/languageapp/pkg/loader"
)

var loaderFlags struct {
	output      string
	levelPrefix string
	batchPrefix string
	dryRun      bool
}

var loaderCmd = &cobra.Command{
	Use:   "loader",
	Short: "Write the per-batch lazy audio loader module",
	Long: `Writes a JavaScript module with one async loader function per
<level>/<batch> directory under the source dir, for example
assets/audio/HSK1/batch01/*.mp3, plus a dispatcher:

  const manifest = await createBatchAudioManifest(1, 3);

Each clip is exposed as { get: () => require(...) } so the bundler only
resolves the files of the batch that is actually loaded.`,
	Args: cobra.NoArgs,
	RunE: runLoader,
}

func init() {
	loaderCmd.Flags().StringVarP(&loaderFlags.output, "out", "o", "",
		"Generated loader file (default ./batchAudioLoader.js)")
	loaderCmd.Flags().StringVar(&loaderFlags.levelPrefix, "level-prefix", "",
		"Level directory prefix (default HSK)")
	loaderCmd.Flags().StringVar(&loaderFlags.batchPrefix, "batch-prefix", "",
		"Batch directory prefix (default batch)")
	loaderCmd.Flags().BoolVar(&loaderFlags.dryRun, "dry-run", false,
		"Print the module instead of writing it")

	rootCmd.AddCommand(loaderCmd)
}

func runLoader(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if loaderFlags.output != "" {
		cfg.Loader.OutputFile = loaderFlags.output
	}
	if loaderFlags.levelPrefix != "" {
		cfg.Loader.LevelPrefix = loaderFlags.levelPrefix
	}
	if loaderFlags.batchPrefix != "" {
		cfg.Loader.BatchPrefix = loaderFlags.batchPrefix
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	r, err := loader.Build(ctx, cfg.LoaderOptions())
	if err != nil {
		return err
	}
	if loaderFlags.dryRun {
		_, err := out.Write(r.Content)
		return err
	}

	if err := r.Write(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Loader generated: %s (%d batches)\n", r.OutputFile, len(r.Batches))
	return nil
}
