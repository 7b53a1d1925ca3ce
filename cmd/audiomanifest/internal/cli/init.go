package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/Marcus8009/languageapp/cmd/audiomanifest/internal/formats"
	"github.com/Marcus8009/languageapp/pkg/config"
)

var initFlags struct {
	check  bool
	dryRun bool
	force  bool
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create an audiomanifest.toml for a project",
	Long: `Writes audiomanifest.toml in the project directory (default: the current
directory) with the generator settings spelled out.

The extension is picked from the audio files already present in the source
directory: the most common format wins, .mp3 when the directory is empty.

Use --check to verify the config exists and parses (useful for CI).
Use --dry-run to print the file instead of writing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.check, "check", false,
		"Check that the project config exists and is valid (exit 1 if not)")
	initCmd.Flags().BoolVar(&initFlags.dryRun, "dry-run", false,
		"Show the config without writing it")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false,
		"Overwrite an existing audiomanifest.toml")

	rootCmd.AddCommand(initCmd)
}

// initFile is the subset of config.Config written by init.
type initFile struct {
	Manifest config.ManifestConfig `toml:"manifest"`
	Loader   initLoader            `toml:"loader"`
}

type initLoader struct {
	Enabled     bool   `toml:"enabled"`
	OutputFile  string `toml:"output_file"`
	LevelPrefix string `toml:"level_prefix"`
	BatchPrefix string `toml:"batch_prefix"`
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	out := cmd.OutOrStdout()
	configFile := filepath.Join(absPath, config.ConfigFileName)

	if initFlags.check {
		return runInitCheck(out, configFile)
	}

	defaults := config.NewConfig()
	file := initFile{
		Manifest: defaults.Manifest,
		Loader: initLoader{
			OutputFile:  defaults.Loader.OutputFile,
			LevelPrefix: defaults.Loader.LevelPrefix,
			BatchPrefix: defaults.Loader.BatchPrefix,
		},
	}
	if cmd.Flags().Changed("source") {
		file.Manifest.SourceDir = configFlags.sourceDir
		file.Manifest.Prefix = configFlags.sourceDir
	}
	if cmd.Flags().Changed("output") {
		file.Manifest.OutputFile = configFlags.outputFile
	}
	if cmd.Flags().Changed("prefix") {
		file.Manifest.Prefix = configFlags.prefix
	}

	if cmd.Flags().Changed("ext") {
		file.Manifest.Extension = configFlags.extension
	} else {
		sourceDir := file.Manifest.SourceDir
		if !filepath.IsAbs(sourceDir) {
			sourceDir = filepath.Join(absPath, sourceDir)
		}
		ext, err := detectExtension(sourceDir)
		if err != nil {
			return fmt.Errorf("failed to detect audio formats: %w", err)
		}
		file.Manifest.Extension = ext
	}

	content, err := encodeInitFile(file)
	if err != nil {
		return err
	}

	if initFlags.dryRun {
		_, _ = fmt.Fprintf(out, "Would create %s:\n\n", configFile)
		_, err := out.Write(content)
		return err
	}

	if fileExists(configFile) && !initFlags.force {
		_, _ = fmt.Fprintf(out, "%s already exists (use --force to overwrite)\n", configFile)
		return nil
	}
	if err := os.WriteFile(configFile, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
	}

	_, _ = fmt.Fprintf(out, "Created %s\n", configFile)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Check source_dir, output_file and prefix against your bundler layout")
	_, _ = fmt.Fprintln(out, "  2. Run 'audiomanifest generate'")
	return nil
}

// detectExtension returns the extension of the most common audio format
// under dir, falling back to the manifest default.
func detectExtension(dir string) (string, error) {
	counts, err := formats.Count(dir)
	if err != nil {
		return "", err
	}

	best, bestCount := "", 0
	for _, name := range formats.Names() {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	if best == "" {
		return config.NewConfig().Manifest.Extension, nil
	}
	return formats.Extensions[best][0], nil
}

func encodeInitFile(file initFile) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# audiomanifest configuration\n")
	buf.WriteString("# Relative paths are resolved against this file's directory.\n\n")
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func runInitCheck(out io.Writer, configFile string) error {
	if !fileExists(configFile) {
		_, _ = fmt.Fprintln(out, "Run 'audiomanifest init' to create the project config")
		return fmt.Errorf("%s not found", configFile)
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return err
	}
	if err := cfg.ManifestOptions().Validate(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Project is properly configured")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
