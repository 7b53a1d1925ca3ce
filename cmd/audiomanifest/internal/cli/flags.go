package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Marcus8009/languageapp/pkg/config"
)

// configFlags mirror the [manifest] config section. They only override the
// layered config when set explicitly.
var configFlags struct {
	configFile string
	sourceDir  string
	outputFile string
	prefix     string
	extension  string
	exportName string
	trimMode   string
	anchor     string
	exclude    []string
	duplicates string
}

func registerConfigFlags(pf *pflag.FlagSet) {
	pf.StringVar(&configFlags.configFile, "config", "",
		"Config file to use instead of searching for audiomanifest.toml")
	pf.StringVar(&configFlags.sourceDir, "source", "",
		"Audio directory to scan (default ./assets/audio)")
	pf.StringVar(&configFlags.outputFile, "output", "",
		"Generated manifest file (default ./audioManifest.js)")
	pf.StringVar(&configFlags.prefix, "prefix", "",
		"Prefix prepended to every require() path (default ./assets/audio)")
	pf.StringVar(&configFlags.extension, "ext", "",
		"Case-sensitive file extension to collect (default .mp3)")
	pf.StringVar(&configFlags.exportName, "export-name", "",
		"Name of the exported constant (default audioManifest)")
	pf.StringVar(&configFlags.trimMode, "trim-mode", "",
		"How paths are derived: root or anchor (default root)")
	pf.StringVar(&configFlags.anchor, "anchor", "",
		"Anchor substring for --trim-mode=anchor (default: source dir name)")
	pf.StringSliceVar(&configFlags.exclude, "exclude", nil,
		"Glob patterns, relative to the source dir, to skip (repeatable)")
	pf.StringVar(&configFlags.duplicates, "duplicates", "",
		"Duplicate key policy: last or error (default last)")
}

// loadConfig resolves the layered configuration and applies explicitly set
// flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFlags.configFile != "" {
		var err error
		cfg, err = config.LoadFile(configFlags.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.Load()
	}

	flags := cmd.Flags()
	apply := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	apply("source", &cfg.Manifest.SourceDir, configFlags.sourceDir)
	apply("output", &cfg.Manifest.OutputFile, configFlags.outputFile)
	apply("prefix", &cfg.Manifest.Prefix, configFlags.prefix)
	apply("ext", &cfg.Manifest.Extension, configFlags.extension)
	apply("export-name", &cfg.Manifest.ExportName, configFlags.exportName)
	apply("trim-mode", &cfg.Manifest.TrimMode, configFlags.trimMode)
	apply("anchor", &cfg.Manifest.Anchor, configFlags.anchor)
	apply("duplicates", &cfg.Manifest.Duplicates, configFlags.duplicates)
	if flags.Changed("exclude") {
		cfg.Manifest.Exclude = append(cfg.Manifest.Exclude, configFlags.exclude...)
	}

	if err := cfg.ManifestOptions().Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
