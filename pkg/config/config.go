// Package config provides configuration management for audiomanifest.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/audiomanifest/config.toml)
//  3. Project config (.audiomanifest/config.toml or audiomanifest.toml)
//  4. Environment variables (AUDIOMANIFEST_*)
//  5. CLI flags (highest priority)
package config

import (
	"github.com/Marcus8009/languageapp/pkg/loader"
	"github.com/Marcus8009/languageapp/pkg/manifest"
)

// Config is the main configuration struct for audiomanifest.
type Config struct {
	// Manifest configures the audio manifest generator.
	Manifest ManifestConfig `toml:"manifest"`

	// Loader configures the batch loader generator.
	Loader LoaderConfig `toml:"loader"`

	// Watch configures watch mode.
	Watch WatchConfig `toml:"watch"`

	// State configures where incremental state is kept.
	State StateConfig `toml:"state"`
}

// ManifestConfig holds the manifest generator settings.
type ManifestConfig struct {
	// SourceDir is the audio root that is scanned recursively.
	SourceDir string `toml:"source_dir"`

	// OutputFile is the generated JS module.
	OutputFile string `toml:"output_file"`

	// Prefix is prepended verbatim to every require() path.
	Prefix string `toml:"prefix"`

	// Extension is the exact, case-sensitive file suffix to collect.
	Extension string `toml:"extension"`

	// ExportName is the exported constant's name.
	ExportName string `toml:"export_name"`

	// TrimMode is "root" or "anchor".
	TrimMode string `toml:"trim_mode"`

	// Anchor overrides the anchor substring used by trim_mode = "anchor".
	Anchor string `toml:"anchor,omitempty"`

	// Exclude lists doublestar patterns relative to SourceDir.
	Exclude []string `toml:"exclude,omitempty"`

	// Duplicates is "last" or "error".
	Duplicates string `toml:"duplicates"`
}

// LoaderConfig holds the batch loader generator settings.
type LoaderConfig struct {
	// Enabled makes generate and watch also emit the loader module.
	Enabled *bool `toml:"enabled"`

	// OutputFile is the generated loader module.
	OutputFile string `toml:"output_file"`

	// LevelPrefix is the level directory prefix (e.g. "HSK").
	LevelPrefix string `toml:"level_prefix"`

	// BatchPrefix is the batch directory prefix (e.g. "batch").
	BatchPrefix string `toml:"batch_prefix"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// Debounce is the debounce window in milliseconds.
	Debounce int `toml:"debounce_ms"`
}

// StateConfig holds incremental state settings.
type StateConfig struct {
	// Dir is the directory holding state.json.
	Dir string `toml:"dir"`
}

// DefaultStateDir is the default incremental state directory.
const DefaultStateDir = ".audiomanifest"

// DefaultDebounce is the default watch debounce in milliseconds.
const DefaultDebounce = 500

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	falseVal := false
	m := manifest.DefaultConfig()
	return &Config{
		Manifest: ManifestConfig{
			SourceDir:  m.SourceDir,
			OutputFile: m.OutputFile,
			Prefix:     m.Prefix,
			Extension:  m.Extension,
			ExportName: m.ExportName,
			TrimMode:   string(m.TrimMode),
			Duplicates: string(m.Duplicates),
			Exclude:    []string{},
		},
		Loader: LoaderConfig{
			Enabled:     &falseVal,
			OutputFile:  loader.DefaultOutputFile,
			LevelPrefix: loader.DefaultLevelPrefix,
			BatchPrefix: loader.DefaultBatchPrefix,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
		State: StateConfig{
			Dir: DefaultStateDir,
		},
	}
}

// LoaderEnabled reports whether the loader module is generated alongside
// the manifest.
func (c *Config) LoaderEnabled() bool {
	return c.Loader.Enabled != nil && *c.Loader.Enabled
}

// ManifestOptions converts to the generator's configuration.
func (c *Config) ManifestOptions() manifest.Config {
	return manifest.Config{
		SourceDir:  c.Manifest.SourceDir,
		OutputFile: c.Manifest.OutputFile,
		Prefix:     c.Manifest.Prefix,
		Extension:  c.Manifest.Extension,
		ExportName: c.Manifest.ExportName,
		TrimMode:   manifest.TrimMode(c.Manifest.TrimMode),
		Anchor:     c.Manifest.Anchor,
		Exclude:    c.Manifest.Exclude,
		Duplicates: manifest.DuplicatePolicy(c.Manifest.Duplicates),
	}
}

// LoaderOptions converts to the loader generator's configuration. Source,
// prefix and extension are shared with the manifest.
func (c *Config) LoaderOptions() loader.Config {
	return loader.Config{
		SourceDir:   c.Manifest.SourceDir,
		OutputFile:  c.Loader.OutputFile,
		Prefix:      c.Manifest.Prefix,
		Extension:   c.Manifest.Extension,
		LevelPrefix: c.Loader.LevelPrefix,
		BatchPrefix: c.Loader.BatchPrefix,
	}
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Manifest
	mergeString(&c.Manifest.SourceDir, other.Manifest.SourceDir)
	mergeString(&c.Manifest.OutputFile, other.Manifest.OutputFile)
	mergeString(&c.Manifest.Prefix, other.Manifest.Prefix)
	mergeString(&c.Manifest.Extension, other.Manifest.Extension)
	mergeString(&c.Manifest.ExportName, other.Manifest.ExportName)
	mergeString(&c.Manifest.TrimMode, other.Manifest.TrimMode)
	mergeString(&c.Manifest.Anchor, other.Manifest.Anchor)
	mergeString(&c.Manifest.Duplicates, other.Manifest.Duplicates)
	if len(other.Manifest.Exclude) > 0 {
		c.Manifest.Exclude = append(c.Manifest.Exclude, other.Manifest.Exclude...)
	}

	// Loader
	if other.Loader.Enabled != nil {
		c.Loader.Enabled = other.Loader.Enabled
	}
	mergeString(&c.Loader.OutputFile, other.Loader.OutputFile)
	mergeString(&c.Loader.LevelPrefix, other.Loader.LevelPrefix)
	mergeString(&c.Loader.BatchPrefix, other.Loader.BatchPrefix)

	// Watch
	if other.Watch.Debounce > 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// State
	mergeString(&c.State.Dir, other.State.Dir)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
