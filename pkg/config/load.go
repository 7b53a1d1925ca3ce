package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Marcus8009/languageapp/internal/log"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "audiomanifest.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".audiomanifest"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "audiomanifest"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUDIOMANIFEST_"

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/audiomanifest/config.toml)
//  3. Project config (.audiomanifest/config.toml or audiomanifest.toml)
//  4. Environment variables (AUDIOMANIFEST_*)
//
// CLI flags are applied separately after Load() returns.
func Load() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration, searching for a project config starting
// from dir.
func LoadFrom(dir string) *Config {
	cfg := NewConfig()

	// Layer 2: Global user config
	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	// Layer 3: Project config
	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	// Layer 4: Environment variables
	applyEnvironmentVariables(cfg)

	return cfg
}

// LoadFile loads configuration using an explicit project config file in
// place of the directory search. Unlike discovered files, a missing or
// malformed explicit file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	fileCfg, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if fileCfg == nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	cfg.Merge(fileCfg)

	applyEnvironmentVariables(cfg)
	return cfg, nil
}

// loadGlobalConfig loads the global user configuration.
func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		log.Warn("ignoring invalid global config", "path", path, "error", err)
		return nil
	}
	return cfg
}

// loadProjectConfigFrom looks for project configuration starting from the
// given directory and walking up to the project root.
func loadProjectConfigFrom(dir string) *Config {
	current := dir
	for {
		for _, candidate := range GetProjectConfigPaths(current) {
			cfg, err := loadConfigFile(candidate)
			if err != nil {
				log.Warn("ignoring invalid project config", "path", candidate, "error", err)
				continue
			}
			if cfg != nil {
				log.Info("loaded project config", "path", candidate)
				return cfg
			}
		}

		// Stop at filesystem root or the app's project root
		if isProjectRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isProjectRoot checks if the directory is a project root (has .git,
// package.json or app.json).
func isProjectRoot(dir string) bool {
	markers := []string{".git", "package.json", "app.json"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration from a TOML file. It returns
// (nil, nil) when the file does not exist. Relative paths in the file are
// resolved against the file's project directory.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	resolvePaths(&cfg, projectDirOf(path))
	return &cfg, nil
}

// projectDirOf returns the directory a config file's relative paths are
// anchored at: the parent of .audiomanifest/ or the file's own directory.
func projectDirOf(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// resolvePaths makes file-system paths in cfg absolute against base. The
// require() prefix is opaque and left untouched.
func resolvePaths(cfg *Config, base string) {
	for _, p := range []*string{
		&cfg.Manifest.SourceDir,
		&cfg.Manifest.OutputFile,
		&cfg.Loader.OutputFile,
		&cfg.State.Dir,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// applyEnvironmentVariables applies AUDIOMANIFEST_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	applyStringEnv(EnvPrefix+"SOURCE_DIR", &cfg.Manifest.SourceDir)
	applyStringEnv(EnvPrefix+"OUTPUT_FILE", &cfg.Manifest.OutputFile)
	applyStringEnv(EnvPrefix+"PREFIX", &cfg.Manifest.Prefix)
	applyStringEnv(EnvPrefix+"EXTENSION", &cfg.Manifest.Extension)
	applyStringEnv(EnvPrefix+"EXPORT_NAME", &cfg.Manifest.ExportName)
	applyStringEnv(EnvPrefix+"TRIM_MODE", &cfg.Manifest.TrimMode)
	applyStringEnv(EnvPrefix+"ANCHOR", &cfg.Manifest.Anchor)
	applyStringEnv(EnvPrefix+"DUPLICATES", &cfg.Manifest.Duplicates)

	// AUDIOMANIFEST_EXCLUDE: comma-separated doublestar patterns
	if v := os.Getenv(EnvPrefix + "EXCLUDE"); v != "" {
		cfg.Manifest.Exclude = splitAndTrim(v)
	}

	applyBoolEnv(EnvPrefix+"LOADER_ENABLED", &cfg.Loader.Enabled)
	applyStringEnv(EnvPrefix+"LOADER_OUTPUT_FILE", &cfg.Loader.OutputFile)

	if v := os.Getenv(EnvPrefix + "WATCH_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Watch.Debounce = ms
		}
	}

	applyStringEnv(EnvPrefix+"STATE_DIR", &cfg.State.Dir)
}

func applyStringEnv(envVar string, target *string) {
	if v := os.Getenv(envVar); v != "" {
		*target = v
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// applyBoolEnv applies a boolean environment variable to a pointer.
func applyBoolEnv(envVar string, target **bool) {
	if v := os.Getenv(envVar); v != "" {
		v = strings.ToLower(v)
		if v == "true" || v == "1" || v == "yes" {
			t := true
			*target = &t
		} else if v == "false" || v == "0" || v == "no" {
			f := false
			*target = &f
		}
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}
