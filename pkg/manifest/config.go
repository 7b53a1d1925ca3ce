// Package manifest generates the audio manifest module consumed by the
// mobile app's bundler.
//
// A run walks Config.SourceDir, keeps files ending in Config.Extension,
// derives a key (file name minus extension) and a forward-slash path for
// each, sorts by key and renders:
//
//	export const audioManifest = {
//	  'L1-0001eng': require('./assets/audio/L1-0001eng.mp3'),
//	};
//
// Everything is deterministic: the same tree always renders the same bytes.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// TrimMode selects how an entry's path is derived.
type TrimMode string

const (
	// TrimRoot computes the path relative to SourceDir.
	TrimRoot TrimMode = "root"

	// TrimAnchor computes the path relative to the output file's directory
	// and keeps what follows the first occurrence of Anchor.
	TrimAnchor TrimMode = "anchor"
)

// DuplicatePolicy controls what happens when two files share a key.
type DuplicatePolicy string

const (
	// DuplicatesLast keeps the last entry in sort order.
	DuplicatesLast DuplicatePolicy = "last"

	// DuplicatesError fails the run on the first collision.
	DuplicatesError DuplicatePolicy = "error"
)

// Defaults for a React Native project laid out as ./assets/audio.
const (
	DefaultSourceDir  = "./assets/audio"
	DefaultOutputFile = "./audioManifest.js"
	DefaultPrefix     = "./assets/audio"
	DefaultExtension  = ".mp3"
	DefaultExportName = "audioManifest"
)

// ErrInvalidConfig is returned by Validate for unusable configurations.
var ErrInvalidConfig = errors.New("invalid manifest config")

// Config holds the generator inputs.
type Config struct {
	SourceDir  string
	OutputFile string
	Prefix     string
	Extension  string
	ExportName string
	TrimMode   TrimMode
	Anchor     string   // defaults to the leaf name of SourceDir
	Exclude    []string // doublestar patterns relative to SourceDir
	Duplicates DuplicatePolicy
}

// DefaultConfig returns the built-in generator settings.
func DefaultConfig() Config {
	return Config{
		SourceDir:  DefaultSourceDir,
		OutputFile: DefaultOutputFile,
		Prefix:     DefaultPrefix,
		Extension:  DefaultExtension,
		ExportName: DefaultExportName,
		TrimMode:   TrimRoot,
		Duplicates: DuplicatesLast,
	}
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.ExportName == "" {
		c.ExportName = DefaultExportName
	}
	if c.TrimMode == "" {
		c.TrimMode = TrimRoot
	}
	if c.Duplicates == "" {
		c.Duplicates = DuplicatesLast
	}
	if c.Anchor == "" {
		c.Anchor = filepath.Base(filepath.Clean(c.SourceDir))
	}
	return c
}

// Validate reports configuration errors. Extension is required; the other
// zero-valued optional fields are accepted and defaulted by the generator.
func (c Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("%w: source directory is required", ErrInvalidConfig)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("%w: output file is required", ErrInvalidConfig)
	}
	if c.Extension == "" {
		return fmt.Errorf("%w: extension must not be empty", ErrInvalidConfig)
	}

	c = c.withDefaults()

	switch c.TrimMode {
	case TrimRoot, TrimAnchor:
	default:
		return fmt.Errorf("%w: unknown trim mode %q (want %q or %q)",
			ErrInvalidConfig, c.TrimMode, TrimRoot, TrimAnchor)
	}

	switch c.Duplicates {
	case DuplicatesLast, DuplicatesError:
	default:
		return fmt.Errorf("%w: unknown duplicates policy %q (want %q or %q)",
			ErrInvalidConfig, c.Duplicates, DuplicatesLast, DuplicatesError)
	}

	if !isIdentifier(c.ExportName) {
		return fmt.Errorf("%w: export name %q is not a JavaScript identifier",
			ErrInvalidConfig, c.ExportName)
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: invalid exclude pattern %q", ErrInvalidConfig, pattern)
		}
	}

	return nil
}

// isIdentifier reports whether s is a plain ASCII JavaScript identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
