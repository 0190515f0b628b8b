// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/xorpad/lib/chunk"
	"github.com/bureau-foundation/xorpad/lib/share"
	"github.com/bureau-foundation/xorpad/lib/streamcodec"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "XORPAD_CONFIG"

// Config is the xorpad configuration.
type Config struct {
	// ChunkSize is the pipeline buffer capacity in bytes. It must be a
	// positive multiple of 8.
	// Default: 1048576
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// LockMemory mlocks every chunk buffer.
	// Default: false
	LockMemory bool `yaml:"lock_memory" json:"lock_memory"`

	// Log configures stderr logging.
	Log LogConfig `yaml:"log" json:"log"`

	// Split holds defaults for the split command.
	Split SplitConfig `yaml:"split" json:"split"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	// Format is "auto" (text on a terminal, JSON otherwise), "text" or
	// "json".
	// Default: auto
	Format string `yaml:"format" json:"format"`

	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" json:"level"`
}

// SplitConfig holds defaults for the split command.
type SplitConfig struct {
	// Shares is the number of shares to produce.
	// Default: 2
	Shares int `yaml:"shares" json:"shares"`

	// Compression is none, lz4 or zstd.
	// Default: none
	Compression string `yaml:"compression" json:"compression"`

	// OutputDir receives shares and the manifest. ${VAR} and
	// ${VAR:-default} are expanded.
	// Default: . (the working directory)
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// Log formats and levels accepted by Validate.
var (
	logFormats = []string{"auto", "text", "json"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Default returns the configuration used when no file is given, and
// the base every file is merged into.
func Default() *Config {
	return &Config{
		ChunkSize:  chunk.DefaultCapacity,
		LockMemory: false,
		Log: LogConfig{
			Format: "auto",
			Level:  "info",
		},
		Split: SplitConfig{
			Shares:      share.MinShares,
			Compression: string(streamcodec.None),
			OutputDir:   ".",
		},
	}
}

// Load loads the file named by XORPAD_CONFIG. When the variable is
// unset the defaults are returned unchanged.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults, expands
// variables and validates the result. Files ending in .json or .jsonc
// are parsed as JSON with comments and trailing commas; anything else
// as YAML. Unknown keys are rejected in both.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.decode(path, data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		return decoder.Decode(c)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// An empty file leaves the defaults in place.
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}

func (c *Config) expandVariables() {
	c.Split.OutputDir = expandVars(c.Split.OutputDir)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.ChunkSize <= 0 || c.ChunkSize%chunk.LaneSize != 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be a positive multiple of %d, got %d", chunk.LaneSize, c.ChunkSize))
	}

	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of %v, got %q", logFormats, c.Log.Format))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %v, got %q", logLevels, c.Log.Level))
	}

	if c.Split.Shares < share.MinShares {
		errs = append(errs, fmt.Errorf("split.shares must be at least %d, got %d", share.MinShares, c.Split.Shares))
	}
	if _, err := streamcodec.Parse(c.Split.Compression); err != nil {
		errs = append(errs, fmt.Errorf("split.compression: %w", err))
	}
	if c.Split.OutputDir == "" {
		errs = append(errs, errors.New("split.output_dir is required"))
	}

	return errors.Join(errs...)
}
