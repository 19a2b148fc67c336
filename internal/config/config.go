// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/deskshell/internal/permissions"
	"github.com/jeranaias/deskshell/internal/util"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete deskshell configuration.
type Config struct {
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Output      OutputConfig      `toml:"output"`
	Permissions PermissionsConfig `toml:"permissions"`
	Platform    PlatformConfig    `toml:"platform"`
	Console     ConsoleConfig     `toml:"console"`
}

// StorageConfig locates the audit database.
type StorageConfig struct {
	// Path of the SQLite database. Ignored when InMemory is set.
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

// LoggingConfig controls the rotating log file.
type LoggingConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// OutputConfig sets the audit output sizes, in characters.
type OutputConfig struct {
	PreviewLength     int `toml:"preview_length"`
	CompressThreshold int `toml:"compress_threshold"`
	MaxStoredLength   int `toml:"max_stored_length"`
}

// PermissionsConfig lists the granted permission identifiers.
type PermissionsConfig struct {
	Granted  []string `toml:"granted"`
	AllowAll bool     `toml:"allow_all"`
}

// PlatformConfig describes the host platform.
type PlatformConfig struct {
	Version int `toml:"version"`
}

// ConsoleConfig controls the interactive console.
type ConsoleConfig struct {
	Prompt      string `toml:"prompt"`
	HistoryFile string `toml:"history_file"`
	Color       string `toml:"color"` // auto, always, never
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultPlatformVersion is the platform version assumed when none is set.
const DefaultPlatformVersion = 1

// Default returns a Config with sensible default values.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "deskshell")
	}

	return &Config{
		Storage: StorageConfig{
			Path: filepath.Join(dir, "audit.db"),
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Dir:        filepath.Join(dir, "logs"),
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Output: OutputConfig{
			PreviewLength:     200,
			CompressThreshold: 1024,
			MaxStoredLength:   10240,
		},
		Permissions: PermissionsConfig{
			Granted: []string{},
		},
		Platform: PlatformConfig{
			Version: DefaultPlatformVersion,
		},
		Console: ConsoleConfig{
			Prompt:      "deskshell> ",
			HistoryFile: filepath.Join(dir, "history"),
			Color:       "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the deskshell configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".deskshell"), nil
}

// DefaultPath returns the path to the TOML config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD & SAVE
// =============================================================================

// Load reads the config at path (DefaultPath when empty), then applies
// environment overrides and validates. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as TOML to path with owner-only permissions.
func Save(cfg *Config, path string) error {
	err := util.WriteFileAtomic(path, 0600, func(w io.Writer) error {
		io.WriteString(w, "# deskshell configuration file\n")
		io.WriteString(w, "# Generated by deskshell - edit with care\n\n")
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetDefaults fills empty fields that must not stay empty.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Storage.Path == "" {
		c.Storage.Path = d.Storage.Path
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = d.Logging.Dir
	}
	if c.Console.Prompt == "" {
		c.Console.Prompt = d.Console.Prompt
	}
	if c.Console.Color == "" {
		c.Console.Color = d.Console.Color
	}
	if c.Output.PreviewLength == 0 {
		c.Output.PreviewLength = d.Output.PreviewLength
	}
	if c.Output.CompressThreshold == 0 {
		c.Output.CompressThreshold = d.Output.CompressThreshold
	}
	if c.Output.MaxStoredLength == 0 {
		c.Output.MaxStoredLength = d.Output.MaxStoredLength
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - DESKSHELL_DB: overrides storage.path (":memory:" selects in-memory)
//   - DESKSHELL_LOG_DIR: overrides logging.dir
//   - DESKSHELL_PERMISSIONS: comma-separated list replacing permissions.granted
//   - DESKSHELL_PLATFORM_VERSION: overrides platform.version
//   - DESKSHELL_NO_COLOR / NO_COLOR: sets console.color to never
func (c *Config) ApplyEnvOverrides() {
	if db := os.Getenv("DESKSHELL_DB"); db != "" {
		if db == ":memory:" {
			c.Storage.InMemory = true
		} else {
			c.Storage.Path = db
		}
	}

	if dir := os.Getenv("DESKSHELL_LOG_DIR"); dir != "" {
		c.Logging.Dir = dir
	}

	if perms, ok := os.LookupEnv("DESKSHELL_PERMISSIONS"); ok {
		c.Permissions.Granted = permissions.ParseList(perms)
	}

	if v := os.Getenv("DESKSHELL_PLATFORM_VERSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Platform.Version = n
		}
	}

	if os.Getenv("DESKSHELL_NO_COLOR") != "" || os.Getenv("NO_COLOR") != "" {
		c.Console.Color = "never"
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !c.Storage.InMemory && strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, ValidationError{"storage.path", "must be set unless in_memory is true"})
	}

	if c.Logging.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{"logging.max_size_mb", "cannot be negative"})
	}
	if c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{"logging.max_backups", "cannot be negative"})
	}
	if c.Logging.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{"logging.max_age_days", "cannot be negative"})
	}

	o := c.Output
	if o.PreviewLength <= 0 {
		errs = append(errs, ValidationError{"output.preview_length", "must be positive"})
	}
	if o.CompressThreshold < o.PreviewLength {
		errs = append(errs, ValidationError{"output.compress_threshold",
			fmt.Sprintf("must be at least preview_length (%d)", o.PreviewLength)})
	}
	if o.MaxStoredLength < o.CompressThreshold {
		errs = append(errs, ValidationError{"output.max_stored_length",
			fmt.Sprintf("must be at least compress_threshold (%d)", o.CompressThreshold)})
	}

	if c.Platform.Version < 0 {
		errs = append(errs, ValidationError{"platform.version", "cannot be negative"})
	}

	switch c.Console.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, ValidationError{"console.color",
			fmt.Sprintf("invalid value '%s', must be one of: auto, always, never", c.Console.Color)})
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Permissions.Granted = append([]string(nil), c.Permissions.Granted...)
	return &clone
}

// String renders the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
