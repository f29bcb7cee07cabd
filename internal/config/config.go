// Package config loads editor configuration from a TOML file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all user-tunable settings.
type Config struct {
	// SyntaxDir holds user *.syntax files, overriding built-in
	// definitions with the same name.
	SyntaxDir string `toml:"syntax_dir"`

	// PluginDir holds user *.lua scripts, run at startup.
	PluginDir string `toml:"plugin_dir"`

	// Theme is a theme name, or a path to a JSON theme file when it
	// contains a path separator.
	Theme string `toml:"theme"`

	// TabWidth is the display width of a tab stop.
	TabWidth int `toml:"tab_width"`

	// LiveReload re-reads syntax files when they change on disk.
	LiveReload bool `toml:"live_reload"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFile receives log output. Empty disables logging; the
	// terminal is owned by the renderer.
	LogFile string `toml:"log_file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	root := filepath.Join(base, "stanza")
	return Config{
		SyntaxDir:  filepath.Join(root, "syntax"),
		PluginDir:  filepath.Join(root, "plugins"),
		Theme:      "default",
		TabWidth:   8,
		LiveReload: true,
		LogLevel:   "info",
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "stanza", "config.toml")
}

// Load reads the configuration at path, filling unset fields with
// defaults. A missing file yields the defaults without error.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFrom(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFrom reads TOML configuration from r on top of the defaults.
func LoadFrom(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TabWidth < 1 || c.TabWidth > 64 {
		return fmt.Errorf("tab_width %d out of range [1, 64]", c.TabWidth)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
