// Package config loads the syncopy TOML configuration and resolves the disk
// API token.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"syncopy/pkg/core"
)

const (
	// AppName is the application name.
	AppName = "syncopy"
	// FileName is the config file name.
	FileName = "config.toml"
)

// Backups describes what to pack and where the archive goes.
type Backups struct {
	Include         []string `toml:"include"`
	Exclude         []string `toml:"exclude"`
	OutputDirectory string   `toml:"output_directory"`
	OutputSuffix    string   `toml:"output_suffix"`
	Compression     string   `toml:"compression"`
	Level           int      `toml:"level"`
}

// Secrets holds credentials that may live in the config file.
type Secrets struct {
	DiskToken string `toml:"disk_token"`
}

// Config is the whole configuration file.
type Config struct {
	Backups Backups `toml:"backups"`
	Secrets Secrets `toml:"secrets"`
}

// Codec returns the configured compression codec.
func (c *Config) Codec() (core.Codec, error) {
	return core.ParseCodec(c.Backups.Compression)
}

// DefaultPath returns the config file in the user config directory when it
// exists, and ./config.toml otherwise.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, AppName, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return FileName
}

// Load reads, decodes and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates TOML config data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Backups: Backups{Level: core.DefaultLevel}}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("decode at line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("decode: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	home, _ := os.UserHomeDir()
	for i, p := range cfg.Backups.Include {
		cfg.Backups.Include[i] = expandHome(p, home)
	}
	cfg.Backups.OutputDirectory = expandHome(cfg.Backups.OutputDirectory, home)

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Backups.Include) == 0 {
		return errors.New("backups.include must list at least one path")
	}
	for i, p := range c.Backups.Include {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("backups.include[%d] is empty", i)
		}
	}
	if _, err := c.Codec(); err != nil {
		return fmt.Errorf("backups.compression: %w", err)
	}
	if c.Backups.Level < core.DefaultLevel || c.Backups.Level > 9 {
		return fmt.Errorf("backups.level %d out of range -1-9", c.Backups.Level)
	}
	return nil
}

// expandHome replaces a leading "~/" with home.
func expandHome(p, home string) string {
	if home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return p
}
