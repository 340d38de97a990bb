// Package config holds the simulator configuration, loaded from a TOML file
// and overridable by command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the simulator configuration
type Config struct {
	// Memory geometry
	Memory struct {
		DataWords        int `toml:"data_words"`
		InstructionWords int `toml:"instruction_words"`
	} `toml:"memory"`

	// Data cache geometry
	Cache struct {
		Size      int `toml:"size"`       // bytes
		BlockSize int `toml:"block_size"` // bytes per line
		Ways      int `toml:"ways"`
	} `toml:"cache"`

	// Trace settings
	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"` // empty = stdout
	} `toml:"trace"`

	// Statistics settings
	Statistics struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"` // empty = stdout
		Format     string `toml:"format"`      // json, csv, text
	} `toml:"statistics"`

	// Display settings
	Display struct {
		DumpRegisters bool `toml:"dump_registers"`
	} `toml:"display"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Memory defaults
	cfg.Memory.DataWords = 4096
	cfg.Memory.InstructionWords = 4096

	// Cache defaults: 256 bytes, 32-byte lines, 2 ways
	cfg.Cache.Size = 256
	cfg.Cache.BlockSize = 32
	cfg.Cache.Ways = 2

	// Trace defaults
	cfg.Trace.Enabled = true
	cfg.Trace.OutputFile = ""

	// Statistics defaults
	cfg.Statistics.Enabled = true
	cfg.Statistics.OutputFile = ""
	cfg.Statistics.Format = "text"

	// Display defaults
	cfg.Display.DumpRegisters = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "mips-emu")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "mips-emu")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from a specific file. A missing file yields
// the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes the configuration to a specific file
func (c *Config) SaveTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Memory.DataWords <= 0 {
		return fmt.Errorf("memory.data_words must be positive, got %d", c.Memory.DataWords)
	}
	if c.Memory.InstructionWords <= 0 {
		return fmt.Errorf("memory.instruction_words must be positive, got %d", c.Memory.InstructionWords)
	}
	if !isPow2(c.Cache.Size) || !isPow2(c.Cache.BlockSize) || !isPow2(c.Cache.Ways) {
		return fmt.Errorf("cache geometry must be powers of two: size %d, block_size %d, ways %d",
			c.Cache.Size, c.Cache.BlockSize, c.Cache.Ways)
	}
	if c.Cache.BlockSize > c.Cache.Size {
		return fmt.Errorf("cache block_size %d exceeds cache size %d", c.Cache.BlockSize, c.Cache.Size)
	}
	switch c.Statistics.Format {
	case "json", "csv", "text":
	default:
		return fmt.Errorf("statistics.format must be json, csv or text, got %q", c.Statistics.Format)
	}
	return nil
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
