// Package config loads and saves the debugger shell's own preferences: the
// ambient concern of "how the shell behaves", never VM program state. VM
// state persistence is handled explicitly by the load/dump commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the interactive debugger's own preferences.
type Config struct {
	// Execution settings.
	Execution struct {
		// EscapeChar, if non-empty, is the single character that
		// interrupts a blocked `in` instruction. Empty disables this
		// mechanism.
		EscapeChar string `toml:"escape_char"`
	} `toml:"execution"`

	// Debugger shell settings.
	Debugger struct {
		HistorySize int  `toml:"history_size"`
		ConfirmR7   bool `toml:"confirm_r7"`
	} `toml:"debugger"`

	// Display settings.
	Display struct {
		ColorOutput  bool   `toml:"color_output"`
		NumberFormat string `toml:"number_format"` // hex, dec
	} `toml:"display"`
}

// DefaultConfig returns the shell's out-of-the-box preferences.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.EscapeChar = ""

	cfg.Debugger.HistorySize = 100
	cfg.Debugger.ConfirmR7 = false

	cfg.Display.ColorOutput = false
	cfg.Display.NumberFormat = "hex"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "synacor-vm")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "synacor-vm")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file is
// not an error: it yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// ResolveEscapeChar returns the configured escape byte and whether one is
// set. A multi-byte string uses only its first byte.
func (c *Config) ResolveEscapeChar() (byte, bool) {
	if len(c.Execution.EscapeChar) == 0 {
		return 0, false
	}
	return c.Execution.EscapeChar[0], true
}
