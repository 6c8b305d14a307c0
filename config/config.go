package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the emulator configuration
type Config struct {
	// Execution settings
	Execution struct {
		MaxCycles    int64  `toml:"max_cycles"`
		XMemLoadAddr uint32 `toml:"xmem_load_addr"`
		DefaultDtype string `toml:"default_dtype"`
		EnableTrace  bool   `toml:"enable_trace"`
		EnableStats  bool   `toml:"enable_stats"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize    int  `toml:"history_size"`
		AutoSaveBreaks bool `toml:"auto_save_breakpoints"`
		ShowRegisters  bool `toml:"show_registers"`
		ShowXMem       bool `toml:"show_xmem"`
	} `toml:"debugger"`

	// Monitor settings: the HTTP+WebSocket live-state broadcaster
	Monitor struct {
		Enabled       bool   `toml:"enabled"`
		ListenAddr    string `toml:"listen_addr"`
		BroadcastFreq int    `toml:"broadcast_every_n_cycles"`
	} `toml:"monitor"`

	// Display settings
	Display struct {
		ColorOutput  bool   `toml:"color_output"`
		BytesPerLine int    `toml:"bytes_per_line"`
		RegContext   int    `toml:"register_context"`
		NumberFormat string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	// Trace settings
	Trace struct {
		OutputFile    string `toml:"output_file"`
		FilterRegs    string `toml:"filter_registers"` // comma-separated: "LR0,LR1,CR0"
		IncludeTiming bool   `toml:"include_timing"`
		MaxEntries    int    `toml:"max_entries"`
	} `toml:"trace"`

	// Statistics settings
	Statistics struct {
		OutputFile     string `toml:"output_file"`
		Format         string `toml:"format"` // json, csv
		CollectHotPath bool   `toml:"collect_hotpath"`
	} `toml:"statistics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Execution defaults
	cfg.Execution.MaxCycles = 1000000
	cfg.Execution.XMemLoadAddr = 0
	cfg.Execution.DefaultDtype = "int8"
	cfg.Execution.EnableTrace = false
	cfg.Execution.EnableStats = false

	// Debugger defaults
	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.AutoSaveBreaks = true
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.ShowXMem = false

	// Monitor defaults
	cfg.Monitor.Enabled = false
	cfg.Monitor.ListenAddr = "127.0.0.1:9090"
	cfg.Monitor.BroadcastFreq = 1

	// Display defaults
	cfg.Display.ColorOutput = true
	cfg.Display.BytesPerLine = 16
	cfg.Display.RegContext = 5
	cfg.Display.NumberFormat = "hex"

	// Trace defaults
	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.FilterRegs = ""
	cfg.Trace.IncludeTiming = true
	cfg.Trace.MaxEntries = 100000

	// Statistics defaults
	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"
	cfg.Statistics.CollectHotPath = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\ipu-emu\config.toml
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "ipu-emu")

	case "darwin", "linux":
		// macOS/Linux: ~/.config/ipu-emu/config.toml
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to current directory
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "ipu-emu")

	default:
		// Unknown platform: use current directory
		return "config.toml"
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0750); err != nil {
		// If we can't create the directory, fall back to current directory
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\ipu-emu\logs
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "ipu-emu", "logs")

	case "darwin", "linux":
		// macOS/Linux: ~/.local/share/ipu-emu/logs
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "ipu-emu", "logs")

	default:
		return "logs"
	}

	// Ensure directory exists
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read and parse config file
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file
	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	// Encode to TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
