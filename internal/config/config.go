package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/worklens/worklens/internal/sampler"
)

// Config holds all configurable worklens settings.
type Config struct {
	IntervalMode   string `json:"interval_mode"`   // "normal" | "test"
	DataDir        string `json:"data_dir"`        // database and screenshots
	Model          string `json:"model"`           // vision model name
	ListenAddr     string `json:"listen_addr"`     // serve command bind address
	ContextSize    int    `json:"context_size"`    // prior records fed to analysis
	KeepScreenshot bool   `json:"keep_screenshot"` // skip deletion after analysis
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		IntervalMode: "normal",
		DataDir:      defaultDataDir(),
		Model:        "gemini-2.0-flash",
		ListenAddr:   "127.0.0.1:8720",
		ContextSize:  5,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".worklens"
	}
	return filepath.Join(home, ".local", "share", "worklens")
}

// Path returns the location of the user config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "worklens", "config.json"), nil
}

// Load reads the user config file, merging it over defaults.
// Returns defaults if the file is absent.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile reads and parses a JSON config file at path, merging it over
// defaults. Returns defaults when the file is absent.
func LoadFile(path string) (Config, error) {
	result := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}

	if cfg.IntervalMode != "" {
		result.IntervalMode = cfg.IntervalMode
	}
	if cfg.DataDir != "" {
		result.DataDir = cfg.DataDir
	}
	if cfg.Model != "" {
		result.Model = cfg.Model
	}
	if cfg.ListenAddr != "" {
		result.ListenAddr = cfg.ListenAddr
	}
	if cfg.ContextSize > 0 {
		result.ContextSize = cfg.ContextSize
	}
	result.KeepScreenshot = cfg.KeepScreenshot

	// The environment wins over the file, so a test run can flip the
	// interval without editing config.
	if mode := os.Getenv("WORKLENS_INTERVAL_MODE"); mode != "" {
		result.IntervalMode = mode
	}

	if err := result.Validate(); err != nil {
		return Config{}, err
	}
	return result, nil
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	switch c.IntervalMode {
	case "normal", "test":
	default:
		return fmt.Errorf("invalid interval_mode %q, want \"normal\" or \"test\"", c.IntervalMode)
	}
	return nil
}

// Interval maps the configured mode to a capture interval.
func (c Config) Interval() time.Duration {
	if c.IntervalMode == "test" {
		return sampler.TestInterval
	}
	return sampler.NormalInterval
}

// DatabasePath returns the sqlite file location under DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "worklens.db")
}

// ScreenshotDir returns the screenshot spool location under DataDir.
func (c Config) ScreenshotDir() string {
	return filepath.Join(c.DataDir, "screenshots")
}

// APIKey reads the vision model credential from the environment.
func APIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
