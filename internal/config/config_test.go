package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"

	"github.com/worklens/worklens/internal/sampler"
)

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.IntervalMode != "normal" {
		t.Errorf("IntervalMode: want %q, got %q", "normal", d.IntervalMode)
	}
	if d.Model != "gemini-2.0-flash" {
		t.Errorf("Model: want %q, got %q", "gemini-2.0-flash", d.Model)
	}
	if d.ContextSize != 5 {
		t.Errorf("ContextSize: want 5, got %d", d.ContextSize)
	}
	if d.DataDir == "" {
		t.Error("DataDir: want a non-empty default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defaults := Defaults()
	if cfg.IntervalMode != defaults.IntervalMode {
		t.Errorf("IntervalMode: want %q, got %q", defaults.IntervalMode, cfg.IntervalMode)
	}
	if cfg.ListenAddr != defaults.ListenAddr {
		t.Errorf("ListenAddr: want %q, got %q", defaults.ListenAddr, cfg.ListenAddr)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"interval_mode": "test", "listen_addr": ":9000"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IntervalMode != "test" {
		t.Errorf("IntervalMode: want %q, got %q", "test", cfg.IntervalMode)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr: want %q, got %q", ":9000", cfg.ListenAddr)
	}
	// Untouched fields keep their defaults.
	if cfg.Model != Defaults().Model {
		t.Errorf("Model: want default, got %q", cfg.Model)
	}
	if cfg.ContextSize != Defaults().ContextSize {
		t.Errorf("ContextSize: want default, got %d", cfg.ContextSize)
	}
}

func TestLoadFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestLoadFileRejectsUnknownIntervalMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"interval_mode": "fast"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error for an unknown interval_mode, got nil")
	}
}

func TestIntervalMapping(t *testing.T) {
	if got := (Config{IntervalMode: "normal"}).Interval(); got != sampler.NormalInterval {
		t.Errorf("normal interval: got %v", got)
	}
	if got := (Config{IntervalMode: "test"}).Interval(); got != sampler.TestInterval {
		t.Errorf("test interval: got %v", got)
	}
}

// Any partial config file merges to a config that validates.
func TestLoadFileAlwaysValid(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	rapid.Check(t, func(rt *rapid.T) {
		cfg := Config{}
		if rapid.Bool().Draw(rt, "hasMode") {
			cfg.IntervalMode = rapid.SampledFrom([]string{"normal", "test"}).Draw(rt, "mode")
		}
		if rapid.Bool().Draw(rt, "hasDataDir") {
			cfg.DataDir = nonEmptyString.Draw(rt, "dataDir")
		}
		if rapid.Bool().Draw(rt, "hasModel") {
			cfg.Model = nonEmptyString.Draw(rt, "model")
		}
		if rapid.Bool().Draw(rt, "hasContextSize") {
			cfg.ContextSize = rapid.IntRange(1, 50).Draw(rt, "contextSize")
		}

		data, err := json.Marshal(cfg)
		if err != nil {
			rt.Fatalf("marshal: %v", err)
		}
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			rt.Fatal(err)
		}

		loaded, err := LoadFile(path)
		if err != nil {
			rt.Fatalf("LoadFile: %v", err)
		}
		if err := loaded.Validate(); err != nil {
			rt.Fatalf("merged config fails validation: %v", err)
		}
		if cfg.IntervalMode != "" && loaded.IntervalMode != cfg.IntervalMode {
			rt.Fatalf("IntervalMode: file value %q lost, got %q", cfg.IntervalMode, loaded.IntervalMode)
		}
		if cfg.DataDir != "" && loaded.DataDir != cfg.DataDir {
			rt.Fatalf("DataDir: file value %q lost, got %q", cfg.DataDir, loaded.DataDir)
		}
	})
}
