package capture

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRun records the invocation and writes the output file the real tool
// would produce.
func fakeRun(t *testing.T, calls *[][]string, fail bool) func(string, ...string) error {
	t.Helper()
	return func(name string, args ...string) error {
		*calls = append(*calls, append([]string{name}, args...))
		if fail {
			return errors.New("exit status 1")
		}
		path := args[len(args)-1]
		return os.WriteFile(path, []byte("png"), 0o644)
	}
}

func TestCaptureWritesUniqueFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	var calls [][]string
	c := &Capturer{
		dir:  dir,
		goos: "darwin",
		run:  fakeRun(t, &calls, false),
		look: func(string) (string, error) { return "/usr/sbin/screencapture", nil },
	}

	first, err := c.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	second, err := c.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if first == second {
		t.Errorf("paths must be unique, both %q", first)
	}
	for _, p := range []string{first, second} {
		if !strings.HasPrefix(filepath.Base(p), "screenshot_") || !strings.HasSuffix(p, ".png") {
			t.Errorf("unexpected file name %q", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing screenshot file %q: %v", p, err)
		}
	}
	if calls[0][0] != "screencapture" || calls[0][1] != "-x" {
		t.Errorf("unexpected invocation %v", calls[0])
	}
}

func TestCaptureNoToolAvailable(t *testing.T) {
	c := &Capturer{
		dir:  t.TempDir(),
		goos: "linux",
		run: func(name string, args ...string) error {
			t.Fatal("no command should run without a tool")
			return nil
		},
		look: func(string) (string, error) { return "", errors.New("not found") },
	}

	path, err := c.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty when no tool exists", path)
	}
}

func TestCaptureLinuxFallsBackToScrot(t *testing.T) {
	var calls [][]string
	c := &Capturer{
		dir:  t.TempDir(),
		goos: "linux",
		run:  fakeRun(t, &calls, false),
		look: func(name string) (string, error) {
			if name == "scrot" {
				return "/usr/bin/scrot", nil
			}
			return "", errors.New("not found")
		},
	}

	if _, err := c.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if calls[0][0] != "scrot" {
		t.Errorf("expected scrot, got %v", calls[0])
	}
}

func TestCaptureToolFailure(t *testing.T) {
	var calls [][]string
	c := &Capturer{
		dir:  t.TempDir(),
		goos: "darwin",
		run:  fakeRun(t, &calls, true),
		look: func(string) (string, error) { return "/usr/sbin/screencapture", nil },
	}

	if _, err := c.Capture(); err == nil {
		t.Fatal("expected error when the tool fails")
	}
}
