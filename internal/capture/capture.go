// Package capture takes screenshots with the platform screenshot tool and
// spools them to disk for later analysis.
package capture

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Capturer writes screenshots into a spool directory.
type Capturer struct {
	dir  string
	goos string
	run  func(name string, args ...string) error
	look func(name string) (string, error)
}

// New returns a Capturer spooling into dir. The directory is created on the
// first capture.
func New(dir string) *Capturer {
	return &Capturer{
		dir:  dir,
		goos: runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
		look: exec.LookPath,
	}
}

// Capture takes a screenshot and returns the file path. An unavailable
// screenshot tool yields an empty path and no error so callers can skip the
// cycle without treating it as a failure.
func (c *Capturer) Capture() (string, error) {
	tool, args, ok := c.command()
	if !ok {
		return "", nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating screenshot dir: %w", err)
	}

	name := fmt.Sprintf("screenshot_%s_%s.png",
		time.Now().Format("20060102_150405"),
		strings.Split(uuid.NewString(), "-")[0])
	path := filepath.Join(c.dir, name)

	if err := c.run(tool, append(args, path)...); err != nil {
		return "", fmt.Errorf("running %s: %w", tool, err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("screenshot file missing after %s: %w", tool, err)
	}
	return path, nil
}

// command picks the platform screenshot tool. The output path is appended by
// the caller as the final argument.
func (c *Capturer) command() (tool string, args []string, ok bool) {
	switch c.goos {
	case "darwin":
		if _, err := c.look("screencapture"); err == nil {
			return "screencapture", []string{"-x"}, true
		}
	case "linux":
		if _, err := c.look("gnome-screenshot"); err == nil {
			return "gnome-screenshot", []string{"-f"}, true
		}
		if _, err := c.look("scrot"); err == nil {
			return "scrot", nil, true
		}
	}
	return "", nil, false
}
