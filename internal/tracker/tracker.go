// Package tracker reports the foreground application and window title for the
// current desktop session.
package tracker

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/process"
)

// Tracker reads the active window from the platform window system.
type Tracker struct {
	goos string
	run  func(name string, args ...string) (string, error)
}

// New returns a Tracker for the current platform. Platforms without a
// supported window system still get a Tracker; ActiveWindow then fails on
// every call and the caller substitutes its own placeholders.
func New() *Tracker {
	return &Tracker{goos: runtime.GOOS, run: runCommand}
}

func runCommand(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ActiveWindow returns the foreground application name and window title.
func (t *Tracker) ActiveWindow() (app, title string, err error) {
	switch t.goos {
	case "darwin":
		return t.activeWindowDarwin()
	case "linux":
		return t.activeWindowLinux()
	default:
		return "", "", fmt.Errorf("window tracking is not supported on %s", t.goos)
	}
}

const darwinScript = `tell application "System Events"
	set frontApp to first application process whose frontmost is true
	set appName to name of frontApp
	set windowTitle to ""
	try
		set windowTitle to name of front window of frontApp
	end try
	return appName & "\n" & windowTitle
end tell`

func (t *Tracker) activeWindowDarwin() (string, string, error) {
	out, err := t.run("osascript", "-e", darwinScript)
	if err != nil {
		return "", "", fmt.Errorf("querying frontmost application: %w", err)
	}
	app, title, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(app), strings.TrimSpace(title), nil
}

func (t *Tracker) activeWindowLinux() (string, string, error) {
	title, err := t.run("xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		return "", "", fmt.Errorf("reading active window title: %w", err)
	}
	pidStr, err := t.run("xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		return "", "", fmt.Errorf("reading active window pid: %w", err)
	}
	pid, err := strconv.ParseInt(pidStr, 10, 32)
	if err != nil {
		return "", "", fmt.Errorf("parsing window pid %q: %w", pidStr, err)
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", "", fmt.Errorf("looking up process %d: %w", pid, err)
	}
	app, err := proc.Name()
	if err != nil {
		return "", "", fmt.Errorf("reading name of process %d: %w", pid, err)
	}
	return app, title, nil
}
