// Package monitor runs the capture loop: once per tick it polls the
// foreground window, asks the sampler whether a capture is due, and on a
// positive decision captures, persists, and analyzes one activity record.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/worklens/worklens/internal/sampler"
)

// Sentinel window values substituted when the tracker fails. A failed window
// query must never stop the loop.
const (
	UnknownApp   = "Unknown"
	UnknownTitle = "Unknown"
)

const defaultTick = time.Second

// WindowTracker reports the current foreground application and window title.
type WindowTracker interface {
	ActiveWindow() (appName, windowTitle string, err error)
}

// Capturer takes a screenshot and returns its file path. An empty path with a
// nil error means capture is unavailable this tick.
type Capturer interface {
	Capture() (string, error)
}

// Analyzer processes a freshly persisted record. Called synchronously from
// the tick; failures are logged and never abort the loop.
type Analyzer interface {
	Analyze(ctx context.Context, recordID int64) error
}

// RecordWriter is the slice of the store the loop needs.
type RecordWriter interface {
	CreateRecord(timestamp time.Time, appName, windowTitle, screenshotPath string) (int64, error)
}

// Monitor is a start/stop state machine around the capture loop. Start and
// Stop are idempotent and safe to call from different goroutines; Stop blocks
// until the in-flight tick completes.
type Monitor struct {
	sampler  *sampler.Sampler
	tracker  WindowTracker
	capturer Capturer
	analyzer Analyzer
	writer   RecordWriter
	log      *zap.Logger
	tick     time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// Option adjusts a Monitor at construction time.
type Option func(*Monitor)

// WithTick overrides the one-second polling period. Intended for tests.
func WithTick(d time.Duration) Option {
	return func(m *Monitor) { m.tick = d }
}

// New assembles a Monitor from its collaborators.
func New(smp *sampler.Sampler, tracker WindowTracker, capturer Capturer, analyzer Analyzer, writer RecordWriter, log *zap.Logger, opts ...Option) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Monitor{
		sampler:  smp,
		tracker:  tracker,
		capturer: capturer,
		analyzer: analyzer,
		writer:   writer,
		log:      log,
		tick:     defaultTick,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the loop on its own goroutine. Calling Start while running
// logs a warning and returns nil; the loop is not duplicated. A missing
// collaborator is a fatal startup failure and the loop never enters Running.
func (m *Monitor) Start() error {
	if m.sampler == nil || m.tracker == nil || m.capturer == nil || m.analyzer == nil || m.writer == nil {
		return errors.New("monitor: missing collaborator")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		m.log.Warn("monitor already running; start ignored")
		return nil
	}

	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.log.Info("monitor started", zap.Duration("interval", m.sampler.Interval()))

	go m.run(m.stop, m.done)
	return nil
}

// Stop asks the loop to exit after the current tick and waits for it. A slow
// analysis call delays, never aborts, shutdown. Calling Stop while stopped
// logs a warning and returns.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()

	if stop == nil {
		m.log.Warn("monitor not running; stop ignored")
		return
	}

	close(stop)
	<-done
	m.log.Info("monitor stopped")
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop != nil
}

// run executes ticks until stop is closed. The stop check happens at the top
// of each cycle; there is no mid-tick preemption.
func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	m.runTick()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.runTick()
		}
	}
}

// runTick performs one monitor cycle. Nothing escaping a tick may kill the
// loop, so panics from collaborators are recovered here.
func (m *Monitor) runTick() {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("tick panicked", zap.Any("panic", r))
		}
	}()

	appName, windowTitle, err := m.tracker.ActiveWindow()
	if err != nil {
		m.log.Debug("window query failed; using sentinel values", zap.Error(err))
		appName, windowTitle = UnknownApp, UnknownTitle
	}

	now := time.Now()
	shouldCapture, reason := m.sampler.ShouldCapture(now)
	if !shouldCapture {
		m.log.Debug("skipping capture",
			zap.String("app", appName),
			zap.String("reason", reason))
		return
	}

	screenshotPath, err := m.capturer.Capture()
	if err != nil || screenshotPath == "" {
		m.log.Warn("capture failed; skipping tick", zap.Error(err))
		return
	}

	id, err := m.writer.CreateRecord(now, appName, windowTitle, screenshotPath)
	if err != nil {
		m.log.Error("persisting activity record failed", zap.Error(err))
		return
	}
	m.log.Info("captured activity",
		zap.Int64("id", id),
		zap.String("app", appName),
		zap.String("title", truncate(windowTitle, 50)),
		zap.String("reason", reason))

	// A slow analysis delays the next tick rather than racing it. Failure
	// leaves the record for the backlog sweep.
	if err := m.analyzer.Analyze(context.Background(), id); err != nil {
		m.log.Error("analysis failed", zap.Int64("id", id), zap.Error(err))
		return
	}
	m.log.Info("analysis complete", zap.Int64("id", id))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s…", s[:n])
}
