package monitor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/worklens/worklens/internal/monitor"
	"github.com/worklens/worklens/internal/sampler"
)

// ── Fakes ──

type fakeTracker struct {
	calls atomic.Int64
	fail  atomic.Bool
	panic atomic.Bool
}

func (f *fakeTracker) ActiveWindow() (string, string, error) {
	f.calls.Add(1)
	if f.panic.Load() {
		panic("tracker exploded")
	}
	if f.fail.Load() {
		return "", "", errors.New("no display")
	}
	return "Code", "main.go", nil
}

type fakeCapturer struct {
	path string
	err  error
}

func (f *fakeCapturer) Capture() (string, error) { return f.path, f.err }

type createdRecord struct {
	app, title, path string
}

type fakeWriter struct {
	calls   atomic.Int64
	lastApp atomic.Value // createdRecord
}

func (f *fakeWriter) CreateRecord(ts time.Time, app, title, path string) (int64, error) {
	f.lastApp.Store(createdRecord{app: app, title: title, path: path})
	return f.calls.Add(1), nil
}

type fakeAnalyzer struct {
	calls atomic.Int64
	err   error
	block chan struct{} // when non-nil, Analyze waits until closed
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, id int64) error {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.err
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// newTestMonitor wires fakes around a fire-every-time sampler and a fast tick.
func newTestMonitor(tracker *fakeTracker, capturer *fakeCapturer, analyzer *fakeAnalyzer, writer *fakeWriter, log *zap.Logger) *monitor.Monitor {
	return monitor.New(
		sampler.New(0), // zero interval: every tick captures
		tracker, capturer, analyzer, writer,
		log,
		monitor.WithTick(2*time.Millisecond),
	)
}

// ── Tests ──

func TestDoubleStartIsNoOp(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tracker := &fakeTracker{}
	writer := &fakeWriter{}
	m := newTestMonitor(tracker, &fakeCapturer{path: "/tmp/s.png"}, &fakeAnalyzer{}, writer, zap.New(core))

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	if err := m.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !m.Running() {
		t.Fatal("monitor should still be running")
	}
	if logs.FilterMessage("monitor already running; start ignored").Len() != 1 {
		t.Error("expected a warning for the ignored second start")
	}

	// A single Stop suffices: there is only one worker.
	m.Stop()
	if m.Running() {
		t.Error("monitor should be stopped")
	}
}

func TestStopWithoutStartIsNoOp(t *testing.T) {
	m := newTestMonitor(&fakeTracker{}, &fakeCapturer{path: "/tmp/s.png"}, &fakeAnalyzer{}, &fakeWriter{}, zap.NewNop())
	m.Stop() // must not panic or hang
}

func TestStartRequiresCollaborators(t *testing.T) {
	m := monitor.New(sampler.New(0), nil, nil, nil, nil, zap.NewNop())
	if err := m.Start(); err == nil {
		t.Fatal("expected startup failure with missing collaborators")
	}
	if m.Running() {
		t.Error("monitor must not enter Running after a failed start")
	}
}

func TestTrackerFailureUsesSentinelsAndContinues(t *testing.T) {
	tracker := &fakeTracker{}
	tracker.fail.Store(true)
	writer := &fakeWriter{}
	m := newTestMonitor(tracker, &fakeCapturer{path: "/tmp/s.png"}, &fakeAnalyzer{}, writer, zap.NewNop())

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	waitFor(t, func() bool { return writer.calls.Load() >= 2 }, "records despite tracker failures")

	rec := writer.lastApp.Load().(createdRecord)
	if rec.app != monitor.UnknownApp || rec.title != monitor.UnknownTitle {
		t.Errorf("expected sentinel window values, got %q/%q", rec.app, rec.title)
	}
}

func TestCaptureFailureSkipsPersistence(t *testing.T) {
	tracker := &fakeTracker{}
	writer := &fakeWriter{}
	m := newTestMonitor(tracker, &fakeCapturer{path: ""}, &fakeAnalyzer{}, writer, zap.NewNop())

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	// The loop keeps ticking, but no record is ever created.
	waitFor(t, func() bool { return tracker.calls.Load() >= 5 }, "ticks")
	if writer.calls.Load() != 0 {
		t.Errorf("expected no records on capture failure, got %d", writer.calls.Load())
	}
}

func TestAnalyzerFailureKeepsRecordAndLoop(t *testing.T) {
	tracker := &fakeTracker{}
	writer := &fakeWriter{}
	analyzer := &fakeAnalyzer{err: errors.New("model unavailable")}
	m := newTestMonitor(tracker, &fakeCapturer{path: "/tmp/s.png"}, analyzer, writer, zap.NewNop())

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	// Records keep being created and analyzed (and failing) across ticks.
	waitFor(t, func() bool { return writer.calls.Load() >= 2 && analyzer.calls.Load() >= 2 }, "continued ticks after analyzer failure")
}

func TestTickPanicIsRecovered(t *testing.T) {
	tracker := &fakeTracker{}
	tracker.panic.Store(true)
	m := newTestMonitor(tracker, &fakeCapturer{path: "/tmp/s.png"}, &fakeAnalyzer{}, &fakeWriter{}, zap.NewNop())

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	waitFor(t, func() bool { return tracker.calls.Load() >= 3 }, "ticks despite panics")

	// Once the collaborator calms down, normal operation resumes.
	tracker.panic.Store(false)
	before := tracker.calls.Load()
	waitFor(t, func() bool { return tracker.calls.Load() > before }, "recovery after panic")
}

// Stop must wait for the in-flight tick: it returns only after the blocked
// analysis call completes.
func TestStopWaitsForInFlightTick(t *testing.T) {
	tracker := &fakeTracker{}
	analyzer := &fakeAnalyzer{block: make(chan struct{})}
	m := newTestMonitor(tracker, &fakeCapturer{path: "/tmp/s.png"}, analyzer, &fakeWriter{}, zap.NewNop())

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return analyzer.calls.Load() >= 1 }, "first analysis to start")

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a tick was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(analyzer.block)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the tick completed")
	}
}
