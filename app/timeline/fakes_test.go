package timeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"retrace/app/graphics"
	"retrace/app/interfaces"
	"retrace/app/transport"
)

// eventRecorder captures frontend events for assertions
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	name    string
	payload any
}

func (r *eventRecorder) Emit(name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: name, payload: payload})
}

// countEvents returns how many events with the given name were published
func (r *eventRecorder) countEvents(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.name == name {
			n++
		}
	}
	return n
}

// snapshots returns every timeline state published so far
func (r *eventRecorder) snapshots() []TimelineState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []TimelineState
	for _, ev := range r.events {
		if ev.name == EventTimelineUpdate {
			out = append(out, ev.payload.(TimelineState))
		}
	}
	return out
}

// recordingLogger counts diagnostics by level
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
	errors  int
}

func (l *recordingLogger) Log(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+message)
	if level == "error" {
		l.errors++
	}
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errors
}

type warpCall struct {
	point     string
	time      float64
	hasFrames bool
}

type loadCall struct {
	region  interfaces.TimeStampedPointRange
	zoomEnd float64
}

// fakeTransport records calls and serves canned lookups
type fakeTransport struct {
	mu            sync.Mutex
	warps         []warpCall
	pauseWarps    []string
	loads         []loadCall
	pointNearTime interfaces.TimeStampedPoint
	pointNearErr  error
	paused        *transport.Emitter[interfaces.PauseEvent]
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{paused: transport.NewEmitter[interfaces.PauseEvent]()}
}

func (f *fakeTransport) TimeWarp(point string, time float64, hasFrames bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warps = append(f.warps, warpCall{point: point, time: time, hasFrames: hasFrames})
	return nil
}

func (f *fakeTransport) TimeWarpToPause(pauseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseWarps = append(f.pauseWarps, pauseID)
	return nil
}

func (f *fakeTransport) GetPointNearTime(ctx context.Context, time float64) (interfaces.TimeStampedPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pointNearTime, f.pointNearErr
}

func (f *fakeTransport) LoadRegion(ctx context.Context, region interfaces.TimeStampedPointRange, zoomEnd float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, loadCall{region: region, zoomEnd: zoomEnd})
	return nil
}

func (f *fakeTransport) GetEndpoint(ctx context.Context) (interfaces.TimeStampedPoint, error) {
	return interfaces.TimeStampedPoint{}, nil
}

func (f *fakeTransport) OnPaused(fn func(interfaces.PauseEvent)) func() {
	return f.paused.Subscribe(fn)
}

func (f *fakeTransport) warpCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.warps)
}

func (f *fakeTransport) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

// fakeFetcher serves screenshot payloads, optionally gated on a channel so
// tests can hold fetches open
type fakeFetcher struct {
	block chan struct{}
}

func (f *fakeFetcher) GetScreenShot(ctx context.Context, point string) ([]byte, string, error) {
	if f.block != nil {
		<-f.block
	}
	return []byte("img-" + point), "image/jpeg", nil
}

// fakeBreakpoint tracks analysis coverage and re-run counts
type fakeBreakpoint struct {
	mu      sync.Mutex
	covered *interfaces.TimeStampedPointRange
	runs    int
}

func (b *fakeBreakpoint) HasAllDataForFocusRegion(focus *interfaces.TimeStampedPointRange) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.covered == nil {
		return false
	}
	if focus == nil {
		return false
	}
	return b.covered.Begin.Time <= focus.Begin.Time && focus.End.Time <= b.covered.End.Time
}

func (b *fakeBreakpoint) RunAnalysis(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runs++
	return nil
}

func (b *fakeBreakpoint) runCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs
}

type fakeAnalysis struct {
	breakpoints []Breakpoint
}

func (a *fakeAnalysis) TrackedBreakpoints() []Breakpoint {
	return a.breakpoints
}

// testRange builds a range whose points mirror its times
func testRange(begin, end float64) interfaces.TimeStampedPointRange {
	return interfaces.TimeStampedPointRange{
		Begin: interfaces.TimeStampedPoint{Point: fmt.Sprintf("%d", int64(begin)), Time: begin},
		End:   interfaces.TimeStampedPoint{Point: fmt.Sprintf("%d", int64(end)), Time: end},
	}
}

type testEnv struct {
	session   *Session
	transport *fakeTransport
	graphics  *graphics.Service
	events    *eventRecorder
	logger    *recordingLogger
}

// newTestEnv wires a session against fakes and a real graphics service. The
// zoom region is initialised to [0, zoomEnd].
func newTestEnv(zoomEnd float64) *testEnv {
	return newTestEnvWithFetcher(zoomEnd, &fakeFetcher{})
}

// newTestEnvWithFetcher is newTestEnv with a caller-supplied screenshot
// fetcher, for tests that hold fetches open.
func newTestEnvWithFetcher(zoomEnd float64, fetcher graphics.ScreenShotFetcher) *testEnv {
	ft := newFakeTransport()
	svc := graphics.NewService(fetcher, graphics.NewScreenShotCache(1<<20), nil)
	ev := &eventRecorder{}
	lg := &recordingLogger{}
	s := NewSession("test-session", "test-recording", ft, svc, nil, ev, lg)
	s.SetZoomRegion(testRange(0, zoomEnd))
	return &testEnv{session: s, transport: ft, graphics: svc, events: ev, logger: lg}
}

// addPaints populates the graphics index with paints at the given times
func (e *testEnv) addPaints(times ...float64) {
	var batch []graphics.PaintPoint
	for _, t := range times {
		batch = append(batch, graphics.PaintPoint{
			TimeStampedPoint: interfaces.TimeStampedPoint{Point: fmt.Sprintf("%d", int64(t)), Time: t},
			ScreenShotHash:   fmt.Sprintf("hash-%d", int64(t)),
		})
	}
	e.graphics.AddPaintPoints(batch)
}

// timeoutShort bounds waits for background work that completes immediately
// in tests
const timeoutShort = 2 * time.Second

func infTime() float64 {
	return math.Inf(1)
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
