package timeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"

	"retrace/app/interfaces"
	"retrace/app/regions"
)

// Tuned thresholds carried over from the product. None of these are
// structural invariants.
const (
	// frameInterval paces the playback loop, standing in for the display
	// refresh callback of the embedded frontend.
	frameInterval = 16 * time.Millisecond
	// stalledTimeout bounds the wait for an in-flight graphics fetch before
	// playback surfaces a stalled indicator.
	stalledTimeout = 500 * time.Millisecond
	// driftThreshold is how far a stall may push real time past the target
	// before the playback anchor is reset to avoid a visible jump.
	driftThreshold = 100 * time.Millisecond
	// mouseSkipThreshold drops mouse-only events this close to the cursor;
	// they are noise for playback purposes.
	mouseSkipThreshold = 100.0
	// focusSyncDebounce batches focus-region synchronization while a drag
	// is still in progress.
	focusSyncDebounce = 400 * time.Millisecond
)

// Session owns the timeline state of one open recording and schedules all
// asynchronous work against it. All mutation goes through its transition
// methods; concurrent callbacks never write fields directly. Stale async
// results are discarded by generation counters captured at request time.
type Session struct {
	ID          string
	RecordingID string

	mu    sync.Mutex
	state TimelineState

	transport Transport
	graphics  GraphicsSource
	analysis  AnalysisSource
	events    interfaces.Events
	logger    interfaces.Logger

	// injectable clock and frame pacing so scheduler tests run deterministically
	now   func() time.Time
	sleep func(time.Duration)

	// generation counters; a later request of the same kind supersedes the
	// result of an earlier one
	playbackGen int64
	seekGen     int64
	videoGen    int64

	// playback loop internals
	fetchMu sync.Mutex
	fetch   *playbackFetch

	// precache walk high-water mark, in recording milliseconds; -1 until
	// the first walk is requested
	precacheMu        sync.Mutex
	precacheBeginTime float64

	// pause bookkeeping cleared on every new seek
	currentPauseID string

	syncDebounced func(func())
	cancelPaused  func()
}

// NewSession creates the engine for one recording. The zoom region starts
// empty and grows as the backend describes the recording; analysis may be
// nil when no breakpoint subsystem is attached.
func NewSession(id, recordingID string, t Transport, g GraphicsSource, a AnalysisSource, ev interfaces.Events, logger interfaces.Logger) *Session {
	s := &Session{
		ID:                id,
		RecordingID:       recordingID,
		transport:         t,
		graphics:          g,
		analysis:          a,
		events:            ev,
		logger:            logger,
		now:               time.Now,
		sleep:             time.Sleep,
		precacheBeginTime: -1,
		syncDebounced:     debounce.New(focusSyncDebounce),
	}
	s.cancelPaused = t.OnPaused(s.handlePaused)
	return s
}

// Teardown unsubscribes from transport events and stops playback. The
// session must not be used afterwards.
func (s *Session) Teardown() {
	s.StopPlayback()
	if s.cancelPaused != nil {
		s.cancelPaused()
		s.cancelPaused = nil
	}
}

// State returns a snapshot of the timeline state.
func (s *Session) State() TimelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked deep-copies the state so callers can't alias internal
// pointers. Callers hold s.mu.
func (s *Session) snapshotLocked() TimelineState {
	snap := s.state
	if s.state.HoverTime != nil {
		v := *s.state.HoverTime
		snap.HoverTime = &v
	}
	if s.state.FocusRegion != nil {
		v := *s.state.FocusRegion
		snap.FocusRegion = &v
	}
	if s.state.FocusRegionBackup != nil {
		v := *s.state.FocusRegionBackup
		snap.FocusRegionBackup = &v
	}
	if s.state.Playback != nil {
		v := *s.state.Playback
		snap.Playback = &v
	}
	snap.LoadedRegions = append([]interfaces.TimeStampedPointRange(nil), s.state.LoadedRegions...)
	return snap
}

// emitState publishes the current state snapshot to the frontend.
func (s *Session) emitState() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if s.events != nil {
		s.events.Emit(EventTimelineUpdate, snap)
	}
}

func (s *Session) log(level, format string, args ...any) {
	if s.logger != nil {
		s.logger.Log(level, fmt.Sprintf(format, args...))
	}
}

// clampLocked re-establishes 0 <= CurrentTime <= zoom end. Callers hold s.mu.
func (s *Session) clampLocked() {
	if s.state.CurrentTime < 0 {
		s.state.CurrentTime = 0
	}
	if end := s.state.ZoomRegion.End.Time; s.state.CurrentTime > end {
		s.state.CurrentTime = end
	}
}

// SetCurrentTime moves the scrubber, clamped to the zoom region.
func (s *Session) SetCurrentTime(time float64) {
	s.mu.Lock()
	s.state.CurrentTime = time
	s.clampLocked()
	s.mu.Unlock()
	s.emitState()
}

// SetHoverTime updates the transient preview position. A non-nil hover time
// triggers a best-effort screenshot prefetch so the preview appears without
// delay; fetch failures are swallowed.
func (s *Session) SetHoverTime(time *float64) {
	s.mu.Lock()
	s.state.HoverTime = time
	s.mu.Unlock()
	s.emitState()

	if time == nil {
		return
	}
	t := *time
	go func() {
		if _, err := s.graphics.GetGraphicsAtTime(context.Background(), t, true); err != nil {
			s.log("debug", "[TIMELINE] Hover prefetch at %v failed: %v", t, err)
		}
	}()
}

// SetZoomRegion extends the outer bound of the recording as the backend
// describes more of it. The focus region and current time are re-clamped.
func (s *Session) SetZoomRegion(zoom interfaces.TimeStampedPointRange) {
	s.mu.Lock()
	s.state.ZoomRegion = zoom
	if f := s.state.FocusRegion; f != nil {
		f.Begin.Time = regions.ClampTime(f.Begin.Time, zoom)
		f.End.Time = regions.ClampTime(f.End.Time, zoom)
	}
	s.clampLocked()
	s.mu.Unlock()
	s.emitState()
}

// AddLoadedRegions merges newly confirmed regions into the loaded set. The
// set only grows; announcements never retract coverage.
func (s *Session) AddLoadedRegions(rs []interfaces.TimeStampedPointRange) {
	s.mu.Lock()
	s.state.LoadedRegions = regions.Union(s.state.LoadedRegions, rs)
	s.mu.Unlock()
	s.emitState()
}

// LoadedRegions returns the regions confirmed queryable by the backend.
func (s *Session) LoadedRegions() []interfaces.TimeStampedPointRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interfaces.TimeStampedPointRange(nil), s.state.LoadedRegions...)
}

// setStalled flips the stalled indicator.
func (s *Session) setStalled(stalled bool) {
	s.mu.Lock()
	changed := s.state.Stalled != stalled
	s.state.Stalled = stalled
	s.mu.Unlock()
	if changed {
		s.emitState()
	}
}

// setPlaybackPrecachedTime advances the precache watermark. Progress is
// monotonically non-decreasing except for explicit rollback in
// PrecacheScreenshots.
func (s *Session) setPlaybackPrecachedTime(time float64) {
	s.mu.Lock()
	if time <= s.state.PlaybackPrecachedTime {
		s.mu.Unlock()
		return
	}
	s.state.PlaybackPrecachedTime = time
	s.mu.Unlock()
	s.emitState()
}

// clearPendingPauseState forgets the per-frame pause UI state so a stale
// execution-position highlight cannot linger across an unrelated seek.
func (s *Session) clearPendingPauseState() {
	s.mu.Lock()
	s.currentPauseID = ""
	s.mu.Unlock()
}

// handlePaused reacts to backend pause notifications, including pauses
// initiated by other collaborators.
func (s *Session) handlePaused(ev interfaces.PauseEvent) {
	s.mu.Lock()
	s.currentPauseID = ev.PauseID
	s.state.CurrentTime = ev.Time
	s.clampLocked()
	s.mu.Unlock()
	s.emitState()
}

// resolvePointAtOrAfter binary-searches the known points for the first point
// at or after the given time.
func (s *Session) resolvePointAtOrAfter(time float64) (interfaces.TimeStampedPoint, bool) {
	pts := s.graphics.Points()
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Time >= time })
	if i == len(pts) {
		return interfaces.TimeStampedPoint{}, false
	}
	return pts[i], true
}

// resolvePointAtOrBefore binary-searches the known points for the last point
// at or before the given time.
func (s *Session) resolvePointAtOrBefore(time float64) (interfaces.TimeStampedPoint, bool) {
	pts := s.graphics.Points()
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Time > time })
	if i == 0 {
		return interfaces.TimeStampedPoint{}, false
	}
	return pts[i-1], true
}
