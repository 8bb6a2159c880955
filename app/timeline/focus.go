package timeline

import (
	"context"

	"retrace/app/interfaces"
	"retrace/app/regions"
)

// defaultFocusWindowFraction sizes the focus window created when focus mode
// is entered with no existing region: this fraction of the zoom span,
// centered on the current time.
const defaultFocusWindowFraction = 0.3

// SetFocusRegion installs a focus region, or clears it with nil. The
// request is clamped to the zoom region; a request whose end precedes its
// begin after clamping is rejected with a diagnostic and leaves the stored
// region untouched (the drag-handle wrappers below resolve that conflict
// before it gets here). Playback always stops first: a moving focus window
// and a moving cursor must never race.
func (s *Session) SetFocusRegion(r *interfaces.TimeStampedPointRange) {
	s.StopPlayback()

	if r == nil {
		s.mu.Lock()
		s.state.FocusRegion = nil
		s.mu.Unlock()
		s.emitState()
		return
	}

	s.mu.Lock()
	zoom := s.state.ZoomRegion
	beginTime := regions.ClampTime(r.Begin.Time, zoom)
	endTime := regions.ClampTime(r.End.Time, zoom)
	if endTime < beginTime {
		s.mu.Unlock()
		s.log("error", "[TIMELINE] Invalid focus region: end %v precedes begin %v", endTime, beginTime)
		return
	}
	s.setFocusWindowLocked(beginTime, endTime)
	s.mu.Unlock()
	s.emitState()
}

// setFocusWindowLocked stores the focus window, resolving its endpoints to
// real execution points: the first known point at or after the begin and
// the last known point at or before the end. Until points are known the
// zoom region's own endpoints stand in. Callers hold s.mu.
func (s *Session) setFocusWindowLocked(beginTime, endTime float64) {
	zoom := s.state.ZoomRegion
	begin := interfaces.TimeStampedPoint{Point: zoom.Begin.Point, Time: beginTime}
	end := interfaces.TimeStampedPoint{Point: zoom.End.Point, Time: endTime}
	if p, ok := s.resolvePointAtOrAfter(beginTime); ok && p.Time <= endTime {
		begin = p
	}
	if p, ok := s.resolvePointAtOrBefore(endTime); ok && p.Time >= begin.Time {
		end = p
	}
	s.state.FocusRegion = &interfaces.TimeStampedPointRange{Begin: begin, End: end}
}

// SetFocusRegionBeginTime moves the focus window's begin handle. Dragging
// the begin handle past the end pins the end to the new begin rather than
// inverting the window. With sync set the backend synchronizes immediately;
// otherwise synchronization is debounced for the duration of the drag.
func (s *Session) SetFocusRegionBeginTime(time float64, sync bool) {
	s.StopPlayback()

	s.mu.Lock()
	zoom := s.state.ZoomRegion
	beginTime := regions.ClampTime(time, zoom)
	endTime := zoom.End.Time
	if f := s.state.FocusRegion; f != nil {
		endTime = f.End.Time
	}
	if endTime < beginTime {
		endTime = beginTime
	}
	s.setFocusWindowLocked(beginTime, endTime)
	s.nudgeDisplayedTimeLocked(beginTime, endTime, true)
	s.mu.Unlock()
	s.emitState()

	s.scheduleSync(sync)
}

// SetFocusRegionEndTime moves the focus window's end handle; the mirror of
// SetFocusRegionBeginTime.
func (s *Session) SetFocusRegionEndTime(time float64, sync bool) {
	s.StopPlayback()

	s.mu.Lock()
	zoom := s.state.ZoomRegion
	endTime := regions.ClampTime(time, zoom)
	beginTime := zoom.Begin.Time
	if f := s.state.FocusRegion; f != nil {
		beginTime = f.Begin.Time
	}
	if endTime < beginTime {
		beginTime = endTime
	}
	s.setFocusWindowLocked(beginTime, endTime)
	s.nudgeDisplayedTimeLocked(beginTime, endTime, false)
	s.mu.Unlock()
	s.emitState()

	s.scheduleSync(sync)
}

// nudgeDisplayedTimeLocked keeps the displayed and hover times inside a
// resized window, snapping to whichever bound the user just moved. Callers
// hold s.mu.
func (s *Session) nudgeDisplayedTimeLocked(beginTime, endTime float64, beginMoved bool) {
	snap := endTime
	if beginMoved {
		snap = beginTime
	}
	if s.state.CurrentTime < beginTime || s.state.CurrentTime > endTime {
		s.state.CurrentTime = snap
		s.clampLocked()
	}
	if h := s.state.HoverTime; h != nil && (*h < beginTime || *h > endTime) {
		v := snap
		s.state.HoverTime = &v
	}
}

func (s *Session) scheduleSync(immediate bool) {
	if immediate {
		s.SyncFocusedRegion()
		return
	}
	s.syncDebounced(func() { s.SyncFocusedRegion() })
}

// EnterFocusMode shows the focus editing controls, backing up the current
// region so cancel can revert. With no region in place yet, a default
// window is created around the current time, clamped to the zoom bounds.
func (s *Session) EnterFocusMode() {
	s.StopPlayback()

	s.mu.Lock()
	s.state.ShowFocusModeControls = true
	if s.state.FocusRegion != nil {
		backup := *s.state.FocusRegion
		s.state.FocusRegionBackup = &backup
		s.mu.Unlock()
		s.emitState()
		return
	}

	s.state.FocusRegionBackup = nil
	zoom := s.state.ZoomRegion
	window := (zoom.End.Time - zoom.Begin.Time) * defaultFocusWindowFraction
	beginTime := regions.ClampTime(s.state.CurrentTime-window/2, zoom)
	endTime := regions.ClampTime(s.state.CurrentTime+window/2, zoom)
	s.setFocusWindowLocked(beginTime, endTime)
	s.mu.Unlock()
	s.emitState()
}

// ExitFocusMode hides the focus controls. With discard set the focus region
// reverts to the backup taken when focus mode was entered; otherwise the
// edited region stands and the backend synchronizes to it.
func (s *Session) ExitFocusMode(discard bool) {
	s.mu.Lock()
	s.state.ShowFocusModeControls = false
	if discard {
		s.state.FocusRegion = s.state.FocusRegionBackup
	}
	s.state.FocusRegionBackup = nil
	s.mu.Unlock()
	s.emitState()

	if !discard {
		s.SyncFocusedRegion()
	}
}

// SyncFocusedRegion tells the backend to load exactly the focused range,
// then re-runs the analyses whose cached coverage no longer spans the new
// focus region. Narrowing inside previously covered bounds triggers no new
// work; widening beyond them does.
func (s *Session) SyncFocusedRegion() {
	s.mu.Lock()
	var focus *interfaces.TimeStampedPointRange
	region := s.state.ZoomRegion
	if f := s.state.FocusRegion; f != nil {
		c := *f
		focus = &c
		region = c
	}
	zoomEnd := s.state.ZoomRegion.End.Time
	s.mu.Unlock()

	if err := s.transport.LoadRegion(context.Background(), region, zoomEnd); err != nil {
		s.log("error", "[TIMELINE] Load region [%v, %v] failed: %v", region.Begin.Time, region.End.Time, err)
	}

	if s.analysis == nil {
		return
	}
	for _, bp := range s.analysis.TrackedBreakpoints() {
		if bp.HasAllDataForFocusRegion(focus) {
			continue
		}
		if err := bp.RunAnalysis(context.Background()); err != nil {
			s.log("error", "[TIMELINE] Analysis re-run failed: %v", err)
		}
	}
}
