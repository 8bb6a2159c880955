package app

import (
	"fmt"

	"retrace/app/interfaces"
	"retrace/app/timeline"
)

// The timeline bindings below all target the active session; each is a thin
// delegate the frontend calls directly.

var errNoSession = fmt.Errorf("no recording open")

// GetTimelineState returns the active session's timeline state snapshot.
func (a *App) GetTimelineState() (timeline.TimelineState, error) {
	s := a.activeSession()
	if s == nil {
		return timeline.TimelineState{}, errNoSession
	}
	return s.timeline.State(), nil
}

// Seek warps the active session to a known execution point.
func (a *App) Seek(point string, time float64, hasFrames bool, pauseID string) (bool, error) {
	s := a.activeSession()
	if s == nil {
		return false, errNoSession
	}
	return s.timeline.Seek(point, time, hasFrames, pauseID), nil
}

// SeekToTime seeks the active session to a raw timeline position.
func (a *App) SeekToTime(time float64) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.SeekToTime(time)
	return nil
}

// SetCurrentTime moves the scrubber without seeking.
func (a *App) SetCurrentTime(time float64) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.SetCurrentTime(time)
	return nil
}

// SetHoverTime updates the hover preview position; negative clears it.
func (a *App) SetHoverTime(time float64) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	if time < 0 {
		s.timeline.SetHoverTime(nil)
	} else {
		s.timeline.SetHoverTime(&time)
	}
	return nil
}

// TogglePlayback starts or stops playback on the active session.
func (a *App) TogglePlayback() error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.TogglePlayback()
	return nil
}

// StartPlayback starts playback on the active session.
func (a *App) StartPlayback() error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.StartPlayback()
	return nil
}

// StopPlayback stops playback on the active session.
func (a *App) StopPlayback() error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.StopPlayback()
	return nil
}

// PrecacheScreenshots warms the screenshot cache ahead of a begin time.
func (a *App) PrecacheScreenshots(beginTime float64) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.PrecacheScreenshots(beginTime)
	return nil
}

// SetFocusRegion installs or clears the focus region. A nil-equivalent is
// requested with clear set.
func (a *App) SetFocusRegion(region *interfaces.TimeStampedPointRange) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.SetFocusRegion(region)
	return nil
}

// SetFocusRegionBeginTime moves the focus window's begin handle.
func (a *App) SetFocusRegionBeginTime(time float64, sync bool) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.SetFocusRegionBeginTime(time, sync)
	return nil
}

// SetFocusRegionEndTime moves the focus window's end handle.
func (a *App) SetFocusRegionEndTime(time float64, sync bool) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.SetFocusRegionEndTime(time, sync)
	return nil
}

// EnterFocusMode shows the focus editing controls.
func (a *App) EnterFocusMode() error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.EnterFocusMode()
	return nil
}

// ExitFocusMode hides the focus editing controls, discarding edits when
// requested.
func (a *App) ExitFocusMode(discard bool) error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.ExitFocusMode(discard)
	return nil
}

// SyncFocusedRegion forces an immediate focus-region synchronization.
func (a *App) SyncFocusedRegion() error {
	s := a.activeSession()
	if s == nil {
		return errNoSession
	}
	s.timeline.SyncFocusedRegion()
	return nil
}
