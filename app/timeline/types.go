// Package timeline implements the playback and focus-region engine: it owns
// the notion of current time, zoom region, focus region and loaded regions
// for a recording session, drives real-time playback of graphics frames with
// ahead-of-cursor precaching, and keeps seek and focus edits consistent with
// what the backend has actually loaded.
package timeline

import (
	"context"
	"time"

	"retrace/app/graphics"
	"retrace/app/interfaces"
)

// PlaybackState is non-nil while playback is running. BeginTime and
// BeginDate anchor the wall-clock-to-recording-time mapping so elapsed real
// time maps one to one onto elapsed recording time; Time is the cursor's
// current logical position and is monotonically non-decreasing until
// playback stops or restarts.
type PlaybackState struct {
	BeginTime float64   `json:"beginTime"`
	BeginDate time.Time `json:"beginDate"`
	Time      float64   `json:"time"`
}

// TimelineState is the single source of truth the frontend renders. It is
// mutated only through named transitions on a Session, each of which
// re-establishes the invariants: CurrentTime clamped to the zoom region, a
// non-nil focus region nested inside the zoom region, and loaded regions
// that only ever grow.
type TimelineState struct {
	CurrentTime           float64                            `json:"currentTime"`
	HoverTime             *float64                           `json:"hoverTime"`
	ZoomRegion            interfaces.TimeStampedPointRange   `json:"zoomRegion"`
	FocusRegion           *interfaces.TimeStampedPointRange  `json:"focusRegion"`
	FocusRegionBackup     *interfaces.TimeStampedPointRange  `json:"focusRegionBackup"`
	Playback              *PlaybackState                     `json:"playback"`
	PlaybackPrecachedTime float64                            `json:"playbackPrecachedTime"`
	Stalled               bool                               `json:"stalled"`
	LoadedRegions         []interfaces.TimeStampedPointRange `json:"loadedRegions"`
	ShowFocusModeControls bool                               `json:"showFocusModeControls"`
}

// Transport is the recording-session backend as seen by the engine. The
// websocket client in app/transport implements it; tests use fakes.
type Transport interface {
	TimeWarp(point string, time float64, hasFrames bool) error
	TimeWarpToPause(pauseID string) error
	GetPointNearTime(ctx context.Context, time float64) (interfaces.TimeStampedPoint, error)
	LoadRegion(ctx context.Context, region interfaces.TimeStampedPointRange, zoomEnd float64) error
	GetEndpoint(ctx context.Context) (interfaces.TimeStampedPoint, error)
	OnPaused(fn func(interfaces.PauseEvent)) (cancel func())
}

// GraphicsSource resolves instants to frames and answers the ordered
// paint/mouse queries the scheduler walks. graphics.Service implements it.
type GraphicsSource interface {
	GetGraphicsAtTime(ctx context.Context, time float64, precacheOnly bool) (*graphics.Frame, error)
	NextPaintOrMouseEvent(time float64) (graphics.Event, bool)
	NearestEvent(time float64) (graphics.Event, bool)
	MostRecentPaint(time float64) (graphics.PaintPoint, bool)
	LastPaint() (graphics.PaintPoint, bool)
	LastPaintOrMouseEvent() (graphics.Event, bool)
	HasScreenShot(hash string) bool
	Points() []interfaces.TimeStampedPoint
}

// Breakpoint is the slice of the analysis subsystem the focus synchronizer
// needs: a coverage predicate and a re-run command. The engine owns only the
// invalidation decision, never analysis state.
type Breakpoint interface {
	HasAllDataForFocusRegion(focus *interfaces.TimeStampedPointRange) bool
	RunAnalysis(ctx context.Context) error
}

// AnalysisSource enumerates the currently tracked breakpoints.
type AnalysisSource interface {
	TrackedBreakpoints() []Breakpoint
}

// FrameUpdate is the payload of graphics:update events.
type FrameUpdate struct {
	Time  float64         `json:"time"`
	Frame *graphics.Frame `json:"frame"`
}

// event names pushed to the frontend
const (
	EventTimelineUpdate = "timeline:update"
	EventGraphicsUpdate = "graphics:update"
)
