package timeline

import (
	"context"
	"math"
	"sync/atomic"

	"retrace/app/interfaces"
	"retrace/app/regions"
)

// Seek moves the session to a point in the recording. With a pauseID the
// warp goes straight to the already-materialised pause. Otherwise the warp
// is only issued when the target time lies inside a loaded region; outside
// loaded data the backend would fail the pause, so the engine degrades to a
// display-only update: current time moves and the frame refreshes
// best-effort, but no real pause exists. The return value reports whether a
// real warp was issued, so callers can distinguish the two.
func (s *Session) Seek(point string, time float64, hasFrames bool, pauseID string) bool {
	s.clearPendingPauseState()

	if pauseID != "" {
		if err := s.transport.TimeWarpToPause(pauseID); err != nil {
			s.log("error", "[TIMELINE] Warp to pause %s failed: %v", pauseID, err)
			return false
		}
		s.SetCurrentTime(time)
		return true
	}

	if regions.IsTimeInRegions(time, s.LoadedRegions()) {
		if err := s.transport.TimeWarp(point, time, hasFrames); err != nil {
			s.log("error", "[TIMELINE] Time warp to %v failed: %v", time, err)
			return false
		}
		s.SetCurrentTime(time)
		return true
	}

	// Degraded mode: update the displayed time and refresh the video frame
	// without a true pause.
	s.SetCurrentTime(time)
	gen := atomic.AddInt64(&s.videoGen, 1)
	go s.refreshVideoFrame(gen, time)
	return false
}

// refreshVideoFrame renders the frame for a display-only seek. The result
// is dropped when a newer seek has superseded this one.
func (s *Session) refreshVideoFrame(gen int64, time float64) {
	frame, err := s.graphics.GetGraphicsAtTime(context.Background(), time, false)
	if err != nil {
		s.log("debug", "[TIMELINE] Frame refresh at %v failed: %v", time, err)
		return
	}
	if atomic.LoadInt64(&s.videoGen) != gen {
		return
	}
	if s.events != nil {
		s.events.Emit(EventGraphicsUpdate, FrameUpdate{Time: time, Frame: frame})
	}
}

// SeekToTime seeks to a raw time with no known point. The displayed time
// updates immediately against the nearest known graphics event, then the
// exact point lookup races it; whichever candidate lands closer to the
// target wins. A failed lookup is swallowed and the nearest event stands.
func (s *Session) SeekToTime(targetTime float64) {
	fallback := interfaces.TimeStampedPoint{Point: "", Time: math.Inf(1)}
	if ev, ok := s.graphics.NearestEvent(targetTime); ok {
		fallback = ev.TimeStampedPoint
	}

	// Optimistic update so the scrubber lands without waiting on the lookup.
	s.SetCurrentTime(targetTime)

	gen := atomic.AddInt64(&s.seekGen, 1)
	go s.resolveSeekToTime(gen, targetTime, fallback)
}

// resolveSeekToTime finishes a SeekToTime request: it races the exact
// point-near-time lookup against the fallback event and seeks to the winner,
// unless a newer request has superseded this one.
func (s *Session) resolveSeekToTime(gen int64, targetTime float64, fallback interfaces.TimeStampedPoint) {
	best := fallback
	exact, err := s.transport.GetPointNearTime(context.Background(), targetTime)
	if err != nil {
		s.log("debug", "[TIMELINE] Point near %v lookup failed: %v", targetTime, err)
	} else if math.Abs(exact.Time-targetTime) < math.Abs(best.Time-targetTime) {
		best = exact
	}

	if atomic.LoadInt64(&s.seekGen) != gen {
		return
	}
	if best.Point == "" && math.IsInf(best.Time, 1) {
		// Nothing known near the target; the optimistic update stands.
		return
	}
	s.Seek(best.Point, best.Time, false, "")
}
