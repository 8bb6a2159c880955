package timeline

import (
	"context"
	"math"
)

const (
	// precacheSnapInterval quantizes precache begin and step times, in
	// recording milliseconds. Playback and precache snap to the same grid
	// so neither can race past the other by a fractional interval.
	precacheSnapInterval = 50.0
	// precacheDuration is how much recording time one walk covers.
	precacheDuration = 5000.0
)

// PrecacheScreenshots warms the screenshot cache ahead of the given begin
// time. The begin time snaps up to the precache grid; a call for the same
// snapped begin as the last call is a no-op, and a call that regresses below
// the published watermark rolls the watermark back before the new walk
// starts. Only one walk is live; starting a new one abandons the old.
func (s *Session) PrecacheScreenshots(beginTime float64) {
	snapped := math.Ceil(beginTime/precacheSnapInterval) * precacheSnapInterval

	s.precacheMu.Lock()
	if snapped == s.precacheBeginTime {
		s.precacheMu.Unlock()
		return
	}
	regressed := s.precacheBeginTime >= 0 && snapped < s.precacheBeginTime
	s.precacheBeginTime = snapped
	s.precacheMu.Unlock()

	if regressed {
		s.rollbackPrecachedTime(snapped)
	}

	go s.precacheWalk(snapped)
}

// rollbackPrecachedTime is the one deliberate exception to the watermark's
// monotonicity: a begin-time regression reduces published progress.
func (s *Session) rollbackPrecachedTime(time float64) {
	s.mu.Lock()
	changed := time < s.state.PlaybackPrecachedTime
	if changed {
		s.state.PlaybackPrecachedTime = time
	}
	s.mu.Unlock()
	if changed {
		s.emitState()
	}
}

// precacheWalk steps forward from the snapped begin time, fetching each
// step's screenshot into the cache. Fetches run one at a time to bound
// concurrent network load. The walk exits when superseded by a newer begin
// time, after covering the precache window, or at the last known paint, in
// which case the watermark jumps to the recording's end.
func (s *Session) precacheWalk(begin float64) {
	for t := begin; t <= begin+precacheDuration; t += precacheSnapInterval {
		s.precacheMu.Lock()
		superseded := s.precacheBeginTime != begin
		s.precacheMu.Unlock()
		if superseded {
			return
		}

		if paint, ok := s.graphics.MostRecentPaint(t); ok && paint.ScreenShotHash != "" {
			if !s.graphics.HasScreenShot(paint.ScreenShotHash) {
				if _, err := s.graphics.GetGraphicsAtTime(context.Background(), t, true); err != nil {
					s.log("debug", "[PRECACHE] Fetch at %v failed: %v", t, err)
				}
			}
		}

		if last, ok := s.graphics.LastPaint(); ok && t >= last.Time {
			s.setPlaybackPrecachedTime(s.zoomEndTime())
			return
		}
		s.setPlaybackPrecachedTime(t)
	}
}
