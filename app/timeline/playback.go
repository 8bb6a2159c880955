package timeline

import (
	"context"
	"sync/atomic"
	"time"

	"retrace/app/graphics"
)

// playbackFetch is one in-flight graphics fetch for an upcoming target time.
// The loop kicks the fetch off before waiting on the frame interval so fetch
// latency overlaps with render time.
type playbackFetch struct {
	targetTime float64
	done       chan struct{}
	frame      *graphics.Frame
	err        error
}

// TogglePlayback starts playback, or stops it when already playing or when
// the cursor has nothing left to play forward to.
func (s *Session) TogglePlayback() {
	s.mu.Lock()
	playing := s.state.Playback != nil
	current := s.state.CurrentTime
	s.mu.Unlock()

	last, ok := s.graphics.LastPaintOrMouseEvent()
	if playing || !ok || (current >= last.Time && current < s.zoomEndTime()) {
		s.StopPlayback()
		return
	}
	s.StartPlayback()
}

func (s *Session) zoomEndTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ZoomRegion.End.Time
}

// StartPlayback enters the playback loop. It refuses to start when the
// cursor is already past the last known paint or mouse event; a cursor
// parked at the zoom region's end rewinds to its beginning instead.
func (s *Session) StartPlayback() {
	last, ok := s.graphics.LastPaintOrMouseEvent()
	if !ok {
		s.log("info", "[PLAYBACK] No graphics events known, not starting")
		return
	}

	s.mu.Lock()
	if s.state.Playback != nil {
		s.mu.Unlock()
		return
	}
	beginTime := s.state.CurrentTime
	zoom := s.state.ZoomRegion
	if beginTime >= zoom.End.Time {
		beginTime = zoom.Begin.Time
	} else if beginTime >= last.Time {
		s.mu.Unlock()
		s.log("info", "[PLAYBACK] Nothing left to play forward to")
		return
	}
	beginDate := s.now()
	s.state.Playback = &PlaybackState{BeginTime: beginTime, BeginDate: beginDate, Time: beginTime}
	s.state.CurrentTime = beginTime
	s.clampLocked()
	gen := atomic.AddInt64(&s.playbackGen, 1)
	s.mu.Unlock()
	s.emitState()

	if target, ok := s.nextTarget(beginTime); ok {
		s.startFetch(target)
		s.PrecacheScreenshots(target)
	}

	go s.runPlayback(gen, beginTime, beginDate)
}

// StopPlayback performs a final seek to the in-flight cursor time so the
// displayed state matches exactly where the pause lands, then clears the
// playback state. Safe to call when not playing.
func (s *Session) StopPlayback() {
	s.mu.Lock()
	pb := s.state.Playback
	var at float64
	if pb != nil {
		at = pb.Time
	}
	s.mu.Unlock()

	if pb != nil {
		s.SeekToTime(at)
	}
	s.clearPlayback()
}

// clearPlayback ends the loop: the running iteration observes the bumped
// generation (or the nil playback state) and returns without rescheduling.
func (s *Session) clearPlayback() {
	atomic.AddInt64(&s.playbackGen, 1)
	s.mu.Lock()
	changed := s.state.Playback != nil || s.state.Stalled
	s.state.Playback = nil
	s.state.Stalled = false
	s.mu.Unlock()
	if changed {
		s.emitState()
	}
}

// playbackAlive reports whether the loop iteration that captured gen is
// still the live one.
func (s *Session) playbackAlive(gen int64) bool {
	if atomic.LoadInt64(&s.playbackGen) != gen {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Playback != nil
}

// publishPlaybackTime advances the published cursor. Playback time is
// monotonically non-decreasing for the lifetime of one playback run.
func (s *Session) publishPlaybackTime(t float64) {
	s.mu.Lock()
	if s.state.Playback == nil {
		s.mu.Unlock()
		return
	}
	if t < s.state.Playback.Time {
		t = s.state.Playback.Time
	}
	s.state.Playback.Time = t
	s.state.CurrentTime = t
	s.clampLocked()
	s.mu.Unlock()
	s.emitState()
}

// runPlayback is the scheduler loop: one iteration per frame interval,
// re-checking live state every iteration so any dispatch that clears
// playback cancels the loop without an explicit token.
func (s *Session) runPlayback(gen int64, beginTime float64, beginDate time.Time) {
	for {
		s.sleep(frameInterval)
		if !s.playbackAlive(gen) {
			return
		}

		currentTime := beginTime + float64(s.now().Sub(beginDate))/float64(time.Millisecond)
		endTime := s.zoomEndTime()

		if currentTime > endTime {
			s.mu.Lock()
			endPoint := s.state.ZoomRegion.End.Point
			s.mu.Unlock()
			s.clearPlayback()
			s.Seek(endPoint, endTime, false, "")
			return
		}

		s.publishPlaybackTime(currentTime)

		fetch := s.currentFetch()
		if fetch == nil || currentTime < fetch.targetTime {
			continue
		}

		// The cursor has reached the prefetched target: wait for its
		// graphics, bounded so a slow fetch surfaces as a stall instead of a
		// silent freeze.
		waitStart := s.now()
		select {
		case <-fetch.done:
		case <-time.After(stalledTimeout):
			s.setStalled(true)
			<-fetch.done
			s.setStalled(false)
		}
		if s.now().Sub(waitStart) > driftThreshold {
			// The wait pushed real time noticeably past the target;
			// re-anchor so the cursor does not jump when the stall clears.
			beginTime = fetch.targetTime
			beginDate = s.now()
			s.reanchorPlayback(beginTime, beginDate)
		}
		if !s.playbackAlive(gen) {
			return
		}

		// Render, unless a newer fetch superseded this one while we waited.
		if s.currentFetch() == fetch {
			if fetch.err != nil {
				s.log("debug", "[PLAYBACK] Fetch for %v failed: %v", fetch.targetTime, fetch.err)
			} else if s.events != nil {
				s.events.Emit(EventGraphicsUpdate, FrameUpdate{Time: fetch.targetTime, Frame: fetch.frame})
			}
		}

		// Kick off the next fetch and precache before the next frame wait so
		// network latency overlaps with display time. With nothing left to
		// fetch, drop the rendered one so later iterations don't replay it
		// while the cursor coasts to the zoom end.
		if target, ok := s.nextTarget(fetch.targetTime); ok {
			s.startFetch(target)
			s.PrecacheScreenshots(target)
		} else {
			s.clearFetch(fetch)
		}
	}
}

// reanchorPlayback updates the published wall-clock anchor after a stall.
func (s *Session) reanchorPlayback(beginTime float64, beginDate time.Time) {
	s.mu.Lock()
	if s.state.Playback != nil {
		s.state.Playback.BeginTime = beginTime
		s.state.Playback.BeginDate = beginDate
	}
	s.mu.Unlock()
}

// nextTarget computes the next playback fetch target: the next paint or
// mouse event after the given time, skipping mouse-only events within the
// skip threshold, clipped to the zoom region's end.
func (s *Session) nextTarget(after float64) (float64, bool) {
	endTime := s.zoomEndTime()

	at := after
	for {
		ev, ok := s.graphics.NextPaintOrMouseEvent(at)
		if !ok {
			return 0, false
		}
		if ev.Kind == graphics.EventMouse && ev.Time-after < mouseSkipThreshold {
			at = ev.Time
			continue
		}
		if ev.Time > endTime {
			return endTime, true
		}
		return ev.Time, true
	}
}

// startFetch begins fetching graphics for the target time and installs it
// as the live fetch.
func (s *Session) startFetch(targetTime float64) {
	f := &playbackFetch{targetTime: targetTime, done: make(chan struct{})}
	s.fetchMu.Lock()
	s.fetch = f
	s.fetchMu.Unlock()

	go func() {
		f.frame, f.err = s.graphics.GetGraphicsAtTime(context.Background(), targetTime, false)
		close(f.done)
	}()
}

func (s *Session) currentFetch() *playbackFetch {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	return s.fetch
}

// clearFetch drops a rendered fetch, unless a newer one already replaced it.
func (s *Session) clearFetch(f *playbackFetch) {
	s.fetchMu.Lock()
	if s.fetch == f {
		s.fetch = nil
	}
	s.fetchMu.Unlock()
}
