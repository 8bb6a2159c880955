package timeline

import (
	"testing"
)

func TestPrecacheSnapsBeginTimeUpToGrid(t *testing.T) {
	cases := []struct {
		name  string
		begin float64
		want  float64
	}{
		{name: "on grid", begin: 100, want: 100},
		{name: "between steps", begin: 101, want: 150},
		{name: "just below step", begin: 149.9, want: 150},
		{name: "zero", begin: 0, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(10000)
			env.session.PrecacheScreenshots(tc.begin)

			env.session.precacheMu.Lock()
			got := env.session.precacheBeginTime
			env.session.precacheMu.Unlock()
			if got != tc.want {
				t.Errorf("snapped begin = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPrecacheSameBeginIsNoOp(t *testing.T) {
	env := newTestEnv(10000)
	env.addPaints(0, 1000, 9000)

	env.session.PrecacheScreenshots(100)
	if !waitFor(timeoutShort, func() bool {
		return env.session.State().PlaybackPrecachedTime >= 100+precacheDuration
	}) {
		t.Fatal("first walk never covered its window")
	}
	before := env.session.State().PlaybackPrecachedTime

	// Equivalent begin times snap to the same grid step and must not restart
	// the walk or move the watermark.
	env.session.PrecacheScreenshots(100)
	env.session.PrecacheScreenshots(51)

	if got := env.session.State().PlaybackPrecachedTime; got != before {
		t.Errorf("watermark moved from %v to %v on a repeated begin", before, got)
	}
}

func TestPrecacheRegressionRollsBackWatermark(t *testing.T) {
	env := newTestEnv(10000)
	env.addPaints(0, 1000, 9000)

	env.session.PrecacheScreenshots(1000)
	if !waitFor(timeoutShort, func() bool {
		return env.session.State().PlaybackPrecachedTime >= 1000+precacheDuration
	}) {
		t.Fatal("first walk never covered its window")
	}

	// Hold the new walk by taking over the begin time directly, then check
	// the rollback that PrecacheScreenshots performs synchronously.
	env.session.PrecacheScreenshots(200)
	env.session.precacheMu.Lock()
	begin := env.session.precacheBeginTime
	env.session.precacheMu.Unlock()
	if begin != 200 {
		t.Fatalf("begin = %v after regression, want 200", begin)
	}
	if !waitFor(timeoutShort, func() bool {
		return env.session.State().PlaybackPrecachedTime >= 200+precacheDuration
	}) {
		t.Fatal("regressed walk never covered its window")
	}
}

func TestPrecacheWalkStopsWhenSuperseded(t *testing.T) {
	env := newTestEnv(10000)
	env.addPaints(0, 9000)
	env.session.setPlaybackPrecachedTime(50)

	// Install a different live begin so the walk observes itself superseded
	// on its first step.
	env.session.precacheMu.Lock()
	env.session.precacheBeginTime = 500
	env.session.precacheMu.Unlock()

	env.session.precacheWalk(100)

	if got := env.session.State().PlaybackPrecachedTime; got != 50 {
		t.Errorf("superseded walk advanced the watermark to %v", got)
	}
}

func TestPrecacheWalkAtLastPaintJumpsToRecordingEnd(t *testing.T) {
	env := newTestEnv(10000)
	env.addPaints(0, 30)

	env.session.precacheMu.Lock()
	env.session.precacheBeginTime = 50
	env.session.precacheMu.Unlock()

	env.session.precacheWalk(50)

	if got := env.session.State().PlaybackPrecachedTime; got != 10000 {
		t.Errorf("watermark = %v, want the recording end 10000 past the last paint", got)
	}
}

func TestPrecacheWalkWarmsScreenshotCache(t *testing.T) {
	env := newTestEnv(10000)
	env.addPaints(0, 30)

	env.session.precacheMu.Lock()
	env.session.precacheBeginTime = 0
	env.session.precacheMu.Unlock()

	env.session.precacheWalk(0)

	if !env.graphics.HasScreenShot("hash-30") {
		t.Error("walk did not warm the cache for the last paint's screenshot")
	}
}
