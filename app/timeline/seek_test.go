package timeline

import (
	"errors"
	"testing"

	"retrace/app/interfaces"
)

func TestSeekInsideLoadedRegionWarps(t *testing.T) {
	env := newTestEnv(100)
	env.session.AddLoadedRegions([]interfaces.TimeStampedPointRange{testRange(0, 50)})

	warped := env.session.Seek("30", 30, true, "")

	if !warped {
		t.Error("Seek inside a loaded region should report a real warp")
	}
	if env.transport.warpCount() != 1 {
		t.Fatalf("TimeWarp called %d times, want 1", env.transport.warpCount())
	}
	call := env.transport.warps[0]
	if call.point != "30" || call.time != 30 || !call.hasFrames {
		t.Errorf("TimeWarp called with %+v", call)
	}
	if got := env.session.State().CurrentTime; got != 30 {
		t.Errorf("CurrentTime = %v, want 30", got)
	}
}

func TestSeekOutsideLoadedRegionsDegrades(t *testing.T) {
	env := newTestEnv(100)
	env.session.AddLoadedRegions([]interfaces.TimeStampedPointRange{testRange(0, 50)})

	warped := env.session.Seek("75", 75, false, "")

	if warped {
		t.Error("Seek outside loaded regions must not report a real warp")
	}
	if env.transport.warpCount() != 0 {
		t.Errorf("TimeWarp called %d times outside loaded regions, want 0", env.transport.warpCount())
	}
	if got := env.session.State().CurrentTime; got != 75 {
		t.Errorf("CurrentTime = %v, want 75 even without a warp", got)
	}
}

func TestSeekWithPauseIDSkipsRegionCheck(t *testing.T) {
	env := newTestEnv(100)
	// No loaded regions at all; the materialised pause is warpable anyway.

	warped := env.session.Seek("80", 80, true, "pause-7")

	if !warped {
		t.Error("Seek to an existing pause should report a real warp")
	}
	env.transport.mu.Lock()
	pauseWarps := append([]string(nil), env.transport.pauseWarps...)
	env.transport.mu.Unlock()
	if len(pauseWarps) != 1 || pauseWarps[0] != "pause-7" {
		t.Errorf("TimeWarpToPause calls = %v, want [pause-7]", pauseWarps)
	}
	if env.transport.warpCount() != 0 {
		t.Error("plain TimeWarp should not fire when a pause ID is given")
	}
}

func TestResolveSeekToTimePrefersCloserCandidate(t *testing.T) {
	cases := []struct {
		name      string
		exact     interfaces.TimeStampedPoint
		exactErr  error
		fallback  interfaces.TimeStampedPoint
		target    float64
		wantPoint string
		wantTime  float64
	}{
		{
			name:      "exact lookup closer",
			exact:     interfaces.TimeStampedPoint{Point: "74", Time: 74},
			fallback:  interfaces.TimeStampedPoint{Point: "60", Time: 60},
			target:    75,
			wantPoint: "74",
			wantTime:  74,
		},
		{
			name:      "fallback closer",
			exact:     interfaces.TimeStampedPoint{Point: "10", Time: 10},
			fallback:  interfaces.TimeStampedPoint{Point: "72", Time: 72},
			target:    75,
			wantPoint: "72",
			wantTime:  72,
		},
		{
			name:      "lookup failure falls back",
			exactErr:  errors.New("region not loaded"),
			fallback:  interfaces.TimeStampedPoint{Point: "60", Time: 60},
			target:    75,
			wantPoint: "60",
			wantTime:  60,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(100)
			env.session.AddLoadedRegions([]interfaces.TimeStampedPointRange{testRange(0, 100)})
			env.transport.pointNearTime = tc.exact
			env.transport.pointNearErr = tc.exactErr

			env.session.resolveSeekToTime(env.session.seekGen, tc.target, tc.fallback)

			if env.transport.warpCount() != 1 {
				t.Fatalf("TimeWarp called %d times, want 1", env.transport.warpCount())
			}
			call := env.transport.warps[0]
			if call.point != tc.wantPoint || call.time != tc.wantTime {
				t.Errorf("warped to (%q, %v), want (%q, %v)", call.point, call.time, tc.wantPoint, tc.wantTime)
			}
		})
	}
}

func TestResolveSeekToTimeSupersededDoesNothing(t *testing.T) {
	env := newTestEnv(100)
	env.session.AddLoadedRegions([]interfaces.TimeStampedPointRange{testRange(0, 100)})
	env.transport.pointNearTime = interfaces.TimeStampedPoint{Point: "40", Time: 40}

	stale := env.session.seekGen - 1
	env.session.resolveSeekToTime(stale, 40, interfaces.TimeStampedPoint{Point: "40", Time: 40})

	if env.transport.warpCount() != 0 {
		t.Errorf("superseded resolve issued %d warps, want 0", env.transport.warpCount())
	}
}

func TestResolveSeekToTimeWithNothingKnownStandsPat(t *testing.T) {
	env := newTestEnv(100)
	env.transport.pointNearErr = errors.New("region not loaded")
	env.session.SetCurrentTime(75)

	fallback := interfaces.TimeStampedPoint{Point: "", Time: infTime()}
	env.session.resolveSeekToTime(env.session.seekGen, 75, fallback)

	if env.transport.warpCount() != 0 {
		t.Errorf("warped with nothing known near the target, want no warp")
	}
	if got := env.session.State().CurrentTime; got != 75 {
		t.Errorf("CurrentTime = %v, want the optimistic 75 to stand", got)
	}
}

func TestSeekToTimeUpdatesDisplayedTimeImmediately(t *testing.T) {
	env := newTestEnv(100)
	env.transport.pointNearTime = interfaces.TimeStampedPoint{Point: "75", Time: 75}
	env.session.AddLoadedRegions([]interfaces.TimeStampedPointRange{testRange(0, 100)})

	env.session.SeekToTime(75)

	if got := env.session.State().CurrentTime; got != 75 {
		t.Errorf("CurrentTime = %v immediately after SeekToTime, want 75", got)
	}
	if !waitFor(timeoutShort, func() bool { return env.transport.warpCount() == 1 }) {
		t.Error("background resolve never issued the warp")
	}
}
