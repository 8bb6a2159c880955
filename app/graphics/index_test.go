package graphics

import (
	"testing"

	"retrace/app/interfaces"
)

func tsp(p string, t float64) interfaces.TimeStampedPoint {
	return interfaces.TimeStampedPoint{Point: p, Time: t}
}

func buildIndex() *Index {
	ix := NewIndex()
	ix.AddPaintPoints([]PaintPoint{
		{TimeStampedPoint: tsp("300", 30), ScreenShotHash: "h30"},
		{TimeStampedPoint: tsp("100", 10), ScreenShotHash: "h10"},
		{TimeStampedPoint: tsp("200", 20), ScreenShotHash: "h20"},
	})
	ix.AddMouseEvents([]MouseEvent{
		{TimeStampedPoint: tsp("150", 15), Kind: "mousemove"},
		{TimeStampedPoint: tsp("350", 35), Kind: "click"},
	})
	return ix
}

func TestIndexPaintQueries(t *testing.T) {
	ix := buildIndex()

	tests := []struct {
		name     string
		query    func() (PaintPoint, bool)
		expected string
		ok       bool
	}{
		{name: "next after 10", query: func() (PaintPoint, bool) { return ix.NextPaintEvent(10) }, expected: "200", ok: true},
		{name: "next after 25", query: func() (PaintPoint, bool) { return ix.NextPaintEvent(25) }, expected: "300", ok: true},
		{name: "next after end", query: func() (PaintPoint, bool) { return ix.NextPaintEvent(30) }, ok: false},
		{name: "previous before 20", query: func() (PaintPoint, bool) { return ix.PreviousPaintEvent(20) }, expected: "100", ok: true},
		{name: "previous before start", query: func() (PaintPoint, bool) { return ix.PreviousPaintEvent(10) }, ok: false},
		{name: "most recent at 20", query: func() (PaintPoint, bool) { return ix.MostRecentPaint(20) }, expected: "200", ok: true},
		{name: "most recent at 25", query: func() (PaintPoint, bool) { return ix.MostRecentPaint(25) }, expected: "200", ok: true},
		{name: "most recent before start", query: func() (PaintPoint, bool) { return ix.MostRecentPaint(5) }, ok: false},
		{name: "last paint", query: func() (PaintPoint, bool) { return ix.LastPaint() }, expected: "300", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.query()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Point != tt.expected {
				t.Errorf("point = %s, want %s", got.Point, tt.expected)
			}
		})
	}
}

func TestIndexMergedQueries(t *testing.T) {
	ix := buildIndex()

	// Mouse event at 15 comes before the paint at 20
	ev, ok := ix.NextPaintOrMouseEvent(10)
	if !ok || ev.Point != "150" || ev.Kind != EventMouse {
		t.Errorf("NextPaintOrMouseEvent(10) = %+v, want mouse event at 15", ev)
	}

	ev, ok = ix.MostRecentPaintOrMouseEvent(16)
	if !ok || ev.Point != "150" {
		t.Errorf("MostRecentPaintOrMouseEvent(16) = %+v, want mouse event at 15", ev)
	}

	ev, ok = ix.LastPaintOrMouseEvent()
	if !ok || ev.Point != "350" {
		t.Errorf("LastPaintOrMouseEvent = %+v, want click at 35", ev)
	}

	// 17 is closer to 15 than to 20
	ev, ok = ix.NearestEvent(17)
	if !ok || ev.Point != "150" {
		t.Errorf("NearestEvent(17) = %+v, want mouse event at 15", ev)
	}
	ev, ok = ix.NearestEvent(19)
	if !ok || ev.Point != "200" {
		t.Errorf("NearestEvent(19) = %+v, want paint at 20", ev)
	}

	if _, ok := NewIndex().NearestEvent(10); ok {
		t.Error("NearestEvent on empty index should report not found")
	}
}

func TestIndexPoints(t *testing.T) {
	ix := buildIndex()
	pts := ix.Points()
	if len(pts) != 5 {
		t.Fatalf("Points returned %d entries, want 5", len(pts))
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Time < pts[i-1].Time {
			t.Errorf("points out of order at %d: %+v after %+v", i, pts[i], pts[i-1])
		}
	}
}
