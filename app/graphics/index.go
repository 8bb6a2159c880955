package graphics

import (
	"sort"
	"sync"

	"retrace/app/interfaces"
	"retrace/app/point"
)

// Index holds the sorted paint and mouse event lists for a recording and
// answers the ordered queries the playback scheduler and seek coordinator
// depend on. Events arrive in batches from the session transport as the
// backend describes more of the recording; the lists only ever grow.
type Index struct {
	mu     sync.RWMutex
	paints []PaintPoint
	mouse  []MouseEvent
}

// NewIndex creates an empty graphics index.
func NewIndex() *Index {
	return &Index{}
}

// AddPaintPoints merges a batch of paint points into the index.
func (ix *Index) AddPaintPoints(batch []PaintPoint) {
	if len(batch) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.paints = append(ix.paints, batch...)
	sort.Slice(ix.paints, func(i, j int) bool {
		if ix.paints[i].Time != ix.paints[j].Time {
			return ix.paints[i].Time < ix.paints[j].Time
		}
		return point.IsBefore(ix.paints[i].Point, ix.paints[j].Point)
	})
}

// AddMouseEvents merges a batch of mouse events into the index.
func (ix *Index) AddMouseEvents(batch []MouseEvent) {
	if len(batch) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.mouse = append(ix.mouse, batch...)
	sort.Slice(ix.mouse, func(i, j int) bool {
		if ix.mouse[i].Time != ix.mouse[j].Time {
			return ix.mouse[i].Time < ix.mouse[j].Time
		}
		return point.IsBefore(ix.mouse[i].Point, ix.mouse[j].Point)
	})
}

// NextPaintEvent returns the first paint strictly after the given time.
func (ix *Index) NextPaintEvent(time float64) (PaintPoint, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	i := sort.Search(len(ix.paints), func(i int) bool { return ix.paints[i].Time > time })
	if i == len(ix.paints) {
		return PaintPoint{}, false
	}
	return ix.paints[i], true
}

// PreviousPaintEvent returns the last paint strictly before the given time.
func (ix *Index) PreviousPaintEvent(time float64) (PaintPoint, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	i := sort.Search(len(ix.paints), func(i int) bool { return ix.paints[i].Time >= time })
	if i == 0 {
		return PaintPoint{}, false
	}
	return ix.paints[i-1], true
}

// MostRecentPaint returns the last paint at or before the given time.
func (ix *Index) MostRecentPaint(time float64) (PaintPoint, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	i := sort.Search(len(ix.paints), func(i int) bool { return ix.paints[i].Time > time })
	if i == 0 {
		return PaintPoint{}, false
	}
	return ix.paints[i-1], true
}

// LastPaint returns the final known paint of the recording.
func (ix *Index) LastPaint() (PaintPoint, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.paints) == 0 {
		return PaintPoint{}, false
	}
	return ix.paints[len(ix.paints)-1], true
}

// NextPaintOrMouseEvent returns the first paint or mouse event strictly
// after the given time, whichever comes first.
func (ix *Index) NextPaintOrMouseEvent(time float64) (Event, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var best Event
	found := false
	if i := sort.Search(len(ix.paints), func(i int) bool { return ix.paints[i].Time > time }); i < len(ix.paints) {
		best = Event{TimeStampedPoint: ix.paints[i].TimeStampedPoint, Kind: EventPaint}
		found = true
	}
	if i := sort.Search(len(ix.mouse), func(i int) bool { return ix.mouse[i].Time > time }); i < len(ix.mouse) {
		m := Event{TimeStampedPoint: ix.mouse[i].TimeStampedPoint, Kind: EventMouse}
		if !found || m.Time < best.Time || (m.Time == best.Time && point.IsBefore(m.Point, best.Point)) {
			best = m
			found = true
		}
	}
	return best, found
}

// MostRecentPaintOrMouseEvent returns the last paint or mouse event at or
// before the given time.
func (ix *Index) MostRecentPaintOrMouseEvent(time float64) (Event, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var best Event
	found := false
	if i := sort.Search(len(ix.paints), func(i int) bool { return ix.paints[i].Time > time }); i > 0 {
		best = Event{TimeStampedPoint: ix.paints[i-1].TimeStampedPoint, Kind: EventPaint}
		found = true
	}
	if i := sort.Search(len(ix.mouse), func(i int) bool { return ix.mouse[i].Time > time }); i > 0 {
		m := Event{TimeStampedPoint: ix.mouse[i-1].TimeStampedPoint, Kind: EventMouse}
		if !found || m.Time > best.Time || (m.Time == best.Time && point.IsAfter(m.Point, best.Point)) {
			best = m
			found = true
		}
	}
	return best, found
}

// LastPaintOrMouseEvent returns the final known paint or mouse event, the
// upper bound of what playback can advance to.
func (ix *Index) LastPaintOrMouseEvent() (Event, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var best Event
	found := false
	if n := len(ix.paints); n > 0 {
		best = Event{TimeStampedPoint: ix.paints[n-1].TimeStampedPoint, Kind: EventPaint}
		found = true
	}
	if n := len(ix.mouse); n > 0 {
		m := Event{TimeStampedPoint: ix.mouse[n-1].TimeStampedPoint, Kind: EventMouse}
		if !found || m.Time > best.Time {
			best = m
			found = true
		}
	}
	return best, found
}

// NearestEvent returns the known paint or mouse event closest in time to
// the given time, from either direction.
func (ix *Index) NearestEvent(time float64) (Event, bool) {
	before, okBefore := ix.MostRecentPaintOrMouseEvent(time)
	after, okAfter := ix.NextPaintOrMouseEvent(time)
	switch {
	case okBefore && okAfter:
		if time-before.Time <= after.Time-time {
			return before, true
		}
		return after, true
	case okBefore:
		return before, true
	case okAfter:
		return after, true
	default:
		return Event{}, false
	}
}

// Points returns every known time-stamped point in order, used by the focus
// synchronizer to resolve region endpoints to real points.
func (ix *Index) Points() []interfaces.TimeStampedPoint {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]interfaces.TimeStampedPoint, 0, len(ix.paints)+len(ix.mouse))
	for _, p := range ix.paints {
		out = append(out, p.TimeStampedPoint)
	}
	for _, m := range ix.mouse {
		out = append(out, m.TimeStampedPoint)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return point.IsBefore(out[i].Point, out[j].Point)
	})
	return out
}
