// Package regions implements the interval algebra over recorded execution
// ranges: overlap, containment and subset tests used by the timeline engine
// to decide where the playback cursor, the focus window and seek requests
// are allowed to land.
package regions

import (
	"sort"

	"retrace/app/interfaces"
	"retrace/app/point"
)

// laterBegin returns the tighter (later) of two range starts, comparing by
// time and breaking ties on point order.
func laterBegin(a, b interfaces.TimeStampedPoint) interfaces.TimeStampedPoint {
	if a.Time != b.Time {
		if a.Time > b.Time {
			return a
		}
		return b
	}
	a.Point = point.Max(a.Point, b.Point)
	return a
}

// earlierEnd returns the tighter (earlier) of two range ends.
func earlierEnd(a, b interfaces.TimeStampedPoint) interfaces.TimeStampedPoint {
	if a.Time != b.Time {
		if a.Time < b.Time {
			return a
		}
		return b
	}
	a.Point = point.Min(a.Point, b.Point)
	return a
}

// Overlap returns the pairwise intersections of the two region lists. For
// every pair whose time intervals intersect, the result carries the
// intersection with the tighter endpoint on each side. The result is
// symmetric as a set: Overlap(a, b) and Overlap(b, a) contain the same
// ranges, though possibly in a different order.
func Overlap(a, b []interfaces.TimeStampedPointRange) []interfaces.TimeStampedPointRange {
	var out []interfaces.TimeStampedPointRange
	for _, ra := range a {
		for _, rb := range b {
			if ra.Begin.Time > rb.End.Time || rb.Begin.Time > ra.End.Time {
				continue
			}
			out = append(out, interfaces.TimeStampedPointRange{
				Begin: laterBegin(ra.Begin, rb.Begin),
				End:   earlierEnd(ra.End, rb.End),
			})
		}
	}
	return out
}

// IsTimeInRegions reports whether some region's time interval contains the
// given time, inclusive on both ends.
func IsTimeInRegions(time float64, rs []interfaces.TimeStampedPointRange) bool {
	for _, r := range rs {
		if r.Begin.Time <= time && time <= r.End.Time {
			return true
		}
	}
	return false
}

// IsPointInRegions reports whether some region contains the given execution
// point. Point order is exact where time comparison is ambiguous at region
// boundaries, so containment is decided on points, not times.
func IsPointInRegions(p string, rs []interfaces.TimeStampedPointRange) bool {
	for _, r := range rs {
		if point.Compare(r.Begin.Point, p) <= 0 && point.Compare(p, r.End.Point) <= 0 {
			return true
		}
	}
	return false
}

// IsFocusRegionSubset reports whether next lies entirely inside prev. A nil
// region means "the whole recording": everything is a subset of nil, and nil
// is never a subset of a bounded region.
func IsFocusRegionSubset(prev, next *interfaces.TimeStampedPointRange) bool {
	if prev == nil {
		return true
	}
	if next == nil {
		return false
	}
	return prev.Begin.Time <= next.Begin.Time && next.End.Time <= prev.End.Time
}

// Union merges two region lists, coalescing ranges whose time intervals
// overlap or touch. Used for loaded-region accounting, where the set of
// ranges may only ever grow.
func Union(a, b []interfaces.TimeStampedPointRange) []interfaces.TimeStampedPointRange {
	all := make([]interfaces.TimeStampedPointRange, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Begin.Time != all[j].Begin.Time {
			return all[i].Begin.Time < all[j].Begin.Time
		}
		return point.IsBefore(all[i].Begin.Point, all[j].Begin.Point)
	})

	out := []interfaces.TimeStampedPointRange{all[0]}
	for _, r := range all[1:] {
		last := &out[len(out)-1]
		if r.Begin.Time <= last.End.Time {
			if r.End.Time > last.End.Time || (r.End.Time == last.End.Time && point.IsAfter(r.End.Point, last.End.Point)) {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// ClampTime constrains time to the given range.
func ClampTime(time float64, r interfaces.TimeStampedPointRange) float64 {
	if time < r.Begin.Time {
		return r.Begin.Time
	}
	if time > r.End.Time {
		return r.End.Time
	}
	return time
}
