package regions

import "retrace/app/interfaces"

// GetVisiblePosition maps a time to its fractional position within the zoom
// region, clamped to [0, 1]. A nil time maps to 0.
func GetVisiblePosition(time *float64, zoom interfaces.TimeStampedPointRange) float64 {
	if time == nil {
		return 0
	}
	span := zoom.End.Time - zoom.Begin.Time
	if span <= 0 {
		return 0
	}
	pos := (*time - zoom.Begin.Time) / span
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// GetPixelOffset converts a time to a pixel offset within a track of the
// given width.
func GetPixelOffset(time float64, zoom interfaces.TimeStampedPointRange, width float64) float64 {
	return GetVisiblePosition(&time, zoom) * width
}

// GetLeftOffset returns the percentage offset for positioning an element of
// the given width on the track, clamped so the element stays fully visible.
func GetLeftOffset(time float64, zoom interfaces.TimeStampedPointRange, trackWidth, elementWidth float64) float64 {
	left := GetVisiblePosition(&time, zoom) * 100
	if trackWidth <= 0 {
		return left
	}
	maxLeft := 100 - (elementWidth/trackWidth)*100
	if left > maxLeft {
		left = maxLeft
	}
	if left < 0 {
		left = 0
	}
	return left
}

// GetMarkerLeftOffset returns the percentage offset for a marker of the
// given width, shifted by half its width so the marker is visually centered
// on its time.
func GetMarkerLeftOffset(time float64, zoom interfaces.TimeStampedPointRange, trackWidth, markerWidth float64) float64 {
	left := GetVisiblePosition(&time, zoom) * 100
	if trackWidth <= 0 {
		return left
	}
	return left - (markerWidth/trackWidth)*50
}

// GetCommentLeftOffset returns the percentage offset for a comment card,
// capped so the card never extends past the right edge of the track.
func GetCommentLeftOffset(time float64, zoom interfaces.TimeStampedPointRange, trackWidth, commentWidth float64) float64 {
	left := GetVisiblePosition(&time, zoom) * 100
	if trackWidth <= 0 {
		return left
	}
	maxLeft := 100 - (commentWidth/trackWidth)*100
	if left > maxLeft {
		left = maxLeft
	}
	return left
}

// GetTimeFromPosition is the inverse mapping used for pointer input: it
// converts a page x coordinate over the track (given the track's left edge
// and width) back into a recording time, clamped to the zoom region.
func GetTimeFromPosition(pageX, trackLeft, trackWidth float64, zoom interfaces.TimeStampedPointRange) float64 {
	if trackWidth <= 0 {
		return zoom.Begin.Time
	}
	pos := (pageX - trackLeft) / trackWidth
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return zoom.Begin.Time + pos*(zoom.End.Time-zoom.Begin.Time)
}
