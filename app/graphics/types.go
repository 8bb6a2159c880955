package graphics

import "retrace/app/interfaces"

// ScreenShot is a decoded screenshot payload keyed by a content hash.
type ScreenShot struct {
	Hash        string  `json:"hash"`
	MimeType    string  `json:"mimeType"`
	Data        []byte  `json:"data"`
	ScaleFactor float64 `json:"scaleFactor,omitempty"`
}

// PaintPoint is an instant at which the recorded program repainted, with the
// content hash of the screenshot captured at that instant.
type PaintPoint struct {
	interfaces.TimeStampedPoint
	ScreenShotHash string `json:"screenShotHash"`
}

// MousePosition is a recorded cursor position, used to overlay the pointer
// on a replayed frame.
type MousePosition struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// MouseEvent is a recorded mouse event.
type MouseEvent struct {
	interfaces.TimeStampedPoint
	Kind string `json:"kind"`
	MousePosition
}

// EventKind distinguishes paint events from mouse-only events in the merged
// playback index.
type EventKind int

const (
	EventPaint EventKind = iota
	EventMouse
)

// Event is an entry of the merged paint/mouse index the playback scheduler
// walks.
type Event struct {
	interfaces.TimeStampedPoint
	Kind EventKind
}

// Frame is the result of resolving graphics for an instant: the most recent
// screenshot at or before that time plus the mouse position, either of which
// may be absent.
type Frame struct {
	ScreenShot *ScreenShot    `json:"screenShot,omitempty"`
	Mouse      *MousePosition `json:"mouse,omitempty"`
}
