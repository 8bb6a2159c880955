package interfaces

// Logger is implemented by the App and forwards structured log lines to the
// frontend console window.
type Logger interface {
	Log(level, message string)
}

// Events is the bridge used to push state snapshots and notifications to the
// frontend. The App implements it on top of the Wails event runtime; tests
// substitute a recorder.
type Events interface {
	Emit(name string, payload any)
}

// TimeStampedPoint pairs an execution point with its offset in milliseconds
// from the start of the recording. Point is an arbitrary-precision integer
// encoded as a decimal string; time is monotonically non-decreasing with
// point order, and multiple points may share the same time.
type TimeStampedPoint struct {
	Point string  `json:"point"`
	Time  float64 `json:"time"`
}

// TimeStampedPointRange is an inclusive range of the recording. Invariant:
// Begin.Time <= End.Time and Begin.Point <= End.Point.
type TimeStampedPointRange struct {
	Begin TimeStampedPoint `json:"begin"`
	End   TimeStampedPoint `json:"end"`
}

// PauseEvent is delivered by the session transport whenever the backend
// materialises a pause, whether requested by us or by another collaborator.
type PauseEvent struct {
	PauseID   string  `json:"pauseId"`
	Point     string  `json:"point"`
	Time      float64 `json:"time"`
	HasFrames bool    `json:"hasFrames"`
}
