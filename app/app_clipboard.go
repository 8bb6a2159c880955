package app

import (
	"fmt"

	clipboard "golang.design/x/clipboard"
)

// safeClipboardWrite attempts to write data to clipboard with panic recovery.
// The clipboard package panics on some X11 setups rather than returning an
// error.
func safeClipboardWrite(format clipboard.Format, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard write failed: %v", r)
		}
	}()

	clipboard.Write(format, data)
	return nil
}

// ensureClipboard lazily initialises the system clipboard.
func (a *App) ensureClipboard() bool {
	a.clipOnce.Do(func() {
		if err := clipboard.Init(); err == nil {
			a.clipOK = true
		} else {
			a.clipOK = false
			if a.ctx != nil {
				a.Log("error", fmt.Sprintf("Clipboard init failed: %v", err))
			}
		}
	})
	return a.clipOK
}

// CopyCurrentPoint puts the active session's current execution point on the
// system clipboard, so a position can be pasted into a bug report or shared
// with another developer. Returns true on success.
func (a *App) CopyCurrentPoint() (bool, error) {
	s := a.activeSession()
	if s == nil {
		return false, errNoSession
	}
	if !a.ensureClipboard() {
		return false, fmt.Errorf("clipboard not available")
	}

	state := s.timeline.State()
	text := fmt.Sprintf("%s@%v", s.recordingID, state.CurrentTime)
	if err := safeClipboardWrite(clipboard.FmtText, []byte(text)); err != nil {
		a.Log("error", fmt.Sprintf("Clipboard write failed: %v", err))
		return false, err
	}
	a.Log("info", fmt.Sprintf("Copied position %s to clipboard", text))
	return true, nil
}
