package app

import (
	"context"
	"fmt"

	"retrace/app/graphics"
	"retrace/app/interfaces"
	"retrace/app/settings"
	"retrace/app/timeline"
	"retrace/app/transport"

	"github.com/google/uuid"
)

// openSession bundles everything owned by one open recording: the websocket
// client, the graphics service, the timeline engine, and the event
// subscriptions feeding the graphics index.
type openSession struct {
	id          string
	recordingID string
	client      *transport.Client
	graphics    *graphics.Service
	timeline    *timeline.Session
	unsubscribe []func()
}

func (s *openSession) teardown() {
	s.timeline.Teardown()
	for _, cancel := range s.unsubscribe {
		cancel()
	}
	_ = s.client.Close()
}

// SessionInfo describes an open session to the frontend.
type SessionInfo struct {
	SessionID   string `json:"sessionId"`
	RecordingID string `json:"recordingId"`
	Active      bool   `json:"active"`
}

// OpenRecording dials the replay backend for a recording, wires up the
// graphics index and timeline engine, and makes the new session active.
// Returns the new session ID.
func (a *App) OpenRecording(recordingID string) (string, error) {
	currentSettings := settings.GetEffectiveSettings()

	client, err := transport.Dial(a.ctx, currentSettings.APIURL, recordingID, currentSettings.AuthToken, a)
	if err != nil {
		return "", fmt.Errorf("connect to replay backend: %w", err)
	}

	svc := graphics.NewService(client, a.cache, a)
	session := timeline.NewSession(uuid.New().String(), recordingID, client, svc, nil, a, a)

	// Feed backend announcements into the graphics index and the timeline's
	// loaded-region set as they stream in.
	unsub := []func(){
		client.OnPaintPoints(func(points []graphics.PaintPoint) {
			svc.AddPaintPoints(points)
		}),
		client.OnMouseEvents(func(events []graphics.MouseEvent) {
			svc.AddMouseEvents(events)
		}),
		client.OnLoadedRegions(func(regions []interfaces.TimeStampedPointRange) {
			session.AddLoadedRegions(regions)
		}),
	}

	open := &openSession{
		id:          session.ID,
		recordingID: recordingID,
		client:      client,
		graphics:    svc,
		timeline:    session,
		unsubscribe: unsub,
	}

	a.sessionsMu.Lock()
	a.sessions[open.id] = open
	a.activeSessionID = open.id
	a.sessionsMu.Unlock()

	// The recording's endpoint bounds the zoom region. Resolve it in the
	// background so opening stays snappy on slow links.
	go func() {
		endpoint, err := client.GetEndpoint(context.Background())
		if err != nil {
			a.Log("error", fmt.Sprintf("Failed to resolve recording endpoint: %v", err))
			return
		}
		session.SetZoomRegion(interfaces.TimeStampedPointRange{
			Begin: interfaces.TimeStampedPoint{Point: "0", Time: 0},
			End:   endpoint,
		})
	}()

	a.Emit("session:opened", SessionInfo{SessionID: open.id, RecordingID: recordingID, Active: true})
	return open.id, nil
}

// CloseSession tears down one open session. Closing the active session
// promotes an arbitrary remaining one.
func (a *App) CloseSession(sessionID string) error {
	a.sessionsMu.Lock()
	open, ok := a.sessions[sessionID]
	if !ok {
		a.sessionsMu.Unlock()
		return fmt.Errorf("no session with ID %s", sessionID)
	}
	delete(a.sessions, sessionID)
	if a.activeSessionID == sessionID {
		a.activeSessionID = ""
		for id := range a.sessions {
			a.activeSessionID = id
			break
		}
	}
	a.sessionsMu.Unlock()

	open.teardown()
	a.Emit("session:closed", SessionInfo{SessionID: sessionID, RecordingID: open.recordingID})
	return nil
}

// SetActiveSession switches which session the timeline bindings target.
func (a *App) SetActiveSession(sessionID string) error {
	a.sessionsMu.Lock()
	defer a.sessionsMu.Unlock()
	if _, ok := a.sessions[sessionID]; !ok {
		return fmt.Errorf("no session with ID %s", sessionID)
	}
	a.activeSessionID = sessionID
	return nil
}

// GetOpenSessions lists the open sessions for the frontend tab strip.
func (a *App) GetOpenSessions() []SessionInfo {
	a.sessionsMu.RLock()
	defer a.sessionsMu.RUnlock()
	out := make([]SessionInfo, 0, len(a.sessions))
	for id, s := range a.sessions {
		out = append(out, SessionInfo{
			SessionID:   id,
			RecordingID: s.recordingID,
			Active:      id == a.activeSessionID,
		})
	}
	return out
}

// activeSession returns the currently active session (nil if none)
func (a *App) activeSession() *openSession {
	a.sessionsMu.RLock()
	defer a.sessionsMu.RUnlock()
	if a.activeSessionID == "" {
		return nil
	}
	return a.sessions[a.activeSessionID]
}
