package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/ohler55/ojg/oj"

	"retrace/app/graphics"
	"retrace/app/interfaces"
)

// callTimeout bounds every command round-trip
const callTimeout = 30 * time.Second

// Client is the session transport: a websocket connection to the recording
// backend speaking the command/result/event protocol. One client serves one
// recording session.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	logger  interfaces.Logger

	nextID    int64
	pendingMu sync.Mutex
	pending   map[int64]chan inboundEnvelope

	paused        *Emitter[interfaces.PauseEvent]
	paintPoints   *Emitter[[]graphics.PaintPoint]
	mouseEvents   *Emitter[[]graphics.MouseEvent]
	loadedRegions *Emitter[[]interfaces.TimeStampedPointRange]

	closed chan struct{}
}

// Dial connects to the recording backend and starts the read loop. The
// bearer token, when present, is validated for expiry before dialing so a
// stale token fails fast instead of as a cryptic handshake rejection.
func Dial(ctx context.Context, apiURL, recordingID, token string, logger interfaces.Logger) (*Client, error) {
	if token != "" {
		if err := checkTokenExpiry(token); err != nil {
			return nil, err
		}
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	url := fmt.Sprintf("%s/session?recordingId=%s", apiURL, recordingID)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial session backend: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial session backend: %w", err)
	}

	c := &Client{
		conn:          conn,
		logger:        logger,
		pending:       make(map[int64]chan inboundEnvelope),
		paused:        NewEmitter[interfaces.PauseEvent](),
		paintPoints:   NewEmitter[[]graphics.PaintPoint](),
		mouseEvents:   NewEmitter[[]graphics.MouseEvent](),
		loadedRegions: NewEmitter[[]interfaces.TimeStampedPointRange](),
		closed:        make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// checkTokenExpiry parses the JWT without verifying its signature (the
// backend does that) and rejects tokens that have already expired.
func checkTokenExpiry(token string) error {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("parse auth token: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return fmt.Errorf("auth token expired at %s", claims.ExpiresAt.Time)
	}
	return nil
}

// Close tears the connection down. Pending calls fail with a closed-channel
// response; subscriptions stop firing.
func (c *Client) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
	}
	close(c.closed)
	return c.conn.Close()
}

// readLoop dispatches inbound envelopes: results to the pending call that
// issued the command, events to their emitters.
func (c *Client) readLoop() {
	defer func() {
		c.pendingMu.Lock()
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				if c.logger != nil {
					c.logger.Log("error", fmt.Sprintf("[TRANSPORT] Read failed: %v", err))
				}
			}
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			if c.logger != nil {
				c.logger.Log("error", fmt.Sprintf("[TRANSPORT] Malformed envelope: %v", err))
			}
			continue
		}

		if env.ID != 0 {
			c.pendingMu.Lock()
			ch, ok := c.pending[env.ID]
			if ok {
				delete(c.pending, env.ID)
			}
			c.pendingMu.Unlock()
			if ok {
				ch <- env
			}
			continue
		}

		c.dispatchEvent(env)
	}
}

func (c *Client) dispatchEvent(env inboundEnvelope) {
	switch env.Method {
	case eventPaused:
		var ev interfaces.PauseEvent
		if err := json.Unmarshal(env.Params, &ev); err == nil {
			c.paused.Emit(ev)
		}
	case eventPaintPoints:
		var ev paintPointsEvent
		if err := json.Unmarshal(env.Params, &ev); err == nil {
			c.paintPoints.Emit(ev.Paints)
		}
	case eventMouseEvents:
		var ev mouseEventsEvent
		if err := json.Unmarshal(env.Params, &ev); err == nil {
			c.mouseEvents.Emit(ev.Events)
		}
	case eventLoadedRegions:
		var ev loadedRegionsEvent
		if err := json.Unmarshal(env.Params, &ev); err == nil {
			c.loadedRegions.Emit(ev.Loaded)
		}
	default:
		if c.logger != nil {
			c.logger.Log("debug", fmt.Sprintf("[TRANSPORT] Ignoring event %s", env.Method))
		}
	}
}

// call issues a command and decodes its result into result (which may be
// nil for commands with empty results).
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id := atomic.AddInt64(&c.nextID, 1)
	body, err := oj.Marshal(commandEnvelope{ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	ch := make(chan inboundEnvelope, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, body)
	c.writeMu.Unlock()
	if err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return fmt.Errorf("send %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	select {
	case env, ok := <-ch:
		if !ok {
			return fmt.Errorf("%s: connection closed", method)
		}
		if env.Error != nil {
			return fmt.Errorf("%s: backend error %d: %s", method, env.Error.Code, env.Error.Message)
		}
		if result != nil && len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// TimeWarp asks the backend to move the session's pause point. The target
// time must lie inside a loaded region; the backend rejects warps into
// unloaded data.
func (c *Client) TimeWarp(point string, time float64, hasFrames bool) error {
	return c.call(context.Background(), methodTimeWarp, timeWarpParams{Point: point, Time: time, HasFrames: hasFrames}, nil)
}

// TimeWarpToPause warps to an already-materialised pause.
func (c *Client) TimeWarpToPause(pauseID string) error {
	return c.call(context.Background(), methodTimeWarpToPause, timeWarpToPauseParams{PauseID: pauseID}, nil)
}

// GetPointNearTime resolves the execution point nearest to a time.
func (c *Client) GetPointNearTime(ctx context.Context, time float64) (interfaces.TimeStampedPoint, error) {
	var res pointNearTimeResult
	if err := c.call(ctx, methodPointNearTime, pointNearTimeParams{Time: time}, &res); err != nil {
		return interfaces.TimeStampedPoint{}, err
	}
	return res.Point, nil
}

// LoadRegion asks the backend to load and index the given range.
func (c *Client) LoadRegion(ctx context.Context, region interfaces.TimeStampedPointRange, zoomEnd float64) error {
	return c.call(ctx, methodLoadRegion, loadRegionParams{Region: region, ZoomEnd: zoomEnd}, nil)
}

// GetEndpoint returns the last point of the recording known to the backend.
func (c *Client) GetEndpoint(ctx context.Context) (interfaces.TimeStampedPoint, error) {
	var res endpointResult
	if err := c.call(ctx, methodGetEndpoint, nil, &res); err != nil {
		return interfaces.TimeStampedPoint{}, err
	}
	return res.Endpoint, nil
}

// GetScreenShot fetches the raw screenshot payload for a paint point. The
// payload may be xz-compressed; callers decode it.
func (c *Client) GetScreenShot(ctx context.Context, point string) ([]byte, string, error) {
	var res screenShotResult
	if err := c.call(ctx, methodGetScreenShot, screenShotParams{Point: point}, &res); err != nil {
		return nil, "", err
	}
	return res.Data, res.MimeType, nil
}

// OnPaused subscribes to backend pause notifications.
func (c *Client) OnPaused(fn func(interfaces.PauseEvent)) (cancel func()) {
	return c.paused.Subscribe(fn)
}

// OnPaintPoints subscribes to paint point batches.
func (c *Client) OnPaintPoints(fn func([]graphics.PaintPoint)) (cancel func()) {
	return c.paintPoints.Subscribe(fn)
}

// OnMouseEvents subscribes to mouse event batches.
func (c *Client) OnMouseEvents(fn func([]graphics.MouseEvent)) (cancel func()) {
	return c.mouseEvents.Subscribe(fn)
}

// OnLoadedRegions subscribes to loaded-region announcements.
func (c *Client) OnLoadedRegions(fn func([]interfaces.TimeStampedPointRange)) (cancel func()) {
	return c.loadedRegions.Subscribe(fn)
}
