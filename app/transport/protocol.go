package transport

import (
	"encoding/json"

	"retrace/app/graphics"
	"retrace/app/interfaces"
)

// wire envelopes for the session protocol. Commands carry a client-assigned
// id; the backend answers with a result or error envelope bearing the same
// id, and pushes unsolicited event envelopes with a method but no id.

type commandEnvelope struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type inboundEnvelope struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// command parameter and result payloads

type timeWarpParams struct {
	Point     string  `json:"point"`
	Time      float64 `json:"time"`
	HasFrames bool    `json:"hasFrames"`
}

type timeWarpToPauseParams struct {
	PauseID string `json:"pauseId"`
}

type pointNearTimeParams struct {
	Time float64 `json:"time"`
}

type pointNearTimeResult struct {
	Point interfaces.TimeStampedPoint `json:"point"`
}

type loadRegionParams struct {
	Region  interfaces.TimeStampedPointRange `json:"region"`
	ZoomEnd float64                          `json:"zoomEnd"`
}

type endpointResult struct {
	Endpoint interfaces.TimeStampedPoint `json:"endpoint"`
}

type screenShotParams struct {
	Point string `json:"point"`
}

type screenShotResult struct {
	// Data is base64 on the wire (json []byte); the payload may additionally
	// be xz-compressed.
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
}

// event payloads pushed by the backend

type paintPointsEvent struct {
	Paints []graphics.PaintPoint `json:"paints"`
}

type mouseEventsEvent struct {
	Events []graphics.MouseEvent `json:"events"`
}

type loadedRegionsEvent struct {
	Loaded       []interfaces.TimeStampedPointRange `json:"loaded"`
	Indexed      []interfaces.TimeStampedPointRange `json:"indexed,omitempty"`
	ZoomEndpoint *interfaces.TimeStampedPoint       `json:"zoomEndpoint,omitempty"`
}

// protocol method and event names
const (
	methodTimeWarp        = "Session.timeWarp"
	methodTimeWarpToPause = "Session.timeWarpToPause"
	methodPointNearTime   = "Session.getPointNearTime"
	methodLoadRegion      = "Session.loadRegion"
	methodGetEndpoint     = "Session.getEndpoint"
	methodGetScreenShot   = "Session.getScreenShot"

	eventPaused        = "Session.paused"
	eventPaintPoints   = "Session.paintPoints"
	eventMouseEvents   = "Session.mouseEvents"
	eventLoadedRegions = "Session.loadedRegions"
)
