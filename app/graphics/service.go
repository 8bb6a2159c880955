package graphics

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"retrace/app/interfaces"
)

// ScreenShotFetcher resolves a paint point to its raw screenshot payload.
// The session transport implements it. Payloads may be xz-compressed on the
// wire; the service transparently decompresses them.
type ScreenShotFetcher interface {
	GetScreenShot(ctx context.Context, point string) (payload []byte, mimeType string, err error)
}

// Service combines the paint/mouse index, the screenshot cache and the
// transport fetcher into the graphics source the timeline engine consumes.
type Service struct {
	*Index
	fetcher ScreenShotFetcher
	cache   *ScreenShotCache
	logger  interfaces.Logger
}

// NewService creates a graphics service around the given fetcher and cache.
func NewService(fetcher ScreenShotFetcher, cache *ScreenShotCache, logger interfaces.Logger) *Service {
	return &Service{
		Index:   NewIndex(),
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
	}
}

// Cache returns the shared screenshot cache.
func (s *Service) Cache() *ScreenShotCache {
	return s.cache
}

// HasScreenShot reports whether the screenshot for the given paint hash is
// already cached.
func (s *Service) HasScreenShot(hash string) bool {
	return s.cache.Has(hash)
}

// xz stream magic bytes
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// decodePayload decompresses an xz-compressed screenshot payload; payloads
// without the xz magic pass through untouched.
func decodePayload(payload []byte) ([]byte, error) {
	if !bytes.HasPrefix(payload, xzMagic) {
		return payload, nil
	}
	r, err := xz.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open xz stream: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress screenshot: %w", err)
	}
	return out, nil
}

// GetGraphicsAtTime resolves the screen and mouse state for an instant: the
// most recent paint at or before the time plus the most recent mouse
// position. With precacheOnly set, the screenshot is fetched into the cache
// but not returned, which is what the precache walk wants.
func (s *Service) GetGraphicsAtTime(ctx context.Context, time float64, precacheOnly bool) (*Frame, error) {
	frame := &Frame{}

	if i := s.mostRecentMouse(time); i != nil {
		frame.Mouse = i
	}

	paint, ok := s.MostRecentPaint(time)
	if !ok || paint.ScreenShotHash == "" {
		return frame, nil
	}

	shot, err := s.fetchScreenShot(ctx, paint)
	if err != nil {
		return frame, err
	}
	if !precacheOnly {
		frame.ScreenShot = shot
	}
	return frame, nil
}

// fetchScreenShot returns the screenshot for a paint point, consulting the
// cache first.
func (s *Service) fetchScreenShot(ctx context.Context, paint PaintPoint) (*ScreenShot, error) {
	if shot, ok := s.cache.Get(paint.ScreenShotHash); ok {
		return shot, nil
	}

	payload, mimeType, err := s.fetcher.GetScreenShot(ctx, paint.Point)
	if err != nil {
		return nil, fmt.Errorf("fetch screenshot for point %s: %w", paint.Point, err)
	}
	data, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	shot := &ScreenShot{
		Hash:     paint.ScreenShotHash,
		MimeType: mimeType,
		Data:     data,
	}
	if shot.Hash == "" {
		shot.Hash = HashScreenShot(data)
	}
	s.cache.Add(shot)
	return shot, nil
}

// mostRecentMouse returns the cursor position as of the given time.
func (s *Service) mostRecentMouse(time float64) *MousePosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.mouse) - 1; i >= 0; i-- {
		if s.mouse[i].Time <= time {
			pos := s.mouse[i].MousePosition
			return &pos
		}
	}
	return nil
}
