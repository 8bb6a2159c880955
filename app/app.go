package app

import (
	"context"
	"sync"

	"retrace/app/graphics"
	"retrace/app/settings"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx context.Context

	// Multi-session support: one open recording per session
	sessionsMu      sync.RWMutex
	sessions        map[string]*openSession // keyed by session ID
	activeSessionID string

	// shared screenshot cache, sized from settings
	cache *graphics.ScreenShotCache

	// clipboard init
	clipOnce sync.Once
	clipOK   bool

	// in-flight recording scan cancellation
	locateCancelMu   sync.Mutex
	locateCancelFunc context.CancelFunc
}

// NewApp creates a new App application struct
func NewApp() *App {
	// Load settings to get cache size
	currentSettings := settings.GetEffectiveSettings()
	cacheSizeBytes := int64(currentSettings.CacheSizeLimitMB) * 1024 * 1024

	return &App{
		sessions: make(map[string]*openSession),
		cache:    graphics.NewScreenShotCache(cacheSizeBytes),
	}
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	// Set the logger for the cache now that we have a context
	if a.cache != nil {
		a.cache.SetLogger(a)
	}
}

// Shutdown tears down every open session before the process exits.
func (a *App) Shutdown(ctx context.Context) {
	a.sessionsMu.Lock()
	sessions := make([]*openSession, 0, len(a.sessions))
	for _, s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.sessions = make(map[string]*openSession)
	a.activeSessionID = ""
	a.sessionsMu.Unlock()

	for _, s := range sessions {
		s.teardown()
	}
}

// Ctx returns the app context
func (a *App) Ctx() context.Context {
	return a.ctx
}

// Log emits a structured log event to the frontend console window
func (a *App) Log(level, message string) {
	if a == nil || a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, "log", map[string]any{
		"level":   level,
		"message": message,
	})
}

// Emit forwards an engine event to the frontend.
func (a *App) Emit(name string, payload any) {
	if a == nil || a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, payload)
}

// UpdateCacheSize re-reads the configured cache size limit and applies it to
// the shared screenshot cache. Called by the settings service after a save.
func (a *App) UpdateCacheSize() {
	if a.cache == nil {
		return
	}
	currentSettings := settings.GetEffectiveSettings()
	a.cache.SetMaxSize(int64(currentSettings.CacheSizeLimitMB) * 1024 * 1024)
}

// CacheStatsResponse contains cache statistics for the frontend
type CacheStatsResponse struct {
	TotalSize    int64   `json:"totalSize"`
	MaxSize      int64   `json:"maxSize"`
	UsagePercent float64 `json:"usagePercent"`
	EntryCount   int     `json:"entryCount"`
}

// GetCacheStats returns the current screenshot cache statistics for the frontend
func (a *App) GetCacheStats() CacheStatsResponse {
	if a.cache == nil {
		return CacheStatsResponse{}
	}
	stats := a.cache.Stats()
	return CacheStatsResponse{
		TotalSize:    stats.TotalSize,
		MaxSize:      stats.MaxSize,
		UsagePercent: stats.UsagePercent,
		EntryCount:   stats.TotalEntries,
	}
}

// GetSavedWindowSize returns the persisted window dimensions, falling back
// to defaults when nothing valid is stored.
func (a *App) GetSavedWindowSize() (int, int, error) {
	s := settings.GetEffectiveSettings()
	width, height := s.WindowWidth, s.WindowHeight
	if width < 400 {
		width = 1280
	}
	if height < 300 {
		height = 800
	}
	return width, height, nil
}

// SaveWindowSize persists the window dimensions for the next launch.
func (a *App) SaveWindowSize(width, height int) error {
	svc := settings.NewSettingsService()
	current, err := svc.GetSettings()
	if err != nil {
		return err
	}
	current.WindowWidth = width
	current.WindowHeight = height
	return svc.SaveSettings(current)
}
