package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SettingsService manages reading/writing settings from disk.
type SettingsService struct {
	ctx          context.Context
	cacheManager CacheManager
}

func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

// SetCacheManager allows the main function to inject the cache manager
func (s *SettingsService) SetCacheManager(cm CacheManager) {
	s.cacheManager = cm
}

// Startup receives the Wails context
func (s *SettingsService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// GetSettings returns the effective settings (defaults overlaid with file overrides if any).
func (s *SettingsService) GetSettings() (Settings, error) {
	// Start with defaults and overlay any on-disk overrides
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings, err
	}
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, err
	}
	// Read and unmarshal
	b, err := os.ReadFile(path)
	if err != nil {
		return settings, err
	}
	// Unmarshal into a generic map to detect key presence
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings, err
	}
	applyOverrides(&settings, m)
	return settings, nil
}

// SaveSettings saves only the values that differ from defaults into YAML in the binary directory.
func (s *SettingsService) SaveSettings(in Settings) error {
	// Get current settings to detect changes
	old := GetEffectiveSettings()
	cacheSizeChanged := old.CacheSizeLimitMB != in.CacheSizeLimitMB && in.CacheSizeLimitMB > 0

	// Build a minimal map containing only non-default values to avoid zero-value serialization pitfalls
	data := make(map[string]any)
	if v := strings.TrimSpace(in.APIURL); v != defaultSettings.APIURL && v != "" {
		data["api_url"] = v
	}

	// Preserve the auth token (not visible in settings dialog, but must persist)
	authToken := strings.TrimSpace(in.AuthToken)
	if authToken == "" {
		authToken = strings.TrimSpace(old.AuthToken)
	}
	if authToken != "" {
		data["auth_token"] = authToken
	}

	if in.CacheSizeLimitMB != defaultSettings.CacheSizeLimitMB && in.CacheSizeLimitMB > 0 {
		data["cache_size_limit_mb"] = in.CacheSizeLimitMB
	}
	if v := strings.TrimSpace(in.RecordingsDir); v != "" {
		data["recordings_dir"] = v
	}

	// Preserve instance ID (not visible in settings dialog, but must persist)
	instanceID := strings.TrimSpace(in.InstanceID)
	if instanceID == "" {
		instanceID = strings.TrimSpace(old.InstanceID)
	}
	if instanceID != "" {
		data["instance_id"] = instanceID
	}

	// Preserve window size (not visible in settings dialog, but must persist)
	windowWidth := in.WindowWidth
	if windowWidth == 0 {
		windowWidth = old.WindowWidth
	}
	if windowWidth != defaultSettings.WindowWidth && windowWidth >= 400 {
		data["window_width"] = windowWidth
	}

	windowHeight := in.WindowHeight
	if windowHeight == 0 {
		windowHeight = old.WindowHeight
	}
	if windowHeight != defaultSettings.WindowHeight && windowHeight >= 300 {
		data["window_height"] = windowHeight
	}

	if err := writeSettingsFile(data); err != nil {
		return err
	}

	// Resize the screenshot cache if the limit changed
	if cacheSizeChanged && s.cacheManager != nil {
		s.cacheManager.UpdateCacheSize()
	}

	return nil
}

// ClearAuthToken removes the stored auth token while preserving every other
// override, used on logout.
func (s *SettingsService) ClearAuthToken() error {
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}

	// Build a map with all current overrides except the auth token
	data := make(map[string]any)
	if v := strings.TrimSpace(settings.APIURL); v != defaultSettings.APIURL && v != "" {
		data["api_url"] = v
	}
	if settings.CacheSizeLimitMB != defaultSettings.CacheSizeLimitMB && settings.CacheSizeLimitMB > 0 {
		data["cache_size_limit_mb"] = settings.CacheSizeLimitMB
	}
	if v := strings.TrimSpace(settings.RecordingsDir); v != "" {
		data["recordings_dir"] = v
	}
	// Preserve instance ID (must not be cleared during logout)
	if instanceID := strings.TrimSpace(settings.InstanceID); instanceID != "" {
		data["instance_id"] = instanceID
	}
	if settings.WindowWidth != defaultSettings.WindowWidth && settings.WindowWidth >= 400 {
		data["window_width"] = settings.WindowWidth
	}
	if settings.WindowHeight != defaultSettings.WindowHeight && settings.WindowHeight >= 300 {
		data["window_height"] = settings.WindowHeight
	}

	// Note: Intentionally NOT adding the auth token - this clears it

	return writeSettingsFile(data)
}

// EnsureInstanceID generates and saves a unique instance ID if one doesn't exist
func (s *SettingsService) EnsureInstanceID() error {
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}

	// If instance ID already exists, nothing to do
	if strings.TrimSpace(settings.InstanceID) != "" {
		return nil
	}

	settings.InstanceID = uuid.New().String()
	return s.SaveSettings(settings)
}

// writeSettingsFile persists the override map, removing the file entirely
// when no overrides remain.
func writeSettingsFile(data map[string]any) error {
	path, err := settingsFilePath()
	if err != nil {
		return err
	}

	if len(data) == 0 {
		// If there is an existing file, remove it to reflect defaults-only state
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
		}
		return nil
	}

	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
