package settings

// Settings holds application settings that can be overridden by the user.
type Settings struct {
	// APIURL is the websocket endpoint of the replay backend.
	APIURL string `yaml:"api_url" json:"api_url"`
	// AuthToken holds the JWT presented when dialing a recording session (not visible in settings dialog)
	AuthToken string `yaml:"auth_token,omitempty" json:"auth_token,omitempty"`
	// Cache size limit in MB for the shared screenshot cache
	CacheSizeLimitMB int `yaml:"cache_size_limit_mb" json:"cache_size_limit_mb"`
	// RecordingsDir is scanned for local recording manifests in the open dialog
	RecordingsDir string `yaml:"recordings_dir,omitempty" json:"recordings_dir,omitempty"`
	// InstanceID is a unique identifier for this Retrace installation (not visible in settings dialog)
	InstanceID string `yaml:"instance_id,omitempty" json:"instance_id,omitempty"`
	// Window size settings (not visible in settings dialog, but persisted)
	WindowWidth  int `yaml:"window_width,omitempty" json:"window_width,omitempty"`
	WindowHeight int `yaml:"window_height,omitempty" json:"window_height,omitempty"`
}

// CacheManager interface defines methods that SettingsService needs for cache management.
// This breaks the circular dependency between app and settings packages.
type CacheManager interface {
	UpdateCacheSize()
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	APIURL:           "wss://replay.retrace.dev",
	CacheSizeLimitMB: 100,
	// Default window size (matches main.go defaults)
	WindowWidth:  1280,
	WindowHeight: 800,
}
