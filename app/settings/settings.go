package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GetEffectiveSettings returns the effective settings (defaults overlaid with file overrides if any).
// If anything goes wrong, it returns defaults.
func GetEffectiveSettings() Settings {
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings
	}
	if _, err := os.Stat(path); err != nil {
		// no file or other stat error -> return defaults
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings
	}
	applyOverrides(&settings, m)
	return settings
}

// applyOverrides copies any present, well-typed keys from the raw file map
// onto the settings. Presence is checked per key so an explicit empty
// override is distinguishable from an absent one.
func applyOverrides(settings *Settings, m map[string]any) {
	if v, ok := m["api_url"]; ok {
		if vs, oks := v.(string); oks && vs != "" {
			settings.APIURL = vs
		}
	}
	if v, ok := m["auth_token"]; ok {
		if vs, oks := v.(string); oks {
			settings.AuthToken = vs
		}
	}
	if v, ok := m["cache_size_limit_mb"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.CacheSizeLimitMB = vi
		}
	}
	if v, ok := m["recordings_dir"]; ok {
		if vs, oks := v.(string); oks {
			settings.RecordingsDir = vs
		}
	}
	if v, ok := m["instance_id"]; ok {
		if vs, oks := v.(string); oks {
			settings.InstanceID = vs
		}
	}
	if v, ok := m["window_width"]; ok {
		if vi, oki := v.(int); oki && vi >= 400 {
			settings.WindowWidth = vi
		}
	}
	if v, ok := m["window_height"]; ok {
		if vi, oki := v.(int); oki && vi >= 300 {
			settings.WindowHeight = vi
		}
	}
}

func settingsFilePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, "retrace.yml"), nil
}
