package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"retrace/app/settings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ohler55/ojg/oj"
)

// RecordingManifest describes one locally exported recording, parsed from a
// *.retrace.json manifest file.
type RecordingManifest struct {
	RecordingID string  `json:"recordingId"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	CreatedAt   string  `json:"createdAt"`
	Path        string  `json:"path"`
}

// CancelLocateRecordings cancels an in-flight recording scan.
func (a *App) CancelLocateRecordings() {
	a.locateCancelMu.Lock()
	defer a.locateCancelMu.Unlock()
	if a.locateCancelFunc != nil {
		a.locateCancelFunc()
		a.locateCancelFunc = nil
	}
}

// LocateRecordings scans the configured recordings directory for manifest
// files and returns the recordings they describe, newest path first. Scan
// progress streams to the frontend; a second call cancels the first.
func (a *App) LocateRecordings() ([]RecordingManifest, error) {
	currentSettings := settings.GetEffectiveSettings()
	dir := strings.TrimSpace(currentSettings.RecordingsDir)
	if dir == "" {
		return nil, fmt.Errorf("no recordings directory configured")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("recordings directory %s: %w", dir, err)
	}

	a.locateCancelMu.Lock()
	if a.locateCancelFunc != nil {
		a.locateCancelFunc()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.locateCancelFunc = cancel
	a.locateCancelMu.Unlock()
	defer cancel()

	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "**", "*.retrace.json"))
	if err != nil {
		return nil, fmt.Errorf("scan recordings directory: %w", err)
	}

	out := make([]RecordingManifest, 0, len(matches))
	for i, path := range matches {
		select {
		case <-ctx.Done():
			a.Emit("recordings:scan:cancelled", nil)
			return out, nil
		default:
		}

		manifest, err := parseRecordingManifest(path)
		if err != nil {
			a.Log("warn", fmt.Sprintf("Skipping manifest %s: %v", filepath.Base(path), err))
			continue
		}
		out = append(out, manifest)

		a.Emit("recordings:scan:progress", map[string]any{
			"scanned": i + 1,
			"total":   len(matches),
			"found":   len(out),
		})
	}

	a.Emit("recordings:scan:complete", map[string]any{"found": len(out)})
	return out, nil
}

// parseRecordingManifest reads and validates one manifest file.
func parseRecordingManifest(path string) (RecordingManifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RecordingManifest{}, err
	}
	parsed, err := oj.Parse(b)
	if err != nil {
		return RecordingManifest{}, fmt.Errorf("invalid JSON: %w", err)
	}
	m, ok := parsed.(map[string]any)
	if !ok {
		return RecordingManifest{}, fmt.Errorf("manifest is not an object")
	}

	manifest := RecordingManifest{Path: path}
	if v, ok := m["recordingId"].(string); ok {
		manifest.RecordingID = v
	}
	if manifest.RecordingID == "" {
		return RecordingManifest{}, fmt.Errorf("missing recordingId")
	}
	if v, ok := m["title"].(string); ok {
		manifest.Title = v
	}
	if manifest.Title == "" {
		manifest.Title = strings.TrimSuffix(filepath.Base(path), ".retrace.json")
	}
	switch v := m["duration"].(type) {
	case float64:
		manifest.Duration = v
	case int64:
		manifest.Duration = float64(v)
	}
	if v, ok := m["createdAt"].(string); ok {
		manifest.CreatedAt = v
	}
	return manifest, nil
}
