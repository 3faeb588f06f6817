package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// StoreSettings selects and locates the durable backend.
type StoreSettings struct {
	// Backend is "file" or "sqlite".
	Backend string `json:"backend"`
	// DataDir holds the slot file or the sqlite database.
	DataDir string `json:"dataDir"`
}

// ImageSettings bounds the ingestion pipeline.
type ImageSettings struct {
	MaxPerItem    int `json:"maxPerItem"`
	MaxFileSizeMB int `json:"maxFileSizeMB"`
	MaxWidth      int `json:"maxWidth"`
	MaxHeight     int `json:"maxHeight"`
	// Quality is the JPEG re-encode quality, 1-100.
	Quality int `json:"quality"`
}

// LoggingSettings configures optional rotating file output.
type LoggingSettings struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
}

// Settings is the full application configuration.
type Settings struct {
	Store   StoreSettings   `json:"store"`
	Images  ImageSettings   `json:"images"`
	Logging LoggingSettings `json:"logging"`
}

// DefaultSettings returns the configuration used when no settings file
// exists. The image bounds mirror what the watched-list UI has always
// produced, so existing records stay visually consistent.
func DefaultSettings(dataDir string) Settings {
	return Settings{
		Store: StoreSettings{
			Backend: "file",
			DataDir: dataDir,
		},
		Images: ImageSettings{
			MaxPerItem:    5,
			MaxFileSizeMB: 5,
			MaxWidth:      800,
			MaxHeight:     600,
			Quality:       80,
		},
		Logging: LoggingSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Manager loads and persists Settings from a JSON file. Missing files are
// not an error; callers always get usable settings back.
type Manager struct {
	fs   afero.Fs
	path string

	mu     sync.RWMutex
	cached *Settings
}

// NewManager creates a manager backed by the OS filesystem.
func NewManager(path string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), path)
}

// NewManagerWithFs creates a manager over an explicit filesystem.
func NewManagerWithFs(fs afero.Fs, path string) *Manager {
	return &Manager{fs: fs, path: path}
}

// Load returns the current settings, reading the file on first use. A
// missing file yields defaults rooted next to the settings file.
func (m *Manager) Load() (Settings, error) {
	m.mu.RLock()
	if m.cached != nil {
		s := *m.cached
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		return *m.cached, nil
	}

	settings := DefaultSettings(filepath.Dir(m.path))

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.cached = &settings
			return settings, nil
		}
		return settings, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(filepath.Dir(m.path)), fmt.Errorf("parse settings: %w", err)
	}

	m.cached = &settings
	return settings, nil
}

// Save persists settings atomically and updates the cached copy.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(m.path)
	if dir != "" && dir != "." {
		if err := m.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	tmp := m.path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := m.fs.Rename(tmp, m.path); err != nil {
		m.fs.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}

	m.cached = &settings
	return nil
}
