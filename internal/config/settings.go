package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Temperature bounds shared by both tunable settings.
const (
	MinTemperature = 0.1
	MaxTemperature = 1.0
)

// Settings holds the user-tunable sampling temperatures. Both values
// are always within [MinTemperature, MaxTemperature].
type Settings struct {
	ConversationTemperature float64 `yaml:"conversation_temperature"`
	ToolTemperature         float64 `yaml:"tool_temperature"`
}

// DefaultSettings returns the settings used when nothing is persisted.
func DefaultSettings() Settings {
	return Settings{
		ConversationTemperature: 0.7,
		ToolTemperature:         0.3,
	}
}

// ErrTemperatureRange is returned for values outside the allowed interval.
var ErrTemperatureRange = fmt.Errorf("temperature must be between %.1f and %.1f", MinTemperature, MaxTemperature)

// CheckTemperature reports whether v lies in the closed allowed interval.
// NaN is rejected.
func CheckTemperature(v float64) error {
	if !(v >= MinTemperature && v <= MaxTemperature) {
		return ErrTemperatureRange
	}
	return nil
}

// SettingsStore persists Settings as a small YAML document.
type SettingsStore struct {
	path   string
	logger *slog.Logger
}

// NewSettingsStore creates a store backed by the file at path.
func NewSettingsStore(path string, logger *slog.Logger) *SettingsStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsStore{path: path, logger: logger}
}

// Load reads persisted settings. A missing file yields the defaults.
// A stored value outside the allowed interval is replaced by its
// default and logged, leaving the other value intact.
func (s *SettingsStore) Load() (Settings, error) {
	defaults := DefaultSettings()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("no settings file, using defaults", "path", s.path)
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("read settings: %w", err)
	}

	var stored Settings
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return defaults, fmt.Errorf("parse settings %s: %w", s.path, err)
	}

	out := stored
	if CheckTemperature(stored.ConversationTemperature) != nil {
		s.logger.Warn("stored conversation temperature out of range, using default",
			"value", stored.ConversationTemperature, "default", defaults.ConversationTemperature)
		out.ConversationTemperature = defaults.ConversationTemperature
	}
	if CheckTemperature(stored.ToolTemperature) != nil {
		s.logger.Warn("stored tool temperature out of range, using default",
			"value", stored.ToolTemperature, "default", defaults.ToolTemperature)
		out.ToolTemperature = defaults.ToolTemperature
	}
	return out, nil
}

// Save writes settings, creating the parent directory if needed.
func (s *SettingsStore) Save(st Settings) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	s.logger.Debug("settings saved", "path", s.path)
	return nil
}
