// Package config handles Chatty configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned by FindConfig when no explicit path was given
// and none of the default locations holds a config file. Callers treat it
// as "run with defaults".
var ErrNoConfig = errors.New("no config file found")

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/chatty/config.yaml, /etc/chatty/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "chatty", "config.yaml"))
	}

	paths = append(paths, "/etc/chatty/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists,
// or an error wrapping [ErrNoConfig].
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfig, DefaultSearchPaths())
}

// Config holds all Chatty configuration.
type Config struct {
	Models       ModelsConfig    `yaml:"models"`
	History      HistoryConfig   `yaml:"history"`
	Workspace    WorkspaceConfig `yaml:"workspace"`
	Search       SearchConfig    `yaml:"search"`
	Sandbox      SandboxConfig   `yaml:"sandbox"`
	DataDir      string          `yaml:"data_dir"`
	SettingsFile string          `yaml:"settings_file"`
	LogLevel     string          `yaml:"log_level"`
	LogFormat    string          `yaml:"log_format"`
	LogFile      string          `yaml:"log_file"`

	// Color controls ANSI output: "auto" (only on a terminal), "always", or "never".
	Color string `yaml:"color"`
}

// ModelsConfig selects the backend model.
type ModelsConfig struct {
	Default   string `yaml:"default"`
	OllamaURL string `yaml:"ollama_url"`
}

// HistoryConfig controls where the transcript is persisted.
type HistoryConfig struct {
	// Backend is "json" (default) or "sqlite".
	Backend string `yaml:"backend"`
	// Path is the transcript file or database. Relative paths are
	// resolved against DataDir.
	Path string `yaml:"path"`
}

// WorkspaceConfig defines the root for the file tool.
type WorkspaceConfig struct {
	// Path is the directory file tool paths are resolved against and
	// confined to. Defaults to the current directory.
	Path string `yaml:"path"`

	// Unrestricted lets the file tool read and write anywhere the
	// process can, ignoring Path.
	Unrestricted bool `yaml:"unrestricted"`
}

// Root returns the containment directory for the file tool, or "" when
// paths are unrestricted.
func (w WorkspaceConfig) Root() string {
	if w.Unrestricted {
		return ""
	}
	return w.Path
}

// SearchConfig selects and configures the web search backend.
type SearchConfig struct {
	Provider   string           `yaml:"provider"` // duckduckgo, searxng, brave
	Count      int              `yaml:"count"`
	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo"`
	SearXNG    SearXNGConfig    `yaml:"searxng"`
	Brave      BraveConfig      `yaml:"brave"`
}

// DuckDuckGoConfig configures the keyless HTML search provider.
type DuckDuckGoConfig struct {
	URL string `yaml:"url"`
}

// SearXNGConfig configures a SearXNG instance.
type SearXNGConfig struct {
	URL string `yaml:"url"`
}

// Configured reports whether a SearXNG URL is set.
func (c SearXNGConfig) Configured() bool {
	return c.URL != ""
}

// BraveConfig configures the Brave Search API.
type BraveConfig struct {
	APIKey string `yaml:"api_key"`
}

// Configured reports whether a Brave API key is set.
func (c BraveConfig) Configured() bool {
	return c.APIKey != ""
}

// SandboxConfig bounds model-authored code execution.
type SandboxConfig struct {
	MaxSteps uint64 `yaml:"max_steps"`
}

// Load reads configuration from a YAML file. Environment variables in
// the file are expanded before parsing, and unset fields receive their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Models.Default == "" {
		c.Models.Default = "phi3:mini"
	}
	if c.Models.OllamaURL == "" {
		c.Models.OllamaURL = "http://localhost:11434"
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.History.Backend == "" {
		c.History.Backend = "json"
	}
	if c.History.Path == "" {
		if c.History.Backend == "sqlite" {
			c.History.Path = "chat_history.db"
		} else {
			c.History.Path = "chat_history.json"
		}
	}
	if c.Workspace.Path == "" {
		c.Workspace.Path = "."
	}
	if c.SettingsFile == "" {
		c.SettingsFile = "settings.yaml"
	}
	if c.Search.Provider == "" {
		switch {
		case c.Search.SearXNG.Configured():
			c.Search.Provider = "searxng"
		case c.Search.Brave.Configured():
			c.Search.Provider = "brave"
		default:
			c.Search.Provider = "duckduckgo"
		}
	}
	if c.Search.Count <= 0 {
		c.Search.Count = 5
	}
	if c.Sandbox.MaxSteps == 0 {
		c.Sandbox.MaxSteps = 10_000_000
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	if c.Color == "" {
		c.Color = "auto"
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format: unknown format %q (valid: text, json)", c.LogFormat)
	}
	switch c.History.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("history.backend: unknown backend %q (valid: json, sqlite)", c.History.Backend)
	}
	switch c.Search.Provider {
	case "duckduckgo":
	case "searxng":
		if !c.Search.SearXNG.Configured() {
			return fmt.Errorf("search.provider is searxng but search.searxng.url is empty")
		}
	case "brave":
		if !c.Search.Brave.Configured() {
			return fmt.Errorf("search.provider is brave but search.brave.api_key is empty")
		}
	default:
		return fmt.Errorf("search.provider: unknown provider %q (valid: duckduckgo, searxng, brave)", c.Search.Provider)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color: unknown mode %q (valid: auto, always, never)", c.Color)
	}
	return nil
}

// DataPath resolves p against DataDir unless it is already absolute.
func (c *Config) DataPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
