// internal/config/config.go
//
// This package handles configuration and the .contentdesk directory structure.
// The workspace directory gets a .contentdesk/ folder on first run.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/contentdesk/internal/content"
)

const (
	// Dir is the name of the directory we create in the workspace
	Dir = ".contentdesk"

	defaultBaseURL  = "http://localhost:8000"
	defaultTimeout  = 10 * time.Second
	defaultLogLevel = "info"
)

// Environment overrides, applied after the YAML file is parsed.
const (
	EnvAPIURL     = "CONTENTDESK_API_URL"
	EnvAPITimeout = "CONTENTDESK_API_TIMEOUT"
	EnvLogLevel   = "CONTENTDESK_LOG_LEVEL"
)

const defaultConfigYAML = `# contentdesk configuration
version: 1

api:
  # Base URL of the content service. CONTENTDESK_API_URL overrides it.
  base_url: http://localhost:8000
  # Per-request timeout.
  timeout: 10s

# Pre-filled values for the submit form.
defaults:
  content_type: thread
  platform: x
  auto_post: false
  include_source_citations: true
  persona: ""

log:
  # debug, info, warn or error
  level: info
`

// APIConfig selects the backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SubmitDefaults pre-fill the topic submission form.
type SubmitDefaults struct {
	ContentType            content.ContentType `yaml:"content_type"`
	Platform               content.Platform    `yaml:"platform"`
	AutoPost               bool                `yaml:"auto_post"`
	IncludeSourceCitations bool                `yaml:"include_source_citations"`
	Persona                string              `yaml:"persona,omitempty"`
}

// LogConfig controls the diagnostics log.
type LogConfig struct {
	Level string `yaml:"level"`
}

// FileConfig models .contentdesk/config.yaml.
type FileConfig struct {
	Version  int            `yaml:"version"`
	API      APIConfig      `yaml:"api"`
	Defaults SubmitDefaults `yaml:"defaults"`
	Log      LogConfig      `yaml:"log"`
}

// Config holds the runtime configuration.
type Config struct {
	// WorkspaceDir is the directory contentdesk was started from
	WorkspaceDir string

	// StateDir is WorkspaceDir/.contentdesk
	StateDir string

	File FileConfig
}

// InitDir creates the .contentdesk directory structure in the workspace.
//
// Structure created:
// .contentdesk/
// ├── config.yaml
// └── logs/        <- diagnostics log and activity journal
func InitDir(workspaceDir string) error {
	root := filepath.Join(workspaceDir, Dir)
	if err := os.MkdirAll(filepath.Join(root, "logs"), 0o755); err != nil {
		return err
	}
	return ensureConfigFile(filepath.Join(root, "config.yaml"))
}

// NewConfig loads the workspace configuration and applies env overrides.
func NewConfig(workspaceDir string) (*Config, error) {
	cfg := &Config{
		WorkspaceDir: workspaceDir,
		StateDir:     filepath.Join(workspaceDir, Dir),
		File:         defaultFileConfig(),
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// JournalPath is where the activity journal is written.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "activity.log")
}

// ConfigPath returns the on-disk location of the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// BaseURL returns the configured backend URL.
func (c *Config) BaseURL() string {
	return c.File.API.BaseURL
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return c.File.API.Timeout
}

// LogLevel returns the configured diagnostics level.
func (c *Config) LogLevel() string {
	return c.File.Log.Level
}

// Defaults returns the submit form defaults.
func (c *Config) Defaults() SubmitDefaults {
	return c.File.Defaults
}

// SetBaseURL overrides the backend URL for this run (the --api-url flag).
func (c *Config) SetBaseURL(raw string) error {
	next := c.File
	next.API.BaseURL = raw
	next.normalize()
	if err := next.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.File = next
	return nil
}

// SetLogLevel overrides the log level for this run (the --log-level flag).
func (c *Config) SetLogLevel(level string) error {
	next := c.File
	next.Log.Level = level
	next.normalize()
	if err := next.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.File = next
	return nil
}

// SetDefaults updates the submit defaults and persists them back to
// .contentdesk/config.yaml.
func (c *Config) SetDefaults(defaults SubmitDefaults) error {
	c.File.Defaults = defaults
	return c.save()
}

func (c *Config) load() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultFileConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.File = parsed
	return nil
}

func (c *Config) applyEnv() error {
	next := c.File
	if raw := strings.TrimSpace(os.Getenv(EnvAPIURL)); raw != "" {
		next.API.BaseURL = raw
	}
	if raw := strings.TrimSpace(os.Getenv(EnvAPITimeout)); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvAPITimeout, err)
		}
		next.API.Timeout = timeout
	}
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		next.Log.Level = raw
	}
	next.normalize()
	if err := next.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.File = next
	return nil
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version: 1,
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Defaults: SubmitDefaults{
			ContentType:            content.ContentTypeThread,
			Platform:               content.PlatformX,
			IncludeSourceCitations: true,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if strings.TrimSpace(fc.API.BaseURL) == "" {
		fc.API.BaseURL = defaultBaseURL
	}
	if fc.API.Timeout == 0 {
		fc.API.Timeout = defaultTimeout
	}
	if fc.Defaults.ContentType == "" {
		fc.Defaults.ContentType = content.ContentTypeThread
	}
	if fc.Defaults.Platform == "" {
		fc.Defaults.Platform = content.PlatformX
	}
	if strings.TrimSpace(fc.Log.Level) == "" {
		fc.Log.Level = defaultLogLevel
	}
}

func (fc *FileConfig) normalize() {
	fc.API.BaseURL = strings.TrimRight(strings.TrimSpace(fc.API.BaseURL), "/")
	fc.Defaults.ContentType = content.ContentType(normalizeValue(string(fc.Defaults.ContentType)))
	fc.Defaults.Platform = content.Platform(normalizeValue(string(fc.Defaults.Platform)))
	fc.Defaults.Persona = strings.TrimSpace(fc.Defaults.Persona)
	fc.Log.Level = normalizeValue(fc.Log.Level)
}

func (fc *FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !strings.HasPrefix(fc.API.BaseURL, "http://") && !strings.HasPrefix(fc.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must start with http:// or https://")
	}
	if fc.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if !fc.Defaults.ContentType.Valid() {
		return fmt.Errorf("defaults.content_type must be one of %v", content.ContentTypes())
	}
	if !fc.Defaults.Platform.Valid() {
		return fmt.Errorf("defaults.platform must be one of %v", content.Platforms())
	}
	switch fc.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}

func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

func (c *Config) save() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.File.applyDefaults()
	c.File.normalize()
	if err := c.File.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(c.File)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}
