package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/contentdesk/internal/content"
)

func writeConfig(t *testing.T, workspace, body string) {
	t.Helper()
	dir := filepath.Join(workspace, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.BaseURL() != defaultBaseURL {
		t.Fatalf("expected base url %q, got %q", defaultBaseURL, cfg.BaseURL())
	}
	if cfg.Timeout() != defaultTimeout {
		t.Fatalf("expected timeout %s, got %s", defaultTimeout, cfg.Timeout())
	}
	if cfg.Defaults().ContentType != content.ContentTypeThread || cfg.Defaults().Platform != content.PlatformX {
		t.Fatalf("unexpected submit defaults: %+v", cfg.Defaults())
	}
}

func TestInitDirWritesParsableTemplate(t *testing.T) {
	workspace := t.TempDir()
	if err := InitDir(workspace); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workspace, Dir, "logs")); err != nil {
		t.Fatalf("expected logs dir: %v", err)
	}
	cfg, err := NewConfig(workspace)
	if err != nil {
		t.Fatalf("template should load cleanly: %v", err)
	}
	if !cfg.Defaults().IncludeSourceCitations {
		t.Fatalf("template enables citations by default")
	}
	if err := InitDir(workspace); err != nil {
		t.Fatalf("second InitDir should be a no-op: %v", err)
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	workspace := t.TempDir()
	writeConfig(t, workspace, `
version: 1
api:
  base_url: " https://api.example.com/ "
  timeout: 3s
defaults:
  content_type: Article
  platform: TYPEFULLY
  auto_post: true
  persona: clinician
log:
  level: DEBUG
`)
	cfg, err := NewConfig(workspace)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.BaseURL() != "https://api.example.com" {
		t.Fatalf("base url not normalized: %q", cfg.BaseURL())
	}
	if cfg.Timeout() != 3*time.Second {
		t.Fatalf("timeout = %s", cfg.Timeout())
	}
	d := cfg.Defaults()
	if d.ContentType != content.ContentTypeArticle || d.Platform != content.PlatformTypefully || !d.AutoPost {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel())
	}
}

func TestNewConfigValidation(t *testing.T) {
	workspace := t.TempDir()
	writeConfig(t, workspace, `
version: 1
defaults:
  platform: myspace
`)
	if _, err := NewConfig(workspace); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	workspace := t.TempDir()
	writeConfig(t, workspace, `
api:
  base_url: https://file.example.com
`)
	t.Setenv(EnvAPIURL, "https://env.example.com")
	t.Setenv(EnvAPITimeout, "750ms")
	t.Setenv(EnvLogLevel, "warn")
	cfg, err := NewConfig(workspace)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.BaseURL() != "https://env.example.com" {
		t.Fatalf("env url ignored: %q", cfg.BaseURL())
	}
	if cfg.Timeout() != 750*time.Millisecond {
		t.Fatalf("env timeout ignored: %s", cfg.Timeout())
	}
	if cfg.LogLevel() != "warn" {
		t.Fatalf("env level ignored: %q", cfg.LogLevel())
	}
}

func TestInvalidEnvTimeoutFails(t *testing.T) {
	t.Setenv(EnvAPITimeout, "soon")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error for unparsable timeout")
	}
}

func TestSetBaseURLRejectsInvalidValue(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetBaseURL("ftp://nope"); err == nil {
		t.Fatalf("expected scheme validation error")
	}
	if cfg.BaseURL() != defaultBaseURL {
		t.Fatalf("failed override must not change config, got %q", cfg.BaseURL())
	}
	if err := cfg.SetLogLevel("Error"); err != nil || cfg.LogLevel() != "error" {
		t.Fatalf("SetLogLevel: %v (%q)", err, cfg.LogLevel())
	}
}

func TestSetDefaultsPersists(t *testing.T) {
	workspace := t.TempDir()
	cfg, err := NewConfig(workspace)
	if err != nil {
		t.Fatal(err)
	}
	next := cfg.Defaults()
	next.Platform = content.PlatformTypefully
	next.Persona = "  science writer "
	if err := cfg.SetDefaults(next); err != nil {
		t.Fatalf("SetDefaults: %v", err)
	}
	reloaded, err := NewConfig(workspace)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Defaults().Platform != content.PlatformTypefully {
		t.Fatalf("platform not persisted: %+v", reloaded.Defaults())
	}
	if reloaded.Defaults().Persona != "science writer" {
		t.Fatalf("persona not normalized: %q", reloaded.Defaults().Persona)
	}
	if reloaded.Timeout() != defaultTimeout {
		t.Fatalf("timeout lost on round trip: %s", reloaded.Timeout())
	}
}
