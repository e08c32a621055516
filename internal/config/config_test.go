package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsAreValidWithToken(t *testing.T) {
	cfg := Default()
	cfg.Discogs.Token = "test-token"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.RateLimit.Budget != 60 || cfg.RateLimit.WindowSeconds != 60 {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Discogs.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Discogs.MaxRetries)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	t.Setenv("DISCOGS_TOKEN", "")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error without token")
	}
	if !strings.Contains(err.Error(), "discogs.token") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

func TestTokenEnvFallback(t *testing.T) {
	t.Setenv("DISCOGS_TOKEN", "env-token")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Discogs.Token != "env-token" {
		t.Errorf("Token = %q, want env fallback", cfg.Discogs.Token)
	}
}

func TestLoadParsesFileAndExpandsCachePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[discogs]
token = "abc"

[cache]
path = "` + filepath.Join(dir, "verdicts.db") + `"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Discogs.Token != "abc" {
		t.Errorf("Token = %q", cfg.Discogs.Token)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q, want canonical json", cfg.Logging.Format)
	}
	if !filepath.IsAbs(cfg.Cache.Path) {
		t.Errorf("cache path not absolute: %q", cfg.Cache.Path)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[discogs]
token = "abc"

[logging]
format = "xml"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestValidateOrganizerNeedsLibrary(t *testing.T) {
	cfg := Default()
	cfg.Discogs.Token = "test-token"
	cfg.Organizer.Enabled = true
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when organizer is enabled without a library")
	}

	cfg.Organizer.Library = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with library: %v", err)
	}
	if cfg.Organizer.Format == "" {
		t.Error("organizer format default missing")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[discogs]") {
		t.Errorf("sample missing discogs section")
	}
}
