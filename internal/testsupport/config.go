package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"phonodex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Discogs.Token = "test-token"
	cfgVal.Cache.Path = filepath.Join(base, "verdicts.db")
	cfgVal.Organizer.Library = filepath.Join(base, "library")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithToken sets the Discogs token on the test config.
func WithToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discogs.Token = token
	}
}

// WithSearchURL points the test config at a stand-in search endpoint.
func WithSearchURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discogs.SearchURL = url
	}
}

// WithoutPersistence disables the on-disk verdict cache.
func WithoutPersistence() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Path = ""
	}
}

// WriteConfigFile serializes the config as TOML and returns the file path.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
