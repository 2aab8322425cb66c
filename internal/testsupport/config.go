package testsupport

import (
	"path/filepath"
	"testing"

	"animarr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SaveDir = filepath.Join(base, "save")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Scheduler.Enabled = false

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

// WithNyaaBaseURL points the feed client at a test server.
func WithNyaaBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Nyaa.BaseURL = url
	}
}

// WithAniListBaseURL points the catalog client at a test server.
func WithAniListBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AniList.BaseURL = url
	}
}

// WithQBittorrent enables the download client against a test server.
func WithQBittorrent(url, username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.QBittorrent.Enabled = true
		b.cfg.QBittorrent.URL = url
		b.cfg.QBittorrent.Username = username
		b.cfg.QBittorrent.Password = password
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
