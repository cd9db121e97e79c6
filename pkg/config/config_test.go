package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://graph.facebook.com/", cfg.Graph.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Graph.Timeout)
	assert.Equal(t, []string{"read_stream", "user_photos", "user_status"}, cfg.Graph.RequiredPermissions)
	assert.Equal(t, []string{"feed", "statuses", "checkins", "links", "notes"}, cfg.Crawl.Endpoints)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Retry.RetryDelay)
	assert.Equal(t, PhotoSizeMaximum, cfg.Photos.Size)
	assert.Equal(t, 20*time.Minute, cfg.Album.MatchWindow)
	assert.Equal(t, 100, cfg.Likes.BatchSize)

	require.NoError(t, cfg.Validate())
}

func TestThreshold(t *testing.T) {
	c := CrawlConfig{MultiEndpointSince: "2010-12-31"}
	got, err := c.Threshold()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, 12, 31, 0, 0, 0, 0, time.Local), got)

	c.MultiEndpointSince = ""
	got, err = c.Threshold()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	c.MultiEndpointSince = "not a date"
	_, err = c.Threshold()
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FBEXPORT_ACCESS_TOKEN", "env-token")
	t.Setenv("FBEXPORT_ENDPOINTS", "feed, links")
	t.Setenv("FBEXPORT_MAX_RETRIES", "5")
	t.Setenv("FBEXPORT_RETRY_DELAY", "250ms")
	t.Setenv("FBEXPORT_PHOTO_SIZE", "MEDIUM")
	t.Setenv("FBEXPORT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-token", cfg.Graph.AccessToken)
	assert.Equal(t, []string{"feed", "links"}, cfg.Crawl.Endpoints)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.RetryDelay)
	assert.Equal(t, PhotoSizeMedium, cfg.Photos.Size)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("FBEXPORT_MAX_RETRIES", "three")
	assert.Error(t, DefaultConfig().LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
graph:
  timeout: 15s
crawl:
  endpoints: [feed, notes]
  multi_endpoint_since: "2011-06-01"
album:
  match_window: 30m
  require_can_upload: false
archive:
  sqlite_path: /tmp/fb.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 15*time.Second, cfg.Graph.Timeout)
	assert.Equal(t, []string{"feed", "notes"}, cfg.Crawl.Endpoints)
	assert.Equal(t, "2011-06-01", cfg.Crawl.MultiEndpointSince)
	assert.Equal(t, 30*time.Minute, cfg.Album.MatchWindow)
	assert.False(t, cfg.Album.RequireCanUpload)
	assert.True(t, cfg.Album.RequireOwner)
	assert.Equal(t, "/tmp/fb.db", cfg.Archive.SQLitePath)
	assert.Equal(t, "https://graph.facebook.com/", cfg.Graph.BaseURL)
}

func TestLoadFromFileMissing(t *testing.T) {
	err := DefaultConfig().LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"relative base url", func(c *Config) { c.Graph.BaseURL = "graph.facebook.com" }, "absolute URL"},
		{"unknown endpoint", func(c *Config) { c.Crawl.Endpoints = []string{"feed", "events"} }, `unknown endpoint "events"`},
		{"no endpoints", func(c *Config) { c.Crawl.Endpoints = nil }, "at least one endpoint"},
		{"feed after statuses", func(c *Config) { c.Crawl.Endpoints = []string{"statuses", "feed"} }, "feed must be the first endpoint"},
		{"duplicate endpoint", func(c *Config) { c.Crawl.Endpoints = []string{"feed", "links", "links"} }, `endpoint "links" listed more than once`},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "max retries"},
		{"bad photo size", func(c *Config) { c.Photos.Size = "huge" }, "photo size"},
		{"bad threshold", func(c *Config) { c.Crawl.MultiEndpointSince = "yesterday-ish" }, "multi_endpoint_since"},
		{"zero album window", func(c *Config) { c.Album.MatchWindow = 0 }, "match window"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCrawlOrdered(t *testing.T) {
	c := CrawlConfig{Endpoints: []string{"notes", "statuses", "feed", "notes", "events"}}
	assert.Equal(t, []string{"feed", "statuses", "notes"}, c.Ordered())
	assert.Empty(t, CrawlConfig{}.Ordered())
}

func TestSaveOmitsAccessToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Graph.AccessToken = "secret"
	cfg.Album.PageSize = 50

	require.NoError(t, cfg.Save(path))
	assert.Equal(t, "secret", cfg.Graph.AccessToken)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 50, loaded.Album.PageSize)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"access-token": "flag-token",
		"endpoints":    []string{"feed"},
		"photo-size":   "Medium",
		"json":         "out.json",
		"log-level":    "",
	})

	assert.Equal(t, "flag-token", cfg.Graph.AccessToken)
	assert.Equal(t, []string{"feed"}, cfg.Crawl.Endpoints)
	assert.Equal(t, PhotoSizeMedium, cfg.Photos.Size)
	assert.Equal(t, "out.json", cfg.Archive.JSONPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nphotos:\n  size: medium\n"), 0600))
	t.Setenv("FBEXPORT_LOG_LEVEL", "error")

	cfg, err := Load(path, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, PhotoSizeMedium, cfg.Photos.Size)
}
