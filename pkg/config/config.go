package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	PhotoSizeMaximum = "maximum"
	PhotoSizeMedium  = "medium"
)

// KnownEndpoints lists every /me/<endpoint> the exporter can crawl
var KnownEndpoints = []string{"feed", "statuses", "checkins", "links", "notes", "videos"}

// Config holds all configuration options for the exporter
type Config struct {
	Graph   GraphConfig   `yaml:"graph" json:"graph"`
	Crawl   CrawlConfig   `yaml:"crawl" json:"crawl"`
	Retry   RetryConfig   `yaml:"retry" json:"retry"`
	Photos  PhotosConfig  `yaml:"photos" json:"photos"`
	Album   AlbumConfig   `yaml:"album" json:"album"`
	Likes   LikesConfig   `yaml:"likes" json:"likes"`
	Archive ArchiveConfig `yaml:"archive" json:"archive"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GraphConfig describes how to reach the Graph API
type GraphConfig struct {
	BaseURL             string        `yaml:"base_url" json:"base_url"`
	AccessToken         string        `yaml:"access_token" json:"access_token"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	RequiredPermissions []string      `yaml:"required_permissions" json:"required_permissions"`
}

// CrawlConfig controls which endpoints are walked and how far back
type CrawlConfig struct {
	Endpoints []string `yaml:"endpoints" json:"endpoints"`
	// MultiEndpointSince is the newest point in time supplementary
	// endpoints are trusted for. Anything newer comes from feed only.
	MultiEndpointSince string        `yaml:"multi_endpoint_since" json:"multi_endpoint_since"`
	DefaultLookback    time.Duration `yaml:"default_lookback" json:"default_lookback"`
	NoteAppID          string        `yaml:"note_app_id" json:"note_app_id"`
}

// RetryConfig holds the fixed-delay retry policy for page fetches
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// PhotosConfig holds photo download settings
type PhotosConfig struct {
	TempDir string `yaml:"temp_dir" json:"temp_dir"`
	Size    string `yaml:"size" json:"size"`
}

// AlbumConfig holds the album heuristics. The ownership checks follow
// undocumented API behaviour, so each one can be switched off.
type AlbumConfig struct {
	PageSize         int           `yaml:"page_size" json:"page_size"`
	MatchWindow      time.Duration `yaml:"match_window" json:"match_window"`
	MobileAlbumType  string        `yaml:"mobile_album_type" json:"mobile_album_type"`
	RequireOwner     bool          `yaml:"require_owner" json:"require_owner"`
	RequireCanUpload bool          `yaml:"require_can_upload" json:"require_can_upload"`
}

// LikesConfig holds liked-URL export settings
type LikesConfig struct {
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// ArchiveConfig names the optional result sinks
type ArchiveConfig struct {
	JSONPath   string `yaml:"json_path" json:"json_path"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			BaseURL:             "https://graph.facebook.com/",
			Timeout:             60 * time.Second,
			RequiredPermissions: []string{"read_stream", "user_photos", "user_status"},
		},
		Crawl: CrawlConfig{
			Endpoints:          []string{"feed", "statuses", "checkins", "links", "notes"},
			MultiEndpointSince: "2010-12-31",
			DefaultLookback:    24 * time.Hour,
			NoteAppID:          "2347471856",
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Photos: PhotosConfig{
			TempDir: os.TempDir(),
			Size:    PhotoSizeMaximum,
		},
		Album: AlbumConfig{
			PageSize:         25,
			MatchWindow:      20 * time.Minute,
			MobileAlbumType:  "mobile",
			RequireOwner:     true,
			RequireCanUpload: true,
		},
		Likes: LikesConfig{
			BatchSize: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Threshold parses MultiEndpointSince in local time. An empty value
// disables the supplementary endpoint clamp and returns the zero time.
func (c *CrawlConfig) Threshold() (time.Time, error) {
	if strings.TrimSpace(c.MultiEndpointSince) == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(c.MultiEndpointSince, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid multi_endpoint_since %q: %w", c.MultiEndpointSince, err)
	}
	return t, nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("FBEXPORT_ACCESS_TOKEN"); token != "" {
		c.Graph.AccessToken = token
	}
	if baseURL := os.Getenv("FBEXPORT_GRAPH_URL"); baseURL != "" {
		c.Graph.BaseURL = baseURL
	}
	if timeout := os.Getenv("FBEXPORT_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("FBEXPORT_TIMEOUT: %w", err)
		}
		c.Graph.Timeout = d
	}
	if endpoints := os.Getenv("FBEXPORT_ENDPOINTS"); endpoints != "" {
		c.Crawl.Endpoints = splitList(endpoints)
	}
	if since := os.Getenv("FBEXPORT_MULTI_ENDPOINT_SINCE"); since != "" {
		c.Crawl.MultiEndpointSince = since
	}
	if retries := os.Getenv("FBEXPORT_MAX_RETRIES"); retries != "" {
		n, err := strconv.Atoi(retries)
		if err != nil {
			return fmt.Errorf("FBEXPORT_MAX_RETRIES: %w", err)
		}
		c.Retry.MaxRetries = n
	}
	if delay := os.Getenv("FBEXPORT_RETRY_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("FBEXPORT_RETRY_DELAY: %w", err)
		}
		c.Retry.RetryDelay = d
	}
	if dir := os.Getenv("FBEXPORT_TEMP_DIR"); dir != "" {
		c.Photos.TempDir = dir
	}
	if size := os.Getenv("FBEXPORT_PHOTO_SIZE"); size != "" {
		c.Photos.Size = strings.ToLower(size)
	}
	if path := os.Getenv("FBEXPORT_JSON_PATH"); path != "" {
		c.Archive.JSONPath = path
	}
	if path := os.Getenv("FBEXPORT_SQLITE_PATH"); path != "" {
		c.Archive.SQLitePath = path
	}
	if level := os.Getenv("FBEXPORT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("FBEXPORT_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".fbexport.yaml",
		".fbexport.yml",
		filepath.Join(home, ".config", "fbexport", "config.yaml"),
		filepath.Join(home, ".config", "fbexport", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid. The access token is not
// checked here because it may still come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Graph.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("graph base URL %q is not an absolute URL", c.Graph.BaseURL))
	}
	if c.Graph.Timeout <= 0 {
		errs = append(errs, errors.New("graph timeout must be positive"))
	}

	if len(c.Crawl.Endpoints) == 0 {
		errs = append(errs, errors.New("at least one endpoint is required"))
	}
	seen := make(map[string]bool, len(c.Crawl.Endpoints))
	for i, ep := range c.Crawl.Endpoints {
		if !isKnownEndpoint(ep) {
			errs = append(errs, fmt.Errorf("unknown endpoint %q", ep))
		}
		if seen[ep] {
			errs = append(errs, fmt.Errorf("endpoint %q listed more than once", ep))
		}
		seen[ep] = true
		if ep == "feed" && i > 0 {
			errs = append(errs, errors.New("feed must be the first endpoint"))
		}
	}
	if _, err := c.Crawl.Threshold(); err != nil {
		errs = append(errs, err)
	}
	if c.Crawl.DefaultLookback <= 0 {
		errs = append(errs, errors.New("default lookback must be positive"))
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Retry.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}

	if c.Photos.TempDir == "" {
		errs = append(errs, errors.New("photo temp directory is required"))
	}
	if c.Photos.Size != PhotoSizeMaximum && c.Photos.Size != PhotoSizeMedium {
		errs = append(errs, fmt.Errorf("photo size must be %q or %q", PhotoSizeMaximum, PhotoSizeMedium))
	}

	if c.Album.PageSize <= 0 {
		errs = append(errs, errors.New("album page size must be positive"))
	}
	if c.Album.MatchWindow <= 0 {
		errs = append(errs, errors.New("album match window must be positive"))
	}
	if c.Likes.BatchSize <= 0 {
		errs = append(errs, errors.New("likes batch size must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Ordered returns the configured endpoints in crawl priority order, feed
// first, with duplicates and unknown names removed. The feed has to be
// merged before the supplementary endpoints that share its ids.
func (c CrawlConfig) Ordered() []string {
	want := make(map[string]bool, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		want[ep] = true
	}
	var out []string
	for _, known := range KnownEndpoints {
		if want[known] {
			out = append(out, known)
		}
	}
	return out
}

func isKnownEndpoint(name string) bool {
	for _, known := range KnownEndpoints {
		if name == known {
			return true
		}
	}
	return false
}

// Save saves the configuration to a file. The access token is never
// written; it belongs in the credential store.
func (c *Config) Save(path string) error {
	out := *c
	out.Graph.AccessToken = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["access-token"].(string); ok && token != "" {
		c.Graph.AccessToken = token
	}
	if endpoints, ok := flags["endpoints"].([]string); ok && len(endpoints) > 0 {
		c.Crawl.Endpoints = endpoints
	}
	if dir, ok := flags["temp-dir"].(string); ok && dir != "" {
		c.Photos.TempDir = dir
	}
	if size, ok := flags["photo-size"].(string); ok && size != "" {
		c.Photos.Size = strings.ToLower(size)
	}
	if path, ok := flags["json"].(string); ok && path != "" {
		c.Archive.JSONPath = path
	}
	if path, ok := flags["sqlite"].(string); ok && path != "" {
		c.Archive.SQLitePath = path
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".fbexport.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
