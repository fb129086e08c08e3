// Package config loads and saves the YAML configuration for rec-schedule.
//
// A missing config file is not an error: Load returns DefaultConfig so the tool runs
// against the Denver schedule out of the box. "rec-schedule config init" writes the
// defaults to disk for editing.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	// Embedded zone database so Validate does not depend on the host
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/rec-schedule/internal/notifier"
	"github.com/pfrederiksen/rec-schedule/internal/parser"
	"github.com/pfrederiksen/rec-schedule/internal/storage"
)

// Default values
const (
	DefaultPath        = "~/.config/rec-schedule/config.yaml"
	DefaultURL         = "https://groupexpro.com/schedule/522/?view=new"
	DefaultTabSelector = ".day-tab, [class*='day-selector'] > div, .calendar-day"
	DefaultDataDir     = "~/.local/share/rec-schedule"
	DefaultTimezone    = "America/Denver"
	DefaultCron        = "0 5 * * *"

	BackendFile   = "file"
	BackendS3     = "s3"
	BackendMemory = "memory"
	BackendGist   = "gist"
)

// SourceConfig describes where schedule text is acquired from
type SourceConfig struct {
	// URL is the rendered schedule page
	URL string `yaml:"url"`
	// TabSelector matches the clickable day tabs on the page
	TabSelector string `yaml:"tab_selector"`
	// Wait is the pause after page load and after each tab click
	Wait time.Duration `yaml:"wait"`
	// Timeout bounds one whole browser session
	Timeout time.Duration `yaml:"timeout"`
	// Retries is the number of extra attempts after a failed session
	Retries int `yaml:"retries"`
	// ChromePath overrides the browser executable
	ChromePath string `yaml:"chrome_path,omitempty"`
}

// ParserConfig tunes the text extraction for a source template
type ParserConfig struct {
	SkipLines       int      `yaml:"skip_lines"`
	MaxLookahead    int      `yaml:"max_lookahead"`
	NoiseLines      []string `yaml:"noise_lines"`
	NoisePatterns   []string `yaml:"noise_patterns"`
	TrailingMarkers []string `yaml:"trailing_markers"`
	Gazetteer       []string `yaml:"gazetteer"`
}

// S3Config locates the bucket used by the s3 backend
type S3Config struct {
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region,omitempty"`
	Prefix  string `yaml:"prefix,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// GistConfig names the gist used by the gist backend. The token is read from
// GITHUB_TOKEN.
type GistConfig struct {
	ID string `yaml:"id"`
}

// StorageConfig selects and configures the document store
type StorageConfig struct {
	// Backend is one of "file", "s3", "gist" or "memory"
	Backend    string     `yaml:"backend"`
	DataDir    string     `yaml:"data_dir"`
	FilePrefix string     `yaml:"file_prefix"`
	S3         S3Config   `yaml:"s3"`
	Gist       GistConfig `yaml:"gist"`
}

// WatchConfig schedules periodic scrapes
type WatchConfig struct {
	Cron string `yaml:"cron"`
}

// NotifyConfig selects where change notifications are posted after a scrape.
// Credentials come from the environment.
type NotifyConfig struct {
	// Channel is one of "none", "stdout", "twitter" or "telegram"
	Channel string `yaml:"channel"`
	// Changes lists the change types to announce
	Changes        []string `yaml:"changes"`
	TelegramChatID string   `yaml:"telegram_chat_id,omitempty"`
}

// Config is the top-level application configuration
type Config struct {
	Source   SourceConfig  `yaml:"source"`
	Parser   ParserConfig  `yaml:"parser"`
	Storage  StorageConfig `yaml:"storage"`
	Timezone string        `yaml:"timezone"`
	LogLevel string        `yaml:"log_level"`
	Watch    WatchConfig   `yaml:"watch"`
	Notify   NotifyConfig  `yaml:"notify"`
}

// DefaultConfig returns the configuration for the Denver recreation schedule
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills missing or invalid values with defaults so that partial
// config files still behave correctly.
func (c *Config) Normalize() {
	if c.Source.URL == "" {
		c.Source.URL = DefaultURL
	}
	if c.Source.TabSelector == "" {
		c.Source.TabSelector = DefaultTabSelector
	}
	if c.Source.Wait <= 0 {
		c.Source.Wait = 5 * time.Second
	}
	if c.Source.Timeout <= 0 {
		c.Source.Timeout = 2 * time.Minute
	}
	if c.Source.Retries < 0 {
		c.Source.Retries = 0
	}

	if c.Parser.SkipLines < 0 {
		c.Parser.SkipLines = 0
	}
	if c.Parser.MaxLookahead <= 1 {
		c.Parser.MaxLookahead = parser.DefaultMaxLookahead
	}
	if c.Parser.NoiseLines == nil {
		c.Parser.NoiseLines = append([]string(nil), parser.DefaultNoiseLines...)
	}
	if c.Parser.NoisePatterns == nil {
		c.Parser.NoisePatterns = append([]string(nil), parser.DefaultNoisePatterns...)
	}
	if c.Parser.TrailingMarkers == nil {
		c.Parser.TrailingMarkers = append([]string(nil), parser.DefaultTrailingMarkers...)
	}
	if c.Parser.Gazetteer == nil {
		c.Parser.Gazetteer = append([]string(nil), parser.DefaultGazetteer...)
	}

	switch c.Storage.Backend {
	case BackendFile, BackendS3, BackendGist, BackendMemory:
		// ok
	default:
		c.Storage.Backend = BackendFile
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir
	}
	if c.Storage.FilePrefix == "" {
		c.Storage.FilePrefix = "denver"
	}

	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Watch.Cron == "" {
		c.Watch.Cron = DefaultCron
	}

	switch c.Notify.Channel {
	case notifier.ChannelNone, notifier.ChannelStdout, notifier.ChannelTwitter, notifier.ChannelTelegram:
		// ok
	default:
		c.Notify.Channel = notifier.ChannelNone
	}
	if c.Notify.Changes == nil {
		c.Notify.Changes = append([]string(nil), notifier.DefaultChanges...)
	}
}

// Validate reports configuration values that cannot be used
func (c *Config) Validate() error {
	if c.Storage.Backend == BackendS3 && c.Storage.S3.Bucket == "" {
		return errors.New("storage.s3.bucket is required for the s3 backend")
	}
	if c.Storage.Backend == BackendGist && c.Storage.Gist.ID == "" {
		return errors.New("storage.gist.id is required for the gist backend")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parser.NewClassifier(c.Parser.NoiseLines, c.Parser.NoisePatterns); err != nil {
		return fmt.Errorf("parser config: %w", err)
	}
	return nil
}

// Location returns the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParserOptions converts the parser section into parser.Options
func (c *Config) ParserOptions() parser.Options {
	opts := parser.DefaultOptions()
	opts.SkipLines = c.Parser.SkipLines
	opts.MaxLookahead = c.Parser.MaxLookahead
	opts.NoiseLines = c.Parser.NoiseLines
	opts.NoisePatterns = c.Parser.NoisePatterns
	opts.TrailingMarkers = c.Parser.TrailingMarkers
	opts.Gazetteer = parser.Gazetteer(c.Parser.Gazetteer)

	if loc, err := c.Location(); err == nil {
		opts.Now = func() time.Time { return time.Now().In(loc) }
	}

	return opts
}

// Load reads configuration from a YAML file. A missing file yields DefaultConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	resolved, err := storage.ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", resolved, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	resolved, err := storage.ExpandHome(path)
	if err != nil {
		return err
	}

	cfg.Normalize()

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".rec-schedule-config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := os.Rename(tmpName, resolved); err != nil {
		return fmt.Errorf("renaming config: %w", err)
	}

	return nil
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	return Save(path, c)
}
