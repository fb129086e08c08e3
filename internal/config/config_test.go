package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pfrederiksen/rec-schedule/internal/notifier"
	"github.com/pfrederiksen/rec-schedule/internal/parser"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source.URL != DefaultURL {
		t.Errorf("Source.URL = %q, want %q", cfg.Source.URL, DefaultURL)
	}
	if cfg.Source.Wait != 5*time.Second {
		t.Errorf("Source.Wait = %v, want 5s", cfg.Source.Wait)
	}
	if cfg.Parser.MaxLookahead != parser.DefaultMaxLookahead {
		t.Errorf("Parser.MaxLookahead = %d, want %d", cfg.Parser.MaxLookahead, parser.DefaultMaxLookahead)
	}
	if cfg.Storage.Backend != BackendFile || cfg.Storage.FilePrefix != "denver" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Timezone != DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, DefaultTimezone)
	}
	if len(cfg.Parser.Gazetteer) != len(parser.DefaultGazetteer) {
		t.Errorf("Gazetteer has %d entries, want %d", len(cfg.Parser.Gazetteer), len(parser.DefaultGazetteer))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Config
		check func(t *testing.T, c *Config)
	}{
		{
			name: "unknown backend falls back to file",
			in:   Config{Storage: StorageConfig{Backend: "ftp"}},
			check: func(t *testing.T, c *Config) {
				if c.Storage.Backend != BackendFile {
					t.Errorf("Backend = %q, want file", c.Storage.Backend)
				}
			},
		},
		{
			name: "negative values reset",
			in:   Config{Source: SourceConfig{Retries: -2}, Parser: ParserConfig{SkipLines: -1, MaxLookahead: 1}},
			check: func(t *testing.T, c *Config) {
				if c.Source.Retries != 0 || c.Parser.SkipLines != 0 {
					t.Errorf("Retries = %d, SkipLines = %d, want 0", c.Source.Retries, c.Parser.SkipLines)
				}
				if c.Parser.MaxLookahead != parser.DefaultMaxLookahead {
					t.Errorf("MaxLookahead = %d", c.Parser.MaxLookahead)
				}
			},
		},
		{
			name: "explicit empty noise list kept",
			in:   Config{Parser: ParserConfig{NoiseLines: []string{}}},
			check: func(t *testing.T, c *Config) {
				if c.Parser.NoiseLines == nil || len(c.Parser.NoiseLines) != 0 {
					t.Errorf("NoiseLines = %v, want empty", c.Parser.NoiseLines)
				}
			},
		},
		{
			name: "notify defaults",
			in:   Config{Notify: NotifyConfig{Channel: "pager"}},
			check: func(t *testing.T, c *Config) {
				if c.Notify.Channel != notifier.ChannelNone {
					t.Errorf("Notify.Channel = %q, want none", c.Notify.Channel)
				}
				if !reflect.DeepEqual(c.Notify.Changes, notifier.DefaultChanges) {
					t.Errorf("Notify.Changes = %v", c.Notify.Changes)
				}
			},
		},
		{
			name: "set values preserved",
			in:   Config{Storage: StorageConfig{Backend: BackendS3, FilePrefix: "boulder"}, Timezone: "UTC"},
			check: func(t *testing.T, c *Config) {
				if c.Storage.Backend != BackendS3 || c.Storage.FilePrefix != "boulder" || c.Timezone != "UTC" {
					t.Errorf("config = %+v", c)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			c.Normalize()
			tt.check(t, &c)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Load() should not create the config file")
	}
}

func TestLoad_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
source:
  wait: 2s
  retries: 3
parser:
  skip_lines: 10
  noise_lines:
    - "Book Now"
storage:
  backend: s3
  s3:
    bucket: schedules
    region: us-west-2
log_level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Wait != 2*time.Second || cfg.Source.Retries != 3 {
		t.Errorf("Source = %+v", cfg.Source)
	}
	if cfg.Source.URL != DefaultURL {
		t.Errorf("Source.URL = %q, want default", cfg.Source.URL)
	}
	if cfg.Parser.SkipLines != 10 {
		t.Errorf("SkipLines = %d, want 10", cfg.Parser.SkipLines)
	}
	if !reflect.DeepEqual(cfg.Parser.NoiseLines, []string{"Book Now"}) {
		t.Errorf("NoiseLines = %v", cfg.Parser.NoiseLines)
	}
	if cfg.Storage.Backend != BackendS3 || cfg.Storage.S3.Bucket != "schedules" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("source: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with invalid YAML should fail")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Parser.SkipLines = 10
	cfg.Source.Timeout = 90 * time.Second
	cfg.Watch.Cron = "*/30 * * * *"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = BackendS3 }, true},
		{"gist without id", func(c *Config) { c.Storage.Backend = BackendGist }, true},
		{"gist with id", func(c *Config) {
			c.Storage.Backend = BackendGist
			c.Storage.Gist.ID = "abc123"
		}, false},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"bad noise pattern", func(c *Config) { c.Parser.NoisePatterns = []string{"("} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParserOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parser.SkipLines = 7
	cfg.Parser.Gazetteer = []string{"Central Park"}

	opts := cfg.ParserOptions()
	if opts.SkipLines != 7 {
		t.Errorf("SkipLines = %d, want 7", opts.SkipLines)
	}
	if len(opts.Gazetteer) != 1 || opts.Gazetteer[0] != "Central Park" {
		t.Errorf("Gazetteer = %v", opts.Gazetteer)
	}
	if opts.Now == nil {
		t.Fatal("Now is nil")
	}
	if _, err := parser.New(opts); err != nil {
		t.Errorf("parser.New() error = %v", err)
	}
}
