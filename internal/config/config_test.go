package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JakeFAU/forum-corpus/internal/record"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
reddit:
  client_id: id
  client_secret: secret
  user_agent: corpus-bot/1.0
  timeout_seconds: 45
subreddits:
  - name: golang
    topic: programming
  - name: AskHistorians
    topic: history
  - name: rust
    topic: programming
min_length: 30
listing_limit: 250
column_names: [author, text, subreddit]
paths:
  raw_data: out/raw.csv
  preprocessed_data: out/clean.csv
logging:
  development: false
  level: info
  file: out/run.log
metrics:
  pushgateway_url: http://pushgateway:9091
storage:
  provider: gcs
  gcs_bucket: corpora
  prefix: reddit
pubsub:
  project_id: proj
  topic_name: corpus-ready
ledger:
  dsn: postgres://localhost/corpus
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.SubredditNames(); strings.Join(got, ",") != "golang,AskHistorians,rust" {
		t.Fatalf("expected subreddit order to be preserved, got %v", got)
	}
	if topic := cfg.Topics()["AskHistorians"]; topic != "history" {
		t.Fatalf("expected history topic, got %q", topic)
	}
	if cfg.MinLength != 30 || cfg.ListingLimit != 250 {
		t.Fatalf("expected limits to apply: %+v", cfg)
	}
	if strings.Join(cfg.ColumnNames, ",") != "author,text,subreddit" {
		t.Fatalf("expected column override, got %v", cfg.ColumnNames)
	}
	if cfg.Reddit.ClientID != "id" || cfg.Reddit.ClientSecret != "secret" {
		t.Fatalf("expected credentials to load")
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %v", got)
	}
	if cfg.Storage.Provider != StorageGCS || cfg.Storage.Prefix != "reddit" {
		t.Fatalf("expected storage overrides: %+v", cfg.Storage)
	}
	if cfg.Logging.Development || cfg.Logging.File != "out/run.log" {
		t.Fatalf("expected logging overrides: %+v", cfg.Logging)
	}
	if cfg.Ledger.DSN == "" || cfg.PubSub.TopicName != "corpus-ready" {
		t.Fatalf("expected ledger and pubsub settings")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
subreddits:
  - name: golang
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if strings.Join(cfg.ColumnNames, ",") != strings.Join(record.Columns, ",") {
		t.Fatalf("expected default columns, got %v", cfg.ColumnNames)
	}
	if cfg.Storage.Provider != StorageNone {
		t.Fatalf("expected storage disabled by default, got %q", cfg.Storage.Provider)
	}
	if cfg.ListingLimit != 1000 || cfg.Reddit.PageSize != 100 {
		t.Fatalf("unexpected listing defaults: %+v", cfg)
	}
	if cfg.Topics()["golang"] != "" {
		t.Fatalf("expected empty topic")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
subreddits:
  - name: golang
`)
	t.Setenv("FORUMCORPUS_REDDIT_USER_AGENT", "env-agent/2.0")
	t.Setenv("FORUMCORPUS_MIN_LENGTH", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Reddit.UserAgent != "env-agent/2.0" {
		t.Fatalf("expected env user agent, got %q", cfg.Reddit.UserAgent)
	}
	if cfg.MinLength != 7 {
		t.Fatalf("expected env min_length, got %d", cfg.MinLength)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Reddit:       RedditConfig{UserAgent: "ua", TimeoutSeconds: 10},
		Subreddits:   []SubredditConfig{{Name: "golang"}},
		ListingLimit: 1000,
		ColumnNames:  record.Columns,
		Paths:        PathsConfig{RawData: "raw.csv", PreprocessedData: "pre.csv"},
		Storage:      StorageConfig{Provider: StorageNone},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing user agent", func(c *Config) { c.Reddit.UserAgent = " " }, "reddit.user_agent"},
		{"id without secret", func(c *Config) { c.Reddit.ClientID = "id" }, "reddit.client_secret"},
		{"invalid timeout", func(c *Config) { c.Reddit.TimeoutSeconds = 0 }, "reddit.timeout_seconds"},
		{"no subreddits", func(c *Config) { c.Subreddits = nil }, "subreddits"},
		{"blank subreddit", func(c *Config) { c.Subreddits = []SubredditConfig{{Name: ""}} }, "subreddits[0].name"},
		{"duplicate subreddit", func(c *Config) {
			c.Subreddits = []SubredditConfig{{Name: "a"}, {Name: "a"}}
		}, "listed twice"},
		{"negative min length", func(c *Config) { c.MinLength = -1 }, "min_length"},
		{"zero listing limit", func(c *Config) { c.ListingLimit = 0 }, "listing_limit"},
		{"unknown column", func(c *Config) { c.ColumnNames = []string{"text", "subreddit", "x"} }, "unknown column"},
		{"missing text column", func(c *Config) { c.ColumnNames = []string{"subreddit"} }, "column_names"},
		{"missing paths", func(c *Config) { c.Paths.RawData = "" }, "paths.raw_data"},
		{"local without dir", func(c *Config) { c.Storage.Provider = StorageLocal }, "storage.base_dir"},
		{"gcs without bucket", func(c *Config) { c.Storage.Provider = StorageGCS }, "storage.gcs_bucket"},
		{"bad provider", func(c *Config) { c.Storage.Provider = "s3" }, "storage.provider"},
		{"topic without project", func(c *Config) { c.PubSub.TopicName = "t" }, "pubsub.project_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Subreddits = append([]SubredditConfig(nil), base.Subreddits...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
