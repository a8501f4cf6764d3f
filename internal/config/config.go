// Package config loads and validates collector configuration via Viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/forum-corpus/internal/record"
)

// Storage providers accepted by storage.provider.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Reddit       RedditConfig      `mapstructure:"reddit"`
	Subreddits   []SubredditConfig `mapstructure:"subreddits"`
	MinLength    int               `mapstructure:"min_length"`
	ListingLimit int               `mapstructure:"listing_limit"`
	ColumnNames  []string          `mapstructure:"column_names"`
	Paths        PathsConfig       `mapstructure:"paths"`
	Logging      LoggingConfig     `mapstructure:"logging"`
	Metrics      MetricsConfig     `mapstructure:"metrics"`
	Storage      StorageConfig     `mapstructure:"storage"`
	PubSub       PubSubConfig      `mapstructure:"pubsub"`
	Ledger       LedgerConfig      `mapstructure:"ledger"`
}

// RedditConfig holds API access settings. Empty credentials use the public
// endpoints.
type RedditConfig struct {
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	UserAgent      string `mapstructure:"user_agent"`
	BaseURL        string `mapstructure:"base_url"`
	TokenURL       string `mapstructure:"token_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	PageSize       int    `mapstructure:"page_size"`
}

// SubredditConfig names one forum and the topic its documents are labeled with.
type SubredditConfig struct {
	Name  string `mapstructure:"name"`
	Topic string `mapstructure:"topic"`
}

// PathsConfig locates the datasets.
type PathsConfig struct {
	RawData          string `mapstructure:"raw_data"`
	PreprocessedData string `mapstructure:"preprocessed_data"`
}

// LoggingConfig toggles zap development features and the log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
}

// MetricsConfig points at the Pushgateway. Empty disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// StorageConfig selects where the corpus is archived.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for corpus-ready notifications. An empty topic
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LedgerConfig controls the optional Postgres run ledger.
type LedgerConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FORUMCORPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("reddit.client_id", "")
	v.SetDefault("reddit.client_secret", "")
	v.SetDefault("reddit.user_agent", "forumcorpus/0.1")
	v.SetDefault("reddit.base_url", "")
	v.SetDefault("reddit.token_url", "")
	v.SetDefault("reddit.timeout_seconds", 30)
	v.SetDefault("reddit.page_size", 100)
	v.SetDefault("min_length", 20)
	v.SetDefault("listing_limit", 1000)
	v.SetDefault("column_names", record.Columns)
	v.SetDefault("paths.raw_data", "data/raw.csv")
	v.SetDefault("paths.preprocessed_data", "data/preprocessed.csv")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.file", "logs/forumcorpus.log")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("storage.provider", StorageNone)
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.base_dir", "")
	v.SetDefault("storage.prefix", "corpus")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("ledger.dsn", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Reddit.UserAgent) == "" {
		return fmt.Errorf("reddit.user_agent must be set")
	}
	if c.Reddit.ClientID != "" && c.Reddit.ClientSecret == "" {
		return fmt.Errorf("reddit.client_secret must be set when reddit.client_id is set")
	}
	if c.Reddit.TimeoutSeconds <= 0 {
		return fmt.Errorf("reddit.timeout_seconds must be > 0")
	}
	if len(c.Subreddits) == 0 {
		return fmt.Errorf("subreddits must list at least one subreddit")
	}
	seen := make(map[string]struct{}, len(c.Subreddits))
	for i, s := range c.Subreddits {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("subreddits[%d].name must be set", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("subreddits[%d].name %q is listed twice", i, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	if c.MinLength < 0 {
		return fmt.Errorf("min_length must be >= 0")
	}
	if c.ListingLimit <= 0 {
		return fmt.Errorf("listing_limit must be > 0")
	}
	for _, col := range c.ColumnNames {
		if !record.IsColumn(col) {
			return fmt.Errorf("column_names: unknown column %q", col)
		}
	}
	if !slices.Contains(c.ColumnNames, record.ColText) || !slices.Contains(c.ColumnNames, record.ColSubreddit) {
		return fmt.Errorf("column_names must include %s and %s", record.ColText, record.ColSubreddit)
	}
	if c.Paths.RawData == "" || c.Paths.PreprocessedData == "" {
		return fmt.Errorf("paths.raw_data and paths.preprocessed_data must be set")
	}
	switch c.Storage.Provider {
	case StorageNone:
	case StorageLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir must be set for the local provider")
		}
	case StorageGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("storage.provider %q is not one of none, local, gcs", c.Storage.Provider)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// SubredditNames returns the configured subreddits in order.
func (c Config) SubredditNames() []string {
	names := make([]string, len(c.Subreddits))
	for i, s := range c.Subreddits {
		names[i] = s.Name
	}
	return names
}

// Topics maps each subreddit to its topic label.
func (c Config) Topics() map[string]string {
	topics := make(map[string]string, len(c.Subreddits))
	for _, s := range c.Subreddits {
		topics[s.Name] = s.Topic
	}
	return topics
}

// RequestTimeout converts reddit.timeout_seconds into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Reddit.TimeoutSeconds) * time.Second
}
