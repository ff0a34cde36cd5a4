package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port string `yaml:"port" toml:"port" env:"PORT" env-default:"8090"`

	// Auth; an empty key disables bearer auth on /api.
	APIKey string `yaml:"api_key" toml:"api_key" env:"CUSTOMTRANS_API_KEY"`

	// Logging
	LogFormat string `yaml:"log_format" toml:"log_format" env:"LOG_FORMAT" env-default:"auto"`
	LogLevel  string `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Catalog: a TOML library file, or a remote KV catalog when CatalogURL is set.
	LibraryPath   string `yaml:"library_path" toml:"library_path" env:"LIBRARY_PATH" env-default:"library.toml"`
	CatalogURL    string `yaml:"catalog_url" toml:"catalog_url" env:"CATALOG_URL"`
	CatalogAPIKey string `yaml:"catalog_api_key" toml:"catalog_api_key" env:"CATALOG_API_KEY"`

	// Glossaries
	GlossaryDir     string `yaml:"glossary_dir" toml:"glossary_dir" env:"GLOSSARY_DIR" env-default:"dictionaries"`
	CreateSkeletons bool   `yaml:"create_skeletons" toml:"create_skeletons" env:"CREATE_SKELETONS" env-default:"true"`

	// Chapter token tables
	TokenStore     string `yaml:"token_store" toml:"token_store" env:"TOKEN_STORE" env-default:"file"`
	TokenStorePath string `yaml:"token_store_path" toml:"token_store_path" env:"TOKEN_STORE_PATH" env-default:"tokens.json"`
	RedisAddr      string `yaml:"redis_addr" toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword  string `yaml:"redis_password" toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB        int    `yaml:"redis_db" toml:"redis_db" env:"REDIS_DB" env-default:"0"`

	// Render cache
	CacheCapacity int `yaml:"cache_capacity" toml:"cache_capacity" env:"CACHE_CAPACITY" env-default:"20"`

	// Fetching
	FetchTimeout     time.Duration `yaml:"fetch_timeout" toml:"fetch_timeout" env:"FETCH_TIMEOUT" env-default:"30s"`
	FetchMaxAttempts int           `yaml:"fetch_max_attempts" toml:"fetch_max_attempts" env:"FETCH_MAX_ATTEMPTS" env-default:"5"`
	FetchBackoffBase time.Duration `yaml:"fetch_backoff_base" toml:"fetch_backoff_base" env:"FETCH_BACKOFF_BASE" env-default:"1s"`
	FetchBackoffMax  time.Duration `yaml:"fetch_backoff_max" toml:"fetch_backoff_max" env:"FETCH_BACKOFF_MAX" env-default:"30s"`
	UserAgent        string        `yaml:"user_agent" toml:"user_agent" env:"USER_AGENT" env-default:"Mozilla/5.0"`

	// Update jobs
	UpdateWorkers int           `yaml:"update_workers" toml:"update_workers" env:"UPDATE_WORKERS" env-default:"4"`
	MaxQueueSize  int           `yaml:"max_queue_size" toml:"max_queue_size" env:"MAX_QUEUE_SIZE" env-default:"16"`
	JobTTL        time.Duration `yaml:"job_ttl" toml:"job_ttl" env:"JOB_TTL" env-default:"1h"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes" toml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"10485760"`

	// Katakana reading lines under Japanese main text.
	EnableReadings bool `yaml:"enable_readings" toml:"enable_readings" env:"ENABLE_READINGS" env-default:"false"`
}

// Load reads configuration from an optional file and the environment.
// Priority: ENV > file > defaults. When path is empty CONFIG_PATH is
// consulted; with neither set only ENV and defaults apply.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}

	cfg.clamp()
	return cfg, nil
}

func (c *Config) clamp() {
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = 20
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.FetchMaxAttempts <= 0 {
		c.FetchMaxAttempts = 5
	}
	if c.FetchBackoffBase <= 0 {
		c.FetchBackoffBase = time.Second
	}
	if c.FetchBackoffMax <= 0 {
		c.FetchBackoffMax = 30 * time.Second
	}
	if c.UpdateWorkers <= 0 {
		c.UpdateWorkers = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 16
	}
	if c.JobTTL <= 0 {
		c.JobTTL = time.Hour
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10 << 20
	}
}

func (c Config) Validate() error {
	switch c.TokenStore {
	case "file":
		if c.TokenStorePath == "" {
			return fmt.Errorf("TOKEN_STORE_PATH is required for the file token store")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis token store")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be file or redis, got %q", c.TokenStore)
	}
	switch c.LogFormat {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be auto, json or text, got %q", c.LogFormat)
	}
	if c.CatalogURL == "" && c.LibraryPath == "" {
		return fmt.Errorf("one of LIBRARY_PATH or CATALOG_URL is required")
	}
	if c.GlossaryDir == "" {
		return fmt.Errorf("GLOSSARY_DIR is required")
	}
	if c.FetchBackoffBase > c.FetchBackoffMax {
		return fmt.Errorf("FETCH_BACKOFF_BASE (%s) exceeds FETCH_BACKOFF_MAX (%s)", c.FetchBackoffBase, c.FetchBackoffMax)
	}
	return nil
}
