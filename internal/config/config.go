// Package config provides runtime configuration values for the service.
//
// Values come from defaults, an optional YAML file, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds configuration knobs for the HTTP server, the product
// source and response assembly.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log      LogConfig      `yaml:"log"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Redis    RedisConfig    `yaml:"redis"`
	Products ProductsConfig `yaml:"products"`
}

// LogConfig selects log level and format (json or console).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// UpstreamConfig locates the product catalog origin. File wins over URL.
type UpstreamConfig struct {
	URL             string        `yaml:"url"`
	File            string        `yaml:"file"`
	ProductsPath    string        `yaml:"products_path"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// WarmupWait bounds how long a request waits for a catalog load;
	// the load itself carries on in the background.
	WarmupWait time.Duration `yaml:"warmup_wait"`
	// RetryCooldown spaces request-triggered loads after a failed one.
	RetryCooldown time.Duration `yaml:"retry_cooldown"`
}

// RedisConfig enables the shared product snapshot when Addr is set.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	SnapshotKey string        `yaml:"snapshot_key"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// ProductsConfig tunes the GET /products payload. CommonWordsTake 0
// returns no words and -1 returns every word after the skipped ones.
type ProductsConfig struct {
	CommonWordsSkip int    `yaml:"common_words_skip"`
	CommonWordsTake int    `yaml:"common_words_take"`
	HighlightTag    string `yaml:"highlight_tag"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Upstream: UpstreamConfig{
			URL:           "http://www.mocky.io/v2/5e307edf3200005d00858b49",
			ProductsPath:  "$.products",
			Timeout:       10 * time.Second,
			MaxRetries:    3,
			WarmupWait:    5 * time.Second,
			RetryCooldown: 10 * time.Second,
		},
		Redis: RedisConfig{
			SnapshotKey: "catalog:products",
			SnapshotTTL: 5 * time.Minute,
		},
		Products: ProductsConfig{
			CommonWordsSkip: 5,
			CommonWordsTake: 10,
			HighlightTag:    "em",
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, def time.Duration) time.Duration {
	ms := atoienv(key, -1)
	if ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, def time.Duration) time.Duration {
	sec := atoienv(key, -1)
	if sec < 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}

// Load collects configuration. path names an optional YAML file; when
// empty, CONFIG_PATH is consulted.
func Load(path string) (Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.WriteTimeout = durenvs("HTTP_WRITE_TIMEOUT_S", c.WriteTimeout)
	c.ShutdownTimeout = durenvs("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.Log.Level = getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenv("LOG_FORMAT", c.Log.Format)

	c.Upstream.URL = getenv("UPSTREAM_URL", c.Upstream.URL)
	c.Upstream.File = getenv("UPSTREAM_FILE", c.Upstream.File)
	c.Upstream.ProductsPath = getenv("UPSTREAM_PRODUCTS_PATH", c.Upstream.ProductsPath)
	c.Upstream.Timeout = durenvms("UPSTREAM_TIMEOUT_MS", c.Upstream.Timeout)
	c.Upstream.MaxRetries = atoienv("UPSTREAM_MAX_RETRIES", c.Upstream.MaxRetries)
	c.Upstream.RefreshInterval = durenvs("REFRESH_INTERVAL_S", c.Upstream.RefreshInterval)
	c.Upstream.WarmupWait = durenvms("WARMUP_WAIT_MS", c.Upstream.WarmupWait)
	c.Upstream.RetryCooldown = durenvs("RETRY_COOLDOWN_S", c.Upstream.RetryCooldown)

	c.Redis.Addr = getenv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = atoienv("REDIS_DB", c.Redis.DB)
	c.Redis.SnapshotTTL = durenvs("SNAPSHOT_TTL_S", c.Redis.SnapshotTTL)

	c.Products.CommonWordsSkip = atoienv("COMMON_WORDS_SKIP", c.Products.CommonWordsSkip)
	c.Products.CommonWordsTake = atoienv("COMMON_WORDS_TAKE", c.Products.CommonWordsTake)
	c.Products.HighlightTag = getenv("HIGHLIGHT_TAG", c.Products.HighlightTag)
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if c.Upstream.URL == "" && c.Upstream.File == "" {
		return fmt.Errorf("upstream url or file is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be > 0")
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("upstream max_retries must be >= 0")
	}
	if c.Upstream.RefreshInterval < 0 {
		return fmt.Errorf("upstream refresh_interval must be >= 0")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be > 0")
	}
	if c.Upstream.WarmupWait <= 0 || c.Upstream.WarmupWait >= c.WriteTimeout {
		return fmt.Errorf("upstream warmup_wait must be > 0 and below write_timeout (%s)", c.WriteTimeout)
	}
	if c.Upstream.RetryCooldown < 0 {
		return fmt.Errorf("upstream retry_cooldown must be >= 0")
	}
	if c.Products.CommonWordsSkip < 0 {
		return fmt.Errorf("common_words_skip must be >= 0")
	}
	if c.Products.CommonWordsTake < -1 {
		return fmt.Errorf("common_words_take must be >= -1 (-1 takes all)")
	}
	if c.Products.HighlightTag == "" {
		return fmt.Errorf("highlight_tag is required")
	}
	return nil
}
