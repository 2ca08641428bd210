package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`

	MySQLDSN             string        `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/hotels?charset=utf8mb4"`
	MySQLMaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS" envDefault:"20"`
	MySQLMaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS" envDefault:"10"`
	MySQLConnMaxLifetime time.Duration `env:"MYSQL_CONN_MAX_LIFETIME" envDefault:"5m"`
	StoreMaxRetries      int           `env:"STORE_MAX_RETRIES" envDefault:"3"`
	StoreRetryMaxDelay   time.Duration `env:"STORE_RETRY_MAX_DELAY" envDefault:"2s"`

	// empty RedisAddr disables the cache
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPass       string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTLSeconds int           `env:"CACHE_TTL_SECONDS" envDefault:"900"`
	CacheTTL        time.Duration // derived from CacheTTLSeconds

	FeedBaseURL   string `env:"FEED_BASE_URL"`
	FeedKey       string `env:"FEED_API_KEY"`
	FeedRPS       int    `env:"FEED_RPS" envDefault:"5"`
	ImportWorkers int    `env:"IMPORT_WORKERS" envDefault:"8"`
}

// Load reads the environment and rejects values the services cannot start with.
func Load() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case BackendMemory, BackendMySQL:
	default:
		return Config{}, fmt.Errorf("config: STORAGE_BACKEND must be %q or %q, got %q", BackendMemory, BackendMySQL, c.StorageBackend)
	}
	if c.StoreMaxRetries < 1 {
		return Config{}, fmt.Errorf("config: STORE_MAX_RETRIES must be at least 1, got %d", c.StoreMaxRetries)
	}
	if c.CacheTTLSeconds < 0 {
		return Config{}, fmt.Errorf("config: CACHE_TTL_SECONDS must not be negative")
	}
	if c.ImportWorkers < 1 {
		c.ImportWorkers = 1
	}
	c.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	return c, nil
}
