package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

type Config struct {
	ServerAddress   string `env:"SERVER_ADDRESS"`
	BaseURL         string `env:"BASE_URL"`
	DatabaseDSN     string `env:"DATABASE_DSN"`
	FileStoragePath string `env:"FILE_STORAGE_PATH"`
	CacheBackend    string `env:"CACHE_BACKEND"`
	RedisAddr       string `env:"REDIS_ADDR"`
	LogLevel        string `env:"LOG_LEVEL"`

	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"24h"`
	CacheSize       int           `env:"CACHE_SIZE" envDefault:"10000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"10"`
}

// LoadDotEnv loads variables from the given files (".env" when none are given)
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// ParseFlags reads the environment and the command line. Environment variables
// take precedence over flags.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.ServerAddress, "a", "localhost:8080", "Address of the server")
	flag.StringVar(&cfg.BaseURL, "b", "http://localhost:8080", "Base URL for short URLs")
	flag.StringVar(&cfg.DatabaseDSN, "d", "", "PostgreSQL connection string")
	flag.StringVar(&cfg.FileStoragePath, "f", "", "Path of the JSON snapshot for the in-memory store")
	flag.StringVar(&cfg.CacheBackend, "c", "", "Cache backend: redis, memory or none")
	flag.StringVar(&cfg.RedisAddr, "r", "", "Redis address")
	flag.StringVar(&cfg.LogLevel, "l", "info", "Log level")

	flag.Parse()

	overrideString(&cfg.ServerAddress, fromEnv.ServerAddress)
	overrideString(&cfg.BaseURL, fromEnv.BaseURL)
	overrideString(&cfg.DatabaseDSN, fromEnv.DatabaseDSN)
	overrideString(&cfg.FileStoragePath, fromEnv.FileStoragePath)
	overrideString(&cfg.CacheBackend, fromEnv.CacheBackend)
	overrideString(&cfg.RedisAddr, fromEnv.RedisAddr)
	overrideString(&cfg.LogLevel, fromEnv.LogLevel)

	cfg.applyDefaultValues()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func overrideString(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}

func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	switch c.CacheBackend {
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for the redis cache backend")
		}
	case CacheMemory:
		if c.CacheSize <= 0 {
			return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
		}
	case CacheNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// UsesDatabase reports whether records are kept in PostgreSQL.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseDSN != ""
}

func (c *Config) applyDefaultValues() {
	if c.ServerAddress == "" {
		c.ServerAddress = getDefaultServerAddress()
	}

	if c.BaseURL == "" {
		c.BaseURL = getDefaultBaseURL()
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.CacheBackend == "" {
		c.CacheBackend = getDefaultCacheBackend(c.RedisAddr)
	}
}

func getDefaultServerAddress() string {
	return "localhost:8080"
}

func getDefaultBaseURL() string {
	return "http://localhost:8080"
}

func getDefaultCacheBackend(redisAddr string) string {
	if redisAddr != "" {
		return CacheRedis
	}
	return CacheMemory
}
