// Package config loads service settings from the environment, optionally
// layered over a YAML file named by POS_CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const FileEnv = "POS_CONFIG_FILE"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

var (
	ErrMissingBaseURL = errors.New("backend base URL is not configured: set BACKEND_BASE_URL")
	ErrUnknownDriver  = errors.New("unknown storage driver")
)

type Config struct {
	HTTPPort           string        `yaml:"http_port"`
	BackendBaseURL     string        `yaml:"backend_base_url"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	CatalogPageLimit   int           `yaml:"catalog_page_limit"`
	SessionIdleTTL     time.Duration `yaml:"session_idle_ttl"`

	Storage StorageConfig `yaml:"storage"`
	Receipt ReceiptConfig `yaml:"receipt"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	Driver        string        `yaml:"driver"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	TTL           time.Duration `yaml:"ttl"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MongoURI      string        `yaml:"mongo_uri"`
	MongoDBName   string        `yaml:"mongo_db_name"`
}

type ReceiptConfig struct {
	// Dir, when set, also writes every receipt to disk.
	Dir       string `yaml:"dir"`
	ShelfSize int    `yaml:"shelf_size"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:           "8080",
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		CatalogPageLimit:   100,
		SessionIdleTTL:     30 * time.Minute,
		Storage: StorageConfig{
			Driver:      DriverMemory,
			RedisAddr:   "localhost:6379",
			SQLitePath:  "idistr.db",
			MongoURI:    "mongodb://localhost:27017",
			MongoDBName: "idistr",
		},
		Receipt: ReceiptConfig{ShelfSize: 256},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file if any, then
// environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.BackendBaseURL = getEnv("BACKEND_BASE_URL", getEnv("API_URL", c.BackendBaseURL))
	c.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", c.Storage.Driver))
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.SQLitePath = getEnv("SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.MongoURI = getEnv("MONGO_URI", c.Storage.MongoURI)
	c.Storage.MongoDBName = getEnv("MONGO_DB_NAME", c.Storage.MongoDBName)
	c.Receipt.Dir = getEnv("RECEIPT_DIR", c.Receipt.Dir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	var err error
	if c.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	if c.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", c.SessionIdleTTL); err != nil {
		return err
	}
	if c.Storage.TTL, err = getDuration("STORAGE_TTL", c.Storage.TTL); err != nil {
		return err
	}
	if c.CatalogPageLimit, err = getInt("CATALOG_PAGE_LIMIT", c.CatalogPageLimit); err != nil {
		return err
	}
	if c.Log.Development, err = getBool("LOG_DEV", c.Log.Development); err != nil {
		return err
	}
	return nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendBaseURL) == "" {
		return ErrMissingBaseURL
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
