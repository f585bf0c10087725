package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "gallery.yml"

	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Environment overrides, applied after the file.
const (
	EnvDBPath   = "GALLERY_DB_PATH"
	EnvRedisURL = "GALLERY_REDIS_URL"
	EnvMinio    = "MINIO_HOST"
	EnvAddr     = "GALLERY_ADDR"
)

// Config holds runtime configuration loaded from YAML.
type Config struct {
	Addr     string         `yaml:"addr"`
	Env      string         `yaml:"env"` // "development" | "production"
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Minio    MinioConfig    `yaml:"minio"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

// CacheConfig selects the side store behind the snapshot mirror.
type CacheConfig struct {
	Backend  string `yaml:"backend"` // sqlite | redis | none
	RedisURL string `yaml:"redis_url"`
}

type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// MinioConfig enables object storage for uploads when Endpoint is set.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr: ":8080",
		Env:  "production",
		Database: DatabaseConfig{
			Path: "data/gallery.db",
		},
		Cache: CacheConfig{
			Backend: CacheSQLite,
		},
		Uploads: UploadsConfig{
			Dir: "data/uploads",
		},
		Minio: MinioConfig{
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "images",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// IsDev reports whether development logging and gin debug mode apply.
func (c *Config) IsDev() bool { return c.Env == "development" }

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error; unknown keys are.
func Load(path string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisURL)); v != "" {
		c.Cache.Backend = CacheRedis
		c.Cache.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMinio)); v != "" {
		c.Minio.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Addr = v
	}
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("invalid env %q, expected development or production", c.Env)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path must not be empty")
	}
	switch c.Cache.Backend {
	case CacheSQLite, CacheNone:
	case CacheRedis:
		if strings.TrimSpace(c.Cache.RedisURL) == "" {
			return errors.New("cache.redis_url is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("invalid cache.backend %q, expected sqlite, redis or none", c.Cache.Backend)
	}
	if c.Minio.Endpoint != "" && strings.TrimSpace(c.Minio.Bucket) == "" {
		return errors.New("minio.bucket is required when minio.endpoint is set")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}
