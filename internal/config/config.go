// Package config loads process configuration. Precedence, lowest first:
// built-in defaults, an optional YAML file named by CONFIG_FILE, a .env file
// in the working directory, and finally the process environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers understood by the runtime.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config is the complete process configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Loader   LoaderConfig   `yaml:"loader"`
}

type ServerConfig struct {
	Host             string        `yaml:"host" env:"HOST"`
	Port             int           `yaml:"port" env:"PORT"`
	AssetRoot        string        `yaml:"asset_root" env:"ASSET_ROOT"`
	FallbackDocument string        `yaml:"fallback_document" env:"FALLBACK_DOCUMENT"`
	CORSOrigins      string        `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	RateLimitRPS     int           `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url" env:"UPSTREAM_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT"`
}

type StoreConfig struct {
	Driver         string        `yaml:"driver" env:"STORE_DRIVER"`
	DSN            string        `yaml:"dsn" env:"STORE_DSN"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"STORE_CONNECT_TIMEOUT"`
	SeedSample     bool          `yaml:"seed_sample" env:"SEED_SAMPLE"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	Output string `yaml:"output" env:"LOG_OUTPUT"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

type LoaderConfig struct {
	Schedule string `yaml:"schedule" env:"LOAD_SCHEDULE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             3000,
			AssetRoot:        "./dist",
			FallbackDocument: "index.html",
			CORSOrigins:      "*",
			RateLimitBurst:   20,
			ShutdownTimeout:  10 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://jsonplaceholder.typicode.com",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:         DriverPostgres,
			DSN:            "postgres://localhost:5432/userDataDb?sslmode=disable",
			ConnectTimeout: 5 * time.Second,
			SeedSample:     true,
		},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}

// Load builds the configuration from defaults, CONFIG_FILE, .env and the
// environment, then validates it.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads a YAML file over the defaults without consulting the
// environment.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate rejects settings the runtime cannot honor.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.FallbackDocument) == "" {
		return fmt.Errorf("fallback document is required")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream timeout must not be negative")
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return fmt.Errorf("upstream base url is required")
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite, DriverRedis:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store dsn is required for driver %s", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// ListenAddr returns the API server bind address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
