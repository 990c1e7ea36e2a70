// Package config provides unified configuration loading for the shopping assistant.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the shopping assistant backend.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Search        SearchConfig        `yaml:"search"`
	LLM           LLMConfig           `yaml:"llm"`
	WhatsApp      WhatsAppConfig      `yaml:"whatsapp"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string      `yaml:"driver"` // memory or redis
	MaxEntries int         `yaml:"max_entries"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// SearchConfig holds shopping search provider settings.
type SearchConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	Engine          string        `yaml:"engine"`
	CountryCode     string        `yaml:"country_code"`
	LanguageCode    string        `yaml:"language_code"`
	Currency        string        `yaml:"currency"`
	ResultLimit     int           `yaml:"result_limit"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// LLMConfig holds settings for the LLM cleaner and recommender.
type LLMConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	CleanerModel   string        `yaml:"cleaner_model"`
	AnalysisModel  string        `yaml:"analysis_model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WhatsAppConfig holds WhatsApp Cloud API settings.
type WhatsAppConfig struct {
	APIBaseURL    string        `yaml:"api_base_url"`
	Token         string        `yaml:"token"`
	PhoneNumberID string        `yaml:"phone_number_id"`
	VerifyToken   string        `yaml:"verify_token"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// AnalysisConfig holds rule-engine settings.
type AnalysisConfig struct {
	ProfilesDir string `yaml:"profiles_dir"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	Tokens  []string `yaml:"tokens"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		// Paths in the file are relative to the file, not the working
		// directory the binary happens to run from.
		cfg.Analysis.ProfilesDir = ResolveRelativePath(path, cfg.Analysis.ProfilesDir)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "/tmp/shopscout.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Search: SearchConfig{
			BaseURL:        "https://serpapi.com",
			Engine:         "google_shopping",
			CountryCode:    "ar",
			LanguageCode:   "es",
			Currency:       "ARS",
			ResultLimit:    20,
			CacheTTL:       time.Hour,
			RequestTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:        "https://generativelanguage.googleapis.com",
			CleanerModel:   "gemini-1.5-flash",
			AnalysisModel:  "gemini-1.5-pro",
			RequestTimeout: 45 * time.Second,
		},
		WhatsApp: WhatsAppConfig{
			APIBaseURL: "https://graph.facebook.com/v19.0",
			SessionTTL: 15 * time.Minute,
		},
		Analysis: AnalysisConfig{
			ProfilesDir: "configs/profiles",
		},
		Auth: AuthConfig{
			Enabled: false,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "debug",
			LogFormat:   "json",
			ServiceName: "shopscout",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Search.ResultLimit < 1 || c.Search.ResultLimit > 100 {
		return fmt.Errorf("search result_limit must be between 1 and 100")
	}

	if c.Auth.Enabled && len(c.Auth.Tokens) == 0 {
		return fmt.Errorf("auth enabled but no tokens configured")
	}

	return nil
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// DatabasePool returns the connection pool limits for the active driver.
// SQLite gets a single writer connection; Postgres uses the full pool.
func (c *Config) DatabasePool() (maxOpen, maxIdle int, connMaxLifetime time.Duration) {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.MaxOpenConns, 0, 0
	}
	return c.Database.Postgres.MaxOpenConns, c.Database.Postgres.MaxIdleConns, c.Database.Postgres.ConnMaxLifetime
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("SERPAPI_KEY"); v != "" {
		cfg.Search.APIKey = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("WHATSAPP_TOKEN"); v != "" {
		cfg.WhatsApp.Token = v
	}

	if v := os.Getenv("WHATSAPP_PHONE_NUMBER_ID"); v != "" {
		cfg.WhatsApp.PhoneNumberID = v
	}

	if v := os.Getenv("WHATSAPP_VERIFY_TOKEN"); v != "" {
		cfg.WhatsApp.VerifyToken = v
	}

	if v := os.Getenv("PROFILES_DIR"); v != "" {
		cfg.Analysis.ProfilesDir = v
	}

	if v := os.Getenv("AUTH_TOKENS"); v != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Tokens = strings.Split(v, ",")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
