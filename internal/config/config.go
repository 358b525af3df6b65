// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ANALYZER_SERVER_PORT
const EnvPrefix = "ANALYZER"

// LogConfig controls the zap logger
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Port           int   `mapstructure:"port" validate:"min=1,max=65535"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"min=1"`
	RateLimit      int   `mapstructure:"rate_limit" validate:"min=1"` // requests per minute per client
}

// MongoConfig locates the diagnostics store
type MongoConfig struct {
	URI        string `mapstructure:"uri" validate:"omitempty,url"`
	Database   string `mapstructure:"database" validate:"required"`
	Collection string `mapstructure:"collection" validate:"required"`
}

// RedisConfig locates the result cache
type RedisConfig struct {
	Addr string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// ReportConfig controls PDF output
type ReportConfig struct {
	FontPath string `mapstructure:"font_path"`
	Compress bool   `mapstructure:"compress"`
}

// FetchConfig controls remote resume downloads
type FetchConfig struct {
	UseBrowser bool          `mapstructure:"use_browser"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Config is the full application configuration. Every field has a default, so
// an empty file or no file at all yields a usable Config.
type Config struct {
	Log          LogConfig    `mapstructure:"log"`
	DevMode      bool         `mapstructure:"dev_mode"`
	RulesPath    string       `mapstructure:"rules_path"`
	PreviewLimit int          `mapstructure:"preview_limit" validate:"min=1"`
	MaxFileSize  int64        `mapstructure:"max_file_size" validate:"min=1"`
	Server       ServerConfig `mapstructure:"server"`
	DatabaseURL  string       `mapstructure:"database_url" validate:"omitempty,url"`
	Mongo        MongoConfig  `mapstructure:"mongo"`
	Redis        RedisConfig  `mapstructure:"redis"`
	Report       ReportConfig `mapstructure:"report"`
	Fetch        FetchConfig  `mapstructure:"fetch"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		PreviewLimit: 2000,
		MaxFileSize:  10 << 20,
		Server: ServerConfig{
			Port:           8080,
			MaxUploadBytes: 10 << 20,
			RateLimit:      60,
		},
		Mongo: MongoConfig{
			Database:   "resume_analyzer",
			Collection: "resumeAnalyzerDiagnostics",
		},
		Redis: RedisConfig{TTL: 24 * time.Hour},
		Report: ReportConfig{
			Compress: true,
		},
		Fetch: FetchConfig{Timeout: 30 * time.Second},
	}
}

// setDefaults registers every key with viper, which also makes each key
// overridable from the environment.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("dev_mode", d.DevMode)
	v.SetDefault("rules_path", d.RulesPath)
	v.SetDefault("preview_limit", d.PreviewLimit)
	v.SetDefault("max_file_size", d.MaxFileSize)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("mongo.collection", d.Mongo.Collection)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.ttl", d.Redis.TTL)
	v.SetDefault("report.font_path", d.Report.FontPath)
	v.SetDefault("report.compress", d.Report.Compress)
	v.SetDefault("fetch.use_browser", d.Fetch.UseBrowser)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
}

// LoadConfig loads configuration from an optional YAML or JSON file, with
// ANALYZER_* environment variables taking precedence over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Redis.TTL < 0 {
		return fmt.Errorf("config error: 'redis.ttl' must be non-negative")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("config error: 'fetch.timeout' must be positive")
	}

	if c.RulesPath != "" {
		if _, err := os.Stat(c.RulesPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: rules file not found: %s", c.RulesPath)
		}
	}
	if c.Report.FontPath != "" {
		if _, err := os.Stat(c.Report.FontPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: font file not found: %s", c.Report.FontPath)
		}
	}

	return nil
}
