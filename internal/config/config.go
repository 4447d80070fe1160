package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort   string `envconfig:"SERVER_PORT" default:"2333"`
	BaseAPIRoute string `envconfig:"BASE_API_ROUTE" default:"/api/v1"`

	MySQLDSN string `envconfig:"MYSQL_DSN" default:"root:password@tcp(localhost:3306)/scheduler?charset=utf8mb4&parseTime=True&loc=UTC"`
	ResetDB  bool   `envconfig:"RESET_DB" default:"false"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass     string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	EventCacheTTL time.Duration `envconfig:"EVENT_CACHE_TTL" default:"5m"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"secret"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"168h"`

	// DayOfWeekMax bounds the dayOfWeek event field: 5 restricts events to
	// Monday..Friday, 7 allows the full week.
	DayOfWeekMax int `envconfig:"DAY_OF_WEEK_MAX" default:"7"`

	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"72h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	SwaggerHost string `envconfig:"SWAGGER_HOST"`
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.DayOfWeekMax < 5 || c.DayOfWeekMax > 7 {
		return fmt.Errorf("DAY_OF_WEEK_MAX must be between 5 and 7, got %d", c.DayOfWeekMax)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must not be negative")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
