package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTPAddress  string `yaml:"http_address" env:"HTTP_ADDRESS" env-default:":8080"`
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH" env-default:"data.db"`
	RedisAddr    string `yaml:"redis_addr" env:"REDIS_ADDR"`

	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	DueCheck  DueCheckConfig  `yaml:"due_check"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	TaskCacheTTL time.Duration `yaml:"task_cache_ttl" env:"TASK_CACHE_TTL" env-default:"5m"`
}

type SessionConfig struct {
	Secret       string        `yaml:"secret" env:"SESSION_SECRET" env-default:"taskboard-secret-key"`
	TTL          time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"168h"`
	CookieSecure bool          `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	File  string `yaml:"file" env:"LOG_FILE"`
}

type DueCheckConfig struct {
	Interval     time.Duration `yaml:"interval" env:"DUE_CHECK_INTERVAL" env-default:"60s"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"DUE_CHECK_DELAY" env-default:"5s"`
}

type RateLimitConfig struct {
	Limit  int           `yaml:"limit" env:"RATE_LIMIT" env-default:"300"`
	Window time.Duration `yaml:"window" env:"RATE_WINDOW" env-default:"1m"`
}

// Load reads configPath when it exists and falls back to the environment.
func Load(configPath string) (Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return cfg, err
	}
	if cfg.DueCheck.Interval <= 0 {
		return cfg, fmt.Errorf("due_check.interval must be positive, got %s", cfg.DueCheck.Interval)
	}
	return cfg, nil
}

func read(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		err := cleanenv.ReadEnv(&cfg)
		return cfg, err
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			cfg = Config{}
			err := cleanenv.ReadEnv(&cfg)
			return cfg, err
		}
		return cfg, err
	}
	return cfg, nil
}

func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}
	return cfg
}
