package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string   `yaml:"port"`
		ReadTimeout  string   `yaml:"read_timeout"`
		WriteTimeout string   `yaml:"write_timeout"`
		CORSOrigins  []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Logger LoggerConfig `yaml:"logger"`
	Redis  struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TimeLimit     int    `yaml:"time_limit"`
		TickInterval  string `yaml:"tick_interval"`
		SaveTimeout   string `yaml:"save_timeout"`
		DefaultAmount int    `yaml:"default_amount"`
		SetCacheTTL   string `yaml:"set_cache_ttl"`
	} `yaml:"quiz"`
	Trivia struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"trivia"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

const (
	DefaultPort          = "8080"
	DefaultTimeLimit     = 10
	DefaultAmount        = 3
	DefaultTriviaBaseURL = "https://opentdb.com/api.php"
)

// Load reads YAML config from path, applies environment overrides and fills defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("TRIVIA_BASE_URL"); v != "" {
		c.Trivia.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Logger.Env = v
	}
}

// ApplyDefaults fills every unset field that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Quiz.TimeLimit <= 0 {
		c.Quiz.TimeLimit = DefaultTimeLimit
	}
	if c.Quiz.DefaultAmount <= 0 {
		c.Quiz.DefaultAmount = DefaultAmount
	}
	if c.Trivia.BaseURL == "" {
		c.Trivia.BaseURL = DefaultTriviaBaseURL
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
