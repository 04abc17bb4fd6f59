package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		CORSOrigins    []string      `yaml:"cors_origins"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		StaticDir      string        `yaml:"static_dir"`
	} `yaml:"server"`
	DataSource struct {
		Provider      string        `yaml:"provider"` // yahoo | polygon | csv | mock
		Period        string        `yaml:"period"`
		Timeout       time.Duration `yaml:"timeout"`
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		CSVDir        string        `yaml:"csv_dir"`
		RatePerSecond float64       `yaml:"rate_per_second"` // negative disables limiting
		Burst         int           `yaml:"burst"`
	} `yaml:"data_source"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
	} `yaml:"cache"`
	Database struct {
		Driver    string        `yaml:"driver"` // sqlite | postgres | none
		DSN       string        `yaml:"dsn"`
		Retention time.Duration `yaml:"retention"`
	} `yaml:"database"`
	Schedule struct {
		WarmCron  string   `yaml:"warm_cron"`
		PruneCron string   `yaml:"prune_cron"`
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HTTP_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("PRICE_PROVIDER"); v != "" {
		c.DataSource.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("CSV_DIR"); v != "" {
		c.DataSource.CSVDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Schedule.Watchlist = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Period == "" {
		c.DataSource.Period = "2y"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 15 * time.Second
	}
	if c.DataSource.BaseURL == "" && c.DataSource.Provider == "polygon" {
		c.DataSource.BaseURL = "https://api.polygon.io"
	}
	if c.DataSource.CSVDir == "" {
		c.DataSource.CSVDir = "data/prices"
	}
	if c.DataSource.RatePerSecond == 0 {
		c.DataSource.RatePerSecond = 2
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 4
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/earnings_chart.db"
	}
	if c.Database.Retention == 0 {
		c.Database.Retention = 90 * 24 * time.Hour
	}
	if c.Schedule.WarmCron == "" {
		c.Schedule.WarmCron = "0 */30 * * * *"
	}
	if c.Schedule.PruneCron == "" {
		c.Schedule.PruneCron = "0 0 3 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.DataSource.Provider {
	case "yahoo", "csv", "mock":
	case "polygon":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for polygon")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for %s", c.Database.Driver)
		}
	case "none":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
