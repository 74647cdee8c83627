package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	Database   DatabaseConfig
	HTTP       HTTPConfig
	BaseLinker BaseLinkerConfig
	Limiter    LimiterConfig
	Currency   CurrencyConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// BaseLinkerConfig holds vendor API client settings
type BaseLinkerConfig struct {
	Token       string
	BaseURL     string
	InventoryID string
	PageSize    int           // items requested per list page
	PageCeiling int           // hard bound on pages walked per listing
	BatchSize   int           // identifiers per detail request
	Timeout     time.Duration // per-request HTTP timeout
}

// LimiterConfig holds outbound rate limiter settings
type LimiterConfig struct {
	MinInterval   time.Duration // minimum gap between vendor call starts
	QueueCapacity int           // bounded wait queue; beyond this, fail fast
	MaxRetries    int           // retry budget for transport failures
}

// CurrencyConfig holds exchange-rate source settings
type CurrencyConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with APA_ prefix (e.g., APA_BASELINKER_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("APA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		BaseLinker: BaseLinkerConfig{
			Token:       v.GetString("baselinker.token"),
			BaseURL:     v.GetString("baselinker.base_url"),
			InventoryID: v.GetString("baselinker.inventory_id"),
			PageSize:    v.GetInt("baselinker.page_size"),
			PageCeiling: v.GetInt("baselinker.page_ceiling"),
			BatchSize:   v.GetInt("baselinker.batch_size"),
			Timeout:     v.GetDuration("baselinker.timeout"),
		},
		Limiter: LimiterConfig{
			MinInterval:   v.GetDuration("limiter.min_interval"),
			QueueCapacity: v.GetInt("limiter.queue_capacity"),
			MaxRetries:    v.GetInt("limiter.max_retries"),
		},
		Currency: CurrencyConfig{
			BaseURL: v.GetString("currency.base_url"),
			Timeout: v.GetDuration("currency.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers built-in defaults
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "allegro-profit-analyzer")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "profit_analyzer")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "0s") // SSE streams must not be cut off
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.max_body_size", int64(10*1024*1024))
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("http.rate_limit_requests", 120)
	v.SetDefault("http.rate_limit_window", "1m")

	v.SetDefault("baselinker.base_url", "https://api.baselinker.com/connector.php")
	v.SetDefault("baselinker.page_size", 100)
	v.SetDefault("baselinker.page_ceiling", 100)
	v.SetDefault("baselinker.batch_size", 100)
	v.SetDefault("baselinker.timeout", "30s")

	// Vendor quota is ~100 requests/minute; 600ms spacing keeps us under it
	v.SetDefault("limiter.min_interval", "600ms")
	v.SetDefault("limiter.queue_capacity", 64)
	v.SetDefault("limiter.max_retries", 3)

	v.SetDefault("currency.base_url", "https://api.nbp.pl/api")
	v.SetDefault("currency.timeout", "10s")
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("app.port must not be empty")
	}
	if c.BaseLinker.PageCeiling <= 0 {
		return fmt.Errorf("baselinker.page_ceiling must be positive")
	}
	if c.BaseLinker.BatchSize <= 0 {
		return fmt.Errorf("baselinker.batch_size must be positive")
	}
	if c.Limiter.QueueCapacity <= 0 {
		return fmt.Errorf("limiter.queue_capacity must be positive")
	}
	if c.Limiter.MinInterval < 0 {
		return fmt.Errorf("limiter.min_interval must not be negative")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the database URL used by the migration tool
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password),
		c.Host, c.Port, c.DBName, c.SSLMode)
}
