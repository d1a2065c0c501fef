package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	AMQP      AMQPConfig
}

type AppConfig struct {
	Env             string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json | text
}

// DatabaseConfig selects one of the supported stores. Only the DSN of the
// selected driver is read.
type DatabaseConfig struct {
	Driver     string // sqlite | mysql | postgres
	SQLitePath string
	MySQLDSN   string
	PgDSN      string
}

type SecurityConfig struct {
	BcryptCost int
}

// RateLimitConfig disables the limiter when RPS <= 0.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AMQPConfig disables event publishing when URL is empty.
type AMQPConfig struct {
	URL         string
	Queue       string
	DialTimeout time.Duration
}

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Load reads an optional .env file, then environment variables, and fills
// in defaults for anything unset.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:             v.GetString("APP_ENV"),
			Port:            v.GetString("APP_PORT"),
			ReadTimeout:     v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("HTTP_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			SQLitePath: v.GetString("SQLITE_PATH"),
			MySQLDSN:   v.GetString("MYSQL_DSN"),
			PgDSN:      v.GetString("PG_DSN"),
		},
		Security: SecurityConfig{
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		AMQP: AMQPConfig{
			URL:         v.GetString("AMQP_URL"),
			Queue:       v.GetString("AMQP_QUEUE"),
			DialTimeout: v.GetDuration("AMQP_DIAL_TIMEOUT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "3500")
	v.SetDefault("HTTP_READ_TIMEOUT", "10s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "5s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("SQLITE_PATH", "technotes.db")
	v.SetDefault("MYSQL_DSN", "")
	v.SetDefault("PG_DSN", "")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_QUEUE", "user.events")
	v.SetDefault("AMQP_DIAL_TIMEOUT", "2s")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverMySQL:
		if c.Database.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when DB_DRIVER=%s", DriverMySQL)
		}
	case DriverPostgres:
		if c.Database.PgDSN == "" {
			return fmt.Errorf("PG_DSN is required when DB_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.App.Port == "" {
		return fmt.Errorf("APP_PORT must not be empty")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.Log.Format)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.App.Port
}

// String masks DSNs, which usually carry credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{env: %s, port: %s, db: %s, amqp: %t, rate_limit: %.2f/s}",
		c.App.Env, c.App.Port, c.Database.Driver, c.AMQP.URL != "", c.RateLimit.RPS)
}
