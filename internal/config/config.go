// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the configuration shared by the issuance and verification services.
type Config struct {
	Port           string        `env:"PORT"`
	ListenAddr     string        `env:"CREDENTIALHUB_LISTEN_ADDR"`
	Environment    string        `env:"CREDENTIALHUB_ENV" envDefault:"development"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	Postgres       PostgresParts `envPrefix:"PG"`
	DBPath         string        `env:"CREDENTIALHUB_DB_PATH" envDefault:"credentials.db"`
	DBMaxOpenConns int           `env:"CREDENTIALHUB_DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns int           `env:"CREDENTIALHUB_DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnLifetime time.Duration `env:"CREDENTIALHUB_DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	AllowedOrigins []string      `env:"CREDENTIALHUB_ALLOWED_ORIGINS" envDefault:"http://localhost:5173,https://*.railway.app" envSeparator:","`
	LogLevel       string        `env:"CREDENTIALHUB_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"CREDENTIALHUB_LOG_FORMAT" envDefault:"json"`
}

// PostgresParts are the discrete libpq-style variables used to assemble a
// connection URL when DATABASE_URL is not set.
type PostgresParts struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"5432"`
	Database string `env:"DATABASE"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	SSLMode  string `env:"SSLMODE" envDefault:"require"`

	passwordSet bool
}

// URL returns a postgresql:// URL, or "" when host, database, user or
// password is missing. An explicitly empty password counts as set.
func (p PostgresParts) URL() string {
	if p.Host == "" || p.Database == "" || p.User == "" || !p.passwordSet {
		return ""
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// PostgresURL returns DATABASE_URL if set, otherwise a URL assembled from the
// PG* variables. An empty result selects the embedded SQLite store.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.Postgres.URL()
}

// Level maps LogLevel onto a slog level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	// Load has already validated the value.
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}

// Load reads a .env file from the working directory when present, then parses
// the environment. Variables already set in the process take precedence over
// .env entries. defaultPort is used when neither CREDENTIALHUB_LISTEN_ADDR nor
// PORT is set, so each service keeps its own conventional port.
func Load(defaultPort string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	_, cfg.Postgres.passwordSet = os.LookupEnv("PGPASSWORD")

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":" + cfg.Port
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("CREDENTIALHUB_LOG_LEVEL has invalid value %q: %w", cfg.LogLevel, err)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CREDENTIALHUB_LOG_FORMAT has invalid value %q: want json or text", cfg.LogFormat)
	}

	return &cfg, nil
}
