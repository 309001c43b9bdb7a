// Package config loads the application configuration: coded defaults, then
// an optional YAML file, then SCRIBE_* environment variables on top.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Session  SessionConfig  `yaml:"session" envconfig:"SESSION"`
	Auth     AuthConfig     `yaml:"auth" envconfig:"AUTH"`
	Wiki     WikiConfig     `yaml:"wiki" envconfig:"WIKI"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// SessionConfig contains session cookie configuration.
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" envconfig:"COOKIE_NAME"`
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL"`
	Secure     bool          `yaml:"secure" envconfig:"SECURE"`
	GCInterval time.Duration `yaml:"gc_interval" envconfig:"GC_INTERVAL"`
}

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	EnableSignup bool `yaml:"enable_signup" envconfig:"ENABLE_SIGNUP"`
}

// WikiConfig contains wiki behavior configuration.
type WikiConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	// ReservedPaths are doublestar globs protecting action URLs from
	// user-created pages. Empty means the built-in defaults.
	ReservedPaths []string `yaml:"reserved_paths" envconfig:"RESERVED_PATHS"`
}

// SecurityConfig contains rate limiting configuration for the login routes.
type SecurityConfig struct {
	LoginRPS   float64 `yaml:"login_rps" envconfig:"LOGIN_RPS"`
	LoginBurst int     `yaml:"login_burst" envconfig:"LOGIN_BURST"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Session: SessionConfig{
			CookieName: "scribe_session",
			TTL:        24 * time.Hour,
			GCInterval: 10 * time.Minute,
		},
		Wiki: WikiConfig{
			DataDir: "data",
		},
		Security: SecurityConfig{
			LoginRPS:   1,
			LoginBurst: 5,
		},
	}
}

// Load reads configuration layered as defaults < file < environment. An
// empty path or a missing file skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file is fine; defaults and env carry the day.
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process("SCRIBE", cfg); err != nil {
		return nil, fmt.Errorf("loading config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Wiki.DataDir == "" {
		return fmt.Errorf("wiki.data_dir must not be empty")
	}
	return nil
}
