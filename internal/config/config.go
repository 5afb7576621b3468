// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	JWT       JWTConfig       `yaml:"jwt"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// URL renders the connection string for lib/pq.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// SMTPConfig contains notification mail settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// JWTConfig contains token settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

// TelemetryConfig contains the OTLP trace exporter settings. An empty
// endpoint disables tracing export.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file, then applies environment
// variable overrides.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setInt := func(key string, dst *int) {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
			}
		}
	}

	setString("DB_HOST", &c.Database.Host)
	setInt("DB_PORT", &c.Database.Port)
	setString("DB_USER", &c.Database.User)
	setString("DB_PASSWORD", &c.Database.Password)
	setString("DB_NAME", &c.Database.Database)
	setString("DB_SSL_MODE", &c.Database.SSLMode)

	setString("SMTP_HOST", &c.SMTP.Host)
	setInt("SMTP_PORT", &c.SMTP.Port)
	setString("SMTP_USER", &c.SMTP.User)
	setString("SMTP_PASS", &c.SMTP.Password)
	setString("SMTP_FROM", &c.SMTP.From)

	setString("JWT_SECRET", &c.JWT.Secret)

	setString("OTLP_ENDPOINT", &c.Telemetry.Endpoint)

	setInt("PORT", &c.Server.Port)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.JWT.ExpiryHours == 0 {
		c.JWT.ExpiryHours = 24
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "librarylounge"
	}
	return nil
}
