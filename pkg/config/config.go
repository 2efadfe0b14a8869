package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Directory holds the external identity directory connection settings
	Directory DirectoryConfig

	// Admin holds startup provisioning settings
	Admin AdminConfig

	// CORS configuration for the frontend
	CORS CORSConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DirectoryConfig holds identity directory client configuration
type DirectoryConfig struct {
	// Endpoint is the base URL of the directory API
	Endpoint string
	// APIKey authenticates this service against the directory
	APIKey string
	// RootOrgID is the id of the root organization; the root page
	RootOrgID string
	// Timeout bounds each directory round-trip
	Timeout time.Duration
}

// AdminConfig holds startup provisioning configuration
type AdminConfig struct {
	// Emails are the handles of the users provisioned as root admins
	Emails []string
}

// CORSConfig holds cross-origin settings for the browser frontend
type CORSConfig struct {
	Origins []string
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool
}

// LoadConfig loads configuration from an optional YAML file overlaid with
// environment variables. Environment variables win over file values; both
// win over defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Directory: DirectoryConfig{
			Timeout: 10 * time.Second,
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
		},
	}
}

// fileConfig is the YAML schema. Durations are strings ("15s").
type fileConfig struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            string `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		IdleTimeout     string `yaml:"idle_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Directory struct {
		Endpoint  string `yaml:"endpoint"`
		APIKey    string `yaml:"api_key"`
		RootOrgID string `yaml:"root_org_id"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"directory"`
	Admin struct {
		Emails []string `yaml:"emails"`
	} `yaml:"admin"`
	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`
	Observability struct {
		LogLevel       string `yaml:"log_level"`
		MetricsEnabled *bool  `yaml:"metrics_enabled"`
	} `yaml:"observability"`
}

// applyFile overlays values from a YAML config file
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.Server.Host, fc.Server.Host)
	setString(&c.Server.Port, fc.Server.Port)
	if err := setDuration(&c.Server.ReadTimeout, fc.Server.ReadTimeout); err != nil {
		return fmt.Errorf("invalid server.read_timeout: %w", err)
	}
	if err := setDuration(&c.Server.WriteTimeout, fc.Server.WriteTimeout); err != nil {
		return fmt.Errorf("invalid server.write_timeout: %w", err)
	}
	if err := setDuration(&c.Server.IdleTimeout, fc.Server.IdleTimeout); err != nil {
		return fmt.Errorf("invalid server.idle_timeout: %w", err)
	}
	if err := setDuration(&c.Server.ShutdownTimeout, fc.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server.shutdown_timeout: %w", err)
	}

	setString(&c.Directory.Endpoint, fc.Directory.Endpoint)
	setString(&c.Directory.APIKey, fc.Directory.APIKey)
	setString(&c.Directory.RootOrgID, fc.Directory.RootOrgID)
	if err := setDuration(&c.Directory.Timeout, fc.Directory.Timeout); err != nil {
		return fmt.Errorf("invalid directory.timeout: %w", err)
	}

	if len(fc.Admin.Emails) > 0 {
		c.Admin.Emails = fc.Admin.Emails
	}
	if len(fc.CORS.Origins) > 0 {
		c.CORS.Origins = fc.CORS.Origins
	}
	setString(&c.Observability.LogLevel, fc.Observability.LogLevel)
	if fc.Observability.MetricsEnabled != nil {
		c.Observability.MetricsEnabled = *fc.Observability.MetricsEnabled
	}
	return nil
}

// applyEnv overlays values from environment variables
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("ORGWIKI_HOST", c.Server.Host)
	c.Server.Port = getEnv("ORGWIKI_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("ORGWIKI_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("ORGWIKI_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("ORGWIKI_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("ORGWIKI_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Directory.Endpoint = getEnv("ORGWIKI_DIRECTORY_ENDPOINT", c.Directory.Endpoint)
	c.Directory.APIKey = getEnv("ORGWIKI_DIRECTORY_API_KEY", c.Directory.APIKey)
	c.Directory.RootOrgID = getEnv("ORGWIKI_ROOT_ORG_ID", c.Directory.RootOrgID)
	c.Directory.Timeout = getEnvDuration("ORGWIKI_DIRECTORY_TIMEOUT", c.Directory.Timeout)

	if emails := getEnv("ORGWIKI_ADMIN_EMAILS", ""); emails != "" {
		c.Admin.Emails = splitAndTrim(emails)
	}
	if origins := getEnv("ORGWIKI_CORS_ORIGINS", ""); origins != "" {
		c.CORS.Origins = splitAndTrim(origins)
	}

	c.Observability.LogLevel = getEnv("ORGWIKI_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("ORGWIKI_METRICS_ENABLED", c.Observability.MetricsEnabled)
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Directory.Endpoint == "" {
		return fmt.Errorf("directory endpoint is required")
	}
	if !strings.HasPrefix(c.Directory.Endpoint, "http://") && !strings.HasPrefix(c.Directory.Endpoint, "https://") {
		return fmt.Errorf("directory endpoint must be an http(s) URL")
	}
	if c.Directory.APIKey == "" {
		return fmt.Errorf("directory API key is required")
	}
	if c.Directory.RootOrgID == "" {
		return fmt.Errorf("root org id is required")
	}
	if len(c.Admin.Emails) == 0 {
		return fmt.Errorf("at least one admin email is required")
	}
	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Observability.LogLevel)
	}
	return nil
}

// Addr returns the host:port the server listens on
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
