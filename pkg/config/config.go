package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "IGCLIENT_"

// Config holds all configuration options for igclient
type Config struct {
	Instagram  InstagramConfig  `yaml:"instagram" json:"instagram"`
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	Retry      RetryConfig      `yaml:"retry" json:"retry"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// InstagramConfig holds account and transport settings for the API client
type InstagramConfig struct {
	Username     string        `yaml:"username" json:"username"`
	Password     string        `yaml:"password" json:"-"`
	PasswordFile string        `yaml:"password_file" json:"password_file"`
	TOTPSecret   string        `yaml:"totp_secret" json:"-"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// PaginationConfig bounds paginated listings
type PaginationConfig struct {
	MaxPages int `yaml:"max_pages" json:"max_pages"`
}

// RateLimitConfig holds rate limiting configuration. Zero disables limiting.
// Strategy is token_bucket or sliding_window.
type RateLimitConfig struct {
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Strategy          string `yaml:"strategy" json:"strategy"`
}

// RetryConfig controls retries of idempotent requests
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Instagram 10.26.0 Android (18/4.3; 320dpi; 720x1280; Xiaomi; HM 1SW; armani; qcom; en_US)",
			BaseURL:   "https://i.instagram.com",
			Timeout:   0,
		},
		Pagination: PaginationConfig{
			MaxPages: 10,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			Strategy:          "token_bucket",
		},
		Retry: RetryConfig{
			Enabled:     false,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from IGCLIENT_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(envPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	setString("USERNAME", &c.Instagram.Username)
	setString("PASSWORD", &c.Instagram.Password)
	setString("PASSWORD_FILE", &c.Instagram.PasswordFile)
	setString("TOTP_SECRET", &c.Instagram.TOTPSecret)
	setString("USER_AGENT", &c.Instagram.UserAgent)
	setString("BASE_URL", &c.Instagram.BaseURL)
	setDuration("TIMEOUT", &c.Instagram.Timeout)
	setInt("MAX_PAGES", &c.Pagination.MaxPages)
	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	setString("RATE_LIMIT_STRATEGY", &c.RateLimit.Strategy)
	setInt("RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	if v := os.Getenv(envPrefix + "RETRY_ENABLED"); v != "" {
		c.Retry.Enabled = strings.ToLower(v) == "true"
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the default locations and is not an error when nothing is found.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igclient.yaml",
		".igclient.yml",
		filepath.Join(home, ".config", "igclient", "config.yaml"),
		filepath.Join(home, ".igclient.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// ResolvePassword fills Password from PasswordFile when no password was
// given directly. Trailing newlines in the file are ignored.
func (c *Config) ResolvePassword() error {
	if c.Instagram.Password != "" || c.Instagram.PasswordFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.Instagram.PasswordFile)
	if err != nil {
		return fmt.Errorf("failed to read password file: %w", err)
	}

	c.Instagram.Password = strings.TrimRight(string(data), "\r\n")
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	} else if u, err := url.Parse(c.Instagram.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base URL %q is not an absolute URL", c.Instagram.BaseURL))
	}
	if c.Instagram.Timeout < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}
	if c.Pagination.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	switch c.RateLimit.Strategy {
	case "", "token_bucket", "sliding_window":
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit strategy %q (want token_bucket or sliding_window)", c.RateLimit.Strategy))
	}
	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive when retry is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to a YAML file. Secrets are not written.
func (c *Config) Save(path string) error {
	out := *c
	out.Instagram.Password = ""
	out.Instagram.TOTPSecret = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["username"].(string); ok && v != "" {
		c.Instagram.Username = v
	}
	if v, ok := flags["password-file"].(string); ok && v != "" {
		c.Instagram.PasswordFile = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Instagram.BaseURL = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Instagram.Timeout = v
	}
	if v, ok := flags["max-pages"].(int); ok && v > 0 {
		c.Pagination.MaxPages = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["rate-limit-strategy"].(string); ok && v != "" {
		c.RateLimit.Strategy = v
	}
	if v, ok := flags["retry"].(bool); ok {
		c.Retry.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igclient.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.ResolvePassword(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
