// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the optional YAML file read from the home directory
	ConfigFileName = "config.yaml"

	DefaultBaseURL   = "http://localhost:5000"
	DefaultAPIPrefix = "/api"
	DefaultTimeout   = 30 * time.Second
)

// Config holds global configuration settings
type Config struct {
	// BaseURL is the backend origin, e.g. https://admin.example.com
	BaseURL string `yaml:"api_url"`
	// APIPrefix is prepended to every resource path
	APIPrefix string `yaml:"api_prefix"`
	// Timeout bounds a single HTTP request
	Timeout time.Duration `yaml:"timeout"`

	// HomeDir holds config.yaml and the default log file
	HomeDir string `yaml:"-"`
	// ResourcesFile replaces the built-in content type definitions when set
	ResourcesFile string `yaml:"resources_file"`
	// ExportDir is where the dashboard writes spreadsheet exports
	ExportDir string `yaml:"export_dir"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home := getDefaultHomeDir()
	return &Config{
		BaseURL:   DefaultBaseURL,
		APIPrefix: DefaultAPIPrefix,
		Timeout:   DefaultTimeout,
		HomeDir:   home,
		ExportDir: ".",
		LogLevel:  "info",
		LogFile:   filepath.Join(home, "cms-admin.log"),
	}
}

// getDefaultHomeDir returns the default home directory path
func getDefaultHomeDir() string {
	if envDir := os.Getenv("CMS_ADMIN_HOME"); envDir != "" {
		return envDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".cms-admin"
	}
	return filepath.Join(homeDir, ".cms-admin")
}

// LoadConfig loads configuration from the config file, .env and the
// environment, then validates it
func LoadConfig() (*Config, error) {
	// .env only seeds variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	if err := cfg.loadFile(filepath.Join(cfg.HomeDir, ConfigFileName)); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFile merges a YAML config file into c; a missing file is not an error
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides settings with CMS_ADMIN_* environment variables
func (c *Config) applyEnv() error {
	if v := os.Getenv("CMS_ADMIN_API_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CMS_ADMIN_API_PREFIX"); v != "" {
		c.APIPrefix = v
	}
	if v := os.Getenv("CMS_ADMIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CMS_ADMIN_TIMEOUT %q: %w", v, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("CMS_ADMIN_RESOURCES"); v != "" {
		c.ResourcesFile = v
	}
	if v := os.Getenv("CMS_ADMIN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CMS_ADMIN_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("CMS_ADMIN_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("api url cannot be empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api url must use http or https, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api url has no host: %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		c.APIPrefix = "/" + c.APIPrefix
	}
	c.APIPrefix = strings.TrimSuffix(c.APIPrefix, "/")

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.HomeDir == "" {
		return fmt.Errorf("home directory cannot be empty")
	}

	for _, p := range []*string{&c.HomeDir, &c.ResourcesFile, &c.LogFile, &c.ExportDir} {
		if *p == "" {
			continue
		}
		absPath, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		*p = absPath
	}

	return nil
}
