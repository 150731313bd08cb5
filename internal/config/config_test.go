package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: true},
		{name: "bad scheme", mutate: func(c *Config) { c.BaseURL = "ftp://example.com" }, wantErr: true},
		{name: "no host", mutate: func(c *Config) { c.BaseURL = "http://" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: true},
		{name: "unknown level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "upper level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.HomeDir = t.TempDir()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HomeDir = t.TempDir()
	cfg.BaseURL = "https://admin.example.com/"
	cfg.APIPrefix = "api/"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.BaseURL != "https://admin.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.APIPrefix != "/api" {
		t.Errorf("APIPrefix = %q", cfg.APIPrefix)
	}
	if !filepath.IsAbs(cfg.ExportDir) {
		t.Errorf("ExportDir should be absolute, got %q", cfg.ExportDir)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	home := t.TempDir()
	content := "api_url: https://file.example.com\ntimeout: 5s\nlog_level: warn\n"
	if err := os.WriteFile(filepath.Join(home, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// run from an empty directory so no stray .env is picked up
	t.Chdir(t.TempDir())
	t.Setenv("CMS_ADMIN_HOME", home)
	t.Setenv("CMS_ADMIN_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BaseURL != "https://file.example.com" {
		t.Errorf("expected api url from file, got %q", cfg.BaseURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected timeout from file, got %s", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected env to override log level, got %q", cfg.LogLevel)
	}
}

func TestLoadConfigBadTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CMS_ADMIN_HOME", t.TempDir())
	t.Setenv("CMS_ADMIN_TIMEOUT", "soon")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid timeout")
	}
}
