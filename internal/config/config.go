// Package config provides configuration management for the SkyDrive CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ConfigDir is the directory name under ~/.config holding client state.
const ConfigDir = "skydrive"

// DefaultAPIBaseURL is used when no URL is configured anywhere.
// The backend mounts all routes under /api; NormalizeBaseURL appends it.
const DefaultAPIBaseURL = "http://localhost:8000"

// Config holds the client configuration.
//
// Config file location: ~/.config/skydrive/config
//
// INI format:
//
//	[skydrive]
//	api_url = https://drive.example.com
//
//	[skydrive.proxy]
//	mode = system
//	host =
//	port =
//
//	[skydrive.notifications]
//	enabled = true
//	show_upload_complete = true
//	show_upload_failed = true
type Config struct {
	// APIBaseURL is the backend origin. The /api prefix is appended
	// automatically when missing.
	APIBaseURL string `ini:"api_url"`

	// Token is the bearer token for authenticated requests. Resolved at
	// load time from flag, environment or the token file; never written
	// back to the config file (the token file owns persistence).
	Token string `ini:"-"`

	Proxy         ProxyConfig
	Notifications NotificationConfig
}

// ProxyConfig holds outbound proxy settings.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "manual", "ntlm".
	Mode string `ini:"mode"`

	Host     string `ini:"host"`
	Port     string `ini:"port"`
	Username string `ini:"username"`
	Password string `ini:"password"`

	// NoProxy is a comma-separated bypass list of hosts and CIDRs that
	// connect directly even when a proxy is configured.
	NoProxy string `ini:"no_proxy"`
}

// NotificationConfig holds desktop notification settings.
type NotificationConfig struct {
	Enabled            bool `ini:"enabled"`
	ShowUploadComplete bool `ini:"show_upload_complete"`
	ShowUploadFailed   bool `ini:"show_upload_failed"`
}

// Validation errors
var (
	ErrMissingAPIBaseURL = errors.New("api_url is required")
	ErrMissingToken      = errors.New("not logged in: no token found (run 'skydrive auth login')")
)

// DefaultConfigPath returns the default path of the config file.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to determine config directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, ConfigDir, "config"), nil
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		APIBaseURL: DefaultAPIBaseURL,
		Proxy: ProxyConfig{
			Mode: "system",
		},
		Notifications: NotificationConfig{
			Enabled:            true,
			ShowUploadComplete: true,
			ShowUploadFailed:   true,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Environment variables override file values:
// SKYDRIVE_API_URL and SKYDRIVE_TOKEN.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); err == nil {
		iniFile, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		section := iniFile.Section("skydrive")
		cfg.APIBaseURL = section.Key("api_url").MustString(cfg.APIBaseURL)

		proxySection := iniFile.Section("skydrive.proxy")
		cfg.Proxy.Mode = proxySection.Key("mode").MustString(cfg.Proxy.Mode)
		cfg.Proxy.Host = proxySection.Key("host").String()
		cfg.Proxy.Port = proxySection.Key("port").String()
		cfg.Proxy.Username = proxySection.Key("username").String()
		cfg.Proxy.Password = proxySection.Key("password").String()
		cfg.Proxy.NoProxy = proxySection.Key("no_proxy").String()

		notifySection := iniFile.Section("skydrive.notifications")
		cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(true)
		cfg.Notifications.ShowUploadComplete = notifySection.Key("show_upload_complete").MustBool(true)
		cfg.Notifications.ShowUploadFailed = notifySection.Key("show_upload_failed").MustBool(true)
	}

	if url := os.Getenv("SKYDRIVE_API_URL"); url != "" {
		cfg.APIBaseURL = url
	}
	if token := os.Getenv("SKYDRIVE_TOKEN"); token != "" {
		cfg.Token = token
	}

	cfg.APIBaseURL = NormalizeBaseURL(cfg.APIBaseURL)
	return cfg, nil
}

// Save writes the config to path atomically with owner-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	section, err := iniFile.NewSection("skydrive")
	if err != nil {
		return fmt.Errorf("failed to create skydrive section: %w", err)
	}
	section.Key("api_url").SetValue(cfg.APIBaseURL)

	proxySection, err := iniFile.NewSection("skydrive.proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.Proxy.Mode)
	proxySection.Key("host").SetValue(cfg.Proxy.Host)
	proxySection.Key("port").SetValue(cfg.Proxy.Port)
	proxySection.Key("username").SetValue(cfg.Proxy.Username)
	proxySection.Key("password").SetValue(cfg.Proxy.Password)
	proxySection.Key("no_proxy").SetValue(cfg.Proxy.NoProxy)

	notifySection, err := iniFile.NewSection("skydrive.notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Notifications.Enabled))
	notifySection.Key("show_upload_complete").SetValue(fmt.Sprintf("%t", cfg.Notifications.ShowUploadComplete))
	notifySection.Key("show_upload_failed").SetValue(fmt.Sprintf("%t", cfg.Notifications.ShowUploadFailed))

	// Temp file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the configuration is usable for API calls.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return ErrMissingAPIBaseURL
	}
	return nil
}

// ValidateAuthenticated checks the configuration carries a token.
func (cfg *Config) ValidateAuthenticated() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// NormalizeBaseURL trims a trailing slash and appends /api when the URL
// does not already end with it, matching how the backend mounts routes.
func NormalizeBaseURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	if url == "" {
		url = DefaultAPIBaseURL
	}
	if !strings.HasSuffix(url, "/api") {
		url += "/api"
	}
	return url
}
