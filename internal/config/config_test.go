package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare origin", "http://localhost:8000", "http://localhost:8000/api"},
		{"trailing slash", "http://localhost:8000/", "http://localhost:8000/api"},
		{"already api", "https://drive.example.com/api", "https://drive.example.com/api"},
		{"api with slash", "https://drive.example.com/api/", "https://drive.example.com/api"},
		{"empty falls back to default", "", "http://localhost:8000/api"},
		{"whitespace only", "   ", "http://localhost:8000/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBaseURL(tt.input); got != tt.expected {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Errorf("APIBaseURL = %q, want default with /api", cfg.APIBaseURL)
	}
	if cfg.Proxy.Mode != "system" {
		t.Errorf("Proxy.Mode = %q, want system", cfg.Proxy.Mode)
	}
	if !cfg.Notifications.Enabled {
		t.Error("Notifications.Enabled = false, want true by default")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg := New()
	cfg.APIBaseURL = "https://drive.example.com"
	cfg.Proxy.Mode = "manual"
	cfg.Proxy.Host = "proxy.corp"
	cfg.Proxy.Port = "3128"
	cfg.Notifications.ShowUploadFailed = false

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.APIBaseURL != "https://drive.example.com/api" {
		t.Errorf("APIBaseURL = %q, want normalized with /api", loaded.APIBaseURL)
	}
	if loaded.Proxy.Mode != "manual" || loaded.Proxy.Host != "proxy.corp" || loaded.Proxy.Port != "3128" {
		t.Errorf("proxy settings not round-tripped: %+v", loaded.Proxy)
	}
	if loaded.Notifications.ShowUploadFailed {
		t.Error("ShowUploadFailed = true, want false after round trip")
	}
	if !loaded.Notifications.ShowUploadComplete {
		t.Error("ShowUploadComplete = false, want true after round trip")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	cfg := New()
	cfg.APIBaseURL = "https://from-file.example.com"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	t.Setenv("SKYDRIVE_API_URL", "https://from-env.example.com")
	t.Setenv("SKYDRIVE_TOKEN", "env-token")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.APIBaseURL != "https://from-env.example.com/api" {
		t.Errorf("APIBaseURL = %q, want env value", loaded.APIBaseURL)
	}
	if loaded.Token != "env-token" {
		t.Errorf("Token = %q, want env-token", loaded.Token)
	}
}

func TestValidateAuthenticated(t *testing.T) {
	cfg := New()
	if err := cfg.ValidateAuthenticated(); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
	cfg.Token = "abc"
	if err := cfg.ValidateAuthenticated(); err != nil {
		t.Errorf("expected nil error with token set, got %v", err)
	}
}

func TestTokenSaveReadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	if err := SaveToken("secret-token", path); err != nil {
		t.Fatalf("SaveToken returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("token file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file permissions = %o, want 0600", perm)
	}

	token, err := ReadToken(path)
	if err != nil {
		t.Fatalf("ReadToken returned error: %v", err)
	}
	if token != "secret-token" {
		t.Errorf("token = %q, want secret-token", token)
	}

	if err := ClearToken(path); err != nil {
		t.Fatalf("ClearToken returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("token file still exists after ClearToken")
	}

	// Clearing again is a no-op
	if err := ClearToken(path); err != nil {
		t.Errorf("ClearToken on missing file returned error: %v", err)
	}
}

func TestReadTokenExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	data, _ := json.Marshal(storedToken{
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to seed token file: %v", err)
	}

	if _, err := ReadToken(path); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestReadTokenLegacyPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("plain-token\n"), 0600); err != nil {
		t.Fatalf("failed to seed token file: %v", err)
	}

	token, err := ReadToken(path)
	if err != nil {
		t.Fatalf("ReadToken returned error: %v", err)
	}
	if token != "plain-token" {
		t.Errorf("token = %q, want plain-token", token)
	}
}

func TestResolveTokenPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := SaveToken("file-token", path); err != nil {
		t.Fatalf("SaveToken returned error: %v", err)
	}

	// Flag wins over everything
	t.Setenv("SKYDRIVE_TOKEN", "env-token")
	token, err := ResolveToken("flag-token", path)
	if err != nil || token != "flag-token" {
		t.Errorf("ResolveToken with flag = (%q, %v), want flag-token", token, err)
	}

	// Env wins over file
	token, err = ResolveToken("", path)
	if err != nil || token != "env-token" {
		t.Errorf("ResolveToken with env = (%q, %v), want env-token", token, err)
	}

	// File is the fallback
	t.Setenv("SKYDRIVE_TOKEN", "")
	token, err = ResolveToken("", path)
	if err != nil || token != "file-token" {
		t.Errorf("ResolveToken from file = (%q, %v), want file-token", token, err)
	}

	// Missing everything yields empty, no error
	token, err = ResolveToken("", filepath.Join(t.TempDir(), "missing"))
	if err != nil || token != "" {
		t.Errorf("ResolveToken with nothing = (%q, %v), want empty", token, err)
	}
}
