package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skydrive/skydrive-cli/internal/constants"
)

// ErrTokenExpired is returned when a stored token is past its expiry.
// The web client stores the token in a 7-day cookie; the file mirrors
// that lifetime so both clients log the user out at the same point.
var ErrTokenExpired = errors.New("stored token has expired (run 'skydrive auth login')")

// storedToken is the on-disk token format.
type storedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DefaultTokenPath returns the default path of the token file.
func DefaultTokenPath() (string, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(configPath), "token"), nil
}

// SaveToken persists a token to path with owner-only permissions and a
// fresh expiry.
func SaveToken(token, path string) error {
	if path == "" {
		var err error
		path, err = DefaultTokenPath()
		if err != nil {
			return fmt.Errorf("failed to determine token path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(storedToken{
		Token:     token,
		ExpiresAt: time.Now().Add(constants.TokenTTL),
	})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save token file: %w", err)
	}

	return nil
}

// ReadToken loads a token from path. Returns ErrTokenExpired when the
// token is past its expiry; the caller should delete it and re-login.
func ReadToken(path string) (string, error) {
	if path == "" {
		var err error
		path, err = DefaultTokenPath()
		if err != nil {
			return "", fmt.Errorf("failed to determine token path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		// Pre-expiry format was the bare token string
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("token file %s is empty", path)
		}
		return token, nil
	}

	if stored.Token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	if !stored.ExpiresAt.IsZero() && time.Now().After(stored.ExpiresAt) {
		return "", ErrTokenExpired
	}

	return stored.Token, nil
}

// ClearToken removes the token file. Missing file is not an error: the
// 401 handler and logout both call this unconditionally.
func ClearToken(path string) error {
	if path == "" {
		var err error
		path, err = DefaultTokenPath()
		if err != nil {
			return fmt.Errorf("failed to determine token path: %w", err)
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// ResolveToken returns the first available token, in priority order:
//
//	1. The explicit token argument (from a command-line flag)
//	2. The SKYDRIVE_TOKEN environment variable
//	3. The token file
//
// Returns an empty string when no token is found anywhere; callers that
// require auth should check with ValidateAuthenticated.
func ResolveToken(flagToken, tokenPath string) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	if envToken := os.Getenv("SKYDRIVE_TOKEN"); envToken != "" {
		return envToken, nil
	}

	token, err := ReadToken(tokenPath)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			ClearToken(tokenPath)
			return "", err
		}
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}
