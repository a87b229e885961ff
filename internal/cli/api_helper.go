package cli

import (
	"errors"
	"fmt"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/config"
)

// loadConfig loads the configuration and resolves the token from the
// standard precedence: --token flag, SKYDRIVE_TOKEN, token file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if apiBaseURL != "" {
		cfg.APIBaseURL = config.NormalizeBaseURL(apiBaseURL)
	}

	token, err := config.ResolveToken(tokenFlag, tokenFile)
	if err != nil && !errors.Is(err, config.ErrTokenExpired) {
		return nil, err
	}
	if token != "" {
		cfg.Token = token
	}

	return cfg, nil
}

// getAPIClient loads configuration and creates an API client. A 401
// response clears the token file, forcing a fresh login next time.
func getAPIClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := api.NewClient(cfg,
		api.WithLogger(GetLogger()),
		api.WithUnauthorizedHandler(func() {
			if err := config.ClearToken(tokenFile); err != nil {
				GetLogger().Warn().Err(err).Msg("Failed to clear stored token")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// getAuthenticatedClient is getAPIClient plus a token presence check,
// for commands that cannot work anonymously.
func getAuthenticatedClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateAuthenticated(); err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg,
		api.WithLogger(GetLogger()),
		api.WithUnauthorizedHandler(func() {
			if err := config.ClearToken(tokenFile); err != nil {
				GetLogger().Warn().Err(err).Msg("Failed to clear stored token")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}
