package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/auth"
	"github.com/skydrive/skydrive-cli/internal/config"
	"github.com/skydrive/skydrive-cli/internal/constants"
)

// newAuthCmd creates the 'auth' command group.
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in and manage your session",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthMeCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

// newAuthLoginCmd creates the 'auth login' command.
func newAuthLoginCmd() *cobra.Command {
	var port int
	var paste bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in via the browser",
		Long: `Log in through the backend's Google sign-in flow.

A short-lived server on localhost receives the post-login redirect and
captures the session token. On a headless host use --paste to enter a
token obtained elsewhere, or set SKYDRIVE_TOKEN.

Examples:
  skydrive auth login
  skydrive auth login --paste`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var token string
			if paste {
				token, err = auth.PromptForToken()
				if err != nil {
					return err
				}
			} else {
				cs, listener, err := auth.NewCallbackServer(port, logger)
				if err != nil {
					return err
				}

				loginURL := auth.LoginURL(cfg.APIBaseURL, cs.RedirectURI())
				fmt.Println("Open this URL in your browser to sign in:")
				fmt.Println()
				fmt.Printf("  %s\n", loginURL)
				fmt.Println()
				fmt.Println("Waiting for the browser to complete sign-in...")

				token, err = cs.WaitForToken(GetContext(), listener, constants.LoginTimeout)
				if err != nil {
					return err
				}
			}

			// Verify the token before persisting it
			cfg.Token = token
			client, err := api.NewClient(cfg, api.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}
			user, err := client.GetCurrentUser(GetContext())
			if err != nil {
				return fmt.Errorf("token verification failed: %w", err)
			}

			if err := config.SaveToken(token, tokenFile); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", constants.LoginCallbackPort, "Localhost port for the login callback")
	cmd.Flags().BoolVar(&paste, "paste", false, "Paste a token instead of using the browser flow")

	return cmd
}

// newAuthMeCmd creates the 'auth me' command.
func newAuthMeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			user, err := apiClient.GetCurrentUser(GetContext())
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			fmt.Printf("Name:    %s\n", user.Name)
			fmt.Printf("Email:   %s\n", user.Email)
			fmt.Printf("Storage: %s of %s used\n", formatSize(user.UsedStorage), formatSize(user.Quota))
			return nil
		},
	}
	return cmd
}

// newAuthLogoutCmd creates the 'auth logout' command.
func newAuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			// Best effort: the server-side session may already be gone
			if apiClient, err := getAuthenticatedClient(); err == nil {
				if err := apiClient.Logout(GetContext()); err != nil {
					logger.Warn().Err(err).Msg("Server-side logout failed")
				}
			}

			if err := config.ClearToken(tokenFile); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			fmt.Println("Logged out")
			return nil
		},
	}
	return cmd
}
