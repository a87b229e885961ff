package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage skydrive configuration",
		Long: `Configuration management commands.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test backend connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup.

The configuration is saved to ~/.config/skydrive/config.

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", configPath)
					fmt.Println("Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Println("SkyDrive Configuration Setup")
			fmt.Println("============================")
			fmt.Println()

			reader := bufio.NewReader(os.Stdin)
			cfg := config.New()

			fmt.Printf("Backend URL [%s]: ", config.DefaultAPIBaseURL)
			urlInput, _ := reader.ReadString('\n')
			urlInput = strings.TrimSpace(urlInput)
			if urlInput != "" {
				cfg.APIBaseURL = urlInput
			}
			cfg.APIBaseURL = config.NormalizeBaseURL(cfg.APIBaseURL)

			fmt.Println()
			fmt.Println("Proxy Settings (press Enter for defaults)")
			fmt.Println("------------------------------------------")

			fmt.Print("Proxy mode (no-proxy/system/manual/ntlm) [system]: ")
			modeInput, _ := reader.ReadString('\n')
			modeInput = strings.TrimSpace(strings.ToLower(modeInput))
			if modeInput != "" {
				cfg.Proxy.Mode = modeInput
			}

			if cfg.Proxy.Mode == "manual" || cfg.Proxy.Mode == "ntlm" {
				fmt.Print("Proxy host: ")
				hostInput, _ := reader.ReadString('\n')
				cfg.Proxy.Host = strings.TrimSpace(hostInput)

				fmt.Print("Proxy port [8080]: ")
				portInput, _ := reader.ReadString('\n')
				cfg.Proxy.Port = strings.TrimSpace(portInput)

				fmt.Print("Proxy username (optional): ")
				userInput, _ := reader.ReadString('\n')
				cfg.Proxy.Username = strings.TrimSpace(userInput)
			}

			fmt.Println()
			fmt.Print("Desktop notifications (y/n) [y]: ")
			notifyInput, _ := reader.ReadString('\n')
			notifyInput = strings.TrimSpace(strings.ToLower(notifyInput))
			cfg.Notifications.Enabled = notifyInput != "n" && notifyInput != "no"

			if err := config.Save(cfg, configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Println()
			fmt.Printf("Configuration saved to: %s\n", configPath)
			fmt.Println("Next: run 'skydrive auth login' to sign in.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration from:
  1. Configuration file (~/.config/skydrive/config)
  2. Environment variables (SKYDRIVE_API_URL, SKYDRIVE_TOKEN)
  3. Command-line flags (--api-url, --token)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println("Current Configuration")
			fmt.Println("=====================")
			fmt.Println()

			fmt.Println("Backend:")
			fmt.Printf("  API URL: %s\n", cfg.APIBaseURL)
			if cfg.Token != "" {
				// Never print any portion of the token
				fmt.Printf("  Token:   <set (%d chars)>\n", len(cfg.Token))
			} else {
				fmt.Println("  Token:   <not set>")
			}
			fmt.Println()

			fmt.Println("Proxy:")
			fmt.Printf("  Mode: %s\n", cfg.Proxy.Mode)
			if cfg.Proxy.Host != "" {
				fmt.Printf("  Host: %s\n", cfg.Proxy.Host)
				fmt.Printf("  Port: %s\n", cfg.Proxy.Port)
			}
			if cfg.Proxy.NoProxy != "" {
				fmt.Printf("  Bypass: %s\n", cfg.Proxy.NoProxy)
			}
			fmt.Println()

			fmt.Println("Notifications:")
			fmt.Printf("  Enabled:         %t\n", cfg.Notifications.Enabled)
			fmt.Printf("  Upload complete: %t\n", cfg.Notifications.ShowUploadComplete)
			fmt.Printf("  Upload failed:   %t\n", cfg.Notifications.ShowUploadFailed)
			fmt.Println()

			configPath := cfgFile
			if configPath == "" {
				configPath, _ = config.DefaultConfigPath()
			}
			fmt.Printf("Configuration file: %s\n", configPath)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("  (file does not exist - using defaults)")
			}

			return nil
		},
	}

	return cmd
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test backend connection",
		Long: `Test the backend connection with the current configuration.

Checks the health endpoint first, then verifies the token if one is
configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			fmt.Println("Testing Backend Connection")
			fmt.Println("==========================")
			fmt.Println()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			fmt.Printf("API URL: %s\n", cfg.APIBaseURL)
			fmt.Println("Testing connection...")
			fmt.Println()

			apiClient, err := api.NewClient(cfg, api.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			if err := apiClient.Health(ctx); err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Println("✗ Connection FAILED")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}
			fmt.Println("✓ Backend reachable")

			if cfg.Token == "" {
				fmt.Println()
				fmt.Println("No token configured; run 'skydrive auth login' to sign in.")
				return nil
			}

			user, err := apiClient.GetCurrentUser(ctx)
			if err != nil {
				fmt.Println("✗ Token verification FAILED")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("token verification failed")
			}

			fmt.Println("✓ Token valid")
			fmt.Println()
			fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
				fmt.Println("Default configuration path:")
			} else {
				fmt.Println("Configuration path (from --config flag):")
			}

			fmt.Printf("  %s\n", configPath)

			if info, err := os.Stat(configPath); err == nil {
				fmt.Println("Status: file exists")
				fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Status: file does not exist")
				fmt.Println("Create one with: skydrive config init")
			}

			return nil
		},
	}

	return cmd
}
