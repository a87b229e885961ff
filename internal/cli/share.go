package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newShareCmd creates the 'share' command group.
func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Create and manage public share links",
	}

	cmd.AddCommand(newShareCreateCmd())
	cmd.AddCommand(newShareStatusCmd())
	cmd.AddCommand(newShareRevokeCmd())
	cmd.AddCommand(newShareGetCmd())

	return cmd
}

// newShareCreateCmd creates the 'share create' command.
func newShareCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <file-id>",
		Short: "Create a public share link for a file",
		Long: `Create a public share link. Creating a link for an already-shared
file returns the existing token rather than minting a new one.

Example:
  skydrive share create 3c1a...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			ctx := GetContext()
			share, err := apiClient.CreateShare(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create share: %w", err)
			}

			fmt.Printf("Share token: %s\n", share.Token)

			// The backend knows the public URL shape; echo it when offered
			status, err := apiClient.GetShareStatus(ctx, args[0])
			if err == nil && status.ShareURL != "" {
				fmt.Printf("Share URL:   %s\n", status.ShareURL)
			}
			return nil
		},
	}
	return cmd
}

// newShareStatusCmd creates the 'share status' command.
func newShareStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <file-id>",
		Short: "Show whether a file is shared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			status, err := apiClient.GetShareStatus(GetContext(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get share status: %w", err)
			}

			if !status.IsShared {
				fmt.Println("Not shared")
				return nil
			}
			fmt.Println("Shared")
			if status.ShareURL != "" {
				fmt.Printf("Share URL: %s\n", status.ShareURL)
			}
			return nil
		},
	}
	return cmd
}

// newShareRevokeCmd creates the 'share revoke' command.
func newShareRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <file-id>",
		Short: "Revoke a file's share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			if err := apiClient.RevokeShare(GetContext(), args[0]); err != nil {
				return fmt.Errorf("failed to revoke share: %w", err)
			}

			fmt.Println("Share revoked")
			return nil
		},
	}
	return cmd
}

// newShareGetCmd creates the 'share get' command.
func newShareGetCmd() *cobra.Command {
	var outputDir string
	var download bool

	cmd := &cobra.Command{
		Use:   "get <token>",
		Short: "Fetch a shared file by its token",
		Long: `Fetch a publicly shared file by token. Works without logging in.

Examples:
  # Show the shared file's details
  skydrive share get dGhl...

  # Download it
  skydrive share get dGhl... --download -o ~/Downloads`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Anonymous access: the token is the credential
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			file, err := apiClient.GetSharedFile(GetContext(), args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch shared file: %w", err)
			}

			fmt.Printf("Name: %s\n", file.Name)
			fmt.Printf("Type: %s\n", file.Type)
			fmt.Printf("Size: %s\n", formatSize(file.Size))

			if !download {
				fmt.Printf("URL:  %s\n", file.DownloadURL)
				return nil
			}

			return downloadToDir(GetContext(), file, outputDir, apiClient, GetLogger())
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "Download the file instead of printing details")
	cmd.Flags().StringVarP(&outputDir, "outdir", "o", ".", "Output directory for the download")

	return cmd
}
