package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Create and manage folders",
	}

	cmd.AddCommand(newFoldersListCmd())
	cmd.AddCommand(newFoldersCreateCmd())
	cmd.AddCommand(newFoldersRenameCmd())
	cmd.AddCommand(newFoldersDeleteCmd())

	return cmd
}

// newFoldersListCmd creates the 'folders list' command.
func newFoldersListCmd() *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			folders, err := apiClient.ListFolders(GetContext(), parentID)
			if err != nil {
				return fmt.Errorf("failed to list folders: %w", err)
			}

			printFolderTable(folders)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentID, "parent-id", "", "List this folder's subfolders (root when omitted)")

	return cmd
}

// newFoldersCreateCmd creates the 'folders create' command.
func newFoldersCreateCmd() *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Long: `Create a folder, optionally nested under a parent.

Example:
  skydrive folders create "Tax 2026" --parent-id 2f6f...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("folder name must not be empty")
			}

			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			folder, err := apiClient.CreateFolder(GetContext(), name, parentID)
			if err != nil {
				return fmt.Errorf("failed to create folder: %w", err)
			}

			fmt.Printf("Created folder %s (%s)\n", folder.Name, folder.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentID, "parent-id", "", "Parent folder ID (root when omitted)")

	return cmd
}

// newFoldersRenameCmd creates the 'folders rename' command.
func newFoldersRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <folder-id> <new-name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newName := strings.TrimSpace(args[1])
			if newName == "" {
				return fmt.Errorf("new name must not be empty")
			}

			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			if err := apiClient.RenameFolder(GetContext(), args[0], newName); err != nil {
				return fmt.Errorf("rename failed: %w", err)
			}

			fmt.Printf("Renamed to %s\n", newName)
			return nil
		},
	}
	return cmd
}

// newFoldersDeleteCmd creates the 'folders delete' command.
func newFoldersDeleteCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete <folder-id>",
		Short: "Delete a folder",
		Long: `Delete a folder. The folder's files move to trash.

Example:
  skydrive folders delete 2f6f... --confirm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Printf("You are about to delete folder %s.\n", args[0])
				fmt.Print("Are you sure? (yes/no): ")
				var response string
				fmt.Scanln(&response)
				if response != "yes" {
					fmt.Println("Deletion cancelled")
					return nil
				}
			}

			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			if err := apiClient.DeleteFolder(GetContext(), args[0]); err != nil {
				return fmt.Errorf("failed to delete folder: %w", err)
			}

			fmt.Println("Folder deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Skip the confirmation prompt")

	return cmd
}
