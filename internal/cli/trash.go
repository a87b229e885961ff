package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newTrashCmd creates the 'trash' command group.
func newTrashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Manage trashed files",
	}

	cmd.AddCommand(newTrashListCmd())
	cmd.AddCommand(newTrashPutCmd())
	cmd.AddCommand(newTrashRestoreCmd())
	cmd.AddCommand(newTrashDeleteCmd())

	return cmd
}

// newTrashListCmd creates the 'trash list' command.
func newTrashListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trashed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			files, err := apiClient.ListTrash(GetContext())
			if err != nil {
				return fmt.Errorf("failed to list trash: %w", err)
			}

			printFileTable(listItems("trash", files, "name", true))
			return nil
		},
	}
	return cmd
}

// newTrashPutCmd creates the 'trash put' command.
func newTrashPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <file-id> [file-id...]",
		Short: "Move files to trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			svc, done := newDriveService(apiClient)
			defer done()

			ctx := GetContext()
			for _, fileID := range args {
				if err := svc.Trash(ctx, fileID); err != nil {
					return fmt.Errorf("failed to trash %s: %w", fileID, err)
				}
			}
			fmt.Printf("Moved %d file(s) to trash\n", len(args))
			return nil
		},
	}
	return cmd
}

// newTrashRestoreCmd creates the 'trash restore' command.
func newTrashRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file-id> [file-id...]",
		Short: "Restore files from trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			svc, done := newDriveService(apiClient)
			defer done()

			ctx := GetContext()
			for _, fileID := range args {
				if err := svc.Restore(ctx, fileID); err != nil {
					return fmt.Errorf("failed to restore %s: %w", fileID, err)
				}
			}
			fmt.Printf("Restored %d file(s)\n", len(args))
			return nil
		},
	}
	return cmd
}

// newTrashDeleteCmd creates the 'trash delete' command.
func newTrashDeleteCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete <file-id> [file-id...]",
		Short: "Permanently delete trashed files",
		Long: `Permanently delete files from trash.

WARNING: This operation cannot be undone!

Example:
  skydrive trash delete 3c1a... --confirm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Printf("You are about to permanently delete %d file(s). This cannot be undone.\n", len(args))
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

			svc, done := newDriveService(apiClient)
			defer done()

			ctx := GetContext()
			for i, fileID := range args {
				fmt.Printf("[%d/%d] Deleting %s...\n", i+1, len(args), fileID)
				if err := svc.DeleteForever(ctx, fileID); err != nil {
					return fmt.Errorf("failed to delete %s: %w", fileID, err)
				}
			}
			fmt.Printf("Deleted %d file(s)\n", len(args))
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Skip the confirmation prompt")

	return cmd
}
