package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skydrive/skydrive-cli/internal/constants"
	"github.com/skydrive/skydrive-cli/internal/models"
)

// newFilesCmd creates the 'files' command group.
func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Upload, download and manage files",
	}

	cmd.AddCommand(newFilesUploadCmd())
	cmd.AddCommand(newFilesDownloadCmd())
	cmd.AddCommand(newFilesListCmd())
	cmd.AddCommand(newFilesSearchCmd())
	cmd.AddCommand(newFilesGetCmd())
	cmd.AddCommand(newFilesRenameCmd())
	cmd.AddCommand(newFilesStarCmd())
	cmd.AddCommand(newFilesUnstarCmd())

	return cmd
}

// newFilesUploadCmd creates the 'files upload' command.
func newFilesUploadCmd() *cobra.Command {
	var folderID string
	var maxConcurrent int

	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload files to your drive",
		Long: `Upload one or more files. Glob patterns are supported when quoted.

Each file runs through three phases: a presign call, a direct PUT to
object storage, and a completion call that makes the file visible.
Progress for every in-flight file renders in the upload panel.

Examples:
  # Upload a single file
  skydrive files upload report.pdf

  # Upload several files into a folder
  skydrive files upload a.jpg b.jpg --folder-id 2f6f...

  # Upload everything matching a pattern, 2 at a time
  skydrive files upload "*.csv" --max-concurrent 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxConcurrent < constants.MinMaxConcurrent || maxConcurrent > constants.MaxMaxConcurrent {
				return fmt.Errorf("--max-concurrent must be between %d and %d",
					constants.MinMaxConcurrent, constants.MaxMaxConcurrent)
			}

			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			return executeFileUpload(GetContext(), args, folderID, maxConcurrent, apiClient, GetLogger())
		},
	}

	cmd.Flags().StringVar(&folderID, "folder-id", "", "Destination folder ID (root when omitted)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", constants.DefaultMaxConcurrent,
		fmt.Sprintf("Maximum concurrent uploads (%d-%d)", constants.MinMaxConcurrent, constants.MaxMaxConcurrent))

	return cmd
}

// newFilesDownloadCmd creates the 'files download' command.
func newFilesDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <file-id> [file-id...]",
		Short: "Download files by ID",
		Long: `Download one or more files by their file ID.

Example:
  skydrive files download 3c1a... -o ~/Downloads`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			ctx := GetContext()
			for i, fileID := range args {
				if len(args) > 1 {
					fmt.Printf("[%d/%d] ", i+1, len(args))
				}
				if err := executeFileDownload(ctx, fileID, outputDir, apiClient, GetLogger()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "outdir", "o", ".", "Output directory for downloaded files")

	return cmd
}

// newFilesListCmd creates the 'files list' command.
func newFilesListCmd() *cobra.Command {
	var folderID string
	var starred bool
	var sortBy string
	var descending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files in your drive",
		Long: `List files, optionally scoped to a folder or to starred files.

Examples:
  # List files at the drive root
  skydrive files list

  # List a folder's contents, biggest first
  skydrive files list --folder-id 2f6f... --sort size --desc

  # List starred files
  skydrive files list --starred`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			ctx := GetContext()

			var files []models.File
			source := "drive"
			if starred {
				source = "starred"
				files, err = apiClient.ListStarred(ctx)
			} else {
				files, err = apiClient.ListFiles(ctx, folderID)
			}
			if err != nil {
				return fmt.Errorf("failed to list files: %w", err)
			}

			printFileTable(listItems(source, files, sortBy, !descending))
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "folder-id", "", "List this folder's contents (root when omitted)")
	cmd.Flags().BoolVar(&starred, "starred", false, "List starred files instead")
	cmd.Flags().StringVar(&sortBy, "sort", "name", "Sort order: name, size or date")
	cmd.Flags().BoolVar(&descending, "desc", false, "Sort in descending order")

	return cmd
}

// newFilesSearchCmd creates the 'files search' command.
func newFilesSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search files by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			files, err := apiClient.SearchFiles(GetContext(), args[0])
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			printFileTable(listItems("search", files, "name", true))
			return nil
		},
	}
	return cmd
}

// newFilesGetCmd creates the 'files get' command.
func newFilesGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <file-id>",
		Short: "Show a file's details and download URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAuthenticatedClient()
			if err != nil {
				return err
			}

			file, err := apiClient.GetFile(GetContext(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get file: %w", err)
			}

			fmt.Printf("ID:      %s\n", file.ID)
			fmt.Printf("Name:    %s\n", file.Name)
			fmt.Printf("Type:    %s\n", file.Type)
			fmt.Printf("Size:    %s\n", formatSize(file.Size))
			fmt.Printf("Starred: %v\n", file.IsStarred)
			fmt.Printf("Created: %s\n", file.CreatedAt.Format("2006-01-02 15:04"))
			if file.FolderID != nil {
				fmt.Printf("Folder:  %s\n", *file.FolderID)
			}
			if file.PreviewURL != "" {
				fmt.Printf("Preview: %s\n", file.PreviewURL)
			}
			fmt.Printf("URL:     %s\n", file.DownloadURL)
			return nil
		},
	}
	return cmd
}

// newFilesRenameCmd creates the 'files rename' command.
func newFilesRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <file-id> <new-name>",
		Short: "Rename a file",
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

			svc, done := newDriveService(apiClient)
			defer done()
			if err := svc.Rename(GetContext(), args[0], newName); err != nil {
				return fmt.Errorf("rename failed: %w", err)
			}

			fmt.Printf("Renamed to %s\n", newName)
			return nil
		},
	}
	return cmd
}

// newFilesStarCmd creates the 'files star' command.
func newFilesStarCmd() *cobra.Command {
	return newStarToggleCmd("star", "Star a file", true)
}

// newFilesUnstarCmd creates the 'files unstar' command.
func newFilesUnstarCmd() *cobra.Command {
	return newStarToggleCmd("unstar", "Remove a file's star", false)
}

func newStarToggleCmd(use, short string, starred bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file-id> [file-id...]",
		Short: short,
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
				if err := svc.SetStarred(ctx, fileID, starred); err != nil {
					return fmt.Errorf("failed to update %s: %w", fileID, err)
				}
			}
			fmt.Printf("Updated %d file(s)\n", len(args))
			return nil
		},
	}
}
