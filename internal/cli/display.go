package cli

import (
	"fmt"
	"strings"

	"github.com/skydrive/skydrive-cli/internal/models"
)

// printFileTable prints a file listing in a fixed-width table.
func printFileTable(files []models.File) {
	if len(files) == 0 {
		fmt.Println("No files found")
		return
	}

	fmt.Printf("Found %d file(s):\n\n", len(files))
	fmt.Printf("%-36s %-40s %12s  %-16s %s\n", "FILE ID", "NAME", "SIZE", "CREATED", "STARRED")
	fmt.Println(strings.Repeat("-", 112))

	for _, f := range files {
		star := ""
		if f.IsStarred {
			star = "*"
		}
		fmt.Printf("%-36s %-40s %12s  %-16s %s\n",
			f.ID, truncateName(f.Name, 40), formatSize(f.Size),
			f.CreatedAt.Format("2006-01-02 15:04"), star)
	}
}

// printFolderTable prints a folder listing.
func printFolderTable(folders []models.Folder) {
	if len(folders) == 0 {
		fmt.Println("No folders found")
		return
	}

	fmt.Printf("Found %d folder(s):\n\n", len(folders))
	fmt.Printf("%-36s %-40s %s\n", "FOLDER ID", "NAME", "CREATED")
	fmt.Println(strings.Repeat("-", 94))

	for _, f := range folders {
		fmt.Printf("%-36s %-40s %s\n",
			f.ID, truncateName(f.Name, 40), f.CreatedAt.Format("2006-01-02 15:04"))
	}
}

// formatSize renders a byte count in human units.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return name[:max-3] + "..."
}
