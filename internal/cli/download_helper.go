package cli

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"path/filepath"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/http"
	"github.com/skydrive/skydrive-cli/internal/logging"
	"github.com/skydrive/skydrive-cli/internal/models"
	"github.com/skydrive/skydrive-cli/internal/progress"
)

// executeFileDownload fetches a file's metadata by ID, then streams the
// blob into outputDir with a progress bar.
func executeFileDownload(ctx context.Context, fileID, outputDir string, client *api.Client, log *logging.Logger) error {
	file, err := client.GetFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return downloadToDir(ctx, file, outputDir, client, log)
}

// downloadToDir streams a file's blob from its presigned download URL.
// Callers that already hold the metadata (shared files fetched by token)
// use it directly. The GET is idempotent, so transient storage failures
// restart the download from scratch.
func downloadToDir(ctx context.Context, file *models.FileWithURL, outputDir string, client *api.Client, log *logging.Logger) error {
	if file.DownloadURL == "" {
		return fmt.Errorf("no download URL for file %s", file.Name)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	transfer, err := http.CreateTransferClient(client.GetConfig())
	if err != nil {
		return fmt.Errorf("failed to create transfer client: %w", err)
	}

	destPath := filepath.Join(outputDir, filepath.Base(file.Name))

	var written int64
	err = http.ExecuteWithRetry(ctx, http.DefaultRetryConfig(), func() error {
		var fetchErr error
		written, fetchErr = fetchBlob(ctx, transfer, file, destPath)
		return fetchErr
	})
	if err != nil {
		os.Remove(destPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("download failed: %w", err)
	}

	log.Info().
		Str("file", file.Name).
		Int64("bytes", written).
		Str("path", destPath).
		Msg("Download complete")

	return nil
}

// fetchBlob performs one download attempt, truncating any partial write
// from an earlier attempt.
func fetchBlob(ctx context.Context, transfer *nethttp.Client, file *models.FileWithURL, destPath string) (int64, error) {
	req, err := nethttp.NewRequestWithContext(ctx, "GET", file.DownloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := transfer.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("storage returned status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	size := resp.ContentLength
	if size <= 0 {
		size = file.Size
	}
	bar := progress.NewDownloadBar(size, file.Name)

	written, err := progress.CopyWithBar(out, resp.Body, bar)
	closeErr := out.Close()
	if err != nil {
		if ctx.Err() != nil {
			return written, ctx.Err()
		}
		return written, fmt.Errorf("download interrupted: %w", err)
	}
	if closeErr != nil {
		return written, fmt.Errorf("failed to finalize %s: %w", destPath, closeErr)
	}
	return written, nil
}
