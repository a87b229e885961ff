package cli

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/config"
	"github.com/skydrive/skydrive-cli/internal/logging"
	"github.com/skydrive/skydrive-cli/internal/models"
)

func newDownloadTestClient(t *testing.T) *api.Client {
	t.Helper()
	cfg := config.New()
	cfg.APIBaseURL = "http://localhost:1" // metadata API unused by these tests
	cfg.Proxy.Mode = "no-proxy"
	cfg.Token = "test-token"

	client, err := api.NewClient(cfg, api.WithRetryOptions(0, time.Millisecond, time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestDownloadRetriesTransientStorageFailure(t *testing.T) {
	var blobCalls atomic.Int32
	blob := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if blobCalls.Add(1) == 1 {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("blob contents"))
	}))
	defer blob.Close()

	outDir := t.TempDir()
	file := &models.FileWithURL{
		File:        models.File{ID: "f1", Name: "data.bin", Size: 13},
		DownloadURL: blob.URL + "/blob",
	}

	err := downloadToDir(context.Background(), file, outDir, newDownloadTestClient(t), logging.NewLogger(os.Stderr))
	if err != nil {
		t.Fatalf("downloadToDir returned error: %v", err)
	}
	if got := blobCalls.Load(); got != 2 {
		t.Errorf("blob fetched %d times, want 2 (one retry after 503)", got)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "data.bin"))
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(data) != "blob contents" {
		t.Errorf("downloaded content = %q, want %q", data, "blob contents")
	}
}

func TestDownloadDoesNotRetryMissingBlob(t *testing.T) {
	var blobCalls atomic.Int32
	blob := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		blobCalls.Add(1)
		w.WriteHeader(nethttp.StatusNotFound)
	}))
	defer blob.Close()

	outDir := t.TempDir()
	file := &models.FileWithURL{
		File:        models.File{ID: "f2", Name: "gone.bin", Size: 0},
		DownloadURL: blob.URL + "/blob",
	}

	err := downloadToDir(context.Background(), file, outDir, newDownloadTestClient(t), logging.NewLogger(os.Stderr))
	if err == nil {
		t.Fatal("expected error for missing blob")
	}
	if got := blobCalls.Load(); got != 1 {
		t.Errorf("blob fetched %d times, want 1 (404 is not retryable)", got)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "gone.bin")); !os.IsNotExist(statErr) {
		t.Errorf("partial file left behind: %v", statErr)
	}
}
