// Package uploader drives the three-phase upload flow: presign against
// the API, direct PUT to storage, then the completion call that makes
// the file visible. Session state lives in the session store; this
// package only moves bytes and reports transitions.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	nethttp "net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/constants"
	"github.com/skydrive/skydrive-cli/internal/http"
	"github.com/skydrive/skydrive-cli/internal/logging"
	"github.com/skydrive/skydrive-cli/internal/models"
	"github.com/skydrive/skydrive-cli/internal/session"
)

// Notifier receives terminal upload outcomes. The notify package
// implements it with desktop notifications; tests use a recorder.
type Notifier interface {
	UploadCompleted(name string)
	UploadFailed(name string, err error)
}

// Result is one file's outcome from an UploadAll run.
type Result struct {
	Path string
	Name string
	Err  error
}

// Uploader coordinates uploads against the API and the session store.
type Uploader struct {
	client   *api.Client
	store    *session.Store
	transfer *nethttp.Client
	log      *logging.Logger
	notifier Notifier
}

// Option customizes an Uploader.
type Option func(*Uploader)

// WithNotifier sets the notifier for terminal outcomes.
func WithNotifier(n Notifier) Option {
	return func(u *Uploader) { u.notifier = n }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *logging.Logger) Option {
	return func(u *Uploader) { u.log = log }
}

// New creates an Uploader. The transfer client shares the API client's
// proxy settings so the storage PUT goes through the same route.
func New(client *api.Client, store *session.Store, opts ...Option) (*Uploader, error) {
	transfer, err := http.CreateTransferClient(client.GetConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer client: %w", err)
	}

	u := &Uploader{
		client:   client,
		store:    store,
		transfer: transfer,
		log:      logging.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Upload runs the full flow for one file and blocks until it reaches a
// terminal state. The returned error mirrors what the session store
// records; callers that only watch the store may ignore it.
//
// Failure in any phase parks the record in error state (or cancelled,
// when the context was cancelled) and never panics the run: one bad
// file must not take down its batch.
func (u *Uploader) Upload(ctx context.Context, path, folderID string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	contentType := detectContentType(name)

	recordID := u.store.AddUpload(name, contentType)

	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	u.store.RegisterCancel(recordID, cancel)

	err = u.run(uploadCtx, recordID, path, name, contentType, info.Size(), folderID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			u.store.UpdateStatus(recordID, session.StatusCancelled, err)
			u.log.Info().Str("file", name).Msg("Upload cancelled")
			return err
		}
		u.store.UpdateStatus(recordID, session.StatusError, err)
		u.log.Error().Str("file", name).Err(err).Msg("Upload failed")
		if u.notifier != nil {
			u.notifier.UploadFailed(name, err)
		}
		return err
	}

	u.store.UpdateStatus(recordID, session.StatusCompleted, nil)
	u.log.Info().Str("file", name).Int64("size", info.Size()).Msg("Upload complete")
	if u.notifier != nil {
		u.notifier.UploadCompleted(name)
	}
	return nil
}

func (u *Uploader) run(ctx context.Context, recordID, path, name, contentType string, size int64, folderID string) error {
	// Phase 1: presign. The API client's transport owns transient
	// retries; wrapping another retry loop here would multiply attempts.
	presign, err := u.client.PresignUpload(ctx, &models.PresignRequest{
		FileName: name,
		FileType: contentType,
		FileSize: size,
	})
	if err != nil {
		return fmt.Errorf("presign: %w", err)
	}

	// Phase 2: the storage PUT. Single-shot: replaying a body against a
	// presigned URL after a partial write risks duplicate delivery.
	if err := u.put(ctx, recordID, path, contentType, size, presign.PresignURL); err != nil {
		return fmt.Errorf("storage put: %w", err)
	}

	// Phase 3: completion. The object is already in storage; only the
	// metadata registration is replayed on transient failures.
	var folderRef *string
	if folderID != "" {
		folderRef = &folderID
	}
	err = u.client.CompleteUpload(ctx, &models.CompleteRequest{
		UploadID: presign.UploadID,
		FileName: name,
		FileType: contentType,
		FolderID: folderRef,
	})
	if err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	return nil
}

func (u *Uploader) put(ctx context.Context, recordID, path, contentType string, size int64, presignURL string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer file.Close()

	reader := newProgressReader(file, size, func(percent int) {
		u.store.UpdateProgress(recordID, percent)
	})

	req, err := nethttp.NewRequestWithContext(ctx, "PUT", presignURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create PUT request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := u.transfer.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage returned status %d", resp.StatusCode)
	}
	return nil
}

// UploadAll uploads several files concurrently, at most maxConcurrent
// at a time (0 means unlimited). Each file fails or succeeds on its
// own; the results slice is in input order.
func (u *Uploader) UploadAll(ctx context.Context, paths []string, folderID string, maxConcurrent int) []Result {
	if maxConcurrent < 0 {
		maxConcurrent = constants.DefaultMaxConcurrent
	}

	var sem chan struct{}
	if maxConcurrent > 0 {
		sem = make(chan struct{}, maxConcurrent)
	}

	results := make([]Result, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results[i] = Result{Path: path, Name: filepath.Base(path), Err: ctx.Err()}
					return
				}
			}
			err := u.Upload(ctx, path, folderID)
			results[i] = Result{Path: path, Name: filepath.Base(path), Err: err}
		}(i, path)
	}
	wg.Wait()
	return results
}

// detectContentType maps a filename to a MIME type by extension.
func detectContentType(name string) string {
	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		return contentType
	}
	return constants.DefaultContentType
}
