// Package api implements the SkyDrive REST client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/skydrive/skydrive-cli/internal/config"
	"github.com/skydrive/skydrive-cli/internal/constants"
	"github.com/skydrive/skydrive-cli/internal/http"
	"github.com/skydrive/skydrive-cli/internal/logging"
	"github.com/skydrive/skydrive-cli/internal/models"
)

// retryLogger routes retryablehttp's internal logging through zerolog.
// Only errors and warnings are surfaced.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(fieldsFromPairs(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(fieldsFromPairs(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

func fieldsFromPairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

// Client is the SkyDrive API client.
//
// Metadata calls (listing, presign, share, auth) go through a
// retryablehttp wrapper. The direct storage PUT does not: it is issued
// by the uploader against the presigned URL with the bare transfer
// client, because replaying a body against object storage after a
// partial write risks duplicate delivery.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	token      string
	log        *logging.Logger

	// Transient-retry bounds for the retryablehttp transport. This is
	// the only retry layer for API calls; callers must not wrap client
	// methods in their own retry loops.
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	// onUnauthorized runs once per 401 before ErrUnauthorized is
	// returned; the CLI wires it to clear the token file.
	onUnauthorized func()
}

// Option customizes a Client.
type Option func(*Client)

// WithUnauthorizedHandler sets the callback invoked on a 401 response.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryOptions overrides the transient-retry bounds. retryMax 0
// disables retries entirely; tests use that to keep failures fast.
func WithRetryOptions(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// NewClient creates a new API client from the configuration.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	client := &Client{
		config:       cfg,
		baseURL:      strings.TrimSuffix(cfg.APIBaseURL, "/"),
		token:        cfg.Token,
		log:          logging.NewDefaultLogger(),
		retryMax:     constants.MaxRetries,
		retryWaitMin: constants.RetryInitialDelay,
		retryWaitMax: constants.RetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = client.retryMax
	retryClient.RetryWaitMin = client.retryWaitMin
	retryClient.RetryWaitMax = client.retryWaitMax
	retryClient.Logger = &retryLogger{log: client.log}
	client.httpClient = retryClient.StandardClient()

	return client, nil
}

// GetConfig returns the configuration used by this client. The uploader
// needs it to build its transfer client with the same proxy settings.
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// doRequest performs an authenticated JSON request.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Str("method", method).Str("path", path).Err(err).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == nethttp.StatusUnauthorized {
		resp.Body.Close()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, ErrUnauthorized
	}

	return resp, nil
}

// getJSON performs a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == nethttp.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode != nethttp.StatusOK {
		return decodeAPIError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// do performs a request expecting no response body of interest.
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == nethttp.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(op, resp)
	}
	return nil
}

// --- Uploads ---

// PresignUpload requests a presigned storage URL for a direct upload.
func (c *Client) PresignUpload(ctx context.Context, req *models.PresignRequest) (*models.PresignResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/uploads/presign", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusCreated {
		return nil, decodeAPIError("presign upload", resp)
	}

	var presign models.PresignResponse
	if err := json.NewDecoder(resp.Body).Decode(&presign); err != nil {
		return nil, fmt.Errorf("failed to decode presign response: %w", err)
	}
	if presign.PresignURL == "" || presign.UploadID == "" {
		return nil, fmt.Errorf("presign response missing presign_url or upload_id")
	}
	return &presign, nil
}

// CompleteUpload finalizes an upload after the storage PUT succeeded.
func (c *Client) CompleteUpload(ctx context.Context, req *models.CompleteRequest) error {
	return c.do(ctx, "complete upload", "POST", "/uploads/complete", req)
}

// --- Files ---

// ListFiles lists files, optionally scoped to a folder.
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]models.File, error) {
	path := "/files"
	if folderID != "" {
		path += "?folder_id=" + url.QueryEscape(folderID)
	}
	var files []models.File
	if err := c.getJSON(ctx, "list files", path, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListTrash lists files currently in the trash.
func (c *Client) ListTrash(ctx context.Context) ([]models.File, error) {
	var files []models.File
	if err := c.getJSON(ctx, "list trash", "/files/trash", &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListStarred lists starred files.
func (c *Client) ListStarred(ctx context.Context) ([]models.File, error) {
	var files []models.File
	if err := c.getJSON(ctx, "list starred", "/files/starred", &files); err != nil {
		return nil, err
	}
	return files, nil
}

// SearchFiles searches files by name.
func (c *Client) SearchFiles(ctx context.Context, query string) ([]models.File, error) {
	path := "/files/search?querystring=" + url.QueryEscape(query)
	var files []models.File
	if err := c.getJSON(ctx, "search files", path, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// GetFile fetches one file's metadata with a fresh download URL.
func (c *Client) GetFile(ctx context.Context, fileID string) (*models.FileWithURL, error) {
	var file models.FileWithURL
	if err := c.getJSON(ctx, "get file", "/files/"+url.PathEscape(fileID), &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// RenameFile renames a file. The backend takes the new name as a query
// parameter rather than a body.
func (c *Client) RenameFile(ctx context.Context, fileID, newName string) error {
	path := "/files/" + url.PathEscape(fileID) + "/rename?newname=" + url.QueryEscape(newName)
	return c.do(ctx, "rename file", "PATCH", path, nil)
}

// TrashFile moves a file to the trash.
func (c *Client) TrashFile(ctx context.Context, fileID string) error {
	return c.do(ctx, "trash file", "DELETE", "/files/"+url.PathEscape(fileID), nil)
}

// RestoreFile restores a file from the trash.
func (c *Client) RestoreFile(ctx context.Context, fileID string) error {
	return c.do(ctx, "restore file", "PATCH", "/files/"+url.PathEscape(fileID)+"/restore", nil)
}

// DeleteFilePermanently removes a trashed file for good.
func (c *Client) DeleteFilePermanently(ctx context.Context, fileID string) error {
	return c.do(ctx, "permanently delete file", "DELETE", "/files/"+url.PathEscape(fileID)+"/permanent", nil)
}

// SetStarred toggles a file's star flag.
func (c *Client) SetStarred(ctx context.Context, fileID string, starred bool) error {
	body := map[string]bool{"is_starred": starred}
	return c.do(ctx, "star file", "PATCH", "/files/"+url.PathEscape(fileID)+"/star", body)
}

// --- Sharing ---

// CreateShare creates a share link for a file and returns its token.
func (c *Client) CreateShare(ctx context.Context, fileID string) (*models.ShareResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/files/"+url.PathEscape(fileID)+"/share", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusCreated {
		return nil, decodeAPIError("create share", resp)
	}

	var share models.ShareResponse
	if err := json.NewDecoder(resp.Body).Decode(&share); err != nil {
		return nil, fmt.Errorf("failed to decode share response: %w", err)
	}
	return &share, nil
}

// GetShareStatus reports whether a file has an active share link.
func (c *Client) GetShareStatus(ctx context.Context, fileID string) (*models.ShareStatus, error) {
	var status models.ShareStatus
	if err := c.getJSON(ctx, "get share status", "/files/"+url.PathEscape(fileID)+"/share", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RevokeShare revokes a file's share link.
func (c *Client) RevokeShare(ctx context.Context, fileID string) error {
	return c.do(ctx, "revoke share", "DELETE", "/files/"+url.PathEscape(fileID)+"/share", nil)
}

// GetSharedFile fetches a shared file by its public token. No auth is
// required; the token is the capability.
func (c *Client) GetSharedFile(ctx context.Context, token string) (*models.FileWithURL, error) {
	var file models.FileWithURL
	if err := c.getJSON(ctx, "get shared file", "/files/shared/"+url.PathEscape(token), &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// --- Folders ---

// ListFolders lists folders, optionally scoped to a parent.
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	path := "/folders"
	if parentID != "" {
		path += "?parent_id=" + url.QueryEscape(parentID)
	}
	var folders []models.Folder
	if err := c.getJSON(ctx, "list folders", path, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// CreateFolder creates a folder, optionally nested under a parent.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error) {
	req := models.CreateFolderRequest{Name: name}
	if parentID != "" {
		req.ParentID = &parentID
	}

	resp, err := c.doRequest(ctx, "POST", "/folders", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusCreated {
		return nil, decodeAPIError("create folder", resp)
	}

	var folder models.Folder
	if err := json.NewDecoder(resp.Body).Decode(&folder); err != nil {
		return nil, fmt.Errorf("failed to decode folder response: %w", err)
	}
	return &folder, nil
}

// RenameFolder renames a folder.
func (c *Client) RenameFolder(ctx context.Context, folderID, newName string) error {
	body := models.RenameRequest{Name: newName}
	return c.do(ctx, "rename folder", "PATCH", "/folders/"+url.PathEscape(folderID), body)
}

// DeleteFolder deletes a folder.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	return c.do(ctx, "delete folder", "DELETE", "/folders/"+url.PathEscape(folderID), nil)
}

// --- Auth ---

// GetCurrentUser fetches the authenticated user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "get current user", "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", "POST", "/auth/logout", nil)
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health check", "GET", "/health", nil)
}
