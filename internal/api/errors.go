package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"

	"github.com/skydrive/skydrive-cli/internal/models"
)

// ErrUnauthorized is returned on a 401 response. The client clears the
// stored token before returning it, so the next command forces a fresh
// login instead of failing the same way again.
var ErrUnauthorized = errors.New("session expired or invalid (run 'skydrive auth login')")

// ErrNotFound is returned on a 404 response.
var ErrNotFound = errors.New("not found")

// decodeAPIError turns a non-2xx response into an error, preferring the
// backend's {message} body when one is present.
func decodeAPIError(op string, resp *nethttp.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr models.APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%s failed: status %d: %s", op, resp.StatusCode, apiErr.Message)
	}
	if len(body) > 0 {
		return fmt.Errorf("%s failed: status %d: %s", op, resp.StatusCode, string(body))
	}
	return fmt.Errorf("%s failed: status %d", op, resp.StatusCode)
}
