// Package constants defines shared tuning values for the SkyDrive client.
package constants

import (
	"time"
)

// Upload concurrency limits for the --max-concurrent flag.
const (
	// DefaultMaxConcurrent - default number of simultaneous file uploads
	DefaultMaxConcurrent = 5

	// MinMaxConcurrent - lowest allowed value (sequential uploads)
	MinMaxConcurrent = 1

	// MaxMaxConcurrent - highest allowed value
	MaxMaxConcurrent = 32
)

// DefaultContentType is declared for files whose MIME type cannot be
// detected from the file extension.
const DefaultContentType = "application/octet-stream"

// Retry configuration. API calls (presign, complete, listing, share)
// retry inside the client's retryablehttp transport; storage GETs retry
// through ExecuteWithRetry. The direct storage PUT is never retried: a
// blind retry after a partial success risks double-delivery of the
// object.
const (
	// MaxRetries - retry budget for transient failures
	MaxRetries = 3

	// RetryInitialDelay - base delay for exponential backoff
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - cap on backoff between attempts
	RetryMaxDelay = 5 * time.Second
)

// HTTP transport tuning.
const (
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPExpectContinueTimeout = 5 * time.Second

	// APIRequestTimeout bounds metadata calls (listing, presign, share, auth).
	// The direct storage PUT is bounded by the caller's context instead: a
	// large upload can legitimately run for hours.
	APIRequestTimeout = 60 * time.Second
)

// Event system.
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios
	EventBusMaxBuffer = 5000
)

// Auth token storage.
const (
	// TokenTTL matches the 7-day cookie expiry the web client uses.
	TokenTTL = 7 * 24 * time.Hour
)

// Browser login flow.
const (
	// LoginCallbackPort is the localhost port the backend redirects to
	// after OAuth. 0 would pick a free port, but backends whitelist
	// redirect URIs, so a fixed port is the default.
	LoginCallbackPort = 8123

	// LoginTimeout bounds the wait for the browser callback.
	LoginTimeout = 3 * time.Minute
)
