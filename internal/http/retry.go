package http

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/skydrive/skydrive-cli/internal/constants"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates the operation succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeAuth indicates an authentication failure (401/403); the
	// token is gone and retrying without re-login cannot help
	ErrorTypeAuth
	// ErrorTypeNetwork indicates connection issues (timeouts, resets)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates server errors worth retrying (5xx, 429)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates client errors that should not be retried
	ErrorTypeFatal
)

// RetryConfig holds retry parameters for ExecuteWithRetry.
//
// This wraps operations on the bare transfer client, which has no retry
// transport of its own: the storage GET is idempotent and safe to
// restart. API calls already retry inside retryablehttp and must not be
// wrapped again, and the storage PUT is never retried at all: replaying
// a partially delivered body against a presigned URL risks duplicate
// objects.
type RetryConfig struct {
	// MaxRetries is the maximum number of attempts
	MaxRetries int
	// InitialDelay is the base delay for exponential backoff
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts
	MaxDelay time.Duration
	// OnRetry is an optional callback invoked before each retry attempt
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// DefaultRetryConfig returns the standard retry parameters.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   constants.MaxRetries,
		InitialDelay: constants.RetryInitialDelay,
		MaxDelay:     constants.RetryMaxDelay,
	}
}

// ClassifyError determines the error type for retry strategy.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "expired") {
		return ErrorTypeAuth
	}

	if strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "service unavailable") {
		return ErrorTypeRetryable
	}

	// Unknown errors are fatal to avoid pointless retries
	return ErrorTypeFatal
}

// CalculateBackoff returns exponential backoff duration with full jitter.
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay
	if base > maxDelay {
		base = maxDelay
	}

	// Full jitter spreads out synchronized retries
	return time.Duration(rand.Int63n(int64(base)))
}

// ExecuteWithRetry runs an operation with classification-driven retries.
//
//   - Auth and fatal errors return immediately.
//   - Network and server errors back off exponentially with jitter.
//   - Context cancellation returns immediately.
func ExecuteWithRetry(ctx context.Context, cfg RetryConfig, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err
		errType := ClassifyError(err)

		switch errType {
		case ErrorTypeAuth, ErrorTypeFatal:
			return err

		case ErrorTypeNetwork, ErrorTypeRetryable:
			if attempt < cfg.MaxRetries-1 {
				backoff := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
				if cfg.OnRetry != nil {
					cfg.OnRetry(attempt+1, err, errType)
				}
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}

// ErrorTypeName returns a human-readable name for an ErrorType.
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
