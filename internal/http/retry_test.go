package http

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestExecuteWithRetry_Success verifies basic success case returns nil on first attempt.
func TestExecuteWithRetry_Success(t *testing.T) {
	ctx := context.Background()
	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestExecuteWithRetry_FatalError verifies no retry on fatal errors.
func TestExecuteWithRetry_FatalError(t *testing.T) {
	ctx := context.Background()
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("file_name is required")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on fatal), got %d", calls)
	}
}

// TestExecuteWithRetry_AuthError verifies no retry on auth failures.
func TestExecuteWithRetry_AuthError(t *testing.T) {
	ctx := context.Background()
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	authErr := errors.New("server returned 401 unauthorized")
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return authErr
	})
	if !errors.Is(err, authErr) {
		t.Fatalf("expected the auth error back, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on auth), got %d", calls)
	}
}

// TestExecuteWithRetry_RetriesNetworkError verifies network errors retry up to MaxRetries.
func TestExecuteWithRetry_RetriesNetworkError(t *testing.T) {
	ctx := context.Background()
	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("connection reset by peer")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

// TestExecuteWithRetry_EventualSuccess verifies a transient failure recovers.
func TestExecuteWithRetry_EventualSuccess(t *testing.T) {
	ctx := context.Background()
	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	calls := 0
	retries := 0
	cfg.OnRetry = func(attempt int, err error, errorType ErrorType) {
		retries++
	}

	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("503 service unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if retries != 2 {
		t.Errorf("expected 2 OnRetry callbacks, got %d", retries)
	}
}

// TestExecuteWithRetry_ContextCancelledDuringSleep verifies retry returns quickly when context cancelled.
func TestExecuteWithRetry_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: 5 * time.Second, // Long backoff to ensure we'd be sleeping
		MaxDelay:     30 * time.Second,
	}

	calls := 0
	start := time.Now()

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("connection reset")
	})

	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if elapsed > 1*time.Second {
		t.Errorf("expected quick return after context cancel, but took %v", elapsed)
	}
	if calls < 1 {
		t.Errorf("expected at least 1 call, got %d", calls)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{"nil", nil, ErrorTypeSuccess},
		{"unauthorized", errors.New("server returned 401 Unauthorized"), ErrorTypeAuth},
		{"forbidden", errors.New("403 Forbidden"), ErrorTypeAuth},
		{"token expired", errors.New("token expired"), ErrorTypeAuth},
		{"reset", errors.New("read tcp: connection reset by peer"), ErrorTypeNetwork},
		{"refused", errors.New("dial tcp: connection refused"), ErrorTypeNetwork},
		{"dns", errors.New("lookup drive.example.com: no such host"), ErrorTypeNetwork},
		{"io timeout", errors.New("i/o timeout"), ErrorTypeNetwork},
		{"server error", errors.New("server returned 500"), ErrorTypeRetryable},
		{"bad gateway", errors.New("502 Bad Gateway"), ErrorTypeRetryable},
		{"throttled", errors.New("429 Too Many Requests"), ErrorTypeRetryable},
		{"bad request", errors.New("file_name is required"), ErrorTypeFatal},
		{"unknown", errors.New("something odd happened"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.expected {
				t.Errorf("ClassifyError(%v) = %s, want %s",
					tt.err, ErrorTypeName(got), ErrorTypeName(tt.expected))
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	initialDelay := 100 * time.Millisecond
	maxDelay := 1 * time.Second

	if d := CalculateBackoff(0, initialDelay, maxDelay); d != 0 {
		t.Errorf("attempt 0 backoff = %v, want 0", d)
	}

	// Full jitter: each sample must fall in [0, min(maxDelay, 2^n * initial))
	for attempt := 1; attempt <= 6; attempt++ {
		cap := time.Duration(1<<uint(attempt)) * initialDelay
		if cap > maxDelay {
			cap = maxDelay
		}
		for i := 0; i < 20; i++ {
			d := CalculateBackoff(attempt, initialDelay, maxDelay)
			if d < 0 || d >= cap {
				t.Fatalf("attempt %d backoff = %v, want in [0, %v)", attempt, d, cap)
			}
		}
	}
}
