package auth

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/skydrive/skydrive-cli/internal/logging"
)

func TestCallbackCapturesToken(t *testing.T) {
	cs, listener, err := NewCallbackServer(0, logging.NewDefaultLogger())
	if err != nil {
		t.Fatalf("NewCallbackServer returned error: %v", err)
	}

	done := make(chan struct{})
	var token string
	var waitErr error
	go func() {
		defer close(done)
		token, waitErr = cs.WaitForToken(context.Background(), listener, 5*time.Second)
	}()

	// Simulate the browser redirect
	time.Sleep(50 * time.Millisecond)
	resp, err := nethttp.Get(cs.RedirectURI() + "?token=abc123")
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != nethttp.StatusOK {
		t.Errorf("callback status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Signed in") {
		t.Error("callback response missing confirmation page")
	}

	<-done
	if waitErr != nil {
		t.Fatalf("WaitForToken returned error: %v", waitErr)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want abc123", token)
	}
}

func TestCallbackRejectsMissingToken(t *testing.T) {
	cs, listener, err := NewCallbackServer(0, logging.NewDefaultLogger())
	if err != nil {
		t.Fatalf("NewCallbackServer returned error: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		resp, err := nethttp.Get(cs.RedirectURI())
		if err == nil {
			if resp.StatusCode != nethttp.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			resp.Body.Close()
		}
	}()

	_, waitErr := cs.WaitForToken(context.Background(), listener, 300*time.Millisecond)
	if !errors.Is(waitErr, ErrLoginTimeout) {
		t.Errorf("expected timeout after bad callback, got %v", waitErr)
	}
}

func TestWaitForTokenContextCancel(t *testing.T) {
	cs, listener, err := NewCallbackServer(0, logging.NewDefaultLogger())
	if err != nil {
		t.Fatalf("NewCallbackServer returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, waitErr := cs.WaitForToken(ctx, listener, 5*time.Second)
	if !errors.Is(waitErr, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", waitErr)
	}
}

func TestLoginURL(t *testing.T) {
	got := LoginURL("https://drive.example.com/api", "http://127.0.0.1:8100/callback")
	want := "https://drive.example.com/api/auth/google?redirect_uri=http://127.0.0.1:8100/callback"
	if got != want {
		t.Errorf("LoginURL = %q, want %q", got, want)
	}
}
