// Package auth implements the browser-based login flow. The backend's
// OAuth redirect normally lands on the web client with the token in a
// query parameter; the CLI stands up a short-lived localhost server to
// receive the same redirect.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/term"

	"github.com/skydrive/skydrive-cli/internal/logging"
)

// ErrLoginTimeout is returned when no callback arrives in time.
var ErrLoginTimeout = errors.New("login timed out waiting for browser callback")

const callbackPath = "/callback"

// CallbackServer listens on localhost for the post-login redirect and
// captures the token from the query string.
type CallbackServer struct {
	log     *logging.Logger
	srv     *nethttp.Server
	addr    string
	tokenCh chan string
}

// NewCallbackServer binds a listener on 127.0.0.1. Port 0 picks a free
// port; the backend must allow the redirect URI, so deployments usually
// pin one.
func NewCallbackServer(port int, log *logging.Logger) (*CallbackServer, net.Listener, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bind callback listener: %w", err)
	}

	cs := &CallbackServer{
		log:     log,
		addr:    listener.Addr().String(),
		tokenCh: make(chan string, 1),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(callbackPath, cs.handleCallback)

	cs.srv = &nethttp.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return cs, listener, nil
}

// RedirectURI returns the URI the backend should redirect to.
func (cs *CallbackServer) RedirectURI() string {
	return "http://" + cs.addr + callbackPath
}

func (cs *CallbackServer) handleCallback(w nethttp.ResponseWriter, r *nethttp.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		nethttp.Error(w, "missing token parameter", nethttp.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h2>Signed in</h2><p>You can close this tab and return to the terminal.</p></body></html>")

	select {
	case cs.tokenCh <- token:
	default:
		// A second callback races the first; keep the first token
	}
}

// WaitForToken serves the listener until a token arrives, the timeout
// elapses or ctx is cancelled.
func (cs *CallbackServer) WaitForToken(ctx context.Context, listener net.Listener, timeout time.Duration) (string, error) {
	serveErr := make(chan error, 1)
	go func() {
		if err := cs.srv.Serve(listener); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serveErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = cs.srv.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case token := <-cs.tokenCh:
		return token, nil
	case err := <-serveErr:
		return "", fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return "", ErrLoginTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// LoginURL builds the backend's login entry point with the CLI's
// redirect URI attached.
func LoginURL(apiBaseURL, redirectURI string) string {
	return strings.TrimSuffix(apiBaseURL, "/") + "/auth/google?redirect_uri=" + redirectURI
}

// PromptForToken reads a token interactively without echoing it. Used
// when the browser flow is unavailable (headless host, SSH session).
func PromptForToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; set SKYDRIVE_TOKEN instead")
	}

	fmt.Fprint(os.Stderr, "Paste token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}
