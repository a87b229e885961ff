package http

import (
	nethttp "net/http"
	"testing"

	"github.com/skydrive/skydrive-cli/internal/config"
)

func TestConfigureHTTPClientNoProxy(t *testing.T) {
	cfg := config.New()
	cfg.Proxy.Mode = "no-proxy"

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ConfigureHTTPClient returned error: %v", err)
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		t.Fatal("expected *http.Transport")
	}
	if tr.Proxy != nil {
		t.Error("expected nil proxy func in no-proxy mode")
	}
}

func TestConfigureHTTPClientManualMissingHost(t *testing.T) {
	cfg := config.New()
	cfg.Proxy.Mode = "manual"

	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Error("expected error for manual mode without host")
	}
}

func TestConfigureHTTPClientManual(t *testing.T) {
	cfg := config.New()
	cfg.Proxy.Mode = "manual"
	cfg.Proxy.Host = "proxy.corp"
	cfg.Proxy.Port = "3128"

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ConfigureHTTPClient returned error: %v", err)
	}

	tr := client.Transport.(*nethttp.Transport)
	req, _ := nethttp.NewRequest("GET", "https://drive.example.com/api/files", nil)
	proxyURL, err := tr.Proxy(req)
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if proxyURL == nil || proxyURL.Host != "proxy.corp:3128" {
		t.Errorf("proxy URL = %v, want proxy.corp:3128", proxyURL)
	}
}

func TestConfigureHTTPClientManualBypass(t *testing.T) {
	cfg := config.New()
	cfg.Proxy.Mode = "manual"
	cfg.Proxy.Host = "proxy.corp"
	cfg.Proxy.Port = "3128"
	cfg.Proxy.NoProxy = "internal.example.com"

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ConfigureHTTPClient returned error: %v", err)
	}

	tr := client.Transport.(*nethttp.Transport)

	bypassed, _ := nethttp.NewRequest("GET", "https://internal.example.com/files", nil)
	proxyURL, err := tr.Proxy(bypassed)
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if proxyURL != nil {
		t.Errorf("expected direct connection for bypassed host, got %v", proxyURL)
	}

	proxied, _ := nethttp.NewRequest("GET", "https://external.example.org/files", nil)
	proxyURL, err = tr.Proxy(proxied)
	if err != nil {
		t.Fatalf("proxy func returned error: %v", err)
	}
	if proxyURL == nil {
		t.Error("expected proxy for non-bypassed host")
	}
}

func TestConfigureHTTPClientNTLM(t *testing.T) {
	cfg := config.New()
	cfg.Proxy.Mode = "ntlm"
	cfg.Proxy.Host = "proxy.corp"
	cfg.Proxy.Username = "user"
	cfg.Proxy.Password = "pass"

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ConfigureHTTPClient returned error: %v", err)
	}

	// NTLM wraps the transport; it must not be a bare *http.Transport
	if _, ok := client.Transport.(*nethttp.Transport); ok {
		t.Error("expected wrapped transport in ntlm mode")
	}
}

func TestConfigureHTTPClientUnsupportedMode(t *testing.T) {
	cfg := config.New()
	cfg.Proxy.Mode = "socks5"

	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Error("expected error for unsupported proxy mode")
	}
}

func TestBuildProxyURLCredentials(t *testing.T) {
	p := &config.ProxyConfig{Host: "proxy.corp", Port: "8080", Username: "user", Password: "pass"}
	u := buildProxyURL(p)
	if u.User == nil {
		t.Fatal("expected credentials in proxy URL")
	}
	if u.User.Username() != "user" {
		t.Errorf("username = %q, want user", u.User.Username())
	}

	// Missing password means no credentials at all
	p.Password = ""
	u = buildProxyURL(p)
	if u.User != nil {
		t.Error("expected no credentials when password is empty")
	}

	// Default port
	p.Port = ""
	u = buildProxyURL(p)
	if u.Host != "proxy.corp:8080" {
		t.Errorf("host = %q, want proxy.corp:8080", u.Host)
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	cfg := config.New()

	cfg.Proxy.Mode = "system"
	cfg.Proxy.Username = "user"
	if NeedsProxyPassword(cfg) {
		t.Error("system mode never needs a password prompt")
	}

	cfg.Proxy.Mode = "ntlm"
	if !NeedsProxyPassword(cfg) {
		t.Error("ntlm with username and no password needs a prompt")
	}

	cfg.Proxy.Password = "pass"
	if NeedsProxyPassword(cfg) {
		t.Error("complete credentials need no prompt")
	}
}
