// Package http builds the HTTP clients used for API calls and direct
// storage transfers, including proxy configuration and retry policy.
package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"github.com/skydrive/skydrive-cli/internal/config"
	"github.com/skydrive/skydrive-cli/internal/constants"
)

// ConfigureHTTPClient builds an HTTP client honoring the proxy settings.
//
// Proxy modes:
//
//	no-proxy  direct connections only
//	system    HTTP_PROXY/HTTPS_PROXY/NO_PROXY from the environment
//	manual    explicit host/port, optional basic credentials in the URL
//	ntlm      explicit host/port with NTLM negotiation
func ConfigureHTTPClient(cfg *config.Config) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	switch strings.ToLower(cfg.Proxy.Mode) {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment

	case "manual":
		if cfg.Proxy.Host == "" {
			return nil, fmt.Errorf("proxy mode is manual but no host is configured")
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(&cfg.Proxy), cfg.Proxy.NoProxy)

	case "ntlm":
		if cfg.Proxy.Host == "" {
			return nil, fmt.Errorf("proxy mode is ntlm but no host is configured")
		}
		// NTLM credentials travel via the Negotiator, not the URL
		proxyURL := buildProxyURL(&cfg.Proxy)
		proxyURL.User = nil
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.Proxy.NoProxy)

		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: constants.APIRequestTimeout,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.Proxy.Mode)
	}

	return &nethttp.Client{
		Transport: transport,
		Timeout:   constants.APIRequestTimeout,
	}, nil
}

// buildProxyURL constructs a proxy URL from the proxy settings.
func buildProxyURL(p *config.ProxyConfig) *url.URL {
	port := p.Port
	if port == "" {
		port = "8080"
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(p.Host, port),
	}

	// Embed credentials only when both halves are present; an empty
	// password in the URL trips some proxies into rejecting the auth.
	if p.Username != "" && p.Password != "" {
		proxyURL.User = url.UserPassword(p.Username, p.Password)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the bypass
// list. With an empty list it behaves identically to nethttp.ProxyURL.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}
}

// NeedsProxyPassword reports whether the proxy settings require an
// interactive password prompt before requests can be made.
func NeedsProxyPassword(cfg *config.Config) bool {
	mode := strings.ToLower(cfg.Proxy.Mode)
	if mode != "manual" && mode != "ntlm" {
		return false
	}
	return cfg.Proxy.Username != "" && cfg.Proxy.Password == ""
}
