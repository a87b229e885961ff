package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/skydrive/skydrive-cli/internal/config"
	"github.com/skydrive/skydrive-cli/internal/constants"
)

// CreateTransferClient creates an HTTP client tuned for direct storage
// transfers (the presigned PUT and file downloads).
//
// Differences from the API client:
//   - No overall timeout; a large transfer can legitimately run for
//     hours and is bounded by the caller's context instead.
//   - Larger connection pool for concurrent transfers.
//   - Compression disabled; most payloads are already compressed.
//
// The cfg parameter provides proxy settings so storage transfers go
// through the same proxy as API calls. A nil cfg falls back to the
// environment proxy variables.
func CreateTransferClient(cfg *config.Config) (*nethttp.Client, error) {
	var baseClient *nethttp.Client
	var err error

	if cfg != nil {
		baseClient, err = ConfigureHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		baseClient = &nethttp.Client{
			Transport: &nethttp.Transport{
				Proxy: nethttp.ProxyFromEnvironment,
			},
		}
	}

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM mode wraps the transport in a negotiator; the tuning
		// below cannot be applied through the wrapper. Clear the
		// timeout and use the client as-is.
		baseClient.Timeout = 0
		return baseClient, nil
	}

	tr.MaxIdleConns = 512
	tr.MaxIdleConnsPerHost = 64
	tr.MaxConnsPerHost = 64
	tr.IdleConnTimeout = constants.HTTPIdleConnTimeout
	tr.TLSHandshakeTimeout = constants.HTTPTLSHandshakeTimeout
	tr.ExpectContinueTimeout = constants.HTTPExpectContinueTimeout
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true

	_ = http2.ConfigureTransport(tr)

	// Proxies often mishandle HTTP/2 multiplexing mid-transfer, so fall
	// back to HTTP/1.1 whenever a proxy is in play.
	if proxyActive(cfg) || os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	baseClient.Timeout = 0

	return baseClient, nil
}

func proxyActive(cfg *config.Config) bool {
	envProxySet := os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
		os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""

	if cfg == nil {
		return envProxySet
	}
	switch cfg.Proxy.Mode {
	case "no-proxy", "":
		return false
	case "system":
		return envProxySet
	default:
		return true
	}
}
