package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"

	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/logging"
)

// ConfigureHTTPClient builds the HTTP client used to talk to the merge service,
// honouring the proxy settings and the optional per-request timeout.
// A nil logger disables proxy diagnostics.
func ConfigureHTTPClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := newTransport()
	timeout := cfg.Client.RequestTimeout
	proxy := cfg.Proxy

	switch strings.ToLower(proxy.Mode) {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment
		disableHTTP2(transport)

	case "ntlm":
		// Incomplete saved config falls back to a direct connection so the user can fix it
		if proxy.Host == "" {
			logger.Warn().Msg("Proxy mode is NTLM but host is missing - falling back to no-proxy mode")
			return &nethttp.Client{Transport: transport, Timeout: timeout}, nil
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(proxy), proxy.NoProxy, logger)
		disableHTTP2(transport)

		client := &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: timeout,
		}

		if proxy.Warmup && proxy.User != "" && proxy.Password != "" {
			if err := warmupProxy(client, cfg.Server.BaseURL); err != nil {
				return nil, fmt.Errorf("proxy warmup failed: %w", err)
			}
		}
		return client, nil

	case "basic":
		if proxy.Host == "" {
			logger.Warn().Msg("Proxy mode is basic but host is missing - falling back to no-proxy mode")
			return &nethttp.Client{Transport: transport, Timeout: timeout}, nil
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(proxy), proxy.NoProxy, logger)
		disableHTTP2(transport)

		if proxy.User != "" && proxy.Password == "" {
			logger.Warn().Msg("Proxy user configured but password missing - proxy auth disabled until password is set")
		}

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", proxy.Mode)
	}

	client := &nethttp.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	if proxy.Warmup && proxy.Mode != "no-proxy" && proxy.Mode != "" {
		if err := warmupProxy(client, cfg.Server.BaseURL); err != nil {
			return nil, fmt.Errorf("proxy warmup failed: %w", err)
		}
	}

	return client, nil
}

// newTransport returns a transport tuned for a handful of sequential
// requests against a single host, with HTTP/2 negotiated over TLS.
func newTransport() *nethttp.Transport {
	tr := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          constants.HTTPMaxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost:   constants.HTTPMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
		DisableCompression:    true, // PDFs are already compressed
		ForceAttemptHTTP2:     true,
	}
	_ = http2.ConfigureTransport(tr)
	return tr
}

// disableHTTP2 forces HTTP/1.1. Proxies often mishandle HTTP/2 multiplexing
// and fail mid-upload.
func disableHTTP2(tr *nethttp.Transport) {
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
}

// buildProxyURL constructs a proxy URL from config
func buildProxyURL(proxy config.ProxyConfig) *url.URL {
	port := proxy.Port
	if port == 0 {
		port = 8080
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", proxy.Host, port),
	}

	// Empty password in URL can cause auth failures with some proxies
	if proxy.User != "" && proxy.Password != "" {
		proxyURL.User = url.UserPassword(proxy.User, proxy.Password)
	}

	return proxyURL
}

// warmupProxy performs a warmup request to establish the proxy connection.
func warmupProxy(client *nethttp.Client, baseURL string) error {
	if baseURL == "" {
		baseURL = constants.DefaultURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodHead, strings.TrimSuffix(baseURL, "/")+constants.PathSession, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("warmup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("warmup request returned server error: %d", resp.StatusCode)
	}

	return nil
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy bypass list.
// If noProxy is empty, behaves identically to nethttp.ProxyURL.
// When noProxy is set, uses golang.org/x/net/http/httpproxy to match hosts/CIDRs.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string, logger *logging.Logger) func(*nethttp.Request) (*url.URL, error) {
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
		result, err := proxyFunc(req.URL)
		if result == nil {
			logger.Debug().Str("host", req.URL.Host).Msg("[proxy] bypass (direct connection)")
		} else {
			logger.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("[proxy] proxied")
		}
		return result, err
	}
}
