// Package httpclient provides the outbound HTTP client shared by all
// platform fetchers: a browser User-Agent, a fixed per-request timeout,
// optional SOCKS5 proxying and charset aware body decoding.
package httpclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultTimeout = 25 * time.Second

	maxBodySize = 16 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

type Client struct {
	http      *http.Client
	userAgent string
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSOCKS5 routes requests through a SOCKS5 proxy given as
// socks5://[user:pass@]host:port or a bare host:port. Loopback and private
// addresses are always dialed directly. Proxy environment variables are
// ignored once a SOCKS5 proxy is set.
func WithSOCKS5(proxyURL string) Option {
	return func(c *Client) {
		addr, auth, ok := parseSOCKS5(proxyURL)
		if !ok {
			return
		}

		tr, ok := c.http.Transport.(*http.Transport)
		if !ok {
			return
		}

		base := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
		tr.Proxy = nil
		tr.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
			host, _, _ := net.SplitHostPort(address)
			if isLocalHost(host) {
				return base.DialContext(ctx, network, address)
			}

			d, err := proxy.SOCKS5("tcp", addr, auth, base)
			if err != nil {
				return nil, err
			}
			if cd, ok := d.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, address)
			}
			return d.Dial(network, address)
		}
	}
}

func parseSOCKS5(proxyURL string) (string, *proxy.Auth, bool) {
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL == "" {
		return "", nil, false
	}
	if !strings.Contains(proxyURL, "://") {
		proxyURL = "socks5://" + proxyURL
	}

	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return "", nil, false
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return "", nil, false
	}

	var auth *proxy.Auth
	if u.User != nil {
		auth = &proxy.Auth{User: u.User.Username()}
		auth.Password, _ = u.User.Password()
	}

	return u.Host, auth, true
}

// WithHTTPClient replaces the underlying client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				ForceAttemptHTTP2: true,
				TLSClientConfig:   &tls.Config{MinVersion: tls.VersionTLS12},
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HTTPClient exposes the configured client for libraries that need one.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Get fetches rawURL and returns the body decoded to UTF-8.
func (c *Client) Get(ctx context.Context, rawURL string) (string, error) {
	const op = "fetcher.httpclient.Client.Get"

	resp, err := c.do(ctx, rawURL, nil, "text/html,application/xhtml+xml,*/*;q=0.8")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%s: failed to detect charset: %w", op, err)
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read body: %w", op, err)
	}

	return string(b), nil
}

// GetJSON fetches rawURL with the given query and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, v any) error {
	const op = "fetcher.httpclient.Client.GetJSON"

	resp, err := c.do(ctx, rawURL, query, "application/json")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v); err != nil {
		return fmt.Errorf("%s: failed to decode body: %w", op, err)
	}

	return nil
}

// do reports failures with the URL stripped of query so API credentials
// never reach the logs.
func (c *Client) do(ctx context.Context, rawURL string, query url.Values, accept string) (*http.Response, error) {
	reported := rawURL
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = reported
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: reported, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

func isLocalHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}
