// Package ok scrapes OK.ru (Odnoklassniki) video pages. The desktop page
// is tried first, then the lighter mobile mirror at m.ok.ru.
package ok

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/extract"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

var (
	mobileViewsCount = regexp.MustCompile(`"viewsCount"\s*:\s*([0-9]{1,12})`)
	mobileViewCount  = regexp.MustCompile(`"viewCount"\s*:\s*"([\d\s\x{00A0},\.]+)"`)
)

// MobileMirror rewrites a desktop OK.ru URL to its m.ok.ru counterpart.
func MobileMirror(rawURL string) string {
	if strings.Contains(rawURL, "://m.ok.ru/") {
		return rawURL
	}
	return strings.Replace(rawURL, "://ok.ru/", "://m.ok.ru/", 1)
}

type Client struct {
	http   *httpclient.Client
	mirror func(string) string
	logger *slog.Logger
}

type Option func(*Client)

// WithMirror replaces the desktop-to-mobile URL rewrite.
func WithMirror(f func(string) string) Option {
	return func(c *Client) {
		if f != nil {
			c.mirror = f
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(hc *httpclient.Client, opts ...Option) *Client {
	c := &Client{
		http:   hc,
		mirror: MobileMirror,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Fetch(ctx context.Context, rawURL string) (int64, error) {
	const op = "fetcher.ok.Client.Fetch"

	desk := c.fetchDesktop(ctx, rawURL)
	if desk.found {
		return desk.views, nil
	}
	c.logger.Debug("ok.ru desktop page gave no count", slog.String("url", rawURL), slog.Any("err", desk.err))

	n, err := c.fetchMobile(ctx, c.mirror(rawURL))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, errors.Join(desk.err, err))
	}

	return n, nil
}

type attempt struct {
	views int64
	found bool
	err   error
}

func (c *Client) fetchDesktop(ctx context.Context, rawURL string) attempt {
	html, err := c.http.Get(ctx, rawURL)
	if err != nil {
		return attempt{err: err}
	}

	if n, ok := extract.JSONLD(html); ok {
		return attempt{views: n, found: true}
	}
	if n, ok := extract.Generic(html); ok {
		return attempt{views: n, found: true}
	}

	return attempt{err: entity.ErrNoViews}
}

func (c *Client) fetchMobile(ctx context.Context, mobileURL string) (int64, error) {
	html, err := c.http.Get(ctx, mobileURL)
	if err != nil {
		return 0, err
	}

	if n, ok := extract.JSONLD(html); ok {
		return n, nil
	}
	if n, ok := extract.FirstMatch(mobileViewsCount, html); ok {
		return n, nil
	}
	if n, ok := extract.FirstMatch(mobileViewCount, html); ok {
		return n, nil
	}
	if n, ok := extract.RussianLabel(html); ok {
		return n, nil
	}

	return 0, entity.ErrNoViews
}
