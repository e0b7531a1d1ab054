// Package dzen scrapes Dzen (formerly Yandex Zen) articles and videos.
// Dzen renders most of its counters client side, so when the static page
// yields nothing the document can optionally be rendered by a headless
// browser and scanned again.
package dzen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/extract"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

type renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

type Client struct {
	http     *httpclient.Client
	renderer renderer
	logger   *slog.Logger
}

type Option func(*Client)

// WithRenderer enables the headless browser fallback.
func WithRenderer(r renderer) Option {
	return func(c *Client) { c.renderer = r }
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
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Fetch(ctx context.Context, rawURL string) (int64, error) {
	const op = "fetcher.dzen.Client.Fetch"

	html, err := c.http.Get(ctx, rawURL)
	if err == nil {
		if n, ok := scan(html); ok {
			return n, nil
		}
		err = entity.ErrNoViews
	}

	if c.renderer == nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Debug("dzen static page gave no count, rendering", slog.String("url", rawURL), slog.Any("err", err))

	rendered, err := c.renderer.Render(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to render page: %w", op, err)
	}

	if n, ok := scan(rendered); ok {
		return n, nil
	}

	return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
}

// scan runs JSON-LD, embedded script JSON and the text label in that order.
func scan(html string) (int64, bool) {
	if n, ok := extract.JSONLD(html); ok {
		return n, true
	}
	if n, ok := extract.ScriptJSON(html); ok {
		return n, true
	}
	return extract.RussianLabel(html)
}
