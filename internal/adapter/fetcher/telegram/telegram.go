// Package telegram reads the view counter of a public channel post from
// the t.me embed widget.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/extract"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/detect"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

const DefaultBaseURL = "https://t.me"

type Client struct {
	http    *httpclient.Client
	baseURL string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

func New(hc *httpclient.Client, opts ...Option) *Client {
	c := &Client{
		http:    hc,
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EmbedURL returns the widget URL of a post, or "" for non-post URLs.
func (c *Client) EmbedURL(rawURL string) string {
	channel, post, ok := detect.TelegramPost(rawURL)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s?embed=1&mode=tme", c.baseURL, channel, post)
}

func (c *Client) Fetch(ctx context.Context, rawURL string) (int64, error) {
	const op = "fetcher.telegram.Client.Fetch"

	embed := c.EmbedURL(rawURL)
	if embed == "" {
		return 0, fmt.Errorf("%s: not a post url: %w", op, entity.ErrNoViews)
	}

	html, err := c.http.Get(ctx, embed)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("%s: failed to parse widget: %w", op, err)
	}

	text := strings.TrimSpace(doc.Find(".tgme_widget_message_views").First().Text())
	if n, ok := extract.ParseCount(text); ok {
		return n, nil
	}

	return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
}
