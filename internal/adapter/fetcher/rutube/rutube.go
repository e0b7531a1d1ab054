// Package rutube reads RuTube view counts from the video page and, when
// the page carries none, from the public video API ("hits").
package rutube

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/extract"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

const DefaultAPIURL = "https://rutube.ru/api/video/"

var videoID = regexp.MustCompile(`(?i)/(?:video|shorts|play/embed)/(?:private/)?([0-9a-f]{32})`)

// VideoID returns the 32 hex digit RuTube video ID found in rawURL.
func VideoID(rawURL string) string {
	m := videoID.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

type Client struct {
	http   *httpclient.Client
	apiURL string
	logger *slog.Logger
}

type Option func(*Client)

func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
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
		apiURL: DefaultAPIURL,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Fetch(ctx context.Context, rawURL string) (int64, error) {
	const op = "fetcher.rutube.Client.Fetch"

	html, err := c.http.Get(ctx, rawURL)
	if err == nil {
		if n, ok := extract.JSONLD(html); ok {
			return n, nil
		}
		if n, ok := extract.Generic(html); ok {
			return n, nil
		}
	} else {
		c.logger.Debug("rutube page request failed", slog.String("url", rawURL), slog.Any("err", err))
	}

	id := VideoID(rawURL)
	if id == "" {
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
	}

	var video struct {
		Hits *int64 `json:"hits"`
	}
	if err := c.http.GetJSON(ctx, c.apiURL+id+"/", nil, &video); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if video.Hits == nil {
		return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
	}

	return *video.Hits, nil
}
