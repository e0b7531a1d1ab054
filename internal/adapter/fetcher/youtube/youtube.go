// Package youtube resolves YouTube view counts through the Data API v3.
// Without an API key, or for videos the API did not return, it falls back
// to the innertube player response and finally to the watch page markup.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	yt "github.com/kkdai/youtube/v2"

	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/extract"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/detect"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

const (
	DefaultAPIURL   = "https://www.googleapis.com/youtube/v3/videos"
	DefaultWatchURL = "https://www.youtube.com/watch"

	// maxBatch is the Data API limit of IDs per videos.list call.
	maxBatch = 50
)

var watchViewCount = regexp.MustCompile(`"viewCount"\s*:\s*"(\d+)"`)

type playerClient interface {
	GetVideoContext(ctx context.Context, id string) (*yt.Video, error)
}

type Client struct {
	http     *httpclient.Client
	player   playerClient
	apiURL   string
	apiKey   string
	watchURL string
	logger   *slog.Logger
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

func WithWatchURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.watchURL = u
		}
	}
}

// WithPlayer replaces the innertube client. A nil player disables that fallback.
func WithPlayer(p playerClient) Option {
	return func(c *Client) { c.player = p }
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
		http:     hc,
		player:   &yt.Client{HTTPClient: hc.HTTPClient()},
		apiURL:   DefaultAPIURL,
		watchURL: DefaultWatchURL,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch resolves a single URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (int64, error) {
	views := c.FetchBatch(ctx, []string{rawURL})[rawURL]
	if views == nil {
		return 0, entity.ErrNoViews
	}
	return *views, nil
}

// FetchBatch resolves every URL in urls. The returned map has an entry for
// each input URL; the value is nil when no count could be found.
func (c *Client) FetchBatch(ctx context.Context, urls []string) map[string]*int64 {
	out := make(map[string]*int64, len(urls))
	idByURL := make(map[string]string, len(urls))

	var ids []string
	seen := make(map[string]bool)

	for _, u := range urls {
		out[u] = nil

		id := detect.YouTubeID(u)
		if id == "" {
			continue
		}

		idByURL[u] = id
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	counts := make(map[string]int64, len(ids))

	if c.apiKey != "" {
		for start := 0; start < len(ids); start += maxBatch {
			end := min(start+maxBatch, len(ids))

			batch, err := c.fetchAPI(ctx, ids[start:end])
			if err != nil {
				c.logger.Warn("youtube api request failed", slog.Any("err", err))
				continue
			}
			for id, n := range batch {
				counts[id] = n
			}
		}
	}

	for _, id := range ids {
		if _, ok := counts[id]; ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		n, err := c.fetchFallback(ctx, id)
		if err != nil {
			c.logger.Debug("youtube fallback failed", slog.String("id", id), slog.Any("err", err))
			continue
		}
		counts[id] = n
	}

	for u, id := range idByURL {
		if n, ok := counts[id]; ok {
			out[u] = &n
		}
	}

	return out
}

type videosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (c *Client) fetchAPI(ctx context.Context, ids []string) (map[string]int64, error) {
	const op = "fetcher.youtube.Client.fetchAPI"

	var resp videosResponse

	query := url.Values{
		"part": {"statistics"},
		"id":   {strings.Join(ids, ",")},
		"key":  {c.apiKey},
	}

	if err := c.http.GetJSON(ctx, c.apiURL, query, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[string]int64, len(resp.Items))
	for _, item := range resp.Items {
		if n, ok := extract.ParseCount(item.Statistics.ViewCount); ok {
			counts[item.ID] = n
		}
	}

	return counts, nil
}

func (c *Client) fetchFallback(ctx context.Context, id string) (int64, error) {
	const op = "fetcher.youtube.Client.fetchFallback"

	if c.player != nil {
		video, err := c.player.GetVideoContext(ctx, id)
		if err == nil && video != nil && video.Views > 0 {
			return int64(video.Views), nil
		}
	}

	html, err := c.http.Get(ctx, c.watchURL+"?v="+url.QueryEscape(id))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if n, ok := extract.FirstMatch(watchViewCount, html); ok {
		return n, nil
	}

	return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
}
