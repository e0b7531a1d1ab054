// Package vk resolves view counts of VK videos, clips and wall posts
// through the official API (video.get, wall.getById). When no access token
// is configured the public page is scraped instead.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/extract"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/detect"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

const (
	DefaultAPIURL     = "https://api.vk.com/method"
	DefaultAPIVersion = "5.199"
)

// APIError is the error object VK returns with HTTP 200.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

type Client struct {
	http    *httpclient.Client
	apiURL  string
	token   string
	version string
	logger  *slog.Logger
}

type Option func(*Client)

func WithAccessToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.version = v
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
		http:    hc,
		apiURL:  DefaultAPIURL,
		version: DefaultAPIVersion,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Fetch(ctx context.Context, rawURL string) (int64, error) {
	const op = "fetcher.vk.Client.Fetch"

	kind, key, ok := detect.VKObject(rawURL)
	if ok && c.token != "" {
		n, err := c.fetchAPI(ctx, kind, key)
		if err == nil {
			return n, nil
		}
		c.logger.Warn("vk api request failed", slog.String("object", kind+key), slog.Any("err", err))
	}

	html, err := c.http.Get(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if n, ok := extract.JSONLD(html); ok {
		return n, nil
	}
	if n, ok := extract.Generic(html); ok {
		return n, nil
	}

	return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
}

type apiEnvelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

type apiItem struct {
	Views json.RawMessage `json:"views"`
}

func (c *Client) fetchAPI(ctx context.Context, kind, key string) (int64, error) {
	const op = "fetcher.vk.Client.fetchAPI"

	method, param := "video.get", "videos"
	if kind == detect.VKWall {
		method, param = "wall.getById", "posts"
	}

	query := url.Values{
		param:          {key},
		"access_token": {c.token},
		"v":            {c.version},
	}

	var env apiEnvelope
	if err := c.http.GetJSON(ctx, c.apiURL+"/"+method, query, &env); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if env.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, env.Error)
	}

	items, err := decodeItems(env.Response)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
	}

	n, ok := viewsOf(items[0])
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, entity.ErrNoViews)
	}

	return n, nil
}

// decodeItems accepts both the {"items": [...]} object of current API
// versions and the bare array wall.getById returned before 5.140.
func decodeItems(raw json.RawMessage) ([]apiItem, error) {
	var obj struct {
		Items []apiItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Items, nil
	}

	var list []apiItem
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}

	return list, nil
}

// viewsOf reads "views" as a plain number (video.get) or as {"count": N} (wall posts).
func viewsOf(item apiItem) (int64, bool) {
	if len(item.Views) == 0 {
		return 0, false
	}

	var n int64
	if err := json.Unmarshal(item.Views, &n); err == nil {
		return n, true
	}

	var counter struct {
		Count *int64 `json:"count"`
	}
	if err := json.Unmarshal(item.Views, &counter); err == nil && counter.Count != nil {
		return *counter.Count, true
	}

	return 0, false
}
