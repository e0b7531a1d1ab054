// Package headless renders pages in a headless Chrome through the DevTools
// protocol and returns the resulting DOM. It is used for sites that build
// their markup client side.
package headless

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultTimeout = 30 * time.Second

var ErrClosed = errors.New("renderer closed")

type Renderer struct {
	mu      sync.Mutex
	browser context.Context
	cancels []context.CancelFunc
	closed  bool

	execPath  string
	userAgent string
	timeout   time.Duration
}

type Option func(*Renderer)

func WithExecPath(path string) Option {
	return func(r *Renderer) { r.execPath = path }
}

func WithUserAgent(ua string) Option {
	return func(r *Renderer) { r.userAgent = ua }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New prepares a renderer. The browser process is started on first use.
func New(opts ...Option) *Renderer {
	r := &Renderer{timeout: defaultTimeout}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)

	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}

	return opts
}

// ensureBrowser starts the browser once. Every Render opens its own tab in it.
func (r *Renderer) ensureBrowser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	if r.browser == nil {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

		if err := chromedp.Run(browserCtx); err != nil {
			cancelBrowser()
			cancelAlloc()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}

		r.browser = browserCtx
		r.cancels = []context.CancelFunc{cancelBrowser, cancelAlloc}
	}

	return r.browser, nil
}

// Render navigates to rawURL, waits for the body and returns the outer HTML
// of the document.
func (r *Renderer) Render(ctx context.Context, rawURL string) (string, error) {
	const op = "headless.Renderer.Render"

	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("%s: empty url", op)
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	taskCtx, cancelTask := chromedp.NewContext(browser)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html string

	err = chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("%s: failed to render %s: %w", op, rawURL, err)
	}

	return html, nil
}

// Close stops the browser process if one was started.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = nil
	r.browser = nil
}
