// Package browser loads JavaScript-rendered pages in headless Chrome and
// hands them back as goquery documents.
package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

const (
	// UserAgent presented to the source sites.
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single page load.
	DefaultTimeout = 45 * time.Second

	// MinRequestInterval spaces out page loads against the same browser.
	MinRequestInterval = 500 * time.Millisecond
)

// Options configures the browser.
type Options struct {
	// CIMode adds the no-sandbox flags needed inside CI containers.
	CIMode   bool
	Timeout  time.Duration
	Interval time.Duration
	// Settle is how long to let client-side rendering run after the wait
	// selector shows up.
	Settle time.Duration
}

// Client owns one Chrome allocator; every fetch runs in its own tab.
type Client struct {
	opts     Options
	allocCtx context.Context
	cancel   context.CancelFunc
	logger   *logging.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// AllocatorOptions returns the Chrome flags for opts.
func AllocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)
	if opts.CIMode {
		flags = append(flags,
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}
	return flags
}

// NewClient starts an allocator. Chrome itself is launched lazily on the
// first fetch.
func NewClient(opts Options, logger *logging.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Interval < 0 {
		opts.Interval = 0
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(opts)...)

	return &Client{
		opts:     opts,
		allocCtx: allocCtx,
		cancel:   cancel,
		logger:   logger.Component("browser"),
	}
}

// Close shuts Chrome down.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// FetchDocument navigates to url, waits for waitSelector (or body) and
// returns the rendered DOM.
func (c *Client) FetchDocument(ctx context.Context, url, waitSelector string) (*goquery.Document, error) {
	html, err := c.FetchHTML(ctx, url, waitSelector)
	if err != nil {
		return nil, err
	}
	return ParseHTML(html)
}

// FetchHTML is FetchDocument without parsing.
func (c *Client) FetchHTML(ctx context.Context, url, waitSelector string) (string, error) {
	if err := c.throttle(ctx); err != nil {
		return "", err
	}

	if waitSelector == "" {
		waitSelector = "body"
	}

	tabCtx, cancelTab := chromedp.NewContext(c.allocCtx)
	defer cancelTab()

	// chromedp contexts derive from the allocator, so the caller's deadline
	// and cancellation are bridged by hand.
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.opts.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
	}
	if c.opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(c.opts.Settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	start := time.Now()
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.Wrapf(ctxErr, "load %s", url)
		}
		return "", errors.Wrapf(err, "load %s", url)
	}
	if html == "" {
		return "", errors.Newf("empty document returned for %s", url)
	}

	c.logger.Debug("page loaded", "url", url, "duration", time.Since(start).String(), "bytes", len(html))
	return html, nil
}

func (c *Client) throttle(ctx context.Context) error {
	if c.opts.Interval == 0 {
		return nil
	}

	c.mu.Lock()
	wait := time.Until(c.lastRequest.Add(c.opts.Interval))
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseHTML converts raw HTML to a goquery Document.
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return doc, nil
}
