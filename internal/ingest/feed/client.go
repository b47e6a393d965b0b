// Package feed fetches JSON listings over plain HTTP.
package feed

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

const maxBodyBytes = 16 << 20

var errTransient = errors.New("transient feed error")

// Client is a small retrying JSON GET client.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries sets the retry count and the first wait between attempts.
// Later waits grow exponentially.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = backoff
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient builds a client with a 30s timeout and two retries.
func NewClient(logger *logging.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 2,
		backoff:    time.Second,
		logger:     logger.Component("feed"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchJSON GETs url and decodes the body into v.
func (c *Client) FetchJSON(ctx context.Context, url string, v interface{}) error {
	raw, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "decode %s", url)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoff
	policy.MaxElapsedTime = 0

	var raw []byte
	attempt := 0
	op := func() error {
		attempt++
		var err error
		raw, err = c.do(ctx, url)
		if err != nil && !errors.Is(err, errTransient) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying feed request", "url", url, "attempt", attempt, "wait", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(c.maxRetries, 0))), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		c.logger.Warn("feed request failed", "url", url, "attempts", attempt, "error", err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Mark(errors.Wrap(err, "send request"), errTransient)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read body"), errTransient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := errors.Newf("status %d: %s", resp.StatusCode, abbreviate(raw))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, errors.Mark(err, errTransient)
		}
		return nil, err
	}
	return raw, nil
}

func abbreviate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
