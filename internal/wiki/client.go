// Package wiki talks to the MediaWiki Action API: bot login, page existence
// queries and create-only edits.
package wiki

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

const (
	// DefaultUserAgent identifies the bot to the wiki.
	DefaultUserAgent = "basketbot/1.0 (https://www.maccabipedia.co.il)"

	// titlesPerQuery is the API limit for non-bot accounts.
	titlesPerQuery = 50

	editSummary = "העלאת משחק כדורסל אוטומטית"
)

var (
	// ErrPageExists is returned when a create-only edit finds the page already there.
	ErrPageExists = errors.New("page already exists")
	// ErrLogin marks authentication failures.
	ErrLogin = errors.New("wiki login failed")

	errBadToken = errors.New("edit token rejected")
)

// Config holds the API location and bot credentials.
type Config struct {
	APIURL    string
	Username  string
	Password  string
	UserAgent string
	Timeout   time.Duration
}

// Client is a logged-in MediaWiki session. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logging.Logger

	mu        sync.Mutex
	loggedIn  bool
	csrfToken string
}

// NewClient creates a client; the login happens on first use.
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("wiki api url is required")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Jar: jar, Timeout: cfg.Timeout},
		logger:     logger.Component("wiki"),
	}, nil
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type tokensResponse struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
			CSRFToken  string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

type loginResponse struct {
	Login struct {
		Result string `json:"result"`
		Reason string `json:"reason"`
	} `json:"login"`
	Error *apiError `json:"error"`
}

type queryResponse struct {
	Query struct {
		Normalized []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"normalized"`
		Pages []struct {
			Title   string `json:"title"`
			Missing bool   `json:"missing"`
			Invalid bool   `json:"invalid"`
		} `json:"pages"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

type editResponse struct {
	Edit struct {
		Result string `json:"result"`
		Title  string `json:"title"`
		NewID  int64  `json:"newrevid"`
	} `json:"edit"`
	Error *apiError `json:"error"`
}

// Login authenticates with the bot password and caches a CSRF token.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	var tokens tokensResponse
	if err := c.call(ctx, http.MethodGet, url.Values{"action": {"query"}, "meta": {"tokens"}, "type": {"login"}}, &tokens); err != nil {
		return errors.Mark(errors.Wrap(err, "fetch login token"), ErrLogin)
	}

	var login loginResponse
	form := url.Values{
		"action":     {"login"},
		"lgname":     {c.cfg.Username},
		"lgpassword": {c.cfg.Password},
		"lgtoken":    {tokens.Query.Tokens.LoginToken},
	}
	if err := c.call(ctx, http.MethodPost, form, &login); err != nil {
		return errors.Mark(errors.Wrap(err, "login"), ErrLogin)
	}
	if login.Error != nil {
		return errors.Mark(errors.Newf("login: %s: %s", login.Error.Code, login.Error.Info), ErrLogin)
	}
	if login.Login.Result != "Success" {
		return errors.Mark(errors.Newf("login result %q: %s", login.Login.Result, login.Login.Reason), ErrLogin)
	}

	var csrf tokensResponse
	if err := c.call(ctx, http.MethodGet, url.Values{"action": {"query"}, "meta": {"tokens"}}, &csrf); err != nil {
		return errors.Wrap(err, "fetch csrf token")
	}
	if csrf.Query.Tokens.CSRFToken == "" || csrf.Query.Tokens.CSRFToken == "+\\" {
		return errors.Mark(errors.New("session has no edit token"), ErrLogin)
	}

	c.loggedIn = true
	c.csrfToken = csrf.Query.Tokens.CSRFToken
	c.logger.Info("logged in", "user", c.cfg.Username)
	return nil
}

func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loggedIn {
		if err := c.loginLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.csrfToken, nil
}

// CheckExistence asks the wiki which of titles already exist. The returned
// predicate answers for any title, including ones the wiki normalized.
// Without credentials the query runs anonymously.
func (c *Client) CheckExistence(ctx context.Context, titles []string) (game.ExistenceIndex, error) {
	if c.cfg.Username != "" {
		if _, err := c.session(ctx); err != nil {
			return nil, err
		}
	}

	exists := make(map[string]bool, len(titles))
	for start := 0; start < len(titles); start += titlesPerQuery {
		end := start + titlesPerQuery
		if end > len(titles) {
			end = len(titles)
		}
		batch := titles[start:end]

		var resp queryResponse
		params := url.Values{"action": {"query"}, "titles": {strings.Join(batch, "|")}}
		if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
			return nil, errors.Wrap(err, "query titles")
		}
		if resp.Error != nil {
			return nil, errors.Newf("query titles: %s: %s", resp.Error.Code, resp.Error.Info)
		}

		normalized := make(map[string]string, len(resp.Query.Normalized))
		for _, n := range resp.Query.Normalized {
			normalized[n.To] = n.From
		}
		for _, p := range resp.Query.Pages {
			if p.Missing || p.Invalid {
				continue
			}
			exists[p.Title] = true
			if from, ok := normalized[p.Title]; ok {
				exists[from] = true
			}
		}
	}

	return func(title string) bool { return exists[title] }, nil
}

// Publish creates title with body. It never overwrites an existing page.
func (c *Client) Publish(ctx context.Context, title, body string) error {
	err := c.create(ctx, title, body)
	if errors.Is(err, errBadToken) {
		c.mu.Lock()
		c.loggedIn = false
		c.mu.Unlock()
		err = c.create(ctx, title, body)
	}
	return err
}

func (c *Client) create(ctx context.Context, title, body string) error {
	token, err := c.session(ctx)
	if err != nil {
		return err
	}

	form := url.Values{
		"action":     {"edit"},
		"title":      {title},
		"text":       {body},
		"summary":    {editSummary},
		"createonly": {"1"},
		"bot":        {"1"},
		// token goes last so a truncated post is rejected
		"token": {token},
	}

	var resp editResponse
	if err := c.call(ctx, http.MethodPost, form, &resp); err != nil {
		return errors.Wrapf(err, "edit %s", title)
	}
	if resp.Error != nil {
		switch resp.Error.Code {
		case "articleexists":
			return errors.Wrapf(ErrPageExists, "edit %s", title)
		case "badtoken":
			return errors.Wrapf(errBadToken, "edit %s", title)
		}
		return errors.Newf("edit %s: %s: %s", title, resp.Error.Code, resp.Error.Info)
	}
	if resp.Edit.Result != "Success" {
		return errors.Newf("edit %s: result %q", title, resp.Edit.Result)
	}

	c.logger.Info("page created", "title", title, "revision", resp.Edit.NewID)
	return nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.APIURL, strings.NewReader(encodeTokenLast(params)))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.APIURL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("api status %d", resp.StatusCode)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// encodeTokenLast is url.Values.Encode with "token" moved to the end.
func encodeTokenLast(params url.Values) string {
	token, ok := params["token"]
	if !ok {
		return params.Encode()
	}
	rest := url.Values{}
	for k, v := range params {
		if k != "token" {
			rest[k] = v
		}
	}
	encoded := rest.Encode()
	for _, t := range token {
		encoded += "&token=" + url.QueryEscape(t)
	}
	return encoded
}
