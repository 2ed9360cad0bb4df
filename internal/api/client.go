// ABOUTME: HTTP client for the admin service with bearer auth and a uniform error notice policy
// ABOUTME: Every failed request produces one user-facing notice unless the call is marked quiet

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/workshop/kgconsole/internal/config"
	"github.com/workshop/kgconsole/internal/notify"
)

// Notice texts for the error policy
const (
	MsgUnauthorized  = "unauthorized, please log in again"
	MsgForbidden     = "permission denied"
	MsgNotFound      = "requested resource does not exist"
	MsgServerError   = "server error"
	MsgRequestFailed = "request failed"
	MsgNetworkError  = "network error"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// Client talks JSON over HTTP to the admin service.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	notifier       notify.Notifier
	logger         *slog.Logger
	timeout        time.Duration
	chatTimeout    time.Duration
	onUnauthorized func(context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithNotifier sets where error notices go. Defaults to notify.Nop.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// OnUnauthorized registers the hook run after a 401 response.
func OnUnauthorized(fn func(context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client for cfg.BaseURL. tokens may be nil for a client that never
// sends a session token of its own.
func New(cfg config.APIConfig, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		http:        &http.Client{},
		tokens:      tokens,
		notifier:    notify.Nop{},
		logger:      slog.Default(),
		timeout:     cfg.Timeout,
		chatTimeout: cfg.ChatTimeout,
	}
	if c.timeout == 0 {
		c.timeout = config.DefaultTimeout
	}
	if c.chatTimeout == 0 {
		c.chatTimeout = config.DefaultChatTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api")
	return c
}

// BaseURL returns the service root every path is joined to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// callOptions holds per-request settings.
type callOptions struct {
	quiet   bool
	timeout time.Duration
	token   string
	query   url.Values
}

// CallOption adjusts a single request.
type CallOption func(*callOptions)

// Quiet skips the notice policy and the unauthorized hook for this request.
func Quiet() CallOption {
	return func(o *callOptions) { o.quiet = true }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// WithToken sends token instead of the TokenSource's.
func WithToken(token string) CallOption {
	return func(o *callOptions) { o.token = token }
}

// WithQuery adds URL query parameters.
func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) { o.query = q }
}

// Do sends one request. in, when non-nil, is JSON encoded as the body; out, when
// non-nil, receives the decoded JSON response.
func (c *Client) Do(ctx context.Context, method, path string, in, out any, opts ...CallOption) error {
	o := callOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	err := c.do(ctx, method, path, in, out, o)
	if err != nil && !o.quiet {
		c.notify(ctx, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, o callOptions) error {
	u := c.baseURL + path
	if len(o.query) > 0 {
		u += "?" + o.query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, u, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token := o.token
	if token == "" && c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// The caller gave up; that is not a transport failure.
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctx.Err())
		}
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Detail: parseDetail(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// notify applies the error policy: one notice per failed request, plus the
// unauthorized hook on 401.
func (c *Client) notify(ctx context.Context, err error) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusUnauthorized:
			c.notifier.Error(MsgUnauthorized)
			if c.onUnauthorized != nil {
				c.onUnauthorized(ctx)
			}
		case http.StatusForbidden:
			c.notifier.Error(MsgForbidden)
		case http.StatusNotFound:
			c.notifier.Error(MsgNotFound)
		case http.StatusInternalServerError:
			c.notifier.Error(MsgServerError)
		default:
			msg := apiErr.Detail
			if msg == "" {
				msg = MsgRequestFailed
			}
			c.notifier.Error(msg)
		}
	case errors.Is(err, ErrNetwork):
		c.notifier.Error(MsgNetworkError)
	}
}

// get and post are shorthands used by the wrappers.
func (c *Client) get(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) post(ctx context.Context, path string, in, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPost, path, in, out, opts...)
}
