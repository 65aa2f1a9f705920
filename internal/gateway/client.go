// Package gateway issues HTTP requests to the social-network REST API.
//
// Every operation attaches the bearer token when one is set, treats any
// non-2xx response as *models.APIError and any transport failure as
// *models.NetworkError. There is no retry, backoff or built-in timeout:
// the caller's context is the only deadline.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"vibewall/internal/models"
	"vibewall/internal/observability"
)

const (
	maxErrorBody = 64 << 10
	maxJSONBody  = 8 << 20
)

// Client talks to one backend. A Client is safe for concurrent use; use
// WithToken to derive a per-session copy.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	logger  *slog.Logger
	metrics observability.GatewayMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for call logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  observability.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "gateway"))
	return c
}

// WithToken returns a copy of the client that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token attached to requests, if any.
func (c *Client) Token() string {
	return c.token
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   io.Reader
	ctype  string
}

func jsonRequest(op, method, path string, query url.Values, payload any) (request, error) {
	r := request{op: op, method: method, path: path, query: query}
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return r, fmt.Errorf("encoding %s request: %w", op, err)
		}
		r.body = bytes.NewReader(buf)
		r.ctype = "application/json"
	}
	return r, nil
}

// send performs the request and returns the open response for 2xx statuses.
// The caller must close the body.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	ctx, span := observability.StartGatewaySpan(ctx, r.op, req)
	done := c.metrics.TrackCall(r.op)

	resp, err := c.http.Do(req)
	if err != nil {
		netErr := &models.NetworkError{Method: r.method, Path: r.path, Err: err}
		done(0)
		observability.EndGatewaySpan(span, 0, netErr)
		c.logger.WarnContext(ctx, "backend call failed",
			slog.String("operation", r.op),
			slog.String("error", err.Error()),
		)
		return nil, netErr
	}
	done(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &models.APIError{Method: r.method, Path: r.path, Status: resp.StatusCode, Body: string(body)}
		observability.EndGatewaySpan(span, resp.StatusCode, apiErr)
		c.logger.WarnContext(ctx, "backend call rejected",
			slog.String("operation", r.op),
			slog.Int("status", resp.StatusCode),
		)
		return nil, apiErr
	}

	observability.EndGatewaySpan(span, resp.StatusCode, nil)
	c.logger.DebugContext(ctx, "backend call",
		slog.String("operation", r.op),
		slog.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// do sends a JSON request and decodes a JSON response into out if out is
// non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return &models.NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", r.op, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, payload, out any) error {
	r, err := jsonRequest(op, method, path, query, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, r, out)
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return q
}

func userQuery(userID uint) url.Values {
	q := url.Values{}
	q.Set("userId", fmt.Sprint(userID))
	return q
}
