package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds every backend call; an expired call is cancelled and
// treated as a plain network failure, never left pending.
const DefaultTimeout = 5 * time.Second

// CSRFCookieName is the cookie the server plants for double-submit logout.
const CSRFCookieName = "hexactf_csrf"

// Client is the bounded-time JSON transport shared by all stores. Session
// credentials live in the cookie jar; the bearer token, when a server hands
// one out, is held in memory only and never persisted.
type Client struct {
	base    *url.URL
	baseStr string
	http    *http.Client

	timeout time.Duration

	mu    sync.Mutex
	token string
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:    u,
		baseStr: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Jar: jar},
		timeout: timeout,
	}, nil
}

// SetToken stores a bearer token for subsequent calls. An empty string
// clears it.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// HasToken reports token presence without exposing the value.
func (c *Client) HasToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// CSRFToken returns the CSRF cookie value the server set for the base URL,
// or "" when none is present.
func (c *Client) CSRFToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == CSRFCookieName {
			return ck.Value
		}
	}
	return ""
}

// envelope is the common response wrapper: {"status": "ok", ...} on success,
// or an error body carrying "detail" or "error".
type envelope struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
	Err    string `json:"error"`
}

// GetRaw fetches an endpoint that answers a bare JSON document with no
// status envelope (the challenge snapshot, the scoreboard).
func (c *Client) GetRaw(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, nil, false)
}

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, nil, true)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, nil, true)
}

// PostJSONHeaders is PostJSON with extra request headers (CSRF token).
func (c *Client) PostJSONHeaders(ctx context.Context, path string, body, out any, hdr http.Header) error {
	return c.do(ctx, http.MethodPost, path, body, out, hdr, true)
}

func (c *Client) DeleteJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, hdr http.Header, enveloped bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseStr+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	c.mu.Lock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	res, err := c.http.Do(req)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded)
		detail := err.Error()
		if timedOut {
			detail = "timeout"
		}
		return &Error{Kind: KindTransport, Detail: detail, Timeout: timedOut, cause: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Detail: err.Error(), cause: err}
	}

	ok := res.StatusCode >= 200 && res.StatusCode < 300
	if enveloped {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return &Error{
				Kind:       KindMalformed,
				Detail:     "response is not JSON (server error or 404 likely)",
				StatusCode: res.StatusCode,
				Body:       snippet(raw),
				cause:      err,
			}
		}
		if !ok || env.Status != "ok" {
			detail := env.Detail
			if detail == "" {
				detail = env.Err
			}
			if detail == "" {
				detail = httpDetail(method, path, res.StatusCode)
			}
			return &Error{
				Kind:       KindRejected,
				Detail:     detail,
				StatusCode: res.StatusCode,
				Body:       snippet(raw),
			}
		}
	} else if !ok {
		return &Error{
			Kind:       KindHTTPStatus,
			Detail:     httpDetail(method, path, res.StatusCode),
			StatusCode: res.StatusCode,
			Body:       snippet(raw),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{
				Kind:       KindMalformed,
				Detail:     "response is not JSON (server error or 404 likely)",
				StatusCode: res.StatusCode,
				Body:       snippet(raw),
				cause:      err,
			}
		}
	}
	return nil
}
