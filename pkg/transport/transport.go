// Package transport issues the HTTP requests behind api-request steps and
// normalizes their responses for assertion.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a request when neither the step nor the client
// configures one.
const DefaultTimeout = 30 * time.Second

// Client performs HTTP calls for api-request steps. Relative request URLs
// resolve against BaseURL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client with the default timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Request describes one HTTP call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	Timeout time.Duration
}

// Response is the normalized result of a request. Non-2xx statuses are not
// errors here; assertion steps decide what a status means.
type Response struct {
	Status     int               `json:"status"`
	StatusText string            `json:"status_text"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// JSON decodes the response body.
func (r *Response) JSON() (any, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("parse response body: %w", err)
	}
	return v, nil
}

// Header returns a header value, case-insensitively.
func (r *Response) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	canon := http.CanonicalHeaderKey(name)
	return r.Headers[canon]
}

// Do executes one request. A deadline hit surfaces as a "timed out" error so
// callers can tell timeouts from other network failures by message.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolve(req.URL), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request to %s timed out after %s", req.URL, timeout)
		}
		return nil, fmt.Errorf("request to %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request to %s timed out after %s", req.URL, timeout)
		}
		return nil, fmt.Errorf("read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    headers,
		Body:       raw,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// resolve joins a relative URL onto BaseURL. Absolute URLs pass through.
func (c *Client) resolve(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || c.BaseURL == "" {
		return u
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(u, "/")
}

// encodeBody renders a request body. Strings and raw bytes pass through;
// anything else is marshaled as JSON.
func encodeBody(v any) (io.Reader, string, error) {
	switch body := v.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(body), "", nil
	case []byte:
		return bytes.NewReader(body), "", nil
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}
