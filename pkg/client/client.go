// Package client is a Go SDK for the staffdesk HTTP API.
//
// Calls return a Result instead of failing on non-2xx responses; the
// returned error is reserved for transport and decoding problems.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"staffdesk/internal/domain/search"
)

// Search request types, re-exported for callers outside the module.
type (
	Request          = search.Request
	ActiveFilter     = search.ActiveFilter
	CurrentSort      = search.CurrentSort
	TextValue        = search.TextValue
	MultiselectValue = search.MultiselectValue
	DateValue        = search.DateValue
	DateRangeValue   = search.DateRangeValue
	BooleanValue     = search.BooleanValue
)

// Build assembles a search request from the filter bar state.
func Build(filters []ActiveFilter, searchText string, searchableFields []string, sort *CurrentSort) Request {
	return search.Build(filters, searchText, searchableFields, sort)
}

// APIError is the error body rendered by the server.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Result is the outcome of one API call. Exactly one of Data and Error is
// meaningful: Error is set when Status is not 2xx.
type Result[T any] struct {
	Data   T
	Error  *APIError
	Status int
}

// OK reports whether the server answered with 2xx.
func (r Result[T]) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client talks to one staffdesk server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	retry   *RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every call.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry enables retries for search calls.
func WithRetry(p RetryPolicy) Option {
	return func(c *Client) { c.retry = &p }
}

// New creates a client for the server at baseURL, e.g. "https://hr.example.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response is a raw server answer.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		raw, ok := body.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(body); err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: res.StatusCode, header: res.Header, body: data}, nil
}

// decode turns a raw answer into a Result.
func decode[T any](res *response) (Result[T], error) {
	out := Result[T]{Status: res.status}
	if !out.OK() {
		out.Error = parseError(res)
		return out, nil
	}
	if len(res.body) == 0 || res.status == http.StatusNoContent {
		return out, nil
	}
	if err := json.Unmarshal(res.body, &out.Data); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func parseError(res *response) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(res.body, &apiErr); err != nil || apiErr.Code == "" {
		return &APIError{
			Code:    http.StatusText(res.status),
			Message: strings.TrimSpace(string(res.body)),
		}
	}
	return &apiErr
}

func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (Result[T], error) {
	res, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return Result[T]{}, err
	}
	return decode[T](res)
}
