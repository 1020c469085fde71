// Package gateway is the single entry point for requests against the
// upstream CMS API. It fixes the base URL, normalizes non-2xx responses
// into *APIError, and otherwise returns response bodies verbatim — shape
// expectations belong to callers. It never attaches credentials on its
// own; callers opt in with WithBearer.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pressdesk.org/internal/obs"
)

// FieldError is one field-level validation message from the upstream API.
type FieldError struct {
	Msg string `json:"msg"`
}

// APIError represents any non-2xx upstream response. Message is filled
// from a `{message}` body, the first `{errors:[{msg}]}` entry, or the
// HTTP status text, in that order.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %s: %s", e.Status, e.Message)
}

// Client issues requests against a fixed upstream origin.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for the given base URL. A nil httpClient falls
// back to http.DefaultClient; timeouts and cancellation come from the
// caller's context, not from the gateway.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type requestSpec struct {
	headers     http.Header
	jsonBody    any
	hasJSON     bool
	rawBody     io.Reader
	contentType string
}

// RequestOption customizes a single gateway request.
type RequestOption func(*requestSpec)

// WithHeader adds one header to the request.
func WithHeader(key, value string) RequestOption {
	return func(s *requestSpec) { s.headers.Set(key, value) }
}

// WithBearer attaches the Authorization header for protected endpoints.
// The gateway never adds it implicitly.
func WithBearer(token string) RequestOption {
	return func(s *requestSpec) {
		if token != "" {
			s.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithJSONBody serializes v as the request body with a JSON content type.
func WithJSONBody(v any) RequestOption {
	return func(s *requestSpec) {
		s.jsonBody = v
		s.hasJSON = true
	}
}

// WithRawBody sends a pre-built body, e.g. a multipart upload. The
// content type must carry the multipart boundary.
func WithRawBody(contentType string, body io.Reader) RequestOption {
	return func(s *requestSpec) {
		s.rawBody = body
		s.contentType = contentType
	}
}

// Do issues one request. On 2xx the JSON body is returned verbatim (nil
// for an empty body); on any other status the error is an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, opts ...RequestOption) (json.RawMessage, error) {
	spec := requestSpec{headers: make(http.Header)}
	for _, opt := range opts {
		opt(&spec)
	}

	var body io.Reader
	switch {
	case spec.hasJSON:
		data, err := json.Marshal(spec.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode body: %w", err)
		}
		body = bytes.NewReader(data)
		spec.headers.Set("Content-Type", "application/json")
	case spec.rawBody != nil:
		body = spec.rawBody
		if spec.contentType != "" {
			spec.headers.Set("Content-Type", spec.contentType)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	for key, values := range spec.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	obs.ObserveUpstream(method, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp, data)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("gateway: %s %s: response is not valid JSON", method, path)
	}
	return json.RawMessage(data), nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, opts...)
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	var payload struct {
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = strings.TrimSpace(payload.Message)
		apiErr.Fields = payload.Errors
	}
	if apiErr.Message == "" && len(apiErr.Fields) > 0 {
		apiErr.Message = apiErr.Fields[0].Msg
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
