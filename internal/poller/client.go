package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; the tool talks to a single host, so keep
// the pool small
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// PayloadKind tags the shape of an HTTP response body.
//
// The remote report service returns JSON on most endpoints, but the
// trigger endpoint may reply with an empty body or a plain-text
// acknowledgement. The tag lets callers branch explicitly instead of
// shape-sniffing the bytes.
type PayloadKind int

const (
	// PayloadEmpty means the body was empty or whitespace only.
	PayloadEmpty PayloadKind = iota

	// PayloadJSON means the body parsed as JSON; see [Payload.JSON].
	PayloadJSON

	// PayloadRaw means the body was non-empty but not valid JSON;
	// see [Payload.Text].
	PayloadRaw
)

// Payload is the decoded body of an HTTP response.
type Payload struct {
	// Kind tags which of the remaining fields is meaningful.
	Kind PayloadKind

	// JSON holds the raw JSON bytes when Kind is [PayloadJSON].
	JSON json.RawMessage

	// Text holds the body as text when Kind is [PayloadRaw].
	Text string
}

// decodePayload classifies a response body into a tagged [Payload].
func decodePayload(body []byte) Payload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{Kind: PayloadEmpty}
	}
	if json.Valid(trimmed) {
		return Payload{Kind: PayloadJSON, JSON: json.RawMessage(trimmed)}
	}
	return Payload{Kind: PayloadRaw, Text: string(trimmed)}
}

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Payload is the decoded response body, limited to 1MB.
	Payload Payload

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// OK reports whether the request completed with a 2xx status.
func (r Response) OK() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is an HTTP client wrapper for the report service endpoints.
//
// Timeouts are applied per-request via context rather than a global
// client timeout. Response bodies are limited to 1MB.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new [Client] with conservative connection pooling.
func NewClient() *Client {
	return NewClientFrom(&http.Client{
		// no default timeout - per-request timeouts via context
		Transport: &http.Transport{
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			MaxConnsPerHost:     defaultMaxConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
		},
	})
}

// NewClientFrom wraps an existing [http.Client]. Useful for callers that
// need custom transports (proxies, test instrumentation).
func NewClientFrom(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// Fetch performs an HTTP request and returns a structured [Response].
//
// The query values are encoded onto the URL. If method is empty, GET is
// used. The timeout is applied via context cancellation.
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately. This simplifies handling in the poll loop.
func (c *Client) Fetch(ctx context.Context, method, rawURL string, query url.Values, timeout time.Duration) Response {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	if method == "" {
		method = http.MethodGet
	}

	if len(query) > 0 {
		sep := "?"
		if u, err := url.Parse(rawURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	limitedReader := io.LimitReader(resp.Body, maxResponseBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Payload:    decodePayload(body),
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
