// Package request performs the JSON requests behind data-loading magic
// classes and classifies their outcome into the status strings those classes
// map to user-facing messages.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Statuses reported for failures without a usable response.
const (
	// StatusUnavailable is reported when no response arrived.
	StatusUnavailable = "503"
	// StatusBadResponse is reported when a successful response could not be
	// decoded.
	StatusBadResponse = "502"
)

// Options configures one request.
type Options struct {
	// Method defaults to GET.
	Method string
	// Body is encoded as JSON when non-nil.
	Body   any
	Query  url.Values
	Header http.Header
}

// Outcome is the result of a request.
type Outcome struct {
	// Status is empty on success, otherwise the HTTP status code as a
	// string. Message tables key on it, either whole ("404") or by its first
	// digit ("5").
	Status string
	Code   int
	Body   []byte
	// Err is set when the request could not be made or the response could
	// not be read.
	Err error
}

// OK reports whether the request succeeded.
func (o Outcome) OK() bool {
	return o.Status == ""
}

// Decode unmarshals the response body into v.
func (o Outcome) Decode(v any) error {
	if len(o.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(o.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Fetcher performs requests against an API.
type Fetcher interface {
	Fetch(ctx context.Context, path string, opts Options) Outcome
}

// Client is a Fetcher over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for baseURL with the specified timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Fetch sends the request and classifies the response. 200, 201 and 202 are
// successes; every other status code is reported in Outcome.Status.
func (c *Client) Fetch(ctx context.Context, path string, opts Options) Outcome {
	req, err := newRequest(ctx, c.BaseURL+path, opts)
	if err != nil {
		return Outcome{Status: StatusUnavailable, Err: err}
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{Status: StatusUnavailable, Err: fmt.Errorf("failed to fetch %s: %w", req.URL, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Status: StatusUnavailable, Code: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return Classify(resp.StatusCode, body)
}

// Handler is a Fetcher that serves requests in process with an
// http.Handler, without a network round trip.
type Handler struct {
	http.Handler
}

// Fetch implements Fetcher.
func (h Handler) Fetch(ctx context.Context, path string, opts Options) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusUnavailable, Err: err}
	}
	req, err := newRequest(ctx, path, opts)
	if err != nil {
		return Outcome{Status: StatusUnavailable, Err: err}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return Classify(rec.Code, rec.Body.Bytes())
}

func newRequest(ctx context.Context, u string, opts Options) (*http.Request, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	if len(opts.Query) > 0 {
		u += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Classify builds the outcome for a response with the given code.
func Classify(code int, body []byte) Outcome {
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return Outcome{Code: code, Body: body}
	}
	return Outcome{Status: strconv.Itoa(code), Code: code, Body: body}
}

// Message looks up status in msgs, first whole and then by its leading
// digit. It returns "" for a successful status or when neither is present.
func Message(msgs map[string]string, status string) string {
	if status == "" {
		return ""
	}
	if m, ok := msgs[status]; ok {
		return m
	}
	return msgs[status[:1]]
}
