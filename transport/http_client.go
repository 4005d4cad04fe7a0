package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// DefaultTimeout bounds one exchange when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// HTTPClient is a [Doer] backed by net/http. Cookies set by the server are kept in a
// jar and sent on later calls.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures an [HTTPClient].
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying client. Its jar is kept as is.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout sets the per-exchange timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(h *HTTPClient) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// NewHTTPClient returns a client that resolves request paths against baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	h := &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Do implements Doer.
func (h *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), req.URL(h.baseURL), reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
		Data:       decodeData(httpResp.Header.Get("Content-Type"), raw),
	}
	return resp, checkStatus(req, resp)
}
