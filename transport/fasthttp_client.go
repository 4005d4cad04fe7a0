package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// FastHTTPClient is a [Doer] backed by fasthttp. fasthttp has no cookie jar, so
// cookies from responses are remembered by name and replayed on every request.
type FastHTTPClient struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration

	mu      sync.RWMutex
	cookies map[string]string
}

// NewFastHTTPClient returns a client that resolves request paths against baseURL.
// A non-positive timeout uses [DefaultTimeout].
func NewFastHTTPClient(baseURL string, timeout time.Duration) *FastHTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FastHTTPClient{
		baseURL: baseURL,
		client: &fasthttp.Client{
			Name:                     "goSession",
			MaxIdleConnDuration:      30 * time.Second,
			NoDefaultUserAgentHeader: true,
		},
		timeout: timeout,
		cookies: make(map[string]string),
	}
}

// Do implements Doer. The context deadline, when earlier than the configured timeout,
// bounds the exchange.
func (f *FastHTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.SetRequestURI(req.URL(f.baseURL))
	freq.Header.SetMethod(req.method())
	for k, vs := range req.Header {
		for _, v := range vs {
			freq.Header.Add(k, v)
		}
	}
	if contentType != "" && len(freq.Header.ContentType()) == 0 {
		freq.Header.SetContentType(contentType)
	}
	if len(freq.Header.Peek("Accept")) == 0 {
		freq.Header.Set("Accept", "application/json")
	}
	if body != nil {
		freq.SetBodyRaw(body)
	}

	f.mu.RLock()
	for name, value := range f.cookies {
		freq.Header.SetCookie(name, value)
	}
	f.mu.RUnlock()

	deadline := time.Now().Add(f.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := f.client.DoDeadline(freq, fresp, deadline); err != nil {
		return nil, err
	}

	f.rememberCookies(fresp)

	header := make(http.Header)
	fresp.Header.VisitAll(func(k, v []byte) {
		header.Add(string(k), string(v))
	})
	raw := append([]byte(nil), fresp.Body()...)

	resp := &Response{
		StatusCode: fresp.StatusCode(),
		Header:     header,
		Body:       raw,
		Data:       decodeData(string(fresp.Header.ContentType()), raw),
	}
	return resp, checkStatus(req, resp)
}

func (f *FastHTTPClient) rememberCookies(resp *fasthttp.Response) {
	var cookies []*fasthttp.Cookie
	resp.Header.VisitAllCookie(func(_, value []byte) {
		c := fasthttp.AcquireCookie()
		if err := c.ParseBytes(value); err != nil {
			fasthttp.ReleaseCookie(c)
			return
		}
		cookies = append(cookies, c)
	})
	if len(cookies) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cookies {
		name := string(c.Key())
		expired := c.MaxAge() < 0 || (!c.Expire().Equal(fasthttp.CookieExpireUnlimited) && c.Expire().Before(time.Now()))
		if expired || len(c.Value()) == 0 {
			delete(f.cookies, name)
		} else {
			f.cookies[name] = string(c.Value())
		}
		fasthttp.ReleaseCookie(c)
	}
}

// CloseIdleConnections releases pooled connections.
func (f *FastHTTPClient) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}
