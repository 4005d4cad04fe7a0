package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Request is one outbound API call.
type Request struct {
	Method string
	Path   string
	Params Params
	Body   any
	Header http.Header

	// Retried marks the single resend after a credential renewal.
	Retried bool

	// Renewal marks the credential-renewal call itself. It bypasses credential
	// attachment and the 401 retry path.
	Renewal bool
}

// Clone returns a copy that can be modified without affecting r.
func (r *Request) Clone() *Request {
	cp := *r
	cp.Header = r.Header.Clone()
	return &cp
}

// URL joins base, the request path and the encoded params.
func (r *Request) URL(base string) string {
	u := r.Path
	if base != "" && !strings.Contains(r.Path, "://") {
		u = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(r.Path, "/")
	}
	if r.Params == nil {
		return u
	}
	q := r.Params.Encode()
	if q == "" {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + q
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// encodeBody renders the body and returns its content type. Byte slices and strings
// are sent as is, url.Values as a form, anything else as JSON.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	case url.Values:
		return []byte(b.Encode()), "application/x-www-form-urlencoded", nil
	case Values:
		return []byte(url.Values(b).Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}

// Response is the result of a completed exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Data is the decoded JSON body, or nil when the body is not JSON.
	Data any
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// decodeData parses JSON bodies into generic values. Numbers stay json.Number so
// identifiers survive unchanged.
func decodeData(contentType string, body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if !strings.Contains(contentType, "json") && trimmed[0] != '{' && trimmed[0] != '[' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// Doer executes requests.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc adapts a function to [Doer].
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Doer.
func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
