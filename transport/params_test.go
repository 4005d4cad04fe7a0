package transport

import (
	"net/url"
	"testing"
)

func TestQueryEncodesNestedValuesWithBrackets(t *testing.T) {
	cases := []struct {
		name string
		in   Query
		want string
	}{
		{name: "flat", in: Query{"b": "2", "a": 1}, want: "a=1&b=2"},
		{name: "array", in: Query{"ids": []string{"x", "y"}}, want: "ids%5B0%5D=x&ids%5B1%5D=y"},
		{name: "nested", in: Query{"filter": map[string]any{"org": 12, "name": "sales team"}}, want: "filter%5Bname%5D=sales%20team&filter%5Borg%5D=12"},
		{name: "array of objects", in: Query{"rows": []any{map[string]any{"id": 1}}}, want: "rows%5B0%5D%5Bid%5D=1"},
		{name: "nil skipped", in: Query{"a": nil, "b": true}, want: "b=true"},
		{name: "empty array", in: Query{"a": []int{}}, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Encode(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestValuesPassThrough(t *testing.T) {
	v := Values(url.Values{"url": {"/orders"}, "a[]": {"1"}})
	if got, want := v.Encode(), url.Values(v).Encode(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRequestURL(t *testing.T) {
	cases := []struct {
		name string
		base string
		req  Request
		want string
	}{
		{name: "joins base", base: "http://api.local/", req: Request{Path: "/api/auth/me"}, want: "http://api.local/api/auth/me"},
		{name: "absolute path kept", base: "http://api.local", req: Request{Path: "http://other/x"}, want: "http://other/x"},
		{name: "params appended", base: "http://api.local", req: Request{Path: "/a", Params: Query{"q": "1"}}, want: "http://api.local/a?q=1"},
		{name: "existing query", base: "", req: Request{Path: "/a?x=1", Params: Query{"q": "1"}}, want: "/a?x=1&q=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.URL(tc.base); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
