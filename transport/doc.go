// Package transport sends portal API calls over HTTP.
//
// A [Doer] executes one [Request] and returns the [Response]. Non-2xx answers come
// back as a *[StatusError] together with the response, so callers can still read the
// error body. Query parameters are explicitly tagged: [Query] is serialized with
// bracket notation for nested values, [Values] is sent as already encoded.
//
// # Implementations
//
//   - [HTTPClient] uses net/http with a cookie jar, so cookie-based sessions are
//     carried the way a browser with credentials enabled would.
//   - [FastHTTPClient] uses valyala/fasthttp and carries cookies itself.
//
// # What this package must NOT do
//
//   - Attach credentials, renew sessions or retry; the interceptor package owns that.
//   - Interpret application-level error markers in response bodies.
package transport
