// Package interceptor wraps a transport with the session rules every API call
// follows.
//
// Before a request is sent, a credential inside the renewal window is renewed through
// the shared refresh slot and the Authorization header is attached. After the
// response arrives, application errors carried in a 2xx body are surfaced, list
// members in JSON bodies are tagged with row metadata, and a 401 triggers one renewal
// and one resend. Every failed call produces exactly one user notification.
//
// # What this package must NOT do
//
//   - Decide navigation; it only reports lost authorization through a callback.
//   - Retry more than once, or retry anything but a 401.
package interceptor
