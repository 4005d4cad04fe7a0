// Package goSession coordinates the client side of a portal session: one credential
// store per tab, a shared single-flight credential renewal, an interceptor pipeline
// for API calls and a navigation guard for the host router.
//
// An [Engine] is assembled by [Builder.Build] and is safe to call from multiple
// goroutines. Every API call made through [Engine.Do] attaches the current
// credential, renews it ahead of expiry, retries once after a 401 and normalizes the
// response. Navigations are checked with [Engine.Check] or followed to completion
// with [Engine.Navigate].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config] and value
// types re-exported from the sub-packages (Credential, Identity, Decision). The
// building blocks live in their own packages and can be used on their own:
//
//   - session: the credential store and its tab storage (memory, Redis, bbolt)
//   - refresh: the renewal and hydration slots
//   - interceptor: the request pipeline
//   - navigation: the route guard and the legacy menu-auth checker
//   - transport: net/http and fasthttp clients
//   - notify: alert and confirmation delivery
//
// Audit dispatch and counter storage live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Show UI. Alerts and confirmations go through a [notify.Notifier].
//   - Move the host router. Redirects go through a [navigation.Redirector] or come
//     back as a [navigation.Decision].
//   - Store passwords. Login credentials are sent once and dropped.
package goSession
