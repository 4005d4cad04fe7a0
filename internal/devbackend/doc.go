// Package devbackend is an in-process stand-in for the portal backend. It issues
// JWT access tokens, keeps renewal handles in an HttpOnly cookie and serves the
// identity, menu-auth and sample data endpoints the session engine talks to.
package devbackend
