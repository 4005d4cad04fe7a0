// Package navigation decides whether a route change may proceed.
//
// A [Guard] runs for every navigation: it hydrates the session once per tab,
// resolves the destination against the [RouteTable], sends unauthenticated users to
// the login page, and checks the destination against the menu authorization data in
// the session store. Unreachable destinations fall back to the first reachable leaf
// menu, or are cancelled when none exists.
//
// # Decision states
//
// Every check starts in [StateStart] and ends in exactly one of [StateAllowed],
// [StateDenied] or [StateRedirected]; [StateHydrating] and
// [StateAuthorizationCheck] are intermediate. A denial with a fallback menu is a
// [Redirect] in [StateDenied]; [StateRedirected] is kept for landing redirects.
package navigation
