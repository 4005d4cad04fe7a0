// Package refresh coordinates credential renewal and the one-per-tab hydration
// probe.
//
// Renewal is single-flight: however many callers discover a stale credential at the
// same time, exactly one renewal call is in flight and every caller observes its
// outcome. The shared call runs detached from the callers' contexts, so a caller
// that gives up does not abort the renewal for the others; its result is applied to
// the store regardless.
//
// # Failure classification
//
// A renewal rejected with one of the force-logout statuses (401 and 403 by default)
// returns [ErrInvalidCredential] and logs the store out. Every other failure returns
// [ErrTransientNetwork] and leaves the store untouched.
//
// # What this package must NOT do
//
//   - Issue user-facing notifications; callers decide how to surface errors.
//   - Redirect; the interceptor and navigation packages own that.
package refresh
